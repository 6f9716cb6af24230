package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tapboard/internal/model"
)

// EntryFilter 单次排期列表筛选条件
type EntryFilter struct {
	LocationID string
	Kind       string     // event | food，空串表示不限
	DateFrom   *time.Time // 含当天
	DateTo     *time.Time // 含当天
	PublicOnly bool
}

// EntryRepository 单次排期数据访问接口
type EntryRepository interface {
	Create(ctx context.Context, entry *model.AdHocEntry) error
	GetByID(ctx context.Context, id string) (*model.AdHocEntry, error)
	List(ctx context.Context, filter EntryFilter) ([]model.AdHocEntry, error)
	ListByLocationAndDate(ctx context.Context, locationID string, date time.Time) ([]model.AdHocEntry, error)
	Update(ctx context.Context, entry *model.AdHocEntry) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type entryRepo struct {
	db *gorm.DB
}

// NewEntryRepo 创建 EntryRepository 实例
func NewEntryRepo(db *gorm.DB) EntryRepository {
	return &entryRepo{db: db}
}

func (r *entryRepo) Create(ctx context.Context, entry *model.AdHocEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *entryRepo) GetByID(ctx context.Context, id string) (*model.AdHocEntry, error) {
	var entry model.AdHocEntry
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *entryRepo) List(ctx context.Context, filter EntryFilter) ([]model.AdHocEntry, error) {
	var entries []model.AdHocEntry
	db := r.db.WithContext(ctx)

	if filter.LocationID != "" {
		db = db.Where("location_id = ?", filter.LocationID)
	}
	if filter.Kind != "" {
		db = db.Where("kind = ?", filter.Kind)
	}
	if filter.DateFrom != nil {
		db = db.Where("date >= ?", filter.DateFrom.Format("2006-01-02"))
	}
	if filter.DateTo != nil {
		db = db.Where("date <= ?", filter.DateTo.Format("2006-01-02"))
	}
	if filter.PublicOnly {
		db = db.Where("is_public = ?", true)
	}

	err := db.Order("date ASC, created_at ASC").Find(&entries).Error
	return entries, err
}

func (r *entryRepo) ListByLocationAndDate(ctx context.Context, locationID string, date time.Time) ([]model.AdHocEntry, error) {
	var entries []model.AdHocEntry
	err := r.db.WithContext(ctx).
		Where("location_id = ? AND date = ?", locationID, date.Format("2006-01-02")).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *entryRepo) Update(ctx context.Context, entry *model.AdHocEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *entryRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.AdHocEntry{}).
		Where("entry_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
