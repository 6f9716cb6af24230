package repository

import (
	"context"

	"gorm.io/gorm"

	"tapboard/internal/model"
)

// OperatorRepository 运营账号数据访问接口
type OperatorRepository interface {
	Create(ctx context.Context, op *model.Operator) error
	GetByID(ctx context.Context, id string) (*model.Operator, error)
	GetByEmail(ctx context.Context, email string) (*model.Operator, error)
	Update(ctx context.Context, op *model.Operator) error
}

type operatorRepo struct {
	db *gorm.DB
}

// NewOperatorRepo 创建 OperatorRepository 实例
func NewOperatorRepo(db *gorm.DB) OperatorRepository {
	return &operatorRepo{db: db}
}

func (r *operatorRepo) Create(ctx context.Context, op *model.Operator) error {
	return r.db.WithContext(ctx).Create(op).Error
}

func (r *operatorRepo) GetByID(ctx context.Context, id string) (*model.Operator, error) {
	var op model.Operator
	err := r.db.WithContext(ctx).
		Where("operator_id = ?", id).
		First(&op).Error
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *operatorRepo) GetByEmail(ctx context.Context, email string) (*model.Operator, error) {
	var op model.Operator
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&op).Error
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *operatorRepo) Update(ctx context.Context, op *model.Operator) error {
	return r.db.WithContext(ctx).Save(op).Error
}
