package repository

import (
	"context"

	"gorm.io/gorm"

	"tapboard/internal/model"
)

// VendorRepository 餐车商家数据访问接口
type VendorRepository interface {
	Create(ctx context.Context, vendor *model.FoodVendor) error
	GetByID(ctx context.Context, id string) (*model.FoodVendor, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.FoodVendor, error)
	List(ctx context.Context, includeInactive bool) ([]model.FoodVendor, error)
	Update(ctx context.Context, vendor *model.FoodVendor) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type vendorRepo struct {
	db *gorm.DB
}

// NewVendorRepo 创建 VendorRepository 实例
func NewVendorRepo(db *gorm.DB) VendorRepository {
	return &vendorRepo{db: db}
}

func (r *vendorRepo) Create(ctx context.Context, vendor *model.FoodVendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

func (r *vendorRepo) GetByID(ctx context.Context, id string) (*model.FoodVendor, error) {
	var vendor model.FoodVendor
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", id).
		First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

// GetByIDs 批量查询；不存在的ID静默跳过，由调用方做占位处理。
func (r *vendorRepo) GetByIDs(ctx context.Context, ids []string) ([]model.FoodVendor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var vendors []model.FoodVendor
	err := r.db.WithContext(ctx).
		Where("vendor_id IN ?", ids).
		Find(&vendors).Error
	return vendors, err
}

func (r *vendorRepo) List(ctx context.Context, includeInactive bool) ([]model.FoodVendor, error) {
	var vendors []model.FoodVendor
	db := r.db.WithContext(ctx)

	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}

	err := db.Order("name ASC").Find(&vendors).Error
	return vendors, err
}

func (r *vendorRepo) Update(ctx context.Context, vendor *model.FoodVendor) error {
	return r.db.WithContext(ctx).Save(vendor).Error
}

func (r *vendorRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.FoodVendor{}).
		Where("vendor_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
