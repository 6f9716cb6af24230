package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tapboard/internal/model"
	pkgerrors "tapboard/pkg/errors"
)

// RecurringRepository 周期排期文档数据访问接口
// 整站仅一份文档：Get 在文档不存在时自动创建空文档。
type RecurringRepository interface {
	Get(ctx context.Context) (*model.RecurringSchedule, error)
	Save(ctx context.Context, doc *model.RecurringSchedule) error
}

type recurringRepo struct {
	db *gorm.DB
}

// NewRecurringRepo 创建 RecurringRepository 实例
func NewRecurringRepo(db *gorm.DB) RecurringRepository {
	return &recurringRepo{db: db}
}

func (r *recurringRepo) Get(ctx context.Context) (*model.RecurringSchedule, error) {
	var doc model.RecurringSchedule
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		doc = model.RecurringSchedule{
			Schedules:  model.ScheduleMatrix{},
			Exclusions: model.ExclusionSet{},
		}
		if err := r.db.WithContext(ctx).Create(&doc).Error; err != nil {
			return nil, err
		}
		return &doc, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Schedules == nil {
		doc.Schedules = model.ScheduleMatrix{}
	}
	if doc.Exclusions == nil {
		doc.Exclusions = model.ExclusionSet{}
	}
	return &doc, nil
}

// Save 乐观锁更新：版本不匹配时返回 ErrOptimisticLock，调用方应让客户端刷新后重试。
func (r *recurringRepo) Save(ctx context.Context, doc *model.RecurringSchedule) error {
	oldVersion := doc.Version
	result := r.db.WithContext(ctx).
		Model(doc).
		Where("schedule_id = ? AND version = ?", doc.ScheduleID, oldVersion).
		Updates(map[string]interface{}{
			"schedules":  doc.Schedules,
			"exclusions": doc.Exclusions,
			"updated_by": doc.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	doc.Version = oldVersion + 1
	return nil
}
