package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tapboard/internal/model"
	"tapboard/internal/repository"
)

// ── Mock LocationRepository ──

type mockLocationRepo struct {
	locations map[string]*model.Location
}

func newMockLocationRepo() *mockLocationRepo {
	return &mockLocationRepo{locations: make(map[string]*model.Location)}
}

func (m *mockLocationRepo) Create(_ context.Context, loc *model.Location) error {
	if loc.LocationID == "" {
		loc.LocationID = "loc-" + loc.Slug
	}
	m.locations[loc.LocationID] = loc
	return nil
}

func (m *mockLocationRepo) GetByID(_ context.Context, id string) (*model.Location, error) {
	if l, ok := m.locations[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLocationRepo) GetBySlug(_ context.Context, slug string) (*model.Location, error) {
	for _, l := range m.locations {
		if l.Slug == slug {
			return l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLocationRepo) List(_ context.Context, includeInactive bool) ([]model.Location, error) {
	var result []model.Location
	for _, l := range m.locations {
		if !includeInactive && !l.IsActive {
			continue
		}
		result = append(result, *l)
	}
	return result, nil
}

func (m *mockLocationRepo) Update(_ context.Context, loc *model.Location) error {
	m.locations[loc.LocationID] = loc
	return nil
}

func (m *mockLocationRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.locations, id)
	return nil
}

// ── Mock VendorRepository ──

type mockVendorRepo struct {
	vendors map[string]*model.FoodVendor
	listErr error // 非空时 GetByIDs 返回该错误，用于验证降级路径
}

func newMockVendorRepo() *mockVendorRepo {
	return &mockVendorRepo{vendors: make(map[string]*model.FoodVendor)}
}

func (m *mockVendorRepo) Create(_ context.Context, vendor *model.FoodVendor) error {
	if vendor.VendorID == "" {
		vendor.VendorID = "vendor-" + vendor.Name
	}
	m.vendors[vendor.VendorID] = vendor
	return nil
}

func (m *mockVendorRepo) GetByID(_ context.Context, id string) (*model.FoodVendor, error) {
	if v, ok := m.vendors[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockVendorRepo) GetByIDs(_ context.Context, ids []string) ([]model.FoodVendor, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []model.FoodVendor
	for _, id := range ids {
		if v, ok := m.vendors[id]; ok {
			result = append(result, *v)
		}
	}
	return result, nil
}

func (m *mockVendorRepo) List(_ context.Context, includeInactive bool) ([]model.FoodVendor, error) {
	var result []model.FoodVendor
	for _, v := range m.vendors {
		if !includeInactive && !v.IsActive {
			continue
		}
		result = append(result, *v)
	}
	return result, nil
}

func (m *mockVendorRepo) Update(_ context.Context, vendor *model.FoodVendor) error {
	m.vendors[vendor.VendorID] = vendor
	return nil
}

func (m *mockVendorRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.vendors, id)
	return nil
}

// ── Mock EntryRepository ──

type mockEntryRepo struct {
	entries map[string]*model.AdHocEntry
	seq     int
}

func newMockEntryRepo() *mockEntryRepo {
	return &mockEntryRepo{entries: make(map[string]*model.AdHocEntry)}
}

func (m *mockEntryRepo) Create(_ context.Context, entry *model.AdHocEntry) error {
	if entry.EntryID == "" {
		m.seq++
		entry.EntryID = fmt.Sprintf("entry-%03d", m.seq)
	}
	m.entries[entry.EntryID] = entry
	return nil
}

func (m *mockEntryRepo) GetByID(_ context.Context, id string) (*model.AdHocEntry, error) {
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEntryRepo) List(_ context.Context, filter repository.EntryFilter) ([]model.AdHocEntry, error) {
	var result []model.AdHocEntry
	for _, e := range m.entries {
		if filter.LocationID != "" && e.LocationID != filter.LocationID {
			continue
		}
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		if filter.DateFrom != nil && e.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && !e.Date.Before(*filter.DateTo) {
			continue
		}
		if filter.PublicOnly && !e.IsPublic {
			continue
		}
		result = append(result, *e)
	}
	// 与真实仓库一致：日期升序
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].Date.Before(result[i].Date) {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	return result, nil
}

func (m *mockEntryRepo) ListByLocationAndDate(_ context.Context, locationID string, date time.Time) ([]model.AdHocEntry, error) {
	var result []model.AdHocEntry
	for _, e := range m.entries {
		if e.LocationID == locationID && e.DateKey() == date.Format("2006-01-02") {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEntryRepo) Update(_ context.Context, entry *model.AdHocEntry) error {
	m.entries[entry.EntryID] = entry
	return nil
}

func (m *mockEntryRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.entries, id)
	return nil
}

// ── Mock RecurringRepository ──

type mockRecurringRepo struct {
	doc     *model.RecurringSchedule
	saveErr error // 非空时 Save 返回该错误，用于模拟乐观锁落败
}

func newMockRecurringRepo() *mockRecurringRepo {
	return &mockRecurringRepo{
		doc: &model.RecurringSchedule{
			ScheduleID: "sched-singleton",
			Schedules:  model.ScheduleMatrix{},
			Exclusions: model.ExclusionSet{},
		},
	}
}

func (m *mockRecurringRepo) Get(_ context.Context) (*model.RecurringSchedule, error) {
	return m.doc, nil
}

func (m *mockRecurringRepo) Save(_ context.Context, doc *model.RecurringSchedule) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	doc.Version++
	m.doc = doc
	return nil
}

// ── Mock OperatorRepository ──

type mockOperatorRepo struct {
	operators map[string]*model.Operator
}

func newMockOperatorRepo() *mockOperatorRepo {
	return &mockOperatorRepo{operators: make(map[string]*model.Operator)}
}

func (m *mockOperatorRepo) Create(_ context.Context, op *model.Operator) error {
	if op.OperatorID == "" {
		op.OperatorID = "op-" + op.Email
	}
	m.operators[op.OperatorID] = op
	return nil
}

func (m *mockOperatorRepo) GetByID(_ context.Context, id string) (*model.Operator, error) {
	if o, ok := m.operators[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOperatorRepo) GetByEmail(_ context.Context, email string) (*model.Operator, error) {
	for _, o := range m.operators {
		if o.Email == email {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOperatorRepo) Update(_ context.Context, op *model.Operator) error {
	m.operators[op.OperatorID] = op
	return nil
}

// ── 聚合构造 ──

type mockRepos struct {
	location  *mockLocationRepo
	vendor    *mockVendorRepo
	entry     *mockEntryRepo
	recurring *mockRecurringRepo
	operator  *mockOperatorRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	mocks := &mockRepos{
		location:  newMockLocationRepo(),
		vendor:    newMockVendorRepo(),
		entry:     newMockEntryRepo(),
		recurring: newMockRecurringRepo(),
		operator:  newMockOperatorRepo(),
	}
	repo := &repository.Repository{
		Location:  mocks.location,
		Vendor:    mocks.vendor,
		Entry:     mocks.entry,
		Recurring: mocks.recurring,
		Operator:  mocks.operator,
	}
	return repo, mocks
}
