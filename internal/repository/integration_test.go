//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pkgerrors "tapboard/pkg/errors"

	"tapboard/internal/model"
	"tapboard/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=tapboard password=tapboard_password dbname=tapboard_test sslmode=disable TimeZone=America/New_York"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 自动迁移测试表结构
	err = testDB.AutoMigrate(
		&model.Location{},
		&model.FoodVendor{},
		&model.AdHocEntry{},
		&model.RecurringSchedule{},
		&model.Operator{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupTestData 创建基础测试数据并返回清理函数
func setupTestData(t *testing.T) (loc *model.Location, vendor *model.FoodVendor, cleanup func()) {
	t.Helper()
	ctx := context.Background()

	loc = &model.Location{
		Name:     fmt.Sprintf("测试门店-%d", time.Now().UnixNano()),
		Slug:     fmt.Sprintf("test-loc-%d", time.Now().UnixNano()),
		IsActive: true,
	}
	if err := testDB.WithContext(ctx).Create(loc).Error; err != nil {
		t.Fatalf("创建门店失败: %v", err)
	}

	vendor = &model.FoodVendor{
		Name:     fmt.Sprintf("测试餐车-%d", time.Now().UnixNano()),
		Cuisine:  "Tacos",
		IsActive: true,
	}
	if err := testDB.WithContext(ctx).Create(vendor).Error; err != nil {
		t.Fatalf("创建商家失败: %v", err)
	}

	cleanup = func() {
		testDB.Unscoped().Where("vendor_id = ?", vendor.VendorID).Delete(&model.FoodVendor{})
		testDB.Unscoped().Where("location_id = ?", loc.LocationID).Delete(&model.Location{})
	}
	return
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_RecurringSchedule_ConflictDetected(t *testing.T) {
	loc, vendor, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	doc, err := repo.Recurring.Get(ctx)
	if err != nil {
		t.Fatalf("读取周期排期文档失败: %v", err)
	}
	defer testDB.Unscoped().Where("schedule_id = ?", doc.ScheduleID).Delete(&model.RecurringSchedule{})

	// 两个编辑者同时持有同一版本
	stale, err := repo.Recurring.Get(ctx)
	if err != nil {
		t.Fatalf("读取周期排期文档失败: %v", err)
	}

	doc.Schedules.Set(loc.LocationID, "tuesday", "third", vendor.VendorID)
	if err := repo.Recurring.Save(ctx, doc); err != nil {
		t.Fatalf("第一次保存应成功: %v", err)
	}

	stale.Schedules.Set(loc.LocationID, "friday", "first", vendor.VendorID)
	err = repo.Recurring.Save(ctx, stale)
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

func TestOptimisticLock_VersionIncrement(t *testing.T) {
	loc, vendor, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	doc, err := repo.Recurring.Get(ctx)
	if err != nil {
		t.Fatalf("读取周期排期文档失败: %v", err)
	}
	defer testDB.Unscoped().Where("schedule_id = ?", doc.ScheduleID).Delete(&model.RecurringSchedule{})

	before := doc.Version
	doc.Schedules.Set(loc.LocationID, "sunday", "second", vendor.VendorID)
	if err := repo.Recurring.Save(ctx, doc); err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	if doc.Version != before+1 {
		t.Errorf("期望版本号 %d，实际 %d", before+1, doc.Version)
	}

	reloaded, err := repo.Recurring.Get(ctx)
	if err != nil {
		t.Fatalf("重新读取失败: %v", err)
	}
	if reloaded.Version != doc.Version {
		t.Errorf("持久化版本号不匹配: expected %d, got %d", doc.Version, reloaded.Version)
	}
	if got := reloaded.Schedules.Get(loc.LocationID, "sunday", "second"); got != vendor.VendorID {
		t.Errorf("矩阵内容未持久化: expected %s, got %s", vendor.VendorID, got)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Recurring document bootstrap
// ═══════════════════════════════════════════════════════════

func TestRecurringGet_CreatesEmptyDocument(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	doc, err := repo.Recurring.Get(ctx)
	if err != nil {
		t.Fatalf("Get 应自动创建空文档: %v", err)
	}
	defer testDB.Unscoped().Where("schedule_id = ?", doc.ScheduleID).Delete(&model.RecurringSchedule{})

	if doc.ScheduleID == "" {
		t.Error("期望自动生成 ScheduleID")
	}
	if doc.Schedules == nil || doc.Exclusions == nil {
		t.Error("期望空文档的矩阵与排除集合都已初始化")
	}

	// 二次读取应复用同一份文档
	again, err := repo.Recurring.Get(ctx)
	if err != nil {
		t.Fatalf("二次读取失败: %v", err)
	}
	if again.ScheduleID != doc.ScheduleID {
		t.Errorf("期望复用文档 %s，实际 %s", doc.ScheduleID, again.ScheduleID)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: AdHocEntry filters
// ═══════════════════════════════════════════════════════════

func TestEntryList_DateWindowAndKind(t *testing.T) {
	loc, vendor, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	base := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	entries := []*model.AdHocEntry{
		{LocationID: loc.LocationID, Date: base, Kind: model.EntryKindFood, VendorID: &vendor.VendorID, IsPublic: true},
		{LocationID: loc.LocationID, Date: base.AddDate(0, 0, 5), Kind: model.EntryKindEvent, Title: "Trivia Night", IsPublic: true},
		{LocationID: loc.LocationID, Date: base.AddDate(0, 2, 0), Kind: model.EntryKindFood, VendorName: "快闪餐车", IsPublic: false},
	}
	for _, e := range entries {
		if err := repo.Entry.Create(ctx, e); err != nil {
			t.Fatalf("创建单次排期失败: %v", err)
		}
		defer testDB.Unscoped().Where("entry_id = ?", e.EntryID).Delete(&model.AdHocEntry{})
	}

	from := base.AddDate(0, 0, -1)
	to := base.AddDate(0, 1, 0)
	got, err := repo.Entry.List(ctx, repository.EntryFilter{
		LocationID: loc.LocationID,
		DateFrom:   &from,
		DateTo:     &to,
	})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("期望窗口内 2 条，实际 %d", len(got))
	}
	if !got[0].Date.Before(got[1].Date) {
		t.Error("期望按日期升序返回")
	}

	foods, err := repo.Entry.List(ctx, repository.EntryFilter{
		LocationID: loc.LocationID,
		Kind:       model.EntryKindFood,
	})
	if err != nil {
		t.Fatalf("按类型过滤失败: %v", err)
	}
	for _, e := range foods {
		if e.Kind != model.EntryKindFood {
			t.Errorf("期望仅返回餐车排期，实际出现 %s", e.Kind)
		}
	}
}

func TestEntryListByLocationAndDate(t *testing.T) {
	loc, vendor, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	day := time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)
	same1 := &model.AdHocEntry{LocationID: loc.LocationID, Date: day, Kind: model.EntryKindFood, VendorID: &vendor.VendorID, IsPublic: true}
	same2 := &model.AdHocEntry{LocationID: loc.LocationID, Date: day, Kind: model.EntryKindEvent, Title: "Live Music", IsPublic: true}
	other := &model.AdHocEntry{LocationID: loc.LocationID, Date: day.AddDate(0, 0, 1), Kind: model.EntryKindFood, IsPublic: true}
	for _, e := range []*model.AdHocEntry{same1, same2, other} {
		if err := repo.Entry.Create(ctx, e); err != nil {
			t.Fatalf("创建单次排期失败: %v", err)
		}
		defer testDB.Unscoped().Where("entry_id = ?", e.EntryID).Delete(&model.AdHocEntry{})
	}

	got, err := repo.Entry.ListByLocationAndDate(ctx, loc.LocationID, day)
	if err != nil {
		t.Fatalf("ListByLocationAndDate 失败: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("期望同日 2 条，实际 %d", len(got))
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Vendor batch lookup / soft delete
// ═══════════════════════════════════════════════════════════

func TestVendorGetByIDs(t *testing.T) {
	_, vendor, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	got, err := repo.Vendor.GetByIDs(ctx, []string{vendor.VendorID, "00000000-0000-0000-0000-000000000000"})
	if err != nil {
		t.Fatalf("GetByIDs 失败: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("期望命中 1 条，实际 %d", len(got))
	}
	if got[0].VendorID != vendor.VendorID {
		t.Errorf("ID 不匹配: expected %s, got %s", vendor.VendorID, got[0].VendorID)
	}

	empty, err := repo.Vendor.GetByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("空ID列表不应报错: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("空ID列表期望空结果，实际 %d", len(empty))
	}
}

func TestVendor_SoftDelete(t *testing.T) {
	_, vendor, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if err := repo.Vendor.Delete(ctx, vendor.VendorID, "op-test"); err != nil {
		t.Fatalf("软删除失败: %v", err)
	}

	_, err := repo.Vendor.GetByID(ctx, vendor.VendorID)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望软删除后查不到，实际: %v", err)
	}

	// 记录仍在表中（deleted_at 非空）
	var count int64
	testDB.Unscoped().Model(&model.FoodVendor{}).
		Where("vendor_id = ? AND deleted_at IS NOT NULL", vendor.VendorID).
		Count(&count)
	if count != 1 {
		t.Errorf("期望 Unscoped 查询到已删除记录，实际 count=%d", count)
	}
}
