package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"tapboard/internal/dto"
	"tapboard/internal/model"
)

// ── 测试辅助 ──

func setupEntryService() (*entryService, *mockRepos) {
	repo, mocks := newMockRepos()
	logger := zap.NewNop()
	conflicts := NewConflictService(testScheduleConfig(), repo, logger).(*conflictService)
	conflicts.now = fixedNow
	svc := NewEntryService(testScheduleConfig(), repo, conflicts, logger).(*entryService)
	svc.now = fixedNow
	return svc, mocks
}

// ── Create 测试 ──

func TestEntryService_Create_Success(t *testing.T) {
	svc, mocks := setupEntryService()
	seedLocation(mocks, "loc-001")
	seedVendor(mocks, "vendor-taco", "Taco Cart")

	result, err := svc.Create(context.Background(), &dto.CreateEntryRequest{
		LocationID: "loc-001",
		Date:       "2024-03-22",
		Kind:       model.EntryKindFood,
		VendorID:   strPtr("vendor-taco"),
		TimeText:   "5-8pm",
	}, "op-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.VendorName != "Taco Cart" {
		t.Errorf("期望商家名 Taco Cart，实际 %s", result.VendorName)
	}
	// "5-8pm" → 17:00
	if result.StartTime == "" || result.StartTime[11:16] != "17:00" {
		t.Errorf("期望 5-8pm 归一化为 17:00，实际 StartTime=%q", result.StartTime)
	}
	if !result.IsPublic {
		t.Error("未指定 is_public 时默认公开")
	}
}

func TestEntryService_Create_WarningsAttached(t *testing.T) {
	svc, mocks := setupEntryService()
	seedLocation(mocks, "loc-001")
	seedVendor(mocks, "vendor-taco", "Taco Cart")

	// 2024-03-19 是三月第三个周二，周期排期已占用
	mocks.recurring.doc.Schedules.Set("loc-001", "tuesday", "third", "vendor-taco")

	result, err := svc.Create(context.Background(), &dto.CreateEntryRequest{
		LocationID: "loc-001",
		Date:       "2024-03-19",
		Kind:       model.EntryKindEvent,
		Title:      "Trivia Night",
	}, "op-001")
	if err != nil {
		t.Fatalf("冲突不应阻断创建: %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("期望 1 条冲突提醒，实际 %d", len(result.Warnings))
	}
	if result.Warnings[0].Type != "recurring" {
		t.Errorf("期望提醒类型 recurring，实际 %s", result.Warnings[0].Type)
	}
}

func TestEntryService_Create_NoSelfConflict(t *testing.T) {
	svc, mocks := setupEntryService()
	seedLocation(mocks, "loc-001")

	// 当天没有其他排期：新建记录不应与自己冲突
	result, err := svc.Create(context.Background(), &dto.CreateEntryRequest{
		LocationID: "loc-001",
		Date:       "2024-05-10",
		Kind:       model.EntryKindFood,
		VendorName: "快闪餐车",
	}, "op-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("不应与自己冲突，实际 %d 条提醒", len(result.Warnings))
	}
}

func TestEntryService_Create_LocationNotFound(t *testing.T) {
	svc, _ := setupEntryService()

	_, err := svc.Create(context.Background(), &dto.CreateEntryRequest{
		LocationID: "nonexistent",
		Date:       "2024-03-22",
		Kind:       model.EntryKindFood,
	}, "op-001")
	if !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("期望 ErrLocationNotFound，实际: %v", err)
	}
}

func TestEntryService_Create_InvalidDate(t *testing.T) {
	svc, mocks := setupEntryService()
	seedLocation(mocks, "loc-001")

	_, err := svc.Create(context.Background(), &dto.CreateEntryRequest{
		LocationID: "loc-001",
		Date:       "22/03/2024",
		Kind:       model.EntryKindFood,
	}, "op-001")
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("期望 ErrInvalidDate，实际: %v", err)
	}
}

// ── Update 测试 ──

func TestEntryService_Update_SelfExcludedFromWarnings(t *testing.T) {
	svc, mocks := setupEntryService()
	seedLocation(mocks, "loc-001")

	seedEntry(mocks, &model.AdHocEntry{
		EntryID: "entry-001", LocationID: "loc-001",
		Date: mustDate(t, "2024-04-01"), Kind: model.EntryKindFood,
		VendorName: "快闪餐车", IsPublic: true,
	})

	result, err := svc.Update(context.Background(), "entry-001", &dto.UpdateEntryRequest{
		TimeText: strPtr("noon"),
	}, "op-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("更新时不应与自己冲突，实际 %d 条提醒", len(result.Warnings))
	}
	if result.TimeText != "noon" {
		t.Errorf("期望 TimeText=noon，实际 %s", result.TimeText)
	}
	if result.StartTime == "" || result.StartTime[11:16] != "12:00" {
		t.Errorf("期望 noon 归一化为 12:00，实际 %q", result.StartTime)
	}
}

func TestEntryService_Update_NotFound(t *testing.T) {
	svc, _ := setupEntryService()

	_, err := svc.Update(context.Background(), "nonexistent", &dto.UpdateEntryRequest{}, "op-001")
	if !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("期望 ErrEntryNotFound，实际: %v", err)
	}
}

// ── 展示名降级测试 ──

func TestEntryService_GetByID_VendorNameFallback(t *testing.T) {
	svc, mocks := setupEntryService()
	seedLocation(mocks, "loc-001")

	// 关联商家已被删除 → 落记录自带名；无自带名 → 占位名
	gone := "vendor-gone"
	seedEntry(mocks, &model.AdHocEntry{
		EntryID: "entry-named", LocationID: "loc-001",
		Date: mustDate(t, "2024-04-01"), Kind: model.EntryKindFood,
		VendorID: &gone, VendorName: "原名快照", IsPublic: true,
	})
	seedEntry(mocks, &model.AdHocEntry{
		EntryID: "entry-bare", LocationID: "loc-001",
		Date: mustDate(t, "2024-04-02"), Kind: model.EntryKindFood,
		VendorID: &gone, IsPublic: true,
	})

	named, err := svc.GetByID(context.Background(), "entry-named")
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if named.VendorName != "原名快照" {
		t.Errorf("期望落记录自带名，实际 %s", named.VendorName)
	}

	bare, err := svc.GetByID(context.Background(), "entry-bare")
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if bare.VendorName != model.UnknownVendorName {
		t.Errorf("期望占位名 %q，实际 %q", model.UnknownVendorName, bare.VendorName)
	}
}

// ── ImportICS 测试 ──

const testICSContent = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//EN
BEGIN:VEVENT
UID:evt-1@test
DTSTART:20240415T170000
DTEND:20240415T200000
SUMMARY:Smash Burger Truck
END:VEVENT
BEGIN:VEVENT
UID:evt-2@test
DTSTART;VALUE=DATE:20240420
SUMMARY:Vinyl Night
END:VEVENT
BEGIN:VEVENT
UID:evt-3@test
DTSTART:20230101T120000
SUMMARY:Past Event
END:VEVENT
END:VCALENDAR
`

func TestEntryService_ImportICS_ImportsAndSkipsPast(t *testing.T) {
	svc, mocks := setupEntryService()
	seedLocation(mocks, "loc-001")

	result, err := svc.ImportICS(context.Background(), &dto.ImportICSRequest{
		LocationID: "loc-001",
		Content:    testICSContent,
		Kind:       model.EntryKindFood,
	}, "op-001")
	if err != nil {
		t.Fatalf("ImportICS 应成功: %v", err)
	}
	if result.Imported != 2 {
		t.Errorf("期望导入 2 条，实际 %d", result.Imported)
	}
	if result.Skipped != 1 {
		t.Errorf("期望跳过 1 条过去的事件，实际 %d", result.Skipped)
	}

	// food 类型导入时标题同时作为商家名
	var burger *dto.EntryResponse
	for i := range result.Entries {
		if result.Entries[i].Title == "Smash Burger Truck" {
			burger = &result.Entries[i]
		}
	}
	if burger == nil {
		t.Fatal("期望导入 Smash Burger Truck")
	}
	if burger.VendorName != "Smash Burger Truck" {
		t.Errorf("food 导入应以标题作商家名，实际 %s", burger.VendorName)
	}
	if burger.TimeText == "" {
		t.Error("带时刻的事件应生成时间文本")
	}
	if burger.StartTime == "" || burger.StartTime[11:16] != "17:00" {
		t.Errorf("期望导入时间归一化为 17:00，实际 %q", burger.StartTime)
	}
}

func TestEntryService_ImportICS_DedupAgainstExisting(t *testing.T) {
	svc, mocks := setupEntryService()
	seedLocation(mocks, "loc-001")

	// 第一次导入
	if _, err := svc.ImportICS(context.Background(), &dto.ImportICSRequest{
		LocationID: "loc-001",
		Content:    testICSContent,
	}, "op-001"); err != nil {
		t.Fatalf("首次导入应成功: %v", err)
	}

	// 重复导入同一份日历 → 全部跳过
	again, err := svc.ImportICS(context.Background(), &dto.ImportICSRequest{
		LocationID: "loc-001",
		Content:    testICSContent,
	}, "op-001")
	if err != nil {
		t.Fatalf("重复导入应成功: %v", err)
	}
	if again.Imported != 0 {
		t.Errorf("重复导入期望 0 条新增，实际 %d", again.Imported)
	}
	if again.Skipped != 3 {
		t.Errorf("重复导入期望跳过 3 条，实际 %d", again.Skipped)
	}
}

func TestEntryService_ImportICS_SourceMissing(t *testing.T) {
	svc, mocks := setupEntryService()
	seedLocation(mocks, "loc-001")

	_, err := svc.ImportICS(context.Background(), &dto.ImportICSRequest{
		LocationID: "loc-001",
	}, "op-001")
	if !errors.Is(err, ErrICSSourceMissing) {
		t.Errorf("期望 ErrICSSourceMissing，实际: %v", err)
	}
}
