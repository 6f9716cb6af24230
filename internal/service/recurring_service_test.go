package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"tapboard/internal/dto"
	"tapboard/internal/model"
	pkgerrors "tapboard/pkg/errors"
)

// ── 测试辅助 ──

func setupRecurringService() (*recurringService, *mockRepos) {
	repo, mocks := newMockRepos()
	svc := NewRecurringService(testScheduleConfig(), repo, zap.NewNop()).(*recurringService)
	svc.now = fixedNow
	return svc, mocks
}

func strPtr(s string) *string { return &s }

// ── GetGrid 测试 ──

func TestRecurringService_GetGrid_OnlyAssignedCells(t *testing.T) {
	svc, mocks := setupRecurringService()
	seedLocation(mocks, "loc-001")
	seedVendor(mocks, "vendor-taco", "Taco Cart")

	mocks.recurring.doc.Schedules.Set("loc-001", "tuesday", "third", "vendor-taco")
	mocks.recurring.doc.Schedules.Set("loc-001", "friday", "first", "vendor-taco")

	grid, err := svc.GetGrid(context.Background(), "loc-001")
	if err != nil {
		t.Fatalf("GetGrid 应成功: %v", err)
	}
	if len(grid.Cells) != 2 {
		t.Fatalf("期望 2 个已分配格子，实际 %d", len(grid.Cells))
	}
	// 按星期序返回：tuesday 在 friday 之前
	if grid.Cells[0].Weekday != "tuesday" || grid.Cells[1].Weekday != "friday" {
		t.Errorf("期望格子按星期排序，实际 %s, %s", grid.Cells[0].Weekday, grid.Cells[1].Weekday)
	}
	if grid.Cells[0].VendorName != "Taco Cart" {
		t.Errorf("期望商家名 Taco Cart，实际 %s", grid.Cells[0].VendorName)
	}
}

func TestRecurringService_GetGrid_LocationNotFound(t *testing.T) {
	svc, _ := setupRecurringService()

	_, err := svc.GetGrid(context.Background(), "nonexistent")
	if !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("期望 ErrLocationNotFound，实际: %v", err)
	}
}

// ── UpdateCell 测试 ──

func TestRecurringService_UpdateCell_AssignAndRecompute(t *testing.T) {
	svc, mocks := setupRecurringService()
	seedLocation(mocks, "loc-001")
	seedVendor(mocks, "vendor-taco", "Taco Cart")

	result, err := svc.UpdateCell(context.Background(), "loc-001", &dto.UpdateCellRequest{
		Weekday:  "tuesday",
		WeekSlot: "third",
		VendorID: strPtr("vendor-taco"),
	}, "op-001")
	if err != nil {
		t.Fatalf("UpdateCell 应成功: %v", err)
	}
	if result.Version != 1 {
		t.Errorf("期望保存后版本号 1，实际 %d", result.Version)
	}
	if result.Upcoming == nil || len(result.Upcoming.Months) == 0 {
		t.Fatal("赋值后应重算出未来场次")
	}
	// 第一场：2024-03-19（三月第三个周二）
	first := result.Upcoming.Months[0].Occurrences[0]
	if first.Date != "2024-03-19" {
		t.Errorf("期望首场 2024-03-19，实际 %s", first.Date)
	}
	if first.Source != "recurring" || first.VendorName != "Taco Cart" {
		t.Errorf("首场内容不符: source=%s vendor=%s", first.Source, first.VendorName)
	}

	if got := mocks.recurring.doc.Schedules.Get("loc-001", "tuesday", "third"); got != "vendor-taco" {
		t.Errorf("矩阵未写入: %s", got)
	}
}

func TestRecurringService_UpdateCell_ClearCell(t *testing.T) {
	svc, mocks := setupRecurringService()
	seedLocation(mocks, "loc-001")
	seedVendor(mocks, "vendor-taco", "Taco Cart")
	mocks.recurring.doc.Schedules.Set("loc-001", "tuesday", "third", "vendor-taco")

	result, err := svc.UpdateCell(context.Background(), "loc-001", &dto.UpdateCellRequest{
		Weekday:  "tuesday",
		WeekSlot: "third",
		VendorID: nil, // 清除
	}, "op-001")
	if err != nil {
		t.Fatalf("清除格子应成功: %v", err)
	}
	if got := mocks.recurring.doc.Schedules.Get("loc-001", "tuesday", "third"); got != "" {
		t.Errorf("期望格子被清除，实际 %s", got)
	}
	for _, m := range result.Upcoming.Months {
		for _, occ := range m.Occurrences {
			if occ.Source == "recurring" {
				t.Error("清除后不应再有周期场次")
			}
		}
	}
}

func TestRecurringService_UpdateCell_VendorNotFound(t *testing.T) {
	svc, mocks := setupRecurringService()
	seedLocation(mocks, "loc-001")

	_, err := svc.UpdateCell(context.Background(), "loc-001", &dto.UpdateCellRequest{
		Weekday:  "tuesday",
		WeekSlot: "third",
		VendorID: strPtr("nonexistent"),
	}, "op-001")
	if !errors.Is(err, ErrVendorNotFound) {
		t.Errorf("期望 ErrVendorNotFound，实际: %v", err)
	}
}

func TestRecurringService_UpdateCell_OptimisticLockPassthrough(t *testing.T) {
	svc, mocks := setupRecurringService()
	seedLocation(mocks, "loc-001")
	seedVendor(mocks, "vendor-taco", "Taco Cart")
	mocks.recurring.saveErr = pkgerrors.ErrOptimisticLock

	_, err := svc.UpdateCell(context.Background(), "loc-001", &dto.UpdateCellRequest{
		Weekday:  "tuesday",
		WeekSlot: "third",
		VendorID: strPtr("vendor-taco"),
	}, "op-001")
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望乐观锁错误透传，实际: %v", err)
	}
}

// ── ToggleExclusion 测试 ──

func TestRecurringService_ToggleExclusion_RoundTrip(t *testing.T) {
	svc, mocks := setupRecurringService()
	seedLocation(mocks, "loc-001")
	seedVendor(mocks, "vendor-taco", "Taco Cart")
	mocks.recurring.doc.Schedules.Set("loc-001", "tuesday", "third", "vendor-taco")

	// 第一次切换 → 排除
	result, err := svc.ToggleExclusion(context.Background(), "loc-001", &dto.ToggleExclusionRequest{
		Date: "2024-03-19",
	}, "op-001")
	if err != nil {
		t.Fatalf("ToggleExclusion 应成功: %v", err)
	}
	if !result.Excluded {
		t.Error("第一次切换后期望 Excluded=true")
	}

	var found bool
	for _, m := range result.Upcoming.Months {
		for _, occ := range m.Occurrences {
			if occ.Date == "2024-03-19" && occ.Source == "recurring" {
				found = true
				if !occ.Excluded {
					t.Error("排除日的周期场次应标记 Excluded")
				}
				if occ.Conflicted {
					t.Error("排除的场次不应再标冲突")
				}
			}
		}
	}
	if !found {
		t.Error("排除的场次仍应出现在列表中（置灰展示）")
	}

	// 第二次切换 → 恢复
	result, err = svc.ToggleExclusion(context.Background(), "loc-001", &dto.ToggleExclusionRequest{
		Date: "2024-03-19",
	}, "op-001")
	if err != nil {
		t.Fatalf("二次切换应成功: %v", err)
	}
	if result.Excluded {
		t.Error("二次切换后期望 Excluded=false")
	}
	if mocks.recurring.doc.Exclusions.Has("loc-001", "2024-03-19") {
		t.Error("二次切换后排除集合中不应再有该日期")
	}
}

func TestRecurringService_ToggleExclusion_InvalidDate(t *testing.T) {
	svc, mocks := setupRecurringService()
	seedLocation(mocks, "loc-001")

	_, err := svc.ToggleExclusion(context.Background(), "loc-001", &dto.ToggleExclusionRequest{
		Date: "03/19/2024",
	}, "op-001")
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("期望 ErrInvalidDate，实际: %v", err)
	}
}

// ── ListUpcoming 测试 ──

func TestRecurringService_ListUpcoming_MergesAndSorts(t *testing.T) {
	svc, mocks := setupRecurringService()
	seedLocation(mocks, "loc-001")
	seedVendor(mocks, "vendor-taco", "Taco Cart")

	mocks.recurring.doc.Schedules.Set("loc-001", "tuesday", "third", "vendor-taco")
	// 同日两条单次排期：带时间的排前
	seedEntry(mocks, &model.AdHocEntry{
		EntryID: "entry-late", LocationID: "loc-001",
		Date: mustDate(t, "2024-03-19"), Kind: model.EntryKindEvent,
		Title: "Trivia Night", TimeText: "7-9pm", IsPublic: true,
	})
	seedEntry(mocks, &model.AdHocEntry{
		EntryID: "entry-noon", LocationID: "loc-001",
		Date: mustDate(t, "2024-03-19"), Kind: model.EntryKindFood,
		VendorName: "快闪餐车", TimeText: "noon", IsPublic: true,
	})

	result, err := svc.ListUpcoming(context.Background(), "loc-001")
	if err != nil {
		t.Fatalf("ListUpcoming 应成功: %v", err)
	}
	if result.Months[0].Month != "2024-03" {
		t.Fatalf("期望首月 2024-03，实际 %s", result.Months[0].Month)
	}

	var sameDay []dto.UpcomingOccurrence
	for _, occ := range result.Months[0].Occurrences {
		if occ.Date == "2024-03-19" {
			sameDay = append(sameDay, occ)
		}
	}
	if len(sameDay) != 3 {
		t.Fatalf("期望 2024-03-19 有 3 个场次（1 周期 + 2 单次），实际 %d", len(sameDay))
	}
	// 归一化时刻升序：noon(12:00) 在 7-9pm(19:00) 之前；无时刻的周期场次排最后
	if sameDay[0].EntryID != "entry-noon" {
		t.Errorf("期望 noon 场排第一，实际 %s", sameDay[0].EntryID)
	}
	if sameDay[1].EntryID != "entry-late" {
		t.Errorf("期望 7-9pm 场排第二，实际 %s", sameDay[1].EntryID)
	}
	if sameDay[2].Source != "recurring" {
		t.Errorf("期望无时刻的周期场次排最后，实际 source=%s", sameDay[2].Source)
	}

	// 两条单次排期都与周期场次冲突 → 2 条配对记录
	if len(result.Conflicts) != 2 {
		t.Errorf("期望 2 条冲突配对，实际 %d", len(result.Conflicts))
	}
	for _, occ := range sameDay {
		if !occ.Conflicted {
			t.Errorf("同日场次 %s/%s 应标记冲突", occ.Source, occ.EntryID)
		}
	}
}

func TestRecurringService_ListUpcoming_StartTimeNormalized(t *testing.T) {
	svc, mocks := setupRecurringService()
	seedLocation(mocks, "loc-001")

	seedEntry(mocks, &model.AdHocEntry{
		EntryID: "entry-001", LocationID: "loc-001",
		Date: mustDate(t, "2024-04-05"), Kind: model.EntryKindFood,
		VendorName: "快闪餐车", TimeText: "4:30", IsPublic: true,
	})
	seedEntry(mocks, &model.AdHocEntry{
		EntryID: "entry-002", LocationID: "loc-001",
		Date: mustDate(t, "2024-04-06"), Kind: model.EntryKindFood,
		VendorName: "另一家", TimeText: "看情况", IsPublic: true,
	})

	result, err := svc.ListUpcoming(context.Background(), "loc-001")
	if err != nil {
		t.Fatalf("ListUpcoming 应成功: %v", err)
	}

	byID := make(map[string]dto.UpcomingOccurrence)
	for _, m := range result.Months {
		for _, occ := range m.Occurrences {
			if occ.EntryID != "" {
				byID[occ.EntryID] = occ
			}
		}
	}
	// "4:30" 无午别默认 PM → 16:30
	if occ := byID["entry-001"]; occ.StartTime == "" || occ.StartTime[11:16] != "16:30" {
		t.Errorf("期望 4:30 归一化为 16:30，实际 StartTime=%q", occ.StartTime)
	}
	// 无法解析的时间文本不产出 StartTime，但场次保留
	if occ := byID["entry-002"]; occ.StartTime != "" {
		t.Errorf("无法解析的时间不应有 StartTime，实际 %q", occ.StartTime)
	}
}
