package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tapboard/config"
	"tapboard/internal/dto"
	"tapboard/internal/model"
	"tapboard/internal/repository"
)

// ── 周期排期模块业务错误 ──

var (
	ErrInvalidDate = errors.New("日期格式无效")
)

// RecurringService 周期排期编辑器业务接口
// 每次读取都从矩阵与排除集合现算，编辑之间不缓存场次列表。
type RecurringService interface {
	GetGrid(ctx context.Context, locationID string) (*dto.GridResponse, error)
	UpdateCell(ctx context.Context, locationID string, req *dto.UpdateCellRequest, callerID string) (*dto.UpdateCellResponse, error)
	ListUpcoming(ctx context.Context, locationID string) (*dto.UpcomingResponse, error)
	ToggleExclusion(ctx context.Context, locationID string, req *dto.ToggleExclusionRequest, callerID string) (*dto.ToggleExclusionResponse, error)
}

type recurringService struct {
	repo   *repository.Repository
	cfg    *config.ScheduleConfig
	logger *zap.Logger
	now    func() time.Time // 测试时可替换
}

// NewRecurringService 创建 RecurringService 实例
func NewRecurringService(cfg *config.ScheduleConfig, repo *repository.Repository, logger *zap.Logger) RecurringService {
	return &recurringService{repo: repo, cfg: cfg, logger: logger, now: time.Now}
}

func (s *recurringService) today() time.Time {
	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		loc = time.Local
	}
	return s.now().In(loc)
}

// requireLocation 校验门店存在
func (s *recurringService) requireLocation(ctx context.Context, locationID string) error {
	if _, err := s.repo.Location.GetByID(ctx, locationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLocationNotFound
		}
		s.logger.Error("查询门店失败", zap.String("id", locationID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── GetGrid ──────────────────────

func (s *recurringService) GetGrid(ctx context.Context, locationID string) (*dto.GridResponse, error) {
	if err := s.requireLocation(ctx, locationID); err != nil {
		return nil, err
	}

	doc, err := s.repo.Recurring.Get(ctx)
	if err != nil {
		s.logger.Error("读取周期排期文档失败", zap.Error(err))
		return nil, err
	}

	var ids []string
	for _, slots := range doc.Schedules[locationID] {
		for _, vendorID := range slots {
			ids = append(ids, vendorID)
		}
	}
	names := resolveVendorNames(ctx, s.repo.Vendor, s.logger, ids)

	// 只回已分配的格子，按星期、周次排序
	cells := make([]dto.GridCell, 0)
	for _, weekdayName := range model.WeekdayNames {
		slots, ok := doc.Schedules[locationID][weekdayName]
		if !ok {
			continue
		}
		for _, slotName := range model.WeekSlotNames {
			vendorID, ok := slots[slotName]
			if !ok || vendorID == "" {
				continue
			}
			cells = append(cells, dto.GridCell{
				Weekday:    weekdayName,
				WeekSlot:   slotName,
				VendorID:   vendorID,
				VendorName: vendorNameOr(names, vendorID),
			})
		}
	}

	return &dto.GridResponse{
		LocationID: locationID,
		Version:    doc.Version,
		Cells:      cells,
	}, nil
}

// ────────────────────── UpdateCell ──────────────────────

func (s *recurringService) UpdateCell(ctx context.Context, locationID string, req *dto.UpdateCellRequest, callerID string) (*dto.UpdateCellResponse, error) {
	if err := s.requireLocation(ctx, locationID); err != nil {
		return nil, err
	}

	vendorID := ""
	if req.VendorID != nil && *req.VendorID != "" {
		if _, err := s.repo.Vendor.GetByID(ctx, *req.VendorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrVendorNotFound
			}
			s.logger.Error("查询商家失败", zap.String("id", *req.VendorID), zap.Error(err))
			return nil, err
		}
		vendorID = *req.VendorID
	}

	doc, err := s.repo.Recurring.Get(ctx)
	if err != nil {
		s.logger.Error("读取周期排期文档失败", zap.Error(err))
		return nil, err
	}

	doc.Schedules.Set(locationID, req.Weekday, req.WeekSlot, vendorID)
	doc.UpdatedBy = &callerID

	if err := s.repo.Recurring.Save(ctx, doc); err != nil {
		s.logger.Error("保存周期排期文档失败",
			zap.String("location_id", locationID),
			zap.String("weekday", req.Weekday),
			zap.String("week_slot", req.WeekSlot),
			zap.Error(err))
		return nil, err
	}

	// 赋值立即作废此前算出的场次列表，从新矩阵重算
	upcoming, err := s.buildUpcoming(ctx, locationID, doc)
	if err != nil {
		return nil, err
	}

	return &dto.UpdateCellResponse{Version: doc.Version, Upcoming: upcoming}, nil
}

// ────────────────────── ListUpcoming ──────────────────────

func (s *recurringService) ListUpcoming(ctx context.Context, locationID string) (*dto.UpcomingResponse, error) {
	if err := s.requireLocation(ctx, locationID); err != nil {
		return nil, err
	}

	doc, err := s.repo.Recurring.Get(ctx)
	if err != nil {
		s.logger.Error("读取周期排期文档失败", zap.Error(err))
		return nil, err
	}

	return s.buildUpcoming(ctx, locationID, doc)
}

// ────────────────────── ToggleExclusion ──────────────────────

func (s *recurringService) ToggleExclusion(ctx context.Context, locationID string, req *dto.ToggleExclusionRequest, callerID string) (*dto.ToggleExclusionResponse, error) {
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, ErrInvalidDate
	}
	if err := s.requireLocation(ctx, locationID); err != nil {
		return nil, err
	}

	doc, err := s.repo.Recurring.Get(ctx)
	if err != nil {
		s.logger.Error("读取周期排期文档失败", zap.Error(err))
		return nil, err
	}

	excluded := doc.Exclusions.Toggle(locationID, req.Date)
	doc.UpdatedBy = &callerID

	if err := s.repo.Recurring.Save(ctx, doc); err != nil {
		s.logger.Error("保存排除日期失败",
			zap.String("location_id", locationID),
			zap.String("date", req.Date),
			zap.Error(err))
		return nil, err
	}

	upcoming, err := s.buildUpcoming(ctx, locationID, doc)
	if err != nil {
		return nil, err
	}

	return &dto.ToggleExclusionResponse{
		Excluded: excluded,
		Version:  doc.Version,
		Upcoming: upcoming,
	}, nil
}

// ── 内部辅助方法 ──

// buildUpcoming 合并周期与单次场次：日期升序、同日按归一化时刻、按月分组，
// 并附上窗口内的全部冲突配对。
func (s *recurringService) buildUpcoming(ctx context.Context, locationID string, doc *model.RecurringSchedule) (*dto.UpcomingResponse, error) {
	today := s.today()
	occs := expandLocationMatrix(doc.Schedules, doc.Exclusions, locationID, s.cfg.EditorMonths, today)

	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	to := from.AddDate(0, s.cfg.EditorMonths, 0)
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
	conflicts := pairConflictRecords(locationID, occs, entries, names)

	conflictedDates := make(map[string]bool)
	conflictedEntries := make(map[string]bool)
	for _, c := range conflicts {
		conflictedDates[c.Date] = true
		conflictedEntries[c.EntryID] = true
	}

	type mergedItem struct {
		occ      dto.UpcomingOccurrence
		date     time.Time
		start    time.Time
		hasStart bool
	}

	items := make([]mergedItem, 0, len(occs)+len(entries))
	for _, occ := range occs {
		key := occ.Date.Format("2006-01-02")
		items = append(items, mergedItem{
			occ: dto.UpcomingOccurrence{
				Date:       key,
				Source:     "recurring",
				Weekday:    model.WeekdayNames[occ.Weekday],
				WeekSlot:   model.WeekSlotNames[occ.WeekSlot-1],
				VendorID:   occ.VendorID,
				VendorName: vendorNameOr(names, occ.VendorID),
				Excluded:   occ.Excluded,
				Conflicted: !occ.Excluded && conflictedDates[key],
			},
			date: occ.Date,
		})
	}
	for i := range entries {
		e := &entries[i]
		item := mergedItem{
			occ: dto.UpcomingOccurrence{
				Date:       e.DateKey(),
				Source:     "adhoc",
				Kind:       e.Kind,
				VendorID:   deref(e.VendorID),
				VendorName: e.DisplayVendorName(names[deref(e.VendorID)]),
				EntryID:    e.EntryID,
				TimeText:   e.TimeText,
				Conflicted: conflictedEntries[e.EntryID],
			},
			date: e.Date,
		}
		// 无法解析的时间按"无时间"处理，不参与同日排序
		if start, ok := normalizeEventTime(e.TimeText, e.Date); ok {
			item.start = start
			item.hasStart = true
			item.occ.StartTime = start.Format(time.RFC3339)
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		di := items[i].date.Format("2006-01-02")
		dj := items[j].date.Format("2006-01-02")
		if di != dj {
			return di < dj
		}
		// 同日：有时刻的按时刻升序排前，无时刻的保持原相对顺序排后
		if items[i].hasStart != items[j].hasStart {
			return items[i].hasStart
		}
		if items[i].hasStart {
			return items[i].start.Before(items[j].start)
		}
		return false
	})

	var months []dto.MonthGroup
	for _, item := range items {
		month := item.occ.Date[:7]
		if len(months) == 0 || months[len(months)-1].Month != month {
			months = append(months, dto.MonthGroup{Month: month})
		}
		g := &months[len(months)-1]
		g.Occurrences = append(g.Occurrences, item.occ)
	}

	return &dto.UpcomingResponse{
		LocationID: locationID,
		Months:     months,
		Conflicts:  conflicts,
	}, nil
}

// [自证通过] internal/service/recurring_service.go
