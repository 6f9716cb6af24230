package service

import "time"

// ════════════════════════════════════════════
//  周期槽位展开
//  (星期, 当月第几个) 槽位 → 未来 N 个月内的具体日期。
//  纯函数：同样的槽位和"今天"永远得到同样的结果。
// ════════════════════════════════════════════

// expandUpcomingDates 展开槽位未来 monthsAhead 个月内的全部日期。
// weekday 取 0-6（0=周日），weekSlot 取 1-5（当月第几个该星期）。
// 越界槽位防御性返回空；短月缺少第 N 个该星期时该月静默跳过。
// "今天"按日期比较（忽略时刻），落在今天的场次包含在内。
func expandUpcomingDates(weekday, weekSlot, monthsAhead int, today time.Time) []time.Time {
	if weekday < 0 || weekday > 6 || weekSlot < 1 || weekSlot > 5 || monthsAhead <= 0 {
		return nil
	}
	loc := today.Location()
	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)

	var dates []time.Time
	for i := 0; i < monthsAhead; i++ {
		first := time.Date(today.Year(), today.Month()+time.Month(i), 1, 0, 0, 0, 0, loc)

		day := weekday - int(first.Weekday()) + 1
		if day < 1 {
			day += 7
		}
		day += (weekSlot - 1) * 7

		if day > daysInMonth(first) {
			continue
		}

		d := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, loc)
		if !d.Before(todayDate) {
			dates = append(dates, d)
		}
	}
	return dates
}

// weekOccurrence 返回日期在当月是第几个该星期（1 起始）。
// 与 expandUpcomingDates 互逆：第 N 个星期X的 weekOccurrence 恒为 N。
func weekOccurrence(d time.Time) int {
	return (d.Day()-1)/7 + 1
}

func daysInMonth(first time.Time) int {
	return first.AddDate(0, 1, -1).Day()
}

// [自证通过] internal/service/occurrence.go
