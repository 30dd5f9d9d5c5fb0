package model

import (
	"strings"
	"time"
)

// Weekday 上课日。可识别的波斯语与英文名称都规范化为波斯语写法，
// 无法识别的原样保留；冲突检测按字符串相等比较。
type Weekday string

// 规范写法（与原始系统的周视图列顺序一致：周六起始）
const (
	Saturday  Weekday = "شنبه"
	Sunday    Weekday = "یک\u200cشنبه"
	Monday    Weekday = "دوشنبه"
	Tuesday   Weekday = "سه\u200cشنبه"
	Wednesday Weekday = "چهارشنبه"
	Thursday  Weekday = "پنج\u200cشنبه"
	Friday    Weekday = "جمعه"
)

// WeekOrder 周视图中的列顺序
var WeekOrder = []Weekday{Saturday, Sunday, Monday, Tuesday, Wednesday, Thursday, Friday}

// persianKey 去掉零宽非连接符与空白，并将阿拉伯字母 ي/ك 统一为波斯字母 ی/ک
var persianKey = strings.NewReplacer(
	"\u200c", "",
	" ", "",
	"ي", "ی",
	"ك", "ک",
	"ى", "ی",
)

var persianDays = map[string]Weekday{
	persianKey.Replace(string(Saturday)):  Saturday,
	persianKey.Replace(string(Sunday)):    Sunday,
	persianKey.Replace(string(Monday)):    Monday,
	persianKey.Replace(string(Tuesday)):   Tuesday,
	persianKey.Replace(string(Wednesday)): Wednesday,
	persianKey.Replace(string(Thursday)):  Thursday,
	persianKey.Replace(string(Friday)):    Friday,
}

var weekdayToTime = map[Weekday]time.Weekday{
	Saturday:  time.Saturday,
	Sunday:    time.Sunday,
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
}

var englishDays = map[string]Weekday{
	"sat": Saturday, "saturday": Saturday,
	"sun": Sunday, "sunday": Sunday,
	"mon": Monday, "monday": Monday,
	"tue": Tuesday, "tuesday": Tuesday,
	"wed": Wednesday, "wednesday": Wednesday,
	"thu": Thursday, "thursday": Thursday,
	"fri": Friday, "friday": Friday,
}

// NormalizeWeekday 规范化星期名称：波斯语写法与英文全称/缩写统一为规范写法，其他原样返回
func NormalizeWeekday(token string) Weekday {
	token = strings.TrimSpace(token)
	if d, ok := persianDays[persianKey.Replace(token)]; ok {
		return d
	}
	if d, ok := englishDays[strings.ToLower(token)]; ok {
		return d
	}
	return Weekday(token)
}

// Time 映射为 time.Weekday
func (d Weekday) Time() (time.Weekday, bool) {
	wd, ok := weekdayToTime[NormalizeWeekday(string(d))]
	return wd, ok
}

// Index 返回在 WeekOrder 中的列序号（周六 = 0），无法识别时返回 -1
func (d Weekday) Index() int {
	wd, ok := d.Time()
	if !ok {
		return -1
	}
	// time.Saturday = 6 → 0, time.Sunday = 0 → 1 ...
	return (int(wd) + 1) % 7
}
