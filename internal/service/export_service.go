package service

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoItems      = errors.New("课表中没有课程班")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// 导出默认参数
const (
	DefaultTermWeeks = 16
	gridStep         = 30 // 网格表每行覆盖的分钟数
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel：课程清单 Sheet + 周视图网格 Sheet（星期列 × 半小时行）
//   - iCalendar：每个上课时段生成一条按周重复的 VEVENT，考试仅在日期为公历时导出
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportXLSX 导出课表为 Excel
	ExportXLSX(schedule model.Schedule) (*bytes.Buffer, string, error)
	// ExportICS 导出课表为 iCalendar，termStart 为学期第一天
	ExportICS(schedule model.Schedule, termStart time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	termWeeks int
	loc       *time.Location
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例。termWeeks <= 0 时使用默认周数，loc 为 nil 时使用 UTC。
func NewExportService(termWeeks int, loc *time.Location, logger *zap.Logger) ExportService {
	if termWeeks <= 0 {
		termWeeks = DefaultTermWeeks
	}
	if loc == nil {
		loc = time.UTC
	}
	return &exportService{termWeeks: termWeeks, loc: loc, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportXLSX 导出课表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "课程清单"：GroupID | 课程名 | 教师 | 学分 | 上课时间 | 考试 | 地点，末行为总学分
//   - Sheet "周视图"：行头为半小时时间段，列头为星期（شنبه 起），单元格为课程名 (GroupID)

func (s *exportService) ExportXLSX(schedule model.Schedule) (*bytes.Buffer, string, error) {
	if len(schedule.Classes) == 0 {
		return nil, "", ErrExportNoItems
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})

	if err := s.writeListSheet(f, schedule, headerStyle); err != nil {
		s.logger.Error("写入课程清单失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	if err := s.writeGridSheet(f, schedule, headerStyle, wrapStyle); err != nil {
		s.logger.Error("写入周视图失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	// 删除默认 Sheet1
	_ = f.DeleteSheet("Sheet1")

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, exportFilename(schedule, "xlsx"), nil
}

const (
	listSheet = "课程清单"
	gridSheet = "周视图"
)

func (s *exportService) writeListSheet(f *excelize.File, schedule model.Schedule, headerStyle int) error {
	idx, err := f.NewSheet(listSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	headers := []string{"GroupID", "课程名", "教师", "学分", "上课时间", "考试", "地点"}
	widths := []float64{14, 28, 20, 8, 36, 28, 20}
	for i, h := range headers {
		col := colName(i)
		_ = f.SetColWidth(listSheet, col, col, widths[i])
		_ = f.SetCellValue(listSheet, cell(col, 1), h)
	}
	_ = f.SetCellStyle(listSheet, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	row := 2
	for _, c := range schedule.Classes {
		values := []any{
			c.GroupID,
			c.Name,
			c.Professor,
			c.Units.Total,
			formatMeetings(c.Meetings),
			formatExam(c.Exam),
			c.Location,
		}
		for i, v := range values {
			if err := f.SetCellValue(listSheet, cell(colName(i), row), v); err != nil {
				return err
			}
		}
		row++
	}
	_ = f.SetCellValue(listSheet, cell("C", row), "总学分")
	return f.SetCellValue(listSheet, cell("D", row), schedule.TotalUnits())
}

func (s *exportService) writeGridSheet(f *excelize.File, schedule model.Schedule, headerStyle, wrapStyle int) error {
	if _, err := f.NewSheet(gridSheet); err != nil {
		return err
	}

	// 列：固定星期顺序，源数据中无法识别的星期记号追加在后
	days := append([]model.Weekday{}, model.WeekOrder...)
	dayCol := make(map[model.Weekday]int, len(days))
	for i, d := range days {
		dayCol[d] = i
	}
	first, last := model.TimeOfDay(model.MinutesPerDay), model.TimeOfDay(0)
	for _, c := range schedule.Classes {
		for _, m := range c.Meetings {
			if _, ok := dayCol[m.Day]; !ok {
				dayCol[m.Day] = len(days)
				days = append(days, m.Day)
			}
			first = min(first, m.Start)
			last = max(last, m.End)
		}
	}

	_ = f.SetColWidth(gridSheet, "A", "A", 14)
	_ = f.SetCellValue(gridSheet, "A1", "时间")
	for i, d := range days {
		col := colName(i + 1)
		_ = f.SetColWidth(gridSheet, col, col, 22)
		_ = f.SetCellValue(gridSheet, cell(col, 1), string(d))
	}
	_ = f.SetCellStyle(gridSheet, "A1", cell(colName(len(days)), 1), headerStyle)

	if first >= last {
		return nil
	}
	first -= first % gridStep

	row := 2
	for t := first; t < last; t += gridStep {
		slot := model.Interval{Start: t, End: t + gridStep}
		_ = f.SetCellValue(gridSheet, cell("A", row), slot.String())
		cells := make([][]string, len(days))
		for _, c := range schedule.Classes {
			for _, m := range c.Meetings {
				if m.Interval().Overlaps(slot) {
					i := dayCol[m.Day]
					cells[i] = append(cells[i], fmt.Sprintf("%s (%s)", c.Name, c.GroupID))
				}
			}
		}
		for i, texts := range cells {
			if len(texts) == 0 {
				continue
			}
			if err := f.SetCellValue(gridSheet, cell(colName(i+1), row), strings.Join(texts, "\n")); err != nil {
				return err
			}
		}
		row++
	}
	return f.SetCellStyle(gridSheet, "B2", cell(colName(len(days)), row-1), wrapStyle)
}

// ═══════════════════════════════════════════════════════════
// ExportICS 导出课表为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每个上课时段从 termStart 当天或之后第一个对应星期开始，按周重复 termWeeks 次。
// 星期记号无法识别的时段跳过；考试日期按公历解析，失败（例如伊朗历日期）则跳过。

func (s *exportService) ExportICS(schedule model.Schedule, termStart time.Time) (*bytes.Buffer, string, error) {
	if len(schedule.Classes) == 0 {
		return nil, "", ErrExportNoItems
	}

	start := time.Date(termStart.Year(), termStart.Month(), termStart.Day(), 0, 0, 0, 0, s.loc)
	now := time.Now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Advanced Class Scheduler//EN")
	cal.SetXWRCalName(schedule.Name)

	skipped := 0
	for _, c := range schedule.Classes {
		for i, m := range c.Meetings {
			wd, ok := m.Day.Time()
			if !ok {
				skipped++
				continue
			}
			day := start.AddDate(0, 0, (int(wd)-int(start.Weekday())+7)%7)
			ev := cal.AddEvent(fmt.Sprintf("%s-%s-m%d@class-scheduler", schedule.ID, c.GroupID, i))
			ev.SetDtStampTime(now)
			ev.SetStartAt(atMinute(day, m.Start))
			ev.SetEndAt(atMinute(day, m.End))
			ev.SetSummary(c.Name)
			ev.SetLocation(c.Location)
			ev.SetDescription(fmt.Sprintf("%s | %s", c.GroupID, c.Professor))
			ev.SetProperty(ics.ComponentPropertyRrule, fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", s.termWeeks))
		}

		if c.Exam == nil {
			continue
		}
		examDay, ok := parseGregorianDate(c.Exam.Date, s.loc)
		if !ok {
			skipped++
			continue
		}
		ev := cal.AddEvent(fmt.Sprintf("%s-%s-exam@class-scheduler", schedule.ID, c.GroupID))
		ev.SetDtStampTime(now)
		ev.SetStartAt(atMinute(examDay, c.Exam.Start))
		ev.SetEndAt(atMinute(examDay, c.Exam.End))
		ev.SetSummary("امتحان " + c.Name)
		ev.SetLocation(c.Location)
	}

	if skipped > 0 {
		s.logger.Debug("部分时段无法映射为日历事件", zap.Int("skipped", skipped))
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, exportFilename(schedule, "ics"), nil
}

// ── 辅助函数 ──

var gregorianLayouts = []string{"2006/01/02", "2006/1/2", "2006.01.02", "2006.1.2"}

// parseGregorianDate 将考试日期记号解析为公历日期；年份不大于 1900 视为非公历
func parseGregorianDate(token string, loc *time.Location) (time.Time, bool) {
	for _, layout := range gregorianLayouts {
		t, err := time.ParseInLocation(layout, token, loc)
		if err == nil && t.Year() > 1900 {
			return t, true
		}
	}
	return time.Time{}, false
}

func atMinute(day time.Time, t model.TimeOfDay) time.Time {
	return day.Add(time.Duration(t) * time.Minute)
}

func formatMeetings(meetings []model.WeeklyMeeting) string {
	parts := make([]string, 0, len(meetings))
	for _, m := range meetings {
		parts = append(parts, fmt.Sprintf("%s %s", m.Day, m.Interval()))
	}
	return strings.Join(parts, "، ")
}

func formatExam(exam *model.ExamSlot) string {
	if exam == nil {
		return "-"
	}
	return fmt.Sprintf("%s %s", exam.Date, exam.Interval())
}

func exportFilename(schedule model.Schedule, ext string) string {
	name := strings.TrimSpace(schedule.Name)
	if name == "" {
		name = schedule.ID
	}
	return fmt.Sprintf("课表_%s.%s", name, ext)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
