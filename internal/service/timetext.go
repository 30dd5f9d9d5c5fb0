package service

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"
)

// ── 时间文本解析器 ──────────────────────────────────────────
//
// 职责：将课程班的原始时间描述（夹带 HTML 标记）解析为每周上课时段与考试时段。
//
// 两阶段流水线：
//   1. normalizeMarkup：去标签、<br> 转换行、实体解码，得到纯文本
//   2. 正则匹配：上课记号 درس(类型): 星期 HH:MM-HH:MM，考试记号 امتحان(日期) ساعت : HH:MM-HH:MM
//
// 解析是宽松的：空输入、无法匹配、时间越界都不会报错，只是少产出条目。
// ─────────────────────────────────────────────────────────────

var (
	meetingPattern = regexp.MustCompile(`درس\(([تزع])\):\s*(\S+)\s+(\d{2}:\d{2})-(\d{2}:\d{2})`)
	examPattern    = regexp.MustCompile(`امتحان\(([\d./]+)\)\s*ساعت\s*:\s*(\d{2}:\d{2})-(\d{2}:\d{2})`)
	courseListSep  = regexp.MustCompile(`[,،]`)
)

// ParseTimeText 解析单个课程班的时间文本
func ParseTimeText(raw string) model.SectionTimes {
	times := model.SectionTimes{Meetings: []model.WeeklyMeeting{}}
	if strings.TrimSpace(raw) == "" {
		return times
	}
	text := normalizeMarkup(raw)

	for _, m := range meetingPattern.FindAllStringSubmatch(text, -1) {
		start, err := model.ParseTimeOfDay(m[3])
		if err != nil {
			continue
		}
		end, err := model.ParseTimeOfDay(m[4])
		if err != nil {
			continue
		}
		times.Meetings = append(times.Meetings, model.WeeklyMeeting{
			Kind:  m[1],
			Day:   model.NormalizeWeekday(m[2]),
			Start: start,
			End:   end,
		})
	}

	if m := examPattern.FindStringSubmatch(text); m != nil {
		start, errStart := model.ParseTimeOfDay(m[2])
		end, errEnd := model.ParseTimeOfDay(m[3])
		if errStart == nil && errEnd == nil {
			times.Exam = &model.ExamSlot{Date: m[1], Start: start, End: end}
		}
	}
	return times
}

// CleanText 去除 HTML 标签并裁剪首尾空白，用于教师、地点、说明等字段
func CleanText(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(normalizeMarkup(raw))
}

// normalizeMarkup 将标记文本转为纯文本：<br> 变为换行，其余标签丢弃，实体解码
func normalizeMarkup(raw string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF 或标记残缺：均保留已解析部分
			return strings.ReplaceAll(b.String(), "\u00a0", " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				b.WriteByte('\n')
			}
		}
	}
}

// ── 先修条件表 ──

// 表格首列的固定词汇（已做字母规范化）
var requirementLabels = map[string]func(r *model.Requirements, codes []string){
	normalizeLabel("پیش نیاز"): func(r *model.Requirements, c []string) { r.Prerequisites = append(r.Prerequisites, c...) },
	normalizeLabel("هم نیاز"):  func(r *model.Requirements, c []string) { r.Corequisites = append(r.Corequisites, c...) },
	normalizeLabel("معادل"):    func(r *model.Requirements, c []string) { r.Equivalents = append(r.Equivalents, c...) },
	normalizeLabel("متضاد"):    func(r *model.Requirements, c []string) { r.Conflicts = append(r.Conflicts, c...) },
}

var labelReplacer = strings.NewReplacer("ي", "ی", "ك", "ک", "\u200c", " ")

func normalizeLabel(s string) string {
	return strings.Join(strings.Fields(labelReplacer.Replace(s)), " ")
}

// ParseRequirements 解析先修条件 HTML 片段。每行首列为类别、次列为逗号分隔的课程代码；
// 未知类别忽略，无表格时返回四个空列表。
func ParseRequirements(fragment string) model.Requirements {
	req := model.EmptyRequirements()
	lower := strings.ToLower(fragment)
	if !strings.Contains(lower, "<tr") {
		return req
	}
	// HTML 解析器会丢弃表格外的 tr/td
	if !strings.Contains(lower, "<table") {
		fragment = "<table>" + fragment + "</table>"
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return req
	}
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		apply, ok := requirementLabels[normalizeLabel(cells.Eq(0).Text())]
		if !ok {
			return
		}
		apply(&req, splitCourseCodes(cells.Eq(1).Text()))
	})
	return req
}

func splitCourseCodes(text string) []string {
	var codes []string
	for _, part := range courseListSep.Split(text, -1) {
		if c := strings.TrimSpace(part); c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}
