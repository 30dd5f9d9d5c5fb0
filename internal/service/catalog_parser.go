package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"
)

// ── 课程目录导入错误 ──

var (
	ErrCatalogInvalidJSON = errors.New("课程目录不是有效的 JSON")
	ErrCatalogMissingData = errors.New("课程目录缺少 outpar.BMt 数据")
	ErrCatalogInvalidXML  = errors.New("课程目录中的 XML 数据无法解析")
)

// DefaultParseCacheSize 时间文本解析缓存的默认容量
const DefaultParseCacheSize = 4096

// catalogEnvelope 教务系统导出的 JSON 外壳
type catalogEnvelope struct {
	Outpar *struct {
		BMt string `json:"BMt"`
	} `json:"outpar"`
}

// CatalogParser 将教务系统导出的课程目录（JSON 外壳 + XML 行）转换为课程班列表。
// 时间文本与先修条件的解析结果按原始字符串缓存，重复导入同一目录时无需重新解析。
type CatalogParser struct {
	times        *lru.Cache[string, model.SectionTimes]
	requirements *lru.Cache[string, model.Requirements]
	logger       *zap.Logger
}

// NewCatalogParser 创建课程目录解析器，cacheSize <= 0 时使用默认容量
func NewCatalogParser(cacheSize int, logger *zap.Logger) (*CatalogParser, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultParseCacheSize
	}
	times, err := lru.New[string, model.SectionTimes](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("创建时间解析缓存失败: %w", err)
	}
	reqs, err := lru.New[string, model.Requirements](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("创建先修条件缓存失败: %w", err)
	}
	return &CatalogParser{times: times, requirements: reqs, logger: logger}, nil
}

// Parse 解析完整的课程目录。任何一步失败都整体返回错误，不产生部分结果。
// 缺少 GroupID 或 GroupID 无效（见 model.ValidGroupID）的行被跳过；重复的 GroupID 只保留第一行。
func (p *CatalogParser) Parse(payload []byte) ([]model.ClassSection, error) {
	var env catalogEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogInvalidJSON, err)
	}
	if env.Outpar == nil || strings.TrimSpace(env.Outpar.BMt) == "" {
		return nil, ErrCatalogMissingData
	}

	doc, err := xmlquery.Parse(strings.NewReader(env.Outpar.BMt))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogInvalidXML, err)
	}

	rows := xmlquery.Find(doc, "//row")
	catalog := make([]model.ClassSection, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	skipped := 0
	for _, row := range rows {
		id := strings.TrimSpace(row.SelectAttr("C1"))
		if id == "" {
			skipped++
			continue
		}
		if !model.ValidGroupID(id) {
			p.logger.Warn("跳过 GroupID 无效的课程班", zap.String("group_id", id))
			skipped++
			continue
		}
		if _, dup := seen[id]; dup {
			skipped++
			continue
		}
		seen[id] = struct{}{}
		catalog = append(catalog, p.parseRow(id, row))
	}

	p.logger.Info("课程目录解析完成",
		zap.Int("rows", len(rows)),
		zap.Int("sections", len(catalog)),
		zap.Int("skipped", skipped),
	)
	return catalog, nil
}

func (p *CatalogParser) parseRow(id string, row *xmlquery.Node) model.ClassSection {
	times := p.parseTimes(row.SelectAttr("C8"))
	return model.ClassSection{
		GroupID: id,
		Name:    strings.TrimSpace(row.SelectAttr("C2")),
		Units: model.Units{
			Total:     lenientInt(row.SelectAttr("C3")),
			Practical: lenientFloat(row.SelectAttr("C4")),
		},
		Capacity:     lenientInt(row.SelectAttr("C5")),
		Gender:       model.ParseSectionGender(row.SelectAttr("C6")),
		Professor:    CleanText(row.SelectAttr("C7")),
		Meetings:     times.Meetings,
		Exam:         times.Exam,
		Location:     CleanText(row.SelectAttr("C9")),
		Requirements: p.parseRequirements(row.SelectAttr("C10")),
		Description:  CleanText(row.SelectAttr("C11")),
	}
}

// parseTimes 带缓存的时间文本解析，返回值不与缓存共享底层数组
func (p *CatalogParser) parseTimes(raw string) model.SectionTimes {
	times, ok := p.times.Get(raw)
	if !ok {
		times = ParseTimeText(raw)
		p.times.Add(raw, times)
	}
	out := model.SectionTimes{Meetings: append([]model.WeeklyMeeting{}, times.Meetings...)}
	if times.Exam != nil {
		exam := *times.Exam
		out.Exam = &exam
	}
	return out
}

func (p *CatalogParser) parseRequirements(raw string) model.Requirements {
	req, ok := p.requirements.Get(raw)
	if !ok {
		req = ParseRequirements(raw)
		p.requirements.Add(raw, req)
	}
	return model.Requirements{
		Prerequisites: append([]string{}, req.Prerequisites...),
		Corequisites:  append([]string{}, req.Corequisites...),
		Equivalents:   append([]string{}, req.Equivalents...),
		Conflicts:     append([]string{}, req.Conflicts...),
	}
}

var (
	leadingInt   = regexp.MustCompile(`^[-+]?\d+`)
	leadingFloat = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)`)
)

// lenientInt 取字符串开头的整数部分，无法解析时返回 0
func lenientInt(s string) int {
	n, err := strconv.Atoi(leadingInt.FindString(strings.TrimSpace(s)))
	if err != nil {
		return 0
	}
	return n
}

// lenientFloat 取字符串开头的小数部分，无法解析时返回 0
func lenientFloat(s string) float64 {
	f, err := strconv.ParseFloat(leadingFloat.FindString(strings.TrimSpace(s)), 64)
	if err != nil {
		return 0
	}
	return f
}
