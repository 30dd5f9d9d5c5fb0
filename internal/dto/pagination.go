package dto

// ── 目录分页 ──

// 课程目录一页通常需要展示整个学院的开课，默认页尺寸较大
const (
	DefaultCatalogPageSize = 50
	MaxCatalogPageSize     = 200
)

// CatalogPage 课程目录分页参数
type CatalogPage struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// GetPage 页码，未指定时为 1
func (p *CatalogPage) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 每页条数，未指定时为 DefaultCatalogPageSize，且不超过 MaxCatalogPageSize
func (p *CatalogPage) GetPageSize() int {
	switch {
	case p.PageSize <= 0:
		return DefaultCatalogPageSize
	case p.PageSize > MaxCatalogPageSize:
		return MaxCatalogPageSize
	}
	return p.PageSize
}

// Bounds 返回本页在长度为 total 的结果中的 [start, end) 区间；页码越界时 start == end
func (p *CatalogPage) Bounds(total int) (start, end int) {
	start = (p.GetPage() - 1) * p.GetPageSize()
	if start >= total {
		return total, total
	}
	return start, min(start+p.GetPageSize(), total)
}
