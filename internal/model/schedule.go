package model

// Schedule 课表 — 用户命名的一组课程班，顺序即加入顺序，GroupID 不重复
type Schedule struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Classes []ClassSection `json:"classes"`
}

// IndexOf 返回 GroupID 在课表中的位置，不存在时返回 -1
func (s *Schedule) IndexOf(groupID string) int {
	for i := range s.Classes {
		if s.Classes[i].GroupID == groupID {
			return i
		}
	}
	return -1
}

// Contains 课表是否已包含该课程班
func (s *Schedule) Contains(groupID string) bool {
	return s.IndexOf(groupID) >= 0
}

// TotalUnits 课表总学分
func (s *Schedule) TotalUnits() int {
	total := 0
	for _, c := range s.Classes {
		total += c.Units.Total
	}
	return total
}

// Clone 深拷贝课程列表，调用方修改副本不会影响原课表
func (s *Schedule) Clone() Schedule {
	c := *s
	c.Classes = make([]ClassSection, len(s.Classes))
	copy(c.Classes, s.Classes)
	return c
}
