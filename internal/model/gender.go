package model

import "strings"

// Gender 课程班的性别限制，同时用于用户声明的性别（空值表示未声明）
type Gender string

const (
	GenderUnset  Gender = ""
	GenderMixed  Gender = "mixed"
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

var sectionGenderAliases = map[string]Gender{
	"مختلط":  GenderMixed,
	"mixed":  GenderMixed,
	"مرد":    GenderMale,
	"male":   GenderMale,
	"زن":     GenderFemale,
	"female": GenderFemale,
}

// ParseSectionGender 将源数据中的性别取值映射为枚举。
// 空值或无法识别的取值视为 mixed（源数据未给出限制）。
func ParseSectionGender(raw string) Gender {
	if g, ok := sectionGenderAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return g
	}
	return GenderMixed
}

// IsUserGender 是否为用户可声明的性别（male / female）
func (g Gender) IsUserGender() bool {
	return g == GenderMale || g == GenderFemale
}
