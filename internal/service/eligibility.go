package service

import "github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"

// IsEligible 性别限制判定。用户未声明性别时所有课程班都可选；
// 否则 mixed 可选，male/female 仅对同性别用户可选。
func IsEligible(section model.ClassSection, userGender model.Gender) bool {
	if userGender == model.GenderUnset {
		return true
	}
	switch section.Gender {
	case model.GenderMixed:
		return true
	case model.GenderMale:
		return userGender == model.GenderMale
	case model.GenderFemale:
		return userGender == model.GenderFemale
	}
	return false
}
