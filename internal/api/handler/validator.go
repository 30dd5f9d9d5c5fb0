package handler

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/MahdiHoseinpoor/Advanced-Class-Scheduler/internal/model"
)

// RegisterValidators 在 gin 的校验引擎上注册自定义规则（group_id）
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("gin 校验引擎不是 validator.Validate")
	}
	return v.RegisterValidation("group_id", func(fl validator.FieldLevel) bool {
		return model.ValidGroupID(fl.Field().String())
	})
}
