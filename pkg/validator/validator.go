// Package validator gin绑定校验的扩展
//
// gin的binding标签底层是go-playground/validator，这里注册自定义规则，
// 并把校验失败翻译成带字段名的业务错误。
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

var registerOnce sync.Once

// Register 向gin的校验引擎注册自定义规则（可重复调用）
//
//	notblank: 去掉首尾空白后非空
func Register() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("binding校验引擎不是validator.Validate")
			return
		}
		err = RegisterOn(v)
	})
	return err
}

// RegisterOn 在指定的Validate实例上注册自定义规则
func RegisterOn(v *validator.Validate) error {
	// 错误信息中使用json字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v.RegisterValidation("notblank", notBlank)
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.String:
		return strings.TrimSpace(field.String()) != ""
	case reflect.Ptr:
		if field.IsNil() {
			return true
		}
		return strings.TrimSpace(field.Elem().String()) != ""
	default:
		return !field.IsZero()
	}
}

// FromBindError 把ShouldBind的错误转换为AppError
// 字段校验失败 → 42200；JSON格式错误等 → 40001
func FromBindError(err error) *apperrors.AppError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s%s", fe.Field(), msgForTag(fe)))
		}
		return apperrors.New(apperrors.ErrCodeValidation, strings.Join(msgs, "; ")).WithErr(err)
	}
	return apperrors.ErrBindError.WithErr(err)
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "notblank":
		return "不能为空白"
	case "min":
		return fmt.Sprintf("不能小于%s", fe.Param())
	case "max":
		return fmt.Sprintf("不能大于%s", fe.Param())
	case "gte":
		return fmt.Sprintf("必须大于等于%s", fe.Param())
	case "lte":
		return fmt.Sprintf("必须小于等于%s", fe.Param())
	case "oneof":
		return fmt.Sprintf("必须是以下之一: %s", fe.Param())
	default:
		return fmt.Sprintf("校验失败(%s)", fe.Tag())
	}
}
