// Package validation 封装 go-playground/validator，输出 errcode 字段级错误。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"jobportal/internal/errcode"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func validate() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			switch name {
			case "-":
				return ""
			case "":
				return f.Name
			}
			return name
		})
		instance = v
	})
	return instance
}

// Struct 校验结构体，失败时返回带字段明细的 errcode.Validation。
func Struct(s any) error {
	err := validate().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errcode.Wrap(errcode.Validation, "invalid input", err)
	}

	fields := make([]errcode.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe)
		fields = append(fields, errcode.FieldError{Field: field, Message: message(field, fe)})
	}
	return errcode.Invalid(fields...)
}

// fieldPath 去掉顶层结构体名，保留 JSON 路径，例如 salary.min。
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(field string, fe validator.FieldError) string {
	isText := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if isText {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isText {
			return fmt.Sprintf("%s cannot be more than %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s cannot be more than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s cannot be more than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("invalid %s, must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "gtefield":
		return fmt.Sprintf("%s cannot be less than %s", field, siblingPath(field, fe.Param()))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// siblingPath 把 gtefield 的参数（Go 字段名）转成与 field 同级的 JSON 路径。
func siblingPath(field, param string) string {
	if param == "" {
		return param
	}
	name := strings.ToLower(param[:1]) + param[1:]
	if i := strings.LastIndex(field, "."); i >= 0 {
		return field[:i+1] + name
	}
	return name
}
