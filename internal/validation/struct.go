package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// FieldError is a single field failure, named by its json tag.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

// FieldErrors collects every failure of one struct.
type FieldErrors []FieldError

func (f FieldErrors) Error() string {
	if len(f) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(f))
	for i, err := range f {
		if err.Param != "" {
			parts[i] = err.Field + " failed on " + err.Tag + "=" + err.Param
		} else {
			parts[i] = err.Field + " failed on " + err.Tag
		}
	}
	return strings.Join(parts, "; ")
}

// Has reports whether field failed any rule.
func (f FieldErrors) Has(field string) bool {
	for _, err := range f {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Struct validates s against its validate tags.
func Struct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	failures := make(FieldErrors, 0, len(ve))
	for _, fe := range ve {
		failures = append(failures, FieldError{
			Field: fe.Field(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return failures
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("json")
			if comma := strings.Index(name, ","); comma != -1 {
				name = name[:comma]
			}
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		// money is compared numerically
		validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
			d, ok := v.Interface().(decimal.Decimal)
			if !ok {
				return nil
			}
			f, _ := d.Float64()
			return f
		}, decimal.Decimal{})
	})
	return validate
}
