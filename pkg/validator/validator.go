package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ErrorResponse struct {
	FailedField string
	JSONField   string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// Report json names so API errors match the request body
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Stock locations: shop floor (toko) or warehouse (gudang)
	validate.RegisterValidation("location_type", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		return v == "toko" || v == "gudang"
	})

	// Every element of a string slice must be non-blank
	validate.RegisterValidation("no_blank", func(fl validator.FieldLevel) bool {
		items, ok := fl.Field().Interface().([]string)
		if !ok {
			return false
		}
		for _, s := range items {
			if strings.TrimSpace(s) == "" {
				return false
			}
		}
		return true
	})

	// Lists stored comma-joined must not carry commas inside an element
	validate.RegisterValidation("no_comma", func(fl validator.FieldLevel) bool {
		items, ok := fl.Field().Interface().([]string)
		if !ok {
			return false
		}
		for _, s := range items {
			if strings.Contains(s, ",") {
				return false
			}
		}
		return true
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.JSONField = err.Field()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// FieldName is the json name of the failed field, falling back to the last
// segment of a namespace like "CreateOpnameRequest.Title"
func (e *ErrorResponse) FieldName() string {
	if e.JSONField != "" {
		return e.JSONField
	}
	if i := strings.LastIndex(e.FailedField, "."); i >= 0 {
		return e.FailedField[i+1:]
	}
	return e.FailedField
}
