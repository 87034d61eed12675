// Package validator registers the domain's custom binding tags on a
// go-playground validator.
package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/vetclinic/internal/model"
)

// Tags maps each custom tag to its check.
var Tags = map[string]validator.Func{
	"payment_method": func(fl validator.FieldLevel) bool {
		_, err := model.ParsePaymentMethod(fl.Field().String())
		return err == nil
	},
	"staff_role": func(fl validator.FieldLevel) bool {
		return model.Role(fl.Field().String()).IsStaff()
	},
	"notblank": func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	},
}

// Register installs Tags on v and reports field names by their json key.
func Register(v *validator.Validate) error {
	for tag, fn := range Tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return nil
}
