// Package validatex validates structs from `validatex:"..."` tags.
//
//	type Request struct {
//		Action string `json:"action" validatex:"required,oneof=a b c"`
//		Name   string `json:"name" validatex:"pattern=instance"`
//	}
//
// Rules other than required are skipped when the field is empty.
package validatex

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Abraxas-365/crmturbo/errx"
)

var (
	validationErrors = errx.NewRegistry("VALIDATION")

	ErrInvalid     = validationErrors.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Validation failed")
	ErrNotStruct   = validationErrors.Register("NOT_STRUCT", errx.TypeInternal, http.StatusInternalServerError, "Value must be a struct")
	ErrUnknownRule = validationErrors.Register("UNKNOWN_RULE", errx.TypeInternal, http.StatusInternalServerError, "Unknown validation rule")
)

// Validatable lets a type add checks that tags cannot express
type Validatable interface {
	Validate() error
}

// FieldError names a field and the first rule it failed
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Validate checks every tagged field and returns an ErrInvalid carrying
// the failing fields in Details["fields"] and Details["rules"]
func Validate(obj any) error {
	fields, err := structFields(obj)
	if err != nil {
		return err
	}

	var failed []FieldError
	for _, f := range fields {
		if rule, ok, err := firstFailure(f); err != nil {
			return err
		} else if !ok {
			failed = append(failed, FieldError{Field: f.Name, Rule: rule})
		}
	}

	if len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, fe := range failed {
			names = append(names, fe.Field)
		}
		return validationErrors.New(ErrInvalid).
			WithMessage("Invalid field(s): "+strings.Join(names, ", ")).
			WithDetail("fields", failed)
	}

	if v, ok := obj.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

func firstFailure(f fieldInfo) (string, bool, error) {
	empty := isZero(f.Value)
	for _, r := range f.Rules {
		if r.Name != "required" && empty {
			continue
		}
		fn, ok := getValidationFunc(r.Name)
		if !ok {
			return "", false, validationErrors.New(ErrUnknownRule).WithDetail("rule", r.Name)
		}
		if !fn(f.Value, r.Param) {
			return r.Name, false, nil
		}
	}
	return "", true, nil
}

// FailedFields extracts the failing field names from a Validate error
func FailedFields(err error) []FieldError {
	var xerr *errx.Error
	if !errors.As(err, &xerr) || xerr.Code != ErrInvalid {
		return nil
	}
	fields, _ := xerr.Details["fields"].([]FieldError)
	return fields
}
