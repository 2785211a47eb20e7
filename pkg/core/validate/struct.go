package validate

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	structValidator *validator.Validate
	validatorOnce   sync.Once
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return structValidator
}

// Struct runs the `validate` struct tags of v and converts every failure into
// a FieldError attributed to record. Returns nil when v is valid.
func Struct(record string, v any) *ValidationError {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	result := &ValidationError{}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		result.Add(record, "", err.Error())
		return result
	}

	for _, fe := range fieldErrs {
		result.Add(record, fe.Field(), describeTag(fe))
	}
	return result
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
