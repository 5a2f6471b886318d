// Package validator wraps the go-playground/validator library behind a
// small API with thread-safe initialization and standardized error
// formatting. Structs declare their rules with `validate` tags and callers
// detect failures through the ErrValidation sentinel.
package validator

import (
	"errors"
	"fmt"
	"sync"

	gvalidator "github.com/go-playground/validator/v10"
)

var (
	validator         *gvalidator.Validate
	initValidatorOnce sync.Once
)

// ErrValidation is the first error in the chain returned when one or more
// validation rules are violated.
var ErrValidation = errors.New("validation error")

// errStringFormat describes a single field violation.
const errStringFormat = "'%s': value '%v' does not meet the requirements for the '%s' validation"

// Init builds the singleton validator instance. It is safe to call multiple
// times; only the first call takes effect.
func Init() {
	initValidatorOnce.Do(func() {
		validator = gvalidator.New(gvalidator.WithRequiredStructEnabled())
	})
}

// formatError converts raw validator errors into a joined error chain headed
// by ErrValidation, one formatted message per violated field. Errors of any
// other type pass through unchanged.
func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidation}
	for _, validationErr := range validationErrors {
		var (
			field = validationErr.Field()
			tag   = validationErr.Tag()
			value = validationErr.Value()
			err   = fmt.Errorf(errStringFormat, field, value, tag)
		)

		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate checks the struct against its `validate` tags. It returns nil on
// success, or an error chain containing ErrValidation plus one entry per
// failed field. Init must have been called first.
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
