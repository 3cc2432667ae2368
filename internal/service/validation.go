package service

import (
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
)

// firstViolation reduces a field-validation result to a single
// ErrValidation naming the first violated field, the way the original
// API reported its schema errors.
func firstViolation(errs validation.Errors) error {
	filtered := errs.Filter()
	if filtered == nil {
		return nil
	}

	ve, ok := filtered.(validation.Errors)
	if !ok || len(ve) == 0 {
		return fmt.Errorf("%w: invalid request", ErrValidation)
	}

	fields := make([]string, 0, len(ve))
	for f := range ve {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	first := fields[0]
	return fmt.Errorf("%w: %s %s", ErrValidation, first, ve[first])
}
