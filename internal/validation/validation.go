// Package validation wraps go-playground/validator and reports failures as
// apperr.ErrInvalidInput.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report json field names so errors match the payload the caller sent.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates v against its `validate` tags.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	details := Details(verrs)
	fields := make([]string, 0, len(details))
	for field, tag := range details {
		fields = append(fields, field+" ("+tag+")")
	}
	sort.Strings(fields)
	return &Error{Fields: details, msg: strings.Join(fields, ", ")}
}

// Details maps each failing field to the rule it broke.
func Details(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// Error carries per-field failures and matches apperr.ErrInvalidInput.
type Error struct {
	Fields map[string]string
	msg    string
}

func (e *Error) Error() string {
	return "invalid input: " + e.msg
}

func (e *Error) Unwrap() error {
	return apperr.ErrInvalidInput
}
