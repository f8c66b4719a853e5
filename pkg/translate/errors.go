package translate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingField matches any MissingFieldError.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidField matches any FieldTypeError.
	ErrInvalidField = errors.New("invalid field")
	// ErrUnknownType is returned for documents that are neither a Collection
	// nor a Feature.
	ErrUnknownType = errors.New("unknown document type")
)

// MissingFieldError reports a required key absent from a source document.
type MissingFieldError struct {
	Path string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %s", e.Path)
}

// Is implements errors.Is support.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// FieldTypeError reports a key whose value has the wrong JSON type.
type FieldTypeError struct {
	Path string
	Want string
	Got  any
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %s: want %s, got %T", e.Path, e.Want, e.Got)
}

// Is implements errors.Is support.
func (e *FieldTypeError) Is(target error) bool {
	return target == ErrInvalidField
}

func formatPath(path []any) string {
	var b strings.Builder
	for i, p := range path {
		switch v := p.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}
