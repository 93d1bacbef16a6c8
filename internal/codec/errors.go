package codec

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrTypeNotEligible is matched by every TypeNotEligibleError.
var ErrTypeNotEligible = errors.New("codec: type not eligible")

// TypeNotEligibleError reports a type whose layout is not fixed and
// self-contained. Path names the offending field or element, if any.
type TypeNotEligibleError struct {
	Type   reflect.Type
	Path   string
	Reason string
}

func (e *TypeNotEligibleError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("codec: type %v not eligible: %s at %s", e.Type, e.Reason, e.Path)
	}
	return fmt.Sprintf("codec: type %v not eligible: %s", e.Type, e.Reason)
}

func (e *TypeNotEligibleError) Is(target error) bool {
	return target == ErrTypeNotEligible
}
