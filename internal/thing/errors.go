package thing

import (
	"errors"
	"fmt"
)

// Sentinel errors for the thing framework.
var (
	// ErrTypeMismatch indicates a Value was accessed as the wrong tag.
	ErrTypeMismatch = errors.New("thing: value type mismatch")

	// ErrUnknownThing indicates a command named a thing that is not registered.
	ErrUnknownThing = errors.New("thing: unknown thing")

	// ErrUnknownMethod indicates a command named a method the thing does not expose.
	ErrUnknownMethod = errors.New("thing: unknown method")

	// ErrDuplicateThing indicates registration of a name already in the registry.
	ErrDuplicateThing = errors.New("thing: duplicate thing name")

	// ErrDuplicateProperty indicates a property name already exists on the thing.
	ErrDuplicateProperty = errors.New("thing: duplicate property name")

	// ErrDuplicateMethod indicates a method name already exists on the thing.
	ErrDuplicateMethod = errors.New("thing: duplicate method name")
)

// InvalidArgumentError reports a rejected invocation, naming the thing,
// method, and offending parameter. The method's action is never called
// when this error is returned.
type InvalidArgumentError struct {
	Thing     string
	Method    string
	Parameter string
	Reason    string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("thing: invalid argument %q for %s.%s: %s",
		e.Parameter, e.Thing, e.Method, e.Reason)
}

// ParseError reports a malformed invocation payload, rejected before
// any name resolution or dispatch happens.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("thing: parse error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("thing: parse error: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
