package thing

import (
	"context"
	"fmt"
)

// Property is a read-only, re-evaluated-on-read named value with a
// declared type. The accessor is invoked on every read; the framework
// caches nothing. Accessors must be safe to call at arbitrary times
// relative to the owning driver's own background activity.
type Property struct {
	Name        string
	Description string
	Type        ValueType
	Read        func() Value
}

// Method is a named, parameter-validated invokable action. Actions
// execute synchronously on the caller's context; the supplied context
// lets callers bound execution time.
type Method struct {
	Name        string
	Description string
	Parameters  []Parameter
	Action      func(ctx context.Context, args Params) error
}

// PropertyTable is an ordered, name-unique mapping of properties.
// Ordering follows insertion and drives descriptor and state output.
type PropertyTable struct {
	props []Property
	index map[string]int
}

func (t *PropertyTable) add(p Property) error {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if _, exists := t.index[p.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateProperty, p.Name)
	}
	t.index[p.Name] = len(t.props)
	t.props = append(t.props, p)
	return nil
}

// Get returns the named property and whether it exists.
func (t *PropertyTable) Get(name string) (Property, bool) {
	i, ok := t.index[name]
	if !ok {
		return Property{}, false
	}
	return t.props[i], true
}

// Len returns the number of properties in insertion order.
func (t *PropertyTable) Len() int { return len(t.props) }

// All returns the properties in insertion order. The slice is shared;
// callers must not modify it.
func (t *PropertyTable) All() []Property { return t.props }

// MethodTable is an ordered, name-unique mapping of methods.
type MethodTable struct {
	methods []Method
	index   map[string]int
}

func (t *MethodTable) add(m Method) error {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if _, exists := t.index[m.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateMethod, m.Name)
	}
	t.index[m.Name] = len(t.methods)
	t.methods = append(t.methods, m)
	return nil
}

// Get returns the named method and whether it exists.
func (t *MethodTable) Get(name string) (Method, bool) {
	i, ok := t.index[name]
	if !ok {
		return Method{}, false
	}
	return t.methods[i], true
}

// Len returns the number of methods in insertion order.
func (t *MethodTable) Len() int { return len(t.methods) }

// All returns the methods in insertion order. The slice is shared;
// callers must not modify it.
func (t *MethodTable) All() []Method { return t.methods }
