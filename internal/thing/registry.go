package thing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Registry holds the ordered set of registered Things, produces
// capability descriptors, computes delta state reports, and dispatches
// invocations by name. It is an explicit object with defined
// construction; create one per process and hand it to whoever needs it.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Method actions execute outside the registry lock, so an action
//     may itself read the registry without deadlocking.
type Registry struct {
	mu       sync.Mutex
	things   []*Thing
	index    map[string]int
	lastSent map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index:    make(map[string]int),
		lastSent: make(map[string]string),
	}
}

// Add appends a Thing, preserving registration order. Registration
// order is significant: it drives descriptor and report output order.
// A name already present is rejected with ErrDuplicateThing.
func (r *Registry) Add(t *Thing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[t.Name()]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateThing, t.Name())
	}
	r.index[t.Name()] = len(r.things)
	r.things = append(r.things, t)
	return nil
}

// Len returns the number of registered Things.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.things)
}

// DescriptorsJSON serializes every registered Thing's capability
// descriptor, in registration order, as a single JSON array. Pure read;
// the delta-tracking state is untouched.
func (r *Registry) DescriptorsJSON() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	descriptors := make([]Descriptor, 0, len(r.things))
	for _, t := range r.things {
		descriptors = append(descriptors, t.Descriptor())
	}
	return json.Marshal(descriptors)
}

// StatesJSON builds a state report over every registered Thing, in
// registration order. With delta false every Thing is included and its
// last-emitted serialization is overwritten. With delta true a Thing is
// included only when its canonical serialization differs byte-for-byte
// from the last one emitted (a Thing never reported counts as
// changed), and the stored serialization is updated only for included
// Things.
//
// The returned bool reports whether any record was included, so callers
// can skip transmitting an empty payload. The comparison is purely
// syntactic: noisy accessors must quantize their output if they want
// stable deltas.
func (r *Registry) StatesJSON(delta bool) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	included := make([]StateRecord, 0, len(r.things))
	for _, t := range r.things {
		record := t.State()
		serialized, err := json.Marshal(record)
		if err != nil {
			return nil, false, fmt.Errorf("serializing state for %q: %w", t.Name(), err)
		}

		if delta && r.lastSent[t.Name()] == string(serialized) {
			continue
		}
		r.lastSent[t.Name()] = string(serialized)
		included = append(included, record)
	}

	payload, err := json.Marshal(included)
	if err != nil {
		return nil, false, err
	}
	return payload, len(included) > 0, nil
}

// ThingStateJSON builds the state record for one Thing by name. A name
// that resolves to nothing yields an empty record rather than an
// error: callers reading a peer's state during a startup window get a
// default, not a failure. The delta-tracking state is untouched.
func (r *Registry) ThingStateJSON(name string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[name]
	if !ok {
		return json.Marshal(StateRecord{Name: name, State: map[string]Value{}})
	}
	return json.Marshal(r.things[i].State())
}

// Invoke resolves and executes a typed command: thing by name, then
// method by name within that thing, then parameter validation, then
// the action. Each step's failure is a returned, recoverable error;
// the action never observes a partially-valid call. The context is
// passed through to the action so callers can bound execution time.
func (r *Registry) Invoke(ctx context.Context, cmd Command) error {
	r.mu.Lock()
	i, ok := r.index[cmd.Thing]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownThing, cmd.Thing)
	}
	t := r.things[i]
	r.mu.Unlock()

	m, ok := t.Methods().Get(cmd.Method)
	if !ok {
		return fmt.Errorf("%w: %q has no method %q", ErrUnknownMethod, cmd.Thing, cmd.Method)
	}

	args, verr := validateParams(m.Parameters, cmd.Parameters)
	if verr != nil {
		verr.Thing = cmd.Thing
		verr.Method = cmd.Method
		return verr
	}

	return m.Action(ctx, args)
}
