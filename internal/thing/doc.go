// Package thing implements the registry and invocation framework that
// exposes heterogeneous drivers as uniformly introspectable entities.
//
// A Thing is a named entity with typed read-only properties (accessors
// re-evaluated on every read) and parameter-validated methods. Drivers
// build a Thing at startup, binding closures over their private state,
// and register it with a Registry. The registry produces capability
// descriptors, computes delta state reports (a Thing is reported only
// when its serialized state changed since the last report), and
// dispatches name-addressed commands.
//
// Values are a tagged union (number, float, string, boolean); reading
// a Value as the wrong tag fails with ErrTypeMismatch. All dispatch
// failures are recoverable errors: one bad invocation never affects
// the registry's ability to serve other Things.
package thing
