package thing

// Parameter declares one expected named argument of a method. The
// declaration is immutable once the method is registered.
type Parameter struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        ValueType `json:"type"`
	Required    bool      `json:"required"`
}

// Params is a map of argument name to Value, as supplied by a caller
// and, after validation, as passed to a method's action.
type Params map[string]Value

// validateParams checks a caller-supplied argument map against a
// method's declared parameter list.
//
// Validation succeeds iff every required parameter is present with a
// matching tag. Unknown extra keys are ignored, not rejected. Optional
// parameters absent from the map take no default. An integer argument
// supplied for a declared float is widened; any other tag mismatch is
// a violation. Validation is all-or-nothing: the first unmet
// requirement rejects the call before the action runs.
//
// The returned map contains only declared parameters, with widening
// applied; the original map is not modified.
func validateParams(specs []Parameter, args Params) (Params, *InvalidArgumentError) {
	out := make(Params, len(specs))

	for _, spec := range specs {
		v, ok := args[spec.Name]
		if !ok {
			if spec.Required {
				return nil, &InvalidArgumentError{
					Parameter: spec.Name,
					Reason:    "required parameter missing",
				}
			}
			continue
		}

		if v.Type() != spec.Type {
			if spec.Type == TypeFloat && v.Type() == TypeNumber {
				n, _ := v.Number()
				out[spec.Name] = Float(float64(n))
				continue
			}
			return nil, &InvalidArgumentError{
				Parameter: spec.Name,
				Reason:    "expected " + spec.Type.String() + ", got " + v.Type().String(),
			}
		}

		out[spec.Name] = v
	}

	return out, nil
}
