package thing

// Thing is a named, described entity owning one property table and one
// method table. Drivers build a Thing at construction, binding
// accessors and actions as closures over their own private state, and
// register it with a Registry exactly once.
//
// Thread Safety:
//   - Tables are populated during construction, before registration;
//     after that a Thing is read-only and safe for concurrent use.
//   - Accessor and action thread safety is the owning driver's concern.
type Thing struct {
	name        string
	description string
	properties  PropertyTable
	methods     MethodTable
}

// New creates an empty Thing with the given identity.
func New(name, description string) *Thing {
	return &Thing{name: name, description: description}
}

// Name returns the Thing's registry key.
func (t *Thing) Name() string { return t.name }

// Description returns the human-readable description.
func (t *Thing) Description() string { return t.description }

// Properties exposes the property table.
func (t *Thing) Properties() *PropertyTable { return &t.properties }

// Methods exposes the method table.
func (t *Thing) Methods() *MethodTable { return &t.methods }

// AddProperty registers a property. Names must be unique within the Thing.
func (t *Thing) AddProperty(p Property) error {
	return t.properties.add(p)
}

// AddNumberProperty registers an integer property backed by read.
func (t *Thing) AddNumberProperty(name, description string, read func() int64) error {
	return t.properties.add(Property{
		Name:        name,
		Description: description,
		Type:        TypeNumber,
		Read:        func() Value { return Number(read()) },
	})
}

// AddFloatProperty registers a floating-point property backed by read.
func (t *Thing) AddFloatProperty(name, description string, read func() float64) error {
	return t.properties.add(Property{
		Name:        name,
		Description: description,
		Type:        TypeFloat,
		Read:        func() Value { return Float(read()) },
	})
}

// AddStringProperty registers a string property backed by read.
func (t *Thing) AddStringProperty(name, description string, read func() string) error {
	return t.properties.add(Property{
		Name:        name,
		Description: description,
		Type:        TypeText,
		Read:        func() Value { return Text(read()) },
	})
}

// AddBooleanProperty registers a boolean property backed by read.
func (t *Thing) AddBooleanProperty(name, description string, read func() bool) error {
	return t.properties.add(Property{
		Name:        name,
		Description: description,
		Type:        TypeBoolean,
		Read:        func() Value { return Boolean(read()) },
	})
}

// AddMethod registers a method. Names must be unique within the Thing.
func (t *Thing) AddMethod(m Method) error {
	return t.methods.add(m)
}

// PropertyDescriptor is the advertised shape of one property.
type PropertyDescriptor struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        ValueType `json:"type"`
}

// MethodDescriptor is the advertised shape of one method.
type MethodDescriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
}

// Descriptor is the structured capability listing for a Thing. A
// remote caller learns the full command surface from this record
// without hardcoded knowledge of any specific driver.
type Descriptor struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Properties  []PropertyDescriptor `json:"properties"`
	Methods     []MethodDescriptor   `json:"methods"`
}

// Descriptor builds the capability listing. Property and method
// ordering follows registration order within the Thing.
func (t *Thing) Descriptor() Descriptor {
	d := Descriptor{
		Name:        t.name,
		Description: t.description,
		Properties:  make([]PropertyDescriptor, 0, t.properties.Len()),
		Methods:     make([]MethodDescriptor, 0, t.methods.Len()),
	}
	for _, p := range t.properties.All() {
		d.Properties = append(d.Properties, PropertyDescriptor{
			Name:        p.Name,
			Description: p.Description,
			Type:        p.Type,
		})
	}
	for _, m := range t.methods.All() {
		params := m.Parameters
		if params == nil {
			params = []Parameter{}
		}
		d.Methods = append(d.Methods, MethodDescriptor{
			Name:        m.Name,
			Description: m.Description,
			Parameters:  params,
		})
	}
	return d
}

// StateRecord is the per-Thing entry of a state report.
type StateRecord struct {
	Name  string           `json:"name"`
	State map[string]Value `json:"state"`
}

// State invokes every property accessor and returns the current state
// record. Nothing is cached; each call re-reads every property.
func (t *Thing) State() StateRecord {
	state := make(map[string]Value, t.properties.Len())
	for _, p := range t.properties.All() {
		state[p.Name] = p.Read()
	}
	return StateRecord{Name: t.name, State: state}
}
