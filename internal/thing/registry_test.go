package thing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// newSensorThing builds a Thing resembling a TDS sensor driver with a
// settable coefficient and a call counter on its method action.
func newSensorThing(t *testing.T, tds *float64, k *float64, calls *int) *Thing {
	t.Helper()

	th := New("TdsSensor", "total dissolved solids sensor")
	if err := th.AddFloatProperty("tds", "TDS in ppm", func() float64 { return *tds }); err != nil {
		t.Fatalf("add property: %v", err)
	}
	err := th.AddMethod(Method{
		Name:        "SetterKFactor",
		Description: "set the calibration coefficient",
		Parameters: []Parameter{
			{Name: "k_factor", Description: "calibration coefficient", Type: TypeFloat, Required: true},
		},
		Action: func(ctx context.Context, args Params) error {
			*calls++
			f, err := args["k_factor"].Float()
			if err != nil {
				return err
			}
			*k = f
			return nil
		},
	})
	if err != nil {
		t.Fatalf("add method: %v", err)
	}
	return th
}

func TestAddRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(New("Timer", "countdown timer")); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := r.Add(New("Timer", "another timer")); !errors.Is(err, ErrDuplicateThing) {
		t.Errorf("second add: got %v, want ErrDuplicateThing", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestDescriptorsJSONOrderAndShape(t *testing.T) {
	r := NewRegistry()

	a := New("PhSensor", "water acidity sensor")
	if err := a.AddFloatProperty("ph", "pH value", func() float64 { return 7.0 }); err != nil {
		t.Fatal(err)
	}
	if err := a.AddMethod(Method{
		Name:        "Refresh",
		Description: "re-read the sensor",
		Action:      func(ctx context.Context, args Params) error { return nil },
	}); err != nil {
		t.Fatal(err)
	}

	b := New("Timer", "countdown timer")
	if err := b.AddStringProperty("curTimer", "current timer state", func() string { return "idle" }); err != nil {
		t.Fatal(err)
	}

	for _, th := range []*Thing{a, b} {
		if err := r.Add(th); err != nil {
			t.Fatalf("add %s: %v", th.Name(), err)
		}
	}

	payload, err := r.DescriptorsJSON()
	if err != nil {
		t.Fatalf("DescriptorsJSON: %v", err)
	}

	var descriptors []Descriptor
	if err := json.Unmarshal(payload, &descriptors); err != nil {
		t.Fatalf("unmarshal descriptors: %v", err)
	}
	if len(descriptors) != 2 {
		t.Fatalf("descriptor count = %d, want 2", len(descriptors))
	}
	if descriptors[0].Name != "PhSensor" || descriptors[1].Name != "Timer" {
		t.Errorf("descriptor order = [%s %s], want [PhSensor Timer]",
			descriptors[0].Name, descriptors[1].Name)
	}
	if len(descriptors[0].Properties) != 1 || descriptors[0].Properties[0].Name != "ph" {
		t.Errorf("PhSensor properties = %+v, want single ph", descriptors[0].Properties)
	}
	if len(descriptors[0].Methods) != 1 || descriptors[0].Methods[0].Name != "Refresh" {
		t.Errorf("PhSensor methods = %+v, want single Refresh", descriptors[0].Methods)
	}
	if descriptors[0].Methods[0].Parameters == nil {
		t.Error("parameterless method should serialize an empty array, not null")
	}
}

func TestDescriptorPropertyOrder(t *testing.T) {
	th := New("WaterMonitor", "combined monitor")
	names := []string{"conductivity", "tds", "ph"}
	for _, n := range names {
		if err := th.AddFloatProperty(n, n, func() float64 { return 0 }); err != nil {
			t.Fatal(err)
		}
	}

	d := th.Descriptor()
	for i, n := range names {
		if d.Properties[i].Name != n {
			t.Errorf("property %d = %s, want %s", i, d.Properties[i].Name, n)
		}
	}
}

func TestStatesJSONFullAlwaysIncludesAll(t *testing.T) {
	r := NewRegistry()
	tds, k := 342.15, 0.67
	calls := 0
	if err := r.Add(newSensorThing(t, &tds, &k, &calls)); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		payload, changed, err := r.StatesJSON(false)
		if err != nil {
			t.Fatalf("StatesJSON(false) call %d: %v", i+1, err)
		}
		if !changed {
			t.Errorf("call %d: full report claims nothing included", i+1)
		}
		var records []StateRecord
		if err := json.Unmarshal(payload, &records); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("call %d: record count = %d, want 1", i+1, len(records))
		}
	}
}

func TestStatesJSONDeltaSuppression(t *testing.T) {
	r := NewRegistry()
	tds, k := 342.15, 0.67
	calls := 0
	if err := r.Add(newSensorThing(t, &tds, &k, &calls)); err != nil {
		t.Fatal(err)
	}

	// Never-reported counts as changed.
	_, changed, err := r.StatesJSON(true)
	if err != nil {
		t.Fatalf("first delta: %v", err)
	}
	if !changed {
		t.Error("first delta report should include the never-reported thing")
	}

	// Idempotence: unchanged accessor output yields an empty set.
	payload, changed, err := r.StatesJSON(true)
	if err != nil {
		t.Fatalf("second delta: %v", err)
	}
	if changed {
		t.Errorf("second delta with unchanged state should be empty, got %s", payload)
	}

	// A changed reading is included again.
	tds = 355.00
	payload, changed, err = r.StatesJSON(true)
	if err != nil {
		t.Fatalf("third delta: %v", err)
	}
	if !changed {
		t.Fatal("third delta should include the changed thing")
	}
	var records []StateRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Name != "TdsSensor" {
		t.Fatalf("records = %+v, want single TdsSensor", records)
	}
	got, err := records[0].State["tds"].Float()
	if err != nil || got != 355.00 {
		t.Errorf("tds = %v (%v), want 355.00", got, err)
	}
}

func TestStatesJSONDeltaPerThing(t *testing.T) {
	r := NewRegistry()
	tds, k := 100.0, 0.67
	calls := 0
	if err := r.Add(newSensorThing(t, &tds, &k, &calls)); err != nil {
		t.Fatal(err)
	}

	temp := 25.0
	probe := New("TemperatureSensor", "water temperature probe")
	if err := probe.AddFloatProperty("temperature", "degrees C", func() float64 { return temp }); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(probe); err != nil {
		t.Fatal(err)
	}

	if _, _, err := r.StatesJSON(true); err != nil {
		t.Fatal(err)
	}

	// Only the thing whose state moved appears.
	temp = 26.5
	payload, changed, err := r.StatesJSON(true)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("delta with one changed thing should report changes")
	}
	var records []StateRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Name != "TemperatureSensor" {
		t.Errorf("records = %+v, want single TemperatureSensor", records)
	}
}

func TestThingStateJSON(t *testing.T) {
	r := NewRegistry()
	tds, k := 412.5, 0.67
	calls := 0
	if err := r.Add(newSensorThing(t, &tds, &k, &calls)); err != nil {
		t.Fatal(err)
	}

	payload, err := r.ThingStateJSON("TdsSensor")
	if err != nil {
		t.Fatalf("ThingStateJSON: %v", err)
	}
	var record StateRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		t.Fatal(err)
	}
	if record.Name != "TdsSensor" {
		t.Errorf("name = %q, want TdsSensor", record.Name)
	}
	if got, _ := record.State["tds"].Float(); got != 412.5 {
		t.Errorf("tds = %v, want 412.5", got)
	}

	// Unknown name yields the empty-record default, not an error.
	payload, err = r.ThingStateJSON("Bogus")
	if err != nil {
		t.Fatalf("ThingStateJSON unknown: %v", err)
	}
	record = StateRecord{}
	if err := json.Unmarshal(payload, &record); err != nil {
		t.Fatal(err)
	}
	if len(record.State) != 0 {
		t.Errorf("unknown thing state = %+v, want empty", record.State)
	}

	// Single-thing reads must not touch the delta tracking.
	_, changed, err := r.StatesJSON(true)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("first delta after ThingStateJSON should still treat the thing as never reported")
	}
}

func TestInvokeUpdatesDriverState(t *testing.T) {
	r := NewRegistry()
	tds, k := 100.0, 0.67
	calls := 0
	if err := r.Add(newSensorThing(t, &tds, &k, &calls)); err != nil {
		t.Fatal(err)
	}

	cmd, err := ParseCommand([]byte(`{"name":"TdsSensor","method":"SetterKFactor","parameters":{"k_factor":0.72}}`))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if err := r.Invoke(context.Background(), cmd); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if k != 0.72 {
		t.Errorf("coefficient = %v, want 0.72", k)
	}
	if calls != 1 {
		t.Errorf("action calls = %d, want 1", calls)
	}
}

func TestInvokeFailures(t *testing.T) {
	r := NewRegistry()
	tds, k := 100.0, 0.67
	calls := 0
	if err := r.Add(newSensorThing(t, &tds, &k, &calls)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{
			name: "unknown thing",
			cmd:  Command{Thing: "Bogus", Method: "Refresh", Parameters: Params{}},
			want: ErrUnknownThing,
		},
		{
			name: "unknown method",
			cmd:  Command{Thing: "TdsSensor", Method: "Bogus", Parameters: Params{}},
			want: ErrUnknownMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Invoke(context.Background(), tt.cmd); !errors.Is(err, tt.want) {
				t.Errorf("Invoke: got %v, want %v", err, tt.want)
			}
		})
	}

	if calls != 0 {
		t.Errorf("action calls = %d, want 0 after failed invocations", calls)
	}
	if k != 0.67 {
		t.Errorf("coefficient = %v, failed invocations must not alter state", k)
	}
}

func TestInvokeInvalidArgument(t *testing.T) {
	r := NewRegistry()
	tds, k := 100.0, 0.67
	calls := 0
	if err := r.Add(newSensorThing(t, &tds, &k, &calls)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		params Params
		reason string
	}{
		{"missing required", Params{}, "required parameter missing"},
		{"wrong type", Params{"k_factor": Text("0.72")}, "expected float, got string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Invoke(context.Background(), Command{
				Thing:      "TdsSensor",
				Method:     "SetterKFactor",
				Parameters: tt.params,
			})

			var invalid *InvalidArgumentError
			if !errors.As(err, &invalid) {
				t.Fatalf("Invoke: got %v, want *InvalidArgumentError", err)
			}
			if invalid.Thing != "TdsSensor" || invalid.Method != "SetterKFactor" || invalid.Parameter != "k_factor" {
				t.Errorf("error context = %s.%s param %s", invalid.Thing, invalid.Method, invalid.Parameter)
			}
			if invalid.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", invalid.Reason, tt.reason)
			}
		})
	}

	if calls != 0 {
		t.Errorf("action calls = %d, want 0 when validation rejects", calls)
	}
}

func TestInvokeWidensIntegerForFloatParameter(t *testing.T) {
	r := NewRegistry()
	tds, k := 100.0, 0.67
	calls := 0
	if err := r.Add(newSensorThing(t, &tds, &k, &calls)); err != nil {
		t.Fatal(err)
	}

	cmd, err := ParseCommand([]byte(`{"name":"TdsSensor","method":"SetterKFactor","parameters":{"k_factor":1}}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Invoke(context.Background(), cmd); err != nil {
		t.Fatalf("Invoke with integer literal for float parameter: %v", err)
	}
	if k != 1.0 {
		t.Errorf("coefficient = %v, want 1.0", k)
	}
}

func TestInvokeIgnoresUnknownExtraKeys(t *testing.T) {
	r := NewRegistry()
	tds, k := 100.0, 0.67
	calls := 0
	if err := r.Add(newSensorThing(t, &tds, &k, &calls)); err != nil {
		t.Fatal(err)
	}

	err := r.Invoke(context.Background(), Command{
		Thing:  "TdsSensor",
		Method: "SetterKFactor",
		Parameters: Params{
			"k_factor": Float(0.9),
			"extra":    Text("ignored"),
		},
	})
	if err != nil {
		t.Fatalf("Invoke with extra key: %v", err)
	}
	if calls != 1 {
		t.Errorf("action calls = %d, want 1", calls)
	}
}

func TestParseCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"name":`},
		{"missing thing name", `{"method":"Refresh","parameters":{}}`},
		{"missing method name", `{"name":"Timer","parameters":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommand([]byte(tt.payload))
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("ParseCommand(%s): got %v, want *ParseError", tt.payload, err)
			}
		})
	}
}

func TestParseCommandDefaultsParameters(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"name":"Timer","method":"Refresh"}`))
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if cmd.Parameters == nil {
		t.Error("omitted parameters should decode to an empty map")
	}
}

func TestDuplicatePropertyAndMethodRejected(t *testing.T) {
	th := New("Timer", "countdown timer")
	if err := th.AddStringProperty("curTimer", "state", func() string { return "" }); err != nil {
		t.Fatal(err)
	}
	if err := th.AddStringProperty("curTimer", "again", func() string { return "" }); !errors.Is(err, ErrDuplicateProperty) {
		t.Errorf("duplicate property: got %v, want ErrDuplicateProperty", err)
	}

	m := Method{Name: "addTimer", Action: func(ctx context.Context, args Params) error { return nil }}
	if err := th.AddMethod(m); err != nil {
		t.Fatal(err)
	}
	if err := th.AddMethod(m); !errors.Is(err, ErrDuplicateMethod) {
		t.Errorf("duplicate method: got %v, want ErrDuplicateMethod", err)
	}
}
