package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blueharbor/aquasense-core/internal/infrastructure/config"
	"github.com/blueharbor/aquasense-core/internal/infrastructure/logging"
	"github.com/blueharbor/aquasense-core/internal/thing"
)

// newTestServer builds a server over a registry holding one sensor
// thing with a settable coefficient.
func newTestServer(t *testing.T) (*Server, *float64) {
	t.Helper()

	tds := 342.15
	k := 0.67
	th := thing.New("TdsSensor", "water TDS sensor")
	if err := th.AddFloatProperty("tds", "ppm", func() float64 { return tds }); err != nil {
		t.Fatal(err)
	}
	err := th.AddMethod(thing.Method{
		Name: "SetterKFactor",
		Parameters: []thing.Parameter{
			{Name: "k_factor", Type: thing.TypeFloat, Required: true},
		},
		Action: func(ctx context.Context, args thing.Params) error {
			k, _ = args["k_factor"].Float()
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	r := thing.NewRegistry()
	if err := r.Add(th); err != nil {
		t.Fatal(err)
	}

	s, err := New(Deps{
		Config:   config.DefaultConfig().API,
		Logger:   logging.Default(),
		Registry: r,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, &k
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.buildRouter().ServeHTTP(rec, req)
	return rec
}

func TestNewRequiresDeps(t *testing.T) {
	if _, err := New(Deps{Registry: thing.NewRegistry()}); err == nil {
		t.Error("missing logger should fail")
	}
	if _, err := New(Deps{Logger: logging.Default()}); err == nil {
		t.Error("missing registry should fail")
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" || resp["things"] != float64(1) {
		t.Errorf("health = %v", resp)
	}
}

func TestListThings(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/things", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var descriptors []thing.Descriptor
	if err := json.Unmarshal(rec.Body.Bytes(), &descriptors); err != nil {
		t.Fatal(err)
	}
	if len(descriptors) != 1 || descriptors[0].Name != "TdsSensor" {
		t.Errorf("descriptors = %+v", descriptors)
	}
	if len(descriptors[0].Methods) != 1 || descriptors[0].Methods[0].Parameters[0].Name != "k_factor" {
		t.Errorf("method descriptors = %+v", descriptors[0].Methods)
	}
}

func TestThingState(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/things/TdsSensor/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var record thing.StateRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatal(err)
	}
	if got, _ := record.State["tds"].Float(); got != 342.15 {
		t.Errorf("tds = %v, want 342.15", got)
	}

	// Unknown thing returns an empty record, not 404.
	rec = doRequest(t, s, http.MethodGet, "/api/v1/things/Bogus/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown thing status = %d, want 200", rec.Code)
	}
	record = thing.StateRecord{}
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatal(err)
	}
	if len(record.State) != 0 {
		t.Errorf("unknown thing state = %+v, want empty", record.State)
	}
}

func TestStatesFullAndDelta(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/states", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Changed bool              `json:"changed"`
		States  []json.RawMessage `json:"states"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Changed || len(resp.States) != 1 {
		t.Errorf("full report = %+v", resp)
	}

	// Full report updated delta tracking; an unchanged delta is empty.
	rec = doRequest(t, s, http.MethodGet, "/api/v1/states?delta=true", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Changed || len(resp.States) != 0 {
		t.Errorf("unchanged delta report = %+v", resp)
	}
}

func TestInvoke(t *testing.T) {
	s, k := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/invoke",
		`{"name":"TdsSensor","method":"SetterKFactor","parameters":{"k_factor":0.72}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if *k != 0.72 {
		t.Errorf("coefficient = %v, want 0.72", *k)
	}
}

func TestInvokeErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"malformed payload", `{"name":`, http.StatusBadRequest},
		{"unknown thing", `{"name":"Bogus","method":"Refresh","parameters":{}}`, http.StatusNotFound},
		{"unknown method", `{"name":"TdsSensor","method":"Bogus","parameters":{}}`, http.StatusNotFound},
		{"missing parameter", `{"name":"TdsSensor","method":"SetterKFactor","parameters":{}}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)
			rec := doRequest(t, s, http.MethodPost, "/api/v1/invoke", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestInvokeErrorNamesParameter(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/invoke",
		`{"name":"TdsSensor","method":"SetterKFactor","parameters":{"k_factor":"abc"}}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "k_factor") {
		t.Errorf("error body %q does not name the parameter", rec.Body.String())
	}
}

func TestRequestIDHeader(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/health", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}
