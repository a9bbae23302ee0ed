package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blueharbor/aquasense-core/internal/thing"
)

// handleListThings returns the capability descriptors of every
// registered thing, in registration order.
func (s *Server) handleListThings(w http.ResponseWriter, _ *http.Request) {
	payload, err := s.registry.DescriptorsJSON()
	if err != nil {
		s.logger.Error("building descriptors", "error", err)
		writeInternalError(w, "building descriptors")
		return
	}
	writeRawJSON(w, http.StatusOK, payload)
}

// handleThingState returns the current state record of one thing. An
// unregistered name yields an empty record, matching the registry's
// not-found default.
func (s *Server) handleThingState(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	payload, err := s.registry.ThingStateJSON(name)
	if err != nil {
		s.logger.Error("building thing state", "thing", name, "error", err)
		writeInternalError(w, "building thing state")
		return
	}
	writeRawJSON(w, http.StatusOK, payload)
}

// handleStates returns a state report. ?delta=true returns only things
// whose state changed since the registry's last delta report; note
// this shares delta tracking with the uplink's report loop.
func (s *Server) handleStates(w http.ResponseWriter, r *http.Request) {
	delta := r.URL.Query().Get("delta") == "true"

	payload, changed, err := s.registry.StatesJSON(delta)
	if err != nil {
		s.logger.Error("building state report", "error", err)
		writeInternalError(w, "building state report")
		return
	}

	writeJSON(w, http.StatusOK, statesResponse{
		Changed: changed,
		States:  payload,
	})
}

// statesResponse wraps a state report with its changed flag.
type statesResponse struct {
	Changed bool         `json:"changed"`
	States  rawJSONField `json:"states"`
}

// rawJSONField embeds pre-serialized JSON without re-encoding.
type rawJSONField []byte

func (f rawJSONField) MarshalJSON() ([]byte, error) {
	if len(f) == 0 {
		return []byte("null"), nil
	}
	return f, nil
}

// invokeResponse is the result of an invocation request.
type invokeResponse struct {
	Thing  string `json:"thing,omitempty"`
	Method string `json:"method,omitempty"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// handleInvoke dispatches one invocation command. The body is the same
// command payload the uplink accepts.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "reading request body")
		return
	}

	cmd, err := thing.ParseCommand(body)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.invokeTimeout)
	defer cancel()

	if err := s.registry.Invoke(ctx, cmd); err != nil {
		status, code := invokeErrorStatus(err)
		writeJSON(w, status, map[string]any{
			"thing":  cmd.Thing,
			"method": cmd.Method,
			"ok":     false,
			"code":   code,
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, invokeResponse{
		Thing:  cmd.Thing,
		Method: cmd.Method,
		OK:     true,
	})
}

// invokeErrorStatus maps dispatch errors to HTTP status and error code.
func invokeErrorStatus(err error) (int, string) {
	var invalid *thing.InvalidArgumentError
	switch {
	case errors.Is(err, thing.ErrUnknownThing):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, thing.ErrUnknownMethod):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity, ErrCodeValidation
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}
