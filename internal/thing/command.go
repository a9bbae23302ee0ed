package thing

import "encoding/json"

// Command is the typed form of an invocation. The wire payload is
// parsed into this once at the boundary; the dispatch path never
// operates on raw JSON.
type Command struct {
	Thing      string
	Method     string
	Parameters Params
}

// commandPayload is the wire shape of an invocation command.
type commandPayload struct {
	Name       string           `json:"name"`
	Method     string           `json:"method"`
	Parameters map[string]Value `json:"parameters"`
}

// ParseCommand decodes an invocation payload into a typed Command.
// Malformed payloads fail with a *ParseError before any dispatch.
func ParseCommand(data []byte) (Command, error) {
	var p commandPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Command{}, &ParseError{Reason: "malformed command payload", Err: err}
	}
	if p.Name == "" {
		return Command{}, &ParseError{Reason: "command missing thing name"}
	}
	if p.Method == "" {
		return Command{}, &ParseError{Reason: "command missing method name"}
	}

	params := Params(p.Parameters)
	if params == nil {
		params = Params{}
	}
	return Command{Thing: p.Name, Method: p.Method, Parameters: params}, nil
}
