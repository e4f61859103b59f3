// Package transport implements the daemon's IPC layer: newline-delimited
// JSON frames over a Unix domain socket, one request/response pair
// strictly alternating per connection, many concurrent connections each
// on its own goroutine.
package transport

import (
	"encoding/json"
	"fmt"

	"github.com/wasmforge/pluginhost/domain/entities"
)

// Request variant names of the wire schema.
const (
	TypeLoadBinary    = "LoadBinary"
	TypeExecute       = "Execute"
	TypeExecuteChain  = "ExecuteChain"
	TypeListBinaries  = "ListBinaries"
	TypeUnloadBinary  = "UnloadBinary"
	TypeGetTrace      = "GetTrace"
	TypeErrorSentinel = "Error"
)

// envelope reads just enough of a frame to route it: every request frame
// is `{"type": "<Variant>", ...fields}`.
type envelope struct {
	Type string `json:"type"`
}

// LoadBinaryRequest carries the load_binary operation.
type LoadBinaryRequest struct {
	Path string `json:"path"`
}

// ExecuteRequest carries the execute operation; Config is nil when the
// caller wants the defaults applied.
type ExecuteRequest struct {
	BinaryID string                    `json:"binary_id"`
	Input    string                    `json:"input"`
	Config   *entities.ExecutionConfig `json:"config,omitempty"`
}

// ExecuteChainRequest carries the execute_chain operation.
type ExecuteChainRequest struct {
	BinaryIDs []string                  `json:"binary_ids"`
	Input     string                    `json:"input"`
	Config    *entities.ExecutionConfig `json:"config,omitempty"`
}

// ListBinariesRequest carries no fields.
type ListBinariesRequest struct{}

// UnloadBinaryRequest carries the unload_binary operation.
type UnloadBinaryRequest struct {
	BinaryID string `json:"binary_id"`
}

// GetTraceRequest carries the diagnostic get_trace operation.
type GetTraceRequest struct {
	BinaryID string `json:"binary_id"`
}

// decodeRequest routes a raw frame to its typed request value based on
// its "type" field.
func decodeRequest(raw []byte) (string, any, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("decode envelope: %w", err)
	}

	var req any
	switch env.Type {
	case TypeLoadBinary:
		req = &LoadBinaryRequest{}
	case TypeExecute:
		req = &ExecuteRequest{}
	case TypeExecuteChain:
		req = &ExecuteChainRequest{}
	case TypeListBinaries:
		req = &ListBinariesRequest{}
	case TypeUnloadBinary:
		req = &UnloadBinaryRequest{}
	case TypeGetTrace:
		req = &GetTraceRequest{}
	default:
		return env.Type, nil, fmt.Errorf("unknown request type %q", env.Type)
	}

	if err := json.Unmarshal(raw, req); err != nil {
		return env.Type, nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return env.Type, req, nil
}

// response is the wire shape of every reply: either `{"type":..., "Ok":
// ...}` on success or `{"type":..., "Err": "..."}` on failure.
type response struct {
	Type string
	Ok   any
	Err  string
}

// MarshalJSON renders the Ok/Err sum type manually: encoding/json cannot
// express "exactly one of two fields, named after their Go identifiers"
// with struct tags alone.
func (r response) MarshalJSON() ([]byte, error) {
	if r.Err != "" {
		return json.Marshal(struct {
			Type string `json:"type"`
			Err  string `json:"Err"`
		}{r.Type, r.Err})
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		Ok   any    `json:"Ok"`
	}{r.Type, r.Ok})
}

func ok(typ string, payload any) response    { return response{Type: typ, Ok: payload} }
func errResp(typ string, err error) response { return response{Type: typ, Err: err.Error()} }

// errorSentinel is the transport-level frame sent when a request cannot
// even be routed (bad framing, unknown type, malformed JSON): it never
// reaches the Request API.
func errorSentinel(err error) response {
	return response{Type: TypeErrorSentinel, Err: err.Error()}
}
