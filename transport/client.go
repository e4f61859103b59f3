package transport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/wasmforge/pluginhost/domain/entities"
)

// Client is a minimal synchronous client for the daemon's Unix socket,
// used by the CLI front-end. One request is in flight at a time per
// connection, matching the strictly-alternating framing.
type Client struct {
	socketPath string
	timeout    time.Duration
	conn       net.Conn
	reader     *bufio.Reader
}

// NewClient builds a client targeting socketPath. Dial happens lazily on
// the first call.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: 30 * time.Second}
}

// Connect dials the daemon's socket.
func (c *Client) Connect() error {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return fmt.Errorf("connect to daemon at %s: %w", c.socketPath, err)
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// rawResponse mirrors the wire shape of response without the private
// MarshalJSON-only type, so the client can decode any of the six
// variants plus the Error sentinel generically.
type rawResponse struct {
	Type string          `json:"type"`
	Ok   json.RawMessage `json:"Ok"`
	Err  string          `json:"Err"`
}

func (c *Client) call(reqType string, body any) (json.RawMessage, error) {
	if c.conn == nil {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	payload, err := marshalTagged(reqType, body)
	if err != nil {
		return nil, err
	}
	payload = append(payload, '\n')

	_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	if _, err := c.conn.Write(payload); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp rawResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Type == TypeErrorSentinel || resp.Err != "" {
		return nil, fmt.Errorf("%s", resp.Err)
	}
	return resp.Ok, nil
}

// marshalTagged flattens body's fields alongside a top-level "type" key,
// matching the request frame shape `{"type": "<Variant>", ...fields}`.
func marshalTagged(typ string, body any) ([]byte, error) {
	fields, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(fields, &asMap); err != nil {
		return nil, err
	}
	if asMap == nil {
		asMap = map[string]json.RawMessage{}
	}
	typJSON, _ := json.Marshal(typ)
	asMap["type"] = typJSON
	return json.Marshal(asMap)
}

// LoadBinary calls the LoadBinary operation.
func (c *Client) LoadBinary(path string) (LoadBinaryResult, error) {
	var out LoadBinaryResult
	raw, err := c.call(TypeLoadBinary, LoadBinaryRequest{Path: path})
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

// LoadBinaryResult mirrors api.LoadBinaryResult for client-side decoding
// without importing the api package (keeps the client dependency-light
// for CLI use).
type LoadBinaryResult struct {
	ID   string `json:"id"`
	Size int    `json:"size"`
}

// Execute calls the Execute operation.
func (c *Client) Execute(binaryID, input string, cfg *entities.ExecutionConfig) (entities.ExecutionResult, error) {
	var out entities.ExecutionResult
	raw, err := c.call(TypeExecute, ExecuteRequest{BinaryID: binaryID, Input: input, Config: cfg})
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

// ExecuteChain calls the ExecuteChain operation.
func (c *Client) ExecuteChain(binaryIDs []string, input string, cfg *entities.ExecutionConfig) ([]entities.ExecutionResult, error) {
	var out []entities.ExecutionResult
	raw, err := c.call(TypeExecuteChain, ExecuteChainRequest{BinaryIDs: binaryIDs, Input: input, Config: cfg})
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

// BinaryInfo mirrors api.BinaryInfo for client-side decoding.
type BinaryInfo struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Size     int    `json:"size"`
	LoadedAt int64  `json:"loaded_at"`
}

// ListBinaries calls the ListBinaries operation.
func (c *Client) ListBinaries() ([]BinaryInfo, error) {
	var out []BinaryInfo
	raw, err := c.call(TypeListBinaries, ListBinariesRequest{})
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

// UnloadBinary calls the UnloadBinary operation.
func (c *Client) UnloadBinary(binaryID string) (string, error) {
	raw, err := c.call(TypeUnloadBinary, UnloadBinaryRequest{BinaryID: binaryID})
	if err != nil {
		return "", err
	}
	var msg string
	err = json.Unmarshal(raw, &msg)
	return msg, err
}

// GetTrace calls the (ADDED) GetTrace diagnostic operation, returning the
// most recently recorded trace for binaryID.
func (c *Client) GetTrace(binaryID string) (entities.ExecutionTrace, error) {
	var out entities.ExecutionTrace
	raw, err := c.call(TypeGetTrace, GetTraceRequest{BinaryID: binaryID})
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}
