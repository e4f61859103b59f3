package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/wasmforge/pluginhost/api"
)

// Server accepts connections on a Unix domain socket and serves the
// request operations over newline-delimited JSON framing. Each
// connection runs on its own goroutine; many concurrent connections are
// permitted.
type Server struct {
	api        *api.API
	socketPath string

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// New builds a Server exposing the API over a Unix socket at socketPath.
func New(a *api.API, socketPath string) *Server {
	return &Server{api: a, socketPath: socketPath}
}

// Serve removes any stale socket file, binds the listener, and accepts
// connections until ctx is cancelled. It blocks until the accept loop
// exits.
func (s *Server) Serve(ctx context.Context) error {
	_ = os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	slog.Info("transport: listening", "socket", s.socketPath)

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				_ = os.Remove(s.socketPath)
				return nil
			default:
				slog.Error("transport: accept failed", "error", err)
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConnection(ctx, conn)
	}
}

// handleConnection serves request/response frames strictly alternating
// on one connection until the client disconnects or a read or write on
// the socket fails. A malformed frame gets an "Error" sentinel reply and
// business errors get an Err reply; neither closes the connection.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("transport: connection closed", "error", err)
			}
			return
		}

		resp := s.dispatch(ctx, line)
		if err := writeFrame(conn, resp); err != nil {
			slog.Error("transport: write failed", "error", err)
			return
		}
	}
}

func writeFrame(conn net.Conn, resp response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = conn.Write(data)
	return err
}

// dispatch routes one decoded frame to the request API and renders its
// result as a response frame. Framing/parse failures become the "Error"
// sentinel; everything else becomes a per-variant Ok/Err response.
func (s *Server) dispatch(ctx context.Context, raw []byte) response {
	typ, req, err := decodeRequest(raw)
	if err != nil {
		return errorSentinel(err)
	}

	switch r := req.(type) {
	case *LoadBinaryRequest:
		result, err := s.api.LoadBinary(ctx, r.Path)
		if err != nil {
			return errResp(typ, err)
		}
		return ok(typ, result)

	case *ExecuteRequest:
		result, err := s.api.Execute(ctx, r.BinaryID, r.Input, r.Config)
		if err != nil {
			return errResp(typ, err)
		}
		return ok(typ, result)

	case *ExecuteChainRequest:
		results, err := s.api.ExecuteChain(ctx, r.BinaryIDs, r.Input, r.Config)
		if err != nil {
			return errResp(typ, err)
		}
		return ok(typ, results)

	case *ListBinariesRequest:
		return ok(typ, s.api.ListBinaries())

	case *UnloadBinaryRequest:
		msg, err := s.api.UnloadBinary(r.BinaryID)
		if err != nil {
			return errResp(typ, err)
		}
		return ok(typ, msg)

	case *GetTraceRequest:
		trace, found := s.api.GetTrace(r.BinaryID)
		if !found {
			return errResp(typ, errors.New("no trace recorded for binary"))
		}
		return ok(typ, trace)

	default:
		return errorSentinel(errors.New("unhandled request type"))
	}
}
