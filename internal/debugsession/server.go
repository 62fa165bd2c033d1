package debugsession

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"

	"github.com/cortexsim/armboard/internal/simerr"
)

// Server is the TCP front end for a Debugger: one goroutine per
// accepted connection, each reading newline-terminated JSON requests
// and writing one JSON response per request, per §4.8. Grounded in
// the teacher's own accept-loop/goroutine-per-connection IPC pattern,
// adapted from a single-shot Unix socket exchange to a long-lived,
// multi-request TCP stream.
type Server struct {
	debugger *Debugger
	listener net.Listener
}

// Listen binds addr (host:port) and returns a Server ready to Serve.
func Listen(addr string, d *Debugger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, simerr.Wrap(simerr.KindConfiguration, err, "failed to bind debug server on %s", addr)
	}
	return &Server{debugger: d, listener: ln}, nil
}

func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve accepts connections until the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal(line, &raw); err != nil {
			enc.Encode(Response{OK: false, Error: fmt.Sprintf("Invalid JSON: %v", err)})
			continue
		}
		cmd, _ := raw["cmd"].(string)
		req := Request{ID: raw["id"], Cmd: cmd, Raw: raw}

		resp := s.dispatch(req)
		enc.Encode(resp)
	}
}

func (s *Server) dispatch(req Request) Response {
	result, err := s.execute(req.Cmd, req.Raw)
	if err != nil {
		return Response{ID: req.ID, OK: false, Error: err.Error()}
	}
	return Response{ID: req.ID, OK: true, Result: result}
}

func (s *Server) execute(cmd string, args map[string]any) (any, error) {
	switch cmd {
	case "hello":
		return s.debugger.Hello(), nil

	case "reset":
		if err := s.debugger.Reset(); err != nil {
			return nil, err
		}
		return map[string]any{"status": "ok"}, nil

	case "read_mem":
		addr, err := argUint32(args, "address")
		if err != nil {
			return nil, err
		}
		size, err := argUint32(args, "size")
		if err != nil {
			return nil, err
		}
		data, err := s.debugger.ReadMem(addr, size)
		if err != nil {
			return nil, err
		}
		return map[string]any{"data": hex.EncodeToString(data)}, nil

	case "write_mem":
		addr, err := argUint32(args, "address")
		if err != nil {
			return nil, err
		}
		dataHex, ok := args["data"].(string)
		if !ok {
			return nil, simerr.New(simerr.KindProtocol, "write_mem requires a hex-encoded \"data\" field")
		}
		data, err := hex.DecodeString(dataHex)
		if err != nil {
			return nil, simerr.Wrap(simerr.KindProtocol, err, "write_mem data is not valid hex")
		}
		if err := s.debugger.WriteMem(addr, data); err != nil {
			return nil, err
		}
		return map[string]any{"status": "ok"}, nil

	case "read_reg":
		idx, err := argInt(args, "index")
		if err != nil {
			return nil, err
		}
		v, err := s.debugger.ReadRegister(idx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": v}, nil

	case "write_reg":
		idx, err := argInt(args, "index")
		if err != nil {
			return nil, err
		}
		v, err := argUint32(args, "value")
		if err != nil {
			return nil, err
		}
		if err := s.debugger.WriteRegister(idx, v); err != nil {
			return nil, err
		}
		return map[string]any{"status": "ok"}, nil

	case "set_bp":
		addr, err := argUint32(args, "address")
		if err != nil {
			return nil, err
		}
		s.debugger.SetBreakpoint(addr)
		return map[string]any{"status": "ok"}, nil

	case "clear_bp":
		addr, err := argUint32(args, "address")
		if err != nil {
			return nil, err
		}
		return map[string]any{"removed": s.debugger.ClearBreakpoint(addr)}, nil

	case "set_wp":
		addr, err := argUint32(args, "address")
		if err != nil {
			return nil, err
		}
		size, err := argUint32(args, "size")
		if err != nil {
			return nil, err
		}
		access, err := argWatchAccess(args)
		if err != nil {
			return nil, err
		}
		id := s.debugger.SetWatchpoint(addr, size, access)
		return map[string]any{"watch_id": id}, nil

	case "clear_wp":
		id, err := argInt(args, "watch_id")
		if err != nil {
			return nil, err
		}
		return map[string]any{"removed": s.debugger.ClearWatchpoint(id)}, nil

	case "step":
		return s.debugger.Step(), nil

	case "run":
		maxSteps := uint64(0)
		if v, ok := args["max_steps"]; ok {
			n, err := toUint32(v)
			if err != nil {
				return nil, simerr.Wrap(simerr.KindProtocol, err, "invalid max_steps")
			}
			maxSteps = uint64(n)
		}
		return s.debugger.Run(maxSteps), nil

	case "halt":
		s.debugger.Halt()
		return map[string]any{"status": "ok"}, nil

	default:
		return nil, simerr.New(simerr.KindProtocol, "unknown command %q", cmd)
	}
}

func argUint32(args map[string]any, key string) (uint32, error) {
	v, ok := args[key]
	if !ok {
		return 0, simerr.New(simerr.KindProtocol, "missing required argument %q", key)
	}
	n, err := toUint32(v)
	if err != nil {
		return 0, simerr.Wrap(simerr.KindProtocol, err, "invalid argument %q", key)
	}
	return n, nil
}

func argInt(args map[string]any, key string) (int, error) {
	n, err := argUint32(args, key)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func argWatchAccess(args map[string]any) (WatchAccess, error) {
	v, ok := args["access"]
	if !ok {
		return WatchAccessAny, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", simerr.New(simerr.KindProtocol, "\"access\" must be a string")
	}
	switch WatchAccess(s) {
	case WatchRead, WatchWrite, WatchAccessAny:
		return WatchAccess(s), nil
	default:
		return "", simerr.New(simerr.KindProtocol, "invalid watch access %q", s)
	}
}

// toUint32 converts a decoded JSON number (always float64 via
// encoding/json) to uint32, rejecting negative or out-of-range values.
func toUint32(v any) (uint32, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, simerr.New(simerr.KindProtocol, "expected a JSON number, got %T", v)
	}
	if f < 0 || f > 0xFFFFFFFF {
		return 0, simerr.New(simerr.KindProtocol, "value %v out of uint32 range", f)
	}
	return uint32(f), nil
}
