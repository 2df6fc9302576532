// Package server runs the accept loop: one goroutine per connection,
// reading frames, compiling them through internal/command, submitting
// writes to the Raft leader, and writing the reply back — spec.md §4.7.
package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mambisi/escanor/internal/cluster"
	"github.com/mambisi/escanor/internal/command"
	"github.com/mambisi/escanor/internal/config"
	"github.com/mambisi/escanor/internal/engine"
	"github.com/mambisi/escanor/internal/resp"
)

// Node is the subset of *cluster.Node a Server depends on, narrowed so
// tests can exercise the accept loop against a fake single-process
// stand-in instead of a real Raft cluster.
type Node interface {
	Propose(tokens []string, now time.Time) (interface{}, error)
	LeaderAddress() string
}

var _ Node = (*cluster.Node)(nil)

// Server owns the client-facing TCP listener. Reads run directly
// against eng; writes are proposed through node and applied by its
// FSM, so the reply a client sees is always the result of a committed
// log entry.
type Server struct {
	eng    *engine.Store
	node   Node
	net    config.Network
	auth   string
	logger *zap.Logger

	mu    sync.Mutex
	conns int
}

// New builds a Server. requireAuth is the configured password ("" means
// no auth gate); netCfg supplies bind address, port, and connection
// limits from the loaded config.Conf.
func New(eng *engine.Store, node Node, netCfg config.Network, requireAuth string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{eng: eng, node: node, net: netCfg, auth: requireAuth, logger: logger}
}

// ListenAndServe binds the configured address and accepts connections.
// It returns only if binding fails; an Accept error is logged and the
// loop goes on accepting.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.net.Bind, s.net.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	defer lis.Close()
	s.logger.Info("server listening", zap.String("addr", addr))

	for {
		conn, err := lis.Accept()
		if err != nil {
			s.logger.Warn("accept failed", zap.Error(err))
			continue
		}
		if !s.acquireSlot() {
			conn.Close()
			continue
		}
		go s.serve(conn)
	}
}

func (s *Server) acquireSlot() bool {
	if s.net.MaxConnections <= 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns >= s.net.MaxConnections {
		return false
	}
	s.conns++
	return true
}

func (s *Server) releaseSlot() {
	if s.net.MaxConnections <= 0 {
		return
	}
	s.mu.Lock()
	s.conns--
	s.mu.Unlock()
}

// serve runs one connection's frame-per-request loop until the client
// disconnects or sends a malformed frame.
func (s *Server) serve(conn net.Conn) {
	defer conn.Close()
	defer s.releaseSlot()

	addr := conn.RemoteAddr().String()
	sess := command.NewSession(addr, s.auth != "", s.auth)

	maxPacket := s.net.MaxPacket * 1024
	if maxPacket <= 0 {
		maxPacket = 10 * 1024
	}

	var buf []byte
	scratch := make([]byte, 4096)
	for {
		tokens, err := readCommand(conn, &buf, scratch, maxPacket)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("connection closed", zap.Error(err), zap.String("addr", addr))
			}
			return
		}
		if len(tokens) == 0 {
			continue
		}

		reply := s.execute(tokens, sess, time.Now())
		if _, err := conn.Write(resp.Encode(nil, reply)); err != nil {
			return
		}
	}
}

// execute compiles tokens and runs the command. AUTH always runs, is
// never replicated, and only mutates sess. Every other command runs
// behind the auth gate; writes are proposed through Raft, reads run
// directly against the local engine.
func (s *Server) execute(tokens []string, sess *command.Session, now time.Time) resp.Frame {
	cmd, err := command.Parse(tokens)
	if err != nil {
		return resp.Err("ERR syntax error")
	}

	if a, ok := cmd.(*command.AuthCmd); ok {
		return a.Apply(s.eng, sess, now)
	}
	if sess.AuthRequired && !sess.Authenticated {
		return resp.Err("ERR auth failed")
	}

	if !cmd.IsWrite() {
		return cmd.Apply(s.eng, sess, now)
	}

	res, err := s.node.Propose(tokens, now)
	if err != nil {
		if errors.Is(err, cluster.ErrNotLeader) {
			if leader := s.node.LeaderAddress(); leader != "" {
				return resp.Err("MOVED " + leader)
			}
			return resp.Err("ERR no known leader")
		}
		return resp.Err("ERR " + err.Error())
	}
	frame, ok := res.(resp.Frame)
	if !ok {
		return resp.Err("ERR internal error")
	}
	return frame
}
