package command

import (
	"time"

	"github.com/mambisi/escanor/internal/engine"
	"github.com/mambisi/escanor/internal/resp"
)

// Command is a compiled, executable request. Write commands are the
// ones proposed through the Raft log and applied by the state machine;
// read commands run directly against the local store. AUTH is neither:
// it mutates the session only and never touches the engine.
type Command interface {
	Name() string
	IsWrite() bool
	Apply(eng *engine.Store, sess *Session, now time.Time) resp.Frame
}

// Gate wraps cmd's execution with the auth check the original engine's
// auth_context performed around every command: AUTH itself always
// runs; everything else runs only if auth is not required or the
// session has already authenticated.
func Gate(cmd Command, eng *engine.Store, sess *Session, now time.Time) resp.Frame {
	if _, isAuth := cmd.(*AuthCmd); isAuth {
		return cmd.Apply(eng, sess, now)
	}
	if !sess.AuthRequired || sess.Authenticated {
		return cmd.Apply(eng, sess, now)
	}
	return resp.Err("ERR auth failed")
}
