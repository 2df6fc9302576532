// Package command implements the syntax analyzer and the command
// registry: compiling a token stream into a typed Command, and
// dispatching each Command's Apply against the data engine under an
// auth gate.
package command

// Session is the per-connection state a Command's Apply sees: the
// client's address, whether auth is required at all, the server's
// configured password, and whether this connection has authenticated.
// One Session exists per accepted connection; it is never shared.
type Session struct {
	ClientAddr     string
	AuthRequired   bool
	ServerPassword string
	Authenticated  bool
}

// NewSession returns a session for a freshly accepted connection.
func NewSession(clientAddr string, authRequired bool, password string) *Session {
	return &Session{
		ClientAddr:     clientAddr,
		AuthRequired:   authRequired,
		ServerPassword: password,
	}
}
