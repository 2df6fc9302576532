package command

import (
	"encoding/json"
	"time"

	"github.com/mambisi/escanor/internal/engine"
	"github.com/mambisi/escanor/internal/resp"
)

// PingCmd replies PONG; it neither reads nor writes the engine.
type PingCmd struct{}

func (PingCmd) Name() string    { return "PING" }
func (PingCmd) IsWrite() bool   { return false }
func (PingCmd) Apply(*engine.Store, *Session, time.Time) resp.Frame { return resp.Pong() }

// AuthCmd checks the supplied password against the session's
// configured password and flips Authenticated accordingly; when auth is
// not required it always succeeds. The attempted password itself is not
// stored on the session.
type AuthCmd struct {
	Password string
}

func (AuthCmd) Name() string  { return "AUTH" }
func (AuthCmd) IsWrite() bool { return false }

func (c *AuthCmd) Apply(_ *engine.Store, sess *Session, _ time.Time) resp.Frame {
	if !sess.AuthRequired {
		sess.Authenticated = true
		return resp.OK()
	}
	sess.Authenticated = c.Password == sess.ServerPassword
	if sess.Authenticated {
		return resp.OK()
	}
	return resp.Err("ERR auth failed")
}

// InfoCmd reports the key count and approximate on-disk size as a JSON
// bulk string, matching the original engine's payload shape.
type InfoCmd struct{}

func (InfoCmd) Name() string  { return "INFO" }
func (InfoCmd) IsWrite() bool { return false }

func (InfoCmd) Apply(eng *engine.Store, _ *Session, _ time.Time) resp.Frame {
	keys, sizeOnDisk := eng.Info()
	payload, _ := json.Marshal(struct {
		SizeOnDisk int64 `json:"size_on_disk"`
		Keys       int64 `json:"keys"`
	}{SizeOnDisk: sizeOnDisk, Keys: keys})
	return resp.BulkStr(string(payload))
}

// DBSizeCmd reports the on-disk size in bytes — not the key count,
// despite the name, matching the original engine's db_size reply.
type DBSizeCmd struct{}

func (DBSizeCmd) Name() string  { return "DBSIZE" }
func (DBSizeCmd) IsWrite() bool { return false }

func (DBSizeCmd) Apply(eng *engine.Store, _ *Session, _ time.Time) resp.Frame {
	_, sizeOnDisk := eng.Info()
	return resp.Int(sizeOnDisk)
}

// RandomKeyCmd returns a freshly generated 25-character alphanumeric
// id. See engine.Store.RandomKey's doc comment: this does not sample
// from existing keys.
type RandomKeyCmd struct{}

func (RandomKeyCmd) Name() string  { return "RANDOMKEY" }
func (RandomKeyCmd) IsWrite() bool { return false }

func (RandomKeyCmd) Apply(eng *engine.Store, _ *Session, _ time.Time) resp.Frame {
	return resp.BulkStr(eng.RandomKey())
}
