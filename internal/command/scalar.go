package command

import (
	"strconv"
	"time"

	"github.com/mambisi/escanor/internal/engine"
	"github.com/mambisi/escanor/internal/resp"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// SetCmd stores a scalar value, parsed as Int if the token is a valid
// integer and String otherwise (no float auto-detection — SET never
// produces a Float value, matching the original engine). ExpireSeconds
// is 0 when no EX clause was given.
type SetCmd struct {
	Key           string
	Value         engine.Value
	ExpireSeconds uint32
}

func (SetCmd) Name() string  { return "SET" }
func (SetCmd) IsWrite() bool { return true }

func (c *SetCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	var at *time.Time
	if c.ExpireSeconds > 0 {
		t := now.Add(time.Duration(c.ExpireSeconds) * time.Second)
		at = &t
	}
	eng.Set(c.Key, c.Value, at)
	return resp.OK()
}

// GetSetCmd stores value at key and returns the previous value (nil
// bulk string if the key was absent).
type GetSetCmd struct {
	Key   string
	Value engine.Value
}

func (GetSetCmd) Name() string  { return "GETSET" }
func (GetSetCmd) IsWrite() bool { return true }

func (c *GetSetCmd) Apply(eng *engine.Store, _ *Session, _ time.Time) resp.Frame {
	old, existed := eng.GetSet(c.Key, c.Value)
	if !existed {
		return resp.NullBulk()
	}
	return valueFrame(old)
}

// GetCmd returns the value at key.
type GetCmd struct{ Key string }

func (GetCmd) Name() string  { return "GET" }
func (GetCmd) IsWrite() bool { return false }

func (c *GetCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	v, ok := eng.Get(c.Key, now)
	if !ok {
		return resp.Err("KEY_NOT_FOUND")
	}
	return valueFrame(v)
}

// DelCmd removes a single key, replying with the number removed (0 or
// 1), matching the original engine's single-key DEL.
type DelCmd struct{ Key string }

func (DelCmd) Name() string  { return "DEL" }
func (DelCmd) IsWrite() bool { return true }

func (c *DelCmd) Apply(eng *engine.Store, _ *Session, _ time.Time) resp.Frame {
	if eng.Del(c.Key) {
		return resp.Int(1)
	}
	return resp.Int(0)
}

// ExistsCmd reports how many of Keys are present and unexpired.
type ExistsCmd struct{ Keys []string }

func (ExistsCmd) Name() string  { return "EXISTS" }
func (ExistsCmd) IsWrite() bool { return false }

func (c *ExistsCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	var count int64
	for _, k := range c.Keys {
		if eng.Exists(k, now) {
			count++
		}
	}
	return resp.Int(count)
}

// KeysCmd returns every live key matching Pattern (a `*`/`?`/`[...]`
// glob).
type KeysCmd struct{ Pattern string }

func (KeysCmd) Name() string  { return "KEYS" }
func (KeysCmd) IsWrite() bool { return false }

func (c *KeysCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	keys, err := eng.Keys(c.Pattern, now)
	if err != nil {
		return resp.Err("ERR invalid pattern")
	}
	return resp.StrArr(keys)
}

// TTLCmd reports the seconds remaining before key expires: -2 if key
// does not exist, -1 if it exists with no TTL, n otherwise.
type TTLCmd struct{ Key string }

func (TTLCmd) Name() string  { return "TTL" }
func (TTLCmd) IsWrite() bool { return false }

func (c *TTLCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	exists, seconds := eng.TTLSeconds(c.Key, now)
	if !exists {
		return resp.Int(-2)
	}
	return resp.Int(seconds)
}

// PersistCmd clears key's TTL, replying 1 if one was present.
type PersistCmd struct{ Key string }

func (PersistCmd) Name() string  { return "PERSIST" }
func (PersistCmd) IsWrite() bool { return true }

func (c *PersistCmd) Apply(eng *engine.Store, _ *Session, _ time.Time) resp.Frame {
	if eng.Persist(c.Key) {
		return resp.Int(1)
	}
	return resp.Int(0)
}

// ExpireCmd sets key's TTL to Seconds from now.
type ExpireCmd struct {
	Key     string
	Seconds int64
}

func (ExpireCmd) Name() string  { return "EXPIRE" }
func (ExpireCmd) IsWrite() bool { return true }

func (c *ExpireCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	if eng.Expire(c.Key, now, time.Duration(c.Seconds)*time.Second) {
		return resp.Int(1)
	}
	return resp.Int(0)
}

// ExpireAtCmd sets key's TTL to the absolute Unix second UnixSeconds —
// resolved as absolute per spec.md §9's EXPIREAT decision.
type ExpireAtCmd struct {
	Key         string
	UnixSeconds int64
}

func (ExpireAtCmd) Name() string  { return "EXPIREAT" }
func (ExpireAtCmd) IsWrite() bool { return true }

func (c *ExpireAtCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	at := time.Unix(c.UnixSeconds, 0).UTC()
	if eng.ExpireAt(c.Key, now, at) {
		return resp.Int(1)
	}
	return resp.Int(0)
}

// IncrByCmd atomically adds Delta to the Int or Float at Key.
type IncrByCmd struct {
	Key   string
	Delta int64
}

func (IncrByCmd) Name() string  { return "INCRBY" }
func (IncrByCmd) IsWrite() bool { return true }

func (c *IncrByCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	v, err := eng.IncrBy(c.Key, c.Delta, now)
	if err != nil {
		return resp.Err("ERR value is not an integer or out of range")
	}
	return valueFrame(v)
}

// valueFrame renders an engine.Value the way GET-family commands reply:
// strings and floats as bulk strings, ints as RESP integers, JSON
// documents as bulk strings of the stored bytes, geo indexes as nested
// arrays of [lat, lng], and Null as a nil bulk string.
func valueFrame(v engine.Value) resp.Frame {
	switch v.Kind {
	case engine.KindString:
		return resp.BulkStr(v.Str)
	case engine.KindInt:
		return resp.Int(v.Int)
	case engine.KindFloat:
		return resp.BulkStr(formatFloat(v.Float))
	case engine.KindJSON:
		return resp.BulkStr(string(v.JSON))
	case engine.KindGeo:
		items := make([]resp.Frame, 0, v.Geo.Len())
		for _, p := range v.Geo.Points() {
			items = append(items, resp.StrArr([]string{formatFloat(p.Lat), formatFloat(p.Lng)}))
		}
		return resp.Arr(items)
	default:
		return resp.NullBulk()
	}
}
