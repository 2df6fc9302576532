package command

import (
	"time"

	"github.com/mambisi/escanor/internal/engine"
	"github.com/mambisi/escanor/internal/resp"
)

func jsonErrFrame(err error) resp.Frame {
	if err == engine.ErrWrongType {
		return resp.Err("ERR Invalid key for data type")
	}
	return resp.Err("ERR syntax error")
}

// JSetRawCmd replaces the document at Key outright with Value.
type JSetRawCmd struct {
	Key   string
	Value []byte
}

func (JSetRawCmd) Name() string  { return "JSETR" }
func (JSetRawCmd) IsWrite() bool { return true }

func (c *JSetRawCmd) Apply(eng *engine.Store, _ *Session, _ time.Time) resp.Frame {
	if err := eng.JSetRaw(c.Key, c.Value); err != nil {
		return resp.Err("ERR invalid json")
	}
	return resp.OK()
}

// JSetCmd dot-sets every (path, value) pair in Items into the document
// at Key, creating it as `null` if absent.
type JSetCmd struct {
	Key   string
	Items []engine.SetPathItem
}

func (JSetCmd) Name() string  { return "JSET" }
func (JSetCmd) IsWrite() bool { return true }

func (c *JSetCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	if err := eng.JSet(c.Key, c.Items, now); err != nil {
		return jsonErrFrame(err)
	}
	return resp.OK()
}

// JMergeCmd deep-merges Value into the document at Key.
type JMergeCmd struct {
	Key   string
	Value []byte
}

func (JMergeCmd) Name() string  { return "JMERGE" }
func (JMergeCmd) IsWrite() bool { return true }

func (c *JMergeCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	if err := eng.JMerge(c.Key, c.Value, now); err != nil {
		return resp.Err("ERR invalid json")
	}
	return resp.OK()
}

// JGetCmd returns the document at Key, or the value at DotPath if set.
type JGetCmd struct {
	Key     string
	DotPath string // empty means "whole document"
}

func (JGetCmd) Name() string  { return "JGET" }
func (JGetCmd) IsWrite() bool { return false }

func (c *JGetCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	raw, found, err := eng.JGet(c.Key, c.DotPath, now)
	if err != nil {
		return jsonErrFrame(err)
	}
	if !found {
		return resp.Err("KEY_NOT_FOUND")
	}
	return resp.BulkStr(string(raw))
}

// JPathCmd evaluates a JSONPath-style Selector against the document at
// Key.
type JPathCmd struct {
	Key      string
	Selector string
}

func (JPathCmd) Name() string  { return "JPATH" }
func (JPathCmd) IsWrite() bool { return false }

func (c *JPathCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	raw, found, err := eng.JPath(c.Key, c.Selector, now)
	if err != nil {
		return jsonErrFrame(err)
	}
	if !found {
		return resp.Err("KEY_NOT_FOUND")
	}
	return resp.BulkStr(string(raw))
}

// JDelCmd removes the whole document at Key.
type JDelCmd struct{ Key string }

func (JDelCmd) Name() string  { return "JDEL" }
func (JDelCmd) IsWrite() bool { return true }

func (c *JDelCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	n, err := eng.JDel(c.Key, now)
	if err != nil {
		return jsonErrFrame(err)
	}
	return resp.Int(n)
}

// JRemCmd removes each of Paths from the document at Key.
type JRemCmd struct {
	Key   string
	Paths []string
}

func (JRemCmd) Name() string  { return "JREM" }
func (JRemCmd) IsWrite() bool { return true }

func (c *JRemCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	n, err := eng.JRem(c.Key, c.Paths, now)
	if err != nil {
		return jsonErrFrame(err)
	}
	return resp.Int(n)
}

// JIncrByCmd adds Delta to the integer at Path inside the document at
// Key.
type JIncrByCmd struct {
	Key   string
	Path  string
	Delta int64
}

func (JIncrByCmd) Name() string  { return "JINCRBY" }
func (JIncrByCmd) IsWrite() bool { return true }

func (c *JIncrByCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	v, err := eng.JIncrBy(c.Key, c.Path, c.Delta, now)
	if err != nil {
		return jsonErrFrame(err)
	}
	return resp.Int(v)
}

// JIncrByFloatCmd is JIncrByCmd's float-valued counterpart.
type JIncrByFloatCmd struct {
	Key   string
	Path  string
	Delta float64
}

func (JIncrByFloatCmd) Name() string  { return "JINCRBYFLOAT" }
func (JIncrByFloatCmd) IsWrite() bool { return true }

func (c *JIncrByFloatCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	v, err := eng.JIncrByFloat(c.Key, c.Path, c.Delta, now)
	if err != nil {
		return jsonErrFrame(err)
	}
	return resp.BulkStr(formatFloat(v))
}
