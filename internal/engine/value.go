// Package engine implements Escanor's multi-model data engine: the
// tagged Value variant, the merge operator GEOADD and JMERGE apply,
// the TTL table, and the command handlers that run
// inside the Raft apply step.
package engine

import (
	"encoding/json"

	"github.com/mambisi/escanor/internal/geo"
)

// Kind tags which variant a Value holds. A key has exactly one variant;
// cross-variant commands fail with a Type error rather than coercing.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindJSON
	KindGeo
)

// Value is the closed tagged variant stored under every key.
type Value struct {
	Kind   Kind
	Str    string
	Int    int64
	Float  float64
	JSON   []byte // canonicalized JSON bytes; root may be the literal "null"
	Geo    *geo.Index
}

func Null() Value                 { return Value{Kind: KindNull} }
func StringValue(s string) Value  { return Value{Kind: KindString, Str: s} }
func IntValue(v int64) Value      { return Value{Kind: KindInt, Int: v} }
func FloatValue(v float64) Value  { return Value{Kind: KindFloat, Float: v} }
func JSONValue(b []byte) Value    { return Value{Kind: KindJSON, JSON: b} }
func GeoValue(idx *geo.Index) Value { return Value{Kind: KindGeo, Geo: idx} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// Clone returns a deep copy so that two goroutines never share the
// mutable parts of a Value (the JSON byte slice, the geo index).
func (v Value) Clone() Value {
	out := v
	if v.JSON != nil {
		out.JSON = append([]byte(nil), v.JSON...)
	}
	if v.Geo != nil {
		out.Geo = v.Geo.Clone()
	}
	return out
}

// gobValue is the serialized form of a Value inside a Store.Dump
// snapshot, which BoltStore keeps in its db bucket. It is a plain JSON
// envelope rather than Go's gob package, so that the bytes are portable
// and inspectable.
type gobValue struct {
	Kind  Kind            `json:"kind"`
	Str   string          `json:"str,omitempty"`
	Int   int64           `json:"int,omitempty"`
	Float float64         `json:"float,omitempty"`
	JSON  json.RawMessage `json:"json,omitempty"`
	Geo   *geo.Index      `json:"geo,omitempty"`
}

// Marshal encodes v for a Store.Dump snapshot.
func (v Value) Marshal() ([]byte, error) {
	g := gobValue{Kind: v.Kind, Str: v.Str, Int: v.Int, Float: v.Float, Geo: v.Geo}
	if v.JSON != nil {
		g.JSON = json.RawMessage(v.JSON)
	}
	return json.Marshal(g)
}

// Unmarshal decodes bytes produced by Marshal.
func Unmarshal(data []byte) (Value, error) {
	var g gobValue
	if err := json.Unmarshal(data, &g); err != nil {
		return Value{}, err
	}
	v := Value{Kind: g.Kind, Str: g.Str, Int: g.Int, Float: g.Float, Geo: g.Geo}
	if g.JSON != nil {
		v.JSON = []byte(g.JSON)
	}
	return v, nil
}
