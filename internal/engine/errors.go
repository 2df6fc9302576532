package engine

import "errors"

// ErrNotIncrementable is returned by IncrBy when the target key holds a
// String, JSON, or Geo value — only Int and Float support INCRBY.
var ErrNotIncrementable = errors.New("engine: value is not incrementable")

// ErrWrongType is returned by the JSON commands when the target key
// holds a non-JSON value, and by the geo commands when it holds a
// non-geo value.
var ErrWrongType = errors.New("engine: value has the wrong type for this command")

// ErrSyntax mirrors the original engine's blanket "ERR syntax error"
// reply: any malformed command argument collapses to this rather than
// a field-specific message.
var ErrSyntax = errors.New("engine: syntax error")

// ErrMemberNotFound is returned by GEODIST/GEORADIUSBYMEMBER when a
// named member is absent from the geo index.
var ErrMemberNotFound = errors.New("engine: member not found")
