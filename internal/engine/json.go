package engine

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DotSet writes value at path inside doc using the same dot-path
// grammar the original engine's json_dotpath crate accepted — segments
// separated by `.`, with a numeric segment indexing into an array
// (e.g. `a.b.0.c`). Missing intermediate objects/arrays are created.
func DotSet(doc []byte, path string, value interface{}) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(doc, path, raw)
}

// DotGet reads the value at path inside doc. ok is false if the path
// does not resolve to anything, in which case Store.JGet replies with
// JSON null rather than an error — matching the
// original's `unwrap_or(Some(Value::Null))` fallback.
func DotGet(doc []byte, path string) (raw []byte, ok bool) {
	res := gjson.GetBytes(doc, path)
	if !res.Exists() {
		return nil, false
	}
	return []byte(res.Raw), true
}

// SelectPath evaluates a JSONPath-style selector against doc. Two forms
// are supported: a plain dot path (`a.b.c`, with a leading `$` or `$.`
// stripped), which behaves like DotGet, and a recursive-descent form
// (`$..name`), which collects every value for key `name` found at any
// depth of the document, returned as a JSON array in document order.
// This covers the subset of JSONPath spec.md's examples exercise; full
// bracket/filter JSONPath is out of scope (see DESIGN.md).
func SelectPath(doc []byte, selector string) ([]byte, error) {
	selector = strings.TrimPrefix(selector, "$")
	if strings.HasPrefix(selector, "..") {
		key := strings.TrimPrefix(selector, "..")
		var matches []json.RawMessage
		collectRecursive(gjson.ParseBytes(doc), key, &matches)
		return json.Marshal(matches)
	}
	selector = strings.TrimPrefix(selector, ".")
	if selector == "" {
		return doc, nil
	}
	res := gjson.GetBytes(doc, selector)
	if !res.Exists() {
		return []byte("null"), nil
	}
	return []byte(res.Raw), nil
}

func collectRecursive(v gjson.Result, key string, out *[]json.RawMessage) {
	if v.IsObject() {
		v.ForEach(func(k, val gjson.Result) bool {
			if k.String() == key {
				*out = append(*out, json.RawMessage(val.Raw))
			}
			collectRecursive(val, key, out)
			return true
		})
		return
	}
	if v.IsArray() {
		v.ForEach(func(_, val gjson.Result) bool {
			collectRecursive(val, key, out)
			return true
		})
	}
}
