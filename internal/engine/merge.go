package engine

import "encoding/json"

// Merge implements the ⊕ operator that GEOADD and JMERGE (via
// Store.MergeSet) apply when they write onto a key; SET, GETSET, JSET
// and JSETR replace the stored value instead. old is the
// value already stored (Null if the key was absent); next is the
// incoming value. Mismatched variants other than (Null, x) are a
// conflict: the old value survives unchanged.
func Merge(old, next Value) Value {
	switch {
	case old.Kind == KindNull:
		return next
	case next.Kind == KindNull:
		return old
	case old.Kind != next.Kind:
		return old
	}

	switch old.Kind {
	case KindString:
		return StringValue(old.Str + next.Str)
	case KindInt:
		return next
	case KindFloat:
		return next
	case KindJSON:
		merged := deepMergeJSON(old.JSON, next.JSON)
		return JSONValue(merged)
	case KindGeo:
		out := old.Geo.Clone()
		out.Merge(next.Geo)
		return GeoValue(out)
	default:
		return old
	}
}

// deepMergeJSON recursively merges b into a: object keys union with b's
// values taking precedence on conflict; any other combination of types
// (including arrays) is a full replacement by b, matching the original
// engine's recursive merge helper.
func deepMergeJSON(a, b []byte) []byte {
	var av, bv interface{}
	if err := json.Unmarshal(a, &av); err != nil {
		return b
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return a
	}
	merged := deepMergeValue(av, bv)
	out, err := json.Marshal(merged)
	if err != nil {
		return a
	}
	return out
}

func deepMergeValue(a, b interface{}) interface{} {
	am, aok := a.(map[string]interface{})
	bm, bok := b.(map[string]interface{})
	if aok && bok {
		out := make(map[string]interface{}, len(am))
		for k, v := range am {
			out[k] = v
		}
		for k, v := range bm {
			if existing, ok := out[k]; ok {
				out[k] = deepMergeValue(existing, v)
			} else {
				out[k] = v
			}
		}
		return out
	}
	return b
}
