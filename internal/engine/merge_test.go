package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeNullIdentities(t *testing.T) {
	a := StringValue("a")
	require.Equal(t, a, Merge(a, Null()))
	require.Equal(t, a, Merge(Null(), a))
}

func TestMergeDisjointJSONKeysCommutes(t *testing.T) {
	left := JSONValue([]byte(`{"a":1}`))
	right := JSONValue([]byte(`{"b":2}`))

	ab := Merge(left, right)
	ba := Merge(right, left)

	require.JSONEq(t, `{"a":1,"b":2}`, string(ab.JSON))
	require.JSONEq(t, `{"a":1,"b":2}`, string(ba.JSON))
}

func TestMergeJSONOverlappingKeyPrefersIncoming(t *testing.T) {
	old := JSONValue([]byte(`{"name":"Ada","age":30}`))
	next := JSONValue([]byte(`{"age":31,"city":"Paris"}`))
	merged := Merge(old, next)
	require.JSONEq(t, `{"name":"Ada","age":31,"city":"Paris"}`, string(merged.JSON))
}

func TestMergeMismatchedKindsKeepsOld(t *testing.T) {
	old := StringValue("a")
	next := IntValue(1)
	require.Equal(t, old, Merge(old, next))
}
