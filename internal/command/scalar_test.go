package command

import (
	"testing"
	"time"

	"github.com/mambisi/escanor/internal/engine"
	"github.com/stretchr/testify/require"
)

func TestSetThenGetRoundTrips(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()

	set := &SetCmd{Key: "k", Value: engine.StringValue("v")}
	require.Equal(t, "OK", set.Apply(eng, nil, now).Str)

	get := &GetCmd{Key: "k"}
	f := get.Apply(eng, nil, now)
	require.Equal(t, "v", string(f.Bulk))
}

func TestSetWithExpireSecondsSetsTTL(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()
	set := &SetCmd{Key: "k", Value: engine.IntValue(1), ExpireSeconds: 30}
	set.Apply(eng, nil, now)

	ttl := &TTLCmd{Key: "k"}
	f := ttl.Apply(eng, nil, now)
	require.Greater(t, f.Int, int64(0))
	require.LessOrEqual(t, f.Int, int64(30))
}

func TestGetOnMissingKeyIsKeyNotFoundError(t *testing.T) {
	eng := engine.NewStore()
	f := (&GetCmd{Key: "missing"}).Apply(eng, nil, time.Now())
	require.Equal(t, "KEY_NOT_FOUND", f.ErrMsg)
}

func TestGetSetReturnsPreviousValueOrNil(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()

	f := (&GetSetCmd{Key: "k", Value: engine.StringValue("new")}).Apply(eng, nil, now)
	require.True(t, f.BulkNull)

	f = (&GetSetCmd{Key: "k", Value: engine.StringValue("newer")}).Apply(eng, nil, now)
	require.Equal(t, "new", string(f.Bulk))
}

func TestDelReportsWhetherKeyExisted(t *testing.T) {
	eng := engine.NewStore()
	eng.Set("k", engine.IntValue(1), nil)

	require.Equal(t, int64(1), (&DelCmd{Key: "k"}).Apply(eng, nil, time.Now()).Int)
	require.Equal(t, int64(0), (&DelCmd{Key: "k"}).Apply(eng, nil, time.Now()).Int)
}

func TestExistsCountsPresentKeys(t *testing.T) {
	eng := engine.NewStore()
	eng.Set("a", engine.IntValue(1), nil)
	f := (&ExistsCmd{Keys: []string{"a", "b"}}).Apply(eng, nil, time.Now())
	require.Equal(t, int64(1), f.Int)
}

func TestKeysMatchesGlobPattern(t *testing.T) {
	eng := engine.NewStore()
	eng.Set("user:1", engine.IntValue(1), nil)
	eng.Set("user:2", engine.IntValue(2), nil)
	eng.Set("order:1", engine.IntValue(3), nil)

	f := (&KeysCmd{Pattern: "user:*"}).Apply(eng, nil, time.Now())
	got := make([]string, len(f.Items))
	for i, item := range f.Items {
		got[i] = string(item.Bulk)
	}
	require.ElementsMatch(t, []string{"user:1", "user:2"}, got)
}

func TestTTLReportsMinusTwoForMissingKey(t *testing.T) {
	eng := engine.NewStore()
	f := (&TTLCmd{Key: "nope"}).Apply(eng, nil, time.Now())
	require.Equal(t, int64(-2), f.Int)
}

func TestPersistClearsTTL(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()
	(&SetCmd{Key: "k", Value: engine.IntValue(1), ExpireSeconds: 30}).Apply(eng, nil, now)

	require.Equal(t, int64(1), (&PersistCmd{Key: "k"}).Apply(eng, nil, now).Int)
	require.Equal(t, int64(-1), (&TTLCmd{Key: "k"}).Apply(eng, nil, now).Int)
}

func TestExpireAtSetsAbsoluteExpiry(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()
	eng.Set("k", engine.IntValue(1), nil)

	cmd := &ExpireAtCmd{Key: "k", UnixSeconds: now.Add(time.Hour).Unix()}
	require.Equal(t, int64(1), cmd.Apply(eng, nil, now).Int)

	_, ok := eng.Get("k", now.Add(2*time.Hour))
	require.False(t, ok)
}

func TestIncrByStartsAtZeroAndErrorsOnStringValue(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()

	f := (&IncrByCmd{Key: "counter", Delta: 5}).Apply(eng, nil, now)
	require.Equal(t, int64(5), f.Int)

	eng.Set("s", engine.StringValue("hi"), nil)
	f = (&IncrByCmd{Key: "s", Delta: 1}).Apply(eng, nil, now)
	require.Equal(t, "ERR value is not an integer or out of range", f.ErrMsg)
}
