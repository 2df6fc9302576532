package command

import (
	"testing"
	"time"

	"github.com/mambisi/escanor/internal/engine"
	"github.com/stretchr/testify/require"
)

func TestJSetRawThenJGet(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()

	set := &JSetRawCmd{Key: "doc", Value: []byte(`{"name":"Ada"}`)}
	require.Equal(t, "OK", set.Apply(eng, nil, now).Str)

	f := (&JGetCmd{Key: "doc"}).Apply(eng, nil, now)
	require.JSONEq(t, `{"name":"Ada"}`, string(f.Bulk))
}

func TestJSetRawRejectsInvalidJSON(t *testing.T) {
	eng := engine.NewStore()
	f := (&JSetRawCmd{Key: "doc", Value: []byte(`not json`)}).Apply(eng, nil, time.Now())
	require.Equal(t, "ERR invalid json", f.ErrMsg)
}

func TestJSetDotSetsPathOnAbsentDocument(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()

	cmd := &JSetCmd{Key: "doc", Items: []engine.SetPathItem{{Path: "name", Value: "Ada"}}}
	require.Equal(t, "OK", cmd.Apply(eng, nil, now).Str)

	f := (&JGetCmd{Key: "doc", DotPath: "name"}).Apply(eng, nil, now)
	require.Equal(t, `"Ada"`, string(f.Bulk))
}

func TestJSetOnWrongTypeKeyErrors(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()
	eng.Set("k", engine.IntValue(1), nil)

	cmd := &JSetCmd{Key: "k", Items: []engine.SetPathItem{{Path: "x", Value: 1}}}
	f := cmd.Apply(eng, nil, now)
	require.Equal(t, "ERR Invalid key for data type", f.ErrMsg)
}

func TestJMergeDeepMergesIntoExistingDocument(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()
	(&JSetRawCmd{Key: "doc", Value: []byte(`{"a":1}`)}).Apply(eng, nil, now)

	f := (&JMergeCmd{Key: "doc", Value: []byte(`{"b":2}`)}).Apply(eng, nil, now)
	require.Equal(t, "OK", f.Str)

	got := (&JGetCmd{Key: "doc"}).Apply(eng, nil, now)
	require.JSONEq(t, `{"a":1,"b":2}`, string(got.Bulk))
}

func TestJGetOnMissingKeyIsKeyNotFound(t *testing.T) {
	eng := engine.NewStore()
	f := (&JGetCmd{Key: "missing"}).Apply(eng, nil, time.Now())
	require.Equal(t, "KEY_NOT_FOUND", f.ErrMsg)
}

func TestJDelRemovesDocument(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()
	(&JSetRawCmd{Key: "doc", Value: []byte(`{}`)}).Apply(eng, nil, now)

	require.Equal(t, int64(1), (&JDelCmd{Key: "doc"}).Apply(eng, nil, now).Int)
	require.Equal(t, int64(0), (&JDelCmd{Key: "doc"}).Apply(eng, nil, now).Int)
}

func TestJRemRemovesNamedPaths(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()
	(&JSetRawCmd{Key: "doc", Value: []byte(`{"a":1,"b":2}`)}).Apply(eng, nil, now)

	f := (&JRemCmd{Key: "doc", Paths: []string{"a", "missing"}}).Apply(eng, nil, now)
	require.Equal(t, int64(1), f.Int)

	got := (&JGetCmd{Key: "doc"}).Apply(eng, nil, now)
	require.JSONEq(t, `{"b":2}`, string(got.Bulk))
}

func TestJIncrByCreatesPathAndAccumulates(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()

	f := (&JIncrByCmd{Key: "doc", Path: "count", Delta: 3}).Apply(eng, nil, now)
	require.Equal(t, int64(3), f.Int)

	f = (&JIncrByCmd{Key: "doc", Path: "count", Delta: 4}).Apply(eng, nil, now)
	require.Equal(t, int64(7), f.Int)
}

func TestJIncrByFloatAccumulates(t *testing.T) {
	eng := engine.NewStore()
	now := time.Now()

	f := (&JIncrByFloatCmd{Key: "doc", Path: "score", Delta: 1.5}).Apply(eng, nil, now)
	require.Equal(t, "1.5", string(f.Bulk))

	f = (&JIncrByFloatCmd{Key: "doc", Path: "score", Delta: 0.5}).Apply(eng, nil, now)
	require.Equal(t, "2", string(f.Bulk))
}
