package store

import (
	"path/filepath"
	"testing"

	"github.com/hashicorp/raft"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *BoltStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "raft.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLogStoreRoundTripsEntriesInIndexOrder(t *testing.T) {
	s := openTest(t)

	require.NoError(t, s.StoreLogs([]*raft.Log{
		{Index: 1, Term: 1, Data: []byte("a")},
		{Index: 2, Term: 1, Data: []byte("b")},
		{Index: 3, Term: 1, Data: []byte("c")},
	}))

	first, err := s.FirstIndex()
	require.NoError(t, err)
	require.EqualValues(t, 1, first)

	last, err := s.LastIndex()
	require.NoError(t, err)
	require.EqualValues(t, 3, last)

	var log raft.Log
	require.NoError(t, s.GetLog(2, &log))
	require.Equal(t, []byte("b"), log.Data)
}

func TestGetLogOnMissingIndexReturnsErrLogNotFound(t *testing.T) {
	s := openTest(t)
	var log raft.Log
	require.ErrorIs(t, s.GetLog(99, &log), raft.ErrLogNotFound)
}

func TestDeleteRangeRemovesOnlyBoundedEntries(t *testing.T) {
	s := openTest(t)
	require.NoError(t, s.StoreLogs([]*raft.Log{
		{Index: 1, Term: 1}, {Index: 2, Term: 1}, {Index: 3, Term: 1}, {Index: 4, Term: 1},
	}))

	require.NoError(t, s.DeleteRange(2, 3))

	var log raft.Log
	require.ErrorIs(t, s.GetLog(2, &log), raft.ErrLogNotFound)
	require.NoError(t, s.GetLog(1, &log))
	require.NoError(t, s.GetLog(4, &log))
}

func TestStableStoreRoundTripsBytesAndUint64(t *testing.T) {
	s := openTest(t)

	require.NoError(t, s.Set([]byte("k"), []byte("v")))
	v, err := s.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)

	require.NoError(t, s.SetUint64([]byte("n"), 42))
	n, err := s.GetUint64([]byte("n"))
	require.NoError(t, err)
	require.EqualValues(t, 42, n)
}

func TestStableStoreGetMissingKeyReturnsNilNoError(t *testing.T) {
	s := openTest(t)
	v, err := s.Get([]byte("missing"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSnapshotStoreKeepsOnlyLatest(t *testing.T) {
	s := openTest(t)

	sink, err := s.Create(raft.SnapshotVersionMax, 5, 1, raft.Configuration{}, 0, nil)
	require.NoError(t, err)
	_, err = sink.Write([]byte("snapshot-one"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.EqualValues(t, 5, list[0].Index)

	_, rc, err := s.Open(list[0].ID)
	require.NoError(t, err)
	defer rc.Close()
	data := make([]byte, len("snapshot-one"))
	_, err = rc.Read(data)
	require.NoError(t, err)
	require.Equal(t, "snapshot-one", string(data))

	sink2, err := s.Create(raft.SnapshotVersionMax, 9, 2, raft.Configuration{}, 0, nil)
	require.NoError(t, err)
	_, err = sink2.Write([]byte("snapshot-two"))
	require.NoError(t, err)
	require.NoError(t, sink2.Close())

	list, err = s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.EqualValues(t, 9, list[0].Index)
}

func TestSnapshotSinkCancelDiscardsData(t *testing.T) {
	s := openTest(t)
	sink, err := s.Create(raft.SnapshotVersionMax, 1, 1, raft.Configuration{}, 0, nil)
	require.NoError(t, err)
	_, err = sink.Write([]byte("discarded"))
	require.NoError(t, err)
	require.NoError(t, sink.Cancel())

	list, err := s.List()
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestSizeReportsPositiveFileSize(t *testing.T) {
	s := openTest(t)
	require.Greater(t, s.Size(), int64(0))
}
