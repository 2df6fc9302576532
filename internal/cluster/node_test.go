package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mambisi/escanor/internal/engine"
)

func waitForLeader(t *testing.T, n *Node) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if n.IsLeader() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("node never became leader")
}

func TestSingleNodeBootstrapsAndBecomesLeader(t *testing.T) {
	eng := engine.NewStore()
	n, err := New(Config{
		NodeID:    "node-1",
		BindAddr:  "127.0.0.1:0",
		DataDir:   t.TempDir(),
		Bootstrap: true,
	}, eng)
	require.NoError(t, err)
	defer n.Shutdown()

	waitForLeader(t, n)
	require.NotEmpty(t, n.LeaderAddress())
}

func TestProposeAppliesWriteThroughToEngine(t *testing.T) {
	eng := engine.NewStore()
	n, err := New(Config{
		NodeID:    "node-1",
		BindAddr:  "127.0.0.1:0",
		DataDir:   t.TempDir(),
		Bootstrap: true,
	}, eng)
	require.NoError(t, err)
	defer n.Shutdown()

	waitForLeader(t, n)

	now := time.Now()
	_, err = n.Propose([]string{"SET", "k", "v"}, now)
	require.NoError(t, err)

	v, ok := eng.Get("k", now)
	require.True(t, ok)
	require.Equal(t, "v", v.Str)
}

func TestProposeBeforeBootstrapReturnsErrNotLeader(t *testing.T) {
	eng := engine.NewStore()
	n, err := New(Config{
		NodeID:    "node-1",
		BindAddr:  "127.0.0.1:0",
		DataDir:   t.TempDir(),
		Bootstrap: false,
	}, eng)
	require.NoError(t, err)
	defer n.Shutdown()

	_, err = n.Propose([]string{"SET", "k", "v"}, time.Now())
	require.ErrorIs(t, err, ErrNotLeader)
}

func TestDiskSizeFuncIsWiredIntoEngineInfo(t *testing.T) {
	eng := engine.NewStore()
	n, err := New(Config{
		NodeID:    "node-1",
		BindAddr:  "127.0.0.1:0",
		DataDir:   t.TempDir(),
		Bootstrap: true,
	}, eng)
	require.NoError(t, err)
	defer n.Shutdown()

	_, sizeOnDisk := eng.Info()
	require.Greater(t, sizeOnDisk, int64(0))
}
