// Package cluster wires the engine's command layer to a Raft-replicated
// log: an FSM running internal/command.Parse against an
// internal/engine.Store, a single bbolt file backing the log, stable,
// and snapshot stores (internal/cluster/store), and a hand-rolled gRPC
// peer transport (internal/cluster/rpc).
package cluster

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	"go.uber.org/zap"

	"github.com/mambisi/escanor/internal/cluster/rpc"
	boltstore "github.com/mambisi/escanor/internal/cluster/store"
	"github.com/mambisi/escanor/internal/engine"
)

// ErrNotLeader is returned by Propose/Join/Leave when this node is not
// the current Raft leader — the caller (internal/server) translates it
// into a MOVED-style redirect reply rather than a generic error.
var ErrNotLeader = errors.New("cluster: not the leader")

// Peer is one statically configured cluster member, used only to seed
// the very first bootstrap — later membership changes go through
// Join/Leave.
type Peer struct {
	ID      string
	Address string
}

// Config configures a single Node.
type Config struct {
	NodeID            string
	BindAddr          string // Raft peer RPC listen address
	DataDir           string // holds raft.bolt
	Peers             []Peer // only consulted when Bootstrap is true
	Bootstrap         bool
	SnapshotThreshold uint64
	Logger            *zap.Logger
}

// Node owns one Raft instance and the store/transport it depends on.
type Node struct {
	raft      *raft.Raft
	bolt      *boltstore.BoltStore
	transport *rpc.Transport
	logger    *zap.Logger
	localID   raft.ServerID
}

// New opens (or creates) the node's bbolt file, starts its gRPC peer
// transport, and constructs the Raft instance. eng is the engine.Store
// the FSM will apply committed writes against; New also wires
// eng.SetDiskSizeFunc to the bbolt file's size.
func New(cfg Config, eng *engine.Store) (*Node, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("cluster: create data dir: %w", err)
	}

	boltPath := filepath.Join(cfg.DataDir, "raft.bolt")
	bstore, err := boltstore.Open(boltPath)
	if err != nil {
		return nil, fmt.Errorf("cluster: open bbolt store: %w", err)
	}
	eng.SetDiskSizeFunc(bstore.Size)

	transport, err := rpc.New(cfg.BindAddr)
	if err != nil {
		bstore.Close()
		return nil, fmt.Errorf("cluster: start peer transport: %w", err)
	}

	raftConfig := raft.DefaultConfig()
	raftConfig.LocalID = raft.ServerID(cfg.NodeID)
	if cfg.SnapshotThreshold > 0 {
		raftConfig.SnapshotThreshold = cfg.SnapshotThreshold
	}

	fsm := NewFSM(eng)
	r, err := raft.NewRaft(raftConfig, fsm, bstore, bstore, bstore, transport)
	if err != nil {
		transport.Close()
		bstore.Close()
		return nil, fmt.Errorf("cluster: start raft: %w", err)
	}

	n := &Node{
		raft:      r,
		bolt:      bstore,
		transport: transport,
		logger:    logger,
		localID:   raftConfig.LocalID,
	}

	if cfg.Bootstrap {
		if err := n.bootstrap(cfg); err != nil {
			return nil, err
		}
	}

	return n, nil
}

// bootstrap seeds the initial cluster membership on first boot. Raft
// itself is idempotent here: BootstrapCluster on a node that already
// has log entries returns ErrCantBootstrap, which is not an error for
// our purposes (it means this node previously bootstrapped or joined).
func (n *Node) bootstrap(cfg Config) error {
	servers := make([]raft.Server, 0, len(cfg.Peers)+1)
	seen := map[raft.ServerID]bool{raft.ServerID(cfg.NodeID): true}
	servers = append(servers, raft.Server{ID: raft.ServerID(cfg.NodeID), Address: raft.ServerAddress(n.transport.LocalAddr())})
	for _, p := range cfg.Peers {
		if seen[raft.ServerID(p.ID)] {
			continue
		}
		seen[raft.ServerID(p.ID)] = true
		servers = append(servers, raft.Server{ID: raft.ServerID(p.ID), Address: raft.ServerAddress(p.Address)})
	}

	future := n.raft.BootstrapCluster(raft.Configuration{Servers: servers})
	if err := future.Error(); err != nil && !errors.Is(err, raft.ErrCantBootstrap) {
		return fmt.Errorf("cluster: bootstrap: %w", err)
	}
	return nil
}

// IsLeader reports whether this node currently holds Raft leadership.
func (n *Node) IsLeader() bool { return n.raft.State() == raft.Leader }

// LeaderAddress returns the current leader's peer RPC address, or "" if
// none is known yet.
func (n *Node) LeaderAddress() string {
	addr, _ := n.raft.LeaderWithID()
	return string(addr)
}

// Propose submits tokens (one write command's arguments) to the Raft
// log. It blocks until the entry is committed and applied, then returns
// the Apply result (typically a resp.Frame). Returns ErrNotLeader if
// this node cannot accept writes.
func (n *Node) Propose(tokens []string, now time.Time) (interface{}, error) {
	if !n.IsLeader() {
		return nil, ErrNotLeader
	}
	entry := logEntry{Tokens: tokens, NowUTC: now.UnixNano()}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	future := n.raft.Apply(data, 10*time.Second)
	if err := future.Error(); err != nil {
		return nil, err
	}
	return future.Response(), nil
}

// Join adds a voting member to the cluster. Only the leader can do
// this. It is not a RESP command, and the peer gRPC transport carries
// no join RPC: it is reachable only by calling it on the Node.
func (n *Node) Join(id, addr string) error {
	if !n.IsLeader() {
		return ErrNotLeader
	}
	future := n.raft.AddVoter(raft.ServerID(id), raft.ServerAddress(addr), 0, 0)
	return future.Error()
}

// Leave removes a member from the cluster.
func (n *Node) Leave(id string) error {
	if !n.IsLeader() {
		return ErrNotLeader
	}
	future := n.raft.RemoveServer(raft.ServerID(id), 0, 0)
	return future.Error()
}

// Snapshot forces a Raft snapshot: FSM.Snapshot dumps the engine,
// BoltStore.Create/Persist writes it into the bbolt file's db bucket,
// and Raft compacts the log up to the snapshotted index. Nothing in this
// module calls it; Raft also snapshots on its own schedule, governed by
// Config.SnapshotThreshold.
func (n *Node) Snapshot() error {
	return n.raft.Snapshot().Error()
}

// Shutdown stops Raft, the peer transport, and closes the bbolt file.
func (n *Node) Shutdown() error {
	if err := n.raft.Shutdown().Error(); err != nil {
		n.logger.Warn("raft shutdown returned an error", zap.Error(err))
	}
	if err := n.transport.Close(); err != nil {
		n.logger.Warn("transport close returned an error", zap.Error(err))
	}
	return n.bolt.Close()
}
