package cluster

import (
	"encoding/json"
	"io"
	"time"

	"github.com/hashicorp/raft"

	"github.com/mambisi/escanor/internal/command"
	"github.com/mambisi/escanor/internal/engine"
)

// logEntry is the payload proposed through raft.Raft.Apply: the raw
// token stream for one write command plus the wall-clock time the
// leader observed when it proposed the write. Every node parses and
// applies the same tokens deterministically — the log is the source of
// truth, not a pre-computed result (spec.md §4.5).
type logEntry struct {
	Tokens []string `json:"tokens"`
	NowUTC int64    `json:"now_utc"` // Unix nanoseconds
}

// FSM adapts an engine.Store to raft.FSM: every committed entry is
// re-parsed and applied exactly as if it had arrived over the wire
// (see internal/command.Parse), so followers and the leader converge on
// identical state without shipping results over the log.
type FSM struct {
	eng *engine.Store
}

func NewFSM(eng *engine.Store) *FSM {
	return &FSM{eng: eng}
}

// Apply runs one committed entry against the local engine. Non-write
// commands never reach here — internal/server only proposes IsWrite()
// commands through Raft and answers reads directly from the local
// engine.Store.
func (f *FSM) Apply(l *raft.Log) interface{} {
	var entry logEntry
	if err := json.Unmarshal(l.Data, &entry); err != nil {
		return err
	}
	cmd, err := command.Parse(entry.Tokens)
	if err != nil {
		return err
	}
	now := time.Unix(0, entry.NowUTC).UTC()
	sess := command.NewSession("raft-apply", false, "")
	return cmd.Apply(f.eng, sess, now)
}

// Snapshot captures the current engine state. Persist runs
// concurrently with further Apply calls, so it must not reach back into
// the live store — Dump already took its own consistent read lock and
// returned an owned byte slice.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	data, err := f.eng.Dump()
	if err != nil {
		return nil, err
	}
	return &fsmSnapshot{data: data}, nil
}

// Restore replaces the engine's entire state with a previously captured
// snapshot, used when a node is too far behind the leader's log to catch
// up by replay alone.
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return f.eng.Load(data)
}

type fsmSnapshot struct {
	data []byte
}

func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	if _, err := sink.Write(s.data); err != nil {
		sink.Cancel()
		return err
	}
	return sink.Close()
}

func (s *fsmSnapshot) Release() {}
