package engine

import (
	"encoding/json"
	"sort"
	"time"
)

// snapshotEntry is one key's wire form inside a Dump payload: the
// Marshal-encoded Value plus its TTL, if any.
type snapshotEntry struct {
	Key    string     `json:"key"`
	Value  []byte     `json:"value"`
	Expiry *time.Time `json:"expiry,omitempty"`
}

// Dump serializes the entire store (every key, its value, and its TTL)
// for a Raft snapshot. The Raft log already guarantees every node
// reaches the same state by replaying the same writes, so a snapshot
// exists purely to bound log-replay time after a restart — not to
// replace the log as the source of truth.
func (s *Store) Dump() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ttls := s.ttl.Entries()
	entries := make([]snapshotEntry, 0, len(s.data))
	for k, v := range s.data {
		raw, err := v.Marshal()
		if err != nil {
			return nil, err
		}
		e := snapshotEntry{Key: k, Value: raw}
		if at, ok := ttls[k]; ok {
			t := at
			e.Expiry = &t
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return json.Marshal(entries)
}

// Load replaces the store's entire contents with a snapshot produced by
// Dump. Used once at FSM.Restore time; never called concurrently with
// Apply since Raft serializes restores against the apply loop.
func (s *Store) Load(data []byte) error {
	var entries []snapshotEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	next := make(map[string]Value, len(entries))
	ttl := NewTTLTable()
	for _, e := range entries {
		v, err := Unmarshal(e.Value)
		if err != nil {
			return err
		}
		next[e.Key] = v
		if e.Expiry != nil {
			ttl.SetAt(e.Key, *e.Expiry)
		}
	}

	s.mu.Lock()
	s.data = next
	s.ttl = ttl
	s.mu.Unlock()
	return nil
}
