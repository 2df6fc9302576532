// Package store is the bbolt-backed persistence layer behind a Raft
// node: one embedded file holding the replicated log, Raft's own
// stable-store bookkeeping, and the engine's durable snapshot — the
// three buckets a sled tree split into in the original engine.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/raft"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketLog = []byte("log")
	bucketSys = []byte("sys")
	bucketDB  = []byte("db")

	snapshotKey = []byte("snapshot")
)

// BoltStore implements raft.LogStore, raft.StableStore, and
// raft.SnapshotStore over a single bbolt file: the "log", "sys", and
// "db" buckets respectively.
type BoltStore struct {
	db *bolt.DB
}

var (
	_ raft.LogStore      = (*BoltStore)(nil)
	_ raft.StableStore   = (*BoltStore)(nil)
	_ raft.SnapshotStore = (*BoltStore)(nil)
)

// Open opens (creating if absent) the bbolt file at path and ensures
// all three buckets exist.
func Open(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketLog, bucketSys, bucketDB} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

// Size reports the bbolt file's current size in bytes, wired into
// engine.Store.SetDiskSizeFunc for INFO/DBSIZE.
func (s *BoltStore) Size() int64 {
	info, err := os.Stat(s.db.Path())
	if err != nil {
		return 0
	}
	return info.Size()
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func bytesToUint64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

// --- raft.LogStore ---

func (s *BoltStore) FirstIndex() (uint64, error) {
	var idx uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		k, _ := tx.Bucket(bucketLog).Cursor().First()
		if k != nil {
			idx = bytesToUint64(k)
		}
		return nil
	})
	return idx, err
}

func (s *BoltStore) LastIndex() (uint64, error) {
	var idx uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		k, _ := tx.Bucket(bucketLog).Cursor().Last()
		if k != nil {
			idx = bytesToUint64(k)
		}
		return nil
	})
	return idx, err
}

func (s *BoltStore) GetLog(index uint64, log *raft.Log) error {
	return s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketLog).Get(uint64ToBytes(index))
		if v == nil {
			return raft.ErrLogNotFound
		}
		return json.Unmarshal(v, log)
	})
}

func (s *BoltStore) StoreLog(log *raft.Log) error {
	return s.StoreLogs([]*raft.Log{log})
}

func (s *BoltStore) StoreLogs(logs []*raft.Log) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLog)
		for _, l := range logs {
			data, err := json.Marshal(l)
			if err != nil {
				return err
			}
			if err := b.Put(uint64ToBytes(l.Index), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteRange removes every log entry in [min, max], used by Raft's log
// compaction (spec.md §4.5 do_log_compaction) and by truncating a
// conflicting tail on AppendEntries.
func (s *BoltStore) DeleteRange(min, max uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLog)
		c := b.Cursor()
		for k, _ := c.Seek(uint64ToBytes(min)); k != nil && bytesToUint64(k) <= max; k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// --- raft.StableStore ---

func (s *BoltStore) Set(key []byte, val []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSys).Put(key, val)
	})
}

func (s *BoltStore) Get(key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketSys).Get(key); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

func (s *BoltStore) SetUint64(key []byte, val uint64) error {
	return s.Set(key, uint64ToBytes(val))
}

func (s *BoltStore) GetUint64(key []byte) (uint64, error) {
	v, err := s.Get(key)
	if err != nil || v == nil {
		return 0, err
	}
	return bytesToUint64(v), nil
}

// --- db bucket: doubles as raft.SnapshotStore, keeping all three of
// the replicated log's buckets in the one bbolt file instead of
// reaching for raft's file-based snapshot store. Only the single most
// recent snapshot is retained — a snapshot here exists purely to bound
// log-replay time after a restart, not to replace the log as the
// durable source of truth, so there is nothing to gain from keeping a
// history of older ones. ---

type storedSnapshot struct {
	Meta raft.SnapshotMeta `json:"meta"`
	Data []byte            `json:"data"`
}

func (s *BoltStore) saveSnapshot(meta raft.SnapshotMeta, data []byte) error {
	payload, err := json.Marshal(storedSnapshot{Meta: meta, Data: data})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDB).Put(snapshotKey, payload)
	})
}

func (s *BoltStore) loadSnapshot() (*raft.SnapshotMeta, []byte, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketDB).Get(snapshotKey); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || raw == nil {
		return nil, nil, err
	}
	var stored storedSnapshot
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, nil, err
	}
	return &stored.Meta, stored.Data, nil
}

// Create implements raft.SnapshotStore.
func (s *BoltStore) Create(version raft.SnapshotVersion, index, term uint64, configuration raft.Configuration, configurationIndex uint64, _ raft.Transport) (raft.SnapshotSink, error) {
	meta := raft.SnapshotMeta{
		ID:                 fmt.Sprintf("%d-%d", term, index),
		Index:              index,
		Term:               term,
		Configuration:      configuration,
		ConfigurationIndex: configurationIndex,
		Version:            version,
	}
	return &boltSnapshotSink{store: s, meta: meta}, nil
}

// List implements raft.SnapshotStore: at most one entry, the latest.
func (s *BoltStore) List() ([]*raft.SnapshotMeta, error) {
	meta, _, err := s.loadSnapshot()
	if err != nil || meta == nil {
		return nil, err
	}
	return []*raft.SnapshotMeta{meta}, nil
}

// Open implements raft.SnapshotStore.
func (s *BoltStore) Open(id string) (*raft.SnapshotMeta, io.ReadCloser, error) {
	meta, data, err := s.loadSnapshot()
	if err != nil {
		return nil, nil, err
	}
	if meta == nil || meta.ID != id {
		return nil, nil, fmt.Errorf("store: snapshot %q not found", id)
	}
	return meta, io.NopCloser(bytes.NewReader(data)), nil
}

// boltSnapshotSink buffers one Persist call's writes in memory, then
// commits them as a single bbolt transaction on Close — snapshots here
// are the whole key space, not a streamed multi-gigabyte dataset, so
// buffering is the simpler choice over a streaming bbolt writer.
type boltSnapshotSink struct {
	store  *BoltStore
	meta   raft.SnapshotMeta
	buf    bytes.Buffer
	closed bool
}

func (s *boltSnapshotSink) Write(p []byte) (int, error) { return s.buf.Write(p) }

func (s *boltSnapshotSink) ID() string { return s.meta.ID }

func (s *boltSnapshotSink) Cancel() error {
	s.closed = true
	return nil
}

func (s *boltSnapshotSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.store.saveSnapshot(s.meta, s.buf.Bytes())
}
