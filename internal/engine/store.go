package engine

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mambisi/escanor/internal/util"
)

// Store is the in-memory multi-model table: a concurrent map of Value
// plus the TTL side table, threaded as an explicit dependency rather
// than reached via a package-level singleton. Every mutating method
// here is meant to be called from inside the Raft apply step, which is
// already single-threaded by Raft's own invariant; the mutex exists so
// that read-path commands (GET, KEYS, DBSIZE) can run concurrently with
// apply without racing.
type Store struct {
	mu           sync.RWMutex
	data         map[string]Value
	ttl          *TTLTable
	diskSizeFunc func() int64
}

func NewStore() *Store {
	return &Store{
		data: make(map[string]Value),
		ttl:  NewTTLTable(),
	}
}

// SetDiskSizeFunc wires in the persistent layer's on-disk size
// reporter, used by INFO and DBSIZE. The in-memory store has no notion
// of disk usage on its own — that belongs to internal/cluster's bbolt
// adapter.
func (s *Store) SetDiskSizeFunc(f func() int64) {
	s.diskSizeFunc = f
}

// evictIfExpired removes key if its TTL has passed as of now. It takes
// the write lock internally, so the caller must not hold s.mu.
func (s *Store) evictIfExpired(key string, now time.Time) {
	if !s.ttl.IsExpired(key, now) {
		return
	}
	s.mu.Lock()
	delete(s.data, key)
	s.ttl.Forget(key)
	s.mu.Unlock()
}

// Get returns the value stored at key, or (Null, false) if absent or
// expired.
func (s *Store) Get(key string, now time.Time) (Value, bool) {
	s.evictIfExpired(key, now)
	s.mu.RLock()
	v, ok := s.data[key]
	s.mu.RUnlock()
	return v, ok
}

// Set stores v at key outright, replacing any prior value and clearing
// any TTL unless ttlAt is non-nil.
func (s *Store) Set(key string, v Value, ttlAt *time.Time) {
	s.mu.Lock()
	s.data[key] = v
	s.mu.Unlock()
	if ttlAt != nil {
		s.ttl.SetAt(key, *ttlAt)
	} else {
		s.ttl.Forget(key)
	}
}

// GetSet stores v at key and returns the previous value, if any.
func (s *Store) GetSet(key string, v Value) (Value, bool) {
	s.mu.Lock()
	old, existed := s.data[key]
	s.data[key] = v
	s.mu.Unlock()
	s.ttl.Forget(key)
	return old, existed
}

// MergeSet applies the ⊕ operator: the key's new value becomes
// Merge(old, next). Used by JMERGE.
func (s *Store) MergeSet(key string, next Value, now time.Time) Value {
	s.evictIfExpired(key, now)
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.data[key]
	merged := Merge(old, next)
	s.data[key] = merged
	return merged
}

// Del removes key. Returns true if it existed.
func (s *Store) Del(key string) bool {
	s.mu.Lock()
	_, existed := s.data[key]
	delete(s.data, key)
	s.mu.Unlock()
	s.ttl.Forget(key)
	return existed
}

// Exists reports whether key is present and unexpired.
func (s *Store) Exists(key string, now time.Time) bool {
	_, ok := s.Get(key, now)
	return ok
}

// Len reports the number of stored keys. Expired keys are not swept
// here, so a key whose TTL has passed but that has not been evicted yet
// is still counted.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Sweep evicts every key whose TTL has passed as of now.
func (s *Store) Sweep(now time.Time) {
	s.ttl.Sweep(now, func(key string) {
		s.mu.Lock()
		delete(s.data, key)
		s.mu.Unlock()
	})
}

// TTLSeconds reports the TTL command's reply components: whether key
// exists at all, and its remaining seconds (-1 meaning no TTL set).
func (s *Store) TTLSeconds(key string, now time.Time) (exists bool, seconds int64) {
	if _, ok := s.Get(key, now); !ok {
		return false, 0
	}
	secs, hasTTL := s.ttl.Remaining(key, now)
	if !hasTTL {
		return true, -1
	}
	return true, secs
}

// Expire sets key's TTL to d from now. Returns false if key does not
// exist.
func (s *Store) Expire(key string, now time.Time, d time.Duration) bool {
	if !s.Exists(key, now) {
		return false
	}
	s.ttl.SetIn(key, now, d)
	return true
}

// ExpireAt sets key's TTL to the absolute Unix second at. Returns false
// if key does not exist.
func (s *Store) ExpireAt(key string, now time.Time, at time.Time) bool {
	if !s.Exists(key, now) {
		return false
	}
	s.ttl.SetAt(key, at)
	return true
}

// Persist clears key's TTL. Returns true if a TTL was present.
func (s *Store) Persist(key string) bool {
	return s.ttl.Persist(key)
}

// IncrBy atomically adds delta to the Int or Float value at key,
// treating an absent key as Int(0). Returns the updated value, or an
// error if key holds a String, JSON, or Geo value — those variants
// cannot be incremented.
func (s *Store) IncrBy(key string, delta int64, now time.Time) (Value, error) {
	s.evictIfExpired(key, now)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.data[key]
	if !ok {
		cur = IntValue(0)
	}
	var next Value
	switch cur.Kind {
	case KindInt:
		next = IntValue(cur.Int + delta)
	case KindFloat:
		next = FloatValue(cur.Float + float64(delta))
	default:
		return Value{}, ErrNotIncrementable
	}
	s.data[key] = next
	return next, nil
}

// Keys returns every live key matching pattern, sorted for a
// deterministic reply order.
func (s *Store) Keys(pattern string, now time.Time) ([]string, error) {
	prefix := util.LiteralPrefix(pattern)

	s.mu.RLock()
	candidates := make([]string, 0, len(s.data))
	for k := range s.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			candidates = append(candidates, k)
		}
	}
	s.mu.RUnlock()

	out := make([]string, 0, len(candidates))
	for _, k := range candidates {
		if s.ttl.IsExpired(k, now) {
			continue
		}
		ok, err := util.MatchGlob(pattern, k)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// RandomKey returns a 25-character alphanumeric id. It does not draw
// from existing keys — RANDOMKEY in this engine is a key-name
// generator, matching the original's `nanoid!` call rather than a
// random-existing-key lookup.
func (s *Store) RandomKey() string {
	return util.RandomKey()
}

// Info returns the INFO/DBSIZE payload components: key count and
// on-disk size. Size accounting is delegated to whatever func
// SetDiskSizeFunc installed; it reports 0 if none was wired in.
func (s *Store) Info() (keys int64, sizeOnDisk int64) {
	if s.diskSizeFunc != nil {
		sizeOnDisk = s.diskSizeFunc()
	}
	return int64(s.Len()), sizeOnDisk
}

// formatFloat renders a float64 the way the RESP bulk-string reply for
// a Float value is printed: shortest round-tripping decimal form.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
