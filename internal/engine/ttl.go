package engine

import (
	"sync"
	"time"
)

// TTLTable is the side table mapping key to absolute expiry timestamp.
// Expiry is observed both by a periodic Sweep and by direct checks from
// GET-path commands; every access to the table takes its own mutex.
type TTLTable struct {
	mu      sync.Mutex
	expiry map[string]time.Time
}

func NewTTLTable() *TTLTable {
	return &TTLTable{expiry: make(map[string]time.Time)}
}

// SetAt records that key expires at t.
func (t *TTLTable) SetAt(key string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expiry[key] = at
}

// SetIn records that key expires after d from now.
func (t *TTLTable) SetIn(key string, now time.Time, d time.Duration) {
	t.SetAt(key, now.Add(d))
}

// Persist removes any expiry on key. Returns true if one was present.
func (t *TTLTable) Persist(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.expiry[key]
	delete(t.expiry, key)
	return ok
}

// Forget drops any bookkeeping for key, used when the key itself is
// deleted so the TTL table never outlives its key.
func (t *TTLTable) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.expiry, key)
}

// Remaining reports the whole seconds left before key expires and
// whether key carries a TTL at all. The TTL command composes this with
// the main store's existence check: key-not-found is a store-level
// concern, not this table's.
func (t *TTLTable) Remaining(key string, now time.Time) (seconds int64, hasTTL bool) {
	t.mu.Lock()
	at, ok := t.expiry[key]
	t.mu.Unlock()
	if !ok {
		return 0, false
	}
	remaining := at.Sub(now).Seconds()
	if remaining < 0 {
		remaining = 0
	}
	return int64(remaining), true
}

// IsExpired reports whether key has an expiry recorded that is at or
// before now.
func (t *TTLTable) IsExpired(key string, now time.Time) bool {
	t.mu.Lock()
	at, ok := t.expiry[key]
	t.mu.Unlock()
	return ok && !now.Before(at)
}

// Entries returns a point-in-time copy of every key's absolute expiry,
// used when serializing the store for a Raft snapshot.
func (t *TTLTable) Entries() map[string]time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]time.Time, len(t.expiry))
	for k, v := range t.expiry {
		out[k] = v
	}
	return out
}

// Sweep removes every expired entry as of now, invoking onExpire for
// each evicted key so the caller can remove it from the main store too.
func (t *TTLTable) Sweep(now time.Time, onExpire func(key string)) {
	t.mu.Lock()
	var expired []string
	for k, at := range t.expiry {
		if !now.Before(at) {
			expired = append(expired, k)
		}
	}
	for _, k := range expired {
		delete(t.expiry, k)
	}
	t.mu.Unlock()

	for _, k := range expired {
		onExpire(k)
	}
}
