package registry

import (
	"context"
	"sync"
	"time"
)

// InMemory is a registry.Client backed by process memory. It exists for
// tests and for the standalone/dev mode of the API process; it implements
// the set/hash/list reads and type-agnostic Del/Exists a Redis-backed
// registry has, so handler tests can exercise the contract without a live
// Redis instance. TTLs apply to string keys only (Expire on any other key
// is a no-op), and the LPush helper prepends its values as one block in
// argument order rather than one at a time as Redis LPUSH does.
type InMemory struct {
	mu      sync.Mutex
	strings map[string]string
	expiry  map[string]time.Time
	sets    map[string]map[string]struct{}
	hashes  map[string]map[string]string
	lists   map[string][]string
	down    bool
	nowFunc func() time.Time
}

// NewInMemory constructs an empty InMemory registry.
func NewInMemory() *InMemory {
	return &InMemory{
		strings: map[string]string{},
		expiry:  map[string]time.Time{},
		sets:    map[string]map[string]struct{}{},
		hashes:  map[string]map[string]string{},
		lists:   map[string][]string{},
		nowFunc: time.Now,
	}
}

// SetDown flips the Connected predicate, letting tests exercise spec §4.1
// step 4's connectivity gate.
func (m *InMemory) SetDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = down
}

func (m *InMemory) expired(key string) bool {
	deadline, ok := m.expiry[key]
	return ok && !m.nowFunc().Before(deadline)
}

func (m *InMemory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expired(key) {
		delete(m.strings, key)
		delete(m.expiry, key)
		return "", ErrNotFound
	}
	v, ok := m.strings[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *InMemory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strings[key] = value
	delete(m.expiry, key)
	return nil
}

// Del removes key regardless of which data type it holds, matching Redis's
// DEL — a single key name is never simultaneously a string, set, hash and
// list, but callers (e.g. the client-purge state machine) delete by key
// name without tracking which type each one is.
func (m *InMemory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.strings, key)
	delete(m.expiry, key)
	delete(m.sets, key)
	delete(m.hashes, key)
	delete(m.lists, key)
	return nil
}

// Exists reports whether key holds a value of any type — string, set,
// hash or list — matching Redis's type-agnostic EXISTS.
func (m *InMemory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expired(key) {
		delete(m.strings, key)
		delete(m.expiry, key)
		return false, nil
	}
	if _, ok := m.strings[key]; ok {
		return true, nil
	}
	if set, ok := m.sets[key]; ok && len(set) > 0 {
		return true, nil
	}
	if h, ok := m.hashes[key]; ok && len(h) > 0 {
		return true, nil
	}
	if list, ok := m.lists[key]; ok && len(list) > 0 {
		return true, nil
	}
	return false, nil
}

func (m *InMemory) Expire(_ context.Context, key string, seconds int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.strings[key]; !ok {
		return nil
	}
	m.expiry[key] = m.nowFunc().Add(time.Duration(seconds) * time.Second)
	return nil
}

func (m *InMemory) TTL(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deadline, ok := m.expiry[key]
	if !ok {
		return 0, nil
	}
	remaining := deadline.Sub(m.nowFunc())
	if remaining < 0 {
		return 0, nil
	}
	return int64(remaining.Seconds()), nil
}

func (m *InMemory) SAdd(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = map[string]struct{}{}
		m.sets[key] = set
	}
	set[member] = struct{}{}
	return nil
}

func (m *InMemory) SRem(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.sets[key]; ok {
		delete(set, member)
	}
	return nil
}

func (m *InMemory) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.sets[key]
	out := make([]string, 0, len(set))
	for member := range set {
		out = append(out, member)
	}
	return out, nil
}

func (m *InMemory) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hashes[key]
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out, nil
}

// HSet is a test helper, not part of registry.Client: production event
// writes happen upstream of this API (spec §1), so the interface has no
// hash-write method, but tests need to seed events:<client> hashes.
func (m *InMemory) HSet(key, field, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	h[field] = value
}

// HDel is a test helper mirroring HSet.
func (m *InMemory) HDel(key, field string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.hashes[key]; ok {
		delete(h, field)
	}
}

// LPush is a test helper for seeding history:<client>:<check> lists.
func (m *InMemory) LPush(key string, values ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[key] = append(values, m.lists[key]...)
}

func (m *InMemory) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	n := int64(len(list))
	if n == 0 {
		return nil, nil
	}
	norm := func(i int64) int64 {
		if i < 0 {
			i += n
		}
		if i < 0 {
			i = 0
		}
		if i > n {
			i = n
		}
		return i
	}
	s, e := norm(start), norm(stop)+1
	if s >= n || s >= e {
		return nil, nil
	}
	if e > n {
		e = n
	}
	out := make([]string, e-s)
	copy(out, list[s:e])
	return out, nil
}

func (m *InMemory) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.down
}

func (m *InMemory) Close() error { return nil }
