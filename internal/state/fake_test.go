package state_test

import (
	"context"
	"sync"
	"time"

	"github.com/blackwell-systems/shelfdesk/internal/collection"
	"github.com/blackwell-systems/shelfdesk/internal/localstore"
	"github.com/blackwell-systems/shelfdesk/internal/state"
)

// fakeRemote keeps assets in memory. Setting gate makes every call wait
// until the gate is closed.
type fakeRemote struct {
	mu       sync.Mutex
	assets   map[collection.Kind][]collection.Record
	err      error
	gate     chan struct{}
	started  chan collection.Kind
	uploads  int
	lastCred state.Credentials
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{assets: make(map[collection.Kind][]collection.Record)}
}

func (f *fakeRemote) wait(kind collection.Kind) {
	if f.started != nil {
		f.started <- kind
	}
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeRemote) DownloadAsset(_ context.Context, kind collection.Kind) ([]collection.Record, error) {
	f.wait(kind)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.assets[kind], nil
}

func (f *fakeRemote) ReplaceAsset(_ context.Context, kind collection.Kind, records []collection.Record) error {
	f.wait(kind)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.err != nil {
		return f.err
	}
	f.assets[kind] = records
	return nil
}

func (f *fakeRemote) factory() state.RemoteFactory {
	return func(c state.Credentials) (state.Remote, error) {
		f.mu.Lock()
		f.lastCred = c
		f.mu.Unlock()
		return f, nil
	}
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testCreds = state.Credentials{Owner: "octo", Repo: "shelf", Token: "tok"}

func rec(s string) collection.Record { return collection.Record(s) }

// memStore is an in-memory localstore.Store.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, localstore.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
var _ localstore.Store = (*memStore)(nil)
