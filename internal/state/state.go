// Package state holds the locally edited copy of every collection and
// mediates between it and the remote asset store.
//
// A State is safe for concurrent use. Collections are replaced, never
// mutated in place, so slices returned by Items and Snapshot stay valid and
// unchanged after later edits.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/blackwell-systems/shelfdesk/internal/assetstore"
	"github.com/blackwell-systems/shelfdesk/internal/collection"
	"github.com/blackwell-systems/shelfdesk/internal/github"
	"github.com/blackwell-systems/shelfdesk/internal/localstore"
	"github.com/rs/zerolog"
)

// Remote is the remote side of the collections.
type Remote interface {
	DownloadAsset(ctx context.Context, kind collection.Kind) ([]collection.Record, error)
	ReplaceAsset(ctx context.Context, kind collection.Kind, records []collection.Record) error
}

// Credentials identify the repository the collections live in.
type Credentials = assetstore.Credentials

// RemoteFactory builds the Remote for a set of credentials.
type RemoteFactory func(Credentials) (Remote, error)

// DefaultRemoteFactory talks to api.github.com directly.
func DefaultRemoteFactory(c Credentials) (Remote, error) {
	return assetstore.New(github.New(c.Token, ""), c.Owner, c.Repo), nil
}

// Options configure a State.
type Options struct {
	// Storage persists credentials. Nil disables persistence.
	Storage localstore.Store
	// NewRemote builds the remote client. Nil means DefaultRemoteFactory.
	NewRemote RemoteFactory
	// SwitchPolicy decides what happens to raw edits when the active kind
	// changes.
	SwitchPolicy SwitchPolicy
	// NotificationTTL defaults to DefaultNotificationTTL.
	NotificationTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	Logger zerolog.Logger
}

// State is the in-memory editing state for all collections.
type State struct {
	mu sync.Mutex

	collections [collection.NumKinds][]collection.Record
	inFlight    [collection.NumKinds]bool

	notifications []Notification

	creds  *Credentials
	remote Remote

	active    collection.Kind
	hasActive bool
	rawMode   bool
	raw       string
	// rawBase is the buffer as last generated from the collection; raw
	// differs from it only after user edits.
	rawBase string

	storage   localstore.Store
	newRemote RemoteFactory
	policy    SwitchPolicy
	ttl       time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// New returns an empty State. Credentials are not loaded; call
// InitFromStorage for that.
func New(opts Options) *State {
	s := &State{
		storage:   opts.Storage,
		newRemote: opts.NewRemote,
		policy:    opts.SwitchPolicy,
		ttl:       opts.NotificationTTL,
		now:       opts.Now,
		log:       opts.Logger,
	}
	if s.storage == nil {
		s.storage = localstore.Nop{}
	}
	if s.newRemote == nil {
		s.newRemote = DefaultRemoteFactory
	}
	if s.ttl <= 0 {
		s.ttl = DefaultNotificationTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	for k := range s.collections {
		s.collections[k] = []collection.Record{}
	}
	return s
}

// Snapshot is a consistent view of every field of a State.
type Snapshot struct {
	Collections   [collection.NumKinds][]collection.Record
	Loading       []collection.Kind
	Notifications []Notification
	Credentials   *Credentials
	Active        collection.Kind
	HasActive     bool
	RawMode       bool
	RawContent    string
}

// Snapshot returns the current state. The returned slices must not be
// modified.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())
	snap := Snapshot{
		Collections:   s.collections,
		Notifications: s.notifications,
		Active:        s.active,
		HasActive:     s.hasActive,
		RawMode:       s.rawMode,
		RawContent:    s.raw,
	}
	for k, busy := range s.inFlight {
		if busy {
			snap.Loading = append(snap.Loading, collection.Kind(k))
		}
	}
	if s.creds != nil {
		c := *s.creds
		snap.Credentials = &c
	}
	return snap
}

// Items returns the current records of kind. The slice must not be modified.
func (s *State) Items(kind collection.Kind) []collection.Record {
	if !kind.Valid() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collections[kind]
}

// Loading reports whether a download or upload of kind is in flight.
func (s *State) Loading(kind collection.Kind) bool {
	if !kind.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[kind]
}

// Download replaces the kind's collection with the remote asset. On failure
// the collection is left unchanged and an error notification is raised.
func (s *State) Download(ctx context.Context, kind collection.Kind) error {
	remote, err := s.begin(kind, "download")
	if err != nil {
		return err
	}

	records, err := remote.DownloadAsset(ctx, kind)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight[kind] = false
	if err != nil {
		s.notifyLocked(SeverityError, fmt.Sprintf("Failed to download %s: %v", kind, err))
		return err
	}
	if records == nil {
		records = []collection.Record{}
	}
	s.collections[kind] = records
	if s.hasActive && s.active == kind && (!s.rawMode || s.raw == s.rawBase) {
		s.resetRawLocked()
	}
	s.notifyLocked(SeverityInfo, fmt.Sprintf("Successfully downloaded %s", kind.AssetName()))
	return nil
}

// Upload replaces the remote asset with the kind's collection.
func (s *State) Upload(ctx context.Context, kind collection.Kind) error {
	remote, err := s.begin(kind, "upload")
	if err != nil {
		return err
	}
	s.mu.Lock()
	records := s.collections[kind]
	s.mu.Unlock()

	err = remote.ReplaceAsset(ctx, kind, records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight[kind] = false
	if err != nil {
		s.notifyLocked(SeverityError, fmt.Sprintf("Failed to upload %s: %v", kind, err))
		return err
	}
	s.notifyLocked(SeverityInfo, fmt.Sprintf("Successfully uploaded %s", kind.AssetName()))
	return nil
}

// begin marks kind as in flight and returns the remote to use.
func (s *State) begin(kind collection.Kind, op string) (Remote, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%s: unknown collection %v", op, kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remote == nil {
		s.notifyLocked(SeverityError, ErrNotConfigured.Error())
		return nil, ErrNotConfigured
	}
	if s.inFlight[kind] {
		s.notifyLocked(SeverityWarning, fmt.Sprintf("Cannot %s %s: %v", op, kind, ErrBusy))
		return nil, fmt.Errorf("%s %s: %w", op, kind, ErrBusy)
	}
	s.inFlight[kind] = true
	s.log.Debug().Str("op", op).Stringer("kind", kind).Msg("remote operation started")
	return s.remote, nil
}

// AddItem appends rec to the kind's collection.
func (s *State) AddItem(kind collection.Kind, rec collection.Record) error {
	if err := checkEdit(kind, rec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(kind, collection.Append(s.collections[kind], rec))
	return nil
}

// UpdateItem replaces the record at index i.
func (s *State) UpdateItem(kind collection.Kind, i int, rec collection.Record) error {
	if err := checkEdit(kind, rec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := collection.Replace(s.collections[kind], i, rec)
	if !ok {
		return fmt.Errorf("update %s[%d]: %w", kind, i, ErrIndexOutOfRange)
	}
	s.setLocked(kind, next)
	return nil
}

// RemoveItem deletes the record at index i.
func (s *State) RemoveItem(kind collection.Kind, i int) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown collection %v", kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := collection.Remove(s.collections[kind], i)
	if !ok {
		return fmt.Errorf("remove %s[%d]: %w", kind, i, ErrIndexOutOfRange)
	}
	s.setLocked(kind, next)
	return nil
}

func checkEdit(kind collection.Kind, rec collection.Record) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown collection %v", kind)
	}
	if !json.Valid(rec) {
		return ErrInvalidRecord
	}
	return nil
}

// setLocked installs a new collection and keeps the raw buffer in step when
// the kind is active and raw mode is off.
func (s *State) setLocked(kind collection.Kind, records []collection.Record) {
	s.collections[kind] = records
	if s.hasActive && s.active == kind && !s.rawMode {
		s.resetRawLocked()
	}
}
