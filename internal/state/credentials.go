package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blackwell-systems/shelfdesk/internal/localstore"
)

// CredentialsKey is the storage key of the saved credentials blob.
const CredentialsKey = "github-config"

// Credentials returns a copy of the current credentials, or nil.
func (s *State) Credentials() *Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil
	}
	c := *s.creds
	return &c
}

// Configured reports whether remote operations can run.
func (s *State) Configured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote != nil
}

// SetCredentials replaces the remote client and the saved credentials. Nil
// clears both. Operations already in flight finish against the old client.
//
// A failure to persist is reported as a warning notification; the in-memory
// credentials are still installed.
func (s *State) SetCredentials(ctx context.Context, c *Credentials) error {
	if c == nil {
		s.mu.Lock()
		s.creds, s.remote = nil, nil
		s.mu.Unlock()
		if err := s.storage.Delete(ctx, CredentialsKey); err != nil {
			s.Notify(SeverityWarning, fmt.Sprintf("Could not remove saved credentials: %v", err))
		}
		return nil
	}

	if err := s.install(*c); err != nil {
		return err
	}
	blob, err := json.Marshal(c)
	if err == nil {
		err = s.storage.Put(ctx, CredentialsKey, blob)
	}
	if err != nil {
		s.Notify(SeverityWarning, fmt.Sprintf("Could not save credentials: %v", err))
	}
	return nil
}

// UseCredentials installs c for this session only; nothing is persisted.
func (s *State) UseCredentials(c Credentials) error {
	return s.install(c)
}

// InitFromStorage loads saved credentials, if any. A missing, unreadable or
// incomplete blob leaves the state unconfigured and is not an error.
func (s *State) InitFromStorage(ctx context.Context) bool {
	blob, err := s.storage.Get(ctx, CredentialsKey)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			s.log.Warn().Err(err).Msg("reading saved credentials")
		}
		return false
	}
	var c Credentials
	if err := json.Unmarshal(blob, &c); err != nil || !c.Complete() {
		s.log.Warn().Err(err).Msg("ignoring corrupt saved credentials")
		return false
	}
	if err := s.install(c); err != nil {
		s.log.Warn().Err(err).Msg("restoring saved credentials")
		return false
	}
	return true
}

func (s *State) install(c Credentials) error {
	if !c.Complete() {
		return fmt.Errorf("incomplete credentials")
	}
	remote, err := s.newRemote(c)
	if err != nil {
		return fmt.Errorf("building GitHub client: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds, s.remote = &c, remote
	s.log.Debug().Str("repo", c.Owner+"/"+c.Repo).Msg("credentials installed")
	return nil
}
