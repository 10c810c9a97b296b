// Package assetstore reads and writes collection assets on the latest
// release of a single GitHub repository.
package assetstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/blackwell-systems/shelfdesk/internal/collection"
	"github.com/blackwell-systems/shelfdesk/internal/github"
	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	contentType = "application/json"

	// maxAssetSize caps a downloaded collection body.
	maxAssetSize = 32 << 20
)

// Credentials identify one repository and the token used to access it.
type Credentials struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Token string `json:"token"`
}

// Complete reports whether every field is set.
func (c Credentials) Complete() bool {
	return c.Owner != "" && c.Repo != "" && c.Token != ""
}

// ReplaceOptions control the failure window between delete and upload in
// ReplaceAsset.
type ReplaceOptions struct {
	// Compensate retries the upload when the old asset was already deleted.
	// When false a failed upload leaves the asset absent.
	Compensate bool
	// MaxRetries bounds the compensating uploads. Zero means 3.
	MaxRetries uint64
	// InitialInterval is the first backoff delay. Zero means 500ms.
	InitialInterval time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithReplaceOptions sets the replace policy.
func WithReplaceOptions(o ReplaceOptions) Option {
	return func(s *Store) { s.replace = o }
}

// WithLogger sets the logger used for replace phases.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store is the remote side of one repository's collections.
type Store struct {
	gh      *github.Client
	owner   string
	repo    string
	replace ReplaceOptions
	log     zerolog.Logger
}

// New returns a Store for owner/repo using gh.
func New(gh *github.Client, owner, repo string, opts ...Option) *Store {
	s := &Store{
		gh:    gh,
		owner: owner,
		repo:  repo,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repo returns "owner/repo".
func (s *Store) Repo() string { return s.owner + "/" + s.repo }

// FetchLatestRelease returns the most recent release with its asset list.
func (s *Store) FetchLatestRelease(ctx context.Context) (rel *github.Release, err error) {
	defer func() { observe(opFetch, err) }()

	rel, err = s.gh.GetLatestRelease(ctx, s.owner, s.repo)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteFetch, err)
	}
	return rel, nil
}

// DownloadAsset fetches <kind>.json from the latest release and decodes it.
// A null or empty body yields an empty collection.
func (s *Store) DownloadAsset(ctx context.Context, kind collection.Kind) (records []collection.Record, err error) {
	name := kind.AssetName()
	defer func() {
		observe(opDownload, err)
		if err != nil {
			err = fmt.Errorf("download %s: %w", name, err)
		}
	}()

	rel, err := s.FetchLatestRelease(ctx)
	if err != nil {
		return nil, err
	}
	asset := rel.Asset(name)
	if asset == nil {
		return nil, ErrAssetNotFound
	}

	rc, err := s.gh.DownloadAsset(ctx, s.owner, s.repo, *asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxAssetSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrDownload, err)
	}
	records, err = collection.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownload, err)
	}
	return records, nil
}

// DeleteAsset removes the asset with the given id.
func (s *Store) DeleteAsset(ctx context.Context, assetID int64) (err error) {
	defer func() { observe(opDelete, err) }()

	if err = s.gh.DeleteAsset(ctx, s.owner, s.repo, assetID); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}
	return nil
}

// UploadAsset attaches content to the release as a new asset named filename.
// The name must not already exist on the release.
func (s *Store) UploadAsset(ctx context.Context, releaseID int64, filename string, content []byte) (err error) {
	defer func() { observe(opUpload, err) }()

	_, err = s.gh.UploadAsset(ctx, s.owner, s.repo, releaseID, filename,
		bytes.NewReader(content), int64(len(content)), contentType)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpload, err)
	}
	return nil
}

// ReplaceAsset overwrites <kind>.json on the latest release with records.
//
// The release API has no update, so this deletes any existing asset of that
// name and then uploads. The two steps are not atomic: if the upload fails
// after a delete the asset is missing until the next successful replace,
// unless ReplaceOptions.Compensate is set.
func (s *Store) ReplaceAsset(ctx context.Context, kind collection.Kind, records []collection.Record) (err error) {
	name := kind.AssetName()
	defer func() {
		observe(opReplace, err)
		if err != nil {
			err = fmt.Errorf("%w %s: %w", ErrReplace, name, err)
		}
	}()

	content, err := collection.Marshal(records)
	if err != nil {
		return err
	}

	rel, err := s.FetchLatestRelease(ctx)
	if err != nil {
		return err
	}
	log := s.log.With().Str("asset", name).Int64("release", rel.ID).Logger()

	existing, err := s.gh.FindAsset(ctx, s.owner, s.repo, rel.ID, name)
	if err != nil {
		return fmt.Errorf("%w: listing assets: %w", ErrRemoteFetch, err)
	}

	deleted := false
	if existing != nil {
		log.Debug().Int64("asset_id", existing.ID).Msg("deleting existing asset")
		if err := s.DeleteAsset(ctx, existing.ID); err != nil {
			return err
		}
		deleted = true
	}

	log.Debug().Int("bytes", len(content)).Msg("uploading asset")
	err = s.UploadAsset(ctx, rel.ID, name, content)
	if err != nil && deleted && s.replace.Compensate {
		log.Warn().Err(err).Msg("upload failed after delete, retrying")
		err = s.compensate(ctx, rel.ID, name, content)
	}
	if err != nil {
		if deleted {
			log.Error().Err(err).Msg("asset deleted but upload failed; remote asset is now absent")
		}
		return err
	}
	log.Info().Int("records", len(records)).Msg("asset replaced")
	return nil
}

// compensate retries the upload with exponential backoff. Conflicts are
// permanent: the name is taken, so another writer got there first.
func (s *Store) compensate(ctx context.Context, releaseID int64, name string, content []byte) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.replace.InitialInterval
	if exp.InitialInterval <= 0 {
		exp.InitialInterval = 500 * time.Millisecond
	}
	exp.Multiplier = 2
	exp.Reset()

	retries := s.replace.MaxRetries
	if retries == 0 {
		retries = 3
	}
	b := backoff.WithContext(backoff.WithMaxRetries(exp, retries), ctx)

	return backoff.Retry(func() error {
		err := s.UploadAsset(ctx, releaseID, name, content)
		if errors.Is(err, github.ErrConflict) || errors.Is(err, github.ErrUnauthorized) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
