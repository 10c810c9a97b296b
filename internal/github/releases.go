package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Release represents a GitHub Release.
type Release struct {
	ID          int64     `json:"id"`
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets"`
}

// Asset returns the first asset named name listed on the release, or nil.
func (r *Release) Asset(name string) *Asset {
	for i := range r.Assets {
		if r.Assets[i].Name == name {
			return &r.Assets[i]
		}
	}
	return nil
}

// GetLatestRelease fetches the most recent published, non-prerelease release.
// Returns ErrNotFound (wrapped) if the repo has no releases.
func (c *Client) GetLatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	url := c.url("repos", owner, repo, "releases", "latest")
	var r Release
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRelease creates a new published release with the given tag.
func (c *Client) CreateRelease(ctx context.Context, owner, repo, tag, name string) (*Release, error) {
	url := c.url("repos", owner, repo, "releases")
	body := map[string]interface{}{
		"tag_name":               tag,
		"name":                   name,
		"draft":                  false,
		"prerelease":             false,
		"generate_release_notes": false,
	}
	var r Release
	if err := c.doJSON(ctx, http.MethodPost, url, body, &r); err != nil {
		return nil, fmt.Errorf("create release %q: %w", tag, err)
	}
	return &r, nil
}

// EnsureLatestRelease returns the latest release, creating one tagged tag
// when the repo has none.
func (c *Client) EnsureLatestRelease(ctx context.Context, owner, repo, tag string) (*Release, bool, error) {
	r, err := c.GetLatestRelease(ctx, owner, repo)
	if errors.Is(err, ErrNotFound) {
		r, err = c.CreateRelease(ctx, owner, repo, tag, tag)
		return r, err == nil, err
	}
	return r, false, err
}
