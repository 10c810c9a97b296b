package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Asset represents a GitHub Release asset.
type Asset struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	URL                string `json:"url"`
	BrowserDownloadURL string `json:"browser_download_url"`
	ContentType        string `json:"content_type"`
}

// ListReleaseAssets returns all assets for the given release.
func (c *Client) ListReleaseAssets(ctx context.Context, owner, repo string, releaseID int64) ([]Asset, error) {
	u := c.url("repos", owner, repo, "releases", fmt.Sprintf("%d", releaseID), "assets") + "?per_page=100"
	var assets []Asset
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// FindAsset returns the first asset with the given name, or nil.
func (c *Client) FindAsset(ctx context.Context, owner, repo string, releaseID int64, name string) (*Asset, error) {
	assets, err := c.ListReleaseAssets(ctx, owner, repo, releaseID)
	if err != nil {
		return nil, err
	}
	for i := range assets {
		if assets[i].Name == name {
			return &assets[i], nil
		}
	}
	return nil, nil
}

// DownloadAsset streams the content of a release asset.
// Caller is responsible for closing the returned ReadCloser.
//
// With a relay configured the public browser URL is fetched through the relay
// without credentials. Otherwise the API asset endpoint is used, which also
// works for private repos.
func (c *Client) DownloadAsset(ctx context.Context, owner, repo string, a Asset) (io.ReadCloser, error) {
	var (
		req *http.Request
		err error
	)
	if !c.relay.Direct() && a.BrowserDownloadURL != "" {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.relay.Rewrite(a.BrowserDownloadURL), nil)
		if err != nil {
			return nil, err
		}
	} else {
		apiURL := c.url("repos", owner, repo, "releases", "assets", fmt.Sprintf("%d", a.ID))
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/octet-stream")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// UploadAsset uploads r as a release asset named name. The upload endpoint is
// on uploads.github.com and is routed through the relay.
// The reader must yield exactly size bytes.
func (c *Client) UploadAsset(ctx context.Context, owner, repo string, releaseID int64, name string, r io.Reader, size int64, contentType string) (*Asset, error) {
	uploadURL := fmt.Sprintf("%s/repos/%s/%s/releases/%d/assets?name=%s",
		c.uploadBase, owner, repo, releaseID, url.QueryEscape(name))

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relay.Rewrite(uploadURL), r)
	if err != nil {
		return nil, err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var asset Asset
	if err := jsonDecode(resp.Body, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// DeleteAsset removes a release asset.
func (c *Client) DeleteAsset(ctx context.Context, owner, repo string, assetID int64) error {
	u := c.url("repos", owner, repo, "releases", "assets", fmt.Sprintf("%d", assetID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return checkStatus(resp)
}
