package github_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/shelfdesk/internal/github"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   string
}

type recorder struct {
	mu   sync.Mutex
	reqs []recorded
}

func (r *recorder) wrap(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.reqs = append(r.reqs, recorded{
			method: req.Method,
			path:   req.URL.Path,
			query:  req.URL.Query(),
			header: req.Header.Clone(),
			body:   string(b),
		})
		r.mu.Unlock()
		h(w, req)
	}
}

func (r *recorder) last() recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reqs[len(r.reqs)-1]
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_StandardHeaders(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec.wrap(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "full_name": "octo/shelf"})
	}))
	defer srv.Close()

	c := github.New("tok", srv.URL+"/")
	repo, err := c.GetRepo(t.Context(), "octo", "shelf")
	require.NoError(t, err)
	assert.Equal(t, "octo/shelf", repo.FullName)

	got := rec.last()
	assert.Equal(t, "/repos/octo/shelf", got.path)
	assert.Equal(t, "Bearer tok", got.header.Get("Authorization"))
	assert.Equal(t, "application/vnd.github+json", got.header.Get("Accept"))
	assert.Equal(t, "2022-11-28", got.header.Get("X-GitHub-Api-Version"))
}

func TestClient_StatusSentinels(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, github.ErrUnauthorized},
		{http.StatusForbidden, github.ErrForbidden},
		{http.StatusNotFound, github.ErrNotFound},
		{http.StatusConflict, github.ErrConflict},
		{http.StatusUnprocessableEntity, github.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			_, err := github.New("tok", srv.URL).GetLatestRelease(t.Context(), "octo", "shelf")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var se *github.StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.code, se.Code)
		})
	}
}

func TestClient_StatusErrorKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "  upstream exploded \n")
	}))
	defer srv.Close()

	_, err := github.New("tok", srv.URL).GetLatestRelease(t.Context(), "octo", "shelf")
	var se *github.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "upstream exploded", se.Body)
	assert.Equal(t, "status 502 Bad Gateway: upstream exploded", se.Error())
	assert.Nil(t, errors.Unwrap(se))
}

func TestEnsureLatestRelease_Existing(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec.wrap(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 3, "tag_name": "v2"})
	}))
	defer srv.Close()

	rel, created, err := github.New("tok", srv.URL).EnsureLatestRelease(t.Context(), "octo", "shelf", "v1.0.0")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(3), rel.ID)
	assert.Len(t, rec.reqs, 1)
}

func TestEnsureLatestRelease_CreatesWhenMissing(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec.wrap(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/octo/shelf/releases/latest":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == "/repos/octo/shelf/releases":
			writeJSON(w, http.StatusCreated, map[string]any{"id": 9, "tag_name": "v1.0.0"})
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	rel, created, err := github.New("tok", srv.URL).EnsureLatestRelease(t.Context(), "octo", "shelf", "v1.0.0")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(9), rel.ID)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(rec.last().body), &body))
	assert.Equal(t, "v1.0.0", body["tag_name"])
	assert.Equal(t, false, body["draft"])
	assert.Equal(t, "application/json", rec.last().header.Get("Content-Type"))
}

func TestRelease_Asset(t *testing.T) {
	rel := &github.Release{Assets: []github.Asset{{ID: 1, Name: "books.json"}, {ID: 2, Name: "tags.json"}}}
	require.NotNil(t, rel.Asset("tags.json"))
	assert.Equal(t, int64(2), rel.Asset("tags.json").ID)
	assert.Nil(t, rel.Asset("shelves.json"))
}

func TestFindAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/shelf/releases/7/assets", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 11, "name": "books.json"}})
	}))
	defer srv.Close()

	c := github.New("tok", srv.URL)
	a, err := c.FindAsset(t.Context(), "octo", "shelf", 7, "books.json")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, int64(11), a.ID)

	a, err = c.FindAsset(t.Context(), "octo", "shelf", 7, "tags.json")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestUploadAsset_EscapesNameAndSetsLength(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec.wrap(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"id": 5, "name": r.URL.Query().Get("name")})
	}))
	defer srv.Close()

	payload := `[{"a":1}]`
	c := github.New("tok", srv.URL)
	a, err := c.UploadAsset(t.Context(), "octo", "shelf", 7, "my books.json",
		strings.NewReader(payload), int64(len(payload)), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "my books.json", a.Name)

	got := rec.last()
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/repos/octo/shelf/releases/7/assets", got.path)
	assert.Equal(t, "my books.json", got.query.Get("name"))
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.Equal(t, payload, got.body)
}

func TestUploadAsset_DefaultContentType(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec.wrap(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"id": 5})
	}))
	defer srv.Close()

	_, err := github.New("tok", srv.URL).UploadAsset(t.Context(), "octo", "shelf", 7, "x.json", strings.NewReader("[]"), 2, "")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", rec.last().header.Get("Content-Type"))
}

func TestUploadAsset_UsesUploadBase(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer api.Close()
	rec := &recorder{}
	uploads := httptest.NewServer(rec.wrap(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"id": 5})
	}))
	defer uploads.Close()

	c := github.New("tok", api.URL, github.WithUploadBase(uploads.URL+"/"))
	_, err := c.UploadAsset(t.Context(), "octo", "shelf", 7, "x.json", strings.NewReader("[]"), 2, "")
	require.NoError(t, err)
	assert.Len(t, rec.reqs, 1)
}

func TestDownloadAsset_Direct(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec.wrap(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[1,2]`)
	}))
	defer srv.Close()

	c := github.New("tok", srv.URL)
	rc, err := c.DownloadAsset(t.Context(), "octo", "shelf", github.Asset{ID: 42, BrowserDownloadURL: "https://example.invalid/x"})
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(b))

	got := rec.last()
	assert.Equal(t, "/repos/octo/shelf/releases/assets/42", got.path)
	assert.Equal(t, "application/octet-stream", got.header.Get("Accept"))
	assert.Equal(t, "Bearer tok", got.header.Get("Authorization"))
}

func TestDownloadAsset_Relay(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec.wrap(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := github.New("tok", srv.URL, github.WithRelay(github.RelayFor(srv.URL+"/relay?url=")))
	target := "https://github.com/octo/shelf/releases/download/v1/books.json"
	rc, err := c.DownloadAsset(t.Context(), "octo", "shelf", github.Asset{ID: 42, BrowserDownloadURL: target})
	require.NoError(t, err)
	_ = rc.Close()

	got := rec.last()
	assert.Equal(t, "/relay", got.path)
	assert.Equal(t, target, got.query.Get("url"))
	assert.Empty(t, got.header.Get("Authorization"))
}

func TestDownloadAsset_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := github.New("tok", srv.URL).DownloadAsset(t.Context(), "octo", "shelf", github.Asset{ID: 1})
	assert.ErrorIs(t, err, github.ErrNotFound)
}

func TestDeleteAsset(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(rec.wrap(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, github.New("tok", srv.URL).DeleteAsset(t.Context(), "octo", "shelf", 13))
	got := rec.last()
	assert.Equal(t, http.MethodDelete, got.method)
	assert.Equal(t, "/repos/octo/shelf/releases/assets/13", got.path)
}

func TestRepoExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octo/shelf":
			writeJSON(w, http.StatusOK, map[string]any{"id": 1})
		case "/repos/octo/locked":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	c := github.New("tok", srv.URL)

	ok, err := c.RepoExists(t.Context(), "octo", "shelf")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.RepoExists(t.Context(), "octo", "gone")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.RepoExists(t.Context(), "octo", "locked")
	assert.ErrorIs(t, err, github.ErrUnauthorized)
	assert.False(t, ok)
}

func TestRelayFor(t *testing.T) {
	assert.True(t, github.RelayFor("").Direct())
	assert.Equal(t, "https://x/y", github.RelayFor("").Rewrite("https://x/y"))

	r := github.RelayFor("https://relay.example/?url=")
	assert.False(t, r.Direct())
	assert.Equal(t, "https://relay.example/?url=https%3A%2F%2Fx%2Fy%3Fa%3D1", r.Rewrite("https://x/y?a=1"))
}
