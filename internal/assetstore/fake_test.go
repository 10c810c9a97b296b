package assetstore_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/blackwell-systems/shelfdesk/internal/github"
)

const (
	testOwner   = "octo"
	testRepo    = "shelf"
	testRelease = int64(7)
)

// fakeReleases serves the subset of the GitHub releases API used by Store
// for one repo with a single latest release.
type fakeReleases struct {
	mu          sync.Mutex
	srv         *httptest.Server
	assets      map[string][]byte
	ids         map[string]int64
	nextID      int64
	calls       []string
	noRelease   bool
	failUploads int
	failDelete  bool
	failList    bool
	relayed     []string
}

func newFakeReleases(t *testing.T) *fakeReleases {
	t.Helper()
	f := &fakeReleases{
		assets: make(map[string][]byte),
		ids:    make(map[string]int64),
		nextID: 100,
	}
	f.srv = httptest.NewServer(f)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeReleases) put(name, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.assets[name] = []byte(content)
	f.ids[name] = f.nextID
}

func (f *fakeReleases) content(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.assets[name]
	return string(b), ok
}

func (f *fakeReleases) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeReleases) client(opts ...github.Option) *github.Client {
	return github.New("test-token", f.srv.URL, opts...)
}

func (f *fakeReleases) assetList() []github.Asset {
	names := make([]string, 0, len(f.assets))
	for n := range f.assets {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]github.Asset, 0, len(names))
	for _, n := range names {
		out = append(out, github.Asset{
			ID:                 f.ids[n],
			Name:               n,
			Size:               int64(len(f.assets[n])),
			BrowserDownloadURL: f.srv.URL + "/download/" + n,
		})
	}
	return out
}

func (f *fakeReleases) nameByID(id int64) (string, bool) {
	for n, v := range f.ids {
		if v == id {
			return n, true
		}
	}
	return "", false
}

func (f *fakeReleases) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/relay" {
		f.relay(w, r)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	base := fmt.Sprintf("/repos/%s/%s/releases", testOwner, testRepo)
	path := r.URL.Path
	releaseAssets := fmt.Sprintf("%s/%d/assets", base, testRelease)

	switch {
	case r.Method == http.MethodGet && path == base+"/latest":
		if r.Header.Get("Authorization") != "Bearer test-token" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		if f.noRelease {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, github.Release{ID: testRelease, TagName: "v1.0.0", Assets: f.assetList()})

	case r.Method == http.MethodGet && path == releaseAssets:
		if f.failList {
			http.Error(w, "listing unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, f.assetList())

	case r.Method == http.MethodPost && path == releaseAssets:
		name := r.URL.Query().Get("name")
		f.calls = append(f.calls, "upload "+name)
		if f.failUploads > 0 {
			f.failUploads--
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		if _, exists := f.assets[name]; exists {
			http.Error(w, `{"message":"already_exists"}`, http.StatusUnprocessableEntity)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.nextID++
		f.assets[name] = body
		f.ids[name] = f.nextID
		writeJSON(w, github.Asset{ID: f.nextID, Name: name, Size: int64(len(body))})

	case strings.HasPrefix(path, base+"/assets/"):
		id, err := strconv.ParseInt(strings.TrimPrefix(path, base+"/assets/"), 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		name, ok := f.nameByID(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write(f.assets[name])
		case http.MethodDelete:
			f.calls = append(f.calls, "delete "+name)
			if f.failDelete {
				http.Error(w, "nope", http.StatusInternalServerError)
				return
			}
			delete(f.assets, name)
			delete(f.ids, name)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/download/"):
		name := strings.TrimPrefix(path, "/download/")
		b, ok := f.assets[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(b)

	default:
		http.NotFound(w, r)
	}
}

// relay forwards ?url=<target> back into the fake, recording the target.
func (f *fakeReleases) relay(w http.ResponseWriter, r *http.Request) {
	target, err := url.Parse(r.URL.Query().Get("url"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.relayed = append(f.relayed, target.String())
	f.mu.Unlock()

	inner := r.Clone(r.Context())
	inner.URL = target
	inner.RequestURI = target.RequestURI()
	f.ServeHTTP(w, inner)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
