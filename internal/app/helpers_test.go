package app

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/blackwell-systems/shelfdesk/internal/collection"
	"github.com/blackwell-systems/shelfdesk/internal/state"
)

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds([]string{"books", "Games.json"}, false)
	if err != nil {
		t.Fatalf("parseKinds: %v", err)
	}
	if len(kinds) != 2 || kinds[0] != collection.Books || kinds[1] != collection.Games {
		t.Errorf("kinds = %v", kinds)
	}

	all, err := parseKinds(nil, true)
	if err != nil || len(all) != collection.NumKinds {
		t.Errorf("--all = %v, %v", all, err)
	}

	for _, tc := range []struct {
		args []string
		all  bool
	}{
		{nil, false},
		{[]string{"movies"}, false},
		{[]string{"books"}, true},
	} {
		if _, err := parseKinds(tc.args, tc.all); err == nil {
			t.Errorf("parseKinds(%v, %v) should fail", tc.args, tc.all)
		}
	}
}

func TestParseIndex(t *testing.T) {
	if i, err := parseIndex("3"); err != nil || i != 3 {
		t.Errorf("parseIndex(3) = %d, %v", i, err)
	}
	for _, in := range []string{"-1", "x", ""} {
		if _, err := parseIndex(in); err == nil {
			t.Errorf("parseIndex(%q) should fail", in)
		}
	}
}

func TestReadRecord(t *testing.T) {
	rec, err := readRecord(`{ "id": "b1" }`, nil)
	if err != nil {
		t.Fatalf("readRecord: %v", err)
	}
	if string(rec) != `{"id":"b1"}` {
		t.Errorf("rec = %s", rec)
	}

	rec, err = readRecord("-", strings.NewReader(`{"id":"stdin"}`+"\n"))
	if err != nil || string(rec) != `{"id":"stdin"}` {
		t.Errorf("stdin rec = %s, %v", rec, err)
	}

	for _, in := range []string{"", `{"id":`, `1],[2`} {
		if _, err := readRecord(in, nil); !errors.Is(err, state.ErrInvalidRecord) {
			t.Errorf("readRecord(%q) error = %v, want ErrInvalidRecord", in, err)
		}
	}
}

func newEditState(t *testing.T, records ...string) *state.State {
	t.Helper()
	s := state.New(state.Options{})
	for _, r := range records {
		if err := s.AddItem(collection.Books, collection.Record(r)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SetActive(collection.Books); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestEditLoop_Adopts(t *testing.T) {
	s := newEditState(t, `{"id":"b1"}`)
	changed, err := editLoop(s, func(string) (string, error) {
		return `[{"id":"b1"},{"id":"b2"}]`, nil
	}, func(error) bool { t.Fatal("retry should not be asked"); return false })

	if err != nil || !changed {
		t.Fatalf("editLoop = %v, %v", changed, err)
	}
	if n := len(s.Items(collection.Books)); n != 2 {
		t.Errorf("items = %d, want 2", n)
	}
	if s.RawMode() {
		t.Error("raw mode should be off")
	}
}

func TestEditLoop_Unchanged(t *testing.T) {
	s := newEditState(t, `{"id":"b1"}`)
	changed, err := editLoop(s, func(text string) (string, error) { return text, nil }, nil)
	if err != nil || changed {
		t.Errorf("editLoop = %v, %v; want false, nil", changed, err)
	}

	// Whitespace-only edits adopt the same records.
	changed, err = editLoop(s, func(string) (string, error) { return `[{"id": "b1"}]`, nil }, nil)
	if err != nil || changed {
		t.Errorf("editLoop whitespace = %v, %v; want false, nil", changed, err)
	}
}

func TestEditLoop_RetryThenFix(t *testing.T) {
	s := newEditState(t)
	attempts := []string{`[{"id":"x",}]`, `{"id":"x"}`, `[{"id":"x"}]`}
	var seen []string
	retries := 0

	changed, err := editLoop(s, func(text string) (string, error) {
		seen = append(seen, text)
		next := attempts[0]
		attempts = attempts[1:]
		return next, nil
	}, func(err error) bool {
		if !errors.Is(err, state.ErrInvalidRawContent) {
			t.Errorf("retry got %v", err)
		}
		retries++
		return true
	})

	if err != nil || !changed {
		t.Fatalf("editLoop = %v, %v", changed, err)
	}
	if retries != 2 {
		t.Errorf("retries = %d, want 2", retries)
	}
	// The editor reopens on the user's text, not a fresh render.
	if seen[1] != `[{"id":"x",}]` || seen[2] != `{"id":"x"}` {
		t.Errorf("editor inputs = %q", seen)
	}
}

func TestEditLoop_GiveUp(t *testing.T) {
	s := newEditState(t, `{"id":"keep"}`)
	changed, err := editLoop(s, func(string) (string, error) { return `nope`, nil },
		func(error) bool { return false })

	if !errors.Is(err, state.ErrInvalidRawContent) || changed {
		t.Errorf("editLoop = %v, %v", changed, err)
	}
	if s.RawMode() {
		t.Error("raw mode should be off after giving up")
	}
	if got := s.Items(collection.Books); len(got) != 1 || string(got[0]) != `{"id":"keep"}` {
		t.Errorf("items = %v", got)
	}
}

func TestEditLoop_EditorError(t *testing.T) {
	s := newEditState(t)
	boom := errors.New("editor crashed")
	_, err := editLoop(s, func(string) (string, error) { return "", boom }, nil)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if s.RawMode() {
		t.Error("raw mode should be off")
	}
}

func TestWriteCompletion(t *testing.T) {
	for _, shell := range completionShells {
		var buf bytes.Buffer
		if err := writeCompletion(rootCmd, &buf, shell, false); err != nil {
			t.Fatalf("%s: %v", shell, err)
		}
		if !strings.Contains(buf.String(), "shelfdesk") {
			t.Errorf("%s script does not mention the command name", shell)
		}
	}
	if err := writeCompletion(rootCmd, io.Discard, "tcsh", true); err == nil {
		t.Error("expected an error for an unsupported shell")
	}
}
