package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// The typed shapes below describe what the site expects in each asset. The
// sync path never decodes into them; they back Check and Summary only.

// Link is an external reference attached to a book or game.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Book is one entry in books.json.
type Book struct {
	ID          json.RawMessage `json:"id"` // string or number
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Genres      []string        `json:"genres"`
	Tags        []string        `json:"tags"`
	Rating      float64         `json:"rating"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	MyThoughts  string          `json:"myThoughts"`
	Links       []Link          `json:"links,omitempty"`
	CoverImage  string          `json:"coverImage"`
	Explicit    bool            `json:"explicit"`
	Color       string          `json:"color,omitempty"`
}

// Game is one entry in games.json.
type Game struct {
	ID          json.RawMessage `json:"id"`
	Title       string          `json:"title"`
	Developer   string          `json:"developer"`
	Genres      []string        `json:"genres"`
	Tags        []string        `json:"tags"`
	Rating      float64         `json:"rating"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	MyThoughts  string          `json:"myThoughts"`
	Links       []Link          `json:"links,omitempty"`
	CoverImage  string          `json:"coverImage,omitempty"`
	Explicit    bool            `json:"explicit"`
	Percent     float64         `json:"percent"`
}

// Review is one entry in reviews.json.
type Review struct {
	Chapter     float64 `json:"chapter"`
	Description string  `json:"description"`
	Rating      float64 `json:"rating"`
	Thoughts    string  `json:"thoughts,omitempty"`
}

// Project is one entry in projects.json.
type Project struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags,omitempty"`
	Source         string   `json:"source"`
	CoverImage     string   `json:"coverImage,omitempty"`
	InstallCommand string   `json:"installCommand,omitempty"`
}

// Issue is a schema problem found in one record.
type Issue struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

func (i Issue) String() string { return fmt.Sprintf("[%d] %s", i.Index, i.Message) }

// Check reports records that do not match the expected shape for kind:
// non-objects, fields of the wrong JSON type, and missing required fields.
func Check(kind Kind, records []Record) []Issue {
	var issues []Issue
	for i, rec := range records {
		if msg := checkOne(kind, rec); msg != "" {
			issues = append(issues, Issue{Index: i, Message: msg})
		}
	}
	return issues
}

func checkOne(kind Kind, rec Record) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(rec, &obj); err != nil || obj == nil {
		return "record is not a JSON object"
	}

	var (
		target   interface{}
		required []string
	)
	switch kind {
	case Books:
		target, required = &Book{}, []string{"id", "title", "author"}
	case Games:
		target, required = &Game{}, []string{"id", "title", "developer"}
	case Reviews:
		target, required = &Review{}, []string{"chapter", "rating"}
	case Projects:
		target, required = &Project{}, []string{"name", "source"}
	default:
		return fmt.Sprintf("unknown collection %s", kind)
	}

	var missing []string
	for _, f := range required {
		if _, ok := obj[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return "missing " + strings.Join(missing, ", ")
	}

	if err := json.Unmarshal(rec, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fmt.Sprintf("field %q should be %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
		}
		return err.Error()
	}
	return ""
}

// Summary renders a one-line description of rec for listings. Records that do
// not decode fall back to their compact JSON, truncated.
func Summary(kind Kind, rec Record) string {
	switch kind {
	case Books:
		var b Book
		if json.Unmarshal(rec, &b) == nil && b.Title != "" {
			return joinNonEmpty(b.Title, b.Author, b.Status)
		}
	case Games:
		var g Game
		if json.Unmarshal(rec, &g) == nil && g.Title != "" {
			return joinNonEmpty(g.Title, g.Developer, g.Status)
		}
	case Reviews:
		var r Review
		if json.Unmarshal(rec, &r) == nil {
			return joinNonEmpty(fmt.Sprintf("chapter %g", r.Chapter), fmt.Sprintf("%g/10", r.Rating), r.Description)
		}
	case Projects:
		var p Project
		if json.Unmarshal(rec, &p) == nil && p.Name != "" {
			return joinNonEmpty(p.Name, p.Source)
		}
	}
	s := strings.Join(strings.Fields(string(rec)), " ")
	if r := []rune(s); len(r) > 60 {
		s = string(r[:57]) + "..."
	}
	return s
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " · ")
}
