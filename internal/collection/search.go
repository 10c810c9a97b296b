package collection

import (
	"encoding/json"
	"slices"
	"strings"
)

// Filter applies all non-empty criteria and returns matching record indexes.
type Filter struct {
	Tag    string
	Search string // matches title, name, author, developer, description or any tag/genre
}

// searchable picks the text fields shared by the record shapes. Fields that
// are absent or of another type are left empty.
type searchable struct {
	Title       string   `json:"title"`
	Name        string   `json:"name"`
	Author      string   `json:"author"`
	Developer   string   `json:"developer"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Genres      []string `json:"genres"`
}

// Apply returns the indexes of records matching all non-empty filter fields,
// in collection order.
func (f Filter) Apply(records []Record) []int {
	var out []int
	for i, rec := range records {
		var s searchable
		_ = json.Unmarshal(rec, &s) // partial decode is fine for matching
		if f.Tag != "" && !hasTag(s, f.Tag) {
			continue
		}
		if f.Search != "" && !matchesSearch(s, f.Search) {
			continue
		}
		out = append(out, i)
	}
	return out
}

// hasTag matches tag against both tags and genres.
func hasTag(s searchable, tag string) bool {
	for _, t := range slices.Concat(s.Tags, s.Genres) {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func matchesSearch(s searchable, q string) bool {
	q = strings.ToLower(q)
	for _, field := range []string{s.Title, s.Name, s.Author, s.Developer, s.Description} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, t := range slices.Concat(s.Tags, s.Genres) {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
