// Package jsondiag validates hand-edited JSON and explains where and why it
// is broken. Nothing in this package returns an error: failures become
// values so callers can show them next to the text being edited.
package jsondiag

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Result is the outcome of Validate. Line and Column are 1-based and zero
// when no position is known.
type Result struct {
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

var (
	lineRe   = regexp.MustCompile(`line (\d+)`)
	columnRe = regexp.MustCompile(`column (\d+)`)
)

// suggestions are checked in order against the decoder message; the first
// match wins.
var suggestions = []struct {
	match func(msg, text string) bool
	hint  string
}{
	{contains("invalid character '}'"), "Extra closing brace. Check for missing comma or quote."},
	{contains("invalid character ']'"), "Extra closing bracket. Check array structure."},
	{contains("invalid character ','"), "Trailing comma or missing value before comma."},
	{unterminatedString, "Missing closing quote for string value."},
	{contains("looking for beginning of object key string"), "Property names must be enclosed in double quotes."},
}

// Validate parses text as JSON. Blank text is valid.
func Validate(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Valid: true}
	}
	var v interface{}
	err := json.Unmarshal([]byte(text), &v)
	if err == nil {
		return Result{Valid: true}
	}

	var syn *json.SyntaxError
	if !errors.As(err, &syn) {
		return Result{Error: err.Error()}
	}
	return diagnose(text, syn.Error(), syn.Offset)
}

// diagnose builds a Result from a decoder message and the byte offset the
// decoder reported (number of bytes consumed, including the offending one).
func diagnose(text, msg string, offset int64) Result {
	r := Result{Error: msg}

	if lm, cm := lineRe.FindStringSubmatch(msg), columnRe.FindStringSubmatch(msg); lm != nil && cm != nil {
		r.Line, _ = strconv.Atoi(lm[1])
		r.Column, _ = strconv.Atoi(cm[1])
	} else if offset >= 0 {
		pos := int(offset)
		if strings.HasPrefix(msg, "invalid character") && pos > 0 {
			// Point at the offending byte rather than past it.
			pos--
		}
		r.Line, r.Column = Position(text, pos)
	}

	for _, s := range suggestions {
		if s.match(msg, text) {
			r.Suggestion = s.hint
			break
		}
	}
	return r
}

// Position converts a byte offset into a 1-based line and column. The line
// is the number of newlines before offset plus one; the column counts runes
// since the last newline plus one. Offsets past the end are clamped.
func Position(text string, offset int) (line, column int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	prefix := text[:offset]
	line = strings.Count(prefix, "\n") + 1
	lastLine := prefix[strings.LastIndexByte(prefix, '\n')+1:]
	return line, utf8.RuneCountInString(lastLine) + 1
}

func contains(sub string) func(msg, text string) bool {
	return func(msg, _ string) bool { return strings.Contains(msg, sub) }
}

// unterminatedString matches a line break inside a string, or input that
// ends while a string is still open. Other raw control characters in a
// closed string get no hint.
func unterminatedString(msg, text string) bool {
	if strings.Contains(msg, `invalid character '\n' in string literal`) {
		return true
	}
	return strings.Contains(msg, "unexpected end of JSON input") && endsInsideString(text)
}

func endsInsideString(text string) bool {
	in, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case in && c == '\\':
			escaped = true
		case c == '"':
			in = !in
		}
	}
	return in
}

const maxIndent = 10

// FormatSafely re-indents valid JSON with indent spaces per level, keeping
// key order and number literals. Invalid input is returned unchanged. An
// indent of zero or less minifies.
func FormatSafely(text string, indent int) string {
	if indent <= 0 {
		return MinifySafely(text)
	}
	if indent > maxIndent {
		indent = maxIndent
	}
	src := []byte(strings.TrimSpace(text))
	if !json.Valid(src) {
		return text
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, src, "", strings.Repeat(" ", indent)); err != nil {
		return text
	}
	return buf.String()
}

// MinifySafely strips insignificant whitespace from valid JSON. Invalid
// input is returned unchanged.
func MinifySafely(text string) string {
	src := []byte(text)
	if !json.Valid(src) {
		return text
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, src); err != nil {
		return text
	}
	return buf.String()
}
