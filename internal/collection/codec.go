package collection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Record is one opaque element of a collection. Its bytes are passed through
// untouched apart from whitespace normalisation when a collection is printed.
type Record = json.RawMessage

// ErrNotArray is returned when a payload parses as JSON but is not an array.
var ErrNotArray = errors.New("content must be a JSON array")

// Parse decodes a JSON array into records with insignificant whitespace
// removed. An empty body or a literal null yields an empty, non-nil slice.
func Parse(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w, got %s", ErrNotArray, typeErr.Value)
		}
		return nil, err
	}
	if records == nil {
		return []Record{}, nil
	}
	for i, r := range records {
		var buf bytes.Buffer
		if err := json.Compact(&buf, r); err != nil {
			return nil, err
		}
		records[i] = buf.Bytes()
	}
	return records, nil
}

// Marshal encodes records as a JSON array indented with two spaces and no
// trailing newline. A nil slice encodes as [].
func Marshal(records []Record) ([]byte, error) {
	return encode(records, "  ")
}

// MarshalCompact encodes records without insignificant whitespace.
func MarshalCompact(records []Record) ([]byte, error) {
	return encode(records, "")
}

func encode(records []Record, indent string) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encoding collection: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Clone returns a deep copy of r.
func Clone(r Record) Record {
	if r == nil {
		return nil
	}
	return append(Record(nil), r...)
}

// Append returns a new slice with rec added at the end. records is not
// modified.
func Append(records []Record, rec Record) []Record {
	out := make([]Record, len(records), len(records)+1)
	copy(out, records)
	return append(out, Clone(rec))
}

// Replace returns a new slice with index i set to rec. The second result is
// false, and records is returned unchanged, when i is out of range.
func Replace(records []Record, i int, rec Record) ([]Record, bool) {
	if i < 0 || i >= len(records) {
		return records, false
	}
	out := make([]Record, len(records))
	copy(out, records)
	out[i] = Clone(rec)
	return out, true
}

// Remove returns a new slice without index i. The second result is false, and
// records is returned unchanged, when i is out of range.
func Remove(records []Record, i int) ([]Record, bool) {
	if i < 0 || i >= len(records) {
		return records, false
	}
	out := make([]Record, 0, len(records)-1)
	out = append(out, records[:i]...)
	return append(out, records[i+1:]...), true
}
