package collection

import (
	"fmt"
	"strings"
)

// Kind identifies one of the fixed record collections. Each kind maps to one
// release asset named "<kind>.json".
type Kind int

const (
	Books Kind = iota
	Games
	Reviews
	Projects

	numKinds
)

// NumKinds is the number of collection kinds; valid kinds are 0..NumKinds-1.
const NumKinds = int(numKinds)

var kindNames = [numKinds]string{
	Books:    "books",
	Games:    "games",
	Reviews:  "reviews",
	Projects: "projects",
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{Books, Games, Reviews, Projects}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool { return k >= 0 && k < numKinds }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// AssetName is the release asset file name for the kind.
func (k Kind) AssetName() string { return k.String() + ".json" }

// ParseKind maps "books", "games", "reviews" or "projects" (case-insensitive,
// optional ".json" suffix) to a Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".json")
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown collection %q (want one of %s)", s, strings.Join(kindNames[:], ", "))
}

// Names returns the kind names, for flag help and shell completion.
func Names() []string {
	return append([]string(nil), kindNames[:]...)
}
