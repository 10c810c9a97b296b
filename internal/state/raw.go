package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/shelfdesk/internal/collection"
	"github.com/blackwell-systems/shelfdesk/internal/jsondiag"
)

// SwitchPolicy decides what happens to an edited raw buffer when the active
// kind changes.
type SwitchPolicy int

const (
	// SwitchDiscard drops raw edits silently.
	SwitchDiscard SwitchPolicy = iota
	// SwitchBlock refuses the switch with ErrUnsavedRawEdits.
	SwitchBlock
	// SwitchAutosave adopts the raw buffer first and refuses the switch if
	// it is not a valid array.
	SwitchAutosave
)

var policyNames = []string{"discard", "block", "autosave"}

func (p SwitchPolicy) String() string {
	if p < 0 || int(p) >= len(policyNames) {
		return fmt.Sprintf("SwitchPolicy(%d)", int(p))
	}
	return policyNames[p]
}

// ParseSwitchPolicy maps "discard", "block" or "autosave" to a policy. The
// empty string is SwitchDiscard.
func ParseSwitchPolicy(s string) (SwitchPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SwitchDiscard, nil
	}
	for i, name := range policyNames {
		if name == s {
			return SwitchPolicy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown switch policy %q (want one of %s)", s, strings.Join(policyNames, ", "))
}

// Active returns the active kind, if any.
func (s *State) Active() (collection.Kind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.hasActive
}

// RawMode reports whether the active collection is being edited as text.
func (s *State) RawMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rawMode
}

// RawContent returns the raw text buffer.
func (s *State) RawContent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw
}

// RawDirty reports whether the raw buffer was edited since it was last
// generated from the collection.
func (s *State) RawDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rawMode && s.raw != s.rawBase
}

// UpdateRawContent replaces the raw text buffer. Nothing is parsed until raw
// mode is left.
func (s *State) UpdateRawContent(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = text
}

// SetActive makes kind the active collection and leaves raw mode, applying
// the switch policy to any raw edits.
func (s *State) SetActive(kind collection.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown collection %v", kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.leaveRawLocked(); err != nil {
		return err
	}
	s.active, s.hasActive = kind, true
	s.resetRawLocked()
	return nil
}

// ClearActive deselects the active collection and empties the raw buffer,
// applying the switch policy to any raw edits.
func (s *State) ClearActive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.leaveRawLocked(); err != nil {
		return err
	}
	s.active, s.hasActive = 0, false
	s.raw, s.rawBase = "", ""
	return nil
}

// ToggleRawMode enters raw mode by rendering the active collection, or
// leaves it by adopting the buffer. Leaving fails with ErrInvalidRawContent,
// and raw mode stays on with the buffer intact, unless the buffer is a JSON
// array.
func (s *State) ToggleRawMode() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasActive {
		return ErrNoActiveKind
	}
	if !s.rawMode {
		s.resetRawLocked()
		s.rawMode = true
		return nil
	}
	if err := s.commitRawLocked(); err != nil {
		return err
	}
	s.rawMode = false
	return nil
}

// ExitRawMode leaves raw mode, discarding the buffer and regenerating it from
// the collection.
func (s *State) ExitRawMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasActive {
		return
	}
	s.rawMode = false
	s.resetRawLocked()
}

// leaveRawLocked applies the switch policy before the active kind changes.
func (s *State) leaveRawLocked() error {
	if !s.rawMode {
		return nil
	}
	if s.raw != s.rawBase {
		switch s.policy {
		case SwitchBlock:
			s.notifyLocked(SeverityWarning, fmt.Sprintf("Unsaved raw edits to %s", s.active))
			return fmt.Errorf("%s: %w", s.active, ErrUnsavedRawEdits)
		case SwitchAutosave:
			if err := s.commitRawLocked(); err != nil {
				return err
			}
		default:
			s.log.Debug().Stringer("kind", s.active).Msg("discarding raw edits")
		}
	}
	s.rawMode = false
	return nil
}

// commitRawLocked parses the raw buffer and adopts it as the active
// collection. Blank or null text is refused.
func (s *State) commitRawLocked() error {
	var (
		records []collection.Record
		msg     string
	)
	switch text := strings.TrimSpace(s.raw); text {
	case "":
		msg = "Invalid JSON in raw content: empty document"
	case "null":
		msg = "Raw content must be an array"
	default:
		var err error
		records, err = collection.Parse([]byte(text))
		switch {
		case errors.Is(err, collection.ErrNotArray):
			msg = "Raw content must be an array"
		case err != nil:
			msg = "Invalid JSON in raw content: " + describeSyntax(s.raw)
		}
	}
	if msg != "" {
		s.notifyLocked(SeverityError, msg)
		return fmt.Errorf("%w: %s", ErrInvalidRawContent, msg)
	}
	s.collections[s.active] = records
	s.resetRawLocked()
	s.notifyLocked(SeverityInfo, "Raw content applied successfully")
	return nil
}

func describeSyntax(text string) string {
	res := jsondiag.Validate(text)
	msg := fmt.Sprintf("%s (line %d, column %d)", res.Error, res.Line, res.Column)
	if res.Suggestion != "" {
		msg += ". " + res.Suggestion
	}
	return msg
}

// resetRawLocked regenerates the raw buffer from the active collection.
func (s *State) resetRawLocked() {
	s.raw = render(s.collections[s.active])
	s.rawBase = s.raw
}

func render(records []collection.Record) string {
	b, err := collection.Marshal(records)
	if err != nil {
		// Records are validated on the way in.
		return "[]"
	}
	return string(b)
}
