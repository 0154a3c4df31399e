// Package rename is the inline title editor of a history row.
package rename

import "strings"

// Gate is the row state machine a session locks while editing.
type Gate interface {
	BeginEdit() bool
	EndEdit()
	Editing() bool
}

// Session edits one row's title. While active, the gate keeps the row from
// reacting to pointer gestures.
type Session struct {
	gate     Gate
	focus    func()
	original string
	draft    string
	title    string
}

// New returns a session over gate showing title. focus, when non-nil, is
// called each time editing begins so the host can move input focus.
func New(gate Gate, title string, focus func()) *Session {
	return &Session{gate: gate, focus: focus, title: title}
}

// Active reports whether the title is being edited.
func (s *Session) Active() bool {
	return s.gate.Editing()
}

// Title returns the title the row displays.
func (s *Session) Title() string {
	return s.title
}

// SetTitle replaces the displayed title, e.g. after the store changed it.
// It is ignored while editing.
func (s *Session) SetTitle(title string) {
	if s.Active() {
		return
	}
	s.title = title
}

// Draft returns the text being edited; empty when inactive.
func (s *Session) Draft() string {
	if !s.Active() {
		return ""
	}
	return s.draft
}

// Begin starts editing current. It reports false when the gate refuses
// (already editing, or mid-drag).
func (s *Session) Begin(current string) bool {
	if !s.gate.BeginEdit() {
		return false
	}
	s.original = current
	s.draft = current
	if s.focus != nil {
		s.focus()
	}
	return true
}

// Update replaces the draft.
func (s *Session) Update(text string) {
	if !s.Active() {
		return
	}
	s.draft = text
}

// Commit ends editing. It returns the trimmed draft and true when that is a
// real rename: non-blank and different from the original title. The row keeps
// showing the trimmed draft, or the original title when the draft was blank.
func (s *Session) Commit() (string, bool) {
	if !s.Active() {
		return "", false
	}
	next := strings.TrimSpace(s.draft)
	s.gate.EndEdit()

	if next == "" {
		s.title = s.original
	} else {
		s.title = next
	}
	s.draft = ""
	if next == "" || next == s.original {
		return "", false
	}
	return next, true
}

// Blur is a loss of input focus, which saves like Commit.
func (s *Session) Blur() (string, bool) {
	return s.Commit()
}

// Cancel ends editing and discards the draft.
func (s *Session) Cancel() {
	if !s.Active() {
		return
	}
	s.gate.EndEdit()
	s.title = s.original
	s.draft = ""
}
