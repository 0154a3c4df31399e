// Package persona lists the masters a user can chat with and tracks which
// ones are picked.
package persona

import "slices"

// Persona is one master on the welcome carousel.
type Persona struct {
	Name string `json:"name"`
}

var roster = []Persona{
	{Name: "Elon Musk"},
	{Name: "Nakamoto"},
	{Name: "Buffett"},
	{Name: "Ralo"},
	{Name: "Socrates"},
	{Name: "Hypatia"},
	{Name: "Keller"},
}

// Roster returns the carousel personas in display order.
func Roster() []Persona {
	return slices.Clone(roster)
}

// Known reports whether name is on the roster.
func Known(name string) bool {
	return slices.ContainsFunc(roster, func(p Persona) bool { return p.Name == name })
}

// Selection is a toggle set of picked persona names.
type Selection struct {
	picked map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{picked: make(map[string]struct{})}
}

// Toggle adds name when absent and removes it when present. It reports
// whether name is picked afterwards.
func (s *Selection) Toggle(name string) bool {
	if _, ok := s.picked[name]; ok {
		delete(s.picked, name)
		return false
	}
	s.picked[name] = struct{}{}
	return true
}

// Has reports whether name is picked.
func (s *Selection) Has(name string) bool {
	_, ok := s.picked[name]
	return ok
}

// Len returns the number of picked names.
func (s *Selection) Len() int {
	return len(s.picked)
}

// Names returns the picked names, roster names first in roster order, then
// any others sorted.
func (s *Selection) Names() []string {
	out := make([]string, 0, len(s.picked))
	for _, p := range roster {
		if s.Has(p.Name) {
			out = append(out, p.Name)
		}
	}
	var extra []string
	for name := range s.picked {
		if !Known(name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}
