// Package history owns the grouped, ordered list of past chat sessions shown
// in the history drawer, and each session's conversation. The three entry
// mutations (create, rename, delete) are the only way to change the list;
// readers get copies.
//
// A Journal can be attached to persist mutations. Journal failures are logged
// and the in-memory store keeps working without it.
package history

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/comigor/guruchat/internal/logger"
)

var (
	ErrBlankTitle = errors.New("history: title is blank")
	ErrBlankGroup = errors.New("history: group is blank")
)

// mintAttempts bounds how often a caller-supplied id function may collide
// before the store falls back to a random uuid.
const mintAttempts = 8

// Journal persists store mutations. Load returns every entry ever written,
// deleted ones included, in creation order. LoadMessages returns every
// session message in the order it was appended.
type Journal interface {
	Load() ([]Record, error)
	Append(e Entry) error
	Rename(id, title string) error
	Delete(id string) error
	LoadMessages() ([]MessageRecord, error)
	AppendMessage(sessionID string, m Message) error
}

// Record is a journaled entry.
type Record struct {
	Entry
	Deleted bool
}

// Option configures a Store.
type Option func(*Store)

// WithJournal persists every mutation to j and restores from it on construction.
func WithJournal(j Journal) Option {
	return func(s *Store) { s.journal = j }
}

// WithIDFunc replaces the uuid id generator.
func WithIDFunc(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// Store is the history collection. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	order  []Group
	groups map[Group][]Entry
	minted map[string]struct{}
	// messages holds each live session's conversation, keyed by entry id.
	messages map[string][]Message
	newID    func() string
	journal  Journal
}

// New builds a store. When a journal is attached and already holds entries the
// store is restored from it and seed is ignored; otherwise seed is applied in
// order (blank pairs are skipped).
func New(seed []Seed, opts ...Option) *Store {
	s := &Store{
		groups: make(map[Group][]Entry),
		minted:   make(map[string]struct{}),
		messages: make(map[string][]Message),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.restore() {
		return s
	}
	for _, sd := range seed {
		if _, err := s.Create(sd.Group, sd.Title); err != nil {
			logger.L.Warn("skipping history seed", "group", sd.Group, "title", sd.Title, "error", err)
		}
	}
	return s
}

func (s *Store) restore() bool {
	if s.journal == nil {
		return false
	}
	records, err := s.journal.Load()
	if err != nil {
		logger.L.Warn("history journal load failed; seeding in memory", "error", err)
		return false
	}
	if len(records) == 0 {
		return false
	}
	for _, r := range records {
		s.minted[r.ID] = struct{}{}
		// Groups emptied before the restart keep their place.
		s.registerLocked(r.Group)
		if r.Deleted {
			continue
		}
		s.appendLocked(r.Entry)
	}
	s.restoreMessages()
	logger.L.Info("history restored from journal", "records", len(records))
	return true
}

func (s *Store) restoreMessages() {
	records, err := s.journal.LoadMessages()
	if err != nil {
		logger.L.Warn("history journal message load failed; sessions start empty", "error", err)
		return
	}
	for _, r := range records {
		if _, _, ok := s.findLocked(r.SessionID); !ok {
			continue
		}
		s.messages[r.SessionID] = append(s.messages[r.SessionID], r.Message)
	}
}

func (s *Store) registerLocked(g Group) {
	if _, ok := s.groups[g]; !ok {
		s.order = append(s.order, g)
		s.groups[g] = nil
	}
}

func (s *Store) appendLocked(e Entry) {
	s.registerLocked(e.Group)
	s.groups[e.Group] = append(s.groups[e.Group], e)
}

func (s *Store) mintLocked() string {
	for range mintAttempts {
		id := s.newID()
		if _, taken := s.minted[id]; id != "" && !taken {
			s.minted[id] = struct{}{}
			return id
		}
	}
	for {
		id := uuid.NewString()
		if _, taken := s.minted[id]; !taken {
			s.minted[id] = struct{}{}
			return id
		}
	}
}

// Create appends a new entry to the end of group.
func (s *Store) Create(group Group, title string) (Entry, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Entry{}, ErrBlankTitle
	}
	if strings.TrimSpace(string(group)) == "" {
		return Entry{}, ErrBlankGroup
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := Entry{ID: s.mintLocked(), Group: group, Title: title}
	if s.journal != nil {
		if err := s.journal.Append(e); err != nil {
			logger.L.Error("failed to journal history entry; keeping it in memory", "id", e.ID, "error", err)
		}
	}
	s.appendLocked(e)
	return e, nil
}

// Rename replaces the title of id in place. It reports false, changing
// nothing, when id is unknown or title is blank after trimming.
func (s *Store) Rename(id, title string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, i, ok := s.findLocked(id)
	if !ok {
		return false
	}
	if s.journal != nil {
		if err := s.journal.Rename(id, title); err != nil {
			logger.L.Error("failed to journal history rename; keeping it in memory", "id", id, "error", err)
		}
	}
	s.groups[g][i].Title = title
	return true
}

// Delete removes id from whichever group holds it. It reports false when id
// is unknown. Ids are never handed out again.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, i, ok := s.findLocked(id)
	if !ok {
		return false
	}
	if s.journal != nil {
		if err := s.journal.Delete(id); err != nil {
			logger.L.Error("failed to journal history delete; keeping it in memory", "id", id, "error", err)
		}
	}
	s.groups[g] = slices.Delete(s.groups[g], i, i+1)
	delete(s.messages, id)
	return true
}

// Messages returns a copy of the conversation of session id. It reports false
// when id is unknown.
func (s *Store) Messages(id string) ([]Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, _, ok := s.findLocked(id); !ok {
		return nil, false
	}
	return slices.Clone(s.messages[id]), true
}

// AppendMessage adds m to the end of session id's conversation. It reports
// false, changing nothing, when id is unknown (e.g. deleted meanwhile).
func (s *Store) AppendMessage(id string, m Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, ok := s.findLocked(id); !ok {
		return false
	}
	if s.journal != nil {
		if err := s.journal.AppendMessage(id, m); err != nil {
			logger.L.Error("failed to journal session message; keeping it in memory", "id", id, "error", err)
		}
	}
	s.messages[id] = append(s.messages[id], m)
	return true
}

// Get returns the entry with id.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, i, ok := s.findLocked(id)
	if !ok {
		return Entry{}, false
	}
	return s.groups[g][i], true
}

// Groups returns every known group in the order it first appeared. Groups
// stay listed after their last entry is deleted.
func (s *Store) Groups() []Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// ListByGroup returns a snapshot of every group's entries in insertion order.
func (s *Store) ListByGroup() map[Group][]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Group][]Entry, len(s.groups))
	for g, entries := range s.groups {
		out[g] = slices.Clone(entries)
	}
	return out
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, entries := range s.groups {
		n += len(entries)
	}
	return n
}

func (s *Store) findLocked(id string) (Group, int, bool) {
	for _, g := range s.order {
		if i := slices.IndexFunc(s.groups[g], func(e Entry) bool { return e.ID == id }); i >= 0 {
			return g, i, true
		}
	}
	return "", 0, false
}
