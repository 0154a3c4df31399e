package history

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("h-%d", n)
	}
}

func titles(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestNewSeedsInOrder(t *testing.T) {
	s := New(DefaultSeed())

	require.Equal(t, []Group{Today, Yesterday}, s.Groups())
	listing := s.ListByGroup()
	require.Len(t, listing[Today], 3)
	require.Len(t, listing[Yesterday], 5)
	assert.Equal(t, "How Much Pushups A day", listing[Today][0].Title)
	assert.Equal(t, "Tell me what support i played daily fitness", listing[Yesterday][4].Title)
	assert.Equal(t, 8, s.Len())
}

func TestDeleteScenario(t *testing.T) {
	s := New([]Seed{{Today, "A"}, {Today, "B"}})
	a := s.ListByGroup()[Today][0]

	require.True(t, s.Delete(a.ID))
	require.Equal(t, []string{"B"}, titles(s.ListByGroup()[Today]))
}

func TestIDsUniqueAcrossDeletes(t *testing.T) {
	// The id function deliberately repeats values to prove the store refuses them.
	calls := 0
	repeating := func() string {
		calls++
		return fmt.Sprintf("r-%d", calls%3)
	}
	s := New(nil, WithIDFunc(repeating))

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		e, err := s.Create(Today, fmt.Sprintf("t%d", i))
		require.NoError(t, err)
		require.False(t, seen[e.ID], "id %s reused", e.ID)
		seen[e.ID] = true
		if i%2 == 0 {
			require.True(t, s.Delete(e.ID))
		}
	}
}

func TestRenamePreservesOrder(t *testing.T) {
	s := New([]Seed{{Today, "A"}, {Today, "B"}, {Today, "C"}, {Yesterday, "D"}}, WithIDFunc(counterIDs()))
	before := ids(s.ListByGroup()[Today])

	require.True(t, s.Rename(before[1], "  Bee  "))
	require.True(t, s.Rename(before[0], "Ay"))
	require.False(t, s.Rename("missing", "x"))

	after := s.ListByGroup()
	require.Equal(t, before, ids(after[Today]))
	require.Equal(t, []string{"Ay", "Bee", "C"}, titles(after[Today]))
	require.Equal(t, []string{"D"}, titles(after[Yesterday]))
}

func TestRenameRejectsBlank(t *testing.T) {
	s := New([]Seed{{Today, "Keep me"}})
	id := s.ListByGroup()[Today][0].ID

	for _, blank := range []string{"", "   ", "\t\n"} {
		require.False(t, s.Rename(id, blank))
		e, ok := s.Get(id)
		require.True(t, ok)
		require.Equal(t, "Keep me", e.Title)
	}
}

func TestDeletePreservesRelativeOrder(t *testing.T) {
	s := New([]Seed{{Today, "A"}, {Today, "B"}, {Today, "C"}, {Today, "D"}, {Yesterday, "E"}})
	today := s.ListByGroup()[Today]

	require.True(t, s.Delete(today[2].ID))
	require.True(t, s.Delete(today[0].ID))
	require.False(t, s.Delete(today[0].ID))
	require.False(t, s.Delete("unknown"))

	listing := s.ListByGroup()
	require.Equal(t, []string{"B", "D"}, titles(listing[Today]))
	require.Equal(t, []string{"E"}, titles(listing[Yesterday]))
}

func TestCreateAppendsAndValidates(t *testing.T) {
	s := New([]Seed{{Today, "A"}})

	e, err := s.Create(Today, "  B ")
	require.NoError(t, err)
	require.Equal(t, "B", e.Title)

	_, err = s.Create(Today, " ")
	require.ErrorIs(t, err, ErrBlankTitle)
	_, err = s.Create("", "x")
	require.ErrorIs(t, err, ErrBlankGroup)

	week, err := s.Create("Last week", "C")
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, titles(s.ListByGroup()[Today]))
	require.Equal(t, []Group{Today, "Last week"}, s.Groups())
	got, ok := s.Get(week.ID)
	require.True(t, ok)
	require.Equal(t, week, got)
}

func TestListByGroupIsSnapshot(t *testing.T) {
	s := New([]Seed{{Today, "A"}})
	listing := s.ListByGroup()
	listing[Today][0].Title = "mutated"
	listing[Today] = append(listing[Today], Entry{ID: "x"})

	require.Equal(t, []string{"A"}, titles(s.ListByGroup()[Today]))
}

func TestGroupsSurviveEmptying(t *testing.T) {
	s := New([]Seed{{Today, "A"}, {Yesterday, "B"}})
	require.True(t, s.Delete(s.ListByGroup()[Today][0].ID))

	require.Equal(t, []Group{Today, Yesterday}, s.Groups())
	require.Empty(t, s.ListByGroup()[Today])
}

func TestConcurrentMutations(t *testing.T) {
	s := New(nil)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				e, err := s.Create(Today, fmt.Sprintf("w%d-%d", w, i))
				if err != nil {
					t.Error(err)
					return
				}
				s.Rename(e.ID, e.Title+"!")
				_ = s.ListByGroup()
			}
		}(w)
	}
	wg.Wait()
	require.Equal(t, 200, s.Len())
}

type failingJournal struct{}

func (failingJournal) Load() ([]Record, error) { return nil, errors.New("boom") }
func (failingJournal) Append(Entry) error { return errors.New("boom") }
func (failingJournal) Rename(string, string) error { return errors.New("boom") }
func (failingJournal) Delete(string) error { return errors.New("boom") }
func (failingJournal) LoadMessages() ([]MessageRecord, error) { return nil, errors.New("boom") }
func (failingJournal) AppendMessage(string, Message) error { return errors.New("boom") }

func TestJournalFailuresFallBackToMemory(t *testing.T) {
	s := New([]Seed{{Today, "A"}}, WithJournal(failingJournal{}))
	id := s.ListByGroup()[Today][0].ID

	require.True(t, s.Rename(id, "B"))
	require.Equal(t, []string{"B"}, titles(s.ListByGroup()[Today]))
	require.True(t, s.AppendMessage(id, UserMessage("hi")))
	msgs, ok := s.Messages(id)
	require.True(t, ok)
	require.Len(t, msgs, 1)

	require.True(t, s.Delete(id))
	require.Zero(t, s.Len())
}

func TestSQLiteJournalRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	j, err := OpenSQLite(path)
	require.NoError(t, err)
	s := New([]Seed{{Today, "A"}, {Today, "B"}, {Yesterday, "C"}}, WithJournal(j))
	listing := s.ListByGroup()
	deleted := listing[Today][0].ID
	require.True(t, s.Delete(deleted))
	require.True(t, s.Rename(listing[Yesterday][0].ID, "C2"))
	_, err = s.Create(Today, "D")
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	// Seed is ignored on restore, and the deleted id is never minted again.
	restored := New([]Seed{{Today, "ignored"}}, WithJournal(j), WithIDFunc(func() string { return deleted }))
	got := restored.ListByGroup()
	require.Equal(t, []Group{Today, Yesterday}, restored.Groups())
	require.Equal(t, []string{"B", "D"}, titles(got[Today]))
	require.Equal(t, []string{"C2"}, titles(got[Yesterday]))

	e, err := restored.Create(Today, "E")
	require.NoError(t, err)
	require.NotEqual(t, deleted, e.ID)
}

func TestSessionMessages(t *testing.T) {
	s := New([]Seed{{Today, "A"}, {Today, "B"}}, WithIDFunc(counterIDs()))
	listing := s.ListByGroup()[Today]
	a, b := listing[0].ID, listing[1].ID

	msgs, ok := s.Messages(a)
	require.True(t, ok)
	require.Empty(t, msgs)

	require.True(t, s.AppendMessage(a, UserMessage("hello")))
	require.True(t, s.AppendMessage(a, OpponentMessage("Socrates", "Why?")))
	require.True(t, s.AppendMessage(b, UserMessage("other")))

	msgs, _ = s.Messages(a)
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, RoleOpponent, msgs[1].Role)
	assert.Equal(t, "Socrates", msgs[1].Author)
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)

	// Renaming keeps the conversation; deleting drops it.
	require.True(t, s.Rename(a, "A2"))
	msgs, _ = s.Messages(a)
	require.Len(t, msgs, 2)
	require.True(t, s.Delete(a))
	_, ok = s.Messages(a)
	require.False(t, ok)
	require.False(t, s.AppendMessage(a, UserMessage("late")))

	msgs, _ = s.Messages(b)
	require.Equal(t, "other", msgs[0].Text)
}

func TestMessagesIsSnapshot(t *testing.T) {
	s := New([]Seed{{Today, "A"}})
	id := s.ListByGroup()[Today][0].ID
	require.True(t, s.AppendMessage(id, UserMessage("one")))

	msgs, _ := s.Messages(id)
	msgs[0].Text = "mutated"
	got, _ := s.Messages(id)
	require.Equal(t, "one", got[0].Text)
}

func TestSQLiteJournalRestoresMessagesAndEmptiedGroups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	j, err := OpenSQLite(path)
	require.NoError(t, err)
	s := New([]Seed{{Today, "A"}, {Yesterday, "B"}, {"Last week", "C"}}, WithJournal(j))
	a := s.ListByGroup()[Today][0].ID
	c := s.ListByGroup()["Last week"][0].ID
	require.True(t, s.AppendMessage(a, UserMessage("hello")))
	require.True(t, s.AppendMessage(a, OpponentMessage("Buffett", "Be patient.")))
	require.True(t, s.AppendMessage(c, UserMessage("gone soon")))
	require.True(t, s.Delete(c))
	require.True(t, s.Delete(s.ListByGroup()[Yesterday][0].ID))
	before := s.Groups()
	require.NoError(t, j.Close())

	j, err = OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	restored := New(nil, WithJournal(j))

	require.Equal(t, before, restored.Groups())
	require.Empty(t, restored.ListByGroup()[Yesterday])

	msgs, ok := restored.Messages(a)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, Message{ID: msgs[1].ID, Role: RoleOpponent, Author: "Buffett", Text: "Be patient."}, msgs[1])
	_, ok = restored.Messages(c)
	require.False(t, ok)
}
