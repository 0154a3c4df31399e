package history

// Group is the day bucket an entry is listed under. Any non-empty name is a
// valid bucket; Today and Yesterday are the ones the app seeds.
type Group string

const (
	Today     Group = "Today"
	Yesterday Group = "Yesterday"
)

// Entry is one past chat session shown in the history drawer.
type Entry struct {
	ID    string `json:"id"`
	Group Group  `json:"group"`
	Title string `json:"title"`
}

// Seed is a (group, title) pair used to pre-populate a store.
type Seed struct {
	Group Group
	Title string
}

// DefaultSeed returns the demo sessions the chat surface starts with.
func DefaultSeed() []Seed {
	today := []string{
		"How Much Pushups A day",
		"Top 10 Imdb Best Movies ever",
		"Tell me what support i played daily fitness",
	}
	yesterday := []string{
		"How Much Pushups A day",
		"Top 10 Imdb Best Movies ever",
		"Tell me what support i played daily fitness",
		"Top 10 Imdb Best Movies ever",
		"Tell me what support i played daily fitness",
	}

	seed := make([]Seed, 0, len(today)+len(yesterday))
	for _, t := range today {
		seed = append(seed, Seed{Group: Today, Title: t})
	}
	for _, t := range yesterday {
		seed = append(seed, Seed{Group: Yesterday, Title: t})
	}
	return seed
}
