package search

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/gallery/internal/domain"
	ranked "github.com/sahilm/fuzzy"
)

// Match is one ranked filter hit
type Match struct {
	Item           domain.Item
	Index          int   // Position in the filtered slice
	Score          int   // Higher is better
	MatchedIndexes []int // Rune positions in Label that matched
	Label          string
}

// Label is the searchable text of an item: the primary name, or the id
// when the item has no named primary attribute set.
func Label(item domain.Item) string {
	if a, ok := item.Primary(); ok && a.Name != "" {
		return a.Name
	}
	return item.ID
}

// index implements sahilm/fuzzy.Source over pre-lowered labels
type index struct {
	labels []string
}

func (idx index) String(i int) string { return idx.labels[i] }
func (idx index) Len() int            { return len(idx.labels) }

// Filter ranks items whose label fuzzy-matches query, best first.
// An empty query matches nothing.
func Filter(query string, items []domain.Item) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(items) == 0 {
		return nil
	}

	idx := index{labels: make([]string, len(items))}
	for i, it := range items {
		idx.labels[i] = strings.ToLower(Label(it))
	}

	found := ranked.FindFrom(query, idx)
	if len(found) == 0 {
		return nil
	}

	matches := make([]Match, len(found))
	for i, m := range found {
		matches[i] = Match{
			Item:           items[m.Index],
			Index:          m.Index,
			Score:          m.Score,
			MatchedIndexes: m.MatchedIndexes,
			Label:          Label(items[m.Index]),
		}
	}
	return matches
}

// Matches reports whether query is a case-insensitive subsequence of the
// item's label, id or temperament.
func Matches(query string, item domain.Item) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	if fuzzy.MatchFold(query, Label(item)) || fuzzy.MatchFold(query, item.ID) {
		return true
	}
	if a, ok := item.Primary(); ok && a.Temperament != "" {
		return fuzzy.MatchFold(query, a.Temperament)
	}
	return false
}
