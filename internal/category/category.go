package category

import "strings"

// Uncategorized is returned when no lexicon entry matches.
const Uncategorized = "uncategorized"

// Entry maps a category name to its trigger hashtags.
type Entry struct {
	Name     string
	Triggers []string
}

// Lexicon is an ordered list of category entries. Order is declaration
// order and decides ties: the first entry whose triggers intersect the
// post's hashtags wins.
type Lexicon struct {
	entries []Entry
	index   []map[string]struct{}
}

// NewLexicon builds a lexicon preserving entry order. Trigger hashtags
// are matched lowercased, without a leading '#'.
func NewLexicon(entries []Entry) *Lexicon {
	lx := &Lexicon{entries: entries, index: make([]map[string]struct{}, len(entries))}
	for i, e := range entries {
		set := make(map[string]struct{}, len(e.Triggers))
		for _, t := range e.Triggers {
			set[normalize(t)] = struct{}{}
		}
		lx.index[i] = set
	}
	return lx
}

// Categorize returns the first category whose trigger set intersects
// the given hashtags, or Uncategorized. Deterministic for a fixed
// lexicon order.
func (lx *Lexicon) Categorize(hashtags []string) string {
	if lx == nil || len(hashtags) == 0 {
		return Uncategorized
	}
	for i, e := range lx.entries {
		for _, h := range hashtags {
			if _, ok := lx.index[i][normalize(h)]; ok {
				return e.Name
			}
		}
	}
	return Uncategorized
}

// Categories returns the category names in declaration order.
func (lx *Lexicon) Categories() []string {
	out := make([]string, len(lx.entries))
	for i, e := range lx.entries {
		out[i] = e.Name
	}
	return out
}

func normalize(h string) string {
	return strings.ToLower(strings.TrimPrefix(h, "#"))
}

// Default returns the built-in lexicon used when the config does not
// supply one.
func Default() []Entry {
	return []Entry{
		{Name: "fashion", Triggers: []string{"fashion", "style", "outfit", "ootd", "clothing", "brand"}},
		{Name: "food", Triggers: []string{"food", "foodie", "restaurant", "cooking", "recipe", "delicious"}},
		{Name: "travel", Triggers: []string{"travel", "vacation", "trip", "explore", "adventure", "wanderlust"}},
		{Name: "fitness", Triggers: []string{"fitness", "gym", "workout", "health", "exercise", "training"}},
		{Name: "technology", Triggers: []string{"tech", "technology", "coding", "software", "ai", "programming"}},
		{Name: "lifestyle", Triggers: []string{"lifestyle", "life", "motivation", "inspiration", "goals"}},
		{Name: "business", Triggers: []string{"business", "entrepreneur", "startup", "marketing", "success"}},
		{Name: "art", Triggers: []string{"art", "artist", "creative", "design", "photography", "aesthetic"}},
		{Name: "music", Triggers: []string{"music", "song", "concert", "album", "musician"}},
		{Name: "sports", Triggers: []string{"sports", "football", "basketball", "soccer", "game", "team"}},
	}
}
