package facts

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"storygen/internal/domain"
)

// DefaultLimit is how many facts a single request receives at most.
const DefaultLimit = 10

// Entry is one catalog fact. Topics steer prompt matching; Locale selects the
// audience language and defaults to English.
type Entry struct {
	Question string   `yaml:"question"`
	Answer   string   `yaml:"answer"`
	Locale   string   `yaml:"locale"`
	Topics   []string `yaml:"topics"`
}

type catalogFile struct {
	Facts []Entry `yaml:"facts"`
}

// Catalog holds the trivia shown to users while their story generates.
type Catalog struct {
	entries []Entry
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{entries: defaultEntries()}
}

// Load reads a YAML catalog from path. An empty path yields the built-in
// catalog; a file that exists but holds no facts is an error so a broken
// deployment is noticed instead of silently serving nothing.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("facts: read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("facts: parse catalog: %w", err)
	}

	entries := make([]Entry, 0, len(file.Facts))
	for _, e := range file.Facts {
		e.Question = strings.TrimSpace(e.Question)
		e.Answer = strings.TrimSpace(e.Answer)
		if e.Question == "" || e.Answer == "" {
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("facts: catalog %s holds no usable facts", path)
	}
	return &Catalog{entries: entries}, nil
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// FactsFor selects up to limit facts for a prompt: entries whose topics appear
// in the prompt come first, padded with general entries of the same locale.
// Unknown locales fall back to English.
func (c *Catalog) FactsFor(prompt, locale string, limit int) []domain.Fact {
	if limit <= 0 {
		limit = DefaultLimit
	}
	locale = normalizeLocale(locale)
	needle := strings.ToLower(prompt)

	matched := make([]domain.Fact, 0, limit)
	general := make([]domain.Fact, 0, limit)
	for _, e := range c.entries {
		if normalizeLocale(e.Locale) != locale {
			continue
		}
		if topicsMatch(e.Topics, needle) {
			matched = append(matched, domain.Fact{Question: e.Question, Answer: e.Answer})
		} else {
			general = append(general, domain.Fact{Question: e.Question, Answer: e.Answer})
		}
	}

	out := matched
	for _, f := range general {
		if len(out) >= limit {
			break
		}
		out = append(out, f)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func topicsMatch(topics []string, needle string) bool {
	if needle == "" {
		return false
	}
	for _, t := range topics {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && strings.Contains(needle, t) {
			return true
		}
	}
	return false
}

func normalizeLocale(locale string) string {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "id":
		return "id"
	default:
		return "en"
	}
}

func defaultEntries() []Entry {
	return []Entry{
		{
			Question: "How long was the longest novel ever published?",
			Answer:   "Marcel Proust's In Search of Lost Time runs to roughly 1.2 million words.",
		},
		{
			Question: "Which author wrote standing up?",
			Answer:   "Ernest Hemingway drafted much of his work standing at a chest-high shelf.",
		},
		{
			Question: "How many basic plots do stories share?",
			Answer:   "One famous study argues every story maps onto just seven basic plots.",
		},
		{
			Question: "What did the first illustrated books use for pictures?",
			Answer:   "Hand-carved woodblocks, inked and pressed one page at a time.",
		},
		{
			Question: "Where does the word 'dragon' come from?",
			Answer:   "From the Greek drakon, meaning a serpent with a deadly glance.",
			Topics:   []string{"dragon", "dragons"},
		},
		{
			Question: "Did knights really rescue anyone?",
			Answer:   "Medieval knights spent far more time on tournaments and land disputes than rescues.",
			Topics:   []string{"knight", "knights", "castle"},
		},
		{
			Question: "How fast does a comet travel?",
			Answer:   "Near the sun, a comet can exceed 150,000 kilometers per hour.",
			Topics:   []string{"comet", "space", "star", "stars"},
		},
		{
			Question: "What makes the sea look so many different colors?",
			Answer:   "Depth, sky, and suspended particles each shift which light the water reflects.",
			Topics:   []string{"sea", "ocean", "ship", "pirate"},
		},
		{
			Question: "Berapa lama novel terpanjang yang pernah terbit?",
			Answer:   "In Search of Lost Time karya Proust mencapai sekitar 1,2 juta kata.",
			Locale:   "id",
		},
		{
			Question: "Dari mana asal kata 'naga'?",
			Answer:   "Dari bahasa Sanskerta naga, yang berarti ular besar.",
			Locale:   "id",
			Topics:   []string{"naga", "dragon"},
		},
	}
}
