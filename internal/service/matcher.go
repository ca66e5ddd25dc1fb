package service

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kanto/showledger/internal/database/repository"
)

var itemNameStrip = regexp.MustCompile(`[^a-z0-9\s\-]+`)

// NormalizeItemName prepares an item name for rule matching: lower-case,
// trimmed, every rune outside [a-z0-9 -] dropped (show prefixes and emoji
// decorations included), whitespace collapsed.
//
//	"Friday Fiesta - 🌀🧿 Elite Trainer Box - X" → "friday fiesta - elite trainer box - x"
func NormalizeItemName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = itemNameStrip.ReplaceAllString(n, "")
	return strings.Join(strings.Fields(n), " ")
}

// Matcher evaluates item names against a fixed snapshot of active rules.
// Evaluation order is priority descending; rules of equal priority fall back
// to creation time, then id, so the outcome never depends on storage
// iteration order.
type Matcher struct {
	rules []repository.Rule
}

// NewMatcher builds a matcher over the given rules. Inactive rules are
// dropped; the rest are sorted into evaluation order.
func NewMatcher(rules []repository.Rule) *Matcher {
	active := make([]repository.Rule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return &Matcher{rules: active}
}

// Match returns the first rule whose keywords match the normalized item name,
// or false when no active rule matches. A rule with no keywords never matches.
func (m *Matcher) Match(itemName string) (repository.Rule, bool) {
	normalized := NormalizeItemName(itemName)
	for _, rule := range m.rules {
		for _, keyword := range rule.Keywords {
			if keywordMatches(rule.MatchType, keyword, normalized) {
				return rule, true
			}
		}
	}
	return repository.Rule{}, false
}

func keywordMatches(matchType, keyword, normalized string) bool {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return false
	}
	switch matchType {
	case repository.MatchContains:
		return strings.Contains(normalized, kw)
	case repository.MatchStartsWith:
		return strings.HasPrefix(normalized, kw)
	case repository.MatchEndsWith:
		return strings.HasSuffix(normalized, kw)
	case repository.MatchExact:
		return normalized == kw
	}
	return false
}

// ValidMatchType reports whether mt is one of the supported match types.
func ValidMatchType(mt string) bool {
	switch mt {
	case repository.MatchContains, repository.MatchStartsWith, repository.MatchEndsWith, repository.MatchExact:
		return true
	}
	return false
}
