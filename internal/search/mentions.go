package search

import (
	"sort"
	"strings"
	"unicode"

	"knesset-pulse/internal/model"
)

const (
	minTokenLen  = 3  // fallback tokens must be longer than 2 runes
	maxTokenLen  = 29 // and shorter than 30
	maxHeuristic = 10
)

// Normalize collapses runs of whitespace, trims, and lowercases, so that
// differently cased or spaced renderings of the same name compare equal.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// CountMentions scans every source's title+snippet for each directory name
// as a normalized substring. When no name matches at all and at least one
// source exists, it falls back to a word-frequency heuristic over the source
// texts. The result is always sorted by count, descending.
func CountMentions(sources []model.SearchSource, names []string) []model.MentionStat {
	counts := make(map[string]int)
	var order []string

	for _, src := range sources {
		text := Normalize(src.Title + " " + src.Snippet)
		for _, raw := range names {
			norm := Normalize(raw)
			if norm == "" {
				continue
			}
			if strings.Contains(text, norm) {
				if counts[raw] == 0 {
					order = append(order, raw)
				}
				counts[raw]++
			}
		}
	}

	stats := make([]model.MentionStat, 0, len(order))
	for _, name := range order {
		stats = append(stats, model.MentionStat{Name: name, Count: counts[name]})
	}

	if len(stats) == 0 && len(sources) > 0 {
		stats = heuristicStats(sources)
	}

	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
	return stats
}

// heuristicStats tokenizes the source texts (letters only), counts token
// frequencies, takes the top 10 and keeps only tokens seen more than once.
func heuristicStats(sources []model.SearchSource) []model.MentionStat {
	freq := make(map[string]int)
	var order []string

	for _, src := range sources {
		for _, word := range tokenize(src.Title + " " + src.Snippet) {
			n := len([]rune(word))
			if n < minTokenLen || n > maxTokenLen {
				continue
			}
			if freq[word] == 0 {
				order = append(order, word)
			}
			freq[word]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return freq[order[i]] > freq[order[j]] })
	if len(order) > maxHeuristic {
		order = order[:maxHeuristic]
	}

	var stats []model.MentionStat
	for _, word := range order {
		if freq[word] > 1 {
			stats = append(stats, model.MentionStat{Name: word, Count: freq[word]})
		}
	}
	return stats
}

// tokenize replaces every non-letter rune with a space and splits on
// whitespace. Letters from any script survive, so Hebrew tokens are kept.
func tokenize(text string) []string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return ' '
	}, text)
	return strings.Fields(mapped)
}
