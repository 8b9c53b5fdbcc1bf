package knesset

import "math"

// ImpactScore converts one week's aggregate into a single heuristic number:
// 2.5 per speech, 1 per thousand words, 1.5 per distinct committee, rounded
// to one decimal. Scores are independent per speaker; ranking happens later
// by sorting, not here.
func ImpactScore(a *SpeechAggregate) float64 {
	speechWeight := float64(a.SpeechCount) * 2.5
	wordWeight := float64(a.WordCount) / 1000
	diversityWeight := float64(len(a.Topics)) * 1.5
	return math.Round((speechWeight+wordWeight+diversityWeight)*10) / 10
}
