package search

import (
	"testing"

	"knesset-pulse/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "דוד לוי", Normalize("  דוד   לוי "))
	assert.Equal(t, "benjamin netanyahu", Normalize("Benjamin  NETANYAHU"))
	assert.Equal(t, "", Normalize("   "))
}

func TestCountMentionsSubstringMatch(t *testing.T) {
	names := []string{"דוד לוי", "רות כהן"}
	sources := []model.SearchSource{
		{Title: "חדשות", Snippet: "דוד לוי הודיע על מהלך חדש"},
		{Title: "דוד לוי בכנסת", Snippet: "דיון סוער"},
		{Title: "כתבה", Snippet: "לוי בלבד, ללא שם פרטי"},
	}

	stats := CountMentions(sources, names)
	require.Len(t, stats, 1)
	assert.Equal(t, "דוד לוי", stats[0].Name)
	// Two sources contain the full name; the partial "לוי" does not count.
	assert.Equal(t, 2, stats[0].Count)
}

func TestCountMentionsCollapsesCaseAndWhitespace(t *testing.T) {
	names := []string{"Benjamin  Netanyahu"}
	sources := []model.SearchSource{
		{Title: "BENJAMIN NETANYAHU speaks"},
		{Snippet: "benjamin netanyahu responded"},
		{Title: "Benjamin   Netanyahu", Snippet: ""},
		{Snippet: "benjamin    netanyahu again"},
	}

	stats := CountMentions(sources, names)
	require.Len(t, stats, 1)
	assert.Equal(t, 4, stats[0].Count)
}

func TestCountMentionsFallback(t *testing.T) {
	names := []string{"דוד לוי"}
	sources := []model.SearchSource{
		{Title: "הקואליציה מתכנסת", Snippet: "דיון על הקואליציה"},
		{Title: "עוד על הקואליציה", Snippet: "רקע כללי"},
	}

	stats := CountMentions(sources, names)
	require.NotEmpty(t, stats, "fallback fires when no directory name matches")
	assert.Equal(t, "הקואליציה", stats[0].Name)
	assert.Equal(t, 3, stats[0].Count)
	for _, s := range stats {
		assert.Greater(t, s.Count, 1, "fallback keeps only tokens seen more than once")
	}
}

func TestCountMentionsFallbackAllUniqueTokens(t *testing.T) {
	sources := []model.SearchSource{
		{Title: "אחת שתיים", Snippet: "שלוש ארבע"},
	}
	stats := CountMentions(sources, nil)
	assert.Empty(t, stats, "no token repeats, so the fallback yields nothing")
}

func TestCountMentionsFallbackTokenLength(t *testing.T) {
	sources := []model.SearchSource{
		{Title: "אב אב אב מילארוכה מילארוכה"},
		{Snippet: "אב מילארוכה"},
	}
	stats := CountMentions(sources, nil)
	require.Len(t, stats, 1, "two-letter tokens are filtered out")
	assert.Equal(t, "מילארוכה", stats[0].Name)
	assert.Equal(t, 3, stats[0].Count)
}

func TestCountMentionsNoSourcesNoFallback(t *testing.T) {
	stats := CountMentions(nil, []string{"דוד לוי"})
	assert.Empty(t, stats)
}

func TestCountMentionsSortedDescending(t *testing.T) {
	names := []string{"דוד לוי", "רות כהן", "יוסי מזרחי"}
	sources := []model.SearchSource{
		{Snippet: "רות כהן וגם דוד לוי"},
		{Snippet: "רות כהן שוב"},
		{Snippet: "רות כהן ויוסי מזרחי"},
		{Snippet: "דוד לוי"},
		{Snippet: "רות כהן"},
	}

	stats := CountMentions(sources, names)
	require.Len(t, stats, 3)
	for i := 1; i < len(stats); i++ {
		assert.GreaterOrEqual(t, stats[i-1].Count, stats[i].Count)
	}
	assert.Equal(t, "רות כהן", stats[0].Name)
	assert.Equal(t, 4, stats[0].Count)
}
