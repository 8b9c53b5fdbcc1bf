package knesset

import (
	"context"
	"strings"

	"knesset-pulse/internal/logger"
)

const excerptRunes = 500

// MeetingExcerpt keeps the opening of one speech for downstream LLM context.
type MeetingExcerpt struct {
	Committee string
	Date      string
	Text      string
}

// SpeechAggregate accumulates one speaker's activity over a week. Topics is
// insertion-ordered and de-duplicated so the first committee a speaker
// appeared in stays first.
type SpeechAggregate struct {
	SpeechCount int
	WordCount   int
	Topics      []string
	Meetings    []MeetingExcerpt
}

func (a *SpeechAggregate) addTopic(name string) {
	if name == "" {
		return
	}
	for _, t := range a.Topics {
		if t == name {
			return
		}
	}
	a.Topics = append(a.Topics, name)
}

// DetailFetcher loads the full transcript of one meeting.
type DetailFetcher func(ctx context.Context, id int) (*MeetingDetail, error)

// AggregateSpeeches groups transcript segments by their trimmed speaker
// label. A failed detail fetch is logged and the meeting skipped; it never
// aborts the aggregation.
func AggregateSpeeches(ctx context.Context, meetings []Meeting, fetch DetailFetcher) map[string]*SpeechAggregate {
	speeches := make(map[string]*SpeechAggregate)

	for _, meeting := range meetings {
		detail, err := fetch(ctx, meeting.ID)
		if err != nil {
			logger.Warn("meeting detail fetch failed, skipping", "meeting", meeting.ID, "err", err)
			continue
		}
		for _, part := range detail.Parts {
			name := strings.TrimSpace(part.Header)
			if name == "" || part.Body == "" {
				continue
			}
			agg, ok := speeches[name]
			if !ok {
				agg = &SpeechAggregate{}
				speeches[name] = agg
			}
			agg.SpeechCount++
			agg.WordCount += len(strings.Fields(part.Body))
			agg.addTopic(meeting.CommitteeName)
			agg.Meetings = append(agg.Meetings, MeetingExcerpt{
				Committee: meeting.CommitteeName,
				Date:      meeting.Date,
				Text:      excerpt(part.Body),
			})
		}
	}
	return speeches
}

func excerpt(body string) string {
	r := []rune(body)
	if len(r) > excerptRunes {
		return string(r[:excerptRunes])
	}
	return body
}
