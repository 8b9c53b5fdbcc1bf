package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"knesset-pulse/internal/knesset"
	"knesset-pulse/internal/logger"
	"knesset-pulse/internal/model"
	"knesset-pulse/internal/search"
)

// Validation failures are client errors, reported before any upstream call.
var (
	ErrNoMessages     = errors.New("לא נשלחו הודעות")
	ErrInvalidMessage = errors.New("מבנה הודעה לא תקין")
)

const (
	noMentionsText = `לא נמצאו אזכורים ברורים של ח"כים בתוצאות החיפוש.`
	noSourcesText  = "לא נמצאו מקורות בחיפוש."

	systemPrompt = `אתה PoliticsAI, עוזר AI דובר עברית שמתמחה בפוליטיקה ישראלית, מסכם תוצאות חיפוש ומספק תשובות מבוססות מקור.`
)

// AnswerService composes search-augmented answers: web search, live member
// mention statistics, then one structured prompt to the language model.
type AnswerService struct {
	ai      *AIService
	search  *search.Client
	knesset *knesset.Client
}

func NewAnswerService(ai *AIService, searchClient *search.Client, knessetClient *knesset.Client) *AnswerService {
	return &AnswerService{ai: ai, search: searchClient, knesset: knessetClient}
}

// Answer resolves one conversation into an answer plus its sources and
// mention statistics. When flush is non-nil the answer text is also
// delivered incrementally through it.
func (s *AnswerService) Answer(ctx context.Context, messages []model.ChatMessage, flush func(string)) (*model.ChatAnswer, error) {
	question, err := lastUserText(messages)
	if err != nil {
		return nil, err
	}

	sources, err := s.search.Search(ctx, question)
	if err != nil {
		return nil, err
	}
	images := s.search.SearchImages(ctx, question)

	// Live directory lookup, independent of the synced store. Failure here
	// only disables name matching; the mention counter then falls back to
	// its word-frequency heuristic.
	var names []string
	if members, err := s.knesset.FetchMembers(ctx); err != nil {
		logger.Warn("directory fetch for mentions failed", "err", err)
	} else {
		for _, m := range members {
			if n := m.DisplayName(); n != "" {
				names = append(names, n)
			}
		}
	}
	stats := search.CountMentions(sources, names)

	prompt := buildPrompt(question, sources, stats)

	var answer string
	if flush != nil {
		answer, err = s.ai.Stream(ctx, systemPrompt, prompt, flush)
		if err != nil && answer != "" {
			// Partial answers were already delivered in-band; keep them.
			logger.Error("answer stream ended early", "err", err)
			err = nil
		}
	} else {
		answer, err = s.ai.Chat(ctx, systemPrompt, prompt)
	}
	if err != nil {
		return nil, err
	}

	return &model.ChatAnswer{
		Answer:  answer,
		Sources: sources,
		Stats:   stats,
		Images:  images,
	}, nil
}

// ValidateConversation reports the client error for an unusable message
// list, before any upstream call would be made.
func ValidateConversation(messages []model.ChatMessage) error {
	_, err := lastUserText(messages)
	return err
}

func lastUserText(messages []model.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}
	text, ok := messages[len(messages)-1].Content.(string)
	if !ok || text == "" {
		return "", ErrInvalidMessage
	}
	return text, nil
}

func buildPrompt(question string, sources []model.SearchSource, stats []model.MentionStat) string {
	var src strings.Builder
	if len(sources) == 0 {
		src.WriteString(noSourcesText)
	} else {
		for i, s := range sources {
			if i >= 10 {
				break
			}
			if i > 0 {
				src.WriteString("\n\n")
			}
			fmt.Fprintf(&src, "%d. %s\n%s\n%s", i+1, s.Title, s.Snippet, s.Link)
		}
	}

	var st strings.Builder
	if len(stats) == 0 {
		st.WriteString(noMentionsText)
	} else {
		for i, m := range stats {
			if i >= 20 {
				break
			}
			if i > 0 {
				st.WriteString("\n")
			}
			fmt.Fprintf(&st, "- %s: הופיע/אזכר %d פעמים בתוצאות חיפוש", m.Name, m.Count)
		}
	}

	return fmt.Sprintf(`אתה PoliticsAI, עוזר AI המתמחה בפוליטיקה ישראלית והכנסת. השאלה של המשתמש: "%s"

להלן תוצאות חיפוש מגוגל:
%s

אזכורים של ח"כים:
%s

ענה בעברית בצורה תמציתית, מקצועית וטבעית. התמקד בהיבטים פוליטיים אם רלוונטי. ציין 3 מקורות מובילים. אם חסר מידע, אמור זאת. התשובה צריכה להיות מלאה, ללא קטיעות.`,
		question, src.String(), st.String())
}
