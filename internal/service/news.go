package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"knesset-pulse/internal/config"
	"knesset-pulse/internal/logger"
	"knesset-pulse/internal/model"
)

const stockImageURL = "https://images.unsplash.com/photo-1542281286-9e0a16bb7366?ixlib=rb-4.0.3&q=80&fm=jpg&crop=entropy&cs=tinysrgb"

// NewsService generates the Hebrew news digest: Gemini generation with
// backoff, Unsplash image enrichment and a time-based JSON file cache that
// bounds how often the generation pipeline runs.
type NewsService struct {
	ai          *AIService
	stats       *StatsService
	cfg         config.NewsConfig
	unsplashURL string
	client      *http.Client
	mu          sync.Mutex
}

func NewNewsService(ai *AIService, stats *StatsService, cfg config.NewsConfig) *NewsService {
	return &NewsService{
		ai:          ai,
		stats:       stats,
		cfg:         cfg,
		unsplashURL: "https://api.unsplash.com",
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// SetUnsplashURL points the image lookup at a different endpoint. Used by tests.
func (s *NewsService) SetUnsplashURL(u string) { s.unsplashURL = u }

type newsCache struct {
	Posts     []model.NewsPost `json:"posts"`
	Timestamp int64            `json:"timestamp"`
}

// Posts serves the cached digest when it is fresher than the TTL, otherwise
// regenerates it. Generation is serialized so concurrent requests cannot
// trigger duplicate model calls.
func (s *NewsService) Posts(ctx context.Context) ([]model.NewsPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached := s.readCache(); cached != nil {
		return cached.Posts, nil
	}

	posts, err := s.generate(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(posts)
	return posts, nil
}

func (s *NewsService) readCache() *newsCache {
	data, err := os.ReadFile(s.cfg.CacheFile)
	if err != nil {
		return nil
	}
	var cached newsCache
	if err := json.Unmarshal(data, &cached); err != nil || cached.Timestamp == 0 {
		logger.Warn("news cache unreadable, regenerating", "file", s.cfg.CacheFile)
		return nil
	}
	ttl := time.Duration(s.cfg.CacheTTLDays) * 24 * time.Hour
	if time.Since(time.UnixMilli(cached.Timestamp)) > ttl {
		return nil
	}
	return &cached
}

func (s *NewsService) writeCache(posts []model.NewsPost) {
	data, _ := json.Marshal(newsCache{Posts: posts, Timestamp: time.Now().UnixMilli()})
	os.MkdirAll(filepath.Dir(s.cfg.CacheFile), 0755)
	if err := os.WriteFile(s.cfg.CacheFile, data, 0644); err != nil {
		logger.Warn("news cache write failed", "err", err)
	}
}

type rawPost struct {
	Title            string   `json:"title"`
	Summary          string   `json:"summary"`
	Quote            string   `json:"quote"`
	Sources          []string `json:"sources"`
	ImageDescription string   `json:"imageDescription"`
	VideoURL         string   `json:"videoUrl"`
	Category         string   `json:"category"`
}

func (s *NewsService) generate(ctx context.Context) ([]model.NewsPost, error) {
	if s.cfg.UnsplashKey == "" {
		return nil, fmt.Errorf("unsplash api key not configured")
	}

	lastWeek := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	prompt := newsPrompt(lastWeek, s.stats.StatsContext(ctx))

	raw, err := retryWithBackoff(func() (string, error) {
		return s.ai.Gemini(ctx, prompt)
	}, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("generate posts: %w", err)
	}

	jsonStr := strings.TrimSpace(strings.NewReplacer("```json", "", "```", "").Replace(raw))
	var rawPosts []rawPost
	if err := json.Unmarshal([]byte(jsonStr), &rawPosts); err != nil {
		return nil, fmt.Errorf("parse generated posts: %w; raw response: %s", err, raw)
	}

	if len(rawPosts) > 5 {
		rawPosts = rawPosts[:5]
	}
	posts := make([]model.NewsPost, 0, len(rawPosts))
	for i, p := range rawPosts {
		query := p.ImageDescription
		if query == "" {
			query = "Israeli Knesset discussion"
		}
		posts = append(posts, model.NewsPost{
			ID:       fmt.Sprintf("post-%d", i),
			Title:    p.Title,
			Summary:  p.Summary,
			Quote:    p.Quote,
			Sources:  p.Sources,
			VideoURL: p.VideoURL,
			Category: p.Category,
			ImageURL: s.fetchUnsplashImage(ctx, query),
		})
	}
	return posts, nil
}

// fetchUnsplashImage looks up one landscape photo for the query. Lookup
// failures degrade to a stock image; they never fail the digest.
func (s *NewsService) fetchUnsplashImage(ctx context.Context, query string) string {
	u := fmt.Sprintf("%s/search/photos?query=%s&per_page=1&orientation=landscape&client_id=%s",
		s.unsplashURL, url.QueryEscape(query), s.cfg.UnsplashKey)

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return stockImageURL
	}
	resp, err := s.client.Do(req)
	if err != nil {
		logger.Warn("unsplash lookup failed", "query", query, "err", err)
		return stockImageURL
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		logger.Warn("unsplash lookup failed", "query", query, "status", resp.StatusCode)
		return stockImageURL
	}

	var out struct {
		Results []struct {
			URLs struct {
				Regular string `json:"regular"`
			} `json:"urls"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || len(out.Results) == 0 {
		return stockImageURL
	}
	return out.Results[0].URLs.Regular
}

// retryWithBackoff retries fn with exponential delay, but only when the
// failure looks like upstream unavailability. Everything else propagates
// immediately.
func retryWithBackoff(fn func() (string, error), maxRetries int, baseDelay time.Duration) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if strings.Contains(err.Error(), "503") && attempt < maxRetries {
			delay := baseDelay << (attempt - 1)
			logger.Warn("generation attempt failed, retrying", "attempt", attempt, "delay", delay.String())
			time.Sleep(delay)
			continue
		}
		return "", err
	}
	return "", lastErr
}

func newsPrompt(lastWeek, statsContext string) string {
	return fmt.Sprintf(`צור 5 פוסטים חדשותיים קצרים, מעניינים ומסקרנים על הדיונים המשפיעים ביותר בכנסת ישראל השבוע (מ-%s). לכל פוסט כלול:
- title: כותרת קצרה וקליטה
- summary: סיכום קצר של עד 400 מילים בעברית, מעניין וקולע
- quote: ציטוט קצר ומשמעותי של דובר
- sources: מערך של 2-3 קישורים חדשותיים אמיתיים
- imageDescription: תיאור קצר של תמונה רלוונטית
- videoUrl: URL של וידאו YouTube רלוונטי
- category: בחר קטגוריה אחת שמתאימה: פוליטיקה, כלכלה, ביטחון, יחסי חוץ, חברה

%s

החזר רק JSON תקין של מערך אובייקטים, ללא טקסט נוסף מחוץ ל-JSON.`, lastWeek, statsContext)
}
