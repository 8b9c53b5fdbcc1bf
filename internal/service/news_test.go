package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"knesset-pulse/internal/config"
	"knesset-pulse/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff(t *testing.T) {
	t.Run("retries only on 503", func(t *testing.T) {
		var attempts int
		result, err := retryWithBackoff(func() (string, error) {
			attempts++
			if attempts < 3 {
				return "", errors.New("gemini status 503: overloaded")
			}
			return "ok", nil
		}, 3, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, attempts)
	})

	t.Run("other errors propagate immediately", func(t *testing.T) {
		var attempts int
		_, err := retryWithBackoff(func() (string, error) {
			attempts++
			return "", errors.New("gemini status 400: bad request")
		}, 3, time.Millisecond)
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var attempts int
		_, err := retryWithBackoff(func() (string, error) {
			attempts++
			return "", errors.New("gemini status 503: overloaded")
		}, 3, time.Millisecond)
		require.Error(t, err)
		assert.Equal(t, 3, attempts)
	})
}

const geminiPosts = `[
	{"title": "כותרת", "summary": "סיכום", "quote": "ציטוט",
	 "sources": ["https://news.example"], "imageDescription": "דיון בכנסת",
	 "videoUrl": "https://youtube.example", "category": "פוליטיקה"}
]`

func geminiBody(text string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(b)
}

func newNewsFixture(t *testing.T, geminiCalls *int32, geminiText string) *NewsService {
	t.Helper()

	geminiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(geminiCalls, 1)
		w.Write([]byte(geminiBody(geminiText)))
	}))
	t.Cleanup(geminiSrv.Close)

	unsplashSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"urls": {"regular": "https://images.example/knesset.jpg"}}]}`))
	}))
	t.Cleanup(unsplashSrv.Close)

	ai := NewAIService(config.AIConfig{
		Provider: "gemini",
		Gemini:   config.GeminiConfig{BaseURL: geminiSrv.URL, APIKey: "k", Model: "m"},
	})
	svc := NewNewsService(ai, NewStatsService(newTestDB(t)), config.NewsConfig{
		UnsplashKey:  "uk",
		CacheFile:    filepath.Join(t.TempDir(), "posts_cache.json"),
		CacheTTLDays: 3,
	})
	svc.SetUnsplashURL(unsplashSrv.URL)
	return svc
}

func TestNewsPostsGeneratesAndCaches(t *testing.T) {
	var calls int32
	svc := newNewsFixture(t, &calls, "```json\n"+geminiPosts+"\n```")

	posts, err := svc.Posts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "post-0", posts[0].ID)
	assert.Equal(t, "כותרת", posts[0].Title)
	assert.Equal(t, "https://images.example/knesset.jpg", posts[0].ImageURL)

	// Second call is served from the fresh cache file.
	again, err := svc.Posts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, posts, again)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNewsPostsStaleCacheRegenerates(t *testing.T) {
	var calls int32
	svc := newNewsFixture(t, &calls, geminiPosts)

	stale, _ := json.Marshal(newsCache{
		Posts:     []model.NewsPost{{ID: "old"}},
		Timestamp: time.Now().Add(-4 * 24 * time.Hour).UnixMilli(),
	})
	require.NoError(t, os.WriteFile(svc.cfg.CacheFile, stale, 0644))

	posts, err := svc.Posts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "post-0", posts[0].ID)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNewsPostsParseError(t *testing.T) {
	var calls int32
	svc := newNewsFixture(t, &calls, "this is not json")

	_, err := svc.Posts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse generated posts")
	assert.Contains(t, err.Error(), "this is not json", "raw response is retained for diagnosis")
}

func TestNewsPostsMissingUnsplashKey(t *testing.T) {
	ai := NewAIService(config.AIConfig{Provider: "gemini"})
	svc := NewNewsService(ai, NewStatsService(newTestDB(t)), config.NewsConfig{
		CacheFile:    filepath.Join(t.TempDir(), "posts_cache.json"),
		CacheTTLDays: 3,
	})

	_, err := svc.Posts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsplash")
}
