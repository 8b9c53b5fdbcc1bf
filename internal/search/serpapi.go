package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"knesset-pulse/internal/config"
	"knesset-pulse/internal/logger"
	"knesset-pulse/internal/model"
)

// ErrMissingKey reports an absent SerpAPI credential. It is a configuration
// error and must fail the request fast rather than degrade silently.
var ErrMissingKey = errors.New("serpapi api key not configured")

const noTitle = "אין כותרת"

// Client issues SerpAPI web and image searches.
type Client struct {
	baseURL  string
	apiKey   string
	language string
	region   string
	results  int
	client   *http.Client
}

func NewClient(cfg config.SearchConfig) *Client {
	return &Client{
		baseURL:  "https://serpapi.com",
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		region:   cfg.Region,
		results:  cfg.Results,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SetBaseURL points the client at a different endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

type organicResult struct {
	Title              string `json:"title"`
	TitleNoFormatting  string `json:"title_no_formatting"`
	Snippet            string `json:"snippet"`
	SnippetHighlighted string `json:"snippet_highlighted"`
	Link               string `json:"link"`
	URL                string `json:"url"`
	SerpapiLink        string `json:"serpapi_link"`
	Thumbnail          string `json:"thumbnail"`
}

// Search runs one locale-constrained query and maps every raw result through
// a prioritized field-fallback chain so the returned sources are never
// partially populated.
func (c *Client) Search(ctx context.Context, query string) ([]model.SearchSource, error) {
	if c.apiKey == "" {
		return nil, ErrMissingKey
	}

	u := fmt.Sprintf("%s/search.json?q=%s&hl=%s&gl=%s&num=%d&source=web&api_key=%s",
		c.baseURL, url.QueryEscape(query), c.language, c.region, c.results, c.apiKey)

	var out struct {
		OrganicResults []organicResult `json:"organic_results"`
	}
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("serpapi search: %w", err)
	}

	sources := make([]model.SearchSource, 0, len(out.OrganicResults))
	for _, r := range out.OrganicResults {
		sources = append(sources, mapOrganic(r))
	}
	return sources, nil
}

// SearchImages is best-effort: any failure yields an empty list and never
// fails the overall search operation.
func (c *Client) SearchImages(ctx context.Context, query string) []string {
	if c.apiKey == "" {
		return nil
	}

	u := fmt.Sprintf("%s/search.json?engine=google_images&q=%s&num=%d&api_key=%s",
		c.baseURL, url.QueryEscape(query+" images"), c.results, c.apiKey)

	var out struct {
		ImagesResults []struct {
			Thumbnail string `json:"thumbnail"`
			Original  string `json:"original"`
		} `json:"images_results"`
	}
	if err := c.getJSON(ctx, u, &out); err != nil {
		logger.Warn("image search failed", "query", query, "err", err)
		return nil
	}

	images := make([]string, 0, len(out.ImagesResults))
	for _, img := range out.ImagesResults {
		if img.Thumbnail != "" {
			images = append(images, img.Thumbnail)
		} else if img.Original != "" {
			images = append(images, img.Original)
		}
	}
	return images
}

func mapOrganic(r organicResult) model.SearchSource {
	src := model.SearchSource{
		Title:   firstNonEmpty(r.Title, r.TitleNoFormatting, r.SerpapiLink, noTitle),
		Snippet: firstNonEmpty(r.Snippet, r.SnippetHighlighted, ""),
		Link:    firstNonEmpty(r.Link, r.URL, r.SerpapiLink, ""),
		Images:  []string{},
	}
	if r.Thumbnail != "" {
		src.Images = []string{r.Thumbnail}
	}
	return src
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *Client) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, data)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
