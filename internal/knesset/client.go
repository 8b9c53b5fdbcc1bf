package knesset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"knesset-pulse/internal/config"
	"knesset-pulse/internal/logger"
)

// Client talks to the open Knesset read-only API.
type Client struct {
	baseURL      string
	memberLimit  int
	meetingLimit int
	client       *http.Client
}

func NewClient(cfg config.KnessetConfig) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		memberLimit:  cfg.MemberLimit,
		meetingLimit: cfg.MeetingLimit,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

type Member struct {
	ID                      int    `json:"id"`
	Name                    string `json:"name"`
	FullName                string `json:"full_name"`
	NameHe                  string `json:"name_he"`
	CurrentPartyName        string `json:"current_party_name"`
	CurrentRoleDescriptions string `json:"current_role_descriptions"`
	ImgURL                  string `json:"img_url"`
	Email                   string `json:"email"`
	Website                 string `json:"website"`
	Phone                   string `json:"phone"`
	StartDate               string `json:"start_date"`
	EndDate                 string `json:"end_date"`
	IsCurrent               bool   `json:"is_current"`
}

// DisplayName picks the first non-empty of the upstream name fields.
func (m Member) DisplayName() string {
	for _, n := range []string{m.Name, m.FullName, m.NameHe} {
		if s := strings.TrimSpace(n); s != "" {
			return s
		}
	}
	return ""
}

type Meeting struct {
	ID            int    `json:"id"`
	CommitteeName string `json:"committee_name"`
	Date          string `json:"date"`
}

type MeetingPart struct {
	Header string `json:"header"`
	Body   string `json:"body"`
}

type MeetingDetail struct {
	ID            int           `json:"id"`
	CommitteeName string        `json:"committee_name"`
	Date          string        `json:"date"`
	ProtocolText  string        `json:"protocol_text"`
	Parts         []MeetingPart `json:"parts"`
}

type Bill struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

type DataSearch struct {
	Members []Member `json:"members"`
	Bills   []Bill   `json:"bills"`
}

// FetchMembers returns the current roster, capped at the configured limit.
func (c *Client) FetchMembers(ctx context.Context) ([]Member, error) {
	var out struct {
		Objects []Member `json:"objects"`
	}
	path := fmt.Sprintf("/member/?is_current=true&limit=%d", c.memberLimit)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("fetch members: %w", err)
	}
	return out.Objects, nil
}

// FetchMeetings lists committee-meeting summaries for an inclusive date range.
func (c *Client) FetchMeetings(ctx context.Context, from, to string) ([]Meeting, error) {
	var out struct {
		Objects []Meeting `json:"objects"`
	}
	path := fmt.Sprintf("/committee-meeting/?date__gte=%s&date__lte=%s&limit=%d", from, to, c.meetingLimit)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("fetch meetings: %w", err)
	}
	return out.Objects, nil
}

func (c *Client) FetchMeetingDetail(ctx context.Context, id int) (*MeetingDetail, error) {
	var out MeetingDetail
	if err := c.getJSON(ctx, fmt.Sprintf("/committee-meeting/%d/", id), &out); err != nil {
		return nil, fmt.Errorf("fetch meeting %d: %w", id, err)
	}
	return &out, nil
}

// SearchData runs member and bill searches concurrently. Either side failing
// degrades to an empty list rather than failing the search.
func (c *Client) SearchData(ctx context.Context, query string) *DataSearch {
	q := url.QueryEscape(query)
	res := &DataSearch{Members: []Member{}, Bills: []Bill{}}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var out struct {
			Objects []Member `json:"objects"`
		}
		if err := c.getJSON(ctx, "/member/?search="+q+"&limit=10", &out); err != nil {
			logger.Warn("member search failed", "query", query, "err", err)
			return
		}
		res.Members = out.Objects
	}()
	go func() {
		defer wg.Done()
		var out struct {
			Objects []Bill `json:"objects"`
		}
		if err := c.getJSON(ctx, "/bill/?search="+q+"&limit=10", &out); err != nil {
			logger.Warn("bill search failed", "query", query, "err", err)
			return
		}
		res.Bills = out.Objects
	}()
	wg.Wait()
	return res
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
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
