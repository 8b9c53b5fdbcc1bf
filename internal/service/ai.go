package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"knesset-pulse/internal/config"
	"knesset-pulse/internal/logger"
)

const streamChunkError = "שגיאה בעיבוד התגובה מהמודל"

// AIService dispatches prompts to the configured language-model provider:
// an OpenAI-compatible chat completions endpoint (with SSE streaming) or
// Gemini generateContent (single response only).
type AIService struct {
	cfg    config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{cfg: cfg, client: &http.Client{Timeout: 30 * time.Second}}
}

func (s *AIService) Provider() string { return s.cfg.Provider }

// Chat sends one prompt and returns the full answer text.
func (s *AIService) Chat(ctx context.Context, system, user string) (string, error) {
	if s.cfg.Provider == "gemini" {
		return s.Gemini(ctx, joinPrompt(system, user))
	}
	return s.doChat(ctx, system, user, false, nil)
}

// Stream sends one prompt and delivers the answer incrementally through
// flush. Gemini has no streaming surface here, so its full answer is flushed
// in one piece.
func (s *AIService) Stream(ctx context.Context, system, user string, flush func(string)) (string, error) {
	if s.cfg.Provider == "gemini" {
		answer, err := s.Gemini(ctx, joinPrompt(system, user))
		if err != nil {
			return "", err
		}
		if flush != nil {
			flush(answer)
		}
		return answer, nil
	}
	return s.doChat(ctx, system, user, true, flush)
}

func (s *AIService) doChat(ctx context.Context, system, user string, stream bool, flush func(string)) (string, error) {
	if s.cfg.OpenAI.APIKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY not set")
	}

	body := map[string]interface{}{
		"model":  s.cfg.OpenAI.Model,
		"stream": stream,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": 0.2,
		"max_tokens":  800,
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", strings.TrimRight(s.cfg.OpenAI.BaseURL, "/")+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.OpenAI.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("llm status %d: %s", resp.StatusCode, data)
	}

	if !stream {
		data, _ := io.ReadAll(resp.Body)
		var result struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if len(result.Choices) == 0 {
			return "", fmt.Errorf("empty choices")
		}
		return result.Choices[0].Message.Content, nil
	}

	scanner := bufio.NewScanner(resp.Body)
	var full strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := line[6:]
		if data == "[DONE]" {
			break
		}
		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Deliver what arrived so far, then end the stream with an
			// in-band notice instead of dropping the connection.
			logger.Error("malformed stream chunk", "err", err)
			if flush != nil {
				flush(streamChunkError)
			}
			return full.String(), fmt.Errorf("malformed stream chunk: %w", err)
		}
		if len(chunk.Choices) > 0 {
			token := chunk.Choices[0].Delta.Content
			if token != "" {
				full.WriteString(token)
				if flush != nil {
					flush(token)
				}
			}
		}
	}
	return full.String(), nil
}

// Gemini sends one prompt to generateContent and returns the answer text.
func (s *AIService) Gemini(ctx context.Context, prompt string) (string, error) {
	if s.cfg.Gemini.APIKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}

	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     0.2,
			"maxOutputTokens": 800,
		},
	}
	payload, _ := json.Marshal(body)

	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(s.cfg.Gemini.BaseURL, "/"), s.cfg.Gemini.Model, s.cfg.Gemini.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini call: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("gemini status %d: %s", resp.StatusCode, data)
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty candidates")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

func joinPrompt(system, user string) string {
	if system == "" {
		return user
	}
	return system + "\n\n" + user
}
