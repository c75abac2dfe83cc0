// Package planner splits a free-text goal into dated daily steps. It asks an
// OpenAI-compatible chat completions endpoint first and falls back to a
// deterministic one-step-per-day plan whenever that call cannot be used.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"floorida/internal/models"
)

const systemPrompt = `You're a planning assistant. Split the user's goal into a set of daily steps between the given dates. Return ONLY strict JSON with the following shape: {"floors":[{"title":string,"date":"YYYY-MM-DD"}...]}. Dates must be within the inclusive range and sorted.`

const maxResponseBytes = 1 << 20

// MaxTitleLen is the longest step title, in runes, that fits a floor row.
const MaxTitleLen = 255

type Step struct {
	Title string
	Date  time.Time
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type Planner struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Planner {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	return &Planner{cfg: cfg, client: &http.Client{}}
}

// Plan never fails: any problem with the remote call yields Fallback.
func (p *Planner) Plan(ctx context.Context, goal string, start, end time.Time) []Step {
	start, end = models.Date(start), models.Date(end)
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return Fallback(goal, start, end)
	}
	steps, err := p.requestPlan(ctx, goal, start, end)
	if err != nil {
		log.Printf("planner: using fallback: %v", err)
		return Fallback(goal, start, end)
	}
	return steps
}

// Fallback returns one step per calendar day from start to end inclusive.
func Fallback(goal string, start, end time.Time) []Step {
	start, end = models.Date(start), models.Date(end)
	var steps []Step
	n := 1
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		suffix := fmt.Sprintf(" - 단계 %d", n)
		prefix := truncate(goal, MaxTitleLen-utf8.RuneCountInString(suffix))
		steps = append(steps, Step{Title: prefix + suffix, Date: d})
		n++
	}
	return steps
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *Planner) requestPlan(ctx context.Context, goal string, start, end time.Time) ([]Step, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("goal: %s\nstart: %s\nend: %s", goal, start.Format(models.DateLayout), end.Format(models.DateLayout))},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return nil, errors.New("empty completion")
	}
	steps, err := parseSteps(decoded.Choices[0].Message.Content, start, end)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, errors.New("no usable floors in completion")
	}
	return steps, nil
}

// parseSteps keeps candidates with a title and an in-range date; others are dropped.
func parseSteps(content string, start, end time.Time) ([]Step, error) {
	var payload struct {
		Floors []struct {
			Title string `json:"title"`
			Date  string `json:"date"`
		} `json:"floors"`
	}
	if err := json.Unmarshal([]byte(stripFence(content)), &payload); err != nil {
		return nil, fmt.Errorf("decode floors: %w", err)
	}
	var steps []Step
	for _, f := range payload.Floors {
		title := strings.TrimSpace(f.Title)
		if title == "" {
			continue
		}
		date, err := models.ParseDate(strings.TrimSpace(f.Date))
		if err != nil {
			continue
		}
		if date.Before(start) || date.After(end) {
			continue
		}
		steps = append(steps, Step{Title: truncate(title, MaxTitleLen), Date: date})
	}
	return steps, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func stripFence(content string) string {
	cleaned := strings.TrimSpace(content)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	nl := strings.IndexByte(cleaned, '\n')
	last := strings.LastIndex(cleaned, "```")
	if nl > 0 && last > nl {
		return strings.TrimSpace(cleaned[nl+1 : last])
	}
	return cleaned
}
