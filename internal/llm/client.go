package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emberline/inboxsim/internal/pkg/logger"
)

const systemPrompt = "You are a helpful assistant simulating a specific persona. " +
	"Always respond in valid JSON when requested."

// Client is the production completion provider, backed by any
// OpenAI-compatible chat-completions endpoint (OpenAI, LM Studio, vLLM).
//
// Each Complete call makes up to maxAttempts attempts. Failures are
// classified by message content: timeout-shaped and connection-shaped
// failures are retried with exponential backoff, anything else fails
// immediately.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxAttempts int
	httpClient  *http.Client

	// sleep is swapped out in tests to collapse the backoff schedule.
	sleep func(time.Duration)
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
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewClient creates the OpenAI-compatible completion client from opts,
// applying the documented defaults for anything unset.
func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "http://127.0.0.1:1234/v1"
	}
	model := opts.Model
	if model == "" {
		model = "local-model"
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	timeout := time.Duration(opts.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      opts.APIKey,
		model:       model,
		maxAttempts: attempts,
		httpClient:  &http.Client{Timeout: timeout},
		sleep:       time.Sleep,
	}
}

// Complete sends the prompt and returns the raw completion text. Timeout and
// connection failures are retried up to maxAttempts with 2^attempt-second
// backoff; exhaustion surfaces as ErrTimeout or ErrProvider respectively.
// Any other failure returns immediately.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		logger.Debug("completion attempt", "attempt", attempt+1, "max", c.maxAttempts)

		content, err := c.call(ctx, prompt)
		if err == nil {
			logger.Debug("completion received", "chars", len(content))
			return content, nil
		}
		lastErr = err

		switch classify(err) {
		case failTimeout:
			if attempt < c.maxAttempts-1 {
				c.backoff(attempt)
				continue
			}
			logger.Error("completion timed out", "attempts", c.maxAttempts, "error", err)
			return "", fmt.Errorf("%w after %d attempts: %v", ErrTimeout, c.maxAttempts, err)
		case failConnection:
			if attempt < c.maxAttempts-1 {
				c.backoff(attempt)
				continue
			}
			logger.Error("completion endpoint unreachable", "attempts", c.maxAttempts, "error", err)
			return "", fmt.Errorf("%w: connect: %v", ErrProvider, err)
		default:
			logger.Error("completion failed", "error", err)
			return "", fmt.Errorf("%w: %v", ErrProvider, err)
		}
	}

	return "", fmt.Errorf("%w after %d attempts: %v", ErrProvider, c.maxAttempts, lastErr)
}

func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %v (body: %s)", err, logger.Truncate(string(raw), 200))
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API status %d: %s", resp.StatusCode, logger.Truncate(string(raw), 200))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *Client) backoff(attempt int) {
	wait := time.Duration(1<<uint(attempt)) * time.Second
	logger.Info("retrying completion", "wait", wait)
	c.sleep(wait)
}

type failureClass int

const (
	failOther failureClass = iota
	failTimeout
	failConnection
)

// classify buckets a transport error by message content. The upstream error
// surface is too varied (net errors, gateway bodies, SDK strings) for typed
// matching to be reliable here.
func classify(err error) failureClass {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "deadline exceeded"):
		return failTimeout
	case strings.Contains(msg, "connection"),
		strings.Contains(msg, "network"),
		strings.Contains(msg, "no such host"):
		return failConnection
	}
	return failOther
}
