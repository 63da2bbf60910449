package replygen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/faisalsajibwp/fiverr-chat-buddy/internal/infrastructure/monitoring/logging"
	"github.com/faisalsajibwp/fiverr-chat-buddy/pkg/errors"
)

// FallbackReply is returned to the caller whenever the generation API fails
// after retries, so the user-facing flow never dead-ends on a blank draft.
const FallbackReply = "Thanks for your message! I've received it and will get back to you " +
	"with a detailed reply shortly. If anything is urgent, just let me know."

// Generator is the boundary to the external generative-language API.  The
// only obligation of implementations is: prompt in, generated text or error
// out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ClientConfig carries the HTTP client parameters.
type ClientConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	Temperature     float64
	MaxOutputTokens int
	Timeout         time.Duration
	MaxRetries      int
}

// Client calls a generativelanguage-style REST endpoint
// (POST {base}/models/{model}:generateContent).
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	logger logging.Logger
}

// NewClient constructs a Client.  A nil httpClient falls back to one with
// the configured timeout.
func NewClient(cfg ClientConfig, httpClient *http.Client, logger logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger.Named("replygen")}
}

// Wire types for the generateContent call.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends the prompt and returns the first candidate's text.  A 429
// or 5xx response is retried with linear backoff up to MaxRetries; other
// failures surface immediately.  Callers are expected to substitute
// FallbackReply on error rather than propagating a dead-end to the user.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     c.cfg.Temperature,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CodeSerialization, "encode generation request")
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.cfg.BaseURL, url.PathEscape(c.cfg.Model), url.QueryEscape(c.cfg.APIKey))

	var lastErr error
	attempts := c.cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", errors.Wrap(ctx.Err(), errors.CodeGenerationTimeout, "generation cancelled")
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		text, retryable, err := c.doRequest(ctx, endpoint, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		c.logger.Warn("generation attempt failed, retrying",
			logging.Int("attempt", attempt+1),
			logging.Err(err),
		)
	}
	return "", errors.Wrap(lastErr, errors.CodeGenerationFailed, "generation API unavailable")
}

// doRequest performs one HTTP round trip.  The second return value reports
// whether the failure is retryable.
func (c *Client) doRequest(ctx context.Context, endpoint string, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", true, err
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("generation API returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("generation API returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", false, fmt.Errorf("decode generation response: %w", err)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("generation API error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", false, fmt.Errorf("generation API returned no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, false, nil
}
