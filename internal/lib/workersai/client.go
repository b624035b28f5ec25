// Package workersai provides the text-to-speech client for
// Cloudflare Workers AI.
//
// It calls the REST endpoint of a single model
// (`@cf/myshell-ai/melotts` by default) and returns the base64
// audio payload from the response envelope untouched.
package workersai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deppfellow/speech-relay/internal/config"
	"github.com/deppfellow/speech-relay/internal/metrics"
	"github.com/deppfellow/speech-relay/internal/model"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var _ HTTPClient = http.DefaultClient

// HTTPClient is the subset of *http.Client the client needs.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ model.Synthesizer = (*Client)(nil)

// Client calls one Workers AI model on behalf of one account.
type Client struct {
	cfg        *config.SynthesisConfig
	httpClient HTTPClient
	logger     *zerolog.Logger
}

// NewClient creates a Workers AI client.
func NewClient(httpClient HTTPClient, cfg *config.SynthesisConfig, logger *zerolog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

type runRequest struct {
	Prompt string `json:"prompt"`
	Lang   string `json:"lang"`
}

type apiMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type runResponse struct {
	Result  *model.SynthesisResult `json:"result"`
	Success bool                   `json:"success"`
	Errors  []apiMessage           `json:"errors"`
}

// endpoint builds {base}/accounts/{account}/ai/run/{model}.
// The model name keeps its slashes; it is part of the path.
func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/accounts/%s/ai/run/%s",
		strings.TrimSuffix(c.cfg.BaseURL, "/"),
		url.PathEscape(c.cfg.AccountID),
		strings.TrimPrefix(c.cfg.Model, "/"),
	)
}

// Synthesize runs the model once. There are no retries; the first failure is returned.
func (c *Client) Synthesize(ctx context.Context, req *model.SynthesisRequest) (*model.SynthesisResult, error) {
	start := time.Now()
	defer func() {
		metrics.UpstreamQueryTime.Observe(time.Since(start).Seconds())
	}()

	data, err := json.Marshal(&runRequest{
		Prompt: req.Prompt,
		Lang:   req.Lang,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)

	resp, err := c.httpClient.Do(request)
	if err != nil {
		metrics.ObserveUpstreamError(0)
		return nil, errors.Wrap(err, "failed to post to workers ai")
	}
	defer drainAndClose(resp.Body)

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveUpstreamError(resp.StatusCode)
		return nil, errors.Wrap(err, "failed to read body")
	}

	envelope := &runResponse{}
	decodeErr := json.Unmarshal(respData, envelope)

	if resp.StatusCode > 299 || (decodeErr == nil && !envelope.Success) {
		metrics.ObserveUpstreamError(resp.StatusCode)

		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("model", c.cfg.Model).
			Dur("duration", time.Since(start)).
			Msg("workers ai rejected the request")

		return nil, upstreamError(resp.StatusCode, envelope.Errors, respData)
	}

	if decodeErr != nil {
		metrics.ObserveUpstreamError(resp.StatusCode)
		return nil, errors.Wrap(decodeErr, "failed to unmarshal workers ai response")
	}

	if envelope.Result == nil || envelope.Result.Audio == "" {
		metrics.ObserveUpstreamError(resp.StatusCode)
		return nil, errors.New("workers ai returned no audio")
	}

	c.logger.Debug().
		Str("model", c.cfg.Model).
		Int("audio_len", len(envelope.Result.Audio)).
		Dur("duration", time.Since(start)).
		Msg("speech generated")

	return envelope.Result, nil
}

// upstreamError prefers the messages of the API envelope and falls back to the raw body.
func upstreamError(status int, apiErrors []apiMessage, body []byte) error {
	if len(apiErrors) > 0 {
		messages := make([]string, 0, len(apiErrors))
		for _, e := range apiErrors {
			messages = append(messages, e.Message)
		}
		return errors.Errorf("workers ai status code %d: %s", status, strings.Join(messages, "; "))
	}

	return errors.Errorf("workers ai status code %d: %s", status, strings.TrimSpace(string(body)))
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
