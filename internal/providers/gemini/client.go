// Package gemini talks to the Gemini image model on behalf of the editor.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"visualizer/internal/domain"
	"visualizer/internal/infra"
)

const (
	// DefaultModel is the image-capable Gemini model used when none is configured.
	DefaultModel = "gemini-2.5-flash-image"

	responseModalityImage = "IMAGE"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// contentGenerator is the slice of the genai SDK the client depends on.
// *genai.Models satisfies it.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client edits images with a single generateContent call per request. It
// holds no per-request state and is safe for concurrent use.
type Client struct {
	models contentGenerator
	model  string
	logger *infra.Logger
}

// NewClient constructs a Gemini client. The API key is mandatory.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(base, "/") + "/"}
	}

	sdk, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newClient(sdk.Models, opts.Model, opts.Logger), nil
}

func newClient(models contentGenerator, model string, logger *infra.Logger) *Client {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Client{models: models, model: model, logger: logger}
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// EditImage sends the source image and the prompt to the model and returns
// the base64 payload of the first inline image in the response.
//
// Errors wrap domain.ErrRemoteCall when the call itself fails,
// domain.ErrNoImageInResponse when the response carries no image, and
// domain.ErrUnexpected for anything else.
func (c *Client) EditImage(ctx context.Context, imageBase64, mediaType, prompt string) (image string, err error) {
	data, decodeErr := base64.StdEncoding.DecodeString(imageBase64)
	if decodeErr != nil {
		return "", fmt.Errorf("%w: decode source image: %v", domain.ErrUnexpected, decodeErr)
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Interface("panic", r).
				Str("model", c.model).
				Msg("gemini: recovered from panic during generateContent")
			image, err = "", fmt.Errorf("%w: %v", domain.ErrUnexpected, r)
		}
	}()

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			genai.NewPartFromBytes(data, mediaType),
			genai.NewPartFromText(prompt),
		},
	}}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{responseModalityImage},
	}

	start := time.Now()
	resp, callErr := c.models.GenerateContent(ctx, c.model, contents, config)
	if callErr != nil {
		c.logger.Warn().
			Err(callErr).
			Str("model", c.model).
			Dur("elapsed", time.Since(start)).
			Msg("gemini: generateContent failed")
		return "", remoteFailure(callErr)
	}

	payload, ok := FirstInlineImage(resp)
	if !ok {
		c.logger.Warn().
			Str("model", c.model).
			Int("candidates", candidateCount(resp)).
			Msg("gemini: response carried no inline image")
		return "", domain.ErrNoImageInResponse
	}

	c.logger.Debug().
		Str("model", c.model).
		Str("source_type", mediaType).
		Int("source_bytes", len(data)).
		Int("result_base64_len", len(payload)).
		Dur("elapsed", time.Since(start)).
		Msg("gemini: image edited")

	return payload, nil
}

// FirstInlineImage scans candidates and their parts in order and returns the
// base64 payload of the first part carrying inline data.
func FirstInlineImage(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil {
		return "", false
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return base64.StdEncoding.EncodeToString(part.InlineData.Data), true
		}
	}
	return "", false
}

func remoteFailure(err error) error {
	detail := err.Error()
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		detail = apiErr.Message
	}
	return fmt.Errorf("%w: %s", domain.ErrRemoteCall, detail)
}

func candidateCount(resp *genai.GenerateContentResponse) int {
	if resp == nil {
		return 0
	}
	return len(resp.Candidates)
}
