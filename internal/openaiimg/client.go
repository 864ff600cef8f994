package openaiimg

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-image-1"

type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client generates base images through the OpenAI images API.
type Client struct {
	api    *openai.Client
	model  string
	logger *slog.Logger
}

func New(opts Options) *Client {
	clientConfig := openai.DefaultConfig(opts.APIKey)
	if base := strings.TrimRight(opts.BaseURL, "/"); base != "" {
		clientConfig.BaseURL = base
	}
	if opts.HTTPClient != nil {
		clientConfig.HTTPClient = opts.HTTPClient
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		api:    openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger,
	}
}

// Generate requests a single image of exactly width x height and returns the
// decoded image bytes. Any API or transport failure comes back as an error for
// the caller to treat as a per-item failure.
func (c *Client) Generate(ctx context.Context, prompt string, width, height int) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("prompt is empty")
	}

	size := fmt.Sprintf("%dx%d", width, height)
	c.logger.Debug("requesting base image", "model", c.model, "size", size)

	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Model:   c.model,
		Prompt:  prompt,
		Size:    size,
		Quality: "high",
		N:       1,
	})
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("image response contains no data")
	}

	b64 := resp.Data[0].B64JSON
	if b64 == "" {
		return nil, errors.New("image response contains no b64_json payload")
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}

	return data, nil
}
