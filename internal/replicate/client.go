package replicate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL      = "https://api.replicate.com"
	defaultPollInterval = 1500 * time.Millisecond

	modelOwner = "black-forest-labs"
	modelName  = "flux-fill-pro"
)

type Options struct {
	Token        string
	BaseURL      string
	HTTPClient   *http.Client
	Logger       *slog.Logger
	PollInterval time.Duration
}

// Client runs flux-fill-pro predictions against the Replicate HTTP API:
// create the prediction, wait for a terminal status, download the output.
type Client struct {
	token        string
	baseURL      string
	httpClient   *http.Client
	logger       *slog.Logger
	pollInterval time.Duration
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		token:        opts.Token,
		baseURL:      baseURL,
		httpClient:   opts.HTTPClient,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

type predictionInput struct {
	Prompt          string  `json:"prompt"`
	Image           string  `json:"image"`
	Mask            string  `json:"mask"`
	Steps           int     `json:"steps"`
	Guidance        float64 `json:"guidance"`
	OutputFormat    string  `json:"output_format"`
	SafetyTolerance int     `json:"safety_tolerance"`
}

type createPredictionRequest struct {
	Input predictionInput `json:"input"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
}

func (p prediction) terminal() bool {
	switch p.Status {
	case "succeeded", "failed", "canceled":
		return true
	}
	return false
}

func (p prediction) errorDetail() string {
	detail := strings.TrimSpace(string(p.Error))
	detail = strings.Trim(detail, `"`)
	if detail == "" || detail == "null" {
		return "no detail provided"
	}
	return detail
}

// Expand sends the PNG-encoded canvas and mask to flux-fill-pro and returns
// the filled image bytes. The model fills the white mask regions and leaves
// the black region untouched.
func (c *Client) Expand(ctx context.Context, canvasPNG, maskPNG []byte, prompt string) ([]byte, error) {
	if c.httpClient == nil {
		return nil, errors.New("http client is nil")
	}

	input := predictionInput{
		Prompt:          prompt,
		Image:           dataURL(canvasPNG),
		Mask:            dataURL(maskPNG),
		Steps:           50,
		Guidance:        2.5,
		OutputFormat:    "png",
		SafetyTolerance: 5,
	}

	pred, err := c.createPrediction(ctx, createPredictionRequest{Input: input})
	if err != nil {
		return nil, err
	}

	for !pred.terminal() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		pred, err = c.getPrediction(ctx, pred.ID)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("prediction status", "id", pred.ID, "status", pred.Status)
	}

	if pred.Status != "succeeded" {
		return nil, fmt.Errorf("prediction %s %s: %s", pred.ID, pred.Status, pred.errorDetail())
	}

	outputURL, err := outputURL(pred.Output)
	if err != nil {
		return nil, fmt.Errorf("prediction %s: %w", pred.ID, err)
	}

	return c.download(ctx, outputURL)
}

func (c *Client) createPrediction(ctx context.Context, payload createPredictionRequest) (prediction, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return prediction{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s/%s/predictions", c.baseURL, modelOwner, modelName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return prediction{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	// Ask the API to block until the prediction settles; polling below is the
	// fallback when it returns early.
	req.Header.Set("Prefer", "wait")

	return c.doPrediction(req)
}

func (c *Client) getPrediction(ctx context.Context, id string) (prediction, error) {
	url := fmt.Sprintf("%s/v1/predictions/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return prediction{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.doPrediction(req)
}

func (c *Client) doPrediction(req *http.Request) (prediction, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return prediction{}, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return prediction{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return prediction{}, fmt.Errorf("replicate API %s: %s", resp.Status, strings.TrimSpace(string(rawBody)))
	}

	var pred prediction
	if err := json.Unmarshal(rawBody, &pred); err != nil {
		return prediction{}, fmt.Errorf("decode response: %w", err)
	}

	return pred, nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download output: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("download output: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	return data, nil
}

// outputURL handles both output shapes the API uses: a single URL string or a
// list of URLs, in which case the first entry is the image.
func outputURL(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", errors.New("prediction succeeded without output")
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0] != "" {
		return list[0], nil
	}

	return "", fmt.Errorf("unexpected prediction output: %s", strings.TrimSpace(string(raw)))
}

func dataURL(pngData []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)
}
