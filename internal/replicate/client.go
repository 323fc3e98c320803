package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"neogen/internal/domain"
	"neogen/internal/infra"
)

const DefaultBaseURL = "https://api.replicate.com/v1"

// ErrMissingToken indicates that the client was configured without credentials.
var ErrMissingToken = errors.New("replicate: api token is required")

// APIError is returned when the service answers with a non-success status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("replicate: status %d", e.StatusCode)
	}
	return fmt.Sprintf("replicate: status %d: %s", e.StatusCode, body)
}

// Options configures the predictions client.
type Options struct {
	BaseURL        string
	Token          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client talks to the predictions endpoints of the Replicate HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *infra.Logger
}

// PredictionInput is the model input sent on creation.
type PredictionInput struct {
	Prompt            string   `json:"prompt"`
	ImageInput        []string `json:"image_input"`
	GuidanceScale     float64  `json:"guidance_scale"`
	NumInferenceSteps int      `json:"num_inference_steps"`
}

// CreateRequest is the body of POST /predictions.
type CreateRequest struct {
	Version string          `json:"version"`
	Input   PredictionInput `json:"input"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
	URLs   struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
	} `json:"urls"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("replicate: invalid base url %q: %w", baseURL, err)
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(opts.Token),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.token != ""
}

// CreatePrediction submits a job and returns its handle plus the record as
// reported at creation time.
func (c *Client) CreatePrediction(ctx context.Context, req CreateRequest) (domain.JobHandle, *domain.JobRecord, error) {
	if !c.HasCredentials() {
		return domain.JobHandle{}, nil, ErrMissingToken
	}
	body, err := json.Marshal(req)
	if err != nil {
		return domain.JobHandle{}, nil, fmt.Errorf("replicate: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(body))
	if err != nil {
		return domain.JobHandle{}, nil, fmt.Errorf("replicate: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	decoded, raw, err := c.do(httpReq)
	if err != nil {
		return domain.JobHandle{}, nil, err
	}
	record := toRecord(decoded, raw)
	handle := domain.JobHandle{
		ID:      decoded.ID,
		PollURL: strings.TrimSpace(decoded.URLs.Get),
		Status:  record.Status,
	}
	c.logger.Debug().
		Str("job_id", handle.ID).
		Str("status", string(handle.Status)).
		Msg("replicate: prediction created")
	return handle, record, nil
}

// GetPrediction fetches the current state of a job from its status url.
func (c *Client) GetPrediction(ctx context.Context, pollURL string) (*domain.JobRecord, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingToken
	}
	parsed, err := url.Parse(strings.TrimSpace(pollURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("replicate: invalid status url: %q", pollURL)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("replicate: build request: %w", err)
	}
	decoded, raw, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	return toRecord(decoded, raw), nil
}

func (c *Client) do(req *http.Request) (predictionResponse, []byte, error) {
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return predictionResponse{}, nil, fmt.Errorf("replicate: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return predictionResponse{}, nil, fmt.Errorf("replicate: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return predictionResponse{}, raw, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	var decoded predictionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return predictionResponse{}, raw, fmt.Errorf("replicate: decode response: %w", err)
	}
	return decoded, raw, nil
}

func toRecord(resp predictionResponse, raw []byte) *domain.JobRecord {
	return &domain.JobRecord{
		ID:          resp.ID,
		Status:      domain.NormalizeJobStatus(resp.Status),
		Output:      nullable(resp.Output),
		ErrorDetail: errorText(resp.Error),
		Raw:         append(json.RawMessage(nil), raw...),
		FetchedAt:   time.Now(),
	}
}

func nullable(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return append(json.RawMessage(nil), trimmed...)
}

// errorText flattens the error field, which is a string on most models but
// occasionally an object.
func errorText(raw json.RawMessage) string {
	raw = nullable(raw)
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}
