package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

const (
	serviceName        = "replicate"
	defaultBaseURL     = "https://api.replicate.com/v1"
	defaultHTTPTimeout = 60 * time.Second
	userAgent          = "reelsmith"
)

// Config captures the runtime settings required to talk to the prediction API.
type Config struct {
	APIToken       string
	BaseURL        string
	TimeoutSeconds int
}

// Client wraps the prediction create/get endpoints and output downloads.
type Client struct {
	cfg            Config
	httpClient     *http.Client
	downloadClient *http.Client
	sleeper        func(time.Duration)
	now            func() time.Time
	logger         *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls and downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
			c.downloadClient = client
		}
	}
}

// WithSleeper overrides how poll sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithClock overrides the time source used for the elapsed-time bound.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger attaches a logger; the client logs under the "prediction" component.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "prediction")
	}
}

// NewClient constructs a prediction client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIToken:       strings.TrimSpace(cfg.APIToken),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:     &http.Client{Timeout: timeout},
		downloadClient: &http.Client{},
		now:            time.Now,
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

// NewClientFromConfig builds a client from the [replicate] section of cfg.
func NewClientFromConfig(cfg *config.Config, opts ...Option) *Client {
	return NewClient(Config{
		APIToken:       cfg.Replicate.APIToken,
		BaseURL:        cfg.Replicate.BaseURL,
		TimeoutSeconds: cfg.Replicate.TimeoutSeconds,
	}, opts...)
}

// Create submits a prediction for the given model version and input. Only
// 201 Created and 202 Accepted count as a successful submission.
func (c *Client) Create(ctx context.Context, version string, input map[string]any) (Prediction, error) {
	var created Prediction
	stage := stageName(ctx)
	if strings.TrimSpace(c.cfg.APIToken) == "" {
		return created, services.Wrap(services.ErrMissingCredentials, stage, "create prediction", "api token required", nil)
	}
	version = strings.TrimSpace(version)
	if version == "" {
		return created, services.Wrap(services.ErrConfiguration, stage, "create prediction", "model version required", nil)
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "predictions")
	if err != nil {
		return created, services.Wrap(services.ErrConfiguration, stage, "create prediction", "build url", err)
	}
	encoded, err := json.Marshal(createRequest{Version: version, Input: input})
	if err != nil {
		return created, fmt.Errorf("create prediction: encode body: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodPost, endpoint, encoded)
	if err != nil {
		return created, services.Wrap(services.ErrExternalService, stage, "create prediction", "", err)
	}
	if status != http.StatusCreated && status != http.StatusAccepted {
		return created, services.NewHTTPError(services.ErrExternalService, serviceName, "create prediction", status, body)
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return created, services.Wrap(services.ErrExternalService, stage, "create prediction", "decode response", err)
	}
	if strings.TrimSpace(created.ID) == "" {
		return created, services.Wrap(services.ErrExternalService, stage, "create prediction", "response missing prediction id", nil)
	}
	logging.WithContext(ctx, c.logger).Info(
		"prediction submitted",
		logging.Prediction(created.ID),
		logging.String("status", string(created.Status)),
		logging.String("version", shortVersion(version)),
	)
	return created, nil
}

// Get fetches the current state of a prediction.
func (c *Client) Get(ctx context.Context, id string) (Prediction, error) {
	var current Prediction
	stage := stageName(ctx)
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "predictions", id)
	if err != nil {
		return current, services.Wrap(services.ErrConfiguration, stage, "get prediction", "build url", err)
	}
	status, body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return current, services.Wrap(services.ErrExternalService, stage, "get prediction", "", err)
	}
	if status != http.StatusOK {
		return current, services.NewHTTPError(services.ErrExternalService, serviceName, "get prediction", status, body)
	}
	if err := json.Unmarshal(body, &current); err != nil {
		return current, services.Wrap(services.ErrExternalService, stage, "get prediction", "decode response", err)
	}
	return current, nil
}

// HealthCheck calls the account endpoint to confirm the token is accepted.
func (c *Client) HealthCheck(ctx context.Context) error {
	stage := stageName(ctx)
	if strings.TrimSpace(c.cfg.APIToken) == "" {
		return services.Wrap(services.ErrMissingCredentials, stage, "get account", "api token required", nil)
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "account")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stage, "get account", "build url", err)
	}
	status, body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrExternalService, stage, "get account", "", err)
	}
	if status != http.StatusOK {
		return services.NewHTTPError(services.ErrExternalService, serviceName, "get account", status, body)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.cfg.APIToken)
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", rid)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}
		return 0, nil, fmt.Errorf("http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func stageName(ctx context.Context) string {
	if stage, ok := services.StageFromContext(ctx); ok {
		return stage
	}
	return "prediction"
}

func shortVersion(version string) string {
	if len(version) > 12 {
		return version[:12]
	}
	return version
}

// isContextErr reports whether err stems from local cancellation rather than
// the remote service.
func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
