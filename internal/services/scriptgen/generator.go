// Package scriptgen writes narration scripts with an OpenAI-compatible chat
// completion API.
package scriptgen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

const serviceName = "openai"

// DefaultSystemPrompt frames the model as a scriptwriter producing a
// three-part narration sized for a two to three minute video. It is written
// in Portuguese to match the default narration language.
const DefaultSystemPrompt = `Você é um roteirista profissional de vídeos narrados.
Escreva o texto completo da narração, pronto para ser lido em voz alta, a partir do pedido do usuário.
Organize o roteiro em três seções: Introdução, Desenvolvimento e Conclusão.
O roteiro deve ter entre 300 e 500 palavras, adequado a um vídeo de 2 a 3 minutos.
Use um tom natural, envolvente, conversacional e profissional.`

// Config captures the chat completion settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float64
	MaxTokens      int
	TimeoutSeconds int
	SystemPrompt   string
}

// Script is the persisted narration.
type Script struct {
	Text        string
	Path        string
	Model       string
	TotalTokens int64
	CreatedAt   time.Time
}

// Generator issues one chat completion per script.
type Generator struct {
	cfg    Config
	client openai.Client
	now    func() time.Time
	logger *slog.Logger
}

// Option customizes the generator.
type Option func(*generatorOptions)

type generatorOptions struct {
	httpClient *http.Client
	now        func() time.Time
	logger     *slog.Logger
}

// WithHTTPClient overrides the HTTP client handed to the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(o *generatorOptions) {
		o.httpClient = client
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *generatorOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger attaches a logger under the "scriptgen" component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *generatorOptions) {
		o.logger = logger
	}
}

// New constructs a Generator. SDK retries are disabled so each script costs
// exactly one request.
func New(cfg Config, opts ...Option) *Generator {
	options := generatorOptions{now: time.Now}
	for _, opt := range opts {
		opt(&options)
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}

	requestOptions := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithMiddleware(captureErrorBody),
	}
	if cfg.BaseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.TimeoutSeconds > 0 {
		requestOptions = append(requestOptions, option.WithRequestTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	if options.httpClient != nil {
		requestOptions = append(requestOptions, option.WithHTTPClient(options.httpClient))
	}

	return &Generator{
		cfg:    cfg,
		client: openai.NewClient(requestOptions...),
		now:    options.now,
		logger: logging.NewComponentLogger(options.logger, "scriptgen"),
	}
}

// NewFromConfig builds a Generator from the [script] section of cfg.
func NewFromConfig(cfg *config.Config, opts ...Option) *Generator {
	return New(Config{
		APIKey:         cfg.Script.APIKey,
		BaseURL:        cfg.Script.BaseURL,
		Model:          cfg.Script.Model,
		Temperature:    cfg.Script.Temperature,
		MaxTokens:      cfg.Script.MaxTokens,
		TimeoutSeconds: cfg.Script.TimeoutSeconds,
		SystemPrompt:   cfg.Script.SystemPrompt,
	}, opts...)
}

// Generate asks the model for a script about prompt and writes the first
// choice to dest. The prompt is passed through untouched.
func (g *Generator) Generate(ctx context.Context, prompt, dest string) (Script, error) {
	var script Script
	stage := "script"
	if value, ok := services.StageFromContext(ctx); ok {
		stage = value
	}
	if g.cfg.APIKey == "" {
		return script, services.Wrap(services.ErrMissingCredentials, stage, "chat completion", "api key required", nil)
	}
	if strings.TrimSpace(dest) == "" {
		return script, services.Wrap(services.ErrConfiguration, stage, "chat completion", "destination path required", nil)
	}

	params := openai.ChatCompletionNewParams{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(g.cfg.SystemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(g.cfg.Temperature),
	}
	if g.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(g.cfg.MaxTokens))
	}

	logger := logging.WithContext(ctx, g.logger)
	started := g.now()
	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return script, ctxErr
		}
		return script, services.Wrap(services.ErrExternalService, stage, "chat completion", "", err)
	}
	if len(completion.Choices) == 0 {
		return script, services.Wrap(services.ErrExternalService, stage, "chat completion", "response contained no choices", nil)
	}
	choice := completion.Choices[0]
	text := choice.Message.Content
	if strings.TrimSpace(text) == "" {
		detail := fmt.Sprintf("empty content (finish_reason=%q)", choice.FinishReason)
		if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
			detail += ": " + refusal
		}
		return script, services.Wrap(services.ErrExternalService, stage, "chat completion", detail, nil)
	}

	if err := writeScript(dest, text); err != nil {
		return script, err
	}

	script = Script{
		Text:        text,
		Path:        dest,
		Model:       completion.Model,
		TotalTokens: completion.Usage.TotalTokens,
		CreatedAt:   g.now(),
	}
	logger.Info("script written",
		logging.OutputPath(dest),
		logging.Int("words", len(strings.Fields(text))),
		logging.Int64("total_tokens", script.TotalTokens),
		logging.Duration("elapsed", script.CreatedAt.Sub(started).Round(time.Millisecond)),
	)
	return script, nil
}

// captureErrorBody turns any non-2xx response into a services.HTTPError
// carrying the raw body, regardless of whether it parses as an API error.
func captureErrorBody(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	resp, err := next(req)
	if err != nil || resp == nil {
		return resp, err
	}
	if resp.StatusCode < http.StatusMultipleChoices {
		return resp, nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
	return nil, services.NewHTTPError(services.ErrExternalService, serviceName, "chat completion", resp.StatusCode, body)
}

// HealthCheck confirms the API key is accepted and the configured model is
// visible to it.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if g.cfg.APIKey == "" {
		return services.Wrap(services.ErrMissingCredentials, "doctor", "get model", "api key required", nil)
	}
	if _, err := g.client.Models.Get(ctx, g.cfg.Model); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrExternalService, "doctor", "get model", g.cfg.Model, err)
	}
	return nil
}

// writeScript publishes text at dest through a temp file so dest only ever
// holds a complete script.
func writeScript(dest, text string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create script directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.WriteString(text)
	closeErr := tmp.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr == nil {
		writeErr = os.Chmod(tmpPath, 0o644)
	}
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write script: %w", writeErr)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}
