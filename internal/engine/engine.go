package engine

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"

	"github.com/tatianab/chronicle/internal/models"
)

//go:embed prompts/*.txt
var promptFS embed.FS

var prompts = template.Must(template.New("prompts").
	Funcs(template.FuncMap{"year": models.FormatYear}).
	ParseFS(promptFS, "prompts/*.txt"))

var (
	// ErrNoContent means the model answered with nothing usable.
	ErrNoContent = errors.New("no content returned from Gemini")
	// ErrInvalidResult means the model's answer failed parsing or validation.
	ErrInvalidResult = models.ErrInvalid
)

const (
	DefaultModel      = "gemini-2.5-pro"
	DefaultImageModel = "gemini-2.0-flash-preview-image-generation"
)

// generator is the slice of *genai.GenerativeModel the engine uses.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Options configures an Engine.
type Options struct {
	APIKey            string
	Model             string
	ImageModel        string
	RequestTimeout    time.Duration // per call; zero means no limit beyond ctx
	RequestsPerMinute int           // zero means unthrottled
}

// Engine is the Gemini-backed intervention gateway.
type Engine struct {
	client  *genai.Client
	model   generator
	image   generator
	limiter *rate.Limiter
	timeout time.Duration
}

func NewEngine(ctx context.Context, opts Options) (*Engine, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, err
	}

	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.ImageModel == "" {
		opts.ImageModel = DefaultImageModel
	}

	model := client.GenerativeModel(opts.Model)
	model.ResponseMIMEType = "application/json"
	image := client.GenerativeModel(opts.ImageModel)

	e := newEngine(model, image, opts)
	e.client = client
	return e, nil
}

func newEngine(model, image generator, opts Options) *Engine {
	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}
	return &Engine{
		model:   model,
		image:   image,
		limiter: rate.NewLimiter(limit, 1),
		timeout: opts.RequestTimeout,
	}
}

func (e *Engine) Close() {
	if e.client != nil {
		e.client.Close()
	}
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// call sends one prompt, honouring the rate limit and request timeout, and
// returns the response parts of the first candidate.
func (e *Engine) call(ctx context.Context, m generator, op, prompt string) ([]genai.Part, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if resp.UsageMetadata != nil {
		slog.Debug("gemini call",
			"op", op,
			"elapsed", time.Since(start),
			"prompt_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
		)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoContent)
	}
	return resp.Candidates[0].Content.Parts, nil
}

// callText is call for prompts that answer with text.
func (e *Engine) callText(ctx context.Context, op, prompt string) (string, error) {
	parts, err := e.call(ctx, e.model, op, prompt)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, p := range parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%s: unexpected response type from Gemini: %w", op, ErrNoContent)
	}
	return sb.String(), nil
}

// decode parses a model answer into v. yaml.v3 reads JSON as well, and
// tolerates the fenced or YAML-flavoured replies the model sometimes sends.
func decode(text string, v any) error {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```yaml")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")

	if err := yaml.Unmarshal([]byte(clean), v); err != nil {
		return fmt.Errorf("%w: parse: %v", ErrInvalidResult, err)
	}
	return nil
}

// toYAML renders a value for inclusion in a prompt.
func toYAML(v any) string {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
