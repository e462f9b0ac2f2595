package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/muhammadolammi/careerzync/internal/retry"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	DefaultEmbeddingModel = "text-embedding-004"
	// The embedding endpoint accepts at most this many contents per request.
	maxEmbedBatch = 100
	// Smallest thinking budget the pro models accept.
	minProThinkingBudget = 128
)

var ErrEmptyResponse = errors.New("empty response from model")

// Gemini wraps a genai client with request pacing and retries.
type Gemini struct {
	client         *genai.Client
	baseURL        string
	embeddingModel string
	limiter        *rate.Limiter
	attempts       int
	logger         *slog.Logger
}

type Option func(*Gemini)

// WithRequestsPerMinute paces every call made through the client. Zero disables pacing.
func WithRequestsPerMinute(rpm int) Option {
	return func(g *Gemini) {
		if rpm > 0 {
			g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
		}
	}
}

func WithEmbeddingModel(model string) Option {
	return func(g *Gemini) {
		if model != "" {
			g.embeddingModel = model
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gemini) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithBaseURL points the client at another API host.
func WithBaseURL(url string) Option {
	return func(g *Gemini) { g.baseURL = url }
}

func New(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	g := &Gemini{
		embeddingModel: DefaultEmbeddingModel,
		attempts:       3,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.baseURL != "" {
		cfg.HTTPOptions.BaseURL = g.baseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	g.client = client
	g.logger = g.logger.With("component", "llm")
	return g, nil
}

func (g *Gemini) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}

// TextModel is a generation model bound to fixed sampling settings.
type TextModel struct {
	gemini *Gemini
	name   string
	config *genai.GenerateContentConfig
}

// Model binds a model name and its sampling settings. jsonOutput asks the API for
// an application/json response.
func (g *Gemini) Model(name string, temperature float32, maxOutputTokens int32, jsonOutput bool) *TextModel {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: maxOutputTokens,
		ThinkingConfig:  ThinkingConfig(name),
	}
	if jsonOutput {
		config.ResponseMIMEType = "application/json"
	}
	return &TextModel{gemini: g, name: name, config: config}
}

// ThinkingConfig keeps 2.5 models from spending the output budget on thinking.
// Thinking tokens count against MaxOutputTokens; pro cannot turn thinking off,
// so it gets the smallest budget the API accepts. Other models are left alone.
func ThinkingConfig(model string) *genai.ThinkingConfig {
	name := strings.ToLower(model)
	switch {
	case strings.Contains(name, "2.5-pro"):
		return &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](minProThinkingBudget)}
	case strings.Contains(name, "2.5-flash"):
		return &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)}
	}
	return nil
}

// Generate sends a single-turn prompt and returns the response text.
func (m *TextModel) Generate(ctx context.Context, prompt string) (string, error) {
	g := m.gemini
	start := time.Now()
	resp, err := retry.Do(ctx, g.attempts, 500*time.Millisecond, func() (*genai.GenerateContentResponse, error) {
		if err := g.wait(ctx); err != nil {
			return nil, err
		}
		return g.client.Models.GenerateContent(ctx, m.name, genai.Text(prompt), m.config)
	})
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}

	if resp.UsageMetadata != nil {
		g.logger.Info("LLM API call",
			"model", m.name,
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			"duration_ms", time.Since(start).Milliseconds())
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// EmbedDocuments embeds texts for storage in a retrieval index.
func (g *Gemini) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))
		batch, err := g.embed(ctx, texts[start:end], "RETRIEVAL_DOCUMENT")
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// EmbedQuery embeds a search query.
func (g *Gemini) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.embed(ctx, []string{text}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (g *Gemini) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	resp, err := retry.Do(ctx, g.attempts, 500*time.Millisecond, func() (*genai.EmbedContentResponse, error) {
		if err := g.wait(ctx); err != nil {
			return nil, err
		}
		return g.client.Models.EmbedContent(ctx, g.embeddingModel, contents, &genai.EmbedContentConfig{
			TaskType: taskType,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("embedding call failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	g.logger.Debug("embedded texts", "count", len(texts), "task", taskType)
	return vectors, nil
}
