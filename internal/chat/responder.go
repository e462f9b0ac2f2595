package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/muhammadolammi/careerzync/internal/index"
)

const (
	TopK                    = 3
	Temperature     float32 = 0.5
	MaxOutputTokens int32   = 500
)

var (
	ErrNoIndex    = errors.New("valid index is required")
	ErrEmptyQuery = errors.New("query is required")
)

// Turn is one stored exchange of a conversation.
type Turn struct {
	Query    string
	Response string
}

// HistoryFunc loads the stored turns of a conversation, oldest first.
type HistoryFunc func(ctx context.Context) ([]Turn, error)

// Model answers prompts within a conversation.
type Model interface {
	Reply(ctx context.Context, conversationID, prompt string) (string, error)
	// Resume seeds a conversation the model is not holding with its stored turns.
	Resume(ctx context.Context, conversationID string, history HistoryFunc) error
}

// Responder answers questions about one analysed resume using retrieved context.
type Responder struct {
	idx      *index.Index
	embedder index.Embedder
	model    Model
	jobTitle string
	logger   *slog.Logger
}

func NewResponder(idx *index.Index, embedder index.Embedder, model Model, jobTitle string, logger *slog.Logger) (*Responder, error) {
	if idx == nil {
		return nil, ErrNoIndex
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		idx:      idx,
		embedder: embedder,
		model:    model,
		jobTitle: jobTitle,
		logger:   logger.With("component", "chat"),
	}, nil
}

// Ask retrieves the documents closest to query and forwards them with the query to the model.
func (r *Responder) Ask(ctx context.Context, conversationID, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		r.logger.Error("query is empty")
		return "", ErrEmptyQuery
	}

	contextText, err := r.retrieve(ctx, query)
	if err != nil {
		return "", err
	}

	answer, err := r.model.Reply(ctx, conversationID, advisorPrompt(r.jobTitle, contextText, query))
	if err != nil {
		r.logger.Error("chatbot response error", "error", err)
		return "", fmt.Errorf("failed to get chatbot response: %w", err)
	}
	answer = strings.TrimSpace(answer)
	r.logger.Debug("chatbot response", "conversation_id", conversationID, "preview", preview(answer, 100))
	return answer, nil
}

func (r *Responder) retrieve(ctx context.Context, query string) (string, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}
	hits, err := r.idx.Search(vector, TopK)
	if err != nil {
		return "", fmt.Errorf("failed to search index: %w", err)
	}
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Document.Content
	}
	return strings.Join(parts, "\n"), nil
}

func advisorPrompt(jobTitle, contextText, query string) string {
	return fmt.Sprintf(`
You are an expert resume advisor for a %s role.
Use the following context from the resume and ATS analysis to answer the query.

Context: %s

Query: %s

Keep responses concise, ATS-optimized, and highly role-specific.
`, jobTitle, contextText, query)
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
