package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/muhammadolammi/careerzync/internal/advisor"
	"github.com/muhammadolammi/careerzync/internal/ats"
	"github.com/muhammadolammi/careerzync/internal/chat"
	"github.com/muhammadolammi/careerzync/internal/jobdesc"
	"github.com/muhammadolammi/careerzync/internal/llm"
)

// models groups everything that talks to Gemini.
type models struct {
	Gemini   *llm.Gemini
	Pipeline *advisor.Pipeline
	Chat     *chat.AgentModel
}

func newModels(ctx context.Context, cfg Config, logger *slog.Logger) (*models, error) {
	gem, err := llm.New(ctx, cfg.GoogleAPIKey,
		llm.WithEmbeddingModel(cfg.EmbeddingModel),
		llm.WithRequestsPerMinute(cfg.RequestsPerMinute),
		llm.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	analyzer := ats.NewAnalyzer(
		gem.Model(cfg.AnalysisModel, ats.Temperature, ats.MaxOutputTokens, true),
		logger,
	)
	resolver := jobdesc.NewResolver(jobdesc.WithLogger(logger))

	chatModel, err := chat.NewAgentModel(ctx, cfg.GoogleAPIKey, cfg.ChatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	return &models{
		Gemini:   gem,
		Pipeline: advisor.NewPipeline(resolver, analyzer, gem, logger),
		Chat:     chatModel,
	}, nil
}
