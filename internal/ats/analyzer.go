package ats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	Temperature     float32 = 0.3
	MaxOutputTokens int32   = 1000
)

var (
	ErrMissingInput = errors.New("resume text and job description are required")
	ErrInvalidJSON  = errors.New("model returned invalid JSON")
)

// Generator sends a prompt to a language model and returns its text reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Analyzer struct {
	model  Generator
	logger *slog.Logger
}

func NewAnalyzer(model Generator, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		model:  model,
		logger: logger.With("component", "ats", "operation", "analyze"),
	}
}

// Analyze scores a resume against a job description.
func (a *Analyzer) Analyze(ctx context.Context, resumeText, jobDescription, jobTitle string) (*Result, error) {
	if strings.TrimSpace(resumeText) == "" || strings.TrimSpace(jobDescription) == "" {
		a.logger.Error("resume text or job description missing")
		return nil, ErrMissingInput
	}

	start := time.Now()
	content, err := a.model.Generate(ctx, analysisPrompt(jobTitle, resumeText, jobDescription))
	if err != nil {
		a.logger.Error("analysis request failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("failed to analyze resume: %w", err)
	}

	result, err := ParseResult(content)
	if err != nil {
		a.logger.Error("JSON parsing failed", "error", err, "content_preview", preview(content, 100))
		return nil, err
	}

	a.logger.Debug("ATS analysis result",
		"score", result.Score,
		"skills", len(result.Skills),
		"suggestions", len(result.Suggestions),
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// ParseResult decodes a model reply into a normalized Result.
func ParseResult(content string) (*Result, error) {
	cleaned := CleanJSON(content)
	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("%w: %v: %s", ErrInvalidJSON, err, cleaned)
	}
	result.normalize()
	return &result, nil
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
