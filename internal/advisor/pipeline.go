package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/muhammadolammi/careerzync/internal/ats"
	"github.com/muhammadolammi/careerzync/internal/index"
	"github.com/muhammadolammi/careerzync/internal/resume"
)

var ErrMissingTitle = errors.New("job title is required")

type DescriptionResolver interface {
	Resolve(ctx context.Context, title, userDescription string) string
}

type ResumeAnalyzer interface {
	Analyze(ctx context.Context, resumeText, jobDescription, jobTitle string) (*ats.Result, error)
}

type Input struct {
	ResumeMime     string
	Resume         []byte
	JobTitle       string
	JobDescription string
}

type Outcome struct {
	ResumeText     string
	Sections       resume.Sections
	JobDescription string
	Result         *ats.Result
	Index          *index.Index
}

// Pipeline turns an uploaded resume into an analysis and a chat-ready index.
type Pipeline struct {
	resolver DescriptionResolver
	analyzer ResumeAnalyzer
	embedder index.Embedder
	logger   *slog.Logger
}

func NewPipeline(resolver DescriptionResolver, analyzer ResumeAnalyzer, embedder index.Embedder, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		resolver: resolver,
		analyzer: analyzer,
		embedder: embedder,
		logger:   logger.With("component", "advisor"),
	}
}

func (p *Pipeline) Run(ctx context.Context, in Input) (*Outcome, error) {
	if strings.TrimSpace(in.JobTitle) == "" {
		return nil, ErrMissingTitle
	}
	start := time.Now()

	text, sections, err := resume.Parse(in.ResumeMime, in.Resume)
	if err != nil {
		return nil, fmt.Errorf("failed to parse resume: %w", err)
	}
	p.logger.Debug("parsed resume", "chars", len(text), "sections", sections.NonEmpty())

	jobDescription := p.resolver.Resolve(ctx, in.JobTitle, in.JobDescription)

	result, err := p.analyzer.Analyze(ctx, text, jobDescription, in.JobTitle)
	if err != nil {
		return nil, fmt.Errorf("ats analysis: %w", err)
	}

	docs, err := index.BuildDocuments(text, sections, result)
	if err != nil {
		return nil, fmt.Errorf("index documents: %w", err)
	}
	idx, err := index.Build(ctx, p.embedder, docs)
	if err != nil {
		return nil, fmt.Errorf("index build: %w", err)
	}

	p.logger.Info("analysis complete",
		"job_title", in.JobTitle,
		"score", result.Score,
		"documents", idx.Len(),
		"duration_ms", time.Since(start).Milliseconds())

	return &Outcome{
		ResumeText:     text,
		Sections:       sections,
		JobDescription: jobDescription,
		Result:         result,
		Index:          idx,
	}, nil
}
