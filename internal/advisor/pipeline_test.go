package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/muhammadolammi/careerzync/internal/ats"
	"github.com/muhammadolammi/careerzync/internal/resume"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct{ gotTitle, gotDesc string }

func (s *stubResolver) Resolve(_ context.Context, title, desc string) string {
	s.gotTitle, s.gotDesc = title, desc
	if desc != "" {
		return desc
	}
	return "scraped description"
}

type stubAnalyzer struct {
	gotText, gotDesc string
	err              error
}

func (s *stubAnalyzer) Analyze(_ context.Context, text, desc, _ string) (*ats.Result, error) {
	s.gotText, s.gotDesc = text, desc
	if s.err != nil {
		return nil, s.err
	}
	return &ats.Result{Score: 64, Skills: []string{"Go"}, Suggestions: []string{"Add metrics"}}, nil
}

type constEmbedder struct{}

func (constEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, float32(i)}
	}
	return out, nil
}

func (constEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

const resumeText = "Jane Doe\nSkills\nGo, SQL\nEducation\nBSc\n"

func TestRun(t *testing.T) {
	resolver := &stubResolver{}
	analyzer := &stubAnalyzer{}
	p := NewPipeline(resolver, analyzer, constEmbedder{}, nil)

	out, err := p.Run(context.Background(), Input{
		ResumeMime: resume.MimeText,
		Resume:     []byte(resumeText),
		JobTitle:   "Backend Engineer",
	})
	require.NoError(t, err)

	assert.Equal(t, "Backend Engineer", resolver.gotTitle)
	assert.Equal(t, "scraped description", out.JobDescription)
	assert.Equal(t, "scraped description", analyzer.gotDesc)
	assert.Equal(t, resumeText, analyzer.gotText)
	assert.Equal(t, []string{"Go", "SQL"}, out.Sections[resume.SectionSkills])
	assert.Equal(t, 64.0, out.Result.Score)
	// full resume + 2 sections + 5 analysis fields
	assert.Equal(t, 8, out.Index.Len())
}

func TestRunErrors(t *testing.T) {
	sentinel := errors.New("model unavailable")
	tests := []struct {
		name    string
		in      Input
		err     error
		wantErr error
		stage   string
	}{
		{"missing title", Input{ResumeMime: resume.MimeText, Resume: []byte(resumeText)}, nil, ErrMissingTitle, ""},
		{"unsupported file", Input{ResumeMime: "image/png", Resume: []byte("x"), JobTitle: "SRE"}, nil, resume.ErrUnsupportedType, "failed to parse resume"},
		{"analysis failure", Input{ResumeMime: resume.MimeText, Resume: []byte(resumeText), JobTitle: "SRE"}, sentinel, sentinel, "ats analysis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(&stubResolver{}, &stubAnalyzer{err: tt.err}, constEmbedder{}, nil)
			_, err := p.Run(context.Background(), tt.in)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.stage)
		})
	}
}
