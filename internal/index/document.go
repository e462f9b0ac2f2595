package index

import (
	"errors"
	"fmt"
	"strings"

	"github.com/muhammadolammi/careerzync/internal/ats"
	"github.com/muhammadolammi/careerzync/internal/resume"
)

const (
	SourceResume  = "resume"
	SourceSection = "section"
	SourceATS     = "ats"

	chunkSize = 1000
)

var ErrMissingInput = errors.New("resume text and ATS results are required")

// Document is one retrievable unit of text.
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

func (d Document) Source() string {
	return d.Metadata["source"]
}

// BuildDocuments turns a resume and its analysis into index documents: the full
// resume first, then resume chunks, one document per section, and one per analysis field.
func BuildDocuments(resumeText string, sections resume.Sections, result *ats.Result) ([]Document, error) {
	if strings.TrimSpace(resumeText) == "" || result == nil {
		return nil, ErrMissingInput
	}

	docs := []Document{{
		ID:       "resume",
		Content:  resumeText,
		Metadata: map[string]string{"source": SourceResume},
	}}

	if chunks := ChunkLines(resumeText, chunkSize); len(chunks) > 1 {
		for i, c := range chunks {
			docs = append(docs, Document{
				ID:       fmt.Sprintf("resume-%d", i),
				Content:  c,
				Metadata: map[string]string{"source": SourceResume, "chunk": fmt.Sprint(i)},
			})
		}
	}

	for _, name := range sections.NonEmpty() {
		docs = append(docs, Document{
			ID:       "section-" + name,
			Content:  name + ": " + strings.Join(sections[name], "; "),
			Metadata: map[string]string{"source": SourceSection, "section": name},
		})
	}

	for _, f := range result.Fields() {
		docs = append(docs, Document{
			ID:       "ats-" + f.Key,
			Content:  f.Key + ": " + strings.Join(f.Values, ", "),
			Metadata: map[string]string{"source": SourceATS, "field": f.Key},
		})
	}
	return docs, nil
}

// ChunkLines packs non-blank lines into chunks of at most size bytes. A chunk
// starts with the last line of the previous one when both lines fit. A single
// line longer than size becomes its own chunk.
func ChunkLines(text string, size int) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	var chunks []string
	var current []string
	length := 0
	for _, l := range lines {
		if length > 0 && length+len(l)+1 > size {
			chunks = append(chunks, strings.Join(current, "\n"))
			last := current[len(current)-1]
			current = []string{last}
			length = len(last)
			// Skip the overlap when it would push the next line past size.
			if length+len(l)+1 > size {
				current = nil
				length = 0
			}
		}
		if length > 0 {
			length++
		}
		current = append(current, l)
		length += len(l)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}
