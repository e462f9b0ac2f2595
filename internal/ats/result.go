package ats

import (
	"fmt"
	"strings"
)

// DefaultAssumedScore is the pass percentage assumed when the user gives none.
const DefaultAssumedScore = 75.0

// Result is the analysis returned by the model.
type Result struct {
	Score            float64  `json:"ats_compatibility_score"`
	Skills           []string `json:"skills"`
	Keywords         []string `json:"keywords"`
	TrendingSkills   []string `json:"trending_skills"`
	TrendingKeywords []string `json:"trending_keywords"`
	Suggestions      []string `json:"suggestions"`
}

// Field is one named list of a Result.
type Field struct {
	Key    string
	Values []string
}

// Fields returns every list field in a fixed order. The score is not a field.
func (r *Result) Fields() []Field {
	return []Field{
		{"skills", r.Skills},
		{"keywords", r.Keywords},
		{"trending_skills", r.TrendingSkills},
		{"trending_keywords", r.TrendingKeywords},
		{"suggestions", r.Suggestions},
	}
}

func (r *Result) normalize() {
	r.Score = clamp(r.Score)
	lists := []*[]string{&r.Skills, &r.Keywords, &r.TrendingSkills, &r.TrendingKeywords, &r.Suggestions}
	for _, l := range lists {
		cleaned := make([]string, 0, len(*l))
		for _, v := range *l {
			if v = strings.TrimSpace(v); v != "" {
				cleaned = append(cleaned, v)
			}
		}
		*l = cleaned
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// Comparison sets the actual score against the user's own guess.
type Comparison struct {
	Assumed    float64 `json:"assumed"`
	Actual     float64 `json:"actual"`
	Difference float64 `json:"difference"`
	Direction  string  `json:"direction"`
}

func Compare(result *Result, assumed float64) Comparison {
	assumed = clamp(assumed)
	diff := result.Score - assumed
	direction := "higher"
	if diff < 0 {
		direction = "lower"
	}
	return Comparison{
		Assumed:    assumed,
		Actual:     result.Score,
		Difference: diff,
		Direction:  direction,
	}
}

func (c Comparison) Summary() string {
	return fmt.Sprintf("You assumed your resume would score %.1f%% for ATS compatibility. "+
		"The actual score is %.1f%%, which is %+.1f%% %s than your assumption.",
		c.Assumed, c.Actual, c.Difference, c.Direction)
}
