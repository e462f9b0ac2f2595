package resume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `Jane Doe
Senior Engineer

Contact Information
jane@example.com
+1 555 0100

Technical Skills
Go, Python, Kubernetes
• PostgreSQL • Terraform

Professional Experience
2019 - 2023
Backend Engineer at Acme
Built payment APIs
Present
Staff Engineer at Globex

EDUCATION
BSc Computer Science

Projects
resume-optimizer

Awards
Hackathon winner

Certificates
CKA
`

func TestSplitSections(t *testing.T) {
	s := SplitSections(sampleResume)

	assert.Equal(t, []string{"jane@example.com", "+1 555 0100"}, s[SectionContact])
	assert.Equal(t, []string{"Go", "Python", "Kubernetes", "PostgreSQL", "Terraform"}, s[SectionSkills])
	assert.Equal(t, []string{
		"2019 - 2023 Backend Engineer at Acme Built payment APIs",
		"Present Staff Engineer at Globex",
	}, s[SectionExperience])
	assert.Equal(t, []string{"BSc Computer Science"}, s[SectionEducation])
	assert.Equal(t, []string{"resume-optimizer"}, s[SectionProjects])
	assert.Equal(t, []string{"Hackathon winner"}, s[SectionAchievements])
	assert.Equal(t, []string{"CKA"}, s[SectionCertifications])
}

func TestSplitSectionsDropsPreamble(t *testing.T) {
	s := SplitSections("Jane Doe\nSummary line\n")
	for _, name := range SectionNames {
		require.Contains(t, s, name)
		assert.Empty(t, s[name], name)
	}
	assert.Empty(t, s.NonEmpty())
}

func TestHeadingMatching(t *testing.T) {
	tests := []struct {
		line    string
		section string
		ok      bool
	}{
		{"Skills", SectionSkills, true},
		{"core competencies", SectionSkills, true},
		{"TECHNOLOGIES  ", SectionSkills, true},
		{"Work Experience", SectionExperience, true},
		{"Project Experience", SectionProjects, true},
		{"Academic Background", SectionEducation, true},
		{"Personal Information", SectionContact, true},
		{"Honors", SectionAchievements, true},
		{"Certifications", SectionCertifications, true},
		{"Skills and interests", "", false},
		{"My experience", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			section, ok := matchHeading(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.section, section)
		})
	}
}

func TestGroupRoles(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name:  "no date lines",
			lines: []string{"Engineer at Acme", "Did things"},
			want:  []string{"Engineer at Acme Did things"},
		},
		{
			name:  "date range without spaces",
			lines: []string{"2018-2020", "Dev", "2020 -2022", "Lead"},
			want:  []string{"2018-2020 Dev", "2020 -2022 Lead"},
		},
		{
			name:  "present is case insensitive",
			lines: []string{"Intern", "present", "Engineer"},
			want:  []string{"Intern", "present Engineer"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, groupRoles(tt.lines))
		})
	}
}

func TestSplitSkillsSeparators(t *testing.T) {
	got := splitSkills([]string{"Go, Rust - C++", "•Docker,,  ", "CI/CD"})
	assert.Equal(t, []string{"Go", "Rust", "C++", "Docker", "CI/CD"}, got)
}

func TestParseText(t *testing.T) {
	text, sections, err := Parse(MimeText, []byte(sampleResume))
	require.NoError(t, err)
	assert.Equal(t, sampleResume, text)
	assert.Contains(t, sections.NonEmpty(), SectionSkills)
}

func TestParseErrors(t *testing.T) {
	_, _, err := Parse("image/png", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, _, err = Parse(MimeText, []byte("   \n "))
	assert.ErrorIs(t, err, ErrNoText)

	_, _, err = Parse(MimePDF, []byte("not a pdf"))
	assert.Error(t, err)
}

func TestDetectMime(t *testing.T) {
	assert.Equal(t, MimePDF, DetectMime("application/pdf", "cv.bin"))
	assert.Equal(t, MimeText, DetectMime("text/plain; charset=utf-8", "cv"))
	assert.Equal(t, MimePDF, DetectMime("application/octet-stream", "CV.PDF"))
	assert.Equal(t, MimeDocx, DetectMime("", "cv.docx"))
	assert.Equal(t, "image/png", DetectMime("image/png", "cv.png"))
}
