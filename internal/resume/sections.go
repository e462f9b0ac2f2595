package resume

import (
	"regexp"
	"strings"
)

const (
	SectionSkills         = "skills"
	SectionExperience     = "experience"
	SectionEducation      = "education"
	SectionContact        = "contact"
	SectionProjects       = "projects"
	SectionAchievements   = "achievements"
	SectionCertifications = "certifications"
)

// SectionNames lists every section in heading-match order.
var SectionNames = []string{
	SectionSkills,
	SectionExperience,
	SectionEducation,
	SectionContact,
	SectionProjects,
	SectionAchievements,
	SectionCertifications,
}

type heading struct {
	section string
	pattern *regexp.Regexp
}

var headings = []heading{
	{SectionSkills, regexp.MustCompile(`(?i)^(skills|technical skills|core competencies|technologies)\s*$`)},
	{SectionExperience, regexp.MustCompile(`(?i)^(experience|work experience|professional experience)\s*$`)},
	{SectionEducation, regexp.MustCompile(`(?i)^(education|academic background)\s*$`)},
	{SectionContact, regexp.MustCompile(`(?i)^(contact|contact information|personal information)\s*$`)},
	{SectionProjects, regexp.MustCompile(`(?i)^(projects|project experience)\s*$`)},
	{SectionAchievements, regexp.MustCompile(`(?i)^(achievements|awards|honors)\s*$`)},
	{SectionCertifications, regexp.MustCompile(`(?i)^(certifications|certificates)\s*$`)},
}

var (
	skillSeparators = regexp.MustCompile(`[,\n•\-]+`)
	roleStart       = regexp.MustCompile(`(?i)^(\d{4}\s*-\s*\d{4}|Present)`)
)

// Sections maps a section name to its lines. Every name in SectionNames is present.
type Sections map[string][]string

func newSections() Sections {
	s := make(Sections, len(SectionNames))
	for _, name := range SectionNames {
		s[name] = []string{}
	}
	return s
}

// NonEmpty returns the names of sections holding at least one item, in SectionNames order.
func (s Sections) NonEmpty() []string {
	var names []string
	for _, name := range SectionNames {
		if len(s[name]) > 0 {
			names = append(names, name)
		}
	}
	return names
}

// SplitSections groups resume lines under the most recent recognised heading.
// Lines before the first heading are dropped.
func SplitSections(text string) Sections {
	sections := newSections()
	current := ""

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if name, ok := matchHeading(line); ok {
			current = name
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], line)
		}
	}

	if len(sections[SectionSkills]) > 0 {
		sections[SectionSkills] = splitSkills(sections[SectionSkills])
	}
	if len(sections[SectionExperience]) > 0 {
		sections[SectionExperience] = groupRoles(sections[SectionExperience])
	}

	for name, items := range sections {
		sections[name] = dropEmpty(items)
	}
	return sections
}

func matchHeading(line string) (string, bool) {
	for _, h := range headings {
		if h.pattern.MatchString(line) {
			return h.section, true
		}
	}
	return "", false
}

func splitSkills(lines []string) []string {
	var skills []string
	for _, s := range skillSeparators.Split(strings.Join(lines, " "), -1) {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// groupRoles starts a new entry at every date-range or "Present" line.
func groupRoles(lines []string) []string {
	var roles, current []string
	for _, line := range lines {
		if roleStart.MatchString(line) && len(current) > 0 {
			roles = append(roles, strings.Join(current, " "))
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		roles = append(roles, strings.Join(current, " "))
	}
	return roles
}

func dropEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
