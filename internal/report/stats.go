package report

import (
	"regexp"
	"strings"
)

const maxKeyTerms = 20

var (
	boldTermRe    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	headingTermRe = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
)

// Statistics summarises the size and vocabulary of a report.
type Statistics struct {
	TotalWords int            `json:"totalWords"`
	Sections   map[string]int `json:"sections"`
	KeyTerms   []string       `json:"keyTerms"`
}

// Stats counts words per extracted section and collects key terms from bold
// text and headings.
func Stats(md string) Statistics {
	stats := Statistics{Sections: map[string]int{}, KeyTerms: []string{}}
	if strings.TrimSpace(md) == "" {
		return stats
	}
	parsed := ExtractAll(md)
	for key, section := range map[string]Section{
		"strengths":        parsed.Sections.Strengths,
		"weaknesses":       parsed.Sections.Weaknesses,
		"strategicPlan":    parsed.Sections.StrategicPlan,
		"resources":        parsed.Sections.Resources,
		"benchmarks":       parsed.Sections.Benchmarks,
		"learningPath":     parsed.Sections.LearningPath,
		"detailedAnalysis": parsed.Sections.DetailedAnalysis,
	} {
		if !section.Empty() {
			stats.Sections[key] = countWords(section.Content)
		}
	}
	for _, section := range parsed.Dynamic {
		stats.Sections[section.Title] = countWords(section.Content)
	}
	for _, count := range stats.Sections {
		stats.TotalWords += count
	}
	stats.KeyTerms = keyTerms(md)
	return stats
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

func keyTerms(md string) []string {
	seen := make(map[string]bool)
	terms := []string{}
	add := func(term string) {
		term = strings.TrimSpace(term)
		if len(term) <= 2 || len(term) >= 50 || seen[term] {
			return
		}
		seen[term] = true
		terms = append(terms, term)
	}
	for _, m := range boldTermRe.FindAllStringSubmatch(md, -1) {
		add(m[1])
	}
	for _, m := range headingTermRe.FindAllStringSubmatch(md, -1) {
		add(m[1])
	}
	if len(terms) > maxKeyTerms {
		terms = terms[:maxKeyTerms]
	}
	return terms
}
