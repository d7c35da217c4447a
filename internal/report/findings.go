package report

import (
	"fmt"
	"strconv"
	"strings"

	"ai-scorecard/backend/internal/questionnaire"
)

const maxDerivedFindings = 5

// DeriveFindings picks strengths and weaknesses out of scale answers: a
// rating of 4 or more is a strength, 2 or less a weakness.
func DeriveFindings(history []questionnaire.Answer) Findings {
	var f Findings
	for _, entry := range history {
		if questionnaire.NormalizeType(entry.AnswerType) != questionnaire.TypeScale {
			continue
		}
		rating, err := strconv.Atoi(strings.TrimSpace(entry.Answer))
		if err != nil {
			continue
		}
		item := fmt.Sprintf("%s (rated %d/5)", strings.TrimRight(strings.TrimSpace(entry.Question), "?"), rating)
		switch {
		case rating >= 4 && len(f.Strengths) < maxDerivedFindings:
			f.Strengths = append(f.Strengths, item)
		case rating <= 2 && len(f.Weaknesses) < maxDerivedFindings:
			f.Weaknesses = append(f.Weaknesses, item)
		}
	}
	return f
}

// InsertKeyFindings adds a Key Findings section built from the answer history
// when the report lacks one. The section goes after the Overall Tier section,
// or at the top when there is none. The markdown is returned unchanged when it
// already has findings or nothing can be derived.
func InsertKeyFindings(md string, history []questionnaire.Answer) string {
	_, _, blocks := splitBlocks(md)
	if _, ok := findBlock(blocks, findingsTitles); ok {
		return md
	}
	findings := DeriveFindings(history)
	if len(findings.Strengths) == 0 && len(findings.Weaknesses) == 0 {
		return md
	}

	var b strings.Builder
	b.WriteString("## Key Findings\n\n")
	writeList := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString("**" + label + ":**\n")
		for _, item := range items {
			b.WriteString("- " + item + "\n")
		}
		b.WriteString("\n")
	}
	writeList("Strengths", findings.Strengths)
	writeList("Weaknesses", findings.Weaknesses)
	section := b.String()

	lines := strings.Split(md, "\n")
	insertAt := -1
	inTier := false
	for i, line := range lines {
		m := h2Line.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if inTier {
			insertAt = i
			break
		}
		if tierTitles[0].MatchString(strings.TrimSpace(m[1])) {
			inTier = true
		}
	}
	switch {
	case inTier && insertAt < 0:
		return strings.TrimRight(md, "\n") + "\n\n" + strings.TrimRight(section, "\n") + "\n"
	case insertAt >= 0:
		head := strings.Join(lines[:insertAt], "\n")
		tail := strings.Join(lines[insertAt:], "\n")
		return strings.TrimRight(head, "\n") + "\n\n" + section + tail
	default:
		return section + strings.TrimLeft(md, "\n")
	}
}
