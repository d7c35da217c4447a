package report

import (
	"fmt"
	"regexp"
	"strings"
)

// PlanItem is one numbered step of the strategic action plan.
type PlanItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Points      []string `json:"points,omitempty"`
}

// Resource is one entry of the learning path.
type Resource struct {
	Title  string   `json:"title"`
	Points []string `json:"points,omitempty"`
	URL    string   `json:"url,omitempty"`
}

// TierBenchmark lists the traits of organisations at one tier.
type TierBenchmark struct {
	Tier   string   `json:"tier"`
	Points []string `json:"points"`
}

var (
	numberedTop    = regexp.MustCompile(`^\s{0,1}(\d+)[.)]\s+(.*)$`)
	headedStep     = regexp.MustCompile(`(?i)^#{3,4}\s+(?:step\s+)?(\d+)[.):]?\s+(.*)$`)
	nestedBullet   = regexp.MustCompile(`^\s+(?:[-*+•]|\d+[.)])\s+(.*)$`)
	boldTitleRe    = regexp.MustCompile(`^\*\*(.+?)\*\*\s*:?\s*(.*)$`)
	resourceRe     = regexp.MustCompile(`(?i)^\s*(?:\*\*)?resource\s+(\d+)\s*:\s*(.+?)(?:\*\*)?\s*$`)
	tierBenchRe    = regexp.MustCompile(`(?i)^#{3,4}\s+(leader|enabler|dabbler)\s+tier\s+organi[sz]ations\b`)
	urlRe          = regexp.MustCompile(`https?://\S+`)
	markdownLinkRe = regexp.MustCompile(`\[([^\]]*)\]\((https?://[^)\s]+)\)`)
)

// StrategicPlanItems parses the numbered steps of a Strategic Action Plan
// section. Steps may be "1. **Title:** text", "1. Title: text" or a bare
// "1. Title" followed by indented bullets and continuation lines.
func StrategicPlanItems(section string) []PlanItem {
	var items []PlanItem
	var current *PlanItem
	var desc []string

	closeItem := func() {
		if current == nil {
			return
		}
		current.Description = strings.TrimSpace(strings.Join(append([]string{current.Description}, desc...), " "))
		items = append(items, *current)
		current, desc = nil, nil
	}

	for _, line := range strings.Split(section, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := numberedTop.FindStringSubmatch(line); m != nil {
			closeItem()
			current = newPlanItem(m[2], len(items)+1)
			continue
		}
		if m := headedStep.FindStringSubmatch(line); m != nil {
			closeItem()
			current = newPlanItem(m[2], len(items)+1)
			continue
		}
		if current == nil {
			continue
		}
		if m := nestedBullet.FindStringSubmatch(line); m != nil {
			current.Points = append(current.Points, strings.TrimSpace(m[1]))
			continue
		}
		if m := listItemRe.FindStringSubmatch(line); m != nil {
			current.Points = append(current.Points, strings.TrimSpace(m[1]))
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			closeItem()
			continue
		}
		desc = append(desc, strings.TrimSpace(line))
	}
	closeItem()
	return items
}

func newPlanItem(text string, n int) *PlanItem {
	text = strings.TrimSpace(text)
	if m := boldTitleRe.FindStringSubmatch(text); m != nil {
		return &PlanItem{Title: strings.TrimRight(strings.TrimSpace(m[1]), ":"), Description: strings.TrimSpace(m[2])}
	}
	if idx := strings.Index(text, ":"); idx > 0 && idx <= 80 && !strings.Contains(text[:idx], "http") {
		return &PlanItem{Title: strings.TrimSpace(text[:idx]), Description: strings.TrimSpace(text[idx+1:])}
	}
	if len(text) <= 80 {
		return &PlanItem{Title: text}
	}
	return &PlanItem{Title: fmt.Sprintf("Action %d", n), Description: text}
}

// LearningPath parses "Resource N: Title" blocks of the learning path section.
func LearningPath(section string) []Resource {
	var out []Resource
	var current *Resource
	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := resourceRe.FindStringSubmatch(trimmed); m != nil {
			if current != nil {
				out = append(out, *current)
			}
			current = &Resource{Title: strings.TrimSpace(m[2])}
			continue
		}
		if current == nil {
			continue
		}
		text := trimmed
		if m := listItemRe.FindStringSubmatch(trimmed); m != nil {
			text = strings.TrimSpace(m[1])
		}
		if m := markdownLinkRe.FindStringSubmatch(text); m != nil && current.URL == "" {
			current.URL = m[2]
			if strings.TrimSpace(markdownLinkRe.ReplaceAllString(text, "")) == "" {
				continue
			}
		} else if url := urlRe.FindString(text); url != "" && current.URL == "" {
			current.URL = strings.TrimRight(url, ".,;)")
			if strings.TrimSpace(strings.Replace(text, url, "", 1)) == "" {
				continue
			}
		}
		current.Points = append(current.Points, text)
	}
	if current != nil {
		out = append(out, *current)
	}
	return out
}

// Benchmarks parses the "### <Tier> Tier Organizations" blocks.
func Benchmarks(section string) []TierBenchmark {
	var out []TierBenchmark
	var current *TierBenchmark
	for _, line := range strings.Split(section, "\n") {
		if m := tierBenchRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				out = append(out, *current)
			}
			current = &TierBenchmark{Tier: NormalizeTier(m[1])}
			continue
		}
		if anyHeading.MatchString(line) {
			if current != nil {
				out = append(out, *current)
				current = nil
			}
			continue
		}
		if current == nil {
			continue
		}
		if m := listItemRe.FindStringSubmatch(line); m != nil {
			current.Points = append(current.Points, strings.TrimSpace(m[1]))
		}
	}
	if current != nil {
		out = append(out, *current)
	}
	return out
}
