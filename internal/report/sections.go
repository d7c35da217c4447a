// Package report recovers structure from the LLM-generated scorecard markdown
// and carries the scorecard record shared by rendering and persistence.
package report

import (
	"regexp"
	"strings"
)

// Section is a titled block of the report.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	HTML    string `json:"htmlContent"`
}

// Empty reports whether the section carries any content.
func (s Section) Empty() bool {
	return strings.TrimSpace(s.Content) == ""
}

// Findings are the bullet lists found under Key Findings.
type Findings struct {
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// Sections are the well-known report blocks.
type Sections struct {
	Strengths        Section `json:"strengths"`
	Weaknesses       Section `json:"weaknesses"`
	StrategicPlan    Section `json:"strategicPlan"`
	Resources        Section `json:"resources"`
	Benchmarks       Section `json:"benchmarks"`
	LearningPath     Section `json:"learningPath"`
	DetailedAnalysis Section `json:"detailedAnalysis"`
}

// Parsed is the structured view of a report.
type Parsed struct {
	Title       string    `json:"title,omitempty"`
	IntroText   string    `json:"introText"`
	OverallTier string    `json:"overallTier"`
	TierSection Section   `json:"tierSection"`
	KeyFindings Findings  `json:"keyFindings"`
	Sections    Sections  `json:"sections"`
	Dynamic     []Section `json:"dynamicSections"`
}

// Found lists the titles of the well-known sections that have content.
func (p Parsed) Found() []string {
	var out []string
	for _, s := range []Section{
		p.Sections.Strengths, p.Sections.Weaknesses, p.Sections.StrategicPlan,
		p.Sections.Resources, p.Sections.Benchmarks, p.Sections.LearningPath,
		p.Sections.DetailedAnalysis,
	} {
		if !s.Empty() {
			out = append(out, s.Title)
		}
	}
	return out
}

var (
	h1Line      = regexp.MustCompile(`^#\s+(.+?)\s*#*\s*$`)
	h2Line      = regexp.MustCompile(`^##\s+(.+?)\s*#*\s*$`)
	anyHeading  = regexp.MustCompile(`^#{1,6}\s+`)
	fenceLine   = regexp.MustCompile("^\\s*(```|~~~)")
	boldLabel   = regexp.MustCompile(`^\s*\*\*[^*]+:\*\*\s*$`)
	listItemRe  = regexp.MustCompile(`^\s*(?:[-*+•]|\d+[.)])\s+(.*)$`)
	nextStepsRe = regexp.MustCompile(`(?i)^\s*next steps:?\s*$`)

	strengthsBold    = regexp.MustCompile(`(?i)^\s*\*\*(?:your |key )?strengths:?\*\*:?\s*(.*)$`)
	weaknessesBold   = regexp.MustCompile(`(?i)^\s*\*\*(?:your |key )?(?:weaknesses|challenges|focus areas|areas for improvement):?\*\*:?\s*(.*)$`)
	strengthsHeader  = regexp.MustCompile(`(?i)^#{3,4}\s+(?:your |key )?strengths\b`)
	weaknessesHeader = regexp.MustCompile(`(?i)^#{3,4}\s+(?:your |key )?(?:weaknesses|challenges|focus areas|areas for improvement)\b`)
	strengthsPlain   = regexp.MustCompile(`(?i)^\s*your strengths:?\s*$`)
	weaknessesPlain  = regexp.MustCompile(`(?i)^\s*focus areas:?\s*$`)
)

// Title patterns in priority order. The first pattern that matches any
// section wins, regardless of section position.
var (
	tierTitles      = titlePatterns(`overall tier\b`)
	findingsTitles  = titlePatterns(`key\s+findings\b`, `summary\b`)
	planTitles      = titlePatterns(`strategic action plan\b`, `action plan\b`)
	resourceTitles  = titlePatterns(`getting started\s*(?:&|\+|and)\s*resources\b`, `resources\b`)
	benchmarkTitles = titlePatterns(`illustrative benchmarks\b`, `benchmarks\b`)
	learningTitles  = titlePatterns(`your personali[sz]ed ai learning path\b`, `personali[sz]ed ai learning path\b`, `learning path\b`)
	analysisTitles  = titlePatterns(`detailed analysis\b`)
	skippedDynamic  = []string{"key findings", "overall tier", "final score", "strategic action plan", "action plan", "getting started", "resources", "illustrative benchmarks", "benchmarks", "learning path", "detailed analysis"}
)

func titlePatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, regexp.MustCompile(`(?i)^`+expr))
	}
	return out
}

// block is one level-two section of the markdown.
type block struct {
	title string
	body  string
}

// splitBlocks separates the markdown into the text before the first level-two
// heading and the level-two sections that follow. Headings inside code
// fences are ignored, and a level-one heading also closes a section.
func splitBlocks(md string) (title, intro string, blocks []block) {
	lines := strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n")
	var introLines, current []string
	var currentTitle string
	inBlock, inFence := false, false

	flush := func() {
		if inBlock {
			blocks = append(blocks, block{title: currentTitle, body: strings.TrimSpace(strings.Join(current, "\n"))})
		}
		current = nil
	}

	for _, line := range lines {
		if fenceLine.MatchString(line) {
			inFence = !inFence
		}
		if !inFence {
			if m := h2Line.FindStringSubmatch(line); m != nil {
				flush()
				inBlock = true
				currentTitle = strings.TrimSpace(m[1])
				continue
			}
			if m := h1Line.FindStringSubmatch(line); m != nil {
				if !inBlock && title == "" {
					title = strings.TrimSpace(m[1])
					continue
				}
				flush()
				inBlock = false
				continue
			}
		}
		if inBlock {
			current = append(current, line)
		} else {
			introLines = append(introLines, line)
		}
	}
	flush()
	return title, strings.TrimSpace(strings.Join(introLines, "\n")), blocks
}

func findBlock(blocks []block, patterns []*regexp.Regexp) (block, bool) {
	for _, pattern := range patterns {
		for _, b := range blocks {
			if pattern.MatchString(b.title) {
				return b, true
			}
		}
	}
	return block{}, false
}

func sectionFrom(blocks []block, patterns []*regexp.Regexp, title string) Section {
	b, ok := findBlock(blocks, patterns)
	if !ok {
		return Section{Title: title}
	}
	return newSection(title, b.body)
}

func newSection(title, content string) Section {
	content = strings.TrimSpace(content)
	return Section{Title: title, Content: content, HTML: MarkdownToHTML(content)}
}

// ExtractAll parses every known section out of the report markdown.
func ExtractAll(md string) Parsed {
	parsed := Parsed{
		Sections: Sections{
			Strengths:        Section{Title: "Strengths"},
			Weaknesses:       Section{Title: "Weaknesses"},
			StrategicPlan:    Section{Title: "Strategic Action Plan"},
			Resources:        Section{Title: "Resources"},
			Benchmarks:       Section{Title: "Benchmarks"},
			LearningPath:     Section{Title: "Learning Path"},
			DetailedAnalysis: Section{Title: "Detailed Analysis"},
		},
	}
	if strings.TrimSpace(md) == "" {
		return parsed
	}

	title, intro, blocks := splitBlocks(md)
	parsed.Title = title
	if intro != "" {
		parsed.IntroText = MarkdownToHTML(intro)
	}
	parsed.OverallTier = ExtractTier(md)
	if b, ok := findBlock(blocks, tierTitles); ok {
		parsed.TierSection = newSection(b.title, b.body)
	}

	if b, ok := findBlock(blocks, findingsTitles); ok {
		parsed.KeyFindings = Findings{
			Strengths:  ListItems(strengthsBlock(b.body)),
			Weaknesses: ListItems(weaknessesBlock(b.body)),
		}
	}

	parsed.Sections.Strengths = newSection("Strengths", strengthsBlock(md))
	parsed.Sections.Weaknesses = newSection("Weaknesses", weaknessesBlock(md))
	if len(parsed.KeyFindings.Strengths) == 0 {
		parsed.KeyFindings.Strengths = ListItems(parsed.Sections.Strengths.Content)
	}
	if len(parsed.KeyFindings.Weaknesses) == 0 {
		parsed.KeyFindings.Weaknesses = ListItems(parsed.Sections.Weaknesses.Content)
	}

	parsed.Sections.StrategicPlan = sectionFrom(blocks, planTitles, "Strategic Action Plan")
	parsed.Sections.Resources = sectionFrom(blocks, resourceTitles, "Resources")
	parsed.Sections.Benchmarks = sectionFrom(blocks, benchmarkTitles, "Benchmarks")
	parsed.Sections.LearningPath = sectionFrom(blocks, learningTitles, "Learning Path")
	parsed.Sections.DetailedAnalysis = sectionFrom(blocks, analysisTitles, "Detailed Analysis")
	parsed.Dynamic = dynamicSections(blocks)
	return parsed
}

func dynamicSections(blocks []block) []Section {
	var out []Section
	for _, b := range blocks {
		lower := strings.ToLower(b.title)
		skip := false
		for _, known := range skippedDynamic {
			if strings.Contains(lower, known) {
				skip = true
				break
			}
		}
		if skip || b.body == "" {
			continue
		}
		out = append(out, newSection(b.title, b.body))
	}
	return out
}

// strengthsBlock returns the text under the first strengths marker, stopping
// at a weaknesses marker or any heading.
func strengthsBlock(md string) string {
	return markedBlock(md,
		func(line string) (string, bool) {
			if m := strengthsBold.FindStringSubmatch(line); m != nil {
				return m[1], true
			}
			return "", strengthsHeader.MatchString(line) || strengthsPlain.MatchString(line)
		},
		func(line string) bool {
			return anyHeading.MatchString(line) || weaknessesBold.MatchString(line) || weaknessesPlain.MatchString(line)
		})
}

// weaknessesBlock returns the text under the first weaknesses or challenges
// marker, stopping at another bold label or any heading.
func weaknessesBlock(md string) string {
	return markedBlock(md,
		func(line string) (string, bool) {
			if m := weaknessesBold.FindStringSubmatch(line); m != nil {
				return m[1], true
			}
			return "", weaknessesHeader.MatchString(line) || weaknessesPlain.MatchString(line)
		},
		func(line string) bool {
			return anyHeading.MatchString(line) || boldLabel.MatchString(line) || nextStepsRe.MatchString(line)
		})
}

func markedBlock(md string, start func(string) (string, bool), end func(string) bool) string {
	lines := strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n")
	for i, line := range lines {
		rest, ok := start(line)
		if !ok {
			continue
		}
		var out []string
		if strings.TrimSpace(rest) != "" {
			out = append(out, rest)
		}
		for _, next := range lines[i+1:] {
			if end(next) {
				break
			}
			out = append(out, next)
		}
		return strings.TrimSpace(strings.Join(out, "\n"))
	}
	return ""
}

// ListItems returns the bullet and numbered items of a block.
func ListItems(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		m := listItemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if item := strings.TrimSpace(m[1]); item != "" {
			items = append(items, item)
		}
	}
	return items
}
