// Package render turns a scorecard into a self-contained HTML document in
// either the standard report layout or the slide-style presentation layout.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"ai-scorecard/backend/internal/questionnaire"
	"ai-scorecard/backend/internal/report"
)

// Document styles.
const (
	StyleStandard     = "standard"
	StylePresentation = "presentation"
)

//go:embed templates
var templateFS embed.FS

var (
	templates = template.Must(template.New("report").Funcs(template.FuncMap{
		"card": newCard,
	}).ParseFS(templateFS, "templates/*.html.tmpl"))

	standardCSS     = mustRead("templates/report.css")
	presentationCSS = mustRead("templates/presentation.css")
)

func mustRead(name string) string {
	raw, err := templateFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("read %s: %v", name, err))
	}
	return string(raw)
}

// Options selects what the document contains.
type Options struct {
	IncludeQA               bool
	IncludeDetailedAnalysis bool
	Style                   string
	GeneratedAt             time.Time
}

// NormalizeStyle maps an arbitrary style value onto a known style.
func NormalizeStyle(style string) string {
	if strings.EqualFold(strings.TrimSpace(style), StylePresentation) {
		return StylePresentation
	}
	return StyleStandard
}

type cardView struct {
	Icon  string
	Title string
	HTML  template.HTML
}

func newCard(icon, title string, body template.HTML) cardView {
	return cardView{Icon: icon, Title: title, HTML: body}
}

type actionView struct {
	Number      int
	Title       string
	Description template.HTML
	Points      []template.HTML
	Summary     string
}

type sectionView struct {
	Title string
	HTML  template.HTML
}

type qaItem struct {
	Number   int
	Question string
	Answer   string
}

type qaGroup struct {
	Phase string
	Items []qaItem
}

type page struct {
	Title            string
	CSS              template.CSS
	GeneratedOn      string
	UserName         string
	CompanyName      string
	Industry         string
	SlideUserName    string
	SlideCompanyName string
	ReportID         string
	Score            string
	Tier             string
	TierDescription  string
	Intro            template.HTML
	Strengths        []template.HTML
	Weaknesses       []template.HTML
	Actions          []actionView
	PlanHTML         template.HTML
	Resources        template.HTML
	LearningPath     template.HTML
	Benchmarks       template.HTML
	Analysis         template.HTML
	Dynamic          []sectionView
	Remaining        []sectionView
	QA               []qaGroup
}

// Build parses the scorecard markdown and renders it.
func Build(sc report.Scorecard, opts Options) (string, error) {
	return Document(sc, report.ExtractAll(sc.FullReportMarkdown), opts)
}

// Document renders an already parsed report. All markdown-derived HTML has
// been sanitized by the report package; everything else is escaped by the
// templates.
func Document(sc report.Scorecard, parsed report.Parsed, opts Options) (string, error) {
	style := NormalizeStyle(opts.Style)
	p := newPage(sc, parsed, opts)
	css := standardCSS
	if style == StylePresentation {
		css += "\n" + presentationCSS
	}
	p.CSS = template.CSS(css)

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, style, p); err != nil {
		return "", fmt.Errorf("render %s document: %w", style, err)
	}
	return buf.String(), nil
}

func newPage(sc report.Scorecard, parsed report.Parsed, opts Options) page {
	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	user := sc.UserInformation
	tier := sc.ScoreInformation.AITier
	if isBlank(tier) {
		tier = parsed.OverallTier
	}

	p := page{
		Title:            "AI Efficiency Scorecard",
		GeneratedOn:      generated.Format("2 January 2006"),
		UserName:         realName(user.UserName, "User", "User"),
		CompanyName:      orDefault(user.CompanyName, report.NotAvailable),
		Industry:         orDefault(user.Industry, "Not specified"),
		SlideUserName:    realName(user.UserName, "User", "User"),
		SlideCompanyName: realName(user.CompanyName, "Company", "Your Organization"),
		ReportID:         strings.TrimSpace(sc.ScoreInformation.ReportID),
		Score:            report.ScoreText(sc.ScoreInformation.FinalScore),
		Tier:             orDefault(tier, "Assessment Complete"),
		TierDescription:  TierDescription(tier),
		Intro:            template.HTML(parsed.IntroText),
		Resources:        template.HTML(parsed.Sections.Resources.HTML),
		LearningPath:     template.HTML(parsed.Sections.LearningPath.HTML),
		Benchmarks:       template.HTML(parsed.Sections.Benchmarks.HTML),
		PlanHTML:         template.HTML(parsed.Sections.StrategicPlan.HTML),
	}
	if !isBlank(user.CompanyName) {
		p.Title = "AI Efficiency Scorecard for " + user.CompanyName
	}
	if p.Intro == "" && !parsed.TierSection.Empty() {
		p.Intro = template.HTML(parsed.TierSection.HTML)
	}
	if opts.IncludeDetailedAnalysis {
		p.Analysis = template.HTML(parsed.Sections.DetailedAnalysis.HTML)
	}
	for _, s := range parsed.KeyFindings.Strengths {
		p.Strengths = append(p.Strengths, template.HTML(report.InlineHTML(s)))
	}
	for _, w := range parsed.KeyFindings.Weaknesses {
		p.Weaknesses = append(p.Weaknesses, template.HTML(report.InlineHTML(w)))
	}
	p.Actions = actions(parsed.Sections.StrategicPlan)
	for _, section := range parsed.Dynamic {
		p.Dynamic = append(p.Dynamic, sectionView{Title: section.Title, HTML: template.HTML(section.HTML)})
	}
	for _, section := range []report.Section{parsed.Sections.Resources, parsed.Sections.LearningPath, parsed.Sections.Benchmarks} {
		if !section.Empty() {
			p.Remaining = append(p.Remaining, sectionView{Title: section.Title, HTML: template.HTML(section.HTML)})
		}
	}
	if opts.IncludeDetailedAnalysis && !parsed.Sections.DetailedAnalysis.Empty() {
		p.Remaining = append(p.Remaining, sectionView{Title: parsed.Sections.DetailedAnalysis.Title, HTML: p.Analysis})
	}
	if opts.IncludeQA {
		p.QA = qaGroups(sc.QuestionAnswerHistory)
	}
	return p
}

// actions prefers the markdown plan items and falls back to the numbered
// lists of the rendered section.
func actions(plan report.Section) []actionView {
	var out []actionView
	for i, item := range report.StrategicPlanItems(plan.Content) {
		view := actionView{
			Number:      i + 1,
			Title:       stripMarkdown(item.Title),
			Description: template.HTML(report.InlineHTML(item.Description)),
		}
		for _, point := range item.Points {
			view.Points = append(view.Points, template.HTML(report.InlineHTML(point)))
		}
		view.Summary = summary(item.Description, item.Points)
		out = append(out, view)
	}
	if len(out) > 0 {
		return out
	}
	for i, item := range ParseActionItems(plan.HTML) {
		view := actionView{Number: i + 1, Title: item.Title, Summary: strings.Join(item.Points, "; ")}
		for _, point := range item.Points {
			view.Points = append(view.Points, template.HTML(template.HTMLEscapeString(point)))
		}
		out = append(out, view)
	}
	return out
}

func summary(description string, points []string) string {
	if len(points) > 0 {
		stripped := make([]string, 0, len(points))
		for _, point := range points {
			stripped = append(stripped, stripMarkdown(point))
		}
		return strings.Join(stripped, "; ")
	}
	return stripMarkdown(description)
}

func stripMarkdown(s string) string {
	return strings.TrimSpace(strings.NewReplacer("**", "", "__", "", "`", "").Replace(s))
}

func qaGroups(history []questionnaire.Answer) []qaGroup {
	var out []qaGroup
	for _, group := range questionnaire.GroupByPhase(history) {
		g := qaGroup{Phase: group.Phase}
		for i, entry := range group.Answers {
			g.Items = append(g.Items, qaItem{
				Number:   i + 1,
				Question: entry.Question,
				Answer:   questionnaire.FormatAnswer(entry),
			})
		}
		out = append(out, g)
	}
	return out
}

func isBlank(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || value == report.NotAvailable
}

func orDefault(value, fallback string) string {
	if isBlank(value) {
		return fallback
	}
	return value
}

// realName replaces empty values and the form placeholder with fallback.
func realName(value, placeholder, fallback string) string {
	if isBlank(value) || strings.EqualFold(strings.TrimSpace(value), placeholder) {
		return fallback
	}
	return value
}
