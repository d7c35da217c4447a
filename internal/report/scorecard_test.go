package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ai-scorecard/backend/internal/questionnaire"
)

func intPtr(v int) *int { return &v }

func TestFromDocument(t *testing.T) {
	testCases := []struct {
		name string
		doc  map[string]any
		id   string
		want Scorecard
	}{
		{
			name: "flat document",
			id:   "r1",
			doc: map[string]any{
				"companyName":    "Acme",
				"userName":       "Ann",
				"industry":       "Retail",
				"email":          "ann@acme.test",
				"tier":           "Leader",
				"score":          float64(81),
				"reportMarkdown": "## Overall Tier: Leader",
				"questionAnswerHistory": []any{
					map[string]any{"question": "Which tools?", "answer": []any{"Chatbots", "Analytics"}, "answerType": "checkbox", "phaseName": "Tools"},
				},
			},
			want: Scorecard{
				UserInformation:  UserInformation{UserName: "Ann", CompanyName: "Acme", Industry: "Retail", Email: "ann@acme.test"},
				ScoreInformation: ScoreInformation{AITier: "Leader", FinalScore: intPtr(81), ReportID: "r1"},
				QuestionAnswerHistory: []questionnaire.Answer{
					{Question: "Which tools?", Answer: "Chatbots|Analytics", AnswerType: "checkbox", PhaseName: "Tools"},
				},
				FullReportMarkdown: "## Overall Tier: Leader",
			},
		},
		{
			name: "nested document",
			id:   "r2",
			doc: map[string]any{
				"UserInformation":  map[string]any{"UserName": "Bo", "CompanyName": "Bolt", "Industry": "Energy", "Email": "bo@bolt.test"},
				"ScoreInformation": map[string]any{"AITier": "Enabler", "FinalScore": float64(55)},
				"markdown":         "body",
				"answers":          []any{map[string]any{"question": "Rate", "answer": float64(4), "answerType": "scale"}},
			},
			want: Scorecard{
				UserInformation:  UserInformation{UserName: "Bo", CompanyName: "Bolt", Industry: "Energy", Email: "bo@bolt.test"},
				ScoreInformation: ScoreInformation{AITier: "Enabler", FinalScore: intPtr(55), ReportID: "r2"},
				QuestionAnswerHistory: []questionnaire.Answer{
					{Question: "Rate", Answer: "4", AnswerType: "scale"},
				},
				FullReportMarkdown: "body",
			},
		},
		{
			name: "lead capture fields",
			id:   "r3",
			doc: map[string]any{
				"leadName":     "Cy",
				"leadCompany":  "Cyan",
				"leadIndustry": "Health",
				"leadEmail":    "cy@cyan.test",
				"aiTier":       "Dabbler",
			},
			want: Scorecard{
				UserInformation:       UserInformation{UserName: "Cy", CompanyName: "Cyan", Industry: "Health", Email: "cy@cyan.test"},
				ScoreInformation:      ScoreInformation{AITier: "Dabbler", ReportID: "r3"},
				QuestionAnswerHistory: []questionnaire.Answer{},
			},
		},
		{
			name: "company found by key name",
			id:   "r4",
			doc:  map[string]any{"signupCompanyLabel": "Zed Ltd", "score": "12"},
			want: Scorecard{
				UserInformation:       UserInformation{UserName: NotAvailable, CompanyName: "Zed Ltd", Industry: NotAvailable, Email: NotAvailable},
				ScoreInformation:      ScoreInformation{AITier: NotAvailable, FinalScore: intPtr(12), ReportID: "r4"},
				QuestionAnswerHistory: []questionnaire.Answer{},
			},
		},
		{
			name: "empty document",
			doc:  map[string]any{"id": "stored-id"},
			want: Scorecard{
				UserInformation:       UserInformation{UserName: NotAvailable, CompanyName: NotAvailable, Industry: NotAvailable, Email: NotAvailable},
				ScoreInformation:      ScoreInformation{AITier: NotAvailable, ReportID: "stored-id"},
				QuestionAnswerHistory: []questionnaire.Answer{},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromDocument(tc.doc, tc.id)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("scorecard mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScorecardValidate(t *testing.T) {
	v := Scorecard{}.Validate()
	if v.Valid || len(v.Errors) != 2 {
		t.Fatalf("expected two errors got %+v", v)
	}

	sc := FromDocument(map[string]any{"companyName": "Acme"}, "r1")
	v = sc.Validate()
	if !v.Valid {
		t.Fatalf("expected valid scorecard got %+v", v)
	}
	for _, want := range []string{"missing user name", "missing AI tier", "empty report markdown", "empty question and answer history"} {
		found := false
		for _, warning := range v.Warnings {
			if warning == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected warning %q in %v", want, v.Warnings)
		}
	}
}

func TestScorecardMerge(t *testing.T) {
	base := FromDocument(map[string]any{"companyName": "Acme", "tier": "Enabler", "score": float64(40)}, "r1")
	merged := base.Merge(Scorecard{
		UserInformation:  UserInformation{UserName: "Dee"},
		ScoreInformation: ScoreInformation{FinalScore: intPtr(90)},
	})
	if merged.UserInformation.UserName != "Dee" || merged.UserInformation.CompanyName != "Acme" {
		t.Fatalf("unexpected user info %+v", merged.UserInformation)
	}
	if *merged.ScoreInformation.FinalScore != 90 || merged.ScoreInformation.AITier != "Enabler" {
		t.Fatalf("unexpected score info %+v", merged.ScoreInformation)
	}
	if *base.ScoreInformation.FinalScore != 40 {
		t.Fatalf("merge should not modify the receiver")
	}

	fromBody := FromDocument(map[string]any{"userName": "Eve"}, "")
	merged = base.Merge(fromBody)
	if merged.UserInformation.CompanyName != "Acme" || merged.UserInformation.UserName != "Eve" {
		t.Fatalf("placeholders should not override stored values: %+v", merged.UserInformation)
	}
}

func TestExportMarkdown(t *testing.T) {
	sc := Scorecard{
		UserInformation:  UserInformation{UserName: "Ann", CompanyName: "Acme", Industry: "Retail", Email: "ann@acme.test"},
		ScoreInformation: ScoreInformation{AITier: "Leader", FinalScore: intPtr(45), ReportID: "r1"},
		QuestionAnswerHistory: []questionnaire.Answer{
			{Question: "Which tools?", Answer: "Chatbots|Analytics", AnswerType: "checkbox", PhaseName: "AI Strategy"},
			{Question: "Rate comfort", Answer: "3", AnswerType: "scale"},
		},
		FullReportMarkdown: "## Overall Tier: Leader\n\nGreat work.",
	}
	var buf bytes.Buffer
	if err := ExportMarkdown(&buf, sc); err != nil {
		t.Fatalf("export: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# AI Efficiency Scorecard for Acme",
		"45/100",
		"## Overall Tier: Leader",
		"## Assessment Questions & Answers",
		"### AI Strategy",
		"### " + questionnaire.DefaultPhaseName,
		"**Q1:** Which tools?",
		"**A:** Chatbots, Analytics",
		"**Q2:** Rate comfort",
		"Confidential report for Ann",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in export:\n%s", want, out)
		}
	}
}

func TestStats(t *testing.T) {
	stats := Stats(loadFixture(t, "preview_report.md"))
	for _, key := range []string{"strengths", "weaknesses", "strategicPlan", "detailedAnalysis"} {
		if stats.Sections[key] == 0 {
			t.Fatalf("expected words in %s: %v", key, stats.Sections)
		}
	}
	sum := 0
	for _, count := range stats.Sections {
		sum += count
	}
	if stats.TotalWords != sum {
		t.Fatalf("total %d does not match section sum %d", stats.TotalWords, sum)
	}
	terms := strings.Join(stats.KeyTerms, "\n")
	if !strings.Contains(terms, "Build Team Capabilities:") || !strings.Contains(terms, "Key Findings") {
		t.Fatalf("unexpected key terms %v", stats.KeyTerms)
	}
	if len(stats.KeyTerms) > maxKeyTerms {
		t.Fatalf("too many key terms")
	}

	empty := Stats("")
	if empty.TotalWords != 0 || len(empty.KeyTerms) != 0 {
		t.Fatalf("expected empty stats got %+v", empty)
	}
}

func TestInsertKeyFindings(t *testing.T) {
	history := []questionnaire.Answer{
		{Question: "Rate data readiness?", Answer: "5", AnswerType: "scale"},
		{Question: "Rate AI skills", Answer: "2", AnswerType: "scale"},
		{Question: "Rate budget", Answer: "3", AnswerType: "scale"},
		{Question: "Describe tools", Answer: "5", AnswerType: "text"},
	}
	md := "## Overall Tier: Enabler\n\nBody\n\n## Strategic Action Plan\n\n1. Do it\n"

	out := InsertKeyFindings(md, history)
	if strings.Index(out, "## Key Findings") > strings.Index(out, "## Strategic Action Plan") || !strings.Contains(out, "## Key Findings") {
		t.Fatalf("findings not inserted after the tier section:\n%s", out)
	}
	want := Findings{
		Strengths:  []string{"Rate data readiness (rated 5/5)"},
		Weaknesses: []string{"Rate AI skills (rated 2/5)"},
	}
	if diff := cmp.Diff(want, ExtractAll(out).KeyFindings); diff != "" {
		t.Fatalf("findings mismatch (-want +got):\n%s", diff)
	}

	if got := InsertKeyFindings(out, history); got != out {
		t.Fatalf("existing findings should be kept")
	}
	if got := InsertKeyFindings(md, history[2:]); got != md {
		t.Fatalf("nothing derivable should leave markdown unchanged")
	}
	if got := InsertKeyFindings("Intro only", history); !strings.HasPrefix(got, "## Key Findings") {
		t.Fatalf("expected findings at the top got:\n%s", got)
	}
}
