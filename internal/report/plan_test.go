package report

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStrategicPlanItemsFromFixtures(t *testing.T) {
	parsed := ExtractAll(loadFixture(t, "dabbler_report.md"))
	items := StrategicPlanItems(parsed.Sections.StrategicPlan.Content)
	if len(items) != 5 {
		t.Fatalf("expected 5 items got %d", len(items))
	}
	want := PlanItem{
		Title: "Develop AI Literacy and Skills",
		Points: []string{
			"Implement basic AI training for leadership team",
			"Identify and upskill potential AI champions within your organization",
			"Consider partnering with AI consultants for knowledge transfer",
		},
	}
	if diff := cmp.Diff(want, items[0]); diff != "" {
		t.Fatalf("first item mismatch (-want +got):\n%s", diff)
	}

	parsed = ExtractAll(loadFixture(t, "preview_report.md"))
	items = StrategicPlanItems(parsed.Sections.StrategicPlan.Content)
	var titles []string
	for _, item := range items {
		titles = append(titles, item.Title)
	}
	wantTitles := []string{
		"Develop a Unified AI Strategy",
		"Build Team Capabilities",
		"Start with Quick Wins",
		"Establish Governance Framework",
		"Measure and Communicate Value",
	}
	if diff := cmp.Diff(wantTitles, titles); diff != "" {
		t.Fatalf("titles mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(items[0].Description, "Organize a cross-departmental workshop") {
		t.Fatalf("unexpected description %q", items[0].Description)
	}
}

func TestStrategicPlanItemShapes(t *testing.T) {
	long := strings.Repeat("word ", 20)
	testCases := []struct {
		name string
		md   string
		want []PlanItem
	}{
		{
			name: "colon title with continuation",
			md:   "1. Pilot: run a pilot\n   in one team",
			want: []PlanItem{{Title: "Pilot", Description: "run a pilot in one team"}},
		},
		{
			name: "heading steps",
			md:   "### Step 1: Audit data\n- list sources\n### Step 2: Train staff",
			want: []PlanItem{
				{Title: "Audit data", Points: []string{"list sources"}},
				{Title: "Train staff"},
			},
		},
		{
			name: "long untitled item",
			md:   "1. " + long,
			want: []PlanItem{{Title: "Action 1", Description: strings.TrimSpace(long)}},
		},
		{
			name: "prose only",
			md:   "We recommend starting small.",
			want: nil,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, StrategicPlanItems(tc.md)); diff != "" {
				t.Fatalf("items mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLearningPath(t *testing.T) {
	parsed := ExtractAll(loadFixture(t, "dabbler_report.md"))
	resources := LearningPath(parsed.Sections.LearningPath.Content)
	if len(resources) != 5 {
		t.Fatalf("expected 5 resources got %d", len(resources))
	}
	want := Resource{
		Title:  "AI for Everyone (Coursera)",
		Points: []string{"This non-technical course will help your leadership team understand AI fundamentals and potential business applications."},
		URL:    "https://www.coursera.org/learn/ai-for-everyone",
	}
	if diff := cmp.Diff(want, resources[0]); diff != "" {
		t.Fatalf("first resource mismatch (-want +got):\n%s", diff)
	}
	if len(resources[1].Points) != 2 || resources[1].URL != "https://www.datacamp.com/courses/data-strategy-fundamentals" {
		t.Fatalf("unexpected second resource %+v", resources[1])
	}

	linked := LearningPath("**Resource 1: Docs**\n- [Read the guide](https://example.com/guide)")
	if len(linked) != 1 || linked[0].Title != "Docs" || linked[0].URL != "https://example.com/guide" || len(linked[0].Points) != 0 {
		t.Fatalf("unexpected linked resource %+v", linked)
	}
}

func TestBenchmarks(t *testing.T) {
	parsed := ExtractAll(loadFixture(t, "dabbler_report.md"))
	benchmarks := Benchmarks(parsed.Sections.Benchmarks.Content)
	var tiers []string
	for _, b := range benchmarks {
		tiers = append(tiers, b.Tier)
		if len(b.Points) != 5 {
			t.Fatalf("%s: expected 5 points got %d", b.Tier, len(b.Points))
		}
	}
	if diff := cmp.Diff([]string{TierDabbler, TierEnabler, TierLeader}, tiers); diff != "" {
		t.Fatalf("tiers mismatch (-want +got):\n%s", diff)
	}
	if Benchmarks("no tiers here") != nil {
		t.Fatalf("expected no benchmarks")
	}
}
