package questionnaire

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultQuestionnaire(t *testing.T) {
	q := Default()
	if q.MaxQuestions != 20 {
		t.Fatalf("expected 20 questions got %d", q.MaxQuestions)
	}
	if len(q.Phases) != 6 {
		t.Fatalf("expected 6 phases got %d", len(q.Phases))
	}
	if q.Names()[0] != "Strategy & Leadership" {
		t.Fatalf("unexpected first phase %q", q.Names()[0])
	}
}

func TestPhaseForSpreadsQuestions(t *testing.T) {
	q := &Questionnaire{MaxQuestions: 6, Phases: []Phase{{Name: "A"}, {Name: "B"}, {Name: "C"}}}
	testCases := []struct {
		index int
		want  string
	}{
		{-1, "A"}, {0, "A"}, {1, "A"}, {2, "B"}, {3, "B"}, {4, "C"}, {5, "C"}, {40, "C"},
	}
	for _, tc := range testCases {
		if got := q.PhaseFor(tc.index).Name; got != tc.want {
			t.Fatalf("index %d: expected %s got %s", tc.index, tc.want, got)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.yaml")
	body := "phases:\n  - name: Only\n    focus: everything\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	q, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if q.MaxQuestions != 20 || len(q.Phases) != 1 {
		t.Fatalf("unexpected questionnaire %+v", q)
	}
	if q.WithMaxQuestions(5).MaxQuestions != 5 || q.MaxQuestions != 20 {
		t.Fatalf("WithMaxQuestions should copy")
	}
}

func TestParseRejectsEmptyPhases(t *testing.T) {
	if _, err := Parse([]byte("max_questions: 3\n")); err == nil {
		t.Fatalf("expected error for missing phases")
	}
	if _, err := Parse([]byte("phases:\n  - focus: x\n")); err == nil {
		t.Fatalf("expected error for unnamed phase")
	}
}

func TestQuestionValidate(t *testing.T) {
	testCases := []struct {
		name     string
		question Question
		wantType string
		wantErr  bool
	}{
		{"text", Question{Text: " What? ", Type: ""}, TypeText, false},
		{"radio", Question{Text: "Pick", Type: "single-choice", Options: []string{"a", " ", "b"}}, TypeRadio, false},
		{"checkbox missing options", Question{Text: "Pick many", Type: "multiple", Options: []string{"a"}}, TypeCheckbox, true},
		{"scale defaults", Question{Text: "Rate", Type: "rating"}, TypeScale, false},
		{"empty", Question{Text: "  "}, "", true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := tc.question
			err := q.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if q.Type != tc.wantType {
				t.Fatalf("expected type %s got %s", tc.wantType, q.Type)
			}
		})
	}
	scale := Question{Text: "Rate", Type: "scale"}
	_ = scale.Validate()
	if len(scale.Options) != 5 {
		t.Fatalf("expected default scale options")
	}
}

func TestFormatAnswer(t *testing.T) {
	testCases := []struct {
		answer Answer
		want   string
	}{
		{Answer{Answer: "Chatbots|Analytics| ", AnswerType: "checkbox"}, "Chatbots, Analytics"},
		{Answer{Answer: "4", AnswerType: "scale"}, "4"},
		{Answer{Answer: "  "}, "No answer provided"},
		{Answer{Answer: "We use | pipes", AnswerType: "text"}, "We use | pipes"},
	}
	for _, tc := range testCases {
		if got := FormatAnswer(tc.answer); got != tc.want {
			t.Fatalf("expected %q got %q", tc.want, got)
		}
	}
}

func TestGroupByPhase(t *testing.T) {
	groups := GroupByPhase([]Answer{
		{Question: "1", PhaseName: "Strategy"},
		{Question: "2"},
		{Question: "3", PhaseName: "Strategy"},
	})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups got %d", len(groups))
	}
	if groups[0].Phase != "Strategy" || len(groups[0].Answers) != 2 {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
	if groups[1].Phase != DefaultPhaseName {
		t.Fatalf("expected default phase got %q", groups[1].Phase)
	}
}

func TestPersonaPrompts(t *testing.T) {
	q := Question{Text: "Rate adoption", Type: "scale", Options: []string{"1", "5"}}
	system, user := PersonaPrompts("leader", "Retail", q, true)
	if !strings.Contains(system, "Leader tier organization in the Retail industry") {
		t.Fatalf("unexpected system prompt: %s", system)
	}
	if !strings.Contains(system, "4 or 5") {
		t.Fatalf("expected leader scale guidance")
	}
	if !strings.Contains(user, "Options: 1 | 5") || !strings.Contains(user, "final question") {
		t.Fatalf("unexpected user prompt: %s", user)
	}

	system, _ = PersonaPrompts("unknown", "", q, false)
	if !strings.Contains(system, "Enabler tier") || !strings.Contains(system, "general business") {
		t.Fatalf("expected enabler fallback: %s", system)
	}
}
