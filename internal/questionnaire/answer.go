package questionnaire

import (
	"errors"
	"strings"
)

// Answer types accepted by the questionnaire UI.
const (
	TypeText     = "text"
	TypeRadio    = "radio"
	TypeCheckbox = "checkbox"
	TypeScale    = "scale"
)

// Answer sources recorded with every history entry.
const (
	SourceManual = "Manual"
	SourceAuto   = "Auto"
)

// DefaultPhaseName labels history entries with no phase.
const DefaultPhaseName = "General Assessment"

// Question is generated by the question chain.
type Question struct {
	Text          string   `json:"question"`
	Type          string   `json:"answerType"`
	Options       []string `json:"options,omitempty"`
	PhaseName     string   `json:"phaseName,omitempty"`
	ReasoningText string   `json:"reasoningText,omitempty"`
}

// Answer is one entry of a question and answer history.
type Answer struct {
	Question      string   `json:"question"`
	Answer        string   `json:"answer"`
	PhaseName     string   `json:"phaseName,omitempty"`
	ReasoningText string   `json:"reasoningText,omitempty"`
	AnswerType    string   `json:"answerType,omitempty"`
	Options       []string `json:"options,omitempty"`
	Index         int      `json:"index,omitempty"`
	AnswerSource  string   `json:"answerSource,omitempty"`
}

// Group is the set of answers that share a phase.
type Group struct {
	Phase   string   `json:"phase"`
	Answers []Answer `json:"answers"`
}

// NormalizeType maps loose type labels onto the supported set.
func NormalizeType(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "radio", "single", "single-choice", "single_choice", "multiple-choice-single":
		return TypeRadio
	case "checkbox", "multiple", "multi", "multiple-choice", "multiple_choice":
		return TypeCheckbox
	case "scale", "rating", "likert":
		return TypeScale
	default:
		return TypeText
	}
}

// Validate normalises the question in place and rejects unusable ones.
func (q *Question) Validate() error {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return errors.New("question text is empty")
	}
	q.Type = NormalizeType(q.Type)
	options := q.Options[:0]
	for _, option := range q.Options {
		if trimmed := strings.TrimSpace(option); trimmed != "" {
			options = append(options, trimmed)
		}
	}
	q.Options = options
	if (q.Type == TypeRadio || q.Type == TypeCheckbox) && len(q.Options) < 2 {
		return errors.New("choice question needs at least two options")
	}
	if q.Type == TypeScale && len(q.Options) == 0 {
		q.Options = []string{"1", "2", "3", "4", "5"}
	}
	return nil
}

// FormatAnswer renders an answer value for display. Multi-select answers are
// stored pipe separated.
func FormatAnswer(a Answer) string {
	value := strings.TrimSpace(a.Answer)
	if value == "" {
		return "No answer provided"
	}
	switch NormalizeType(a.AnswerType) {
	case TypeCheckbox, TypeRadio:
		parts := strings.Split(value, "|")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return strings.Join(out, ", ")
	default:
		return value
	}
}

// GroupByPhase keeps the first-seen phase order.
func GroupByPhase(history []Answer) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, entry := range history {
		phase := strings.TrimSpace(entry.PhaseName)
		if phase == "" {
			phase = DefaultPhaseName
		}
		pos, ok := index[phase]
		if !ok {
			pos = len(groups)
			index[phase] = pos
			groups = append(groups, Group{Phase: phase})
		}
		groups[pos].Answers = append(groups[pos].Answers, entry)
	}
	return groups
}
