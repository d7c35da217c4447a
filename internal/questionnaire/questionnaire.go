// Package questionnaire describes the assessment phases and the question and
// answer records exchanged during a scorecard session.
package questionnaire

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed phases.yaml
var defaultPhases []byte

// Phase groups related questions.
type Phase struct {
	Name  string `yaml:"name" json:"name"`
	Focus string `yaml:"focus" json:"focus"`
}

// Questionnaire is the ordered list of phases and the question budget.
type Questionnaire struct {
	MaxQuestions int     `yaml:"max_questions" json:"max_questions"`
	Phases       []Phase `yaml:"phases" json:"phases"`
}

// Default returns the embedded questionnaire.
func Default() *Questionnaire {
	q, err := Parse(defaultPhases)
	if err != nil {
		panic(fmt.Sprintf("embedded questionnaire: %v", err))
	}
	return q
}

// Load reads a questionnaire file, falling back to the embedded default when
// path is empty.
func Load(path string) (*Questionnaire, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questionnaire: %w", err)
	}
	return Parse(raw)
}

// Parse decodes questionnaire YAML.
func Parse(raw []byte) (*Questionnaire, error) {
	var q Questionnaire
	if err := yaml.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("decode questionnaire: %w", err)
	}
	if len(q.Phases) == 0 {
		return nil, errors.New("questionnaire has no phases")
	}
	for i, phase := range q.Phases {
		if strings.TrimSpace(phase.Name) == "" {
			return nil, fmt.Errorf("phase %d has no name", i+1)
		}
	}
	if q.MaxQuestions <= 0 {
		q.MaxQuestions = 20
	}
	return &q, nil
}

// WithMaxQuestions returns a copy with a different question budget.
func (q *Questionnaire) WithMaxQuestions(n int) *Questionnaire {
	out := *q
	if n > 0 {
		out.MaxQuestions = n
	}
	return &out
}

// PhaseFor spreads question indexes (zero based) evenly across phases.
func (q *Questionnaire) PhaseFor(index int) Phase {
	if index < 0 {
		index = 0
	}
	perPhase := q.MaxQuestions / len(q.Phases)
	if q.MaxQuestions%len(q.Phases) != 0 {
		perPhase++
	}
	if perPhase <= 0 {
		perPhase = 1
	}
	slot := index / perPhase
	if slot >= len(q.Phases) {
		slot = len(q.Phases) - 1
	}
	return q.Phases[slot]
}

// Names lists the phase names in order.
func (q *Questionnaire) Names() []string {
	names := make([]string, 0, len(q.Phases))
	for _, phase := range q.Phases {
		names = append(names, phase.Name)
	}
	return names
}
