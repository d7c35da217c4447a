package questionnaire

import (
	"fmt"
	"strings"
)

type persona struct {
	styleGuide string
	scale      string
	checkbox   string
}

var personas = map[string]persona{
	"dabbler": {
		styleGuide: `Your answers should reflect minimal AI adoption, basic tools usage, limited strategy, and early exploration phases. Use phrases like "exploring", "beginning to", "limited", "basic", "minimal", "occasional", "ad hoc", or "no formal process". Keep answers brief but realistic.`,
		scale:      "1 or 2",
		checkbox:   "1-2",
	},
	"enabler": {
		styleGuide: `Your answers should reflect moderate AI adoption, regular tool usage, developing strategies, and established processes that are still being optimized. Use phrases like "developing", "established", "regular", "multiple tools", "organized", "some", or "moderate". Provide balanced, realistic responses.`,
		scale:      "3 or 4",
		checkbox:   "2-4",
	},
	"leader": {
		styleGuide: `Your answers should reflect sophisticated AI adoption, extensive tools integration, comprehensive strategies, and advanced processes. Use phrases like "comprehensive", "integrated", "enterprise-wide", "sophisticated", "extensive", "strategic", "automated", or "advanced". Show depth and maturity in your responses.`,
		scale:      "4 or 5",
		checkbox:   "4-5+",
	},
}

// PersonaPrompts builds the system and user prompts that simulate an
// organisation of the given tier answering one question. Unknown tiers use
// the Enabler persona.
func PersonaPrompts(tier, industry string, q Question, final bool) (system, user string) {
	key := strings.ToLower(strings.TrimSpace(tier))
	p, ok := personas[key]
	if !ok {
		key = "enabler"
		p = personas[key]
	}
	label := strings.ToUpper(key[:1]) + key[1:]
	if strings.TrimSpace(industry) == "" {
		industry = "general business"
	}

	sb := &strings.Builder{}
	fmt.Fprintf(sb, "You are simulating the responses of a %s tier organization in the %s industry taking an AI maturity assessment.\n", label, industry)
	fmt.Fprintf(sb, "Based on the question type and content, provide a realistic answer that reflects the typical AI adoption level, tools, processes, and challenges of a %s organization.\n\n", key)
	fmt.Fprintf(sb, "RESPONSE STYLE GUIDE: %s\n\n", p.styleGuide)
	fmt.Fprintf(sb, "For scale questions (1-5), return only the number: %s.\n", p.scale)
	fmt.Fprintf(sb, "For radio/single choice questions, select the option that best matches a %s organization.\n", key)
	fmt.Fprintf(sb, "For checkbox/multiple choice questions, select %s relevant options separated by |.\n", p.checkbox)
	fmt.Fprintf(sb, "For text questions, write a concise response (30-100 words) that reflects the perspective of a %s organization.", key)
	system = sb.String()

	ub := &strings.Builder{}
	fmt.Fprintf(ub, "Question: %s\n", q.Text)
	fmt.Fprintf(ub, "Question type: %s\n", NormalizeType(q.Type))
	if len(q.Options) > 0 {
		fmt.Fprintf(ub, "Options: %s\n", strings.Join(q.Options, " | "))
	}
	fmt.Fprintf(ub, "\nProvide a realistic answer for a %s tier organization in the %s industry.", label, industry)
	if final {
		ub.WriteString(" This is the final question of the assessment.")
	}
	user = ub.String()
	return system, user
}
