package scorecard

import (
	"fmt"
	"strings"

	"ai-scorecard/backend/internal/questionnaire"
)

const questionSystemPrompt = `You are an AI maturity assessor running the AI Efficiency Scorecard for a business.
Ask exactly one new question at a time that helps place the organization on the Dabbler, Enabler or Leader tier.
Never repeat a question that has already been answered. Tailor the wording to the industry.
Prefer a mix of answer types: "scale" (1-5), "radio" (single choice), "checkbox" (multiple choice) and "text".
Respond with a single JSON object and nothing else:
{"question": "...", "answerType": "scale|radio|checkbox|text", "options": ["..."], "reasoningText": "why this question matters"}
Choice questions need between three and six options.`

const reportSystemPrompt = `You are an AI strategy consultant writing the AI Efficiency Scorecard report for a business.
Write the report in markdown using exactly these headings, in this order:
# AI Efficiency Scorecard Report: <Industry> Industry
## Overall Tier: <Dabbler, Enabler or Leader>
## Final Score: <0-100>/100
## Key Findings
**Strengths:** followed by a bulleted list
**Weaknesses:** followed by a bulleted list
## Strategic Action Plan
A numbered list of five actions, each formatted as **Title:** description, with nested bullets for concrete steps.
## Getting Started & Resources
## Illustrative Benchmarks
Use ### Dabbler Tier Organizations, ### Enabler Tier Organizations and ### Leader Tier Organizations sub-headings with bullets.
## Your Personalized AI Learning Path
Use lines of the form Resource N: Title, each followed by bullets and a link where one exists.
## Detailed Analysis
Base the tier and score only on the answers provided. Do not add any preamble before the first heading.`

func buildQuestionPrompt(lead Lead, phase questionnaire.Phase, number, total int, history []questionnaire.Answer) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Company: %s\nIndustry: %s\n", lead.CompanyName, lead.Industry)
	fmt.Fprintf(sb, "This is question %d of %d.\n", number, total)
	fmt.Fprintf(sb, "Current phase: %s", phase.Name)
	if phase.Focus != "" {
		fmt.Fprintf(sb, " (focus: %s)", phase.Focus)
	}
	sb.WriteString("\n")
	if len(history) == 0 {
		sb.WriteString("\nNo questions have been answered yet. Start with a broad question for this phase.")
		return sb.String()
	}
	sb.WriteString("\nAnswered so far:\n")
	writeHistory(sb, history)
	sb.WriteString("\nAsk the next question.")
	return sb.String()
}

func buildReportPrompt(lead Lead, history []questionnaire.Answer) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Company: %s\nIndustry: %s\n", lead.CompanyName, lead.Industry)
	if lead.UserName != "" {
		fmt.Fprintf(sb, "Prepared for: %s\n", lead.UserName)
	}
	sb.WriteString("\nAssessment answers:\n")
	writeHistory(sb, history)
	sb.WriteString("\nWrite the full scorecard report.")
	return sb.String()
}

func writeHistory(sb *strings.Builder, history []questionnaire.Answer) {
	for _, group := range questionnaire.GroupByPhase(history) {
		fmt.Fprintf(sb, "\n[%s]\n", group.Phase)
		for _, entry := range group.Answers {
			fmt.Fprintf(sb, "Q: %s\nA: %s\n", entry.Question, questionnaire.FormatAnswer(entry))
		}
	}
}
