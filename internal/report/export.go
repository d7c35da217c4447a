package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"ai-scorecard/backend/internal/questionnaire"
)

// ExportMarkdown writes a standalone markdown document for the scorecard: a
// lead summary table, the report body and the question and answer appendix.
func ExportMarkdown(w io.Writer, sc Scorecard) error {
	md := markdown.NewMarkdown(w)

	title := "AI Efficiency Scorecard"
	if !missing(sc.UserInformation.CompanyName) {
		title += " for " + sc.UserInformation.CompanyName
	}
	md.H1(title)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Name", orNA(sc.UserInformation.UserName)},
			{"Company", orNA(sc.UserInformation.CompanyName)},
			{"Industry", orNA(sc.UserInformation.Industry)},
			{"Email", orNA(sc.UserInformation.Email)},
			{"AI Tier", orNA(sc.ScoreInformation.AITier)},
			{"Score", ScoreText(sc.ScoreInformation.FinalScore)},
			{"Report ID", orNA(sc.ScoreInformation.ReportID)},
		},
	})
	md.PlainText("")

	if body := strings.TrimSpace(sc.FullReportMarkdown); body != "" {
		md.PlainText(body)
		md.PlainText("")
	}

	if len(sc.QuestionAnswerHistory) > 0 {
		md.H2("Assessment Questions & Answers")
		md.PlainText("")
		n := 0
		for _, group := range questionnaire.GroupByPhase(sc.QuestionAnswerHistory) {
			md.H3(group.Phase)
			md.PlainText("")
			for _, entry := range group.Answers {
				n++
				md.PlainTextf("**Q%d:** %s", n, strings.TrimSpace(entry.Question))
				md.PlainText("")
				md.PlainTextf("**A:** %s", questionnaire.FormatAnswer(entry))
				md.PlainText("")
			}
		}
	}

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Confidential report for %s*", orNA(sc.UserInformation.UserName))
	if err := md.Build(); err != nil {
		return fmt.Errorf("build markdown export: %w", err)
	}
	return nil
}

// ScoreText renders a score the way report headers show it.
func ScoreText(score *int) string {
	if score == nil {
		return "Complete"
	}
	return strconv.Itoa(*score) + "/100"
}
