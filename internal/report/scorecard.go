package report

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"ai-scorecard/backend/internal/questionnaire"
)

// NotAvailable fills user fields missing from a stored document.
const NotAvailable = "N/A"

// UserInformation identifies the lead the report was written for.
type UserInformation struct {
	UserName    string `json:"UserName"`
	CompanyName string `json:"CompanyName"`
	Industry    string `json:"Industry"`
	Email       string `json:"Email"`
}

// ScoreInformation carries the assessment outcome.
type ScoreInformation struct {
	AITier     string `json:"AITier"`
	FinalScore *int   `json:"FinalScore"`
	ReportID   string `json:"ReportID"`
}

// Scorecard is the record every renderer consumes.
type Scorecard struct {
	UserInformation       UserInformation        `json:"UserInformation"`
	ScoreInformation      ScoreInformation       `json:"ScoreInformation"`
	QuestionAnswerHistory []questionnaire.Answer `json:"QuestionAnswerHistory"`
	FullReportMarkdown    string                 `json:"FullReportMarkdown"`
}

// Validation lists blocking errors and advisory warnings about a scorecard.
type Validation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate checks the scorecard is complete enough to render.
func (s Scorecard) Validate() Validation {
	v := Validation{Errors: []string{}, Warnings: []string{}}
	user, score := s.UserInformation, s.ScoreInformation
	if user == (UserInformation{}) {
		v.Errors = append(v.Errors, "missing user information")
	}
	if score.AITier == "" && score.FinalScore == nil && score.ReportID == "" {
		v.Errors = append(v.Errors, "missing score information")
	}
	warn := func(value, msg string) {
		if missing(value) {
			v.Warnings = append(v.Warnings, msg)
		}
	}
	warn(user.CompanyName, "missing company name")
	warn(user.UserName, "missing user name")
	warn(user.Industry, "missing industry")
	warn(user.Email, "missing email")
	warn(score.AITier, "missing AI tier")
	warn(score.ReportID, "missing report ID")
	warn(s.FullReportMarkdown, "empty report markdown")
	if len(s.QuestionAnswerHistory) == 0 {
		v.Warnings = append(v.Warnings, "empty question and answer history")
	}
	v.Valid = len(v.Errors) == 0
	return v
}

func missing(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || value == NotAvailable
}

// Merge overlays the non-empty parts of other onto s, the way request bodies
// override stored defaults. N/A placeholders never override.
func (s Scorecard) Merge(other Scorecard) Scorecard {
	mergeString := func(dst *string, src string) {
		if !missing(src) {
			*dst = src
		}
	}
	mergeString(&s.UserInformation.UserName, other.UserInformation.UserName)
	mergeString(&s.UserInformation.CompanyName, other.UserInformation.CompanyName)
	mergeString(&s.UserInformation.Industry, other.UserInformation.Industry)
	mergeString(&s.UserInformation.Email, other.UserInformation.Email)
	mergeString(&s.ScoreInformation.AITier, other.ScoreInformation.AITier)
	mergeString(&s.ScoreInformation.ReportID, other.ScoreInformation.ReportID)
	if other.ScoreInformation.FinalScore != nil {
		s.ScoreInformation.FinalScore = other.ScoreInformation.FinalScore
	}
	mergeString(&s.FullReportMarkdown, other.FullReportMarkdown)
	if len(other.QuestionAnswerHistory) > 0 {
		s.QuestionAnswerHistory = other.QuestionAnswerHistory
	}
	return s
}

// FromDocument maps a loosely shaped stored document onto a Scorecard.
// Documents written by older clients spread the same fields over several
// names, so each field is looked up through its known aliases in order.
func FromDocument(doc map[string]any, reportID string) Scorecard {
	userInfo := nested(doc, "UserInformation")
	scoreInfo := nested(doc, "ScoreInformation")

	sc := Scorecard{
		UserInformation: UserInformation{
			UserName:    orNA(firstString(doc["userName"], userInfo["UserName"], doc["name"], doc["leadName"], doc["scorecardLeadName"])),
			CompanyName: orNA(companyName(doc, userInfo)),
			Industry:    orNA(firstString(doc["industry"], doc["Industry"], userInfo["Industry"], doc["leadIndustry"], doc["scorecardLeadIndustry"])),
			Email:       orNA(firstString(doc["userEmail"], doc["email"], userInfo["Email"], doc["leadEmail"], doc["scorecardLeadEmail"])),
		},
		ScoreInformation: ScoreInformation{
			AITier:   orNA(firstString(doc["tier"], scoreInfo["AITier"], doc["aiTier"])),
			ReportID: reportID,
		},
		FullReportMarkdown: firstString(doc["reportMarkdown"], doc["markdown"], doc["FullReportMarkdown"]),
	}
	if sc.ScoreInformation.ReportID == "" {
		sc.ScoreInformation.ReportID = firstString(scoreInfo["ReportID"], doc["id"])
	}
	for _, raw := range []any{doc["score"], doc["finalScore"], scoreInfo["FinalScore"]} {
		if score, ok := toInt(raw); ok {
			sc.ScoreInformation.FinalScore = &score
			break
		}
	}
	for _, raw := range []any{doc["questionAnswerHistory"], doc["answers"], doc["QuestionAnswerHistory"]} {
		if history := toHistory(raw); len(history) > 0 {
			sc.QuestionAnswerHistory = history
			break
		}
	}
	if sc.QuestionAnswerHistory == nil {
		sc.QuestionAnswerHistory = []questionnaire.Answer{}
	}
	return sc
}

func companyName(doc, userInfo map[string]any) string {
	if name := firstString(doc["companyName"], doc["company"], doc["Company"], userInfo["CompanyName"], doc["leadCompany"], doc["scorecardLeadCompany"]); name != "" {
		return name
	}
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !strings.Contains(strings.ToLower(key), "company") {
			continue
		}
		if value, ok := doc[key].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func nested(doc map[string]any, key string) map[string]any {
	if m, ok := doc[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func firstString(values ...any) string {
	for _, value := range values {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case fmt.Stringer:
			if s := v.String(); strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return NotAvailable
	}
	return value
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if math.IsNaN(v) {
			return 0, false
		}
		return int(math.Round(v)), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return int(math.Round(f)), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

func toHistory(value any) []questionnaire.Answer {
	items, ok := value.([]any)
	if !ok {
		if typed, ok := value.([]questionnaire.Answer); ok {
			return typed
		}
		return nil
	}
	out := make([]questionnaire.Answer, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry := questionnaire.Answer{
			Question:      firstString(m["question"], m["Question"]),
			Answer:        answerString(m["answer"]),
			PhaseName:     firstString(m["phaseName"], m["phase"]),
			ReasoningText: firstString(m["reasoningText"]),
			AnswerType:    firstString(m["answerType"], m["type"]),
			AnswerSource:  firstString(m["answerSource"]),
			Index:         i,
		}
		if options, ok := m["options"].([]any); ok {
			for _, option := range options {
				if s := answerString(option); s != "" {
					entry.Options = append(entry.Options, s)
				}
			}
		}
		out = append(out, entry)
	}
	return out
}

// answerString flattens stored answers; multi-select answers become pipe
// separated.
func answerString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := answerString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "|")
	default:
		return fmt.Sprint(v)
	}
}
