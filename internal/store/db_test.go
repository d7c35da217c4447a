package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ai-scorecard/backend/internal/questionnaire"
	"ai-scorecard/backend/internal/report"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "scorecard.db"), true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestReportRoundTrip(t *testing.T) {
	db := openTestDB(t)
	score := 62
	sc := report.Scorecard{
		UserInformation:  report.UserInformation{UserName: "Ada", CompanyName: "Acme", Industry: report.NotAvailable, Email: "ada@acme.test"},
		ScoreInformation: report.ScoreInformation{AITier: "Enabler", FinalScore: &score, ReportID: "r-1"},
		QuestionAnswerHistory: []questionnaire.Answer{
			{Question: "Q1", Answer: "4", AnswerType: questionnaire.TypeScale, PhaseName: "Strategy"},
		},
		FullReportMarkdown: "## Overall Tier: Enabler",
	}
	row := ReportFromScorecard(sc)
	if row.Industry != "" {
		t.Fatalf("expected N/A to be stored empty got %q", row.Industry)
	}
	row.Provider = "OpenAI"
	if err := db.SaveReport(row); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := db.GetReport("r-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	back := got.Scorecard()
	if back.UserInformation.Industry != report.NotAvailable {
		t.Fatalf("expected N/A industry got %q", back.UserInformation.Industry)
	}
	if back.ScoreInformation.FinalScore == nil || *back.ScoreInformation.FinalScore != 62 {
		t.Fatalf("unexpected score %v", back.ScoreInformation.FinalScore)
	}
	if len(back.QuestionAnswerHistory) != 1 || back.QuestionAnswerHistory[0].Answer != "4" {
		t.Fatalf("unexpected history %+v", back.QuestionAnswerHistory)
	}

	row.Tier = "Leader"
	if err := db.SaveReport(row); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err = db.GetReport("r-1")
	if err != nil {
		t.Fatalf("get after upsert: %v", err)
	}
	if got.Tier != "Leader" {
		t.Fatalf("expected updated tier got %q", got.Tier)
	}
	if count, _ := db.CountReports(); count != 1 {
		t.Fatalf("expected one report got %d", count)
	}
}

func TestReportNotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetReport("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	if err := db.DeleteReport("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete got %v", err)
	}
	if err := db.SaveReport(&Report{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestListReports(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows := []Report{
		{ID: "a", CompanyName: "Alpha", Tier: "Dabbler", CreatedAt: base},
		{ID: "b", CompanyName: "Beta", Tier: "Leader", CreatedAt: base.Add(time.Hour)},
		{ID: "c", CompanyName: "Gamma", UserName: "Alphonse", Tier: "dabbler", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "d", CompanyName: "100% Data_Co", Tier: "Leader", CreatedAt: base.Add(-time.Hour)},
		{ID: "b", CompanyName: "Beta", Tier: "Leader", CreatedAt: base.Add(time.Hour)},
	}
	if err := db.SaveReports(rows); err != nil {
		t.Fatalf("import: %v", err)
	}

	cases := []struct {
		name  string
		query ReportQuery
		want  []string
		total int64
	}{
		{"all newest first", ReportQuery{}, []string{"c", "b", "a", "d"}, 4},
		{"paged", ReportQuery{Offset: 1, Limit: 1}, []string{"b"}, 4},
		{"tier filter ignores case", ReportQuery{Tier: "DABBLER"}, []string{"c", "a"}, 2},
		{"search company and user", ReportQuery{Query: "alph"}, []string{"c", "a"}, 2},
		{"percent is literal", ReportQuery{Query: "0%"}, []string{"d"}, 1},
		{"underscore is literal", ReportQuery{Query: "a_c"}, []string{"d"}, 1},
		{"wildcards alone match nothing", ReportQuery{Query: "_%"}, nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, total, err := db.ListReports(tc.query)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if total != tc.total {
				t.Fatalf("expected total %d got %d", tc.total, total)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d rows got %d", len(tc.want), len(got))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("row %d: expected %s got %s", i, id, got[i].ID)
				}
			}
		})
	}

	if err := db.DeleteReport("b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if count, _ := db.CountReports(); count != 3 {
		t.Fatalf("expected three reports after delete got %d", count)
	}
}

func TestSessionLifecycle(t *testing.T) {
	db := openTestDB(t)
	s := &Session{ID: "s-1", UserName: "Ada", CompanyName: "Acme"}
	s.SetCurrent(&questionnaire.Question{Text: "How do you use AI?", Type: questionnaire.TypeText})
	if err := db.CreateSession(s); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := db.GetSession("s-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != SessionInProgress {
		t.Fatalf("expected in_progress got %q", got.Status)
	}
	if q := got.Current(); q == nil || q.Text != "How do you use AI?" {
		t.Fatalf("unexpected current question %+v", q)
	}
	if len(got.History()) != 0 {
		t.Fatalf("expected empty history")
	}

	got.SetHistory([]questionnaire.Answer{{Question: "How do you use AI?", Answer: "Barely"}})
	got.SetCurrent(nil)
	got.Status = SessionCompleted
	got.ReportID = "r-9"
	if err := db.UpdateSession(got); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, err := db.GetSession("s-1")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.Current() != nil || again.Status != SessionCompleted || again.ReportID != "r-9" || len(again.History()) != 1 {
		t.Fatalf("unexpected session after update %+v", again)
	}

	if err := db.UpdateSession(&Session{ID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestJobs(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveJob(&Job{JobID: "j-1", SessionID: "s-1", Status: JobRunning}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.SaveJob(&Job{JobID: "j-2", SessionID: "s-2", Status: JobCompleted, ReportID: "r-2"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	n, err := db.FailRunningJobs("server restarted")
	if err != nil || n != 1 {
		t.Fatalf("expected one failed job got %d (%v)", n, err)
	}
	job, err := db.GetJob("j-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Status != JobFailed || job.Message != "server restarted" {
		t.Fatalf("unexpected job %+v", job)
	}
	if _, err := db.GetJob("j-3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestJobEventsKeepStatus(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveJob(&Job{JobID: "j-1", SessionID: "s-1", Status: JobRunning}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.FinishJob("j-1", JobCancelled, "", "cancelled"); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := db.RecordJobEvent("j-1", `{"type":"progress"}`, "cancellation requested", ""); err != nil {
		t.Fatalf("record: %v", err)
	}
	job, err := db.GetJob("j-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Status != JobCancelled {
		t.Fatalf("late event reopened job: %+v", job)
	}
	if job.LastEventJSON != `{"type":"progress"}` || job.Message != "cancellation requested" {
		t.Fatalf("event not recorded: %+v", job)
	}

	if err := db.RecordJobEvent("j-1", `{"type":"completed"}`, "", "r-1"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if job, _ = db.GetJob("j-1"); job.ReportID != "r-1" || job.Message != "cancellation requested" {
		t.Fatalf("unexpected job %+v", job)
	}
	if err := db.RecordJobEvent("missing", "{}", "", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}
