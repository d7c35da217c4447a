package api

import (
	"encoding/json"
	"strings"
	"time"

	"ai-scorecard/backend/internal/ai"
	"ai-scorecard/backend/internal/report"
	"ai-scorecard/backend/internal/scorecard"
	"ai-scorecard/backend/internal/store"
)

// ReportDTO is the API representation of a stored report.
type ReportDTO struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id,omitempty"`
	UserName    string    `json:"user_name"`
	CompanyName string    `json:"company_name"`
	Industry    string    `json:"industry"`
	Email       string    `json:"email"`
	Tier        string    `json:"tier"`
	Score       *int      `json:"score"`
	Provider    string    `json:"provider,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReportDetailDTO adds the full scorecard document to the summary.
type ReportDetailDTO struct {
	ReportDTO
	Scorecard report.Scorecard `json:"scorecard"`
}

// ListReportsResponse is one page of reports.
type ListReportsResponse struct {
	Items    []ReportDTO `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// StartReportResponse describes an asynchronous report kickoff.
type StartReportResponse struct {
	JobID     string    `json:"job_id"`
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
}

// JobDTO is the persisted state of a report job.
type JobDTO struct {
	JobID     string           `json:"job_id"`
	SessionID string           `json:"session_id"`
	ReportID  string           `json:"report_id,omitempty"`
	Status    string           `json:"status"`
	Message   string           `json:"message,omitempty"`
	Running   bool             `json:"running"`
	LastEvent *scorecard.Event `json:"last_event,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ConfigResponse lists what the server was started with.
type ConfigResponse struct {
	Providers    []ProviderDTO `json:"providers"`
	Renderer     string        `json:"renderer"`
	MaxQuestions int           `json:"max_questions"`
	Phases       []string      `json:"phases"`
	MissingKeys  bool          `json:"missing_keys"`
}

// ProviderDTO names a provider and whether it has credentials.
type ProviderDTO struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

// MarkdownDiagnostics reports how the strategic plan was found in a report.
type MarkdownDiagnostics struct {
	MarkdownLength                  int    `json:"markdownLength"`
	MarkdownStart                   string `json:"markdownStart"`
	ContainsStrategicActionPlan     bool   `json:"containsStrategicActionPlan"`
	ContainsHashStrategicActionPlan bool   `json:"containsHashStrategicActionPlan"`
	StrategicPlanContent            string `json:"strategicPlanContent"`
}

func toReportDTO(r store.Report) ReportDTO {
	return ReportDTO{
		ID:          r.ID,
		SessionID:   r.SessionID,
		UserName:    r.UserName,
		CompanyName: r.CompanyName,
		Industry:    r.Industry,
		Email:       r.Email,
		Tier:        r.Tier,
		Score:       r.Score,
		Provider:    r.Provider,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toReportDTOs(rows []store.Report) []ReportDTO {
	out := make([]ReportDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toReportDTO(row))
	}
	return out
}

func toJobDTO(job *store.Job, running bool) JobDTO {
	dto := JobDTO{
		JobID:     job.JobID,
		SessionID: job.SessionID,
		ReportID:  job.ReportID,
		Status:    job.Status,
		Message:   job.Message,
		Running:   running,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	if strings.TrimSpace(job.LastEventJSON) != "" {
		var event scorecard.Event
		if err := json.Unmarshal([]byte(job.LastEventJSON), &event); err == nil {
			dto.LastEvent = &event
		}
	}
	return dto
}

func toProviderDTOs(providers []ai.Provider) []ProviderDTO {
	out := make([]ProviderDTO, 0, len(providers))
	for _, p := range providers {
		out = append(out, ProviderDTO{Name: p.Name(), Configured: p.Enabled()})
	}
	return out
}
