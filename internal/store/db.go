package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a report, session or job does not exist.
var ErrNotFound = errors.New("record not found")

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Report{}, &Session{}, &Job{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	if err := applyIndexes(db); err != nil {
		return nil, fmt.Errorf("apply indexes: %w", err)
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func applyIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_jobs_status_updated ON jobs(status, updated_at)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// SaveReport inserts or updates a report keyed by its ID.
func (d *Database) SaveReport(r *Report) error {
	if r == nil {
		return errors.New("report is nil")
	}
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		return errors.New("report id is empty")
	}
	if r.HistoryJSON == "" {
		r.HistoryJSON = "[]"
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"session_id", "user_name", "company_name", "industry", "email",
			"tier", "score", "markdown", "history_json", "provider", "updated_at",
		}),
	}).Create(r).Error
}

// SaveReports imports reports in batches, updating rows that already exist.
func (d *Database) SaveReports(reports []Report) error {
	if len(reports) == 0 {
		return nil
	}
	reports = dedupeReports(reports)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		const batchSize = 100
		for start := 0; start < len(reports); start += batchSize {
			end := start + batchSize
			if end > len(reports) {
				end = len(reports)
			}
			batch := reports[start:end]
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(batch, batchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// dedupeReports keeps the last row for each ID. SQLite refuses an upsert
// that touches the same row twice in one statement.
func dedupeReports(reports []Report) []Report {
	index := make(map[string]int, len(reports))
	out := make([]Report, 0, len(reports))
	for _, r := range reports {
		if i, ok := index[r.ID]; ok {
			out[i] = r
			continue
		}
		index[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}

// GetReport retrieves a report by ID.
func (d *Database) GetReport(id string) (*Report, error) {
	var r Report
	if err := d.gorm.Where("id = ?", strings.TrimSpace(id)).First(&r).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// DeleteReport removes a report.
func (d *Database) DeleteReport(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	res := d.gorm.Where("id = ?", strings.TrimSpace(id)).Delete(&Report{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountReports returns the number of stored reports.
func (d *Database) CountReports() (int64, error) {
	var count int64
	if err := d.gorm.Model(&Report{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ReportQuery encapsulates filters and pagination for listing reports.
type ReportQuery struct {
	Tier   string
	Query  string
	Offset int
	Limit  int
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ListReports returns reports newest first, with the total matching count.
func (d *Database) ListReports(opts ReportQuery) ([]Report, int64, error) {
	base := d.gorm.Model(&Report{})
	if tier := strings.TrimSpace(opts.Tier); tier != "" {
		base = base.Where("LOWER(tier) = ?", strings.ToLower(tier))
	}
	if q := strings.TrimSpace(opts.Query); q != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
		base = base.Where(`LOWER(company_name) LIKE ? ESCAPE '\' OR LOWER(user_name) LIKE ? ESCAPE '\'`, like, like)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query := base.Order("created_at DESC").Order("id DESC").Offset(opts.Offset)
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	var rows []Report
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CreateSession inserts a new assessment session.
func (d *Database) CreateSession(s *Session) error {
	if s == nil {
		return errors.New("session is nil")
	}
	if s.Status == "" {
		s.Status = SessionInProgress
	}
	if s.HistoryJSON == "" {
		s.HistoryJSON = "[]"
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(s).Error
}

// GetSession retrieves a session by ID.
func (d *Database) GetSession(id string) (*Session, error) {
	var s Session
	if err := d.gorm.Where("id = ?", strings.TrimSpace(id)).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// UpdateSession writes every column of an existing session.
func (d *Database) UpdateSession(s *Session) error {
	if s == nil {
		return errors.New("session is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	res := d.gorm.Model(&Session{}).Where("id = ?", s.ID).Updates(map[string]any{
		"history_json": s.HistoryJSON,
		"current_json": s.CurrentJSON,
		"status":       s.Status,
		"report_id":    s.ReportID,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveJob inserts or updates report job metadata.
func (d *Database) SaveJob(job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"session_id", "report_id", "status", "message", "last_event_json", "updated_at"}),
	}).Create(job).Error
}

// RecordJobEvent stores the latest event of a job. The status column is
// left alone so a late event never reopens a finished job.
func (d *Database) RecordJobEvent(id, eventJSON, message, reportID string) error {
	updates := map[string]any{"last_event_json": eventJSON}
	if message != "" {
		updates["message"] = message
	}
	if reportID != "" {
		updates["report_id"] = reportID
	}
	return d.updateJob(id, updates)
}

// FinishJob sets the final status of a job.
func (d *Database) FinishJob(id, status, reportID, message string) error {
	updates := map[string]any{"status": status, "message": message}
	if reportID != "" {
		updates["report_id"] = reportID
	}
	return d.updateJob(id, updates)
}

func (d *Database) updateJob(id string, updates map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	res := d.gorm.Model(&Job{}).Where("job_id = ?", strings.TrimSpace(id)).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetJob retrieves a job by ID.
func (d *Database) GetJob(id string) (*Job, error) {
	var job Job
	if err := d.gorm.Where("job_id = ?", strings.TrimSpace(id)).First(&job).Error; err != nil {
		return nil, notFound(err)
	}
	return &job, nil
}

// FailRunningJobs marks jobs left running by a previous process as failed.
func (d *Database) FailRunningJobs(message string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	res := d.gorm.Model(&Job{}).Where("status = ?", JobRunning).Updates(map[string]any{
		"status":  JobFailed,
		"message": message,
	})
	return res.RowsAffected, res.Error
}
