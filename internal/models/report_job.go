package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType enumerates the exports that can be produced in the background.
type ReportType string

const (
	ReportTypeStudent     ReportType = "student_report"
	ReportTypeAttendance  ReportType = "attendance"
	ReportTypeLeaderboard ReportType = "leaderboard"
)

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
	ReportFormatTXT ReportFormat = "txt"
)

// ReportStatus captures background job lifecycle states.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJob is the persisted state of an export.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	Type         ReportType      `db:"type" json:"type"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       ReportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"resultUrl,omitempty"`
	CreatedBy    string          `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finishedAt,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"errorMessage,omitempty"`
}

// ReportJobParams is stored as JSONB next to the job.
type ReportJobParams struct {
	Format    ReportFormat `json:"format"`
	StudentID string       `json:"studentId,omitempty"`
	BatchID   string       `json:"batchId,omitempty"`
	Course    string       `json:"course,omitempty"`
	SortBy    string       `json:"sortBy,omitempty"`
}

// Value implements driver.Valuer.
func (p ReportJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal report params: %w", err)
	}
	return data, nil
}

// Scan implements sql.Scanner.
func (p *ReportJobParams) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*p = ReportJobParams{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ReportJobParams", value)
	}
	if len(data) == 0 {
		*p = ReportJobParams{}
		return nil
	}
	return json.Unmarshal(data, p)
}

// ReportRequest is the POST /reports/generate payload.
type ReportRequest struct {
	Type      ReportType   `json:"type" validate:"required,oneof=student_report attendance leaderboard"`
	Format    ReportFormat `json:"format" validate:"required,oneof=csv pdf txt"`
	StudentID string       `json:"studentId"`
	BatchID   string       `json:"batchId"`
	Course    string       `json:"course"`
	SortBy    string       `json:"sortBy"`
}

// ReportJobResponse is returned after a job is queued.
type ReportJobResponse struct {
	ID       string       `json:"id"`
	Status   ReportStatus `json:"status"`
	Progress int          `json:"progress"`
}

// ReportStatusResponse exposes job progress.
type ReportStatusResponse struct {
	ID        string       `json:"id"`
	Type      ReportType   `json:"type"`
	Status    ReportStatus `json:"status"`
	Progress  int          `json:"progress"`
	ResultURL *string      `json:"resultUrl,omitempty"`
	Error     *string      `json:"error,omitempty"`
}
