package models

import (
	"time"

	"github.com/lib/pq"
)

// BatchStatus is the lifecycle of a cohort.
type BatchStatus string

const (
	BatchStatusUpcoming  BatchStatus = "Upcoming"
	BatchStatusOngoing   BatchStatus = "Ongoing"
	BatchStatusCompleted BatchStatus = "Completed"
)

// Valid reports whether s is a known status.
func (s BatchStatus) Valid() bool {
	switch s {
	case BatchStatusUpcoming, BatchStatusOngoing, BatchStatusCompleted:
		return true
	}
	return false
}

// Batch groups students into a cohort. Progress is set manually.
type Batch struct {
	ID         string         `db:"id" json:"id"`
	Name       string         `db:"name" json:"name"`
	Course     string         `db:"course" json:"course"`
	StartDate  time.Time      `db:"start_date" json:"startDate"`
	EndDate    *time.Time     `db:"end_date" json:"endDate,omitempty"`
	Status     BatchStatus    `db:"status" json:"status"`
	Progress   int            `db:"progress" json:"progress"`
	StudentIDs pq.StringArray `db:"student_ids" json:"students"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updatedAt"`
}

// BatchMembership maps a student to the batches they belong to.
type BatchMembership struct {
	StudentID string `db:"student_id"`
	BatchID   string `db:"batch_id"`
	BatchName string `db:"batch_name"`
}
