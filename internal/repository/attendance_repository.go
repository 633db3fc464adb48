package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

const attendanceColumns = `a.id, a.batch_id, a.date, a.remark, a.submitted_at`

// tallyColumns counts record statuses; it expects attendance_records aliased as r.
const tallyColumns = `COUNT(*) FILTER (WHERE r.status = 'Present') AS present,
        COUNT(*) FILTER (WHERE r.status = 'Absent') AS absent,
        COUNT(*) FILTER (WHERE r.status = 'Late') AS late`

// AttendanceRepository persists attendance sheets and their per-student records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByBatch returns a batch's sheets, newest date first, with records.
func (r *AttendanceRepository) ListByBatch(ctx context.Context, batchID string) ([]models.Attendance, error) {
	query := "SELECT " + attendanceColumns + " FROM attendance a WHERE a.batch_id = $1 ORDER BY a.date DESC, a.submitted_at DESC"
	var sheets []models.Attendance
	if err := r.db.SelectContext(ctx, &sheets, query, batchID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	if len(sheets) == 0 {
		return sheets, nil
	}
	ids := make([]string, len(sheets))
	for i, s := range sheets {
		ids[i] = s.ID
	}
	records, err := r.records(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sheets {
		sheets[i].Records = records[sheets[i].ID]
		if sheets[i].Records == nil {
			sheets[i].Records = []models.AttendanceRecord{}
		}
	}
	return sheets, nil
}

// FindByID returns one sheet with its records.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	var sheet models.Attendance
	if err := r.db.GetContext(ctx, &sheet, "SELECT "+attendanceColumns+" FROM attendance a WHERE a.id = $1", id); err != nil {
		return nil, err
	}
	records, err := r.records(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	sheet.Records = records[id]
	if sheet.Records == nil {
		sheet.Records = []models.AttendanceRecord{}
	}
	return &sheet, nil
}

func (r *AttendanceRepository) records(ctx context.Context, sheetIDs []string) (map[string][]models.AttendanceRecord, error) {
	const query = `SELECT r.attendance_id, r.student_id, COALESCE(s.name, '') AS student_name, COALESCE(s.enrollment_id, '') AS enrollment_id, r.status
        FROM attendance_records r LEFT JOIN students s ON s.id = r.student_id
        WHERE r.attendance_id = ANY($1) ORDER BY s.name`
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(sheetIDs)); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	out := make(map[string][]models.AttendanceRecord, len(sheetIDs))
	for _, rec := range rows {
		out[rec.AttendanceID] = append(out[rec.AttendanceID], rec)
	}
	return out, nil
}

// Create inserts a sheet and its records atomically.
func (r *AttendanceRepository) Create(ctx context.Context, sheet *models.Attendance) error {
	if sheet.ID == "" {
		sheet.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create attendance: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO attendance (id, batch_id, date, remark, submitted_at) VALUES (:id, :batch_id, :date, :remark, :submitted_at)`
	if _, err := tx.NamedExecContext(ctx, query, sheet); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	if err := insertRecords(ctx, tx, sheet.ID, sheet.Records); err != nil {
		return err
	}
	return tx.Commit()
}

// Update replaces the remark when non-nil and the records when non-nil.
func (r *AttendanceRepository) Update(ctx context.Context, id string, remark *string, records []models.AttendanceRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update attendance: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if remark != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE attendance SET remark = $2 WHERE id = $1", id, *remark); err != nil {
			return fmt.Errorf("update attendance remark: %w", err)
		}
	}
	if records != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM attendance_records WHERE attendance_id = $1", id); err != nil {
			return fmt.Errorf("clear attendance records: %w", err)
		}
		if err := insertRecords(ctx, tx, id, records); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertRecords(ctx context.Context, tx *sqlx.Tx, sheetID string, records []models.AttendanceRecord) error {
	for i := range records {
		records[i].AttendanceID = sheetID
		const query = `INSERT INTO attendance_records (attendance_id, student_id, status) VALUES ($1, $2, $3)
            ON CONFLICT (attendance_id, student_id) DO UPDATE SET status = EXCLUDED.status`
		if _, err := tx.ExecContext(ctx, query, sheetID, records[i].StudentID, records[i].Status); err != nil {
			return fmt.Errorf("insert attendance record: %w", err)
		}
	}
	return nil
}

// HistoryByStudent lists the sheets that carry a row for the student, newest
// first. Membership changes do not hide sheets from earlier batches.
func (r *AttendanceRepository) HistoryByStudent(ctx context.Context, studentID string) ([]models.StudentAttendanceEntry, error) {
	const query = `SELECT a.id, a.batch_id, COALESCE(b.name, '') AS batch_name, a.date, a.remark, r.status
        FROM attendance_records r
        JOIN attendance a ON a.id = r.attendance_id
        LEFT JOIN batches b ON b.id = a.batch_id
        WHERE r.student_id = $1
        ORDER BY a.date DESC, a.submitted_at DESC`
	var entries []models.StudentAttendanceEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return entries, nil
}

// TallyByBatch counts statuses per batch, including batches without records.
func (r *AttendanceRepository) TallyByBatch(ctx context.Context) ([]models.AttendanceTally, error) {
	query := `SELECT b.id::text AS key, b.name AS label, ` + tallyColumns + `
        FROM batches b
        LEFT JOIN attendance a ON a.batch_id = b.id
        LEFT JOIN attendance_records r ON r.attendance_id = a.id
        GROUP BY b.id, b.name, b.created_at ORDER BY b.created_at`
	var tallies []models.AttendanceTally
	if err := r.db.SelectContext(ctx, &tallies, query); err != nil {
		return nil, fmt.Errorf("tally attendance by batch: %w", err)
	}
	return tallies, nil
}

// TallyByDay counts statuses per sheet date on or after from. Keys are YYYY-MM-DD.
func (r *AttendanceRepository) TallyByDay(ctx context.Context, from time.Time) ([]models.AttendanceTally, error) {
	query := `SELECT to_char(a.date, 'YYYY-MM-DD') AS key, to_char(a.date, 'YYYY-MM-DD') AS label, ` + tallyColumns + `
        FROM attendance a JOIN attendance_records r ON r.attendance_id = a.id
        WHERE a.date >= $1 GROUP BY a.date ORDER BY a.date`
	var tallies []models.AttendanceTally
	if err := r.db.SelectContext(ctx, &tallies, query, from); err != nil {
		return nil, fmt.Errorf("tally attendance by day: %w", err)
	}
	return tallies, nil
}

// TallyByStudent counts statuses per student across all sheets.
func (r *AttendanceRepository) TallyByStudent(ctx context.Context) ([]models.AttendanceTally, error) {
	query := `SELECT r.student_id::text AS key, '' AS label, ` + tallyColumns + `
        FROM attendance_records r GROUP BY r.student_id`
	var tallies []models.AttendanceTally
	if err := r.db.SelectContext(ctx, &tallies, query); err != nil {
		return nil, fmt.Errorf("tally attendance by student: %w", err)
	}
	return tallies, nil
}
