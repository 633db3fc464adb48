package models

import "time"

// AttendanceStatus is a student's presence on a class day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLate    AttendanceStatus = "Late"
)

// Valid reports whether s can be recorded on a sheet.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}

// Attendance is one sheet per batch and date. IsEditable is derived from
// SubmittedAt whenever the sheet is read.
type Attendance struct {
	ID          string             `db:"id" json:"id"`
	BatchID     string             `db:"batch_id" json:"batchId"`
	Date        time.Time          `db:"date" json:"date"`
	Remark      string             `db:"remark" json:"remark"`
	SubmittedAt time.Time          `db:"submitted_at" json:"submittedAt"`
	IsEditable  bool               `db:"-" json:"isEditable"`
	Records     []AttendanceRecord `db:"-" json:"records"`
}

// AttendanceRecord is a student's row on a sheet.
type AttendanceRecord struct {
	AttendanceID string           `db:"attendance_id" json:"-"`
	StudentID    string           `db:"student_id" json:"studentId"`
	StudentName  string           `db:"student_name" json:"studentName,omitempty"`
	EnrollmentID string           `db:"enrollment_id" json:"enrollmentId,omitempty"`
	Status       AttendanceStatus `db:"status" json:"status"`
}

// StudentAttendanceEntry is one sheet from a student's point of view.
type StudentAttendanceEntry struct {
	ID        string           `db:"id" json:"id"`
	BatchID   string           `db:"batch_id" json:"batchId"`
	BatchName string           `db:"batch_name" json:"batchName"`
	Date      time.Time        `db:"date" json:"date"`
	Remark    string           `db:"remark" json:"remark"`
	Status    AttendanceStatus `db:"status" json:"status"`
}

// AttendanceTally counts statuses for a grouping key such as a batch or a day.
type AttendanceTally struct {
	Key     string `db:"key"`
	Label   string `db:"label"`
	Present int    `db:"present"`
	Absent  int    `db:"absent"`
	Late    int    `db:"late"`
}

// Total returns the number of records counted.
func (t AttendanceTally) Total() int {
	return t.Present + t.Absent + t.Late
}
