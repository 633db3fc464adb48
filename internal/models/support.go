package models

import "time"

// SupportStatus tracks a help request.
type SupportStatus string

const (
	SupportPending  SupportStatus = "Pending"
	SupportResolved SupportStatus = "Resolved"
)

// SupportRequest is a student ticket answered by teachers.
type SupportRequest struct {
	ID                string        `db:"id" json:"id"`
	StudentID         string        `db:"student_id" json:"studentId"`
	StudentName       string        `db:"student_name" json:"studentName"`
	Course            string        `db:"course" json:"course"`
	Topic             string        `db:"topic" json:"topic"`
	Description       string        `db:"description" json:"description"`
	AttachmentURL     *string       `db:"attachment_url" json:"attachmentUrl,omitempty"`
	Status            SupportStatus `db:"status" json:"status"`
	Reply             *string       `db:"reply" json:"reply,omitempty"`
	ReplyFileURL      *string       `db:"reply_file_url" json:"replyFileUrl,omitempty"`
	BackupClassDate   *time.Time    `db:"backup_class_date" json:"backupClassDate,omitempty"`
	BackupClassStatus *string       `db:"backup_class_status" json:"backupClassStatus,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updatedAt"`
}

// SupportFilter narrows the support inbox.
type SupportFilter struct {
	Course string
	Status string
}
