package models

import (
	"time"
)

// GORM-compatible models with proper tags

const (
	ScanJobTypeNightly = "nightly"
	ScanJobTypeManual  = "manual"

	ScanJobStatusPending   = "pending"
	ScanJobStatusRunning   = "running"
	ScanJobStatusCompleted = "completed"
	ScanJobStatusFailed    = "failed"

	FindingTypeCircular = "CIRCULAR"
	FindingTypeConflict = "ACTIVE_CONFLICT"
)

// ScanJob represents the scan_jobs table with GORM tags. One row per batch
// integrity scan run by the nightly cron (circular-dependency existence check
// and active-BOM conflict refresh across all BOMs).
type ScanJob struct {
	ID             uint       `gorm:"primaryKey;column:id" json:"id"`
	JobUUID        string     `gorm:"column:job_uuid;not null" json:"job_uuid"`
	JobType        string     `gorm:"column:job_type;not null" json:"job_type"`
	Status         string     `gorm:"column:status;not null;default:'pending'" json:"status"`
	ScannedBOMs    int        `gorm:"column:scanned_boms;default:0" json:"scanned_boms"`
	CircularBOMs   int        `gorm:"column:circular_boms;default:0" json:"circular_boms"`
	ConflictedSKUs int        `gorm:"column:conflicted_skus;default:0" json:"conflicted_skus"`
	StartedAt      time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	CompletedAt    *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Error          *string    `gorm:"column:error" json:"error,omitempty"`
	Result         *string    `gorm:"column:result" json:"result,omitempty"`
}

// TableName specifies the table name for ScanJob
func (ScanJob) TableName() string {
	return "scan_jobs"
}

// ScanFinding represents the scan_findings table with GORM tags. Findings are
// replaced wholesale on every completed scan and feed the dashboard endpoints.
type ScanFinding struct {
	ID          uint      `gorm:"primaryKey;column:id" json:"id"`
	JobID       uint      `gorm:"column:job_id;not null" json:"job_id"`
	FindingType string    `gorm:"column:finding_type;not null" json:"finding_type"`
	BOMID       int       `gorm:"column:bom_id" json:"bom_id"`
	ProductID   int       `gorm:"column:product_id" json:"product_id"`
	Detail      string    `gorm:"column:detail" json:"detail"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name for ScanFinding
func (ScanFinding) TableName() string {
	return "scan_findings"
}
