package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit actions written by the pipeline
const (
	ActionComplaintUploaded = "COMPLAINT_UPLOADED"
	ActionAnalysisCompleted = "ANALYSIS_COMPLETED"
	ActionProcessingError   = "PROCESSING_ERROR"
	ActionPDFArchived       = "PDF_ARCHIVED"
)

// AnalysisLog is an append-only audit entry. Rows are never updated or deleted.
type AnalysisLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ComplaintID *uuid.UUID     `gorm:"type:uuid;index:idx_logs_complaint" json:"complaint_id,omitempty"`
	AnalysisID  *uuid.UUID     `gorm:"type:uuid;index" json:"analysis_id,omitempty"`
	Action      string         `gorm:"type:varchar(64);not null;index" json:"action"`
	ActionBy    string         `gorm:"type:varchar(255)" json:"action_by"`
	Details     string         `gorm:"type:text" json:"details,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	Timestamp   time.Time      `gorm:"autoCreateTime;index" json:"timestamp"`
}

// TableName specifies the table name for GORM
func (AnalysisLog) TableName() string {
	return "analysis_logs"
}

// BeforeCreate GORM hook
func (a *AnalysisLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// BeforeUpdate rejects any update to an audit row
func (a *AnalysisLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrAuditImmutable
}

// BeforeDelete rejects deletion of an audit row
func (a *AnalysisLog) BeforeDelete(tx *gorm.DB) error {
	return ErrAuditImmutable
}
