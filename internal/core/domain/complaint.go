package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Complaint status values
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusAnalyzed   = "analyzed"
	StatusError      = "error"
)

// Complaint is one uploaded complaint document. Its Status is the lifecycle marker for
// a whole pipeline run.
type Complaint struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ComplaintNumber  string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"complaint_number"`
	UploadDate       time.Time `gorm:"not null" json:"upload_date"`
	PDFFilename      string    `gorm:"column:pdf_filename;type:varchar(500);not null" json:"pdf_filename"`
	PDFPath          string    `gorm:"column:pdf_path;type:text" json:"pdf_path,omitempty"`
	PDFURL           *string   `gorm:"column:pdf_url;type:text" json:"pdf_url,omitempty"`
	FileHash         string    `gorm:"type:varchar(64);index" json:"file_hash,omitempty"`
	FileSize         int64     `gorm:"default:0" json:"file_size"`
	ExtractedText    string    `gorm:"type:text" json:"extracted_text,omitempty"`
	ExtractionMethod string    `gorm:"type:varchar(20)" json:"extraction_method,omitempty"`
	Status           string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	UploadedBy       string    `gorm:"type:varchar(255)" json:"uploaded_by,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Analysis *AnalysisResult `gorm:"foreignKey:ComplaintID;constraint:OnDelete:CASCADE" json:"analysis,omitempty"`
	Logs     []AnalysisLog   `gorm:"foreignKey:ComplaintID" json:"logs,omitempty"`
}

// TableName specifies the table name for GORM
func (Complaint) TableName() string {
	return "complaints"
}

// BeforeCreate GORM hook - called before creating a record
func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.UploadDate.IsZero() {
		c.UploadDate = time.Now().UTC()
	}
	if c.Status == "" {
		c.Status = StatusPending
	}
	return nil
}

// ValidStatuses returns list of valid complaint statuses
func ValidStatuses() []string {
	return []string{
		StatusPending,
		StatusProcessing,
		StatusAnalyzed,
		StatusError,
	}
}

// IsValidStatus checks if a status is valid
func IsValidStatus(status string) bool {
	return contains(ValidStatuses(), status)
}

// CanTransition reports whether a complaint may move from one status to another.
// Status only moves forward: pending -> processing -> analyzed | error. A pending
// complaint may fail directly.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusError
	case StatusProcessing:
		return to == StatusAnalyzed || to == StatusError
	default:
		return false
	}
}

// AllowedPredecessors returns the statuses a complaint may move to status from
func AllowedPredecessors(status string) []string {
	var from []string
	for _, s := range ValidStatuses() {
		if CanTransition(s, status) {
			from = append(from, s)
		}
	}
	return from
}

// IsTerminal reports whether status ends a pipeline run
func IsTerminal(status string) bool {
	return status == StatusAnalyzed || status == StatusError
}
