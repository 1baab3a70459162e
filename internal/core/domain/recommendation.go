package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recommendation defaults
const (
	DefaultRecommendationPriority = "Normal"
	RecommendationStatusPending   = "pending"
)

// Recommendation is a follow-up action suggested by an analysis
type Recommendation struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AnalysisID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_recommendations_analysis" json:"analysis_id"`
	Position           int        `gorm:"not null;default:0" json:"position"`
	RecommendationText string     `gorm:"type:text;not null" json:"recommendation_text"`
	Priority           string     `gorm:"type:varchar(20);not null;default:'Normal'" json:"priority"`
	Category           *string    `gorm:"type:varchar(100)" json:"category,omitempty"`
	Status             string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	AssignedTo         *string    `gorm:"type:varchar(255)" json:"assigned_to,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Notes              *string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Recommendation) TableName() string {
	return "recommendations"
}

// BeforeCreate GORM hook
func (r *Recommendation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Priority == "" {
		r.Priority = DefaultRecommendationPriority
	}
	if r.Status == "" {
		r.Status = RecommendationStatusPending
	}
	return nil
}
