package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Article types
const (
	ArticleTypeUtama      = "utama"
	ArticleTypeAlternatif = "alternatif"
)

// LegalArticle is one candidate statute citation for an analysis
type LegalArticle struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AnalysisID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_articles_analysis" json:"analysis_id"`
	Position          int            `gorm:"not null;default:0" json:"position"`
	PasalNumber       string         `gorm:"type:varchar(100);not null" json:"pasal_number"`
	SumberHukum       string         `gorm:"type:varchar(255);not null" json:"sumber_hukum"`
	JudulPasal        *string        `gorm:"type:varchar(500)" json:"judul_pasal,omitempty"`
	BunyiPasal        *string        `gorm:"type:text" json:"bunyi_pasal,omitempty"`
	ElemenKonstitutif datatypes.JSON `json:"elemen_konstitutif,omitempty"`
	ElemenTerpenuhi   datatypes.JSON `json:"elemen_terpenuhi,omitempty"`
	ConfidenceScore   float64        `gorm:"not null;check:chk_legal_articles_confidence,confidence_score >= 0 AND confidence_score <= 1" json:"confidence_score"`
	ConfidenceLevel   string         `gorm:"type:varchar(20);not null" json:"confidence_level"`
	Reasoning         *string        `gorm:"type:text" json:"reasoning,omitempty"`
	IsPrimary         bool           `gorm:"not null;default:false" json:"is_primary"`
	ArticleType       string         `gorm:"type:varchar(20);not null;default:'utama'" json:"article_type"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (LegalArticle) TableName() string {
	return "legal_articles"
}

// BeforeCreate GORM hook. Rows violating the score range or vocabularies never reach
// the database.
func (l *LegalArticle) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return l.Validate()
}

// Validate checks confidence range and vocabularies
func (l *LegalArticle) Validate() error {
	if !IsValidConfidenceScore(l.ConfidenceScore) {
		return fmt.Errorf("confidence_score %v for pasal %q is outside [0, 1]", l.ConfidenceScore, l.PasalNumber)
	}
	if !IsValidConfidenceLevel(l.ConfidenceLevel) {
		return &VocabularyError{Field: "confidence_level", Value: l.ConfidenceLevel, Allowed: ConfidenceLevels()}
	}
	if l.ArticleType != ArticleTypeUtama && l.ArticleType != ArticleTypeAlternatif {
		return &VocabularyError{Field: "article_type", Value: l.ArticleType, Allowed: []string{ArticleTypeUtama, ArticleTypeAlternatif}}
	}
	return nil
}

// IsValidConfidenceScore reports whether score lies within [0, 1]
func IsValidConfidenceScore(score float64) bool {
	return score >= 0 && score <= 1
}
