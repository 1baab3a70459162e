package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAuditImmutable is returned when something tries to modify an audit row
var ErrAuditImmutable = errors.New("analysis logs are append-only")

// VocabularyError reports a value outside a fixed enumerated vocabulary
type VocabularyError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *VocabularyError) Error() string {
	return fmt.Sprintf("%s %q is not one of [%s]", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// ConfidenceLevels returns the allowed confidence_level values
func ConfidenceLevels() []string {
	return []string{"Tinggi", "Sedang", "Rendah"}
}

// UrgencyLevels returns the allowed tingkat_urgensi values
func UrgencyLevels() []string {
	return []string{"Tinggi", "Sedang", "Rendah"}
}

// CompletenessLevels returns the allowed kelengkapan_laporan values
func CompletenessLevels() []string {
	return []string{"Lengkap", "Tidak Lengkap", "Parsial"}
}

// EvidenceQualityLevels returns the allowed kualitas_bukti values
func EvidenceQualityLevels() []string {
	return []string{"Kuat", "Sedang", "Lemah"}
}

// ComplexityLevels returns the allowed kompleksitas_kasus values
func ComplexityLevels() []string {
	return []string{"Tinggi", "Sedang", "Rendah"}
}

func IsValidConfidenceLevel(level string) bool {
	return contains(ConfidenceLevels(), level)
}

func IsValidUrgencyLevel(level string) bool {
	return contains(UrgencyLevels(), level)
}

// Default values applied when the model omits article fields
const (
	DefaultConfidenceScore = 0.5
	DefaultConfidenceLevel = "Sedang"
	UrgencyHigh            = "Tinggi"
)

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// Statistics summarizes the complaint store
type Statistics struct {
	TotalComplaints int64 `json:"total_complaints"`
	Pending         int64 `json:"pending"`
	Analyzed        int64 `json:"analyzed"`
	Errored         int64 `json:"errored"`
	HighUrgency     int64 `json:"high_urgency"`
}
