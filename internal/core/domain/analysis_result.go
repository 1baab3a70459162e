package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalysisResult holds the structured fields extracted from one complaint, one-to-one
// with Complaint.
type AnalysisResult struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ComplaintID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"complaint_id"`

	// Pelapor (reporter)
	PelaporNama   *string `gorm:"type:varchar(255)" json:"pelapor_nama,omitempty"`
	PelaporKTP    *string `gorm:"column:pelapor_ktp;type:varchar(64)" json:"pelapor_ktp,omitempty"`
	PelaporKontak *string `gorm:"type:varchar(255)" json:"pelapor_kontak,omitempty"`

	// Terlapor (accused)
	TerlaporNama      *string `gorm:"type:varchar(255)" json:"terlapor_nama,omitempty"`
	TerlaporIdentitas *string `gorm:"type:text" json:"terlapor_identitas,omitempty"`
	TerlaporCiri      *string `gorm:"type:text" json:"terlapor_ciri,omitempty"`

	// Kejadian (incident). Dates are normalized to YYYY-MM-DD when parseable.
	KejadianTanggal  *string `gorm:"type:varchar(32)" json:"kejadian_tanggal,omitempty"`
	KejadianWaktu    *string `gorm:"type:varchar(16)" json:"kejadian_waktu,omitempty"`
	KejadianLokasi   *string `gorm:"type:text" json:"kejadian_lokasi,omitempty"`
	KejadianProvinsi *string `gorm:"type:varchar(100)" json:"kejadian_provinsi,omitempty"`

	Kronologi  *string `gorm:"type:text" json:"kronologi,omitempty"`
	JenisKasus *string `gorm:"type:varchar(255);index" json:"jenis_kasus,omitempty"`

	KerugianMateril   *float64 `json:"kerugian_materil,omitempty"`
	KerugianImmateril *string  `gorm:"type:text" json:"kerugian_immateril,omitempty"`

	BuktiFisik   datatypes.JSON `json:"bukti_fisik,omitempty"`
	BuktiDokumen datatypes.JSON `json:"bukti_dokumen,omitempty"`
	BuktiSaksi   datatypes.JSON `json:"bukti_saksi,omitempty"`
	BuktiDigital datatypes.JSON `json:"bukti_digital,omitempty"`

	// Summary
	ExecutiveSummary   *string        `gorm:"type:text" json:"executive_summary,omitempty"`
	KeyPoints          datatypes.JSON `json:"key_points,omitempty"`
	TingkatUrgensi     *string        `gorm:"type:varchar(20);index" json:"tingkat_urgensi,omitempty"`
	AlasanUrgensi      *string        `gorm:"type:text" json:"alasan_urgensi,omitempty"`
	MissingInformation datatypes.JSON `json:"missing_information,omitempty"`

	// Quality
	KelengkapanLaporan *string `gorm:"type:varchar(20)" json:"kelengkapan_laporan,omitempty"`
	KualitasBukti      *string `gorm:"type:varchar(20)" json:"kualitas_bukti,omitempty"`
	KompleksitasKasus  *string `gorm:"type:varchar(20)" json:"kompleksitas_kasus,omitempty"`

	// Provenance
	FullAnalysisJSON        datatypes.JSON `json:"full_analysis_json,omitempty"`
	AnalyzedBy              string         `gorm:"type:varchar(64)" json:"analyzed_by"`
	AnalysisDurationSeconds *int           `json:"analysis_duration_seconds,omitempty"`
	CreatedAt               time.Time      `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Articles        []LegalArticle   `gorm:"foreignKey:AnalysisID;constraint:OnDelete:CASCADE" json:"articles,omitempty"`
	Recommendations []Recommendation `gorm:"foreignKey:AnalysisID;constraint:OnDelete:CASCADE" json:"recommendations,omitempty"`
}

// TableName specifies the table name for GORM
func (AnalysisResult) TableName() string {
	return "analysis_results"
}

// BeforeCreate GORM hook
func (a *AnalysisResult) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Validate checks the enumerated quality and urgency fields. Nil fields are allowed.
func (a *AnalysisResult) Validate() error {
	checks := []struct {
		field string
		value *string
		valid []string
	}{
		{"tingkat_urgensi", a.TingkatUrgensi, UrgencyLevels()},
		{"kelengkapan_laporan", a.KelengkapanLaporan, CompletenessLevels()},
		{"kualitas_bukti", a.KualitasBukti, EvidenceQualityLevels()},
		{"kompleksitas_kasus", a.KompleksitasKasus, ComplexityLevels()},
	}

	for _, c := range checks {
		if c.value != nil && !contains(c.valid, *c.value) {
			return &VocabularyError{Field: c.field, Value: *c.value, Allowed: c.valid}
		}
	}
	return nil
}
