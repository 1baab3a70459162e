package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/domain"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/analyzer"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/format"
)

// records is the decomposition of one analysis into persisted rows
type records struct {
	analysis        *domain.AnalysisResult
	articles        []*domain.LegalArticle
	recommendations []*domain.Recommendation
}

// decompose maps the analysis onto rows and validates all of them before anything is
// written. Article and recommendation AnalysisIDs are filled in once the analysis row
// exists.
func decompose(complaintID uuid.UUID, a *analyzer.Analysis) (*records, error) {
	result := mapAnalysisResult(complaintID, a)
	if err := result.Validate(); err != nil {
		return nil, err
	}

	articles := mapArticles(a)
	for _, art := range articles {
		if err := art.Validate(); err != nil {
			return nil, fmt.Errorf("article %d: %w", art.Position, err)
		}
	}

	return &records{
		analysis:        result,
		articles:        articles,
		recommendations: mapRecommendations(a),
	}, nil
}

func mapAnalysisResult(complaintID uuid.UUID, a *analyzer.Analysis) *domain.AnalysisResult {
	r := &domain.AnalysisResult{
		ComplaintID: complaintID,

		PelaporNama:   a.Pelapor.GetNama(),
		PelaporKTP:    a.Pelapor.GetKTP(),
		PelaporKontak: a.Pelapor.GetKontak(),

		TerlaporNama:      a.Terlapor.GetNama(),
		TerlaporIdentitas: a.Terlapor.GetIdentitas(),
		TerlaporCiri:      a.Terlapor.GetCiri(),

		KejadianTanggal:  normalizeDate(a.Kejadian.GetTanggal()),
		KejadianWaktu:    a.Kejadian.GetWaktu(),
		KejadianLokasi:   a.Kejadian.GetLokasi(),
		KejadianProvinsi: a.Kejadian.GetProvinsi(),

		Kronologi:  a.Kronologi,
		JenisKasus: a.JenisKasus,

		KerugianMateril:   a.Kerugian.GetMateril(),
		KerugianImmateril: a.Kerugian.GetImmateril(),

		BuktiFisik:   jsonList(a.Bukti.GetFisik()),
		BuktiDokumen: jsonList(a.Bukti.GetDokumen()),
		BuktiSaksi:   jsonList(a.Bukti.GetSaksi()),
		BuktiDigital: jsonList(a.Bukti.GetDigital()),

		ExecutiveSummary:   a.Summary.GetExecutiveSummary(),
		KeyPoints:          jsonList(a.Summary.GetKeyPoints()),
		TingkatUrgensi:     a.Summary.GetTingkatUrgensi(),
		AlasanUrgensi:      a.Summary.GetAlasanUrgensi(),
		MissingInformation: jsonList(a.Summary.GetMissingInformation()),

		KelengkapanLaporan: a.Quality.GetKelengkapanLaporan(),
		KualitasBukti:      a.Quality.GetKualitasBukti(),
		KompleksitasKasus:  a.Quality.GetKompleksitasKasus(),

		FullAnalysisJSON: rawJSON(a.Raw),
		AnalyzedBy:       AnalyzedBy,
	}

	if a.Metadata != nil {
		d := a.Metadata.AnalysisDurationSeconds
		r.AnalysisDurationSeconds = &d
	}
	return r
}

// mapArticles concatenates pasal_utama then pasal_alternatif. When article_type is
// absent or empty it is derived from the position in the concatenated list: indices below
// len(pasal_utama) are utama.
func mapArticles(a *analyzer.Analysis) []*domain.LegalArticle {
	all := a.AllArticles()
	primaryCount := len(a.PasalUtama)

	out := make([]*domain.LegalArticle, 0, len(all))
	for i, src := range all {
		articleType := domain.ArticleTypeAlternatif
		if i < primaryCount {
			articleType = domain.ArticleTypeUtama
		}
		if src.ArticleType != nil && *src.ArticleType != "" {
			articleType = *src.ArticleType
		}

		isPrimary := articleType == domain.ArticleTypeUtama
		if src.IsPrimary != nil {
			isPrimary = *src.IsPrimary
		}

		score := domain.DefaultConfidenceScore
		if src.ConfidenceScore != nil {
			score = *src.ConfidenceScore
		}

		level := domain.DefaultConfidenceLevel
		if src.ConfidenceLevel != nil {
			level = *src.ConfidenceLevel
		}

		reasoning := src.Reasoning
		if reasoning == nil || *reasoning == "" {
			reasoning = src.Alasan
		}

		out = append(out, &domain.LegalArticle{
			Position:          i,
			PasalNumber:       flexString(src.PasalNumber),
			SumberHukum:       deref(src.SumberHukum),
			JudulPasal:        src.JudulPasal,
			BunyiPasal:        src.BunyiPasal,
			ElemenKonstitutif: rawJSON(src.ElemenKonstitutif),
			ElemenTerpenuhi:   rawJSON(src.ElemenTerpenuhi),
			ConfidenceScore:   score,
			ConfidenceLevel:   level,
			Reasoning:         reasoning,
			IsPrimary:         isPrimary,
			ArticleType:       articleType,
		})
	}
	return out
}

func mapRecommendations(a *analyzer.Analysis) []*domain.Recommendation {
	out := make([]*domain.Recommendation, 0, len(a.Recommendations))
	for i, src := range a.Recommendations {
		priority := domain.DefaultRecommendationPriority
		if src.Priority != nil && *src.Priority != "" {
			priority = *src.Priority
		}

		out = append(out, &domain.Recommendation{
			Position:           i,
			RecommendationText: deref(src.Text),
			Priority:           priority,
			Category:           src.Category,
			Status:             domain.RecommendationStatusPending,
		})
	}
	return out
}

// normalizeDate rewrites parseable dates to YYYY-MM-DD and keeps anything else verbatim
func normalizeDate(s *string) *string {
	if s == nil {
		return nil
	}
	if d, ok := format.ParseDate(*s); ok {
		return &d
	}
	return s
}

func jsonList(items []string) datatypes.JSON {
	if items == nil {
		return nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func rawJSON(raw json.RawMessage) datatypes.JSON {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return datatypes.JSON(trimmed)
}

func flexString(s *analyzer.FlexString) string {
	if s == nil {
		return ""
	}
	return string(*s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
