package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Generator is the inference endpoint: one prompt in, raw text out
type Generator interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
	Model() string
}

// GenerationParams are the sampling settings sent with every call
type GenerationParams struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens"`
	TopP            float64 `json:"top_p"`
}

// Config for the analysis service
type Config struct {
	Params GenerationParams
	// StrictSchema rejects responses whose scores or vocabularies are out of range
	StrictSchema bool
}

// DefaultConfig favors determinism: low temperature, bounded output, nucleus cap
func DefaultConfig() Config {
	return Config{
		Params: GenerationParams{
			Temperature:     0.2,
			MaxOutputTokens: 4000,
			TopP:            0.9,
		},
		StrictSchema: true,
	}
}

// Analysis is the parsed model response. Every field is optional; use the Get
// accessors, which are nil-safe.
type Analysis struct {
	Pelapor         *Pelapor             `json:"pelapor"`
	Terlapor        *Terlapor            `json:"terlapor"`
	Kejadian        *Kejadian            `json:"kejadian"`
	Kronologi       *string              `json:"kronologi"`
	JenisKasus      *string              `json:"jenis_kasus"`
	Kerugian        *Kerugian            `json:"kerugian"`
	Bukti           *Bukti               `json:"bukti"`
	PasalUtama      []Article            `json:"pasal_utama"`
	PasalAlternatif []Article            `json:"pasal_alternatif"`
	Summary         *Summary             `json:"summary"`
	Quality         *Quality             `json:"quality"`
	Recommendations []RecommendationItem `json:"recommendations"`
	Metadata        *Metadata            `json:"_metadata,omitempty"`

	// Raw is the full response object including _metadata
	Raw json.RawMessage `json:"-"`
}

type Pelapor struct {
	Nama   *string `json:"nama"`
	KTP    *string `json:"ktp"`
	Kontak *string `json:"kontak"`
}

type Terlapor struct {
	Nama      *string `json:"nama"`
	Identitas *string `json:"identitas"`
	Ciri      *string `json:"ciri"`
}

type Kejadian struct {
	Tanggal  *string `json:"tanggal"`
	Waktu    *string `json:"waktu"`
	Lokasi   *string `json:"lokasi"`
	Provinsi *string `json:"provinsi"`
}

type Kerugian struct {
	Materil   *FlexFloat `json:"materil"`
	Immateril *string    `json:"immateril"`
}

type Bukti struct {
	Fisik   []string `json:"fisik"`
	Dokumen []string `json:"dokumen"`
	Saksi   []string `json:"saksi"`
	Digital []string `json:"digital"`
}

// Article is one statute citation as returned by the model
type Article struct {
	PasalNumber       *FlexString     `json:"pasal_number"`
	SumberHukum       *string         `json:"sumber_hukum"`
	JudulPasal        *string         `json:"judul_pasal"`
	BunyiPasal        *string         `json:"bunyi_pasal"`
	ElemenKonstitutif json.RawMessage `json:"elemen_konstitutif"`
	ElemenTerpenuhi   json.RawMessage `json:"elemen_terpenuhi"`
	ConfidenceScore   *float64        `json:"confidence_score"`
	ConfidenceLevel   *string         `json:"confidence_level"`
	Reasoning         *string         `json:"reasoning"`
	Alasan            *string         `json:"alasan"`
	IsPrimary         *bool           `json:"is_primary"`
	ArticleType       *string         `json:"article_type"`
}

type Summary struct {
	ExecutiveSummary   *string  `json:"executive_summary"`
	KeyPoints          []string `json:"key_points"`
	TingkatUrgensi     *string  `json:"tingkat_urgensi"`
	AlasanUrgensi      *string  `json:"alasan_urgensi"`
	MissingInformation []string `json:"missing_information"`
}

type Quality struct {
	KelengkapanLaporan *string `json:"kelengkapan_laporan"`
	KualitasBukti      *string `json:"kualitas_bukti"`
	KompleksitasKasus  *string `json:"kompleksitas_kasus"`
}

type RecommendationItem struct {
	Text     *string `json:"text"`
	Priority *string `json:"priority"`
	Category *string `json:"category"`
}

// Metadata is appended to every successful analysis
type Metadata struct {
	AnalysisDurationSeconds int    `json:"analysis_duration_seconds"`
	AnalyzedAt              string `json:"analyzed_at"`
	Model                   string `json:"model"`
}

// Nil-safe accessors

func (p *Pelapor) GetNama() *string {
	if p == nil {
		return nil
	}
	return p.Nama
}

func (p *Pelapor) GetKTP() *string {
	if p == nil {
		return nil
	}
	return p.KTP
}

func (p *Pelapor) GetKontak() *string {
	if p == nil {
		return nil
	}
	return p.Kontak
}

func (t *Terlapor) GetNama() *string {
	if t == nil {
		return nil
	}
	return t.Nama
}

func (t *Terlapor) GetIdentitas() *string {
	if t == nil {
		return nil
	}
	return t.Identitas
}

func (t *Terlapor) GetCiri() *string {
	if t == nil {
		return nil
	}
	return t.Ciri
}

func (k *Kejadian) GetTanggal() *string {
	if k == nil {
		return nil
	}
	return k.Tanggal
}

func (k *Kejadian) GetWaktu() *string {
	if k == nil {
		return nil
	}
	return k.Waktu
}

func (k *Kejadian) GetLokasi() *string {
	if k == nil {
		return nil
	}
	return k.Lokasi
}

func (k *Kejadian) GetProvinsi() *string {
	if k == nil {
		return nil
	}
	return k.Provinsi
}

func (k *Kerugian) GetMateril() *float64 {
	if k == nil || k.Materil == nil {
		return nil
	}
	v := float64(*k.Materil)
	return &v
}

func (k *Kerugian) GetImmateril() *string {
	if k == nil {
		return nil
	}
	return k.Immateril
}

func (b *Bukti) GetFisik() []string {
	if b == nil {
		return nil
	}
	return b.Fisik
}

func (b *Bukti) GetDokumen() []string {
	if b == nil {
		return nil
	}
	return b.Dokumen
}

func (b *Bukti) GetSaksi() []string {
	if b == nil {
		return nil
	}
	return b.Saksi
}

func (b *Bukti) GetDigital() []string {
	if b == nil {
		return nil
	}
	return b.Digital
}

func (s *Summary) GetExecutiveSummary() *string {
	if s == nil {
		return nil
	}
	return s.ExecutiveSummary
}

func (s *Summary) GetKeyPoints() []string {
	if s == nil {
		return nil
	}
	return s.KeyPoints
}

func (s *Summary) GetTingkatUrgensi() *string {
	if s == nil {
		return nil
	}
	return s.TingkatUrgensi
}

func (s *Summary) GetAlasanUrgensi() *string {
	if s == nil {
		return nil
	}
	return s.AlasanUrgensi
}

func (s *Summary) GetMissingInformation() []string {
	if s == nil {
		return nil
	}
	return s.MissingInformation
}

func (q *Quality) GetKelengkapanLaporan() *string {
	if q == nil {
		return nil
	}
	return q.KelengkapanLaporan
}

func (q *Quality) GetKualitasBukti() *string {
	if q == nil {
		return nil
	}
	return q.KualitasBukti
}

func (q *Quality) GetKompleksitasKasus() *string {
	if q == nil {
		return nil
	}
	return q.KompleksitasKasus
}

// AllArticles returns pasal_utama followed by pasal_alternatif, each in original order
func (a *Analysis) AllArticles() []Article {
	all := make([]Article, 0, len(a.PasalUtama)+len(a.PasalAlternatif))
	all = append(all, a.PasalUtama...)
	return append(all, a.PasalAlternatif...)
}

// FlexString accepts a JSON string or number; models sometimes emit pasal numbers bare
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("pasal_number must be a string or number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// FlexFloat accepts a JSON number or a rupiah string such as "Rp 5.000.000"
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] != '"' {
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = FlexFloat(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := parseRupiah(s)
	if err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// parseRupiah reads Indonesian-formatted amounts: dots group thousands, a comma marks
// decimals.
func parseRupiah(s string) (float64, error) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ',':
			b.WriteRune('.')
		}
	}
	if b.Len() == 0 {
		return 0, nil
	}
	return strconv.ParseFloat(b.String(), 64)
}
