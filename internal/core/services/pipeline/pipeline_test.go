package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/domain"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/extractor"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/refinery"
	apperrors "github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/errors"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/logger"
)

const fullAnalysis = `{
  "pelapor": {"nama": "Budi Santoso", "ktp": "3171234567890001", "kontak": "08123456789"},
  "terlapor": {"nama": "Andi", "identitas": null, "ciri": "berkacamata"},
  "kejadian": {"tanggal": "12 Maret 2024", "waktu": "14:30", "lokasi": "Pasar Minggu", "provinsi": "DKI Jakarta"},
  "kronologi": "Barang tidak dikirim setelah transfer.",
  "jenis_kasus": "Penipuan",
  "kerugian": {"materil": 5000000, "immateril": "trauma"},
  "bukti": {"fisik": [], "dokumen": ["bukti transfer"], "saksi": ["Siti"], "digital": ["chat"]},
  "pasal_utama": [
    {"pasal_number": "378", "sumber_hukum": "KUHP", "confidence_score": 0.9, "confidence_level": "Tinggi", "reasoning": "tipu muslihat"},
    {"pasal_number": "372", "sumber_hukum": "KUHP", "alasan": "penggelapan"}
  ],
  "pasal_alternatif": [
    {"pasal_number": "28 ayat (1)", "sumber_hukum": "UU ITE", "confidence_score": 0.6, "confidence_level": "Sedang"},
    {"pasal_number": "45A", "sumber_hukum": "UU ITE", "confidence_score": 0.4, "confidence_level": "Rendah", "article_type": "utama", "is_primary": false}
  ],
  "summary": {"executive_summary": "Penipuan daring", "key_points": ["transfer"], "tingkat_urgensi": "Tinggi", "missing_information": ["nomor rekening terlapor"]},
  "quality": {"kelengkapan_laporan": "Parsial", "kualitas_bukti": "Sedang", "kompleksitas_kasus": "Rendah"},
  "recommendations": [
    {"text": "Minta rekening koran", "priority": "Tinggi", "category": "Penyidikan"},
    {"text": "Panggil saksi Siti"}
  ]
}`

type fixture struct {
	store     *memoryStore
	extractor *stubExtractor
	analyzer  *stubAnalyzer
	recorder  *captureRecorder
	processor *Processor
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store:     newMemoryStore(),
		extractor: &stubExtractor{text: strings.Repeat("Isi laporan pengaduan. ", 10), method: extractor.MethodDigital},
		analyzer:  &stubAnalyzer{analysis: mustAnalysis(t, fullAnalysis)},
		recorder:  &captureRecorder{},
	}
	opts = append(opts, WithRecorder(f.recorder))
	f.processor = NewProcessor(f.store, f.extractor, f.analyzer, &sequenceNumbers{}, logger.Discard(), opts...)
	return f
}

func TestProcess_Success(t *testing.T) {
	f := newFixture(t)
	path := writeUpload(t)

	result := f.processor.Process(context.Background(), Request{FilePath: path, OriginalName: "laporan budi.pdf", UploadedBy: "petugas-1"})

	require.True(t, result.Success, result.Error)
	assert.Empty(t, result.Error)
	assert.NotEmpty(t, result.ComplaintID)
	assert.Equal(t, "ADU-20240312000001", result.ComplaintNumber)
	assert.NotEmpty(t, result.AnalysisID)
	assert.GreaterOrEqual(t, result.DurationSeconds, 0.0)

	complaint := f.store.onlyComplaint(t)
	assert.Equal(t, domain.StatusAnalyzed, complaint.Status)
	assert.Equal(t, "laporan_budi.pdf", complaint.PDFFilename)
	assert.Equal(t, "petugas-1", complaint.UploadedBy)
	assert.Equal(t, extractor.MethodDigital, complaint.ExtractionMethod)
	assert.Len(t, complaint.FileHash, 64)

	require.Len(t, f.store.analyses, 1)
	analysis := f.store.analyses[0]
	assert.Equal(t, complaint.ID, analysis.ComplaintID)
	assert.Equal(t, result.AnalysisID, analysis.ID.String())
	assert.Equal(t, AnalyzedBy, analysis.AnalyzedBy)
	assert.Equal(t, "2024-03-12", *analysis.KejadianTanggal)
	assert.InDelta(t, 5000000, *analysis.KerugianMateril, 0.01)
	assert.JSONEq(t, `["Siti"]`, string(analysis.BuktiSaksi))
	assert.Equal(t, 4, *analysis.AnalysisDurationSeconds)
	assert.NotEmpty(t, analysis.FullAnalysisJSON)

	assert.Len(t, f.store.articles, 4)
	assert.Len(t, f.store.recommendations, 2)

	assert.Equal(t, []string{domain.ActionComplaintUploaded, domain.ActionAnalysisCompleted}, f.store.actions())
	assert.Equal(t, "PDF: laporan budi.pdf", f.store.logs[0].Details)
	assert.Equal(t, "petugas-1", f.store.logs[0].ActionBy)
	assert.Equal(t, "Analysis ID: "+result.AnalysisID, f.store.logs[1].Details)
	assert.Equal(t, SystemActor, f.store.logs[1].ActionBy)
	assert.Equal(t, analysis.ID, *f.store.logs[1].AnalysisID)

	require.Len(t, f.recorder.outcomes, 1)
	assert.True(t, f.recorder.outcomes[0].success)
	assert.Equal(t, []string{extractor.MethodDigital}, f.recorder.methods)
}

func TestProcess_ArticlesKeepOrderAndDefaults(t *testing.T) {
	f := newFixture(t)

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})
	require.True(t, result.Success, result.Error)

	arts := f.store.articles
	require.Len(t, arts, 4)

	numbers := []string{arts[0].PasalNumber, arts[1].PasalNumber, arts[2].PasalNumber, arts[3].PasalNumber}
	assert.Equal(t, []string{"378", "372", "28 ayat (1)", "45A"}, numbers)

	for i, a := range arts {
		assert.Equal(t, i, a.Position)
		assert.Equal(t, f.store.analyses[0].ID, a.AnalysisID)
	}

	// positional type and derived is_primary
	assert.Equal(t, domain.ArticleTypeUtama, arts[0].ArticleType)
	assert.True(t, arts[0].IsPrimary)
	assert.Equal(t, domain.ArticleTypeUtama, arts[1].ArticleType)
	assert.Equal(t, domain.ArticleTypeAlternatif, arts[2].ArticleType)
	assert.False(t, arts[2].IsPrimary)

	// explicit fields win over position
	assert.Equal(t, domain.ArticleTypeUtama, arts[3].ArticleType)
	assert.False(t, arts[3].IsPrimary)

	// defaults for the sparse entry
	assert.Equal(t, domain.DefaultConfidenceScore, arts[1].ConfidenceScore)
	assert.Equal(t, domain.DefaultConfidenceLevel, arts[1].ConfidenceLevel)
	require.NotNil(t, arts[1].Reasoning)
	assert.Equal(t, "penggelapan", *arts[1].Reasoning)

	recs := f.store.recommendations
	assert.Equal(t, "Tinggi", recs[0].Priority)
	assert.Equal(t, domain.DefaultRecommendationPriority, recs[1].Priority)
	assert.Equal(t, domain.RecommendationStatusPending, recs[1].Status)
	assert.Equal(t, "Panggil saksi Siti", recs[1].RecommendationText)
}

func TestProcess_EmptyArticleFieldsTreatedAsAbsent(t *testing.T) {
	f := newFixture(t)
	f.analyzer.analysis = mustAnalysis(t, `{
  "pasal_utama": [{"pasal_number": "378", "article_type": "", "reasoning": "", "alasan": "tipu muslihat"}],
  "pasal_alternatif": [{"pasal_number": "372", "article_type": ""}]
}`)

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

	require.True(t, result.Success, result.Error)
	arts := f.store.articles
	require.Len(t, arts, 2)
	assert.Equal(t, domain.ArticleTypeUtama, arts[0].ArticleType)
	assert.True(t, arts[0].IsPrimary)
	require.NotNil(t, arts[0].Reasoning)
	assert.Equal(t, "tipu muslihat", *arts[0].Reasoning)
	assert.Equal(t, domain.ArticleTypeAlternatif, arts[1].ArticleType)
	assert.False(t, arts[1].IsPrimary)
}

func TestProcess_EmptyAnalysisPersistsBareResult(t *testing.T) {
	f := newFixture(t)
	f.analyzer.analysis = mustAnalysis(t, `{}`)

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

	require.True(t, result.Success, result.Error)
	assert.Len(t, f.store.analyses, 1)
	assert.Empty(t, f.store.articles)
	assert.Empty(t, f.store.recommendations)
}

func TestProcess_FileNotFound(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.pdf")},
		{"empty path", ""},
		{"directory", t.TempDir()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			result := f.processor.Process(context.Background(), Request{FilePath: tt.path, UploadedBy: "u"})

			assert.False(t, result.Success)
			assert.Equal(t, ErrMsgFileNotFound, result.Error)
			assert.Equal(t, StageValidate, result.Stage)
			assert.True(t, apperrors.HasCode(result.Cause, apperrors.ErrCodeFileNotFound))
			assert.Zero(t, f.store.writes)
			assert.Zero(t, f.extractor.calls)
		})
	}
}

func TestProcess_ExtractionFailed(t *testing.T) {
	f := newFixture(t)
	f.extractor.err = extractor.ErrNoText

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

	assert.False(t, result.Success)
	assert.Equal(t, ErrMsgExtractionFailed, result.Error)
	assert.ErrorIs(t, result.Cause, extractor.ErrNoText)
	assert.Zero(t, f.store.writes)
	assert.Empty(t, f.analyzer.texts)
}

func TestProcess_AnalysisFailed(t *testing.T) {
	f := newFixture(t)
	f.analyzer.analysis = nil
	f.analyzer.err = apperrors.LLMInvalidResponse("response is not valid JSON", errors.New("invalid character"))

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

	assert.False(t, result.Success)
	assert.Equal(t, ErrMsgAnalysisFailed, result.Error)
	assert.Equal(t, StageAnalyze, result.Stage)

	complaint := f.store.onlyComplaint(t)
	assert.Equal(t, domain.StatusError, complaint.Status)
	assert.Empty(t, f.store.analyses)
	assert.Empty(t, f.store.articles)
	assert.Empty(t, f.store.recommendations)
	assert.Equal(t, []string{domain.ActionComplaintUploaded}, f.store.actions())

	require.Len(t, f.recorder.outcomes, 1)
	assert.Equal(t, outcome{false, StageAnalyze}, f.recorder.outcomes[0])
}

func TestProcess_OutOfRangeConfidenceRejectedBeforePersistence(t *testing.T) {
	for _, score := range []string{"1.5", "-0.2"} {
		t.Run(score, func(t *testing.T) {
			f := newFixture(t)
			f.analyzer.analysis = mustAnalysis(t, `{"pasal_utama": [
				{"pasal_number": "378", "confidence_score": 0.8, "confidence_level": "Tinggi"},
				{"pasal_number": "372", "confidence_score": `+score+`, "confidence_level": "Tinggi"}
			]}`)

			result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

			assert.False(t, result.Success)
			assert.Contains(t, result.Error, "confidence_score")
			assert.Empty(t, f.store.analyses)
			assert.Empty(t, f.store.articles)

			complaint := f.store.onlyComplaint(t)
			assert.Equal(t, domain.StatusError, complaint.Status)
			assert.Contains(t, f.store.actions(), domain.ActionProcessingError)
		})
	}
}

func TestProcess_UnknownVocabularyRejected(t *testing.T) {
	f := newFixture(t)
	f.analyzer.analysis = mustAnalysis(t, `{"quality": {"kualitas_bukti": "Bagus"}}`)

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

	assert.False(t, result.Success)
	var vocabErr *domain.VocabularyError
	assert.ErrorAs(t, result.Cause, &vocabErr)
	assert.Empty(t, f.store.analyses)
}

func TestProcess_ArticleWriteFailureGoesToOuterHandler(t *testing.T) {
	f := newFixture(t)
	f.store.failArticleAt = 2

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

	assert.False(t, result.Success)
	assert.Equal(t, StagePersist, result.Stage)
	assert.Contains(t, result.Error, "connection lost")

	// earlier rows stay: the write sequence is not transactional
	assert.Len(t, f.store.analyses, 1)
	assert.Len(t, f.store.articles, 1)
	assert.Empty(t, f.store.recommendations)

	complaint := f.store.onlyComplaint(t)
	assert.Equal(t, domain.StatusError, complaint.Status)

	last := f.store.logs[len(f.store.logs)-1]
	assert.Equal(t, domain.ActionProcessingError, last.Action)
	assert.Contains(t, last.Details, "connection lost")
	assert.Equal(t, SystemActor, last.ActionBy)
}

func TestProcess_SecondaryFailuresDoNotMaskOriginal(t *testing.T) {
	f := newFixture(t)
	f.store.failures["CreateRecommendation"] = errors.New("recommendations table locked")
	f.store.failures["AppendLog"] = errors.New("audit insert failed")

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "recommendations table locked")
	assert.NotContains(t, result.Error, "audit")
	assert.Equal(t, domain.StatusError, f.store.onlyComplaint(t).Status)
}

func TestProcess_StatusUpdateFailureAfterAnalysisFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.analyzer.analysis = nil
	f.analyzer.err = errors.New("deadline exceeded")
	f.store.failures["UpdateComplaintStatus"] = errors.New("db down")

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

	assert.False(t, result.Success)
	assert.Equal(t, ErrMsgAnalysisFailed, result.Error)
}

func TestProcess_PanicIsRecovered(t *testing.T) {
	f := newFixture(t)
	f.analyzer.panicMsg = "nil map write"
	path := writeUpload(t)

	var result *Result
	require.NotPanics(t, func() {
		result = f.processor.Process(context.Background(), Request{FilePath: path, UploadedBy: "u", Temporary: true})
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "nil map write")
	assert.Equal(t, domain.StatusError, f.store.onlyComplaint(t).Status)
	assert.Contains(t, f.store.actions(), domain.ActionProcessingError)
	assert.NoFileExists(t, path)
}

func TestProcess_TemporaryUploadRemovedOnEveryPath(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{"success", func(f *fixture) {}},
		{"extraction failure", func(f *fixture) { f.extractor.err = extractor.ErrNoText }},
		{"analysis failure", func(f *fixture) { f.analyzer.analysis, f.analyzer.err = nil, errors.New("boom") }},
		{"persistence failure", func(f *fixture) { f.store.failures["CreateAnalysis"] = errors.New("insert failed") }},
		{"complaint creation failure", func(f *fixture) { f.store.failures["CreateComplaint"] = errors.New("db down") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)
			path := writeUpload(t)

			f.processor.Process(context.Background(), Request{FilePath: path, UploadedBy: "u", Temporary: true})

			assert.NoFileExists(t, path)
		})
	}
}

func TestProcess_NonTemporaryFileKept(t *testing.T) {
	f := newFixture(t)
	path := writeUpload(t)

	f.processor.Process(context.Background(), Request{FilePath: path, UploadedBy: "admin-cli"})

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestProcess_ComplaintCreationFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failures["CreateComplaint"] = apperrors.DatabaseError(errors.New("connection refused"))

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

	assert.False(t, result.Success)
	assert.Equal(t, StageCreate, result.Stage)
	assert.Contains(t, result.Error, "connection refused")
	assert.Empty(t, f.analyzer.texts)
}

func TestProcess_RetriesDuplicateComplaintNumber(t *testing.T) {
	f := newFixture(t)
	f.store.duplicates = 2

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "ADU-20240312000003", result.ComplaintNumber)
}

func TestProcess_ArchiveRecordsURL(t *testing.T) {
	archiver := &stubArchiver{url: "http://minio:9000/complaints/ADU-20240312000001/laporan.pdf"}
	f := newFixture(t, WithArchiver(archiver))

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), OriginalName: "laporan.pdf", UploadedBy: "u"})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, []string{"ADU-20240312000001/laporan.pdf"}, archiver.keys)
	complaint := f.store.onlyComplaint(t)
	require.NotNil(t, complaint.PDFURL)
	assert.Equal(t, archiver.url, *complaint.PDFURL)
	assert.Contains(t, f.store.actions(), domain.ActionPDFArchived)
}

func TestProcess_ArchiveFailureIgnored(t *testing.T) {
	f := newFixture(t, WithArchiver(&stubArchiver{err: errors.New("bucket missing")}))

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

	require.True(t, result.Success, result.Error)
	assert.Nil(t, f.store.onlyComplaint(t).PDFURL)
}

func TestProcess_CleanerAppliedBeforeStorageAndAnalysis(t *testing.T) {
	f := newFixture(t, WithCleaner(upperCleaner{}))

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

	require.True(t, result.Success, result.Error)
	require.Len(t, f.analyzer.texts, 1)
	assert.True(t, strings.HasPrefix(f.analyzer.texts[0], "CLEANED "))
	assert.True(t, strings.HasPrefix(f.store.onlyComplaint(t).ExtractedText, "CLEANED "))
}

func TestProcess_CleanedTextBelowThresholdKeepsRawText(t *testing.T) {
	f := newFixture(t, WithCleaner(wipeCleaner{}))
	raw := f.extractor.text

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, raw, f.store.onlyComplaint(t).ExtractedText)
	require.Len(t, f.analyzer.texts, 1)
	assert.Equal(t, raw, f.analyzer.texts[0])
}

func TestProcess_NumericLinesSurviveComplaintRefinery(t *testing.T) {
	cleaner, err := refinery.NewPipeline("v1", nil)
	require.NoError(t, err)
	f := newFixture(t, WithCleaner(cleaner))
	f.extractor.text = strings.Repeat("12\n", 60)

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

	require.True(t, result.Success, result.Error)
	stored := f.store.onlyComplaint(t).ExtractedText
	assert.Equal(t, 60, strings.Count(stored, "12"))
	require.Len(t, f.analyzer.texts, 1)
	assert.Equal(t, stored, f.analyzer.texts[0])
}

func TestProcess_BlankExtractedTextNeverPersisted(t *testing.T) {
	f := newFixture(t)
	f.extractor.text = " \n\t "

	result := f.processor.Process(context.Background(), Request{FilePath: writeUpload(t), UploadedBy: "u"})

	assert.False(t, result.Success)
	assert.Equal(t, ErrMsgExtractionFailed, result.Error)
	assert.Equal(t, StageExtract, result.Stage)
	assert.Zero(t, f.store.writes)
	assert.Empty(t, f.analyzer.texts)
}

func TestProcess_CancelledContextStillMarksError(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.analyzer.analysis = nil
	f.analyzer.err = context.Canceled
	cancel()

	result := f.processor.Process(ctx, Request{FilePath: writeUpload(t), UploadedBy: "u"})

	assert.False(t, result.Success)
	assert.Equal(t, domain.StatusError, f.store.onlyComplaint(t).Status)
}
