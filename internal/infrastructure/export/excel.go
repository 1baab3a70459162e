package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/domain"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/format"
)

const (
	SheetComplaints = "Pengaduan"
	SheetArticles   = "Pasal"
)

var complaintHeaders = []string{
	"No. Pengaduan", "Tanggal Upload", "Status", "File", "Jenis Kasus",
	"Pelapor", "Terlapor", "Tanggal Kejadian", "Lokasi", "Provinsi",
	"Kerugian Materil", "Tingkat Urgensi", "Kelengkapan", "Kualitas Bukti", "Ringkasan",
}

var articleHeaders = []string{
	"No. Pengaduan", "Pasal", "Sumber Hukum", "Judul", "Jenis", "Confidence", "Level",
}

// WriteComplaints renders complaints and their articles as an .xlsx workbook with one
// sheet for complaints and one for cited articles. Complaints without an analysis
// get blank analysis columns.
func WriteComplaints(w io.Writer, complaints []domain.Complaint) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetComplaints); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetArticles); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeHeader(f, SheetComplaints, complaintHeaders, headerStyle); err != nil {
		return err
	}
	if err := writeHeader(f, SheetArticles, articleHeaders, headerStyle); err != nil {
		return err
	}

	articleRow := 2
	for i, c := range complaints {
		if err := setRow(f, SheetComplaints, i+2, complaintRow(c)); err != nil {
			return err
		}
		if c.Analysis == nil {
			continue
		}
		for _, a := range c.Analysis.Articles {
			if err := setRow(f, SheetArticles, articleRow, articleRowValues(c.ComplaintNumber, a)); err != nil {
				return err
			}
			articleRow++
		}
	}

	if err := f.SetColWidth(SheetComplaints, "A", "A", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetComplaints, "O", "O", 60); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	if err := setRow(f, sheet, 1, toRow(headers)); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func complaintRow(c domain.Complaint) []interface{} {
	row := []interface{}{
		c.ComplaintNumber,
		c.UploadDate.Format("2006-01-02 15:04"),
		c.Status,
		c.PDFFilename,
	}

	a := c.Analysis
	if a == nil {
		for len(row) < len(complaintHeaders) {
			row = append(row, "")
		}
		return row
	}

	kerugian := ""
	if a.KerugianMateril != nil {
		kerugian = format.FormatRupiah(*a.KerugianMateril)
	}

	return append(row,
		str(a.JenisKasus),
		str(a.PelaporNama),
		str(a.TerlaporNama),
		str(a.KejadianTanggal),
		str(a.KejadianLokasi),
		str(a.KejadianProvinsi),
		kerugian,
		str(a.TingkatUrgensi),
		str(a.KelengkapanLaporan),
		str(a.KualitasBukti),
		strings.TrimSpace(str(a.ExecutiveSummary)),
	)
}

func articleRowValues(number string, a domain.LegalArticle) []interface{} {
	return []interface{}{
		number,
		a.PasalNumber,
		a.SumberHukum,
		str(a.JudulPasal),
		a.ArticleType,
		a.ConfidenceScore,
		a.ConfidenceLevel,
	}
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
