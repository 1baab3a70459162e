// Package format holds small presentation helpers shared by the CLI, the HTTP layer and
// the spreadsheet export.
package format

import (
	"math"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}_\s.-]`)

	rupiahPrinter = message.NewPrinter(language.Indonesian)

	dateLayouts = []string{
		"2006-01-02",
		"2-1-2006",
		"2/1/2006",
		"2 January 2006",
		"2 Jan 2006",
	}

	indonesianMonths = strings.NewReplacer(
		"Januari", "January",
		"Februari", "February",
		"Maret", "March",
		"Mei", "May",
		"Juni", "June",
		"Juli", "July",
		"Agustus", "August",
		"Oktober", "October",
		"Desember", "December",
		"Agu", "Aug",
		"Okt", "Oct",
		"Des", "Dec",
	)
)

// SanitizeFilename drops characters outside letters, digits, underscore, whitespace, dot
// and dash, then replaces spaces with underscores.
func SanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.ReplaceAll(name, " ", "_")
}

// FormatRupiah renders an amount as "Rp 1.500.000".
func FormatRupiah(amount float64) string {
	return rupiahPrinter.Sprintf("Rp %d", int64(math.Round(amount)))
}

// ParseDate normalizes a handful of day-first layouts (English or Indonesian month
// names) to YYYY-MM-DD. ok is false when no layout matches.
func ParseDate(s string) (string, bool) {
	s = indonesianMonths.Replace(strings.TrimSpace(s))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// Truncate shortens text to maxLen runes, ending with "..." when cut.
func Truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
