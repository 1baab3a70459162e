package refinery

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	hyphenBreakRe = regexp.MustCompile(`(\p{L})-\n[ \t]*(\p{Ll})`)
	spaceRunRe    = regexp.MustCompile(`[ \t\x{00A0}]+`)

	// "Halaman 2 dari 5", "Hal. 3", "Page 1 of 4" or "- 2 -". A bare number is content
	// (an article number, an amount, an age) and is kept.
	pageMarkerRe = regexp.MustCompile(`(?i)^\s*(?:(?:halaman|hal\.?|page)\s*\d+(?:\s*(?:dari|of|/)\s*\d+)?|-\s*\d+\s*-)\s*$`)
)

// ProcessingNodes contains reusable text processing methods. Each method is a no-op
// when its flag is off.
type ProcessingNodes struct {
	config *RefineryConfig
}

func NewProcessingNodes(config *RefineryConfig) *ProcessingNodes {
	return &ProcessingNodes{config: config}
}

// NormalizeUnicode composes characters to NFC so OCR and text-layer output compare equal
func (p *ProcessingNodes) NormalizeUnicode(text string) string {
	if !p.config.NormalizeUnicode {
		return text
	}
	return norm.NFC.String(text)
}

// StripControlChars drops non-printing runes but keeps newlines and tabs
func (p *ProcessingNodes) StripControlChars(text string) string {
	if !p.config.StripControlChars {
		return text
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r' || r == '\f' || r == '\v':
			return '\n'
		case r == '\uFEFF' || r == '\u200B':
			return -1
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, text)
}

// JoinHyphenatedWords rejoins words split across lines: "pengadu-\nan" becomes "pengaduan"
func (p *ProcessingNodes) JoinHyphenatedWords(text string) string {
	if !p.config.JoinHyphenatedWords {
		return text
	}
	return hyphenBreakRe.ReplaceAllString(text, "$1$2")
}

// RemovePageMarkers drops lines that only carry page numbering
func (p *ProcessingNodes) RemovePageMarkers(text string) string {
	if !p.config.RemovePageMarkers {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if pageMarkerRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// CollapseSpaces squeezes horizontal whitespace runs and trims each line
func (p *ProcessingNodes) CollapseSpaces(text string) string {
	if !p.config.CollapseSpaces {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRunRe.ReplaceAllString(line, " "))
	}
	return strings.Join(lines, "\n")
}

// CollapseBlankLines limits consecutive empty lines to MaxBlankLines
func (p *ProcessingNodes) CollapseBlankLines(text string) string {
	if !p.config.CollapseBlankLines {
		return text
	}

	var out []string
	blank := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			blank++
			if blank > p.config.MaxBlankLines {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
