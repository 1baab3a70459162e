package refinery

// BaseRefinery is a text cleaning strategy applied to extracted complaint text
// before it is stored and sent for analysis.
type BaseRefinery interface {
	// Process cleans a single document
	Process(text string) string

	// GetVersion returns the version identifier (e.g., "v1")
	GetVersion() string

	GetName() string

	// GetPipelineSteps returns the names of the processing steps in order
	GetPipelineSteps() []string
}

// ProcessingStep represents a single text transformation function
type ProcessingStep func(string) string

// RefineryConfig toggles the individual processing steps
type RefineryConfig struct {
	NormalizeUnicode    bool `json:"normalize_unicode"`
	StripControlChars   bool `json:"strip_control_chars"`
	JoinHyphenatedWords bool `json:"join_hyphenated_words"`
	RemovePageMarkers   bool `json:"remove_page_markers"`
	CollapseSpaces      bool `json:"collapse_spaces"`
	CollapseBlankLines  bool `json:"collapse_blank_lines"`

	// MaxBlankLines is how many consecutive empty lines survive collapsing
	MaxBlankLines int `json:"max_blank_lines"`
}
