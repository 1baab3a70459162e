package refinery

// RefineryV1Complaint is the default cleaner for Indonesian complaint letters. It only
// repairs layout noise from PDF extraction and never rewrites words.
type RefineryV1Complaint struct {
	config   *RefineryConfig
	nodes    *ProcessingNodes
	pipeline []ProcessingStep
}

// DefaultConfig enables every step and keeps paragraph breaks
func DefaultConfig() RefineryConfig {
	return RefineryConfig{
		NormalizeUnicode:    true,
		StripControlChars:   true,
		JoinHyphenatedWords: true,
		RemovePageMarkers:   true,
		CollapseSpaces:      true,
		CollapseBlankLines:  true,
		MaxBlankLines:       1,
	}
}

func NewRefineryV1Complaint(customConfig map[string]interface{}) *RefineryV1Complaint {
	config := DefaultConfig()
	if customConfig != nil {
		applyCustomConfig(&config, customConfig)
	}

	nodes := NewProcessingNodes(&config)

	// control chars go first so \r\n line endings are seen as newlines by later steps
	pipeline := []ProcessingStep{
		nodes.StripControlChars,
		nodes.NormalizeUnicode,
		nodes.JoinHyphenatedWords,
		nodes.RemovePageMarkers,
		nodes.CollapseSpaces,
		nodes.CollapseBlankLines,
	}

	return &RefineryV1Complaint{
		config:   &config,
		nodes:    nodes,
		pipeline: pipeline,
	}
}

func (r *RefineryV1Complaint) Process(text string) string {
	for _, step := range r.pipeline {
		text = step(text)
	}
	return text
}

func (r *RefineryV1Complaint) GetVersion() string {
	return "v1"
}

func (r *RefineryV1Complaint) GetName() string {
	return "Complaint Text Cleanup"
}

func (r *RefineryV1Complaint) GetPipelineSteps() []string {
	return []string{
		"strip_control_chars",
		"normalize_unicode",
		"join_hyphenated_words",
		"remove_page_markers",
		"collapse_spaces",
		"collapse_blank_lines",
	}
}

func applyCustomConfig(config *RefineryConfig, custom map[string]interface{}) {
	flags := map[string]*bool{
		"normalize_unicode":     &config.NormalizeUnicode,
		"strip_control_chars":   &config.StripControlChars,
		"join_hyphenated_words": &config.JoinHyphenatedWords,
		"remove_page_markers":   &config.RemovePageMarkers,
		"collapse_spaces":       &config.CollapseSpaces,
		"collapse_blank_lines":  &config.CollapseBlankLines,
	}
	for key, dst := range flags {
		if v, ok := custom[key].(bool); ok {
			*dst = v
		}
	}
	if v, ok := custom["max_blank_lines"].(int); ok && v >= 0 {
		config.MaxBlankLines = v
	}
}
