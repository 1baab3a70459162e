package refinery

import (
	"fmt"
)

// Pipeline wraps a registered refinery
type Pipeline struct {
	refinery BaseRefinery
	version  string
}

// NewPipeline creates a pipeline from a version (e.g., "v1") or alias (e.g., "complaint")
func NewPipeline(refineryType string, customConfig map[string]interface{}) (*Pipeline, error) {
	refinery, err := Create(refineryType, customConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create refinery: %w", err)
	}

	return &Pipeline{
		refinery: refinery,
		version:  refinery.GetVersion(),
	}, nil
}

// CleanText processes a single document
func (p *Pipeline) CleanText(text string) string {
	return p.refinery.Process(text)
}

func (p *Pipeline) GetVersion() string {
	return p.version
}

func (p *Pipeline) GetName() string {
	return p.refinery.GetName()
}

func (p *Pipeline) GetPipelineSteps() []string {
	return p.refinery.GetPipelineSteps()
}
