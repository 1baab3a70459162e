package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/domain"
)

// enumOrNull lists the allowed values plus JSON null
func enumOrNull(values []string) []any {
	out := make([]any, 0, len(values)+1)
	for _, v := range values {
		out = append(out, v)
	}
	return append(out, nil)
}

func articleSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"confidence_score": map[string]any{
				"type":    []any{"number", "null"},
				"minimum": 0,
				"maximum": 1,
			},
			"confidence_level": map[string]any{"enum": enumOrNull(domain.ConfidenceLevels())},
			// "" is the prompt template's placeholder and means "derive from position"
			"article_type": map[string]any{
				"enum": enumOrNull([]string{domain.ArticleTypeUtama, domain.ArticleTypeAlternatif, ""}),
			},
			"is_primary": map[string]any{"type": []any{"boolean", "null"}},
		},
	}
}

// responseSchema constrains the fields that end up in checked columns. Everything
// else is free-form.
func responseSchema() map[string]any {
	articles := map[string]any{
		"type":  []any{"array", "null"},
		"items": articleSchema(),
	}
	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"properties": map[string]any{
			"pasal_utama":      articles,
			"pasal_alternatif": articles,
			"summary": map[string]any{
				"type": []any{"object", "null"},
				"properties": map[string]any{
					"tingkat_urgensi": map[string]any{"enum": enumOrNull(domain.UrgencyLevels())},
				},
			},
			"quality": map[string]any{
				"type": []any{"object", "null"},
				"properties": map[string]any{
					"kelengkapan_laporan": map[string]any{"enum": enumOrNull(domain.CompletenessLevels())},
					"kualitas_bukti":      map[string]any{"enum": enumOrNull(domain.EvidenceQualityLevels())},
					"kompleksitas_kasus":  map[string]any{"enum": enumOrNull(domain.ComplexityLevels())},
				},
			},
		},
	}
}

func compileResponseSchema() (*jsonschema.Schema, error) {
	b, err := json.Marshal(responseSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("analysis.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("analysis.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
