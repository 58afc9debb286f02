package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawBiomarker mirrors Biomarker with pointer fields so an absent key can be
// told apart from an empty string. Every field is required by the contract
// the extraction service is instructed to follow.
type rawBiomarker struct {
	Name           *string `json:"name"`
	Value          *string `json:"value"`
	Unit           *string `json:"unit"`
	Status         *Status `json:"status"`
	NormalRange    *string `json:"normalRange"`
	Description    *string `json:"description"`
	PossibleCauses *string `json:"possibleCauses"`
}

func (rb rawBiomarker) missingField() string {
	switch {
	case rb.Name == nil:
		return "name"
	case rb.Value == nil:
		return "value"
	case rb.Unit == nil:
		return "unit"
	case rb.Status == nil:
		return "status"
	case rb.NormalRange == nil:
		return "normalRange"
	case rb.Description == nil:
		return "description"
	case rb.PossibleCauses == nil:
		return "possibleCauses"
	}
	return ""
}

// ParseResult parses the raw text returned by the extraction service into an
// AnalysisResult. The service is expected to answer with plain JSON, but some
// models wrap the payload in markdown code fences; those are stripped first.
// All seven biomarker fields must be present; unknown status values are
// rejected, never coerced.
func ParseResult(raw string) (*AnalysisResult, error) {
	cleaned := StripFences(raw)

	var parsed struct {
		Title      string         `json:"title"`
		Biomarkers []rawBiomarker `json:"biomarkers"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionParse, err)
	}

	if strings.TrimSpace(parsed.Title) == "" {
		return nil, fmt.Errorf("%w: missing title", ErrExtractionSchema)
	}
	if parsed.Biomarkers == nil {
		return nil, fmt.Errorf("%w: missing biomarkers", ErrExtractionSchema)
	}

	res := AnalysisResult{
		Title:      parsed.Title,
		Biomarkers: make([]Biomarker, 0, len(parsed.Biomarkers)),
	}
	for i, rb := range parsed.Biomarkers {
		if f := rb.missingField(); f != "" {
			return nil, fmt.Errorf("%w: biomarker %d missing %s", ErrExtractionSchema, i, f)
		}
		if strings.TrimSpace(*rb.Name) == "" {
			return nil, fmt.Errorf("%w: biomarker %d has no name", ErrExtractionSchema, i)
		}
		if strings.TrimSpace(*rb.Value) == "" {
			return nil, fmt.Errorf("%w: biomarker %q has no value", ErrExtractionSchema, *rb.Name)
		}
		if !rb.Status.Valid() {
			return nil, fmt.Errorf("%w: biomarker %q has status %q", ErrExtractionSchema, *rb.Name, *rb.Status)
		}
		res.Biomarkers = append(res.Biomarkers, Biomarker{
			Name:           *rb.Name,
			Value:          *rb.Value,
			Unit:           *rb.Unit,
			Status:         *rb.Status,
			NormalRange:    *rb.NormalRange,
			Description:    *rb.Description,
			PossibleCauses: *rb.PossibleCauses,
		})
	}
	return &res, nil
}

// StripFences removes leading/trailing markdown code fence markers.
// A no-op on text without fences.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// opening fence may carry a language tag
		s = strings.TrimPrefix(strings.TrimLeft(s, " \t"), "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
