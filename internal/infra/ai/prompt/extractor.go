package prompt

import (
	"fmt"

	domain "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/analysis"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a specialized AI assistant for interpreting medical lab reports. Extract all biomarkers from the provided document image(s), analyze them, and return the data as one valid JSON object only (no markdown, no commentary, no code fences) following the schema below. Populate every field accurately and concisely based on the report. The 'description' and 'possibleCauses' must be in clear, easy-to-understand language.

Requirements:
- Output must be a single JSON object.
- 'status' must be exactly one of: "Normal", "High", "Low", "Abnormal", "Detected", "Not Detected".
- 'value' keeps the report's original formatting, e.g. "0.06".
- 'normalRange' is the reference range as printed, e.g. "0.0 - 1.0 %".
- Combine biomarkers from all pages into one consolidated result.

Schema (example with empty values):
{
  "title": "<string, concise report title>",
  "biomarkers": [
    {
      "name": "<string>",
      "value": "<string>",
      "unit": "<string>",
      "status": "<Normal|High|Low|Abnormal|Detected|Not Detected>",
      "normalRange": "<string>",
      "description": "<string>",
      "possibleCauses": "<string>"
    }
  ]
}`
}

// GetUserPrompt builds the instruction that rides along with the page images.
func GetUserPrompt(lang domain.Language) string {
	instruction := "Provide the response entirely in Russian."
	if lang == domain.LanguageUzbek {
		instruction = "Provide the response entirely in Uzbek."
	}
	return fmt.Sprintf("Extract and analyze all biomarkers from these medical report images. Combine results from all pages into a single response. %s", instruction)
}
