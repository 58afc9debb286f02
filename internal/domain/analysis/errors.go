package analysis

import "errors"

var (
	// ErrUnsupportedFileType: uploaded file is neither image/* nor application/pdf.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrUnsupportedLanguage: requested output language is outside {ru, uz}.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrPDFParse: document is malformed or encrypted beyond access.
	ErrPDFParse = errors.New("pdf parse error")

	// ErrExtractionService: transport/service failure against the extraction API.
	ErrExtractionService = errors.New("extraction service error")

	// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
	ErrQuotaExceeded = errors.New("ai quota exceeded")

	// ErrExtractionParse: response text is not valid JSON after fence stripping.
	ErrExtractionParse = errors.New("extraction response is not valid json")

	// ErrExtractionSchema: response missing required fields or status outside the enum.
	ErrExtractionSchema = errors.New("extraction response violates schema")

	// ErrStorage: read/write failure against persisted state.
	ErrStorage = errors.New("storage error")

	// ErrNotFound: no record with the given id in this user's history.
	ErrNotFound = errors.New("analysis record not found")
)
