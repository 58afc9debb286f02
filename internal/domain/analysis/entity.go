package analysis

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// ID tipe untuk AnalysisRecord
type RecordID string

// Language enum (closed set supported by the extraction prompt)
type Language string

const (
	LanguageRussian Language = "ru"
	LanguageUzbek   Language = "uz"
)

func (l Language) Valid() bool {
	return l == LanguageRussian || l == LanguageUzbek
}

// Status enum untuk Biomarker
type Status string

const (
	StatusNormal      Status = "Normal"
	StatusHigh        Status = "High"
	StatusLow         Status = "Low"
	StatusAbnormal    Status = "Abnormal"
	StatusDetected    Status = "Detected"
	StatusNotDetected Status = "Not Detected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNormal, StatusHigh, StatusLow, StatusAbnormal, StatusDetected, StatusNotDetected:
		return true
	}
	return false
}

// PageImage value object: one rasterized page, self-describing data URI payload.
// Immutable once created.
type PageImage struct {
	Name     string `json:"name"`
	DataURL  string `json:"dataUrl"`
	MIMEType string `json:"mimeType"`
}

// NewPageImage wraps raw image bytes as a data URI page.
func NewPageImage(name, mimeType string, data []byte) PageImage {
	return PageImage{
		Name:     name,
		MIMEType: mimeType,
		DataURL:  "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
}

// Base64Data returns the payload portion of the data URI.
func (p PageImage) Base64Data() string {
	if i := strings.IndexByte(p.DataURL, ','); i >= 0 {
		return p.DataURL[i+1:]
	}
	return p.DataURL
}

// Bytes decodes the page payload back to raw image bytes.
func (p PageImage) Bytes() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(p.Base64Data())
	if err != nil {
		return nil, fmt.Errorf("page %q: decode data url: %w", p.Name, err)
	}
	return b, nil
}

// Biomarker: one extracted lab measurement. Value stays a string to preserve
// the report's original formatting and locale decimals.
type Biomarker struct {
	Name           string `json:"name"`
	Value          string `json:"value"`
	Unit           string `json:"unit"`
	Status         Status `json:"status"`
	NormalRange    string `json:"normalRange"`
	Description    string `json:"description"`
	PossibleCauses string `json:"possibleCauses"`
}

// AnalysisResult hasil satu kali extraction call. Biomarker order mengikuti
// urutan dari service (signifikan untuk display).
type AnalysisResult struct {
	Title      string      `json:"title"`
	Biomarkers []Biomarker `json:"biomarkers"`
}

// Aggregate Root: AnalysisRecord (satu entry history per user)
type AnalysisRecord struct {
	ID          RecordID       `json:"id"`
	UserID      string         `json:"user_id"`
	CreatedAt   time.Time      `json:"created_at"`
	Language    Language       `json:"language"`
	Result      AnalysisResult `json:"result"`
	SourceFile  PageImage      `json:"source_file"`
	ArtifactURL string         `json:"artifact_url,omitempty"`
}
