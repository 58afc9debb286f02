package analysis

import "context"

// Repository port (interface untuk persistence history per user)
type Repository interface {
	// Append menambah record di depan history user (most-recent-first).
	Append(ctx context.Context, userID string, rec *AnalysisRecord) error
	List(ctx context.Context, userID string) ([]*AnalysisRecord, error)
	Get(ctx context.Context, userID string, id RecordID) (*AnalysisRecord, error)
}

// Rasterizer port (interface untuk render PDF jadi page images)
type Rasterizer interface {
	Render(ctx context.Context, name string, pdf []byte) ([]PageImage, error)
}

// Extractor port (interface untuk structured extraction service)
type Extractor interface {
	Extract(ctx context.Context, pages []PageImage, lang Language) (*AnalysisResult, error)
}

// ArtifactStore port (interface untuk penyimpanan representative file)
type ArtifactStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}
