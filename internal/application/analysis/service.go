package analysis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/application"
	domain "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/analysis"
)

// extractionTimeout is the hard upper bound on the single network round-trip
// of the pipeline. Beyond it the call counts as a service error.
const extractionTimeout = 60 * time.Second

// Service implements use-cases untuk analysis pipeline:
// ingest file → rasterize (PDF) → extract → persist history record.
// Service is designed to be used concurrently and is thread-safe.
type Service struct {
	Repo       domain.Repository
	Rasterizer domain.Rasterizer
	Extractor  domain.Extractor
	Artifacts  domain.ArtifactStore // optional; nil keeps the source inline only
	Clock      application.Clock

	ids recordIDGen
}

// Command untuk satu analysis run
type AnalyzeCommand struct {
	UserID   string
	FileName string
	MIMEType string
	Data     []byte
	Language domain.Language
}

// Analyze runs the whole pipeline and appends the resulting record to the
// user's history. A ctx cancelled before the persist step discards the
// result; an abandoned flow never mutates history after the fact.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (*domain.AnalysisRecord, error) {
	lang := cmd.Language
	if !lang.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, lang)
	}

	pages, err := s.Ingest(ctx, cmd.FileName, cmd.MIMEType, cmd.Data)
	if err != nil {
		return nil, err
	}

	exCtx, cancel := context.WithTimeout(ctx, extractionTimeout)
	defer cancel()
	result, err := s.Extractor.Extract(exCtx, pages, lang)
	if err != nil {
		if exCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: timed out after %s", domain.ErrExtractionService, extractionTimeout)
		}
		return nil, err
	}

	// flow abandoned mid-extraction: drop the result, never touch history
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	rec := &domain.AnalysisRecord{
		ID:         s.ids.next(now),
		UserID:     cmd.UserID,
		CreatedAt:  now,
		Language:   lang,
		Result:     *result,
		SourceFile: pages[0], // first page stands in for the whole upload
	}

	if s.Artifacts != nil {
		if url, err := s.uploadSource(ctx, cmd.UserID, pages[0]); err == nil {
			rec.ArtifactURL = url
		}
		// artifact upload is best-effort; the record keeps the inline copy
	}

	if err := s.Repo.Append(ctx, cmd.UserID, rec); err != nil {
		// persisted copy failed; report, caller still gets the record it saw
		return rec, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return rec, nil
}

// Ingest turns an uploaded file into an ordered sequence of page images.
// Images pass through untouched; PDFs are rasterized page by page.
func (s *Service) Ingest(ctx context.Context, name, mimeType string, data []byte) ([]domain.PageImage, error) {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return []domain.PageImage{domain.NewPageImage(name, mimeType, data)}, nil
	case mimeType == "application/pdf":
		return s.Rasterizer.Render(ctx, name, data)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, mimeType)
	}
}

// History returns the user's records most-recent-first, optionally filtered
// by a case-insensitive title substring.
func (s *Service) History(ctx context.Context, userID, query string, limit int) ([]*domain.AnalysisRecord, error) {
	list, err := s.Repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		filtered := list[:0:0]
		for _, r := range list {
			if strings.Contains(strings.ToLower(r.Result.Title), q) {
				filtered = append(filtered, r)
			}
		}
		list = filtered
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Get ambil 1 record by id
func (s *Service) Get(ctx context.Context, userID string, id domain.RecordID) (*domain.AnalysisRecord, error) {
	return s.Repo.Get(ctx, userID, id)
}

func (s *Service) uploadSource(ctx context.Context, userID string, page domain.PageImage) (string, error) {
	raw, err := page.Bytes()
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s%s", userID, uuid.New().String(), extFor(page.MIMEType))
	return s.Artifacts.Upload(ctx, key, page.MIMEType, raw)
}

func extFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}

// recordIDGen derives ids from the creation time. Two records created within
// the same timestamp resolution still get distinct ids via a counter suffix.
type recordIDGen struct {
	mu   sync.Mutex
	last string
	seq  int
}

func (g *recordIDGen) next(now time.Time) domain.RecordID {
	base := now.UTC().Format(time.RFC3339Nano)
	g.mu.Lock()
	defer g.mu.Unlock()
	if base == g.last {
		g.seq++
		return domain.RecordID(fmt.Sprintf("%s-%d", base, g.seq))
	}
	g.last = base
	g.seq = 0
	return domain.RecordID(base)
}
