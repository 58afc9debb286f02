package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/analysis"
)

type HistoryRepository struct{ db *sql.DB }

func NewHistoryRepository(db *sql.DB) *HistoryRepository { return &HistoryRepository{db: db} }

// Append insert satu AnalysisRecord (append-only)
func (r *HistoryRepository) Append(ctx context.Context, userID string, rec *domain.AnalysisRecord) error {
	const q = `
INSERT INTO analysis_records
(id, user_id, created_at, language, title, result_json,
 source_name, source_mime, source_data_url, artifact_url)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`

	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("%w: encode result: %v", domain.ErrStorage, err)
	}
	_, err = r.db.ExecContext(ctx, q,
		rec.ID, userID, rec.CreatedAt, rec.Language, rec.Result.Title, resultJSON,
		rec.SourceFile.Name, rec.SourceFile.MIMEType, rec.SourceFile.DataURL, rec.ArtifactURL,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

func (r *HistoryRepository) List(ctx context.Context, userID string) ([]*domain.AnalysisRecord, error) {
	const q = `
SELECT id, user_id, created_at, language, result_json,
       source_name, source_mime, source_data_url, artifact_url
FROM analysis_records
WHERE user_id=$1 ORDER BY created_at DESC, id DESC;`

	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	out := []*domain.AnalysisRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *HistoryRepository) Get(ctx context.Context, userID string, id domain.RecordID) (*domain.AnalysisRecord, error) {
	const q = `
SELECT id, user_id, created_at, language, result_json,
       source_name, source_mime, source_data_url, artifact_url
FROM analysis_records
WHERE user_id=$1 AND id=$2 LIMIT 1;`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rec, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.AnalysisRecord, error) {
	var rec domain.AnalysisRecord
	var resultJSON []byte
	if err := row.Scan(
		&rec.ID, &rec.UserID, &rec.CreatedAt, &rec.Language, &resultJSON,
		&rec.SourceFile.Name, &rec.SourceFile.MIMEType, &rec.SourceFile.DataURL, &rec.ArtifactURL,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resultJSON, &rec.Result); err != nil {
		return nil, fmt.Errorf("%w: decode result: %v", domain.ErrStorage, err)
	}
	return &rec, nil
}
