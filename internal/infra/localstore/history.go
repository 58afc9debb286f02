package localstore

import (
	"context"
	"fmt"

	domain "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/analysis"
)

const historyKeyPrefix = "analysisHistory_"

// HistoryRepository keeps each user's history as one JSON blob, namespaced by
// user id. Switching users switches blobs; nothing is shared between keys.
type HistoryRepository struct {
	store *Store
}

func NewHistoryRepository(store *Store) *HistoryRepository {
	return &HistoryRepository{store: store}
}

func historyKey(userID string) string {
	return historyKeyPrefix + userID
}

// Append puts the record at the front (most-recent-first) and rewrites the
// user's full list atomically.
func (r *HistoryRepository) Append(ctx context.Context, userID string, rec *domain.AnalysisRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var list []*domain.AnalysisRecord
	if _, err := r.store.readJSON(historyKey(userID), &list); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	list = append([]*domain.AnalysisRecord{rec}, list...)
	if err := r.store.writeJSON(historyKey(userID), list); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

// List returns the user's records most-recent-first; an unknown user or a
// corrupt blob degrades to an empty history.
func (r *HistoryRepository) List(ctx context.Context, userID string) ([]*domain.AnalysisRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var list []*domain.AnalysisRecord
	if _, err := r.store.readJSON(historyKey(userID), &list); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if list == nil {
		list = []*domain.AnalysisRecord{}
	}
	return list, nil
}

func (r *HistoryRepository) Get(ctx context.Context, userID string, id domain.RecordID) (*domain.AnalysisRecord, error) {
	list, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, rec := range list {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, domain.ErrNotFound
}
