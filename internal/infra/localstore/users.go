package localstore

import (
	"context"
	"fmt"

	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/analysis"
	domain "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/users"
)

const (
	usersKey = "app_users_db"
	prefsKey = "analysisLanguage"
)

// CredentialRepository stores the whole credential table as one JSON blob,
// keyed by email. Simulated auth only; see the users domain notes.
type CredentialRepository struct {
	store *Store
}

func NewCredentialRepository(store *Store) *CredentialRepository {
	return &CredentialRepository{store: store}
}

func (r *CredentialRepository) Create(ctx context.Context, c *domain.Credential) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	table := map[string]*domain.Credential{}
	if _, err := r.store.readJSON(usersKey, &table); err != nil {
		return fmt.Errorf("read credential table: %w", err)
	}
	if _, exists := table[c.Email]; exists {
		return domain.ErrIdentityExists
	}
	table[c.Email] = c
	return r.store.writeJSON(usersKey, table)
}

func (r *CredentialRepository) Get(ctx context.Context, email string) (*domain.Credential, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	table := map[string]*domain.Credential{}
	if _, err := r.store.readJSON(usersKey, &table); err != nil {
		return nil, fmt.Errorf("read credential table: %w", err)
	}
	return table[email], nil
}

// PreferenceRepository keeps the per-user language choice, one blob for all
// users.
type PreferenceRepository struct {
	store *Store
}

func NewPreferenceRepository(store *Store) *PreferenceRepository {
	return &PreferenceRepository{store: store}
}

func (r *PreferenceRepository) SetLanguage(ctx context.Context, userID string, lang analysis.Language) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	prefs := map[string]analysis.Language{}
	if _, err := r.store.readJSON(prefsKey, &prefs); err != nil {
		return err
	}
	prefs[userID] = lang
	return r.store.writeJSON(prefsKey, prefs)
}

func (r *PreferenceRepository) Language(ctx context.Context, userID string, fallback analysis.Language) (analysis.Language, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	prefs := map[string]analysis.Language{}
	if _, err := r.store.readJSON(prefsKey, &prefs); err != nil {
		return fallback, err
	}
	if lang, ok := prefs[userID]; ok && lang.Valid() {
		return lang, nil
	}
	return fallback, nil
}
