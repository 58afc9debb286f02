package localstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	domain "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/analysis"
	domusers "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/users"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func record(i int) *domain.AnalysisRecord {
	return &domain.AnalysisRecord{
		ID:        domain.RecordID(fmt.Sprintf("2025-03-01T12:00:00Z-%d", i)),
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Result:    domain.AnalysisResult{Title: fmt.Sprintf("Analysis %d", i), Biomarkers: []domain.Biomarker{}},
	}
}

func TestHistoryAppendMonotonic(t *testing.T) {
	repo := NewHistoryRepository(newTestStore(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.Append(ctx, "a@x.com", record(i)); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	list, err := repo.List(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 records, got %d", len(list))
	}
	// most recent first
	for i, rec := range list {
		want := fmt.Sprintf("Analysis %d", 2-i)
		if rec.Result.Title != want {
			t.Errorf("position %d: got %q, want %q", i, rec.Result.Title, want)
		}
	}
}

func TestHistoryUserIsolation(t *testing.T) {
	repo := NewHistoryRepository(newTestStore(t))
	ctx := context.Background()

	repo.Append(ctx, "u1@x.com", record(1))
	repo.Append(ctx, "u2@x.com", record(2))
	repo.Append(ctx, "u2@x.com", record(3))

	// switching u1 → u2 → u1 restores u1's exact history
	u1, _ := repo.List(ctx, "u1@x.com")
	u2, _ := repo.List(ctx, "u2@x.com")
	u1Again, _ := repo.List(ctx, "u1@x.com")

	if len(u1) != 1 || len(u2) != 2 || len(u1Again) != 1 {
		t.Fatalf("histories leaked between users: %d/%d/%d", len(u1), len(u2), len(u1Again))
	}
	if u1Again[0].ID != u1[0].ID {
		t.Error("u1 history mutated by u2's session")
	}
}

func TestHistoryGet(t *testing.T) {
	repo := NewHistoryRepository(newTestStore(t))
	ctx := context.Background()

	rec := record(7)
	repo.Append(ctx, "a@x.com", rec)

	got, err := repo.Get(ctx, "a@x.com", rec.ID)
	if err != nil || got.ID != rec.ID {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := repo.Get(ctx, "a@x.com", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	// another user's namespace never sees the record
	if _, err := repo.Get(ctx, "b@x.com", rec.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("record leaked across namespaces: %v", err)
	}
}

func TestCorruptHistoryDegradesToEmpty(t *testing.T) {
	store := newTestStore(t)
	repo := NewHistoryRepository(store)
	ctx := context.Background()

	path := filepath.Join(store.dir, sanitizeKey(historyKey("a@x.com"))+".json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	list, err := repo.List(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("corrupt blob should degrade, not error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty history, got %d", len(list))
	}

	// appending after corruption starts a fresh list
	if err := repo.Append(ctx, "a@x.com", record(1)); err != nil {
		t.Fatalf("Append after corruption failed: %v", err)
	}
	list, _ = repo.List(ctx, "a@x.com")
	if len(list) != 1 {
		t.Errorf("expected fresh list of 1, got %d", len(list))
	}
}

func TestCredentialRepository(t *testing.T) {
	repo := NewCredentialRepository(newTestStore(t))
	ctx := context.Background()

	cred := &domusers.Credential{Email: "a@x.com", Name: "Alice", PasswordHash: "hash"}
	if err := repo.Create(ctx, cred); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, cred); !errors.Is(err, domusers.ErrIdentityExists) {
		t.Fatalf("expected ErrIdentityExists, got %v", err)
	}

	got, err := repo.Get(ctx, "a@x.com")
	if err != nil || got == nil || got.Name != "Alice" {
		t.Fatalf("Get failed: %+v err=%v", got, err)
	}
	if got, _ := repo.Get(ctx, "nobody@x.com"); got != nil {
		t.Error("expected nil for unknown identity")
	}
}

func TestPreferenceRepository(t *testing.T) {
	repo := NewPreferenceRepository(newTestStore(t))
	ctx := context.Background()

	lang, err := repo.Language(ctx, "a@x.com", domain.LanguageRussian)
	if err != nil || lang != domain.LanguageRussian {
		t.Fatalf("expected fallback ru, got %q err=%v", lang, err)
	}

	if err := repo.SetLanguage(ctx, "a@x.com", domain.LanguageUzbek); err != nil {
		t.Fatal(err)
	}
	if lang, _ := repo.Language(ctx, "a@x.com", domain.LanguageRussian); lang != domain.LanguageUzbek {
		t.Errorf("expected uz, got %q", lang)
	}
}
