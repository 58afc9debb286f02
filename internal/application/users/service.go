package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/application"
	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/analysis"
	domain "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/users"
)

const minPasswordLen = 6

// TokenIssuer signs a session token for an authenticated user.
type TokenIssuer interface {
	Issue(u *domain.User) (string, error)
}

// Service implements use-cases untuk simulated auth + preferensi user.
// Catatan: credential store lokal adalah development stub, bukan security
// boundary; provider identitas beneran tinggal mengganti Repository.
type Service struct {
	Creds  domain.Repository
	Prefs  domain.PreferenceRepository
	Tokens TokenIssuer
	Clock  application.Clock
}

// Register membuat user baru dan langsung sign in (balik token).
func (s *Service) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, "", domain.ErrMissingFields
	}
	if len(password) < minPasswordLen {
		return nil, "", domain.ErrWeakSecret
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	cred := &domain.Credential{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    s.Clock.Now(),
	}
	if err := s.Creds.Create(ctx, cred); err != nil {
		return nil, "", err
	}

	return s.signIn(cred)
}

// Login memverifikasi credential; identity tak dikenal dan password salah
// dibalas error yang sama.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	cred, err := s.Creds.Get(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", err
	}
	if cred == nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	return s.signIn(cred)
}

func (s *Service) signIn(cred *domain.Credential) (*domain.User, string, error) {
	u := cred.PublicUser()
	token, err := s.Tokens.Issue(u)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return u, token, nil
}

// SetLanguage simpan preferensi bahasa analysis untuk user.
func (s *Service) SetLanguage(ctx context.Context, userID string, lang analysis.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("%w: %q", analysis.ErrUnsupportedLanguage, lang)
	}
	return s.Prefs.SetLanguage(ctx, userID, lang)
}

// Language balik preferensi tersimpan, default Russian.
func (s *Service) Language(ctx context.Context, userID string) (analysis.Language, error) {
	return s.Prefs.Language(ctx, userID, analysis.LanguageRussian)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
