package users

import (
	"context"

	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/analysis"
)

// Repository port (pluggable credential store; the local adapter is a
// development stub, not a security boundary)
type Repository interface {
	// Create fails with ErrIdentityExists if the email is already registered.
	Create(ctx context.Context, c *Credential) error
	// Get returns (nil, nil) when the identity is unknown.
	Get(ctx context.Context, email string) (*Credential, error)
}

// PreferenceRepository port untuk preferensi bahasa per user
type PreferenceRepository interface {
	SetLanguage(ctx context.Context, userID string, lang analysis.Language) error
	// Language returns the stored preference, or fallback when none is stored.
	Language(ctx context.Context, userID string, fallback analysis.Language) (analysis.Language, error)
}
