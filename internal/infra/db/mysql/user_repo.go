package mysql

import (
	"context"
	"database/sql"
	"errors"

	driver "github.com/go-sql-driver/mysql"

	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/analysis"
	domain "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/users"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, c *domain.Credential) error {
	const q = `INSERT INTO users (email, name, password_hash, created_at) VALUES (?,?,?,?);`
	_, err := r.db.ExecContext(ctx, q, c.Email, c.Name, c.PasswordHash, c.CreatedAt)
	var myErr *driver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 { // duplicate key
		return domain.ErrIdentityExists
	}
	return err
}

func (r *UserRepository) Get(ctx context.Context, email string) (*domain.Credential, error) {
	const q = `SELECT email, name, password_hash, created_at FROM users WHERE email=? LIMIT 1;`
	var c domain.Credential
	err := r.db.QueryRowContext(ctx, q, email).Scan(&c.Email, &c.Name, &c.PasswordHash, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *UserRepository) SetLanguage(ctx context.Context, userID string, lang analysis.Language) error {
	const q = `
INSERT INTO user_preferences (user_id, language) VALUES (?,?)
ON DUPLICATE KEY UPDATE language=VALUES(language);
`
	_, err := r.db.ExecContext(ctx, q, userID, lang)
	return err
}

func (r *UserRepository) Language(ctx context.Context, userID string, fallback analysis.Language) (analysis.Language, error) {
	const q = `SELECT language FROM user_preferences WHERE user_id=? LIMIT 1;`
	var lang analysis.Language
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&lang)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	if !lang.Valid() {
		return fallback, nil
	}
	return lang, nil
}
