package users

import "time"

// User adalah identitas publik; id = email (unik).
// Tidak pernah membawa secret.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Credential disimpan terpisah dari User; hash tidak pernah keluar lewat API.
type Credential struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser derives the exported identity from a stored credential.
func (c *Credential) PublicUser() *User {
	return &User{ID: c.Email, Name: c.Name, Email: c.Email}
}
