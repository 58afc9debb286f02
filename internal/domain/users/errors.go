package users

import "errors"

var (
	ErrWeakSecret         = errors.New("password must be at least 6 characters")
	ErrMissingFields      = errors.New("name, email and password are required")
	ErrIdentityExists     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
