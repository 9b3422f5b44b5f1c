package user

import (
	"errors"
	"strings"
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Age          int       `json:"age"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Avatar       []byte    `json:"-"` // served raw via the avatar endpoint only
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Age      int    `json:"age" binding:"omitempty,min=0"`
	Password string `json:"password" binding:"required"`
}

// a partial update payload; nil means the field was not supplied.
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Age      *int    `json:"age" binding:"omitempty,min=0"`
	Password *string `json:"password"`
}

// CreateParams is what the repository needs to persist a new user.
// The raw password never reaches the repository.
type CreateParams struct {
	Name         string
	Email        string
	Age          int
	PasswordHash string
}

type UpdateParams struct {
	Name         *string
	Email        *string
	Age          *int
	PasswordHash *string
}

// allowedUpdates is the full set of client-writable fields.
var allowedUpdates = map[string]struct{}{
	"name":     {},
	"email":    {},
	"age":      {},
	"password": {},
}

func IsAllowedUpdate(field string) bool {
	_, ok := allowedUpdates[field]
	return ok
}

const MinPasswordLength = 7

// ValidatePassword enforces the raw-password rules that cannot be
// expressed as binding tags.
func ValidatePassword(raw string) error {
	raw = strings.TrimSpace(raw)

	if len(raw) < MinPasswordLength {
		return errors.New("password must be at least 7 characters")
	}

	if strings.Contains(strings.ToLower(raw), "password") {
		return errors.New(`password cannot contain "password"`)
	}

	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}
