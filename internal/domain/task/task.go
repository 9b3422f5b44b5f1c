package task

import (
	"errors"
	"strings"
	"time"
)

type Task struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	AuthorID    string    `json:"authorId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("task not found")

type CreateTaskRequest struct {
	Description string `json:"description" binding:"required"`
	Completed   bool   `json:"completed"`
}

// a partial update payload; nil means the field was not supplied.
type UpdateTaskRequest struct {
	Description *string `json:"description" binding:"omitempty,min=1"`
	Completed   *bool   `json:"completed"`
}

// ListFilter carries the query options for listing a user's tasks.
// Limit <= 0 means no limit.
type ListFilter struct {
	Completed *bool
	Limit     int
	Skip      int
	SortField string
	SortDesc  bool
}

var allowedUpdates = map[string]struct{}{
	"description": {},
	"completed":   {},
}

func IsAllowedUpdate(field string) bool {
	_, ok := allowedUpdates[field]
	return ok
}

// sortFields are the API field names accepted in sortBy tokens.
var sortFields = map[string]struct{}{
	"createdAt":   {},
	"updatedAt":   {},
	"description": {},
	"completed":   {},
}

var ErrInvalidSort = errors.New("invalid sort token")

// ParseSort splits a "field_asc" / "field_desc" token.
func ParseSort(token string) (field string, desc bool, err error) {
	field, dir, found := strings.Cut(token, "_")

	if !found {
		return "", false, ErrInvalidSort
	}

	if _, ok := sortFields[field]; !ok {
		return "", false, ErrInvalidSort
	}

	switch dir {
	case "asc":
		return field, false, nil
	case "desc":
		return field, true, nil
	default:
		return "", false, ErrInvalidSort
	}
}
