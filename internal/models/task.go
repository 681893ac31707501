package models

import "time"

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      *string   `json:"status"`
	Category    *string   `json:"category"`
	OwnerID     int64     `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TaskFilter narrows an owner's task listing. Empty filters match everything.
// Status takes priority: when it is set, Category is ignored.
type TaskFilter struct {
	Status   string
	Category string
	Page     int
	Size     int
}

// Effective returns the filter stores apply, with Category cleared when Status is set.
func (f TaskFilter) Effective() TaskFilter {
	if f.Status != "" {
		f.Category = ""
	}
	return f
}

// Offset returns the number of rows skipped before the requested page.
func (f TaskFilter) Offset() int {
	return f.Page * f.Size
}

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// NewPage computes paging metadata for content taken from a result set of total rows.
func NewPage[T any](content []T, page, size int, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    pages,
	}
}
