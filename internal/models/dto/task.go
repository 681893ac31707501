package dto

import "github.com/hongminglow/task-tracker/internal/models"

// TaskRequest carries the client-editable task fields for create and update.
type TaskRequest struct {
	Title       string  `json:"title" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Status      *string `json:"status" validate:"omitempty,max=50"`
	Category    *string `json:"category" validate:"omitempty,max=50"`
}

// Apply copies the request fields onto t, replacing whatever was there.
func (r TaskRequest) Apply(t *models.Task) {
	t.Title = r.Title
	t.Description = r.Description
	t.Status = r.Status
	t.Category = r.Category
}
