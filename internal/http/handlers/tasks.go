package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hongminglow/task-tracker/internal/auth"
	"github.com/hongminglow/task-tracker/internal/http/respond"
	"github.com/hongminglow/task-tracker/internal/models"
	"github.com/hongminglow/task-tracker/internal/models/dto"
	"github.com/hongminglow/task-tracker/internal/storage"
)

const (
	defaultPageSize = 5
	maxPageSize     = 100
	maxPage         = 1_000_000
)

// TaskHandler serves the caller's tasks. Every route requires a principal.
type TaskHandler struct {
	store  storage.TaskStore
	guard  *auth.Guard
	logger *slog.Logger
	now    func() time.Time
}

// NewTaskHandler constructs the handler; the guard shares the task store.
func NewTaskHandler(store storage.TaskStore, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		store:  store,
		guard:  auth.NewGuard(store),
		logger: logger,
		now:    time.Now,
	}
}

// Register attaches task routes to the mux.
func (h *TaskHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tasks", h.handleList)
	mux.HandleFunc("POST /api/tasks", h.handleCreate)
	mux.HandleFunc("PUT /api/tasks/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.handleDelete)
}

func (h *TaskHandler) handleList(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	filter, fieldErrs := parseTaskFilter(r)
	if len(fieldErrs) > 0 {
		respond.Invalid(w, fieldErrs)
		return
	}

	page, err := h.store.ListTasksByOwner(r.Context(), p.UserID, filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "tasks retrieved", page)
}

func (h *TaskHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	var req dto.TaskRequest
	if !decodeAndValidate(w, r, &req, func() { normalizeTask(&req) }) {
		return
	}

	task := models.Task{OwnerID: p.UserID, CreatedAt: h.now().UTC()}
	req.Apply(&task)
	created, err := h.store.CreateTask(r.Context(), task)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.InfoContext(r.Context(), "task created", slog.Int64("task_id", created.ID), slog.Int64("user_id", p.UserID))
	respond.JSON(w, http.StatusCreated, "task created", created)
}

func (h *TaskHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	// Ownership is settled before the body is read.
	task, err := h.guard.Authorize(r.Context(), p, id)
	if err != nil {
		h.logDenied(r, p, id, "update", err)
		writeError(w, r, h.logger, err)
		return
	}

	var req dto.TaskRequest
	if !decodeAndValidate(w, r, &req, func() { normalizeTask(&req) }) {
		return
	}
	req.Apply(&task)
	updated, err := h.store.UpdateTask(r.Context(), task)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.InfoContext(r.Context(), "task updated", slog.Int64("task_id", id), slog.Int64("user_id", p.UserID))
	respond.JSON(w, http.StatusOK, "task updated", updated)
}

func (h *TaskHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if _, err := h.guard.Authorize(r.Context(), p, id); err != nil {
		h.logDenied(r, p, id, "delete", err)
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.store.DeleteTask(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.InfoContext(r.Context(), "task deleted", slog.Int64("task_id", id), slog.Int64("user_id", p.UserID))
	respond.NoContent(w)
}

func (h *TaskHandler) logDenied(r *http.Request, p *auth.Principal, id int64, action string, err error) {
	if !errors.Is(err, auth.ErrForbidden) {
		return
	}
	h.logger.WarnContext(r.Context(), "task access denied",
		slog.String("action", action),
		slog.Int64("task_id", id),
		slog.String("username", p.Username),
	)
}

// parseID converts the {id} path value, writing a 400 when it is not a positive integer.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid identifier")
		return 0, false
	}
	return id, true
}

func parseTaskFilter(r *http.Request) (models.TaskFilter, map[string]string) {
	q := r.URL.Query()
	filter := models.TaskFilter{
		Status:   strings.TrimSpace(q.Get("status")),
		Category: strings.TrimSpace(q.Get("category")),
		Size:     defaultPageSize,
	}
	errs := map[string]string{}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 || page > maxPage {
			errs["page"] = "page must be an integer between 0 and 1000000"
		} else {
			filter.Page = page
		}
	}
	if raw := q.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			errs["size"] = "size must be a positive integer"
		} else {
			filter.Size = min(size, maxPageSize)
		}
	}
	return filter, errs
}

func normalizeTask(req *dto.TaskRequest) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = optionalString(req.Description)
	req.Status = optionalString(req.Status)
	req.Category = optionalString(req.Category)
}
