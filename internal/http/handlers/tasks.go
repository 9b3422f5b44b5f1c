package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bscott89/taskhub/internal/config"
	"github.com/bscott89/taskhub/internal/domain/task"
	"github.com/bscott89/taskhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type TasksStore interface {
	Create(ctx context.Context, authorID string, req task.CreateTaskRequest) (task.Task, error)
	GetByID(ctx context.Context, authorID, id string) (task.Task, error)
	List(ctx context.Context, authorID string, filter task.ListFilter) ([]task.Task, error)
	Update(ctx context.Context, authorID, id string, req task.UpdateTaskRequest) (task.Task, error)
	Delete(ctx context.Context, authorID, id string) (task.Task, error)
}

type TasksHandler struct {
	repo TasksStore
}

func NewTasksHandler(repo TasksStore) *TasksHandler {
	return &TasksHandler{repo: repo}
}

func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	principal, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx)
		return
	}

	var req task.CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	// owner always comes from the principal, never the payload
	created, err := h.repo.Create(cctx, principal.ID, req)

	if err != nil {
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// ListTasks supports ?completed=true|false, ?limit, ?skip and
// ?sortBy=field_asc|field_desc.
func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	principal, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx)
		return
	}

	filter, ok := parseListFilter(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	tasks, err := h.repo.List(cctx, principal.ID, filter)

	if err != nil {
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": tasks,
		"count": len(tasks),
	})
}

func (h *TasksHandler) GetTaskById(ctx *gin.Context) {
	principal, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	t, err := h.repo.GetByID(cctx, principal.ID, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx)
			return
		}
		RespondInternal(ctx)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, t)
}

func (h *TasksHandler) UpdateTask(ctx *gin.Context) {
	principal, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx)
		return
	}

	keys, ok := PatchKeys(ctx)

	if !ok {
		return
	}

	if !RejectDisallowed(ctx, keys, task.IsAllowedUpdate) {
		return
	}

	var req task.UpdateTaskRequest

	if !BindJSONBody(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	updated, err := h.repo.Update(cctx, principal.ID, ctx.Param("id"), req)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx)
			return
		}
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	principal, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	deleted, err := h.repo.Delete(cctx, principal.ID, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx)
			return
		}
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, deleted)
}

func parseListFilter(ctx *gin.Context) (task.ListFilter, bool) {
	var filter task.ListFilter

	if v, found := ctx.GetQuery("completed"); found {
		completed, err := strconv.ParseBool(v)

		if err != nil {
			RespondBadRequest(ctx, "completed must be true or false", nil)
			return task.ListFilter{}, false
		}

		filter.Completed = &completed
	}

	if v, found := ctx.GetQuery("limit"); found {
		limit, err := strconv.Atoi(v)

		if err != nil || limit < 0 {
			RespondBadRequest(ctx, "limit must be a non-negative integer", nil)
			return task.ListFilter{}, false
		}

		filter.Limit = limit
	}

	if v, found := ctx.GetQuery("skip"); found {
		skip, err := strconv.Atoi(v)

		if err != nil || skip < 0 {
			RespondBadRequest(ctx, "skip must be a non-negative integer", nil)
			return task.ListFilter{}, false
		}

		filter.Skip = skip
	}

	if v, found := ctx.GetQuery("sortBy"); found {
		field, desc, err := task.ParseSort(v)

		if err != nil {
			RespondBadRequest(ctx, "sortBy must look like createdAt_asc or createdAt_desc", nil)
			return task.ListFilter{}, false
		}

		filter.SortField = field
		filter.SortDesc = desc
	}

	return filter, true
}
