package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type TaskStore interface {
	Create(ctx context.Context, userID int64, req task.CreateTaskRequest) (task.Task, error)
	GetByID(ctx context.Context, id int64) (task.Task, error)
	List(ctx context.Context, f task.ListFilter) ([]task.Task, error)
	Update(ctx context.Context, t task.Task) (task.Task, error)
	Delete(ctx context.Context, id int64) error
}

type TasksHandler struct {
	tasks TaskStore
	log   *slog.Logger
}

func NewTasksHandler(tasks TaskStore, log *slog.Logger) *TasksHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TasksHandler{tasks: tasks, log: log}
}

func (h *TasksHandler) List(ctx *gin.Context) {
	principal, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	var f task.ListFilter

	if !BindQuery(ctx, &f) {
		return
	}
	// listing is always scoped to the caller
	f.UserID = principal

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	tasks, err := h.tasks.List(cctx, f)
	if err != nil {
		h.internal(ctx, "list tasks failed", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TasksHandler) Create(ctx *gin.Context) {
	principal, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	var req task.CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.tasks.Create(cctx, principal, req)
	if err != nil {
		h.internal(ctx, "create task failed", err)
		return
	}

	ctx.JSON(http.StatusCreated, t)
}

func (h *TasksHandler) Get(ctx *gin.Context) {
	t, ok := h.loadOwned(ctx)
	if !ok {
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, t)
}

func (h *TasksHandler) Patch(ctx *gin.Context) {
	t, ok := h.loadOwned(ctx)
	if !ok {
		return
	}

	var req task.UpdateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	updated, err := h.tasks.Update(cctx, req.Apply(t))
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}
		h.internal(ctx, "update task failed", err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *TasksHandler) Delete(ctx *gin.Context) {
	t, ok := h.loadOwned(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.tasks.Delete(cctx, t.ID); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}
		h.internal(ctx, "delete task failed", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// loadOwned fetches the task named in the path and checks the caller owns it.
// A missing task is a 404 even for callers who would not own it.
func (h *TasksHandler) loadOwned(ctx *gin.Context) (task.Task, bool) {
	principal, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "Could not validate credentials")
		return task.Task{}, false
	}

	id, ok := pathID(ctx, "id")
	if !ok {
		return task.Task{}, false
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	t, err := h.tasks.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return task.Task{}, false
		}
		h.internal(ctx, "get task failed", err)
		return task.Task{}, false
	}

	if err := auth.CheckOwner(principal, t.UserID); err != nil {
		RespondForbidden(ctx)
		return task.Task{}, false
	}

	return t, true
}

func (h *TasksHandler) internal(ctx *gin.Context, msg string, err error) {
	h.log.ErrorContext(ctx.Request.Context(), msg, "err", err)
	RespondInternal(ctx)
}
