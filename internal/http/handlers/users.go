package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

const userNotFoundDetail = "User not found"

type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	List(ctx context.Context, f user.ListFilter) ([]user.User, error)
	Update(ctx context.Context, id int64, c user.Changes) (user.User, error)
	Delete(ctx context.Context, id int64) error
}

type UsersHandler struct {
	users  UserStore
	hasher PasswordHasher
	cache  cache.Store
	log    *slog.Logger
}

func NewUsersHandler(users UserStore, hasher PasswordHasher, store cache.Store, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{users: users, hasher: hasher, cache: store, log: log}
}

func (h *UsersHandler) List(ctx *gin.Context) {
	var f user.ListFilter

	if !BindQuery(ctx, &f) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	users, err := h.users.List(cctx, f)
	if err != nil {
		h.internal(ctx, "list users failed", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *UsersHandler) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	key := cache.UserKey(id)

	if h.cache != nil {
		if body, hit := h.cache.Get(cctx, key); hit {
			RespondBytesWithETag(ctx, http.StatusOK, body)
			return
		}
	}

	u, err := h.users.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, userNotFoundDetail)
			return
		}
		h.internal(ctx, "get user failed", err)
		return
	}

	body, err := json.Marshal(u)
	if err != nil {
		h.internal(ctx, "encode user failed", err)
		return
	}

	if h.cache != nil {
		h.cache.Set(cctx, key, body)
	}

	RespondBytesWithETag(ctx, http.StatusOK, body)
}

func (h *UsersHandler) Create(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	digest, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.internal(ctx, "hash password failed", err)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, req.Username, req.Email, digest)
	if err != nil {
		if h.conflict(ctx, err) {
			return
		}
		h.internal(ctx, "create user failed", err)
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

// Update replaces username, email and password of the caller's own account.
// RequireSelf has already rejected foreign ids.
func (h *UsersHandler) Update(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	digest, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.internal(ctx, "hash password failed", err)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.Update(cctx, id, user.Changes{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: digest,
	})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, userNotFoundDetail)
			return
		}
		if h.conflict(ctx, err) {
			return
		}
		h.internal(ctx, "update user failed", err)
		return
	}

	h.invalidate(cctx, id)
	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.users.Delete(cctx, id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, userNotFoundDetail)
			return
		}
		h.internal(ctx, "delete user failed", err)
		return
	}

	h.invalidate(cctx, id)
	ctx.Status(http.StatusNoContent)
}

func (h *UsersHandler) conflict(ctx *gin.Context, err error) bool {
	switch {
	case errors.Is(err, user.ErrUsernameTaken):
		RespondConflict(ctx, "Username already exists")
	case errors.Is(err, user.ErrEmailTaken):
		RespondConflict(ctx, "Email already exists")
	default:
		return false
	}
	return true
}

func (h *UsersHandler) invalidate(ctx context.Context, id int64) {
	if h.cache != nil {
		h.cache.Delete(ctx, cache.UserKey(id))
	}
}

func (h *UsersHandler) internal(ctx *gin.Context, msg string, err error) {
	h.log.ErrorContext(ctx.Request.Context(), msg, "err", err)
	RespondInternal(ctx)
}
