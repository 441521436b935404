package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
)

const invalidLoginDetail = "Incorrect username or password"

type LoginUsers interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	Update(ctx context.Context, id int64, c user.Changes) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
	NeedsRehash(digest string) bool
}

type TokenIssuer interface {
	Issue(subject string) (string, error)
}

type AuthHandler struct {
	users  LoginUsers
	hasher PasswordHasher
	tokens TokenIssuer
	cache  cache.Store
	prom   *observability.Prom
	log    *slog.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

// store may be nil. When set, a password upgrade drops the cached user payload.
func NewAuthHandler(users LoginUsers, hasher PasswordHasher, tokens TokenIssuer, store cache.Store, prom *observability.Prom, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		cache:  store,
		prom:   prom,
		log:    log,
	}
}

// LoginRequest is the OAuth2 password-flow form body.
type LoginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindForm(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.authenticate(cctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.prom.IncLogin(observability.LoginInvalidCredentials)
			RespondError(ctx, http.StatusBadRequest, invalidLoginDetail)
			return
		}

		h.prom.IncLogin(observability.LoginError)
		h.log.ErrorContext(cctx, "login lookup failed", "err", err)
		RespondInternal(ctx)
		return
	}

	h.prom.IncLogin(observability.LoginSuccess)
	h.rehashIfNeeded(cctx, u, req.Password)
	h.issue(ctx, u.Username, observability.TokenKindLogin)
}

// Refresh trades a still valid token for a fresh one. The old token stays
// valid until its own expiry.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	h.issue(ctx, u.Username, observability.TokenKindRefresh)
}

func (h *AuthHandler) issue(ctx *gin.Context, subject, kind string) {
	token, err := h.tokens.Issue(subject)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "issue token failed", "err", err)
		RespondInternal(ctx)
		return
	}

	h.prom.IncTokenIssued(kind)
	ctx.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "Bearer"})
}

// authenticate runs a password verification even for unknown users so both
// failure paths cost about the same.
func (h *AuthHandler) authenticate(ctx context.Context, username, password string) (user.User, error) {
	u, err := h.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.hasher.Verify(password, h.dummy())
			return user.User{}, auth.ErrInvalidCredentials
		}
		return user.User{}, err
	}

	if !h.hasher.Verify(password, u.PasswordHash) {
		return user.User{}, auth.ErrInvalidCredentials
	}
	return u, nil
}

func (h *AuthHandler) dummy() string {
	h.dummyOnce.Do(func() {
		d, err := h.hasher.Hash("not-a-real-password")
		if err != nil {
			h.log.Warn("could not build dummy digest", "err", err)
			return
		}
		h.dummyDigest = d
	})
	return h.dummyDigest
}

// best effort: a failed upgrade never fails the login
func (h *AuthHandler) rehashIfNeeded(ctx context.Context, u user.User, password string) {
	if !h.hasher.NeedsRehash(u.PasswordHash) {
		return
	}

	digest, err := h.hasher.Hash(password)
	if err != nil {
		h.log.WarnContext(ctx, "rehash failed", "user_id", u.ID, "err", err)
		return
	}

	_, err = h.users.Update(ctx, u.ID, user.Changes{
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: digest,
	})
	if err != nil {
		h.log.WarnContext(ctx, "store rehashed password failed", "user_id", u.ID, "err", err)
		return
	}

	// updated_at moved, so the rendered GET /users/:id body is stale
	if h.cache != nil {
		h.cache.Delete(ctx, cache.UserKey(u.ID))
	}

	h.log.InfoContext(ctx, "password digest upgraded", "user_id", u.ID)
}
