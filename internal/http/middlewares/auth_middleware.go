package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

const credentialsDetail = "Could not validate credentials"

// Keep this small interface so tests can fake it easily.
type UserResolver interface {
	Resolve(ctx context.Context, token string) (user.User, error)
}

type AuthMiddleware struct {
	resolver UserResolver
}

func NewAuthMiddleware(resolver UserResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// RequireAuth resolves the bearer token to a user. Every failure, whether a
// missing header, a bad token or an unknown user, gets the same 401.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c)
			return
		}

		u, err := m.resolver.Resolve(c.Request.Context(), raw)
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set(CtxUser, u)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), u.ID))

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	abortDetail(c, http.StatusUnauthorized, credentialsDetail)
}

// CurrentUser returns the principal stashed by RequireAuth.
func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

func UserIDFromContext(c *gin.Context) (int64, bool) {
	u, ok := CurrentUser(c)
	if !ok || u.ID == 0 {
		return 0, false
	}
	return u.ID, true
}
