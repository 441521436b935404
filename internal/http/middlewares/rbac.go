package middlewares

import (
	"net/http"
	"strconv"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/gin-gonic/gin"
)

// RequireSelf lets the request through only when the path parameter names
// the authenticated user. It must run after RequireAuth and it does not look
// the target up, so a foreign id is 403 whether or not it exists.
func (m *AuthMiddleware) RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principalID, ok := UserIDFromContext(c)
		if !ok {
			unauthorized(c)
			return
		}

		targetID, err := strconv.ParseInt(c.Param(param), 10, 64)
		if err != nil {
			abortDetail(c, http.StatusBadRequest, "Invalid id")
			return
		}

		if auth.CheckOwner(principalID, targetID) != nil {
			abortDetail(c, http.StatusForbidden, "Not enough permissions")
			return
		}
		c.Next()
	}
}
