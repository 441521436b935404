package middlewares

import "github.com/gin-gonic/gin"

// abortDetail writes the same {"detail": ...} body the handlers use.
func abortDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}
