package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every error body is {"detail": msg}; validation failures add "errors".

func RespondError(ctx *gin.Context, status int, detail string) {
	ctx.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func RespondValidation(ctx *gin.Context, fields []FieldError) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"detail": "Invalid request",
		"errors": fields,
	})
}

func RespondNotFound(ctx *gin.Context, detail string) {
	RespondError(ctx, http.StatusNotFound, detail)
}

func RespondForbidden(ctx *gin.Context) {
	RespondError(ctx, http.StatusForbidden, "Not enough permissions")
}

func RespondConflict(ctx *gin.Context, detail string) {
	RespondError(ctx, http.StatusConflict, detail)
}

func RespondInternal(ctx *gin.Context) {
	RespondError(ctx, http.StatusInternalServerError, "Internal server error")
}
