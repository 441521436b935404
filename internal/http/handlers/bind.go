package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

var registerTagNames sync.Once

// useWireNames makes validator report json/form names instead of Go field names.
func useWireNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(sf reflect.StructField) string {
			for _, key := range []string{"json", "form"} {
				name, _, _ := strings.Cut(sf.Tag.Get(key), ",")
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return sf.Name
		})
	})
}

func BindJSON(ctx *gin.Context, out any) bool {
	return bindWith(ctx, out, binding.JSON)
}

func BindForm(ctx *gin.Context, out any) bool {
	return bindWith(ctx, out, binding.Form)
}

func BindQuery(ctx *gin.Context, out any) bool {
	return bindWith(ctx, out, binding.Query)
}

func bindWith(ctx *gin.Context, out any, b binding.Binding) bool {
	useWireNames()

	if err := ctx.ShouldBindWith(out, b); err != nil {
		RespondValidation(ctx, fieldErrors(err))
		return false
	}
	return true
}

func fieldErrors(err error) []FieldError {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]FieldError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, FieldError{
				Field:   fe.Field(),
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: validationMessage(fe.Tag(), fe.Param()),
			})
		}
		return fields
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []FieldError{{
			Field:   typeErr.Field,
			Rule:    "type",
			Message: "must be of type " + typeErr.Type.String(),
		}}
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return []FieldError{{Rule: "type", Message: "must be a number"}}
	}

	// truncated and empty bodies surface as EOF errors, not SyntaxError
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return []FieldError{{Rule: "json", Message: "invalid JSON syntax"}}
	}

	return []FieldError{{Rule: "body", Message: "malformed request body"}}
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}

// pathID reads a positive integer path parameter, answering 400 otherwise.
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondError(ctx, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}
