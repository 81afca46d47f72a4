package apihttp

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	codeValidation   = "VALIDATION_ERROR"
	codeUnavailable  = "SERVICE_UNAVAILABLE"
	codeForbidden    = "FORBIDDEN"
	codeInternal     = "INTERNAL_SERVER_ERROR"
	codeBadRequest   = "BAD_REQUEST"
	codeNoArticles   = "NO_ARTICLES"
	codeNoMarketData = "NO_MARKET_DATA"
	codeUpstream     = "UPSTREAM_ERROR"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(wireFieldName)
	}
}

// wireFieldName reports fields by their json or query name.
func wireFieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// FieldError names one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorBody struct {
	Detail    string       `json:"detail"`
	ErrorCode string       `json:"error_code"`
	Errors    []FieldError `json:"errors,omitempty"`
}

func abortError(c *gin.Context, status int, code, detail string) {
	c.AbortWithStatusJSON(status, errorBody{Detail: detail, ErrorCode: code})
}

func abortValidation(c *gin.Context, fields ...FieldError) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorBody{
		Detail:    "Request validation failed",
		ErrorCode: codeValidation,
		Errors:    fields,
	})
}

// abortBinding turns a gin binding error into field errors. Malformed JSON
// yields a single "body" entry.
func abortBinding(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		abortValidation(c, FieldError{Field: "body", Message: err.Error()})
		return
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fieldName(fe), Message: fieldMessage(fe)})
	}
	abortValidation(c, fields...)
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if ns == "" {
		ns = fe.Field()
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
