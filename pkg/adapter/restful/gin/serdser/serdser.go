// Package serdser contains the serialization and deserialization
// helpers which are shared by the resource packages.
package serdser

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/momeni/rentdispatch/pkg/core/cerr"
	"github.com/momeni/rentdispatch/pkg/core/log"
)

// Bind deserializes the request into req using the b binding. When the
// request is not acceptable, a 400 response is written and false is
// returned. A nil b binds the uri parameters.
func Bind(c *gin.Context, req any, b binding.Binding) bool {
	var err error
	if b == nil {
		err = c.ShouldBindUri(req)
	} else {
		err = c.ShouldBindWith(req, b)
	}
	switch err := err.(type) {
	case *validator.InvalidValidationError:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":  cerr.CodeServerError,
			"detail": err.Error(),
		})
	case validator.ValidationErrors:
		var nameToErrs map[string][]string
		for _, ferr := range err {
			AddErr(&nameToErrs, ferr.Field(), ferr.Error())
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  cerr.CodeBadRequest,
			"fields": nameToErrs,
		})
	default:
		if err == nil {
			return true
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  cerr.CodeBadRequest,
			"detail": err.Error(),
		})
	}
	return false
}

func AddErr(errs *map[string][]string, name string, msgs ...string) {
	if (*errs) == nil {
		*errs = make(map[string][]string)
	}
	if elist, ok := (*errs)[name]; !ok {
		(*errs)[name] = msgs
	} else {
		(*errs)[name] = append(elist, msgs...)
	}
}

// SerErr writes err as a failed response and aborts the pending
// handlers. A *cerr.Error is rendered with its own status and code,
// while other errors are logged and hidden behind a 500 SERVER_ERROR.
func SerErr(c *gin.Context, err error) {
	var ce *cerr.Error
	if errors.As(err, &ce) {
		c.AbortWithStatusJSON(ce.HTTPStatusCode, gin.H{
			"error":  ce.Code,
			"detail": ce.Err.Error(),
		})
		return
	}
	log.Error(
		c, "request failed",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		log.Err("err", err),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": cerr.CodeServerError,
	})
}
