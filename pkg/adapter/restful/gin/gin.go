// Package gin wraps the gin-gonic engine, so the configuration and
// command packages do not need to import gin-gonic directly.
package gin

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/momeni/rentdispatch/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/rentdispatch/pkg/core/cerr"
)

type HandlerFunc = gin.HandlerFunc
type Engine = gin.Engine

// New creates an engine without any middleware other than the given
// ones. Unknown routes and methods are reported as JSON documents.
func New(middlewares ...HandlerFunc) *Engine {
	e := gin.New()
	e.Use(middlewares...)
	e.HandleMethodNotAllowed = true
	e.NoRoute(func(c *gin.Context) {
		serdser.SerErr(c, cerr.NotFound(fmt.Errorf("no route for %s", c.Request.URL.Path)))
	})
	e.NoMethod(func(c *gin.Context) {
		serdser.SerErr(c, cerr.MethodNotAllowed(fmt.Errorf(
			"%s is not allowed on %s", c.Request.Method, c.Request.URL.Path,
		)))
	})
	return e
}

func Logger() HandlerFunc {
	return gin.Logger()
}

func Recovery() HandlerFunc {
	return gin.Recovery()
}

// SetReleaseMode disables the debug logs of gin-gonic routes
// registration.
func SetReleaseMode() {
	gin.SetMode(gin.ReleaseMode)
}
