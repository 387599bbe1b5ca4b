package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/warrantyhub/backend/internal/infrastructure/telemetry"
)

// Profiling tags CPU and allocation samples taken while a request runs with
// its handler group, route pattern and method. Unmatched routes and the
// skipped paths run unlabeled.
func Profiling(enabled bool, skipPaths ...string) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}

	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if _, ok := skip[c.Request.URL.Path]; ok || route == "" {
			c.Next()
			return
		}

		labels := telemetry.HTTPRequestLabels(handlerGroup(route), route, c.Request.Method)
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// handlerGroup derives the resource name from a route pattern:
// "/api/v1/products/:id/instances" -> "products", "/api/v1/public/warranties" -> "public".
func handlerGroup(route string) string {
	for _, seg := range strings.Split(strings.Trim(route, "/"), "/") {
		if seg == "" || seg == "api" || isVersionSegment(seg) || strings.HasPrefix(seg, ":") {
			continue
		}
		return seg
	}
	return ""
}

func isVersionSegment(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
