package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHandlerGroup(t *testing.T) {
	tests := map[string]string{
		"/api/v1/products/:id/instances": "products",
		"/api/v1/public/warranties":      "public",
		"/api/v1/admins/:id/limits/:res": "admins",
		"/health":                        "health",
		"/api/v2":                        "",
		"":                               "",
	}
	for route, want := range tests {
		t.Run(route, func(t *testing.T) {
			assert.Equal(t, want, handlerGroup(route))
		})
	}
}

func TestProfiling_RunsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, enabled := range []bool{true, false} {
		called := false
		r := gin.New()
		r.Use(Profiling(enabled, "/health"))
		r.GET("/api/v1/products", func(c *gin.Context) {
			called = true
			c.Status(http.StatusOK)
		})
		r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, called)

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
