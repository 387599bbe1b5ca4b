package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func systemRouter(products *MockProductService) *gin.Engine {
	h := NewSystemHandler(products, SystemInfo{Name: "Warranty Backend API", Version: "1.2.3", Store: "memory"}, nil)
	h.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/system/info", h.GetSystemInfo)
	r.GET("/system/ping", h.Ping)
	return r
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("ok with counts", func(t *testing.T) {
		products := new(MockProductService)
		products.On("CountProducts", mock.Anything).Return(3, nil)
		products.On("CountInstances", mock.Anything).Return(12, nil)

		w, resp := doRequest(t, systemRouter(products), http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, w.Code)
		data := dataMap(t, resp)
		assert.Equal(t, HealthStatusOK, data["status"])
		assert.Equal(t, "memory", data["store"])
		assert.Equal(t, "1.2.3", data["version"])
		assert.EqualValues(t, 3, data["products"])
		assert.EqualValues(t, 12, data["instances"])
		assert.Equal(t, "2024-01-15T12:00:00Z", data["timestamp"])
	})

	t.Run("degraded when the store fails", func(t *testing.T) {
		products := new(MockProductService)
		products.On("CountProducts", mock.Anything).Return(0, errors.New("dial tcp: connection refused"))

		w, resp := doRequest(t, systemRouter(products), http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, HealthStatusDegraded, dataMap(t, resp)["status"])
		products.AssertNotCalled(t, "CountInstances", mock.Anything)
	})
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	w, resp := doRequest(t, systemRouter(new(MockProductService)), http.MethodGet, "/system/info", "")

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, resp)
	assert.Equal(t, "Warranty Backend API", data["name"])
	assert.Equal(t, "1.2.3", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandler_Ping(t *testing.T) {
	w, resp := doRequest(t, systemRouter(new(MockProductService)), http.MethodGet, "/system/ping", "")

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, resp)
	assert.Equal(t, "pong", data["message"])
	assert.Equal(t, "2024-01-15T12:00:00Z", data["timestamp"])
}
