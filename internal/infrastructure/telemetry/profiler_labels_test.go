package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"route":      "/api/v1/warranties",
		"method":     "GET",
		"admin_id":   "4b1c",
		"":           "blank",
		"handler":    "",
		"session_id": "abc",
	})

	assert.Equal(t, []string{"method", "GET", "route", "/api/v1/warranties"}, pairs)
}

func TestSanitizeLabels_TruncatesLongValues(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{"route": strings.Repeat("x", 300)})

	assert.Len(t, pairs[1], maxLabelValueLength)
}

func TestHTTPRequestLabels(t *testing.T) {
	assert.Equal(t, map[string]string{"method": "POST"}, HTTPRequestLabels("", "", "POST"))
	assert.Equal(t, map[string]string{
		"method":  "GET",
		"route":   "/api/v1/products/:id",
		"handler": "ProductHandler.Get",
	}, HTTPRequestLabels("ProductHandler.Get", "/api/v1/products/:id", "GET"))
}

func TestWithProfilingLabels(t *testing.T) {
	var route string
	WithProfilingLabels(context.Background(), HTTPRequestLabels("", "/health", "GET"), func(ctx context.Context) {
		route, _ = pprof.Label(ctx, ProfilingLabelRoute)
	})
	assert.Equal(t, "/health", route)

	called := false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}
