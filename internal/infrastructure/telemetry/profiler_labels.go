package telemetry

import (
	"context"
	"slices"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelHandler = "handler"
	ProfilingLabelRoute   = "route"
	ProfilingLabelMethod  = "method"
)

// maxLabelValueLength caps label values to keep series cardinality bounded
const maxLabelValueLength = 128

// Identifiers that would explode profile cardinality if used as labels
var highCardinalityLabels = map[string]bool{
	"admin_id":        true,
	"request_id":      true,
	"session_id":      true,
	"qr_code":         true,
	"serial_number":   true,
	"registration_id": true,
	"trace_id":        true,
}

// WithProfilingLabels runs fn with the labels attached to its CPU samples
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// HTTPRequestLabels builds the labels for one routed request
func HTTPRequestLabels(handler, route, method string) map[string]string {
	labels := map[string]string{ProfilingLabelMethod: method}
	if handler != "" {
		labels[ProfilingLabelHandler] = handler
	}
	if route != "" {
		labels[ProfilingLabelRoute] = route
	}
	return labels
}

// sanitizeLabels drops empty and high-cardinality labels, truncates long
// values and returns key/value pairs sorted by key
func sanitizeLabels(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k, v := range labels {
		if strings.TrimSpace(k) == "" || v == "" || highCardinalityLabels[k] {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		v := labels[k]
		if len(v) > maxLabelValueLength {
			v = v[:maxLabelValueLength]
		}
		pairs = append(pairs, k, v)
	}
	return pairs
}
