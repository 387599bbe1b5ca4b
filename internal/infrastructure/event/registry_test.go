package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler()
	registry.Register(handler, "ProductCreated", "ProductUpdated")

	assert.Equal(t, []any{handler}, toAny(registry.GetHandlers("ProductCreated")))
	assert.Len(t, registry.GetHandlers("ProductUpdated"), 1)
	assert.Empty(t, registry.GetHandlers("ProductDeleted"))
}

func TestHandlerRegistry_WildcardComesLast(t *testing.T) {
	registry := NewHandlerRegistry()
	wildcard := newTestHandler()
	typed := newTestHandler()
	registry.Register(wildcard)
	registry.Register(typed, "AdminLoggedIn")

	handlers := registry.GetHandlers("AdminLoggedIn")
	assert.Len(t, handlers, 2)
	assert.Same(t, typed, handlers[0])
	assert.Same(t, wildcard, handlers[1])
	assert.Len(t, registry.GetHandlers("Other"), 1)
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	a := newTestHandler()
	b := newTestHandler()
	registry.Register(a, "ProductCreated", "ProductDeleted")
	registry.Register(b, "ProductCreated")
	registry.Register(a)

	registry.Unregister(a)

	assert.Len(t, registry.GetHandlers("ProductCreated"), 1)
	assert.Empty(t, registry.GetHandlers("ProductDeleted"))
	assert.NotContains(t, registry.handlers, "ProductDeleted")
	assert.Len(t, registry.GetAllHandlers(), 1)
}

func TestHandlerRegistry_GetAllHandlersDeduplicates(t *testing.T) {
	registry := NewHandlerRegistry()
	a := newTestHandler()
	registry.Register(a, "ProductCreated", "ProductUpdated")
	registry.Register(a)

	assert.Len(t, registry.GetAllHandlers(), 1)
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
