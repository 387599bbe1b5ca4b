package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryObjectStorage("")
	assert.Equal(t, "http://localhost:8080/files", m.BaseURL)

	data := []byte("%PDF-1.4")
	require.NoError(t, m.Upload(ctx, "certificates/1.pdf", data, "application/pdf"))
	data[0] = 'X'

	got, contentType, ok := m.Object("certificates/1.pdf")
	require.True(t, ok)
	assert.Equal(t, "%PDF-1.4", string(got))
	assert.Equal(t, "application/pdf", contentType)
	assert.Equal(t, 1, m.Len())

	url, expiresAt, err := m.GenerateDownloadURL(ctx, "certificates/1.pdf", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "http://localhost:8080/files/certificates/1.pdf?expires=")
	assert.True(t, expiresAt.After(time.Now()))

	require.NoError(t, m.DeleteObject(ctx, "certificates/1.pdf"))
	require.NoError(t, m.DeleteObject(ctx, "certificates/1.pdf"))
	_, _, ok = m.Object("certificates/1.pdf")
	assert.False(t, ok)
}

func TestMemoryObjectStorage_EmptyKey(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryObjectStorage("https://files.example.com/")
	assert.Equal(t, "https://files.example.com", m.BaseURL)

	assert.ErrorIs(t, m.Upload(ctx, "", nil, ""), ErrEmptyKey)
	assert.ErrorIs(t, m.DeleteObject(ctx, ""), ErrEmptyKey)
	_, _, err := m.GenerateDownloadURL(ctx, "", 0)
	assert.ErrorIs(t, err, ErrEmptyKey)
}
