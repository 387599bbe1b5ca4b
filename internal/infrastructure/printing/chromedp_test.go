package printing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r := NewChromedpRenderer(ChromedpConfig{})
	defer r.Close()

	assert.Equal(t, defaultChromeTimeout, r.timeout)
	assert.NotNil(t, r.logger)
	assert.NotNil(t, r.allocCtx)

	r2 := NewChromedpRenderer(ChromedpConfig{Timeout: 5 * time.Second})
	defer r2.Close()
	assert.Equal(t, 5*time.Second, r2.timeout)
}

func TestChromedpRenderer_RejectsEmptyHTML(t *testing.T) {
	r := &ChromedpRenderer{timeout: time.Second}

	for _, req := range []*RenderRequest{nil, {}, {HTML: "   \n\t  "}} {
		_, err := r.Render(context.Background(), req)
		var renderErr *RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
	}
}

func TestA4Portrait(t *testing.T) {
	params := a4Portrait(Margins{Top: 10, Right: 15, Bottom: 20, Left: 25})

	assert.InDelta(t, 8.2677, params.PaperWidth, 0.001)
	assert.InDelta(t, 11.6929, params.PaperHeight, 0.001)
	assert.False(t, params.Landscape)
	assert.True(t, params.PrintBackground)
	assert.InDelta(t, mmToInches(10), params.MarginTop, 0.001)
	assert.InDelta(t, mmToInches(15), params.MarginRight, 0.001)
	assert.InDelta(t, mmToInches(20), params.MarginBottom, 0.001)
	assert.InDelta(t, mmToInches(25), params.MarginLeft, 0.001)
}

func TestWrapDocument(t *testing.T) {
	full := "<!DOCTYPE html><html><body>x</body></html>"
	assert.Equal(t, full, wrapDocument(full, "ignored"))
	assert.Equal(t, "<HTML><body>x</body></HTML>", wrapDocument("<HTML><body>x</body></HTML>", ""))

	doc := wrapDocument("<div>Covered</div>", "Card <1>")
	assert.Contains(t, doc, "<!DOCTYPE html>")
	assert.Contains(t, doc, `<meta charset="UTF-8">`)
	assert.Contains(t, doc, "<title>Card &lt;1&gt;</title>")
	assert.Contains(t, doc, "<body><div>Covered</div></body></html>")

	assert.NotContains(t, wrapDocument("<p>x</p>", ""), "<title>")
}

func TestChromedpRenderer_CloseWithoutBrowser(t *testing.T) {
	assert.NoError(t, (&ChromedpRenderer{}).Close())
}

func TestCountPages(t *testing.T) {
	pdf := []byte("<< /Type /Pages /Count 2 >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, countPages(pdf))
	assert.Equal(t, 1, countPages([]byte("%PDF-1.4")))
}
