package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHTML(t *testing.T) {
	html, err := BuildHTML(RenderRequest{
		Title:    "EA SPORTS FC 26",
		ImageURL: "https://image.api.playstation.com/fc26.png",
		Platform: "PS5",
		Lines: []PriceLine{
			{Label: "TR", Price: "1.679,40 TL", OldPrice: "2.799,00 TL", Converted: "83.97 AZN"},
			{Label: "UA", Price: ""},
		},
		EndDate:  "19.06.2024",
		Discount: "-40%",
		URL:      "https://store.playstation.com/tr-tr/product/UP0006-PPSA27360_00-26STANDARDBUNDLE",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "EA SPORTS FC 26")
	assert.Contains(t, html, `src="https://image.api.playstation.com/fc26.png"`)
	assert.Contains(t, html, "1.679,40 TL")
	assert.Contains(t, html, "2.799,00 TL")
	assert.Contains(t, html, "≈ 83.97 AZN")
	assert.Contains(t, html, "-40%")
	assert.Contains(t, html, "19.06.2024")
	assert.Equal(t, 2, strings.Count(html, `class="price"`))
	// The UA line has no price
	assert.Contains(t, html, `<div class="value">—</div>`)
}

func TestBuildHTMLPlaceholdersAndEscaping(t *testing.T) {
	html, err := BuildHTML(RenderRequest{Title: `<script>alert("x")</script>`})
	require.NoError(t, err)

	assert.NotContains(t, html, `<script>alert`)
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, `<div class="platform">—</div>`)
	assert.Contains(t, html, `<div class="cover"></div>`)
	assert.NotContains(t, html, `class="discount"`)
}
