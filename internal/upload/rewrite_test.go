package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cdnURL(campaign, rel string) string {
	return "https://cdn.example.com/" + campaign + "/images/" + rel
}

func TestRewriteImageURLs(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		contains []string
		absent   []string
	}{
		{
			name:     "img src",
			html:     `<html><body><img src="images/hero/a.png" alt=""></body></html>`,
			contains: []string{`src="https://cdn.example.com/promo-a/images/hero/a.png"`},
		},
		{
			name:     "dot slash prefix",
			html:     `<html><body><img src="./images/a.png"></body></html>`,
			contains: []string{`src="https://cdn.example.com/promo-a/images/a.png"`},
		},
		{
			name:     "background attribute",
			html:     `<html><body><table><tr><td background="images/bg.jpg"></td></tr></table></body></html>`,
			contains: []string{`background="https://cdn.example.com/promo-a/images/bg.jpg"`},
		},
		{
			name:     "inline style url",
			html:     `<html><body><div style="background-image: url('images/bg.jpg')"></div></body></html>`,
			contains: []string{`https://cdn.example.com/promo-a/images/bg.jpg`},
			absent:   []string{`url('images/`},
		},
		{
			name:     "absolute urls untouched",
			html:     `<html><body><img src="https://example.com/images/a.png"></body></html>`,
			contains: []string{`src="https://example.com/images/a.png"`},
		},
		{
			name:     "escaping the images dir untouched",
			html:     `<html><body><img src="images/../secret.png"></body></html>`,
			contains: []string{`src="images/../secret.png"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RewriteImageURLs(tt.html, "promo-a", cdnURL)
			require.NoError(t, err)

			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}

			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRewriteImageURLs_NoImagesUnchanged(t *testing.T) {
	html := "<p>[mso_open]plain[mso_close]</p>"

	out, err := RewriteImageURLs(html, "promo-a", cdnURL)
	require.NoError(t, err)
	assert.Equal(t, html, out)
}
