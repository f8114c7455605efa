package campaign

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// ListCampaigns
// ---------------------------------------------------------------------------

func TestListCampaigns_OnlyImmediateDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "promo-b", "templates", "pages"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "promo-a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0o644))

	names, err := ListCampaigns(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"promo-a", "promo-b"}, names)
}

func TestListCampaigns_UnreadableRoot(t *testing.T) {
	_, err := ListCampaigns("/nonexistent/emails/12345")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestRegistry_Rescan(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "promo-a"), 0o755))

	r := NewRegistry(root, nil)
	assert.Empty(t, r.Campaigns())

	require.NoError(t, r.Rescan())
	assert.Equal(t, []string{"promo-a"}, r.Campaigns())

	require.NoError(t, os.Mkdir(filepath.Join(root, "promo-b"), 0o755))
	require.NoError(t, r.Rescan())
	assert.Equal(t, []string{"promo-a", "promo-b"}, r.Campaigns())
}

func TestRegistry_RescanFailureKeepsPreviousSet(t *testing.T) {
	root := filepath.Join(t.TempDir(), "emails")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "promo-a"), 0o755))

	r := NewRegistry(root, nil)
	require.NoError(t, r.Rescan())

	require.NoError(t, os.RemoveAll(root))

	err := r.Rescan()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	assert.Equal(t, []string{"promo-a"}, r.Campaigns())
}

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry(t.TempDir(), nil)

	assert.True(t, r.Add("promo-a"))
	assert.False(t, r.Add("promo-a"))
	assert.True(t, r.Has("promo-a"))

	assert.True(t, r.Remove("promo-a"))
	assert.False(t, r.Remove("promo-a"))
	assert.False(t, r.Has("promo-a"))
}

// ---------------------------------------------------------------------------
// Layout
// ---------------------------------------------------------------------------

func TestLayout(t *testing.T) {
	l := NewLayout("./src", "dist/")

	assert.Equal(t, filepath.Join("src", "emails"), l.EmailsDir())
	assert.Equal(t, filepath.Join("src", "shared"), l.SharedDir())
	assert.Equal(t, filepath.Join("src", "emails", "promo-a"), l.CampaignDir("promo-a"))
	assert.Equal(t, filepath.Join("src", "shared"), l.CampaignDir(Shared))
	assert.Equal(t, filepath.Join("dist", "promo-a"), l.OutputDir("promo-a"))
}

// ---------------------------------------------------------------------------
// KindOf
// ---------------------------------------------------------------------------

func TestKindOf(t *testing.T) {
	tests := []struct {
		rel  string
		want SourceKind
	}{
		{"templates/pages/welcome.hbs", KindPage},
		{"templates/pages/nested/deep.hbs", KindPage},
		{"templates/partials/header.hbs", KindPartial},
		{"templates/layouts/base.hbs", KindLayout},
		{"templates/pages/readme.md", KindUnknown},
		{"templates/welcome.hbs", KindUnknown},
		{"data/site.json", KindData},
		{"data/copy.yml", KindData},
		{"data/notes.txt", KindUnknown},
		{"styles/main.scss", KindStyle},
		{"styles/_vars.scss", KindStyle},
		{"images/logo.PNG", KindImage},
		{"images/hero/banner.jpeg", KindImage},
		{"images/icon.svg", KindUnknown},
		{"welcome.hbs", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(filepath.FromSlash(tt.rel)))
		})
	}
}

func TestSourceKind_IsTemplate(t *testing.T) {
	assert.True(t, KindPage.IsTemplate())
	assert.True(t, KindData.IsTemplate())
	assert.False(t, KindStyle.IsTemplate())
	assert.False(t, KindImage.IsTemplate())
	assert.Equal(t, "layout", KindLayout.String())
	assert.Equal(t, "unknown", SourceKind(99).String())
}

// ---------------------------------------------------------------------------
// Artifact derivation
// ---------------------------------------------------------------------------

func TestPageArtifact(t *testing.T) {
	assert.Equal(t, filepath.Join("promo-a", "welcome.html"),
		PageArtifact("promo-a", filepath.FromSlash("templates/pages/welcome.hbs")))
	assert.Equal(t, filepath.Join("promo-a", "deep.html"),
		PageArtifact("promo-a", filepath.FromSlash("templates/pages/nested/deep.hbs")))
}

func TestImageArtifact(t *testing.T) {
	assert.Equal(t, filepath.Join("promo-a", "images", "hero", "a.png"),
		ImageArtifact("promo-a", filepath.FromSlash("images/hero/a.png")))
}

func TestStyleArtifact(t *testing.T) {
	assert.Equal(t, filepath.Join("promo-a", "styles", "main.css"),
		StyleArtifact("promo-a", filepath.FromSlash("styles/main.scss")))
	assert.Empty(t, StyleArtifact("promo-a", filepath.FromSlash("styles/_vars.scss")))
}

func TestPageName(t *testing.T) {
	assert.Equal(t, "social", PageName(filepath.FromSlash("templates/partials/footer/social.hbs")))
}
