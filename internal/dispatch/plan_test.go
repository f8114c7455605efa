package dispatch

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mailsmith/internal/campaign"
	"github.com/hupe1980/mailsmith/internal/render"
	"github.com/hupe1980/mailsmith/internal/watch"
)

var campaigns = []string{"promo-b", "promo-a"}

func rel(parts ...string) string { return filepath.Join(parts...) }

func ops(u Unit) []string {
	out := make([]string, len(u.Actions))
	for i, a := range u.Actions {
		out[i] = a.String()
	}

	return out
}

func TestPlan_CampaignScoped(t *testing.T) {
	page := rel("templates", "pages", "welcome.hbs")
	partial := rel("templates", "partials", "footer.hbs")
	data := rel("data", "user.json")
	style := rel("styles", "main.scss")
	image := rel("images", "hero", "a.png")

	tests := []struct {
		name   string
		change watch.ClassifiedChange
		want   []string
	}{
		{
			name:   "page added",
			change: watch.ClassifiedChange{Campaign: "promo-a", RelativePath: page, Kind: watch.Added},
			want:   []string{"init-context promo-a", "render promo-a email"},
		},
		{
			name:   "page changed",
			change: watch.ClassifiedChange{Campaign: "promo-a", RelativePath: page, Kind: watch.Changed},
			want:   []string{"render promo-a email"},
		},
		{
			name: "page renamed",
			change: watch.ClassifiedChange{
				Campaign: "promo-a", Kind: watch.Renamed,
				RelativePath: rel("templates", "pages", "welcome-v2.hbs"), OldRelativePath: page,
			},
			want: []string{
				"delete " + rel("promo-a", "welcome.html"),
				"init-context promo-a",
				"render promo-a email",
			},
		},
		{
			name:   "page deleted",
			change: watch.ClassifiedChange{Campaign: "promo-a", RelativePath: page, Kind: watch.Deleted},
			want:   []string{"delete " + rel("promo-a", "welcome.html"), "invalidate-context promo-a"},
		},
		{
			name:   "partial changed",
			change: watch.ClassifiedChange{Campaign: "promo-a", RelativePath: partial, Kind: watch.Changed},
			want:   []string{"render promo-a email"},
		},
		{
			name: "partial renamed has no artifact to delete",
			change: watch.ClassifiedChange{
				Campaign: "promo-a", Kind: watch.Renamed,
				RelativePath: rel("templates", "partials", "footer-v2.hbs"), OldRelativePath: partial,
			},
			want: []string{"init-context promo-a", "render promo-a email"},
		},
		{
			name:   "partial deleted",
			change: watch.ClassifiedChange{Campaign: "promo-a", RelativePath: partial, Kind: watch.Deleted},
			want:   []string{"invalidate-context promo-a"},
		},
		{
			name:   "data added",
			change: watch.ClassifiedChange{Campaign: "promo-a", RelativePath: data, Kind: watch.Added},
			want:   []string{"init-context promo-a", "render promo-a email"},
		},
		{
			name:   "style changed",
			change: watch.ClassifiedChange{Campaign: "promo-a", RelativePath: style, Kind: watch.Changed},
			want:   []string{"render promo-a styles"},
		},
		{
			name: "style renamed",
			change: watch.ClassifiedChange{
				Campaign: "promo-a", Kind: watch.Renamed,
				RelativePath: rel("styles", "email.scss"), OldRelativePath: style,
			},
			want: []string{"render promo-a styles"},
		},
		{
			name:   "style deleted is not handled",
			change: watch.ClassifiedChange{Campaign: "promo-a", RelativePath: style, Kind: watch.Deleted},
			want:   nil,
		},
		{
			name:   "image added",
			change: watch.ClassifiedChange{Campaign: "promo-a", RelativePath: image, Kind: watch.Added},
			want:   []string{"process-images promo-a"},
		},
		{
			name: "image renamed",
			change: watch.ClassifiedChange{
				Campaign: "promo-a", Kind: watch.Renamed,
				RelativePath: rel("images", "hero", "b.png"), OldRelativePath: image,
			},
			want: []string{"delete " + rel("promo-a", "images", "hero", "a.png"), "process-images promo-a"},
		},
		{
			name:   "image deleted",
			change: watch.ClassifiedChange{Campaign: "promo-a", RelativePath: image, Kind: watch.Deleted},
			want:   []string{"delete " + rel("promo-a", "images", "hero", "a.png")},
		},
		{
			name:   "unknown file",
			change: watch.ClassifiedChange{Campaign: "promo-a", RelativePath: "notes.txt", Kind: watch.Changed},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units := Plan(tt.change, campaigns)
			if tt.want == nil {
				assert.Empty(t, units)
				return
			}

			require.Len(t, units, 1)
			assert.Equal(t, "promo-a", units[0].Campaign)
			assert.Equal(t, tt.want, ops(units[0]))
		})
	}
}

func TestPlan_ImageRefsPointAtSource(t *testing.T) {
	units := Plan(watch.ClassifiedChange{
		Campaign: "promo-a", RelativePath: rel("images", "a.png"), Kind: watch.Changed,
	}, campaigns)

	require.Len(t, units, 1)
	assert.Equal(t, []render.ImageRef{{Origin: "promo-a", Rel: rel("images", "a.png")}}, units[0].Actions[0].Images)
}

func TestPlan_SharedFansOut(t *testing.T) {
	tests := []struct {
		name   string
		change watch.ClassifiedChange
		want   []string
	}{
		{
			name: "layout changed",
			change: watch.ClassifiedChange{
				Campaign: campaign.Shared, RelativePath: rel("templates", "layouts", "base.hbs"), Kind: watch.Changed,
			},
			want: []string{"init-context %s", "render %s both"},
		},
		{
			name: "data deleted",
			change: watch.ClassifiedChange{
				Campaign: campaign.Shared, RelativePath: rel("data", "site.yml"), Kind: watch.Deleted,
			},
			want: []string{"init-context %s", "render %s both"},
		},
		{
			name: "style changed",
			change: watch.ClassifiedChange{
				Campaign: campaign.Shared, RelativePath: rel("styles", "_vars.scss"), Kind: watch.Changed,
			},
			want: []string{"render %s both"},
		},
		{
			name: "image changed",
			change: watch.ClassifiedChange{
				Campaign: campaign.Shared, RelativePath: rel("images", "logo.png"), Kind: watch.Changed,
			},
			want: []string{"process-images %s"},
		},
		{
			name: "image deleted",
			change: watch.ClassifiedChange{
				Campaign: campaign.Shared, RelativePath: rel("images", "logo.png"), Kind: watch.Deleted,
			},
			want: []string{"delete %s/images/logo.png", "process-images %s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units := Plan(tt.change, campaigns)
			require.Len(t, units, 2)

			for i, c := range []string{"promo-a", "promo-b"} {
				assert.Equal(t, c, units[i].Campaign)

				want := make([]string, len(tt.want))
				for j, w := range tt.want {
					want[j] = filepath.FromSlash(strings.ReplaceAll(w, "%s", c))
				}

				assert.Equal(t, want, ops(units[i]))
			}
		})
	}
}

func TestPlan_SharedWithoutCampaigns(t *testing.T) {
	units := Plan(watch.ClassifiedChange{
		Campaign: campaign.Shared, RelativePath: rel("templates", "layouts", "base.hbs"), Kind: watch.Changed,
	}, nil)
	assert.Empty(t, units)
}

func TestPlan_DeletesFirst(t *testing.T) {
	units := Plan(watch.ClassifiedChange{
		Campaign: "promo-a", Kind: watch.Renamed,
		RelativePath:    rel("templates", "pages", "b.hbs"),
		OldRelativePath: rel("templates", "pages", "a.hbs"),
	}, campaigns)

	require.Len(t, units, 1)

	seenOther := false
	for _, a := range units[0].Actions {
		if a.Op != OpDeleteArtifact {
			seenOther = true
			continue
		}

		assert.False(t, seenOther, "delete after non-delete action")
	}
}

func TestPlan_Pure(t *testing.T) {
	change := watch.ClassifiedChange{
		Campaign: campaign.Shared, RelativePath: rel("templates", "layouts", "base.hbs"), Kind: watch.Changed,
	}
	in := []string{"promo-b", "promo-a"}

	first := Plan(change, in)
	second := Plan(change, in)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"promo-b", "promo-a"}, in, "input must not be reordered")
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "delete", OpDeleteArtifact.String())
	assert.Equal(t, "invalidate-context", OpInvalidateContext.String())
	assert.Equal(t, "unknown", Op(0).String())
}
