package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	libsass "github.com/wellington/go-libsass"

	"github.com/hupe1980/mailsmith/internal/campaign"
)

const sassPrecision = 10

// styleSource is one stylesheet entry point and the tree it came from.
type styleSource struct {
	path string
	rel  string
}

// renderStyles compiles every non-partial stylesheet of campaign. Shared
// stylesheets are compiled into each campaign unless the campaign has one
// at the same path.
func (r *Renderer) renderStyles(ctx context.Context, name string) (ArtifactSet, error) {
	sources, err := r.styleSources(name)
	if err != nil {
		return nil, err
	}

	includes := []string{
		filepath.Join(r.layout.CampaignDir(name), campaign.StylesDir),
		filepath.Join(r.layout.SharedDir(), campaign.StylesDir),
	}

	var set ArtifactSet

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return set, err
		}

		css, err := r.compileStyle(src.path, includes)
		if err != nil {
			return set, fmt.Errorf("compiling %s: %w", src.rel, err)
		}

		artifact := campaign.StyleArtifact(name, src.rel)
		if err := r.store.Write(artifact, css); err != nil {
			return set, err
		}

		set = append(set, artifact)
	}

	return set, nil
}

func (r *Renderer) styleSources(name string) ([]styleSource, error) {
	byRel := map[string]styleSource{}

	for _, root := range []string{r.layout.SharedDir(), r.layout.CampaignDir(name)} {
		err := walkSources(filepath.Join(root, campaign.StylesDir), campaign.StyleExts, func(path string, _ []byte) error {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}

			if campaign.StyleArtifact(name, rel) == "" {
				return nil
			}

			byRel[rel] = styleSource{path: path, rel: rel}

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	rels := make([]string, 0, len(byRel))
	for rel := range byRel {
		rels = append(rels, rel)
	}

	slices.Sort(rels)

	out := make([]styleSource, len(rels))
	for i, rel := range rels {
		out[i] = byRel[rel]
	}

	return out, nil
}

func (r *Renderer) compileStyle(path string, includes []string) ([]byte, error) {
	in, err := os.Open(path) //nolint:gosec // path comes from walking the source tree
	if err != nil {
		return nil, err
	}
	defer in.Close()

	style := libsass.NESTED_STYLE
	if r.production {
		style = libsass.EXPANDED_STYLE
	}

	var out bytes.Buffer

	comp, err := libsass.New(&out, in,
		libsass.IncludePaths(append([]string{filepath.Dir(path)}, includes...)),
		libsass.OutputStyle(style),
		libsass.Precision(sassPrecision),
		libsass.Comments(!r.production),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sass compiler: %w", err)
	}

	if err := comp.Run(); err != nil {
		return nil, err
	}

	if !r.production {
		return out.Bytes(), nil
	}

	minified, err := r.minifier.Bytes("text/css", out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minifying css: %w", err)
	}

	return minified, nil
}
