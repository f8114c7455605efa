package render

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hupe1980/mailsmith/internal/campaign"
	"github.com/hupe1980/mailsmith/internal/logging"
)

// ImageRef points at one image source. Origin is the campaign that owns
// the file or campaign.Shared; Rel is relative to the origin folder, e.g.
// "images/hero.png".
type ImageRef struct {
	Origin string
	Rel    string
}

// ImageUploader publishes processed images.
type ImageUploader interface {
	Upload(ctx context.Context, campaign, rel string, data []byte) (string, error)
}

// ProcessImages optimizes images into the output of campaign name. Without
// refs every image of the shared tree and of the campaign is processed,
// campaign files overriding shared ones at the same path. In production
// mode each image is uploaded; upload failures are logged and do not fail
// the call.
func (r *Renderer) ProcessImages(ctx context.Context, name string, refs ...ImageRef) (ArtifactSet, error) {
	if len(refs) == 0 {
		all, err := r.imageRefs(name)
		if err != nil {
			return nil, renderErr(name, KindImages, err)
		}

		refs = all
	}

	logger := logging.FromContext(ctx)

	var set ArtifactSet

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return set, renderErr(name, KindImages, err)
		}

		src := filepath.Join(r.layout.CampaignDir(ref.Origin), ref.Rel)

		data, err := os.ReadFile(src) //nolint:gosec // path derived from the source layout
		if err != nil {
			return set, renderErr(name, KindImages, fmt.Errorf("reading image %s: %w", ref.Rel, err))
		}

		data = optimizeImage(ref.Rel, data, logger)

		artifact := campaign.ImageArtifact(name, ref.Rel)
		if err := r.store.Write(artifact, data); err != nil {
			return set, renderErr(name, KindImages, err)
		}

		set = append(set, artifact)

		if r.production && r.uploader != nil {
			rel := strings.TrimPrefix(filepath.ToSlash(ref.Rel), campaign.ImagesDir+"/")
			if _, err := r.uploader.Upload(ctx, name, rel, data); err != nil {
				logger.Warn("image upload failed, local copy kept",
					logging.Campaign(name), logging.Path(artifact), logging.Error(err))
			}
		}
	}

	return set, nil
}

func (r *Renderer) imageRefs(name string) ([]ImageRef, error) {
	byRel := map[string]ImageRef{}

	for _, origin := range []string{campaign.Shared, name} {
		root := r.layout.CampaignDir(origin)

		err := filepath.WalkDir(filepath.Join(root, campaign.ImagesDir), func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}

			if campaign.KindOf(rel) == campaign.KindImage {
				byRel[rel] = ImageRef{Origin: origin, Rel: rel}
			}

			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	rels := make([]string, 0, len(byRel))
	for rel := range byRel {
		rels = append(rels, rel)
	}

	slices.Sort(rels)

	refs := make([]ImageRef, len(rels))
	for i, rel := range rels {
		refs[i] = byRel[rel]
	}

	return refs, nil
}

// optimizeImage re-encodes PNGs at best compression and keeps the result
// only when it is smaller. Other formats pass through.
func optimizeImage(rel string, data []byte, logger *slog.Logger) []byte {
	if strings.ToLower(filepath.Ext(rel)) != ".png" {
		return data
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Debug("png not decodable, copied as is", logging.Path(rel), logging.Error(err))
		return data
	}

	var buf bytes.Buffer

	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil || buf.Len() >= len(data) {
		return data
	}

	return buf.Bytes()
}
