package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ManifestFile is the name of the manifest below the output root.
const ManifestFile = "manifest.json"

// Manifest lists the rendered HTML artifacts per campaign. The preview UI
// reads it to populate its campaign picker.
type Manifest struct {
	Campaigns []ManifestCampaign `json:"campaigns"`
}

// ManifestCampaign lists the pages of one campaign as slash-separated paths
// relative to the output root.
type ManifestCampaign struct {
	Name  string   `json:"name"`
	Pages []string `json:"pages"`
}

// Pages returns every page path in the manifest.
func (m *Manifest) Pages() []string {
	var pages []string
	for _, c := range m.Campaigns {
		pages = append(pages, c.Pages...)
	}

	return pages
}

// BuildManifest walks root and collects every HTML artifact. Results are
// sorted so repeated builds produce identical manifests. A missing root
// yields an empty manifest.
func BuildManifest(root string) (*Manifest, error) {
	byCampaign := make(map[string][]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}

			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		rel = filepath.ToSlash(rel)

		campaign, _, ok := strings.Cut(rel, "/")
		if !ok {
			return nil // top-level HTML is not a campaign page
		}

		byCampaign[campaign] = append(byCampaign[campaign], rel)

		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("scanning output directory %s: %w", root, err)
	}

	m := &Manifest{Campaigns: make([]ManifestCampaign, 0, len(byCampaign))}

	for name, pages := range byCampaign {
		slices.Sort(pages)
		m.Campaigns = append(m.Campaigns, ManifestCampaign{Name: name, Pages: pages})
	}

	slices.SortFunc(m.Campaigns, func(a, b ManifestCampaign) int {
		return strings.Compare(a.Name, b.Name)
	})

	return m, nil
}

// WriteManifest rebuilds the manifest from the store's root and writes it
// through the store.
func WriteManifest(s Store) (*Manifest, error) {
	m, err := BuildManifest(s.Root())
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}

	if err := s.Write(ManifestFile, append(data, '\n')); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	return m, nil
}

// ReadManifest loads a manifest previously written below root.
func ReadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, ManifestFile)) //nolint:gosec // fixed name below output root
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	return &m, nil
}
