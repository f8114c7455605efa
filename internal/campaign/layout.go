package campaign

import (
	"path/filepath"
)

// Tree segment names.
const (
	EmailsTag = "emails"
	SharedTag = "shared"

	// Shared is the synthetic campaign name for changes under the shared
	// tree; such changes affect every known campaign.
	Shared = "shared"
)

// Source subdirectories of a campaign (and of the shared tree).
const (
	TemplatesDir = "templates"
	PartialsDir  = "partials"
	LayoutsDir   = "layouts"
	PagesDir     = "pages"
	DataDir      = "data"
	StylesDir    = "styles"
	ImagesDir    = "images"
)

// Layout resolves the source and output directories of a project.
type Layout struct {
	// SourceDir holds emails/ and shared/.
	SourceDir string
	// DistDir is the output root.
	DistDir string
}

// NewLayout returns a Layout rooted at src and dist.
func NewLayout(src, dist string) Layout {
	return Layout{SourceDir: filepath.Clean(src), DistDir: filepath.Clean(dist)}
}

// EmailsDir is the directory that holds one folder per campaign.
func (l Layout) EmailsDir() string {
	return filepath.Join(l.SourceDir, EmailsTag)
}

// SharedDir is the tree whose contents apply to every campaign.
func (l Layout) SharedDir() string {
	return filepath.Join(l.SourceDir, SharedTag)
}

// CampaignDir returns the source folder of campaign. The synthetic Shared
// campaign resolves to the shared tree.
func (l Layout) CampaignDir(name string) string {
	if name == Shared {
		return l.SharedDir()
	}

	return filepath.Join(l.EmailsDir(), name)
}

// OutputDir returns the output folder of campaign.
func (l Layout) OutputDir(name string) string {
	return filepath.Join(l.DistDir, name)
}
