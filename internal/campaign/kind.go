package campaign

import (
	"path/filepath"
	"strings"
)

// SourceKind classifies a source file by its location and extension.
type SourceKind int

// Source kinds.
const (
	KindUnknown SourceKind = iota
	KindPage
	KindPartial
	KindLayout
	KindData
	KindStyle
	KindImage
)

var kindNames = map[SourceKind]string{
	KindUnknown: "unknown",
	KindPage:    "page",
	KindPartial: "partial",
	KindLayout:  "layout",
	KindData:    "data",
	KindStyle:   "style",
	KindImage:   "image",
}

func (k SourceKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}

	return "unknown"
}

// IsTemplate reports whether the kind feeds the email render (templates and
// data).
func (k SourceKind) IsTemplate() bool {
	switch k {
	case KindPage, KindPartial, KindLayout, KindData:
		return true
	}

	return false
}

// Extensions recognised per kind.
var (
	TemplateExts = []string{".hbs"}
	DataExts     = []string{".json", ".yml", ".yaml"}
	StyleExts    = []string{".scss"}
	ImageExts    = []string{".png", ".jpg", ".jpeg", ".gif"}
)

func hasExt(p string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}

	return false
}

// KindOf classifies a path relative to a campaign (or shared) folder, e.g.
// "templates/pages/welcome.hbs" or "images/logo.png".
func KindOf(rel string) SourceKind {
	parts := splitPath(rel)
	if len(parts) < 2 {
		return KindUnknown
	}

	switch parts[0] {
	case TemplatesDir:
		if len(parts) < 3 || !hasExt(rel, TemplateExts) {
			return KindUnknown
		}

		switch parts[1] {
		case PagesDir:
			return KindPage
		case PartialsDir:
			return KindPartial
		case LayoutsDir:
			return KindLayout
		}
	case DataDir:
		if hasExt(rel, DataExts) {
			return KindData
		}
	case StylesDir:
		if hasExt(rel, StyleExts) {
			return KindStyle
		}
	case ImagesDir:
		if hasExt(rel, ImageExts) {
			return KindImage
		}
	}

	return KindUnknown
}

// PageArtifact derives the output path of a page: pages are flattened into
// the campaign folder and take the .html extension.
// "templates/pages/promo/welcome.hbs" → "<campaign>/welcome.html".
func PageArtifact(campaign, rel string) string {
	base := filepath.Base(rel)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(campaign, stem+".html")
}

// ImageArtifact derives the output path of an image, keeping its path below
// images/. "images/hero/a.png" → "<campaign>/images/hero/a.png".
func ImageArtifact(campaign, rel string) string {
	return filepath.Join(campaign, ImagesDir, trimFirst(rel, ImagesDir))
}

// StyleArtifact derives the output path of a stylesheet. Sass partials
// (leading underscore) produce no artifact and yield "".
func StyleArtifact(campaign, rel string) string {
	base := filepath.Base(rel)
	if strings.HasPrefix(base, "_") {
		return ""
	}

	sub := trimFirst(rel, StylesDir)
	sub = strings.TrimSuffix(sub, filepath.Ext(sub)) + ".css"

	return filepath.Join(campaign, StylesDir, sub)
}

// PageName returns the template name of a page, partial or layout: its file
// stem. Names are flat, so "partials/footer/social.hbs" is "social".
func PageName(rel string) string {
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func trimFirst(rel, first string) string {
	parts := splitPath(rel)
	if len(parts) > 0 && parts[0] == first {
		parts = parts[1:]
	}

	return filepath.Join(parts...)
}

func splitPath(rel string) []string {
	rel = filepath.ToSlash(filepath.Clean(rel))
	rel = strings.TrimPrefix(rel, "./")

	if rel == "." || rel == "" {
		return nil
	}

	return strings.Split(rel, "/")
}
