package render

import (
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/mailsmith/internal/campaign"
)

// Context is the initialized state needed to render one campaign: its
// partials and layouts compiled into a template set, its pages, and the
// data merged from the shared tree and the campaign.
type Context struct {
	Campaign string
	LoadedAt time.Time

	// Pages are paths relative to the campaign folder.
	Pages []Page
	// Data is keyed by data file stem.
	Data map[string]any

	base    *template.Template
	layouts map[string]bool

	// roots and stamps fingerprint the loaded sources for Stale.
	roots  []string
	stamps map[string]stamp
}

type stamp struct {
	size    int64
	modTime time.Time
}

// Page is one page template of a campaign.
type Page struct {
	Rel  string
	Meta map[string]any
	Body string
}

// Name is the page's file stem.
func (p Page) Name() string {
	return campaign.PageName(p.Rel)
}

// HasLayout reports whether the context knows a layout called name.
func (c *Context) HasLayout(name string) bool {
	return c.layouts[name]
}

// Stale reports whether a template or data file of the context was added,
// removed or modified since it was loaded.
func (c *Context) Stale() bool {
	current := scanStamps(c.roots)
	if len(current) != len(c.stamps) {
		return true
	}

	for path, st := range current {
		if prev, ok := c.stamps[path]; !ok || prev.size != st.size || !prev.modTime.Equal(st.modTime) {
			return true
		}
	}

	return false
}

// LoadContext reads and compiles the sources of campaign. Shared partials,
// layouts and data are loaded first; campaign files with the same name
// override them.
func LoadContext(layout campaign.Layout, name string) (*Context, error) {
	dirs := []string{layout.SharedDir(), layout.CampaignDir(name)}

	roots := make([]string, 0, 2*len(dirs))
	for _, dir := range dirs {
		roots = append(roots, filepath.Join(dir, campaign.TemplatesDir), filepath.Join(dir, campaign.DataDir))
	}

	// Stamp before reading so edits made during the load mark it stale.
	stamps := scanStamps(roots)

	partials := map[string]string{}
	layouts := map[string]string{}
	data := map[string]any{}

	for _, dir := range dirs {
		if err := collectTemplates(filepath.Join(dir, campaign.TemplatesDir, campaign.PartialsDir), partials); err != nil {
			return nil, err
		}

		if err := collectTemplates(filepath.Join(dir, campaign.TemplatesDir, campaign.LayoutsDir), layouts); err != nil {
			return nil, err
		}

		if err := collectData(filepath.Join(dir, campaign.DataDir), data); err != nil {
			return nil, err
		}
	}

	base := template.New(name).Funcs(sprig.FuncMap()).Option("missingkey=zero")

	for _, n := range slices.Sorted(maps.Keys(partials)) {
		if _, err := base.New(n).Parse(partials[n]); err != nil {
			return nil, fmt.Errorf("parsing partial %s: %w", n, err)
		}
	}

	for _, n := range slices.Sorted(maps.Keys(layouts)) {
		if _, err := base.New(layoutTemplate(n)).Parse(layouts[n]); err != nil {
			return nil, fmt.Errorf("parsing layout %s: %w", n, err)
		}
	}

	pages, err := collectPages(layout.CampaignDir(name))
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(layouts))
	for n := range layouts {
		known[n] = true
	}

	return &Context{
		Campaign: name,
		LoadedAt: time.Now(),
		Pages:    pages,
		Data:     data,
		base:     base,
		layouts:  known,
		roots:    roots,
		stamps:   stamps,
	}, nil
}

// scanStamps records size and modification time of every source file below
// roots.
func scanStamps(roots []string) map[string]stamp {
	stamps := map[string]stamp{}

	for _, root := range roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || strings.HasPrefix(d.Name(), ".") {
				return nil //nolint:nilerr // missing roots contribute nothing
			}

			if campaign.KindOf(sourceRel(root, path)) == campaign.KindUnknown {
				return nil
			}

			if info, err := d.Info(); err == nil {
				stamps[path] = stamp{size: info.Size(), modTime: info.ModTime()}
			}

			return nil
		})
	}

	return stamps
}

// sourceRel returns path relative to the campaign folder that holds root.
func sourceRel(root, path string) string {
	rel, err := filepath.Rel(filepath.Dir(root), path)
	if err != nil {
		return path
	}

	return rel
}

func layoutTemplate(name string) string { return "layout:" + name }

func pageTemplate(name string) string { return "page:" + name }

// collectTemplates reads every template below dir into dst keyed by file
// stem. A missing dir contributes nothing.
func collectTemplates(dir string, dst map[string]string) error {
	return walkSources(dir, campaign.TemplateExts, func(path string, src []byte) error {
		dst[campaign.PageName(path)] = string(src)
		return nil
	})
}

func collectData(dir string, dst map[string]any) error {
	return walkSources(dir, campaign.DataExts, func(path string, src []byte) error {
		var v any
		if err := sigsyaml.Unmarshal(src, &v); err != nil {
			return fmt.Errorf("parsing data file %s: %w", path, err)
		}

		dst[campaign.PageName(path)] = v

		return nil
	})
}

func collectPages(campaignDir string) ([]Page, error) {
	var pages []Page

	dir := filepath.Join(campaignDir, campaign.TemplatesDir, campaign.PagesDir)

	err := walkSources(dir, campaign.TemplateExts, func(path string, src []byte) error {
		meta, body, err := splitFrontMatter(src)
		if err != nil {
			return fmt.Errorf("page %s: %w", path, err)
		}

		rel, err := filepath.Rel(campaignDir, path)
		if err != nil {
			return err
		}

		pages = append(pages, Page{Rel: rel, Meta: meta, Body: string(body)})

		return nil
	})

	return pages, err
}

// walkSources calls fn for each file below dir with one of exts, in lexical
// order.
func walkSources(dir string, exts []string, fn func(path string, src []byte) error) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		if !slices.Contains(exts, strings.ToLower(filepath.Ext(path))) {
			return nil
		}

		src, err := os.ReadFile(path) //nolint:gosec // path comes from walking the source tree
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		return fn(path, src)
	})
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}
