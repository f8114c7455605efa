package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/vanng822/go-premailer/premailer"

	"github.com/hupe1980/mailsmith/internal/maputil"
	"github.com/hupe1980/mailsmith/internal/output"
)

// Email stage names.
const (
	StageTemplate     = "template"
	StageStylesheets  = "stylesheets"
	StageInline       = "inline"
	StageMinify       = "minify"
	StagePlaceholders = "placeholders"
	StageImageURLs    = "image-urls"
)

// LayoutNone renders a page without a layout.
const LayoutNone = "none"

// email is the value threaded through the email pipeline.
type email struct {
	rc   *Context
	page Page
	html string
}

// URLRewriter replaces local image references of a campaign with remote
// URLs.
type URLRewriter func(html, campaign string) (string, error)

func (r *Renderer) emailPipeline() *Pipeline[email] {
	p := NewPipeline[email]().
		Then(StageTemplate, r.executeTemplate).
		Then(StageStylesheets, r.linkStylesheets).
		Then(StageInline, inlineCSS).
		Then(StageMinify, r.minifyHTML).
		Then(StagePlaceholders, r.replacePlaceholders)

	if r.production && r.rewriteURLs != nil {
		p.Then(StageImageURLs, func(_ context.Context, e email) (email, error) {
			out, err := r.rewriteURLs(e.html, e.rc.Campaign)
			if err != nil {
				return e, err
			}

			e.html = out

			return e, nil
		})
	}

	return p
}

func (r *Renderer) executeTemplate(_ context.Context, e email) (email, error) {
	set, err := e.rc.base.Clone()
	if err != nil {
		return e, fmt.Errorf("cloning templates: %w", err)
	}

	name := pageTemplate(e.page.Name())
	if _, err := set.New(name).Parse(e.page.Body); err != nil {
		return e, fmt.Errorf("parsing page %s: %w", e.page.Rel, err)
	}

	data := pageData(e.rc, e.page)

	var body bytes.Buffer
	if err := set.ExecuteTemplate(&body, name, data); err != nil {
		return e, fmt.Errorf("executing page %s: %w", e.page.Rel, err)
	}

	layout := r.defaultLayout
	if v, ok := e.page.Meta["layout"].(string); ok && v != "" {
		layout = v
	}

	if layout == LayoutNone {
		e.html = body.String()
		return e, nil
	}

	if !e.rc.HasLayout(layout) {
		return e, fmt.Errorf("page %s: unknown layout %q", e.page.Rel, layout)
	}

	data["body"] = template.HTML(body.String()) //nolint:gosec // output of the page template, already escaped

	var out bytes.Buffer
	if err := set.ExecuteTemplate(&out, layoutTemplate(layout), data); err != nil {
		return e, fmt.Errorf("executing layout %s: %w", layout, err)
	}

	e.html = out.String()

	return e, nil
}

// pageData merges context data, front matter and page facts into the value
// templates execute against. Front matter maps merge into data maps of the
// same name.
func pageData(rc *Context, p Page) map[string]any {
	data := maputil.Merge(rc.Data, p.Meta)

	data["campaign"] = rc.Campaign
	data["page"] = map[string]any{
		"name": p.Name(),
		"path": p.Rel,
		"meta": p.Meta,
	}

	return data
}

// linkStylesheets swaps every local <link rel="stylesheet"> for a <style>
// element holding the compiled stylesheet from the campaign output.
func (r *Renderer) linkStylesheets(_ context.Context, e email) (email, error) {
	if !strings.Contains(e.html, "<link") {
		return e, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(e.html))
	if err != nil {
		return e, fmt.Errorf("parsing html: %w", err)
	}

	dir := r.layout.OutputDir(e.rc.Campaign)

	var linkErr error

	doc.Find(`link[rel="stylesheet"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !isLocalRef(href) {
			return true
		}

		u, err := url.Parse(href)
		if err != nil {
			linkErr = fmt.Errorf("stylesheet %q: %w", href, err)
			return false
		}

		path := filepath.Join(dir, filepath.FromSlash(u.Path))

		if rel, relErr := filepath.Rel(dir, path); relErr != nil || rel == ".." ||
			strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			linkErr = fmt.Errorf("stylesheet %q: %w", href, output.ErrOutsideRoot)
			return false
		}

		src, err := os.ReadFile(path) //nolint:gosec // confined to the campaign output directory
		if err != nil {
			linkErr = fmt.Errorf("stylesheet %q: %w", href, err)
			return false
		}

		s.ReplaceWithHtml("<style>" + string(src) + "</style>")

		return true
	})

	if linkErr != nil {
		return e, linkErr
	}

	out, err := doc.Html()
	if err != nil {
		return e, fmt.Errorf("serializing html: %w", err)
	}

	e.html = out

	return e, nil
}

func isLocalRef(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "//") || strings.HasPrefix(ref, "data:") {
		return false
	}

	u, err := url.Parse(ref)

	return err == nil && u.Scheme == "" && u.Host == ""
}

func inlineCSS(_ context.Context, e email) (email, error) {
	prem, err := premailer.NewPremailerFromString(e.html, premailer.NewOptions())
	if err != nil {
		return e, fmt.Errorf("parsing html: %w", err)
	}

	out, err := prem.Transform()
	if err != nil {
		return e, fmt.Errorf("inlining css: %w", err)
	}

	e.html = out

	return e, nil
}

func (r *Renderer) minifyHTML(_ context.Context, e email) (email, error) {
	out, err := r.minifier.String("text/html", e.html)
	if err != nil {
		return e, fmt.Errorf("minifying html: %w", err)
	}

	e.html = out

	return e, nil
}

func (r *Renderer) replacePlaceholders(_ context.Context, e email) (email, error) {
	e.html = r.placeholders.Replace(e.html)
	return e, nil
}

func newMinifier() *minify.M {
	m := minify.New()
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
		KeepWhitespace:   true,
	})
	m.AddFunc("text/css", css.Minify)

	return m
}
