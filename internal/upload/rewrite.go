package upload

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// URLFunc returns the public URL of image rel of campaign.
type URLFunc func(campaign, rel string) string

var (
	imageAttrs = []string{"src", "background"}
	styleURL   = regexp.MustCompile(`url\(\s*(['"]?)((?:\./)?images/[^'")\s]+)(['"]?)\s*\)`)
)

// RewriteImageURLs points relative image references (images/... in src and
// background attributes and in inline style url()) at their public URLs.
// HTML without such references is returned unchanged.
func RewriteImageURLs(html, campaign string, urlFn URLFunc) (string, error) {
	if !strings.Contains(html, imagesSegment+"/") {
		return html, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}

	changed := false

	for _, attr := range imageAttrs {
		doc.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
			v, _ := s.Attr(attr)
			if rel, ok := localImage(v); ok {
				s.SetAttr(attr, urlFn(campaign, rel))
				changed = true
			}
		})
	}

	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr("style")

		out := styleURL.ReplaceAllStringFunc(v, func(m string) string {
			sub := styleURL.FindStringSubmatch(m)
			rel, _ := localImage(sub[2])

			return "url(" + sub[1] + urlFn(campaign, rel) + sub[3] + ")"
		})

		if out != v {
			s.SetAttr("style", out)
			changed = true
		}
	})

	if !changed {
		return html, nil
	}

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serializing html: %w", err)
	}

	return out, nil
}

// localImage returns the path below images/ of a relative image reference.
func localImage(ref string) (string, bool) {
	ref = strings.TrimPrefix(ref, "./")
	if !strings.HasPrefix(ref, imagesSegment+"/") {
		return "", false
	}

	rel := path.Clean(strings.TrimPrefix(ref, imagesSegment+"/"))
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}

	return rel, true
}
