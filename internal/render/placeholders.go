package render

import (
	"maps"
	"slices"
	"strings"
)

// DefaultPlaceholders maps bracket tokens to the conditional comments mail
// clients understand. The tokens survive templating, inlining and
// minification untouched and are swapped in as the last text pass.
var DefaultPlaceholders = map[string]string{
	"[mso_open]":      "<!--[if mso]>",
	"[mso_close]":     "<![endif]-->",
	"[not_mso_open]":  "<!--[if !mso]><!-->",
	"[not_mso_close]": "<!--<![endif]-->",
	"[mso_ie_open]":   "<!--[if (gte mso 9)|(IE)]>",
	"[mso_ie_close]":  "<![endif]-->",
	"[ie_open]":       "<!--[if IE]>",
	"[ie_close]":      "<![endif]-->",
}

// Placeholders replaces literal tokens in rendered HTML.
type Placeholders struct {
	r *strings.Replacer
}

// NewPlaceholders builds a token table from DefaultPlaceholders overlaid
// with extra. Longer tokens win when one token is a prefix of another.
func NewPlaceholders(extra map[string]string) *Placeholders {
	table := maps.Clone(DefaultPlaceholders)
	maps.Copy(table, extra)

	tokens := slices.Collect(maps.Keys(table))
	slices.SortFunc(tokens, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}

		return strings.Compare(a, b)
	})

	pairs := make([]string, 0, 2*len(tokens))
	for _, t := range tokens {
		pairs = append(pairs, t, table[t])
	}

	return &Placeholders{r: strings.NewReplacer(pairs...)}
}

// Replace substitutes every token in s.
func (p *Placeholders) Replace(s string) string {
	return p.r.Replace(s)
}
