package render

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var fmDelim = []byte("---")

// splitFrontMatter separates a leading YAML block delimited by "---" lines
// from the template body. Sources without front matter return a nil map.
func splitFrontMatter(src []byte) (map[string]any, []byte, error) {
	src = bytes.TrimPrefix(src, []byte("\ufeff"))

	first, rest, ok := cutLine(src)
	if !ok || !bytes.Equal(bytes.TrimSpace(first), fmDelim) {
		return nil, src, nil
	}

	var block []byte

	for len(rest) > 0 {
		var line []byte

		line, rest, _ = cutLine(rest)
		if bytes.Equal(bytes.TrimSpace(line), fmDelim) {
			meta := map[string]any{}
			if err := yaml.Unmarshal(block, &meta); err != nil {
				return nil, nil, fmt.Errorf("parsing front matter: %w", err)
			}

			return meta, rest, nil
		}

		block = append(block, line...)
		block = append(block, '\n')
	}

	return nil, nil, fmt.Errorf("parsing front matter: missing closing %q", fmDelim)
}

func cutLine(b []byte) (line, rest []byte, found bool) {
	line, rest, found = bytes.Cut(b, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))

	return line, rest, found
}
