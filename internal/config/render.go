package config

import (
	"fmt"
	"os"
	"regexp"

	sigsyaml "sigs.k8s.io/yaml"
)

// RenderConfig holds template rendering overrides loaded from the config
// file (.mailsmith.yaml). It is parsed from the raw file bytes because viper
// lower-cases map keys, and placeholder tokens are case-sensitive.
type RenderConfig struct {
	// DefaultLayout is the layout applied to pages without a layout key in
	// their front matter. Defaults to "base".
	DefaultLayout string `json:"defaultLayout,omitempty"`

	// Placeholders adds to (or overrides) the built-in placeholder token table.
	Placeholders map[string]string `json:"placeholders,omitempty"`
}

// DefaultLayoutName is used when neither the page nor the config names a layout.
const DefaultLayoutName = "base"

// ParseRenderConfig parses the render section of raw config file bytes.
func ParseRenderConfig(data []byte) (*RenderConfig, error) {
	var raw struct {
		Render RenderConfig `json:"render"`
	}

	if err := sigsyaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing render config: %w", err)
	}

	cfg := raw.Render
	if cfg.DefaultLayout == "" {
		cfg.DefaultLayout = DefaultLayoutName
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadRenderConfig reads the render section from path. An empty path yields
// the defaults.
func LoadRenderConfig(path string) (*RenderConfig, error) {
	if path == "" {
		return &RenderConfig{DefaultLayout: DefaultLayoutName}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // user-supplied config path
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	return ParseRenderConfig(data)
}

// placeholderPattern matches a bracketed token such as [mso_open].
var placeholderPattern = regexp.MustCompile(`^\[[A-Za-z0-9_-]+\]$`)

// layoutPattern restricts layout names to plain file stems.
var layoutPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate checks the render config for correctness.
func (c *RenderConfig) Validate() error {
	if !layoutPattern.MatchString(c.DefaultLayout) {
		return fmt.Errorf("render.defaultLayout: %q is not a valid layout name", c.DefaultLayout)
	}

	for token := range c.Placeholders {
		if !placeholderPattern.MatchString(token) {
			return fmt.Errorf("render.placeholders[%s]: token must match %s", token, placeholderPattern.String())
		}
	}

	return nil
}
