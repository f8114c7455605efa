package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel))) //nolint:gosec // test
	require.NoError(t, err)

	return string(data)
}

// newSource writes a two-campaign project and returns its src and dist dirs.
func newSource(t *testing.T) (src, dist string) {
	t.Helper()

	src = t.TempDir()
	dist = filepath.Join(t.TempDir(), "dist")

	writeFile(t, src, "shared/templates/layouts/base.hbs",
		"<html><body>{{ .body }}[mso_open]<table></table>[mso_close]</body></html>")
	writeFile(t, src, "emails/promo-a/templates/pages/welcome.hbs", "<p>Welcome to [brand]</p>")
	writeFile(t, src, "emails/promo-b/templates/pages/sale.hbs", "---\ntitle: Sale\n---\n<p>{{ .title }}</p>")

	return src, dist
}

// ---------------------------------------------------------------------------
// build
// ---------------------------------------------------------------------------

func TestBuildCommand(t *testing.T) {
	src, dist := newSource(t)

	stdout, _, err := executeCommand("--src", src, "--dist", dist, "build")
	require.NoError(t, err)

	assert.Contains(t, stdout, "built 2 page(s) from 2 campaign(s)")

	welcome := readFile(t, dist, "promo-a/welcome.html")
	assert.Contains(t, welcome, "<p>Welcome to [brand]</p>")
	assert.Contains(t, welcome, "<!--[if mso]>", "placeholders substituted")
	assert.Contains(t, readFile(t, dist, "promo-b/sale.html"), "<p>Sale</p>")
	assert.Contains(t, readFile(t, dist, "manifest.json"), `"promo-b/sale.html"`)
}

func TestBuildCommand_KeepsExistingOutput(t *testing.T) {
	src, dist := newSource(t)
	writeFile(t, dist, "old/stale.html", "<html></html>")

	_, _, err := executeCommand("--src", src, "--dist", dist, "build")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dist, "old", "stale.html"))
}

func TestBuildCommand_RenderConfig(t *testing.T) {
	src, dist := newSource(t)

	cfgFile := filepath.Join(t.TempDir(), "mailsmith.yaml")
	writeFile(t, filepath.Dir(cfgFile), filepath.Base(cfgFile),
		"log-level: warn\nrender:\n  placeholders:\n    \"[brand]\": ACME\n")

	_, _, err := executeCommand("--config", cfgFile, "--src", src, "--dist", dist, "build")
	require.NoError(t, err)

	assert.Contains(t, readFile(t, dist, "promo-a/welcome.html"), "<p>Welcome to ACME</p>")
}

func TestBuildCommand_InvalidRenderConfig(t *testing.T) {
	src, dist := newSource(t)

	cfgFile := filepath.Join(t.TempDir(), "mailsmith.yaml")
	writeFile(t, filepath.Dir(cfgFile), filepath.Base(cfgFile), "render:\n  defaultLayout: ../escape\n")

	_, _, err := executeCommand("--config", cfgFile, "--src", src, "--dist", dist, "build")
	requireExitCode(t, err, ExitUsage)
	assert.Contains(t, err.Error(), "render.defaultLayout")
}

func TestBuildCommand_RenderFailure(t *testing.T) {
	src, dist := newSource(t)
	writeFile(t, src, "emails/promo-b/templates/pages/sale.hbs", "---\nlayout: missing\n---\n<p>x</p>")

	_, _, err := executeCommand("--src", src, "--dist", dist, "--concurrency", "1", "build")
	requireExitCode(t, err, ExitFailure)
	assert.Contains(t, err.Error(), `unknown layout "missing"`)
}

func TestBuildCommand_MissingSource(t *testing.T) {
	_, _, err := executeCommand("--src", filepath.Join(t.TempDir(), "nope"), "--dist", t.TempDir(), "build")
	requireExitCode(t, err, ExitUsage)
	assert.Contains(t, err.Error(), "invalid source directory")
}

func TestBuildCommand_Production(t *testing.T) {
	t.Setenv("MAILSMITH_S3_BUCKET", "")

	src, dist := newSource(t)

	_, stderr, err := executeCommand("--production", "--src", src, "--dist", dist, "build")
	require.NoError(t, err)

	assert.Contains(t, stderr, "without an upload bucket")
	assert.FileExists(t, filepath.Join(dist, "promo-a", "welcome.html"))
}

// ---------------------------------------------------------------------------
// clean and the default command
// ---------------------------------------------------------------------------

func TestCleanCommand(t *testing.T) {
	dist := filepath.Join(t.TempDir(), "dist")
	writeFile(t, dist, "promo-a/welcome.html", "<html></html>")

	_, _, err := executeCommand("--dist", dist, "clean")
	require.NoError(t, err)

	assert.NoDirExists(t, dist)
}

func TestRootCommand_CleansThenBuilds(t *testing.T) {
	src, dist := newSource(t)
	writeFile(t, dist, "old/stale.html", "<html></html>")

	_, _, err := executeCommand("--src", src, "--dist", dist)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dist, "old", "stale.html"))
	assert.FileExists(t, filepath.Join(dist, "promo-a", "welcome.html"))
	assert.FileExists(t, filepath.Join(dist, "promo-b", "sale.html"))
}

// ---------------------------------------------------------------------------
// serve helpers
// ---------------------------------------------------------------------------

func TestPreviewURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/", previewURL(8080, ""))
	assert.Equal(t, "http://localhost:3000/?page=promo-a%2Fwelcome.html", previewURL(3000, "promo-a/welcome.html"))
}
