package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pmezard/go-difflib/difflib"
)

// ErrOutsideRoot is returned for artifact paths that escape the store root.
var ErrOutsideRoot = errors.New("path escapes output root")

// Store is the interface for artifact destinations. Paths are relative to
// the store root, e.g. "promo-a/welcome.html".
type Store interface {
	// Write creates or replaces the artifact at rel.
	Write(rel string, data []byte) error
	// Delete removes the artifact at rel. A missing artifact is not an error.
	Delete(rel string) error
	// Exists reports whether an artifact is present at rel.
	Exists(rel string) bool
	// Root returns the output root directory.
	Root() string
}

// FileStore writes artifacts below a root directory, creating parent
// directories as needed. Writes go through a temporary file and a rename so
// readers never observe a partially written artifact.
type FileStore struct {
	root   string
	perm   os.FileMode
	logger *slog.Logger

	diffMu sync.Mutex
	diff   io.Writer
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithPermissions overrides the default file permissions (0644).
func WithPermissions(perm os.FileMode) FileStoreOption {
	return func(fs *FileStore) {
		fs.perm = perm
	}
}

// WithLogger sets a logger for the FileStore.
func WithLogger(logger *slog.Logger) FileStoreOption {
	return func(fs *FileStore) {
		fs.logger = logger
	}
}

// WithDiff makes the store print a unified diff to w whenever an existing
// HTML artifact is overwritten with different content.
func WithDiff(w io.Writer) FileStoreOption {
	return func(fs *FileStore) {
		fs.diff = w
	}
}

// NewFileStore creates a store rooted at root.
func NewFileStore(root string, opts ...FileStoreOption) *FileStore {
	fs := &FileStore{
		root:   filepath.Clean(root),
		perm:   0o644,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(fs)
	}

	return fs
}

// Root returns the output root directory.
func (s *FileStore) Root() string {
	return s.root
}

// Write creates parent directories and atomically replaces the artifact.
func (s *FileStore) Write(rel string, data []byte) error {
	path, err := s.resolve(rel)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	if s.diff != nil && strings.EqualFold(filepath.Ext(path), ".html") {
		s.reportDiff(rel, path, data)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("writing file %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing file %s: %w", path, err)
	}

	if err := os.Chmod(tmpName, s.perm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing file %s: %w", path, err)
	}

	s.logger.Debug("artifact written", slog.String("path", rel), slog.Int("bytes", len(data)))

	return nil
}

// Delete removes the artifact at rel.
func (s *FileStore) Delete(rel string) error {
	path, err := s.resolve(rel)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("deleting file %s: %w", path, err)
	}

	s.logger.Debug("artifact deleted", slog.String("path", rel))

	return nil
}

// Exists reports whether rel is present.
func (s *FileStore) Exists(rel string) bool {
	path, err := s.resolve(rel)
	if err != nil {
		return false
	}

	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

// Clean removes the output root and everything below it.
func (s *FileStore) Clean() error {
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("removing output directory %s: %w", s.root, err)
	}

	return nil
}

func (s *FileStore) resolve(rel string) (string, error) {
	clean := filepath.Clean(rel)
	if filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}

	return filepath.Join(s.root, clean), nil
}

func (s *FileStore) reportDiff(rel, path string, data []byte) {
	old, err := os.ReadFile(path) //nolint:gosec // path is confined to the store root
	if err != nil || bytes.Equal(old, data) {
		return
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(breakTags(string(old))),
		B:        difflib.SplitLines(breakTags(string(data))),
		FromFile: "a/" + filepath.ToSlash(rel),
		ToFile:   "b/" + filepath.ToSlash(rel),
		Context:  2,
	})
	if err != nil || text == "" {
		return
	}

	s.diffMu.Lock()
	defer s.diffMu.Unlock()

	_, _ = io.WriteString(s.diff, text)
}

// breakTags puts each tag on its own line so diffs of minified HTML stay
// readable.
func breakTags(html string) string {
	return strings.ReplaceAll(html, "><", ">\n<")
}
