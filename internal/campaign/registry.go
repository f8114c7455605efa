package campaign

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
)

// ListCampaigns returns the immediate subdirectories of root, sorted.
// Hidden directories are skipped.
func ListCampaigns(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: listing campaigns in %s: %v", ErrIO, root, err)
	}

	names := make([]string, 0, len(entries))

	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}

		names = append(names, e.Name())
	}

	slices.Sort(names)

	return names, nil
}

// Registry tracks the set of known campaigns. It is safe for concurrent use.
type Registry struct {
	root   string
	logger *slog.Logger

	mu    sync.RWMutex
	known map[string]struct{}
}

// NewRegistry creates a registry for the campaign folders under root. The
// registry starts empty; call Rescan to populate it.
func NewRegistry(root string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		root:   root,
		logger: logger,
		known:  make(map[string]struct{}),
	}
}

// Rescan lists root again and replaces the known set. On failure the
// previous set is kept and the error is returned for the caller to decide
// whether it is fatal.
func (r *Registry) Rescan() error {
	names, err := ListCampaigns(r.root)
	if err != nil {
		r.logger.Warn("campaign rescan failed, keeping previous set",
			slog.String("root", r.root), slog.Any("error", err))

		return err
	}

	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
	}

	r.mu.Lock()
	r.known = known
	r.mu.Unlock()

	return nil
}

// Add records a campaign folder that appeared under the root.
func (r *Registry) Add(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.known[name]; ok {
		return false
	}

	r.known[name] = struct{}{}

	return true
}

// Remove stops tracking a campaign whose folder disappeared. Output is left
// untouched.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.known[name]; !ok {
		return false
	}

	delete(r.known, name)

	return true
}

// Has reports whether name is a known campaign.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.known[name]

	return ok
}

// Campaigns returns a sorted snapshot of the known campaigns.
func (r *Registry) Campaigns() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.known))

	for n := range r.known {
		names = append(names, n)
	}
	r.mu.RUnlock()

	slices.Sort(names)

	return names
}

// Root returns the directory the registry scans.
func (r *Registry) Root() string {
	return r.root
}
