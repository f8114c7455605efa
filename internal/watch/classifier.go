package watch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hupe1980/mailsmith/internal/campaign"
)

// Classifier maps event paths onto campaigns.
type Classifier struct {
	root string
}

// NewClassifier returns a classifier for the source tree of layout.
func NewClassifier(layout campaign.Layout) *Classifier {
	return &Classifier{root: absClean(layout.SourceDir)}
}

// Classify resolves ev to its campaign and relative path. Both halves of a
// rename are resolved; halves in different campaigns fail with
// ErrCrossCampaignRename.
func (c *Classifier) Classify(ev Event) (ClassifiedChange, error) {
	name, rel, err := c.locate(ev.Path)
	if err != nil {
		return ClassifiedChange{}, err
	}

	change := ClassifiedChange{Campaign: name, RelativePath: rel, Kind: ev.Kind}

	if ev.Kind != Renamed {
		return change, nil
	}

	oldName, oldRel, err := c.locate(ev.OldPath)
	if err != nil {
		return ClassifiedChange{}, err
	}

	if oldName != name {
		return ClassifiedChange{}, fmt.Errorf("%w: %s -> %s", ErrCrossCampaignRename, oldName, name)
	}

	change.OldRelativePath = oldRel

	return change, nil
}

// locate finds the emails or shared segment below the source root. The
// segment after emails is the campaign; the shared tree maps to the
// synthetic campaign.Shared.
func (c *Classifier) locate(path string) (string, string, error) {
	rel, err := filepath.Rel(c.root, absClean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", "", fmt.Errorf("%w: %s", ErrClassification, path)
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")

	switch parts[0] {
	case campaign.EmailsTag:
		if len(parts) < 2 {
			return "", "", fmt.Errorf("%w: %s", ErrClassification, path)
		}

		return parts[1], filepath.Join(parts[2:]...), nil
	case campaign.SharedTag:
		return campaign.Shared, filepath.Join(parts[1:]...), nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrClassification, path)
	}
}

func absClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}

	return filepath.Clean(p)
}
