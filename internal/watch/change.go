package watch

import (
	"errors"
	"fmt"
)

// ChangeKind is the normalized kind of a file system change.
type ChangeKind int

// Change kinds.
const (
	Added ChangeKind = iota + 1
	Renamed
	Deleted
	Changed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Renamed:
		return "renamed"
	case Deleted:
		return "deleted"
	case Changed:
		return "changed"
	default:
		return "unknown"
	}
}

// Event is one coalesced change of a path. OldPath is set for Renamed.
type Event struct {
	Path    string
	Kind    ChangeKind
	OldPath string
}

// ClassifiedChange is an Event resolved to its campaign. RelativePath is
// relative to the campaign folder (or to the shared tree when Campaign is
// campaign.Shared); it is empty when the event concerns the campaign folder
// itself.
type ClassifiedChange struct {
	Campaign        string
	RelativePath    string
	Kind            ChangeKind
	OldRelativePath string
}

func (c ClassifiedChange) String() string {
	if c.Kind == Renamed {
		return fmt.Sprintf("%s %s/%s -> %s", c.Kind, c.Campaign, c.OldRelativePath, c.RelativePath)
	}

	return fmt.Sprintf("%s %s/%s", c.Kind, c.Campaign, c.RelativePath)
}

// Classification errors.
var (
	// ErrClassification reports an event outside the emails/ and shared/
	// trees.
	ErrClassification = errors.New("event outside the source tree")

	// ErrCrossCampaignRename reports a rename whose halves belong to
	// different campaigns.
	ErrCrossCampaignRename = errors.New("rename across campaigns")
)
