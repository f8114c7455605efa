package dispatch

import (
	"fmt"
	"slices"

	"github.com/hupe1980/mailsmith/internal/campaign"
	"github.com/hupe1980/mailsmith/internal/render"
	"github.com/hupe1980/mailsmith/internal/watch"
)

// Op is a dispatcher action.
type Op int

// Dispatcher actions.
const (
	OpDeleteArtifact Op = iota + 1
	OpInitContext
	OpRender
	OpProcessImages
	OpInvalidateContext
)

func (o Op) String() string {
	switch o {
	case OpDeleteArtifact:
		return "delete"
	case OpInitContext:
		return "init-context"
	case OpRender:
		return "render"
	case OpProcessImages:
		return "process-images"
	case OpInvalidateContext:
		return "invalidate-context"
	default:
		return "unknown"
	}
}

// Action is one step of a plan.
type Action struct {
	Op       Op
	Campaign string
	// Path is the artifact to delete (OpDeleteArtifact).
	Path string
	// Kind is what to render (OpRender).
	Kind render.Kind
	// Images restricts OpProcessImages; empty means every image.
	Images []render.ImageRef
}

func (a Action) String() string {
	switch a.Op {
	case OpDeleteArtifact:
		return fmt.Sprintf("%s %s", a.Op, a.Path)
	case OpRender:
		return fmt.Sprintf("%s %s %s", a.Op, a.Campaign, a.Kind)
	default:
		return fmt.Sprintf("%s %s", a.Op, a.Campaign)
	}
}

// Unit is the ordered work a change causes in one campaign.
type Unit struct {
	Campaign string
	Actions  []Action
}

// Plan returns the work caused by change. Campaign-scoped changes yield at
// most one unit; shared changes yield one unit per campaign in campaigns,
// in sorted order. Deletes precede every other action of a unit.
func Plan(change watch.ClassifiedChange, campaigns []string) []Unit {
	targets := []string{change.Campaign}
	shared := change.Campaign == campaign.Shared

	if shared {
		targets = slices.Sorted(slices.Values(campaigns))
	}

	var units []Unit

	for _, c := range targets {
		var actions []Action
		if shared {
			actions = planShared(change, c)
		} else {
			actions = planCampaign(change, c)
		}

		if len(actions) > 0 {
			units = append(units, Unit{Campaign: c, Actions: orderDeletesFirst(actions)})
		}
	}

	return units
}

func planCampaign(change watch.ClassifiedChange, c string) []Action {
	kind := campaign.KindOf(change.RelativePath)
	oldKind := campaign.KindOf(change.OldRelativePath)

	switch {
	case kind.IsTemplate() || (change.Kind == watch.Renamed && oldKind.IsTemplate()):
		switch change.Kind {
		case watch.Added:
			return []Action{initContext(c), renderKind(c, render.KindEmail)}
		case watch.Renamed:
			var actions []Action
			if oldKind == campaign.KindPage {
				actions = append(actions, deleteArtifact(c, campaign.PageArtifact(c, change.OldRelativePath)))
			}

			return append(actions, initContext(c), renderKind(c, render.KindEmail))
		case watch.Deleted:
			if kind == campaign.KindPage {
				return []Action{deleteArtifact(c, campaign.PageArtifact(c, change.RelativePath)), invalidate(c)}
			}

			return []Action{invalidate(c)}
		case watch.Changed:
			return []Action{renderKind(c, render.KindEmail)}
		}
	case kind == campaign.KindStyle:
		switch change.Kind {
		case watch.Added, watch.Renamed, watch.Changed:
			return []Action{renderKind(c, render.KindStyles)}
		}
	case kind == campaign.KindImage || (change.Kind == watch.Renamed && oldKind == campaign.KindImage):
		ref := []render.ImageRef{{Origin: c, Rel: change.RelativePath}}

		switch change.Kind {
		case watch.Added, watch.Changed:
			return []Action{processImages(c, ref)}
		case watch.Renamed:
			actions := []Action{deleteArtifact(c, campaign.ImageArtifact(c, change.OldRelativePath))}
			if kind == campaign.KindImage {
				actions = append(actions, processImages(c, ref))
			}

			return actions
		case watch.Deleted:
			return []Action{deleteArtifact(c, campaign.ImageArtifact(c, change.RelativePath))}
		}
	}

	return nil
}

func planShared(change watch.ClassifiedChange, c string) []Action {
	kind := campaign.KindOf(change.RelativePath)
	oldKind := campaign.KindOf(change.OldRelativePath)

	switch {
	case kind.IsTemplate() || (change.Kind == watch.Renamed && oldKind.IsTemplate()):
		return []Action{initContext(c), renderKind(c, render.KindBoth)}
	case kind == campaign.KindStyle:
		if change.Kind == watch.Deleted {
			return nil
		}

		return []Action{renderKind(c, render.KindBoth)}
	case kind == campaign.KindImage || (change.Kind == watch.Renamed && oldKind == campaign.KindImage):
		switch change.Kind {
		case watch.Renamed:
			return []Action{deleteArtifact(c, campaign.ImageArtifact(c, change.OldRelativePath)), processImages(c, nil)}
		case watch.Deleted:
			return []Action{deleteArtifact(c, campaign.ImageArtifact(c, change.RelativePath)), processImages(c, nil)}
		default:
			return []Action{processImages(c, nil)}
		}
	}

	return nil
}

func orderDeletesFirst(actions []Action) []Action {
	slices.SortStableFunc(actions, func(a, b Action) int {
		switch {
		case a.Op == OpDeleteArtifact && b.Op != OpDeleteArtifact:
			return -1
		case a.Op != OpDeleteArtifact && b.Op == OpDeleteArtifact:
			return 1
		default:
			return 0
		}
	})

	return actions
}

func initContext(c string) Action { return Action{Op: OpInitContext, Campaign: c} }

func invalidate(c string) Action { return Action{Op: OpInvalidateContext, Campaign: c} }

func renderKind(c string, k render.Kind) Action {
	return Action{Op: OpRender, Campaign: c, Kind: k}
}

func deleteArtifact(c, path string) Action {
	return Action{Op: OpDeleteArtifact, Campaign: c, Path: path}
}

func processImages(c string, refs []render.ImageRef) Action {
	return Action{Op: OpProcessImages, Campaign: c, Images: refs}
}

// fullBuild is the work for a campaign seen for the first time.
func fullBuild(c string) Unit {
	return Unit{Campaign: c, Actions: []Action{
		initContext(c),
		renderKind(c, render.KindBoth),
		processImages(c, nil),
	}}
}
