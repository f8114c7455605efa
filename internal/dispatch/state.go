package dispatch

import (
	"slices"
	"strings"
	"sync"
)

// State is the render state of one campaign target.
type State int

// Render states. Failed returns to Clean on the next successful render.
const (
	Clean State = iota
	Rendering
	Failed
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Rendering:
		return "rendering"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Target names tracked besides individual artifacts.
const (
	TargetEmail  = "email"
	TargetStyles = "styles"
	TargetImages = "images"
)

type stateKey struct {
	campaign string
	target   string
}

// Failure is a target left in the Failed state.
type Failure struct {
	Campaign string
	Target   string
	Err      error
}

// StateTracker records render state per (campaign, target), where target
// is an artifact path or one of the Target names.
type StateTracker struct {
	mu     sync.RWMutex
	states map[stateKey]State
	errs   map[stateKey]error
}

// NewStateTracker returns an empty tracker; unknown targets are Clean.
func NewStateTracker() *StateTracker {
	return &StateTracker{
		states: map[stateKey]State{},
		errs:   map[stateKey]error{},
	}
}

// State returns the state of target in campaign.
func (t *StateTracker) State(campaign, target string) State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.states[stateKey{campaign, target}]
}

// snapshot returns the state and error of target for a later restore.
func (t *StateTracker) snapshot(campaign, target string) (State, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	k := stateKey{campaign, target}

	return t.states[k], t.errs[k]
}

// restore puts target back into a state taken by snapshot.
func (t *StateTracker) restore(campaign, target string, s State, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := stateKey{campaign, target}
	t.states[k] = s

	if err != nil {
		t.errs[k] = err
	} else {
		delete(t.errs, k)
	}
}

func (t *StateTracker) begin(campaign string, targets ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, target := range targets {
		t.states[stateKey{campaign, target}] = Rendering
	}
}

func (t *StateTracker) succeed(campaign string, targets ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, target := range targets {
		k := stateKey{campaign, target}
		t.states[k] = Clean
		delete(t.errs, k)
	}
}

func (t *StateTracker) fail(campaign, target string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := stateKey{campaign, target}
	t.states[k] = Failed
	t.errs[k] = err
}

func (t *StateTracker) forget(campaign, target string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := stateKey{campaign, target}
	delete(t.states, k)
	delete(t.errs, k)
}

// Failures lists every Failed target, sorted by campaign then target.
func (t *StateTracker) Failures() []Failure {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Failure

	for k, s := range t.states {
		if s == Failed {
			out = append(out, Failure{Campaign: k.campaign, Target: k.target, Err: t.errs[k]})
		}
	}

	slices.SortFunc(out, func(a, b Failure) int {
		if c := strings.Compare(a.Campaign, b.Campaign); c != 0 {
			return c
		}

		return strings.Compare(a.Target, b.Target)
	})

	return out
}
