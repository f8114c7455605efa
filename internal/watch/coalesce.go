package watch

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// pathState accumulates the ops seen for one path within a batch.
type pathState struct {
	created bool
	written bool
	gone    bool // removed or renamed away, last seen state
	renamed bool // left by rename (not removal)
	existed bool // removed or renamed before a later create
}

// Coalesce folds a batch of raw events into one Event per path, in order of
// first appearance:
//
//	Create (+Write)                  → Added
//	Write                            → Changed
//	Remove                           → Deleted
//	Remove/Rename then Create        → Changed
//	Rename A + Create B (same dir
//	and extension)                   → Renamed A → B
//	unpaired Rename                  → Deleted
//
// A path created and removed within the batch yields nothing.
func Coalesce(batch []fsnotify.Event) []Event {
	order := []string{}
	states := map[string]*pathState{}

	for _, ev := range batch {
		st, ok := states[ev.Name]
		if !ok {
			st = &pathState{}
			states[ev.Name] = st
			order = append(order, ev.Name)
		}

		switch {
		case ev.Has(fsnotify.Create):
			if st.gone && !st.created {
				st.existed = true
			}

			st.created = st.created || !st.existed
			st.gone = false
			st.renamed = false
		case ev.Has(fsnotify.Remove):
			st.gone = true
			st.renamed = false
		case ev.Has(fsnotify.Rename):
			st.gone = true
			st.renamed = true
		case ev.Has(fsnotify.Write):
			st.written = true
		}
	}

	out := make([]Event, 0, len(order))
	paired := map[string]bool{}

	for _, p := range order {
		st := states[p]
		if !st.renamed || !st.gone {
			continue
		}

		for _, q := range order {
			if q == p || paired[q] || !states[q].created || states[q].gone {
				continue
			}

			if renamePair(p, q) {
				paired[p], paired[q] = true, true
				out = append(out, Event{Path: q, Kind: Renamed, OldPath: p})

				break
			}
		}
	}

	renames := out
	out = make([]Event, 0, len(order))

	for _, p := range order {
		if paired[p] {
			if ev, ok := renameFor(renames, p); ok {
				out = append(out, ev)
			}

			continue
		}

		st := states[p]

		switch {
		case st.gone && st.created:
			// transient file
		case st.gone:
			out = append(out, Event{Path: p, Kind: Deleted})
		case st.created:
			out = append(out, Event{Path: p, Kind: Added})
		case st.existed || st.written:
			out = append(out, Event{Path: p, Kind: Changed})
		}
	}

	return out
}

// renameFor returns the rename whose old half is p, so each pair is emitted
// once at the position of its old path.
func renameFor(renames []Event, p string) (Event, bool) {
	for _, ev := range renames {
		if ev.OldPath == p {
			return ev, true
		}
	}

	return Event{}, false
}

func renamePair(oldPath, newPath string) bool {
	return filepath.Dir(oldPath) == filepath.Dir(newPath) &&
		strings.EqualFold(filepath.Ext(oldPath), filepath.Ext(newPath))
}
