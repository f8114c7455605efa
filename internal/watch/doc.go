// Package watch turns file system activity below the source tree into
// classified changes. Raw fsnotify events are batched until the tree has
// been quiet for the debounce interval, coalesced per path (pairing
// rename halves where possible) and classified into a campaign plus a path
// relative to the campaign folder.
package watch
