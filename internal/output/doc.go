// Package output provides the artifact store that rendered campaigns are
// written to, and the manifest the preview UI reads.
//
// The package is organized around two concerns:
//
//   - Storage (store.go): the [Store] interface and its [FileStore]
//     implementation. Writes are atomic (temp file + rename), deletes of
//     missing artifacts succeed, and paths cannot escape the root. With
//     [WithDiff] the store reports a unified diff for every HTML artifact it
//     overwrites with new content.
//
//   - Manifest (manifest.go): a deterministic JSON listing of every HTML
//     artifact, grouped by campaign.
package output
