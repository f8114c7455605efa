// Package campaign models the on-disk layout of an email project: the
// campaign folders under src/emails, the shared tree under src/shared, the
// kinds of source files they hold, and the deterministic output paths those
// files render to.
//
// A campaign is identified by its folder name. The [Registry] keeps the set
// of known campaigns current across watch-triggered rescans; artifact path
// derivation ([PageArtifact], [ImageArtifact], [StyleArtifact]) is pure and
// shared by the renderer and the incremental dispatcher so both agree on
// where a source file lands.
package campaign
