// Package render turns campaign sources into artifacts: HTML emails,
// compiled stylesheets and optimized images.
//
// Rendering one campaign starts from a [Context], the parsed partials,
// layouts, pages and data of the campaign merged over the shared tree. A
// Context is expensive to build and is meant to be reused across renders
// until its sources change.
//
// Email output runs through a [Pipeline] of named stages:
//
//	template → stylesheets → inline → minify → placeholders → image-urls
//
// The first failing stage stops the pipeline; its error is wrapped in a
// [StageError] naming the stage, and surfaces from [Renderer.Render] as a
// [RenderError].
package render
