// Package preview serves the build output over HTTP with live reload.
//
// The index page lists every rendered page from the manifest and shows the
// selected one in an iframe. Browsers subscribe to /_reload, a datastar
// server-sent event stream: each dispatcher notification re-renders the
// page picker and reloads the iframe when it shows a page of the changed
// campaign.
package preview
