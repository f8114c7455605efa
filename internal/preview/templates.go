package preview

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/hupe1980/mailsmith/internal/output"
)

// reloadScript restores the picker selection after a patch and reloads the
// preview frame when it shows a page of the campaign given as its
// JSON-encoded argument.
const reloadScript = `(function(c){var f=document.getElementById("preview");if(!f){location.reload();return;}` +
	`var p=document.getElementById("picker");if(p&&f.dataset.page){p.value=f.dataset.page;}` +
	`if(f.dataset.campaign===c){f.contentWindow.location.reload();}})(%s)`

type indexData struct {
	Manifest *output.Manifest
	Selected string
}

var funcs = template.FuncMap{
	"campaignOf": campaignOf,
}

var pickerTemplate = template.Must(template.New("picker").Funcs(funcs).Parse(
	`<select id="picker" onchange="mailsmithShow(this.value)">` +
		`{{range .Manifest.Campaigns}}<optgroup label="{{.Name}}">` +
		`{{range .Pages}}<option value="{{.}}"{{if eq . $.Selected}} selected{{end}}>{{.}}</option>{{end}}` +
		`</optgroup>{{end}}</select>`))

var indexTemplate = template.Must(template.Must(pickerTemplate.Clone()).New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>mailsmith preview</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"></script>
<style>
body{margin:0;font-family:sans-serif;display:flex;flex-direction:column;height:100vh}
header{padding:.5rem 1rem;background:#222;color:#eee}
iframe{flex:1;border:0;width:100%}
</style>
<script>
function mailsmithShow(page){
  var f=document.getElementById("preview");
  f.src="/dist/"+page;
  f.dataset.page=page;
  f.dataset.campaign=page.split("/")[0];
  history.replaceState(null,"","?page="+encodeURIComponent(page));
}
</script>
</head>
<body data-init="@get('/_reload')">
<header>{{template "picker" .}}</header>
{{if .Selected}}<iframe id="preview" src="/dist/{{.Selected}}" data-page="{{.Selected}}" data-campaign="{{campaignOf .Selected}}"></iframe>
{{else}}<p>No pages rendered yet.</p>{{end}}
</body>
</html>
`))

func renderPicker(m *output.Manifest, selected string) (string, error) {
	var buf bytes.Buffer
	if err := pickerTemplate.Execute(&buf, indexData{Manifest: m, Selected: selected}); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func campaignOf(page string) string {
	c, _, _ := strings.Cut(page, "/")
	return c
}
