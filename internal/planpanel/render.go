package planpanel

import (
	"html/template"
	"strings"
)

// PlanContainerID is the id of the element the plan is rendered into.
const PlanContainerID = "plan"

var documentTemplate = template.Must(template.New("plan").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
{{- if .CSPSource}}
    <meta http-equiv="Content-Security-Policy" content="default-src 'none'; img-src {{.CSPSource}}; style-src {{.CSPSource}} 'unsafe-inline'; script-src 'unsafe-inline';">
{{- end}}
    <title>{{.Title}}</title>
</head>
<body>
    <h1>Miss_TaskMaster Project Plan</h1>
    <p>Project plan visualization will be implemented here.</p>
    <div id="{{.ContainerID}}"></div>
    <script>
        document.getElementById('plan').innerHTML = '<p>Loading...</p>';
    </script>
</body>
</html>
`))

type documentData struct {
	Title       string
	ContainerID string
	CSPSource   string
}

// RenderContent returns the project plan document for a surface.
//
// TODO: fill the plan container from orchestration.Client.PlanDocument once
// the server exposes dependency data; it only shows a loading message today.
func RenderContent(sc SurfaceContext) string {
	var b strings.Builder
	err := documentTemplate.Execute(&b, documentData{
		Title:       Title,
		ContainerID: PlanContainerID,
		CSPSource:   sc.CSPSource,
	})
	if err != nil {
		// The template is static; execution only fails on a broken writer.
		return ""
	}
	return b.String()
}
