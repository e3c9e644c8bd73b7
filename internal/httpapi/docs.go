// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package httpapi

import (
	"html/template"
	"net/http"

	"pgbridge/cli/internal/tools"
)

// handleDocs renders the tool catalog as a static HTML page.
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = docsTemplate.Execute(w, docsData{Tools: tools.Docs()})
}

type docsData struct {
	Tools []*tools.Tool
}

var docsTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>pgbridge</title>
<style>
  body { font-family: system-ui, sans-serif; max-width: 56rem; margin: 2rem auto; padding: 0 1rem; color: #1a1a2e; }
  h1 { border-bottom: 2px solid #16213e; padding-bottom: .3rem; }
  .tool { margin: 1.5rem 0; padding: 1rem; border: 1px solid #d0d0e0; border-radius: 6px; }
  .tool h2 { margin: 0 0 .4rem; font-family: ui-monospace, monospace; font-size: 1.1rem; }
  .req { color: #b00020; font-size: .8rem; margin-left: .4rem; }
  .warn { background: #fff3cd; border: 1px solid #ffc107; border-radius: 6px; padding: .8rem 1rem; }
  table { border-collapse: collapse; width: 100%; margin-top: .5rem; }
  td, th { text-align: left; padding: .25rem .6rem; border-bottom: 1px solid #eee; font-size: .9rem; }
  code { background: #f4f4f8; padding: .1rem .3rem; border-radius: 3px; }
</style>
</head>
<body>
<h1>pgbridge</h1>
<p>HTTP bridge to a PostgreSQL tool server. Submit calls as
<code>POST /api/call</code> with body
<code>{"name": "&lt;tool&gt;", "arguments": {...}}</code>.</p>
<div class="warn"><strong>Trust boundary.</strong> The <code>query</code> tool
executes arbitrary SQL verbatim, and record-tool identifiers are interpolated
into SQL after allow-list validation only. This service performs no
authentication; restrict who can reach it.</div>
{{range .Tools}}
<div class="tool">
<h2>{{.Name}}</h2>
<p>{{.Description}}</p>
{{if .Args}}
<table>
<tr><th>argument</th><th>description</th></tr>
{{range .Args}}<tr><td><code>{{.Name}}</code>{{if .Required}}<span class="req">required</span>{{end}}</td><td>{{.Description}}</td></tr>
{{end}}
</table>
{{end}}
</div>
{{end}}
</body>
</html>
`))
