package export

import "html/template"

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{range .Sections}}<section id="node-{{.ID}}" class="book-node level-{{.Level}}">
{{template "heading" .}}
{{.Body}}
</section>
{{end}}</body>
</html>
`))

var _ = template.Must(page.New("heading").Parse(
	`{{if eq .Level 1}}<h1>{{.Title}}</h1>` +
		`{{else if eq .Level 2}}<h2>{{.Title}}</h2>` +
		`{{else if eq .Level 3}}<h3>{{.Title}}</h3>` +
		`{{else if eq .Level 4}}<h4>{{.Title}}</h4>` +
		`{{else if eq .Level 5}}<h5>{{.Title}}</h5>` +
		`{{else}}<h6>{{.Title}}</h6>{{end}}`))
