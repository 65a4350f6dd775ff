package description

import "html/template"

var pageTemplate = template.Must(template.New("description").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{if .Loading}}Loading problem...{{else}}{{.Title}}{{end}}</title>
</head>
<body>
<div class="panel-card">
{{- if .Loading}}
  <div class="flex flex-col items-center justify-center p-8 gap-4">
    <div class="w-10 h-10 border-4 border-gray-600 border-t-blue-500 rounded-full animate-spin"></div>
    <span class="text-gray-400 text-sm">Loading problem...</span>
  </div>
{{- else}}
  <div class="p-4 border-b border-gray-700 space-y-2">
    <div class="text-lg font-semibold tracking-tight">{{.Title}}</div>
    <div class="flex gap-2">
      <span class="level-badge px-3 py-1 text-xs rounded-full font-medium {{.LevelClass}}">{{.Level}}</span>
      <span class="category-badge px-3 py-1 text-xs rounded-full bg-gray-800 text-gray-300">{{.Category}}</span>
    </div>
  </div>
  <div class="p-6 prose dark:prose-invert max-w-none overflow-y-auto max-h-[70vh]">{{.BodyHTML}}</div>
{{- end}}
</div>
</body>
</html>
`))
