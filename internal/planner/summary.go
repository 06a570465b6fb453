package planner

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
)

const defaultSummaryTemplate = `# {{if .Name}}{{.Name}}{{else}}Project schedule{{end}}

- Plan: {{.ID}}
- Method: {{.Method}}
- Activities: {{.TotalActivities}}
- Project duration: {{num .ProjectDuration}} {{.Unit}}
- Critical path: {{join .CriticalPath " -> "}}

## Schedule

| Activity | Duration | ES | EF | LS | LF | Float | Critical |
|----------|---------:|---:|---:|---:|---:|------:|:--------:|
{{- range .Activities}}
| {{label .}} | {{num .Duration}} | {{num .ES}} | {{num .EF}} | {{num .LS}} | {{num .LF}} | {{num .Float}} | {{if .IsCritical}}yes{{end}} |
{{- end}}
{{if .Waves}}
## Waves
{{range .Waves}}
{{.Index}}. start {{num .Start}}: {{join .ActivityIDs ", "}}{{if .IsCritical}} (critical){{end}}
{{- end}}
{{end}}
{{- if .Dummies}}
Arrow form: {{.Events}} events, {{.Dummies}} dummy arrows.
{{end}}`

// SummaryData is what the summary template sees.
type SummaryData struct {
	*Plan
	Method     string
	Activities []Activity
	Events     int
	Dummies    int
}

var summaryFuncs = template.FuncMap{
	"join": strings.Join,
	"num":  formatNumber,
	"label": func(a Activity) string {
		if a.Name != "" && a.Name != a.ID {
			return a.ID + " " + a.Name
		}
		return a.ID
	},
}

// RenderSummary renders a Markdown summary of plan using either a custom
// template file or the default.
func RenderSummary(plan *Plan, templatePath string) (string, error) {
	tmplStr := defaultSummaryTemplate
	if templatePath != "" {
		content, err := os.ReadFile(templatePath)
		if err != nil {
			return "", err
		}
		tmplStr = string(content)
	}

	tmpl, err := template.New("summary").Funcs(summaryFuncs).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parse summary template: %w", err)
	}

	data := SummaryData{Plan: plan, Method: methodName(plan), Activities: plan.Activities()}
	if plan.Network != nil {
		data.Events = len(plan.Network.Events)
		data.Dummies = plan.Network.Dummies()
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return buf.String(), nil
}

func methodName(plan *Plan) string {
	switch plan.Kind {
	case "pert":
		return "PERT (three-point estimates)"
	case "aoa":
		return "CPM, activity on arrow"
	default:
		return "CPM, activity on node"
	}
}

// formatNumber prints whole numbers without decimals and everything else
// with two.
func formatNumber(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimSuffix(s, ".00")
	if s == "-0" {
		return "0"
	}
	return s
}
