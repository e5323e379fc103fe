package report

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"time"

	"github.com/Masterminds/sprig/v3"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/jakoblorz/release-trucker/internal/config"
	"github.com/jakoblorz/release-trucker/internal/filesystem"
	"github.com/jakoblorz/release-trucker/internal/models"
)

var ticketRefPattern = regexp.MustCompile(`[A-Z][A-Z0-9]{0,9}-\d+`)

// NewRunID generates a short identifier stamped into every report of one
// analysis run, so reports from repeated runs can be told apart.
func NewRunID() string {
	id, err := gonanoid.New(10)
	if err != nil {
		// gonanoid only fails when the OS random source does
		return fmt.Sprintf("run-%d", time.Now().Unix())
	}
	return id
}

// HTMLGenerator renders the per-environment analysis into a standalone HTML
// report.
type HTMLGenerator struct {
	fs filesystem.FileSystem
}

// NewHTMLGenerator creates an HTMLGenerator writing through fs.
func NewHTMLGenerator(fs filesystem.FileSystem) *HTMLGenerator {
	return &HTMLGenerator{fs: fs}
}

type htmlData struct {
	RunID       string
	GeneratedAt string
	Projects    []htmlProject
}

type htmlProject struct {
	Name         string
	Order        []string
	Environments map[string]htmlEnvironment
	Synced       bool
}

type htmlEnvironment struct {
	Present  bool
	Version  string
	CommitID string
	ShortID  string
	Commits  []htmlCommit
}

type htmlCommit struct {
	ShortID string
	Summary template.HTML
	Author  string
	Date    string
	Merged  bool
}

const htmlReport = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Release Report</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #1f2933; }
h1 { font-size: 1.5rem; }
h2 { font-size: 1.2rem; margin-top: 2rem; }
table { border-collapse: collapse; width: 100%; margin-top: .5rem; }
th, td { border: 1px solid #d6dbe1; padding: .4rem .6rem; text-align: left; vertical-align: top; font-size: .85rem; }
th { background: #f1f4f8; }
.meta { color: #616e7c; font-size: .8rem; }
.synced { color: #0f7b41; font-weight: 600; }
.merged { color: #9a6700; }
code { font-family: ui-monospace, monospace; font-size: .8rem; }
</style>
</head>
<body>
<h1>Release Report</h1>
<p class="meta">run {{ .RunID }} &middot; generated {{ .GeneratedAt }}</p>
{{- range .Projects }}
<h2>{{ .Name }}{{ if .Synced }} <span class="synced">up to date</span>{{ end }}</h2>
<table>
<tr>{{ range .Order }}<th>{{ . }}</th>{{ end }}</tr>
<tr>
{{- $proj := . }}
{{- range .Order }}
{{- $env := index $proj.Environments . }}
<td>
{{- if $env.Present }}
<div><strong>{{ $env.Version }}</strong> <code>{{ $env.ShortID }}</code></div>
{{- if $env.Commits }}
<ul>
{{- range $env.Commits }}
<li{{ if .Merged }} class="merged"{{ end }}><code>{{ .ShortID }}</code> {{ .Summary }} <span class="meta">{{ .Author }}, {{ .Date }}</span></li>
{{- end }}
</ul>
{{- end }}
{{- else }}
<span class="meta">unavailable</span>
{{- end }}
</td>
{{- end }}
</tr>
</table>
{{- end }}
</body>
</html>
`

// Generate writes the HTML report for the given analyses to outputPath.
// Ticket references in commit summaries become links when the project
// configures a JIRA base URL.
func (g *HTMLGenerator) Generate(analyses []*models.ProjectAnalysis, projects []config.ProjectConfig, runID, outputPath string) error {
	tmpl, err := template.New("report").Funcs(sprig.HtmlFuncMap()).Parse(htmlReport)
	if err != nil {
		return fmt.Errorf("failed to parse report template: %w", err)
	}

	jiraBase := make(map[string]string, len(projects))
	for _, p := range projects {
		jiraBase[p.Name] = p.JiraBaseURL
	}

	data := htmlData{
		RunID:       runID,
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
	}

	for _, analysis := range analyses {
		proj := htmlProject{
			Name:         analysis.ProjectName,
			Order:        analysis.EnvironmentOrder,
			Environments: make(map[string]htmlEnvironment, len(analysis.EnvironmentOrder)),
			Synced:       Synced(analysis),
		}

		for _, envName := range analysis.EnvironmentOrder {
			state, ok := analysis.Environments[envName]
			if !ok {
				proj.Environments[envName] = htmlEnvironment{}
				continue
			}

			env := htmlEnvironment{
				Present:  true,
				Version:  state.Version,
				CommitID: state.CommitID,
				ShortID:  shortID(state.CommitID),
			}
			for _, c := range state.Commits {
				env.Commits = append(env.Commits, htmlCommit{
					ShortID: c.ShortID,
					Summary: linkifyTickets(c.Summary, jiraBase[analysis.ProjectName]),
					Author:  c.Author,
					Date:    c.Date.Format("2006-01-02"),
					Merged:  c.MergedCommit,
				})
			}
			proj.Environments[envName] = env
		}

		data.Projects = append(data.Projects, proj)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if err := g.fs.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Synced reports whether every environment of the analysis runs the same
// commit, the "fully promoted" signal.
func Synced(analysis *models.ProjectAnalysis) bool {
	first := ""
	for _, state := range analysis.Environments {
		if first == "" {
			first = state.CommitID
			continue
		}
		if state.CommitID != first {
			return false
		}
	}
	return first != ""
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// linkifyTickets HTML-escapes the summary and turns ticket references into
// links against the project's JIRA base URL.
func linkifyTickets(summary, jiraBase string) template.HTML {
	escaped := template.HTMLEscapeString(summary)
	if jiraBase == "" {
		return template.HTML(escaped)
	}

	linked := ticketRefPattern.ReplaceAllStringFunc(escaped, func(ticket string) string {
		return fmt.Sprintf(`<a href="%s/%s">%s</a>`, template.HTMLEscapeString(jiraBase), ticket, ticket)
	})
	return template.HTML(linked)
}
