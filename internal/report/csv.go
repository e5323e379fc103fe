package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/jakoblorz/release-trucker/internal/filesystem"
	"github.com/jakoblorz/release-trucker/internal/models"
)

// CSVFormat selects between the two CSV layouts.
type CSVFormat string

const (
	// CSVSummary emits one row per project and environment.
	CSVSummary CSVFormat = "summary"
	// CSVDetailed emits one row per exclusive commit.
	CSVDetailed CSVFormat = "detailed"
)

// ParseCSVFormat validates a format string from the CLI.
func ParseCSVFormat(s string) (CSVFormat, error) {
	switch CSVFormat(s) {
	case CSVSummary, CSVDetailed:
		return CSVFormat(s), nil
	default:
		return "", fmt.Errorf("unknown csv format %q (expected summary or detailed)", s)
	}
}

// CSVGenerator renders the analysis as CSV for spreadsheet consumption.
type CSVGenerator struct {
	fs filesystem.FileSystem
}

// NewCSVGenerator creates a CSVGenerator writing through fs.
func NewCSVGenerator(fs filesystem.FileSystem) *CSVGenerator {
	return &CSVGenerator{fs: fs}
}

// Generate writes the CSV report to outputPath in the given format.
func (g *CSVGenerator) Generate(analyses []*models.ProjectAnalysis, format CSVFormat, runID, outputPath string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	var err error
	switch format {
	case CSVDetailed:
		err = writeDetailed(w, analyses, runID)
	default:
		err = writeSummary(w, analyses, runID)
	}
	if err != nil {
		return err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to render csv: %w", err)
	}

	if err := g.fs.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write csv report: %w", err)
	}
	return nil
}

func writeSummary(w *csv.Writer, analyses []*models.ProjectAnalysis, runID string) error {
	if err := w.Write([]string{"run_id", "project", "environment", "version", "commit_id", "exclusive_commits", "status"}); err != nil {
		return err
	}

	for _, analysis := range analyses {
		status := "ahead"
		if Synced(analysis) {
			status = "up-to-date"
		}

		for _, env := range analysis.EnvironmentOrder {
			state, ok := analysis.Environments[env]
			if !ok {
				continue
			}
			row := []string{
				runID,
				analysis.ProjectName,
				env,
				state.Version,
				state.CommitID,
				strconv.Itoa(len(state.Commits)),
				status,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeDetailed(w *csv.Writer, analyses []*models.ProjectAnalysis, runID string) error {
	if err := w.Write([]string{"run_id", "project", "environment", "commit_id", "short_id", "summary", "author", "date", "merge_absorbed", "tickets"}); err != nil {
		return err
	}

	for _, analysis := range analyses {
		for _, env := range analysis.EnvironmentOrder {
			state, ok := analysis.Environments[env]
			if !ok {
				continue
			}
			for _, c := range state.Commits {
				row := []string{
					runID,
					analysis.ProjectName,
					env,
					c.ID,
					c.ShortID,
					c.Summary,
					c.Author,
					c.Date.Format("2006-01-02T15:04:05Z07:00"),
					strconv.FormatBool(c.MergedCommit),
					joinTickets(extractTickets(c.Summary)),
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// TicketStats summarizes which tickets appear in exclusive commits and where.
type TicketStats struct {
	Total         int
	MultiEnv      int
	SingleEnv     int
	ByEnvironment map[string]int
}

// CollectTicketStats extracts ticket references from commit summaries across
// all analyses.
func CollectTicketStats(analyses []*models.ProjectAnalysis) TicketStats {
	envsByTicket := make(map[string]map[string]bool)

	for _, analysis := range analyses {
		for env, state := range analysis.Environments {
			for _, c := range state.Commits {
				for _, ticket := range extractTickets(c.Summary) {
					if envsByTicket[ticket] == nil {
						envsByTicket[ticket] = make(map[string]bool)
					}
					envsByTicket[ticket][env] = true
				}
			}
		}
	}

	stats := TicketStats{ByEnvironment: make(map[string]int)}
	for _, envs := range envsByTicket {
		stats.Total++
		if len(envs) > 1 {
			stats.MultiEnv++
		} else {
			stats.SingleEnv++
		}
		for env := range envs {
			stats.ByEnvironment[env]++
		}
	}
	return stats
}

func extractTickets(summary string) []string {
	matches := ticketRefPattern.FindAllString(summary, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var tickets []string
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			tickets = append(tickets, m)
		}
	}
	sort.Strings(tickets)
	return tickets
}

func joinTickets(tickets []string) string {
	out := ""
	for i, t := range tickets {
		if i > 0 {
			out += " "
		}
		out += t
	}
	return out
}
