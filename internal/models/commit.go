package models

import "time"

// Commit is an immutable snapshot of one repository commit.
type Commit struct {
	ID      string    `json:"id"`
	ShortID string    `json:"short_id"`
	Message string    `json:"message"`
	Summary string    `json:"summary"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`

	// MergedCommit marks commits that were spliced into a diff result
	// because they were folded into a merge commit's non-first parent.
	MergedCommit bool `json:"is_merged_commit,omitempty"`

	// PRNumber and PRTitle are filled in by the optional GitHub
	// enrichment step; zero/empty when enrichment did not run or the
	// commit never went through a pull request.
	PRNumber int    `json:"pr_number,omitempty"`
	PRTitle  string `json:"pr_title,omitempty"`
}
