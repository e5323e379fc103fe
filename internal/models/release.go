package models

import "regexp"

// ticketPattern matches JIRA-style ticket identifiers like "BWD-123":
// one to ten uppercase letters, a dash, then digits.
var ticketPattern = regexp.MustCompile(`^[A-Z]{1,10}-\d+$`)

// ValidTicket reports whether s is a well-formed ticket identifier.
func ValidTicket(s string) bool {
	return ticketPattern.MatchString(s)
}

// ReleaseDecision is what the release state machine computed for one project.
// It only describes the release; pushing the branch and creating/pushing the
// tag happen later, after explicit confirmation.
type ReleaseDecision struct {
	ProjectName   string
	Ticket        string
	ReleaseBranch string
	NewVersion    Version
	CommitCount   int

	// ChangesSinceLastTag is always true on a returned decision; a project
	// with nothing to release yields no decision at all.
	ChangesSinceLastTag bool
}
