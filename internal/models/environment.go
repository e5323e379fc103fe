package models

// Environment names in promotion order. Code flows DEV → TEST → PRE → PROD;
// PROD is the release baseline and is never diffed against anything.
const (
	EnvDEV  = "DEV"
	EnvTEST = "TEST"
	EnvPRE  = "PRE"
	EnvPROD = "PROD"
)

// DefaultPromotionOrder is the promotion chain assumed when a project's
// configuration does not supply its own ordering.
func DefaultPromotionOrder() []string {
	return []string{EnvDEV, EnvTEST, EnvPRE, EnvPROD}
}

// EnvironmentState holds what one environment of a project reported and how
// it differs from its baseline (the next environment in promotion order).
type EnvironmentState struct {
	Environment string   `json:"environment"`
	Version     string   `json:"version"`
	CommitID    string   `json:"commit_id"`
	Commits     []Commit `json:"commits"`
}

// ProjectAnalysis is the result of one analysis run over a single project.
// Environments that could not be polled or resolved are absent from the map;
// a partially resolved project is still a valid analysis.
type ProjectAnalysis struct {
	ProjectName      string                      `json:"project_name"`
	Environments     map[string]EnvironmentState `json:"environments"`
	EnvironmentOrder []string                    `json:"environment_order"`
}
