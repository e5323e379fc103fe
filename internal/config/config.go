package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jakoblorz/release-trucker/internal/filesystem"
	"github.com/jakoblorz/release-trucker/internal/models"
)

// DefaultLookback bounds the history walk when an environment has no
// baseline to diff against. It only exists to keep that fallback cheap.
const DefaultLookback = 100

// ProjectConfig describes one tracked project.
type ProjectConfig struct {
	Name string `yaml:"name"`
	// RepoURL is the git remote the project is cloned from.
	RepoURL string `yaml:"repoUrl"`
	// Env maps environment names (DEV, TEST, PRE, PROD) to the base URL of
	// the service's status endpoint in that environment.
	Env map[string]string `yaml:"env"`

	VerifySSL          *bool  `yaml:"verify_ssl,omitempty"`
	UseVersionFallback *bool  `yaml:"use_version_fallback,omitempty"`
	JiraBaseURL        string `yaml:"jira_base_url,omitempty"`
	MainBranch         string `yaml:"main_branch,omitempty"`

	// PromotionOrder overrides the DEV→TEST→PRE→PROD chain for projects that
	// promote through a different set of environments.
	PromotionOrder []string `yaml:"promotion_order,omitempty"`
}

// Order returns the promotion chain for this project, first to last.
func (p *ProjectConfig) Order() []string {
	if len(p.PromotionOrder) > 0 {
		return p.PromotionOrder
	}
	return models.DefaultPromotionOrder()
}

// SSLVerificationEnabled reports whether TLS certificates should be checked
// when polling this project's status endpoints. Defaults to true.
func (p *ProjectConfig) SSLVerificationEnabled() bool {
	return p.VerifySSL == nil || *p.VerifySSL
}

// VersionFallbackEnabled reports whether a bare version number may substitute
// for a missing git commit field in the status response. Defaults to true.
func (p *ProjectConfig) VersionFallbackEnabled() bool {
	return p.UseVersionFallback == nil || *p.UseVersionFallback
}

// Config is the top-level configuration file.
type Config struct {
	// ReposDir is the root directory for managed clones, one per project.
	ReposDir string `yaml:"repos_dir,omitempty"`
	// Lookback bounds the no-baseline history fallback of the diff engine.
	Lookback int `yaml:"lookback,omitempty"`

	Projects []ProjectConfig `yaml:"projects"`
}

// Load reads and validates the YAML configuration at path.
func Load(fs filesystem.FileSystem, path string) (*Config, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if len(cfg.Projects) == 0 {
		return nil, fmt.Errorf("config %s defines no projects", path)
	}

	for i := range cfg.Projects {
		p := &cfg.Projects[i]
		if p.Name == "" {
			return nil, fmt.Errorf("project at index %d has no name", i)
		}
		if p.RepoURL == "" {
			return nil, fmt.Errorf("project %s has no repoUrl", p.Name)
		}
		if p.MainBranch == "" {
			p.MainBranch = "main"
		}
	}

	if cfg.ReposDir == "" {
		cfg.ReposDir = "repos"
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}

	return &cfg, nil
}
