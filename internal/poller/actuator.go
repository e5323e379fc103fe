package poller

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// EnvironmentVersion is what one environment of a project reported: a
// free-form version label and a git reference for what is deployed there.
type EnvironmentVersion struct {
	Environment string
	Version     string

	// CommitRef is the reference to resolve against the repository. It is
	// either a commit id from the status response or, with the version
	// fallback, the bare version label (useful when deployments are tagged).
	CommitRef string

	// FromVersionFallback marks that CommitRef is the version label rather
	// than a reported commit id.
	FromVersionFallback bool
}

// Options control how a single endpoint is polled.
type Options struct {
	VerifySSL       bool
	VersionFallback bool
}

// Client fetches version information from an environment's status endpoint.
type Client interface {
	Poll(ctx context.Context, baseURL, environment string, opts Options) (EnvironmentVersion, bool)
}

// ActuatorClient polls Spring Boot style /actuator/info endpoints.
type ActuatorClient struct {
	timeout  time.Duration
	logger   *log.Logger
	verified *http.Client
	insecure *http.Client
}

// NewActuatorClient creates a client with the given request timeout.
func NewActuatorClient(timeout time.Duration, logger *log.Logger) *ActuatorClient {
	if logger == nil {
		logger = log.New(os.Stderr, "poller: ", log.LstdFlags)
	}

	insecureTransport := http.DefaultTransport.(*http.Transport).Clone()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	return &ActuatorClient{
		timeout:  timeout,
		logger:   logger,
		verified: &http.Client{Timeout: timeout},
		insecure: &http.Client{Timeout: timeout, Transport: insecureTransport},
	}
}

// Poll fetches <baseURL>/actuator/info and extracts version and commit info.
// Any failure is logged and reported as ok=false; the caller proceeds with
// whatever subset of environments did resolve.
func (c *ActuatorClient) Poll(ctx context.Context, baseURL, environment string, opts Options) (EnvironmentVersion, bool) {
	url := strings.TrimRight(baseURL, "/") + "/actuator/info"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Printf("invalid status URL %s: %v", url, err)
		return EnvironmentVersion{}, false
	}

	httpClient := c.verified
	if !opts.VerifySSL {
		httpClient = c.insecure
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		c.logger.Printf("failed to fetch info from %s: %v", url, err)
		return EnvironmentVersion{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Printf("unexpected status %d from %s", resp.StatusCode, url)
		return EnvironmentVersion{}, false
	}

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		c.logger.Printf("failed to decode response from %s: %v", url, err)
		return EnvironmentVersion{}, false
	}

	version := extractVersion(data)
	commit := extractCommitID(data)

	if version == "" {
		c.logger.Printf("no version information in response from %s", url)
		return EnvironmentVersion{}, false
	}

	if commit == "" {
		if !opts.VersionFallback {
			c.logger.Printf("no commit information in response from %s", url)
			return EnvironmentVersion{}, false
		}
		return EnvironmentVersion{
			Environment:         environment,
			Version:             version,
			CommitRef:           version,
			FromVersionFallback: true,
		}, true
	}

	return EnvironmentVersion{
		Environment: environment,
		Version:     version,
		CommitRef:   commit,
	}, true
}

var versionPaths = [][]string{
	{"build", "version"},
	{"app", "version"},
	{"version"},
	{"git", "build", "version"},
}

var commitPaths = [][]string{
	{"git", "commit", "id"},
	{"build", "commit"},
	{"commit"},
	{"git", "commit"},
}

func extractVersion(data map[string]interface{}) string {
	for _, path := range versionPaths {
		if value, ok := nestedValue(data, path); ok {
			if s, ok := value.(string); ok && s != "" {
				return s
			}
			if n, ok := value.(float64); ok {
				return fmt.Sprintf("%v", n)
			}
		}
	}
	return ""
}

func extractCommitID(data map[string]interface{}) string {
	for _, path := range commitPaths {
		value, ok := nestedValue(data, path)
		if !ok {
			continue
		}

		switch v := value.(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]interface{}:
			// git.commit.id may itself be an object {id, abbrev}
			if s, ok := v["id"].(string); ok && s != "" {
				return s
			}
			if s, ok := v["abbrev"].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func nestedValue(data map[string]interface{}, path []string) (interface{}, bool) {
	var current interface{} = data
	for _, key := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

var _ Client = (*ActuatorClient)(nil)
