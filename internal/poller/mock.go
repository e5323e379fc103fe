package poller

import "context"

// MockClient implements Client for testing; environments not present in
// Responses behave like unavailable endpoints.
type MockClient struct {
	Responses map[string]EnvironmentVersion // key: environment name

	// Polled records the environments queried, in order.
	Polled []string
}

func (m *MockClient) Poll(_ context.Context, _, environment string, _ Options) (EnvironmentVersion, bool) {
	m.Polled = append(m.Polled, environment)
	v, ok := m.Responses[environment]
	return v, ok
}

var _ Client = (*MockClient)(nil)
