package poller

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *ActuatorClient {
	return NewActuatorClient(5*time.Second, log.New(io.Discard, "", 0))
}

func TestActuatorClient_Poll_GitCommitObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/actuator/info", r.URL.Path)
		w.Write([]byte(`{
			"build": {"version": "2.4.1"},
			"git": {"commit": {"id": "abc123def456abc123def456abc123def456abcd"}}
		}`))
	}))
	defer srv.Close()

	got, ok := newTestClient().Poll(context.Background(), srv.URL, "PROD", Options{VerifySSL: true})
	require.True(t, ok)
	assert.Equal(t, "PROD", got.Environment)
	assert.Equal(t, "2.4.1", got.Version)
	assert.Equal(t, "abc123def456abc123def456abc123def456abcd", got.CommitRef)
	assert.False(t, got.FromVersionFallback)
}

func TestActuatorClient_Poll_NestedAbbrevCommit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"app": {"version": "1.0.0"},
			"git": {"commit": {"abbrev": "abc123de"}}
		}`))
	}))
	defer srv.Close()

	got, ok := newTestClient().Poll(context.Background(), srv.URL, "DEV", Options{VerifySSL: true})
	require.True(t, ok)
	assert.Equal(t, "abc123de", got.CommitRef)
}

func TestActuatorClient_Poll_VersionFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version": "1.7.0"}`))
	}))
	defer srv.Close()

	// With fallback enabled the version label substitutes for the commit
	got, ok := newTestClient().Poll(context.Background(), srv.URL, "TEST",
		Options{VerifySSL: true, VersionFallback: true})
	require.True(t, ok)
	assert.Equal(t, "1.7.0", got.CommitRef)
	assert.True(t, got.FromVersionFallback)

	// Without it the environment is unavailable
	_, ok = newTestClient().Poll(context.Background(), srv.URL, "TEST",
		Options{VerifySSL: true})
	assert.False(t, ok)
}

func TestActuatorClient_Poll_Failures(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, ok := newTestClient().Poll(context.Background(), srv.URL, "DEV", Options{VerifySSL: true})
		assert.False(t, ok)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		_, ok := newTestClient().Poll(context.Background(), srv.URL, "DEV", Options{VerifySSL: true})
		assert.False(t, ok)
	})

	t.Run("unreachable host", func(t *testing.T) {
		_, ok := newTestClient().Poll(context.Background(), "http://127.0.0.1:1", "DEV", Options{VerifySSL: true})
		assert.False(t, ok)
	})

	t.Run("missing version", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"git": {"commit": {"id": "abc"}}}`))
		}))
		defer srv.Close()

		_, ok := newTestClient().Poll(context.Background(), srv.URL, "DEV", Options{VerifySSL: true})
		assert.False(t, ok)
	})
}
