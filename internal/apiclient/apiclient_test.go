package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schnooty-agent/internal/shared"
)

func TestGetMonitorsUsesBasicAuthFromColonSplitKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "agent-1", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/monitors", r.URL.Path)
		json.NewEncoder(w).Encode(monitorsResponse{Monitors: []shared.Monitor{{Name: "m1"}}})
	}))
	defer srv.Close()

	c := New(srv.URL, "agent-1:secret")
	monitors, err := c.GetMonitors(context.Background())
	require.NoError(t, err)
	require.Len(t, monitors, 1)
	assert.Equal(t, "m1", monitors[0].Name)
}

func TestPostStatusNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	err := c.PostStatus(context.Background(), shared.MonitorStatus{StatusID: "m1"})
	assert.Error(t, err)
}
