package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"schnooty-agent/internal/shared"
)

func TestHTTPDriverProbeOKOn2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewHTTPDriver()
	m := shared.Monitor{
		Name: "api",
		Kind: shared.KindHTTP,
		Body: map[string]any{"method": http.MethodGet, "url": srv.URL},
	}

	status := d.Probe(context.Background(), m)
	assert.Equal(t, shared.StatusOK, status.Status)
	assert.Contains(t, status.ActualResult, "200")
	assert.NotEmpty(t, status.Log)
}

func TestHTTPDriverProbeDownOn5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewHTTPDriver()
	m := shared.Monitor{
		Name: "api",
		Kind: shared.KindHTTP,
		Body: map[string]any{"method": http.MethodGet, "url": srv.URL},
	}

	status := d.Probe(context.Background(), m)
	assert.Equal(t, shared.StatusDown, status.Status)
	assert.Contains(t, status.ActualResult, "500")
}

func TestHTTPDriverProbeDownOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing is listening anymore

	d := NewHTTPDriver()
	m := shared.Monitor{
		Name: "api",
		Kind: shared.KindHTTP,
		Body: map[string]any{"method": http.MethodGet, "url": url},
	}

	status := d.Probe(context.Background(), m)
	assert.Equal(t, shared.StatusDown, status.Status)
	assert.NotEmpty(t, status.ActualResult)
}

func TestHTTPDriverProbeDownOnMissingFields(t *testing.T) {
	d := NewHTTPDriver()
	status := d.Probe(context.Background(), shared.Monitor{Name: "api", Kind: shared.KindHTTP})
	assert.Equal(t, shared.StatusDown, status.Status)
}
