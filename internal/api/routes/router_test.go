package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/dataset"
	"github.com/zatekoja/breadfindr/backend/internal/api/handlers"
	"github.com/zatekoja/breadfindr/backend/internal/api/routes"
	"github.com/zatekoja/breadfindr/backend/internal/application/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	bundled, err := dataset.Bundled()
	require.NoError(t, err)

	entitySvc := services.NewEntityService(nil, nil, bundled)
	discovery := services.NewDiscoveryService(nil)
	router := routes.NewRouter(
		handlers.NewBakeryHandler(entitySvc, discovery, nil),
		handlers.NewPlacesHandler(nil, discovery),
		handlers.NewDiscoverHandler(discovery),
		nil,
		nil,
		nil,
	)
	srv := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(srv.Close)
	return srv
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_ListsBundledDirectory(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/bakeries")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestRouter_PlacesProxyMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/places/search", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRouter_DiscoverWithoutKeyFails(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/discover?lat=45.5&lng=-122.6")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestRouter_PhotoProxyRoute(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/places/photo?ref=abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/places/photo?ref=abc", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRouter_Preflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, srv.URL+"/api/bakeries", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
