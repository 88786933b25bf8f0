package apitest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioreport/bioreport-go/internal/apitest"
)

func setupServer(t *testing.T) (*apitest.Server, *httptest.Server) {
	t.Helper()
	backend := apitest.NewServer()
	srv := httptest.NewServer(backend.Router())
	t.Cleanup(srv.Close)
	return backend, srv
}

func newHTTPClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, &reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func TestRegisterLoginAccountRoundTrip(t *testing.T) {
	_, srv := setupServer(t)
	client := newHTTPClient(t)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/auth/register", map[string]string{
		"email":    "bob@example.com",
		"password": "password-123",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Registration authenticates but leaves no account record.
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/account", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/account", map[string]string{
		"sex":           "male",
		"date_of_birth": "1990-05-01",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/account", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExpiredSessionRecoversThroughRefresh(t *testing.T) {
	backend, srv := setupServer(t)
	backend.SeedUser("bob@example.com", "password-123")
	client := newHTTPClient(t)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/auth/login", map[string]string{
		"email":    "bob@example.com",
		"password": "password-123",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	backend.ExpireSessions()
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/account", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/auth/refresh", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Renewed session cookie works again (404: no account record yet).
	resp = doJSON(t, client, http.MethodGet, srv.URL+"/account", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1, backend.RefreshCalls())
}

func TestLogoutInvalidatesSession(t *testing.T) {
	backend, srv := setupServer(t)
	backend.SeedUser("bob@example.com", "password-123")
	client := newHTTPClient(t)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/auth/login", map[string]string{
		"email":    "bob@example.com",
		"password": "password-123",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/auth/logout", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/account", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
