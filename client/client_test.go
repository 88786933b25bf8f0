package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioreport/bioreport-go/client"
	"github.com/bioreport/bioreport-go/internal/apitest"
)

func newTestClient(t *testing.T, baseURL string) *client.Client {
	t.Helper()
	c, err := client.New(baseURL)
	require.NoError(t, err)
	return c
}

// setupBackend starts the fake backend and returns a client logged in
// as alice with a completed account.
func setupBackend(t *testing.T) (*apitest.Server, *client.Client) {
	t.Helper()
	backend := apitest.NewServer()
	backend.SeedUser("alice@example.com", "correct-horse-battery")
	backend.SeedAccount("alice@example.com", client.Account{Language: "en", Timezone: "UTC"})

	srv := httptest.NewServer(backend.Router())
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	_, err := c.Login(context.Background(), "alice@example.com", "correct-horse-battery")
	require.NoError(t, err)
	return backend, c
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	require.NoError(t, c.Post(context.Background(), "/auth/login", map[string]string{"email": "a"}, nil))

	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
	// The session credential is a cookie; a bearer header must never
	// appear, on any request.
	assert.Empty(t, got.Get("Authorization"))
}

func TestEmptyResponses(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"204 no content", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}},
		{"200 empty body", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", "0")
			w.WriteHeader(http.StatusOK)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			var out map[string]any
			require.NoError(t, c.Get(context.Background(), "/whatever", &out))
			assert.Empty(t, out)
		})
	}
}

func TestErrorParsing(t *testing.T) {
	t.Run("422 carries field errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]any{
				"message": "validation failed",
				"errors":  map[string][]string{"email": {"email is required"}},
			})
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL)
		err := c.Post(context.Background(), "/auth/login", map[string]string{}, nil)
		var apiErr *client.Error
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsValidation())
		assert.False(t, apiErr.IsAuth())
		assert.Equal(t, []string{"email is required"}, apiErr.FieldErrors["email"])
		assert.Equal(t, "email is required", apiErr.FirstError())
	})

	t.Run("unparseable body falls back to status text", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("<html>boom</html>"))
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL)
		err := c.Get(context.Background(), "/account", nil)
		var apiErr *client.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
		assert.NotEmpty(t, apiErr.Message)
		assert.Nil(t, apiErr.FieldErrors)
	})
}

func TestRefreshRetryAfterExpiry(t *testing.T) {
	backend, c := setupBackend(t)

	backend.ExpireSessions()
	acct, err := c.GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "en", acct.Language)

	// One refresh, and the account endpoint saw the failed attempt
	// plus exactly one replay.
	assert.Equal(t, 1, backend.RefreshCalls())
	assert.Equal(t, 2, backend.AccountCalls())
}

func TestSingleRefreshForConcurrent401s(t *testing.T) {
	backend, c := setupBackend(t)

	backend.ExpireSessions()
	release := backend.HoldRefresh()
	defer release()

	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := c.GetAccount(context.Background())
			errs <- err
		}()
	}

	// Wait until every request has taken its initial 401 and is parked
	// behind the held refresh, then let the refresh complete.
	require.Eventually(t, func() bool {
		return backend.UnauthorizedCount() >= n
	}, 5*time.Second, 5*time.Millisecond)
	// Give the last clients a beat to park behind the in-flight
	// refresh after reading their 401.
	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, backend.RefreshCalls(), "refresh endpoint must be hit exactly once")
	assert.Equal(t, 2*n, backend.AccountCalls(), "each request retried exactly once")
}

func TestRefreshFailureIsTerminal(t *testing.T) {
	backend, c := setupBackend(t)

	backend.ExpireSessions()
	backend.SetRefreshFails(true)
	release := backend.HoldRefresh()
	defer release()

	const n = 4
	var wg sync.WaitGroup
	wg.Add(n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := c.GetAccount(context.Background())
			errs <- err
		}()
	}
	require.Eventually(t, func() bool {
		return backend.UnauthorizedCount() >= n
	}, 5*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()
	close(errs)

	for err := range errs {
		var apiErr *client.Error
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsAuth())
	}
	assert.Equal(t, 1, backend.RefreshCalls())
	// No replays: a failed refresh rejects every waiter without retry.
	assert.Equal(t, n, backend.AccountCalls())
}

func TestRetried401IsTerminal(t *testing.T) {
	// A backend whose refresh "succeeds" but whose sessions stay
	// broken. A naive client would loop forever; the contract is two
	// round trips to the resource, then surface the 401.
	var mu sync.Mutex
	accountCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/account", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		accountCalls++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"unauthenticated"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.GetAccount(context.Background())
	var apiErr *client.Error
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsAuth())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, accountCalls, "exactly one retry, then give up")
}

func TestRefreshTransportFailureIsAuthError(t *testing.T) {
	// The refresh endpoint drops the connection mid-request: transport
	// errors during refresh count as refresh failure, same taxonomy as
	// a rejected refresh.
	mux := http.NewServeMux()
	mux.HandleFunc("/account", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.GetAccount(context.Background())
	var apiErr *client.Error
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsAuth())
}

func TestCreateAccountValidatesLanguageLocally(t *testing.T) {
	// Validation happens before any request: no server needed.
	c := newTestClient(t, "http://127.0.0.1:0")
	_, err := c.CreateAccount(context.Background(), client.CreateAccountRequest{
		Sex:      client.SexFemale,
		Language: "not a tag!!",
	})
	var apiErr *client.Error
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsValidation())
	assert.Contains(t, apiErr.FieldErrors, "language")
}

func TestCreateAccountNormalizesNickname(t *testing.T) {
	backend := apitest.NewServer()
	backend.SeedUser("bob@example.com", "password-123")
	srv := httptest.NewServer(backend.Router())
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Login(context.Background(), "bob@example.com", "password-123")
	require.NoError(t, err)

	// "café" with a combining acute accent; NFKC composes it.
	decomposed := "café"
	acct, err := c.CreateAccount(context.Background(), client.CreateAccountRequest{
		Sex:      client.SexMale,
		Nickname: &decomposed,
	})
	require.NoError(t, err)
	require.NotNil(t, acct.Nickname)
	assert.Equal(t, "café", *acct.Nickname)
}
