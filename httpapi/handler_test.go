package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/MrEthical07/tokenAuth"
	"github.com/MrEthical07/tokenAuth/accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := tokenAuth.DefaultConfig()
	cfg.JWT.Secret = []byte(strings.Repeat("k", 32))
	cfg.Password.BcryptCost = 4

	engine, err := tokenAuth.New().
		WithConfig(cfg).
		WithUserStore(accounts.NewMemory()).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	srv := httptest.NewServer(Handler(engine, Options{}))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func postForm(t *testing.T, srv *httptest.Server, path string, form url.Values) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.PostForm(srv.URL+path, form)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func getWithBearer(t *testing.T, srv *httptest.Server, path, token string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func registerAlice(t *testing.T, srv *httptest.Server) {
	t.Helper()
	resp, body := postJSON(t, srv, "/auth/", map[string]any{
		"username":   "alice",
		"email":      "alice@example.com",
		"first_name": "Alice",
		"last_name":  "Liddell",
		"password":   "wonderland",
		"role":       "admin",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, true, body["is_active"])
	assert.EqualValues(t, 1, body["id"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "hashed_password")
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	registerAlice(t, srv)

	resp, tokens := postForm(t, srv, "/auth/token", url.Values{"username": {"alice"}, "password": {"wonderland"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bearer", tokens["token_type"])
	access, _ := tokens["access_token"].(string)
	refresh, _ := tokens["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	resp, me := getWithBearer(t, srv, "/auth/me", access)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"username": "alice", "id": float64(1), "role": "admin"}, me)

	resp, refreshed := postJSON(t, srv, "/auth/refresh", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bearer", refreshed["token_type"])
	assert.NotEmpty(t, refreshed["access_token"])
	assert.NotContains(t, refreshed, "refresh_token")

	resp, out := postJSON(t, srv, "/auth/logout", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully.", out["message"])

	resp, out = postJSON(t, srv, "/auth/refresh", map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Refresh token revoked.", out["detail"])

	// Logout only revokes the refresh token; the access token stays valid until expiry.
	resp, _ = getWithBearer(t, srv, "/auth/me", access)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t)
	registerAlice(t, srv)

	for _, form := range []url.Values{
		{"username": {"alice"}, "password": {"wrong"}},
		{"username": {"nobody"}, "password": {"wonderland"}},
	} {
		resp, body := postForm(t, srv, "/auth/token", form)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid username or password.", body["detail"])
	}
}

func TestRefreshRejectsAccessAndGarbage(t *testing.T) {
	srv := newTestServer(t)
	registerAlice(t, srv)

	_, tokens := postForm(t, srv, "/auth/token", url.Values{"username": {"alice"}, "password": {"wonderland"}})

	resp, body := postJSON(t, srv, "/auth/refresh", map[string]any{"refresh_token": tokens["access_token"]})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid refresh token.", body["detail"])

	resp, body = postJSON(t, srv, "/auth/refresh", map[string]string{"refresh_token": "not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid or expired token.", body["detail"])

	resp, body = getWithBearer(t, srv, "/auth/me", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Could not validate user.", body["detail"])
}

func TestRegisterConflictsAndValidation(t *testing.T) {
	srv := newTestServer(t)
	registerAlice(t, srv)

	resp, body := postJSON(t, srv, "/auth/", map[string]any{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "x",
		"role":     "user",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Username or Email already exists.", body["detail"])

	resp, _ = postJSON(t, srv, "/auth/", map[string]any{"username": "carol", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err := http.Post(srv.URL+"/auth/", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterInactiveAccount(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv, "/auth/", map[string]any{
		"username":  "dave",
		"email":     "dave@example.com",
		"password":  "pw",
		"role":      "user",
		"is_active": false,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, false, body["is_active"])
}

func TestLogoutAcceptsUnknownToken(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv, "/auth/logout", map[string]string{"refresh_token": "anything"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully.", body["message"])
}

func TestStatusForUnavailable(t *testing.T) {
	status, _ := statusFor(tokenAuth.ErrRevocationUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _ = statusFor(tokenAuth.ErrLoginRateLimited)
	assert.Equal(t, http.StatusTooManyRequests, status)

	status, _ = statusFor(tokenAuth.ErrEngineNotReady)
	assert.Equal(t, http.StatusInternalServerError, status)
}
