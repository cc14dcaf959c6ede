package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jmcleod/gatehouse/api"
	"github.com/jmcleod/gatehouse/auth"
	"github.com/jmcleod/gatehouse/session"
	"github.com/jmcleod/gatehouse/store/memory"
)

const testCookie = "gh_session"

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	users := memory.NewStore()
	hasher, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	registry := session.NewMemoryRegistry()

	guard := auth.NewGuard(nil, auth.WithSessionAuth(registry, users, testCookie))
	svc := auth.NewService(users, registry, hasher)
	a := api.New(svc, guard, testCookie, time.Hour)

	r := chi.NewRouter()
	r.Mount("/api/v1", a.Router())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
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

func register(t *testing.T, client *http.Client, baseURL, email, password string) {
	t.Helper()
	resp := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/users", map[string]string{
		"email":    email,
		"password": password,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) {
	t.Helper()
	resp := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/sessions", map[string]string{
		"email":    email,
		"password": password,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatus(t *testing.T) {
	srv := setupServer(t)
	client := newClient(t)

	resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/status", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status api.StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "OK", status.Status)
}

func TestRegister(t *testing.T) {
	srv := setupServer(t)
	client := newClient(t)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/users", map[string]string{
		"email":    "alice@example.com",
		"password": "open sesame",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var reg api.RegisterResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))
	assert.Equal(t, "alice@example.com", reg.Email)
	assert.Equal(t, "user created", reg.Message)

	t.Run("DuplicateEmail", func(t *testing.T) {
		resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/users", map[string]string{
			"email":    "alice@example.com",
			"password": "open sesame",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var e api.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
		assert.Equal(t, "email already registered", e.Error)
	})

	t.Run("MissingEmail", func(t *testing.T) {
		resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/users", map[string]string{
			"password": "open sesame",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/users", map[string]string{
			"email":    "bob@example.com",
			"password": "short",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLoginLogoutFlow(t *testing.T) {
	srv := setupServer(t)
	client := newClient(t)

	register(t, client, srv.URL, "alice@example.com", "open sesame")

	t.Run("WrongPassword", func(t *testing.T) {
		resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/sessions", map[string]string{
			"email":    "alice@example.com",
			"password": "wrong password",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("ProfileWithoutSession", func(t *testing.T) {
		resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/profile", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/sessions", map[string]string{
		"email":    "alice@example.com",
		"password": "open sesame",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sawCookie bool
	for _, c := range resp.Cookies() {
		if c.Name == testCookie && c.Value != "" {
			sawCookie = true
			assert.True(t, c.HttpOnly)
		}
	}
	resp.Body.Close()
	require.True(t, sawCookie, "login must set the session cookie")

	t.Run("Profile", func(t *testing.T) {
		resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/profile", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var profile api.ProfileResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
		assert.Equal(t, "alice@example.com", profile.Email)
	})

	t.Run("Me", func(t *testing.T) {
		resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/users/me", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var me api.UserResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
		assert.NotEmpty(t, me.ID)
		assert.Equal(t, "alice@example.com", me.Email)
		_, err := time.Parse(time.RFC3339, me.CreatedAt)
		assert.NoError(t, err)
	})

	resp = doJSON(t, client, http.MethodDelete, srv.URL+"/api/v1/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	t.Run("ProfileAfterLogout", func(t *testing.T) {
		// The cleared cookie leaves the jar, so the request carries no
		// credential at all.
		resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/profile", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("SecondLogout", func(t *testing.T) {
		resp := doJSON(t, client, http.MethodDelete, srv.URL+"/api/v1/sessions", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestStaleSessionToken(t *testing.T) {
	srv := setupServer(t)

	// A hand-attached token that no live session backs is a presented but
	// unresolvable credential.
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/api/v1/profile", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "stale-token"})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestResetPasswordFlow(t *testing.T) {
	srv := setupServer(t)
	client := newClient(t)

	register(t, client, srv.URL, "alice@example.com", "old password")

	t.Run("UnknownEmail", func(t *testing.T) {
		resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/reset_password", map[string]string{
			"email": "nobody@example.com",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/reset_password", map[string]string{
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reset api.ResetTokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reset))
	resp.Body.Close()
	require.NotEmpty(t, reset.ResetToken)

	resp = doJSON(t, client, http.MethodPut, srv.URL+"/api/v1/reset_password", map[string]string{
		"email":        "alice@example.com",
		"reset_token":  reset.ResetToken,
		"new_password": "new password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated api.UpdatePasswordResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	resp.Body.Close()
	assert.Equal(t, "Password updated", updated.Message)

	t.Run("OldPasswordRejected", func(t *testing.T) {
		resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/sessions", map[string]string{
			"email":    "alice@example.com",
			"password": "old password",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("NewPasswordAccepted", func(t *testing.T) {
		login(t, client, srv.URL, "alice@example.com", "new password")
	})

	t.Run("TokenIsSingleUse", func(t *testing.T) {
		resp := doJSON(t, client, http.MethodPut, srv.URL+"/api/v1/reset_password", map[string]string{
			"email":        "alice@example.com",
			"reset_token":  reset.ResetToken,
			"new_password": "yet another",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestOpenAPISpecServed(t *testing.T) {
	srv := setupServer(t)
	client := newClient(t)

	resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/v1/openapi.yaml", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/yaml", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "openapi:")
}

func TestUnknownJSONFieldRejected(t *testing.T) {
	srv := setupServer(t)
	client := newClient(t)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/v1/users", map[string]string{
		"email":    "alice@example.com",
		"password": "open sesame",
		"is_admin": "true",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
