package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RileyParsons/plateful/internal/logging"
	"github.com/RileyParsons/plateful/internal/server/auth"
	"github.com/RileyParsons/plateful/internal/server/users"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour, 7*24*time.Hour)
	service := users.NewService(users.NewMemoryRepository(), tokens)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	server := NewServer(":0", logger, service, tokens)
	return server.Handler()
}

type request struct {
	method string
	path   string
	body   any
	bearer string
	rawAuth string
}

func do(t *testing.T, h http.Handler, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if req.body != nil {
		b, err := json.Marshal(req.body)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}

	r := httptest.NewRequest(req.method, req.path, body)
	r.Header.Set("Content-Type", "application/json")
	if req.bearer != "" {
		r.Header.Set("Authorization", "Bearer "+req.bearer)
	}
	if req.rawAuth != "" {
		r.Header.Set("Authorization", req.rawAuth)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func register(t *testing.T, h http.Handler, email, password string) map[string]any {
	t.Helper()
	w := do(t, h, request{method: "POST", path: "/auth/register",
		body: map[string]string{"email": email, "password": password}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)
}

func TestAccountLifecycle(t *testing.T) {
	h := newTestHandler(t)

	// register
	reg := register(t, h, "casey@example.com", "Sup3rSecret")
	assert.Equal(t, "casey@example.com", reg["email"])
	assert.NotEmpty(t, reg["userId"])
	assert.NotEmpty(t, reg["accessToken"])
	assert.NotEmpty(t, reg["refreshToken"])

	// the fresh access token opens the profile endpoint
	w := do(t, h, request{method: "GET", path: "/auth/me", bearer: reg["accessToken"].(string)})
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, reg["userId"], me["userId"])
	assert.Equal(t, "casey@example.com", me["email"])
	assert.NotEmpty(t, me["createdAt"])

	// login with the same credentials
	w = do(t, h, request{method: "POST", path: "/auth/login",
		body: map[string]string{"email": "casey@example.com", "password": "Sup3rSecret"}})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode(t, w)
	assert.Equal(t, reg["userId"], login["userId"])

	// refresh rotates the pair
	w = do(t, h, request{method: "POST", path: "/auth/refresh",
		body: map[string]string{"refreshToken": login["refreshToken"].(string)}})
	require.Equal(t, http.StatusOK, w.Code)
	rotated := decode(t, w)
	assert.NotEmpty(t, rotated["accessToken"])
	assert.NotEmpty(t, rotated["refreshToken"])
	assert.NotEqual(t, login["accessToken"], rotated["accessToken"])
	assert.NotEqual(t, login["refreshToken"], rotated["refreshToken"])

	// reset the password
	w = do(t, h, request{method: "POST", path: "/auth/reset-request",
		body: map[string]string{"email": "casey@example.com"}})
	require.Equal(t, http.StatusOK, w.Code)
	reset := decode(t, w)
	secret, _ := reset["resetToken"].(string)
	require.NotEmpty(t, secret)

	w = do(t, h, request{method: "POST", path: "/auth/reset-complete",
		body: map[string]string{"resetToken": secret, "newPassword": "An0therSecret"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Password reset successful", decode(t, w)["message"])

	// old password no longer works, new one does
	w = do(t, h, request{method: "POST", path: "/auth/login",
		body: map[string]string{"email": "casey@example.com", "password": "Sup3rSecret"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, request{method: "POST", path: "/auth/login",
		body: map[string]string{"email": "casey@example.com", "password": "An0therSecret"}})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_Validation(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, request{method: "POST", path: "/auth/register",
		body: map[string]string{"email": "not-an-email", "password": "short"}})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "Validation failed", resp["error"])
	errs, ok := resp["errors"].([]any)
	require.True(t, ok)
	assert.Contains(t, errs, "Invalid email format")
	assert.Contains(t, errs, "Password must be at least 8 characters long")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h := newTestHandler(t)
	register(t, h, "dup@example.com", "Sup3rSecret")

	w := do(t, h, request{method: "POST", path: "/auth/register",
		body: map[string]string{"email": "dup@example.com", "password": "Other1Secret"}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"Email already registered"}`, w.Body.String())
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	h := newTestHandler(t)
	register(t, h, "casey@example.com", "Sup3rSecret")

	unknown := do(t, h, request{method: "POST", path: "/auth/login",
		body: map[string]string{"email": "nobody@example.com", "password": "Sup3rSecret"}})
	wrongPass := do(t, h, request{method: "POST", path: "/auth/login",
		body: map[string]string{"email": "casey@example.com", "password": "WrongPass1"}})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, unknown.Body.String(), wrongPass.Body.String())
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, unknown.Body.String())
}

func TestRefresh_Errors(t *testing.T) {
	h := newTestHandler(t)
	reg := register(t, h, "casey@example.com", "Sup3rSecret")

	// missing token
	w := do(t, h, request{method: "POST", path: "/auth/refresh", body: map[string]string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// garbage token
	w = do(t, h, request{method: "POST", path: "/auth/refresh",
		body: map[string]string{"refreshToken": "not-a-jwt"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid or expired token"}`, w.Body.String())

	// access token presented where a refresh token is expected
	w = do(t, h, request{method: "POST", path: "/auth/refresh",
		body: map[string]string{"refreshToken": reg["accessToken"].(string)}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid or expired token"}`, w.Body.String())
}

func TestGuard(t *testing.T) {
	h := newTestHandler(t)
	reg := register(t, h, "casey@example.com", "Sup3rSecret")
	refreshToken := reg["refreshToken"].(string)

	tests := []struct {
		name     string
		rawAuth  string
		wantBody string
	}{
		{"no header", "", `{"error":"No token provided"}`},
		{"wrong scheme", "Token abc", `{"error":"No token provided"}`},
		{"lowercase scheme", "bearer abc", `{"error":"No token provided"}`},
		{"scheme only", "Bearer", `{"error":"No token provided"}`},
		{"extra parts", "Bearer a b", `{"error":"No token provided"}`},
		{"garbage token", "Bearer not-a-jwt", `{"error":"Invalid or expired token"}`},
		{"refresh token instead of access", "Bearer " + refreshToken, `{"error":"Invalid or expired token"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, request{method: "GET", path: "/auth/me", rawAuth: tt.rawAuth})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestResetRequest_UnknownEmailLooksTheSame(t *testing.T) {
	h := newTestHandler(t)
	register(t, h, "casey@example.com", "Sup3rSecret")

	known := do(t, h, request{method: "POST", path: "/auth/reset-request",
		body: map[string]string{"email": "casey@example.com"}})
	unknown := do(t, h, request{method: "POST", path: "/auth/reset-request",
		body: map[string]string{"email": "nobody@example.com"}})

	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)

	knownBody := decode(t, known)
	unknownBody := decode(t, unknown)
	assert.Equal(t, knownBody["message"], unknownBody["message"])
	assert.NotEmpty(t, knownBody["resetToken"])
	assert.NotEmpty(t, unknownBody["resetToken"])
}

func TestResetComplete_Errors(t *testing.T) {
	h := newTestHandler(t)
	register(t, h, "casey@example.com", "Sup3rSecret")

	w := do(t, h, request{method: "POST", path: "/auth/reset-request",
		body: map[string]string{"email": "casey@example.com"}})
	secret := decode(t, w)["resetToken"].(string)

	// weak replacement password is rejected before the token is checked
	w = do(t, h, request{method: "POST", path: "/auth/reset-complete",
		body: map[string]string{"resetToken": secret, "newPassword": "weak"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// bogus token
	w = do(t, h, request{method: "POST", path: "/auth/reset-complete",
		body: map[string]string{"resetToken": "bogus", "newPassword": "An0therSecret"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid or expired reset token"}`, w.Body.String())

	// the real token works once and only once
	w = do(t, h, request{method: "POST", path: "/auth/reset-complete",
		body: map[string]string{"resetToken": secret, "newPassword": "An0therSecret"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, request{method: "POST", path: "/auth/reset-complete",
		body: map[string]string{"resetToken": secret, "newPassword": "YetAn0ther"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouting(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, request{method: "GET", path: "/nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())

	// wrong method on a known path is still a 404
	w = do(t, h, request{method: "GET", path: "/auth/register"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())

	w = do(t, h, request{method: "GET", path: "/healthz"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInvalidBody(t *testing.T) {
	h := newTestHandler(t)

	r := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, w.Body.String())
}
