package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"junketops-service/internal/pkg/jwt"
)

func newTestAuth(t *testing.T) (*AuthMiddleware, *jwt.Generator, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	gen := jwt.NewGenerator(key, "junketops", "junketops-dashboard", "test-key", time.Hour)
	verifier := jwt.NewVerifier(&key.PublicKey, "junketops", "junketops-dashboard")
	return NewAuthMiddleware(verifier), gen, key
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth, gen, key := newTestAuth(t)

	r := gin.New()
	r.GET("/admin", append(auth.AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})...)
	r.GET("/view", append(auth.Authenticated(), func(c *gin.Context) {
		id, ok := GetIdentityID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{
			"identity_id":   id,
			"agent_id":      GetAgentID(c),
			"authenticated": IsAuthenticated(c),
			"admin":         IsAdmin(c),
			"agent":         IsAgent(c),
		})
	})...)

	do := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("missing token is rejected", func(t *testing.T) {
		w := do("/view", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		w := do("/view", "not-a-token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("agent cannot reach admin routes", func(t *testing.T) {
		token, _, err := gen.GenerateAgentToken(7, "agent-1", "web")
		require.NoError(t, err)

		w := do("/admin", token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin passes both route groups", func(t *testing.T) {
		token, _, err := gen.GenerateAdminToken(1, "web")
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, do("/admin", token).Code)

		w := do("/view", token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"admin":true`)
		assert.Contains(t, w.Body.String(), `"agent_id":""`)
	})

	t.Run("agent token carries its scope into context", func(t *testing.T) {
		token, _, err := gen.GenerateAgentToken(7, "agent-1", "web")
		require.NoError(t, err)

		w := do("/view", token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"agent_id":"agent-1"`)
		assert.Contains(t, w.Body.String(), `"identity_id":7`)
		assert.Contains(t, w.Body.String(), `"agent":true`)
	})

	t.Run("query param token works for websocket style clients", func(t *testing.T) {
		token, _, err := gen.GenerateAdminToken(1, "web")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/view?token="+token, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("token from a different issuer is rejected", func(t *testing.T) {
		// Same signing key, wrong issuer claim.
		other := jwt.NewGenerator(key, "someone-else", "junketops-dashboard", "test-key", time.Hour)
		token, _, err := other.GenerateAdminToken(1, "web")
		require.NoError(t, err)

		w := do("/view", token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
