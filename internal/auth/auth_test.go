package auth

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safepath/pkg/database"
	"safepath/pkg/models"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := database.Open(database.Config{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return NewRepo(db)
}

func testTokens() TokenService {
	return TokenService{Secret: []byte("test-secret"), Issuer: "safepath", Duration: time.Hour}
}

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/auth"))
	return r
}

func doJSON(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignupThenLogin(t *testing.T) {
	repo := newTestRepo(t)
	tokens := testTokens()
	r := newRouter(NewHandler(repo, tokens, nil))

	w := doJSON(r, http.MethodPost, "/api/auth/ngo/signup", gin.H{
		"orgName": "Safe Kids", "email": "Team@SafeKids.org", "password": "longenough",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var signup tokenResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signup))
	assert.True(t, signup.Success)
	assert.Equal(t, "team@safekids.org", signup.Email)
	assert.Equal(t, "Safe Kids", signup.OrgName)
	assert.Equal(t, "bearer", signup.TokenType)
	assert.Equal(t, 3600, signup.ExpiresIn)

	claims, err := tokens.Parse(signup.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, signup.NGOID, claims.Subject)
	assert.Equal(t, RoleNGO, claims.Role)
	assert.Equal(t, "Safe Kids", claims.OrgName)

	w = doJSON(r, http.MethodPost, "/api/auth/ngo/signup", gin.H{
		"orgName": "Other", "email": "team@safekids.org", "password": "longenough",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Email already registered")

	w = doJSON(r, http.MethodPost, "/api/auth/ngo/login", gin.H{
		"email": "team@safekids.org", "password": "longenough",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login tokenResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, signup.NGOID, login.NGOID)
	assert.Empty(t, login.OrgName)

	w = doJSON(r, http.MethodGet, "/api/auth/ngo/me", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Safe Kids")
}

func TestLoginFailures(t *testing.T) {
	repo := newTestRepo(t)
	r := newRouter(NewHandler(repo, testTokens(), nil))

	w := doJSON(r, http.MethodPost, "/api/auth/ngo/login", gin.H{"email": "", "password": ""}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email and password are required")

	w = doJSON(r, http.MethodPost, "/api/auth/ngo/login", gin.H{"email": "nobody@x.org", "password": "whatever1"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password")
}

func TestSignupValidation(t *testing.T) {
	r := newRouter(NewHandler(newTestRepo(t), testTokens(), nil))

	tests := []struct {
		name string
		body gin.H
		code int
	}{
		{"missing fields", gin.H{"email": "a@b.org"}, http.StatusBadRequest},
		{"short password", gin.H{"orgName": "O", "email": "a@b.org", "password": "short"}, http.StatusUnprocessableEntity},
		{"bad email", gin.H{"orgName": "O", "email": "abcde", "password": "longenough"}, http.StatusUnprocessableEntity},
		{"long org", gin.H{"orgName": strings.Repeat("o", 201), "email": "a@b.org", "password": "longenough"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/api/auth/ngo/signup", tt.body, "")
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sum := sha256.Sum256([]byte("oldpassword"))
	require.NoError(t, repo.Create(ctx, models.NGOAccount{
		ID: "ngo-1", OrgName: "Legacy", Email: "legacy@ngo.org", PasswordHash: hex.EncodeToString(sum[:]),
	}))

	r := newRouter(NewHandler(repo, testTokens(), nil))
	w := doJSON(r, http.MethodPost, "/api/auth/ngo/login", gin.H{"email": "legacy@ngo.org", "password": "oldpassword"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	a, err := repo.GetByID(ctx, "ngo-1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.True(t, strings.HasPrefix(a.PasswordHash, "$2"))

	ok, legacy := CheckPassword("oldpassword", a.PasswordHash)
	assert.True(t, ok)
	assert.False(t, legacy)
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)

	ok, legacy := CheckPassword("correct-horse", hash)
	assert.True(t, ok)
	assert.False(t, legacy)

	ok, _ = CheckPassword("wrong-horse", hash)
	assert.False(t, ok)

	ok, _ = CheckPassword("anything", "not-a-hash")
	assert.False(t, ok)
}

func TestMiddleware(t *testing.T) {
	tokens := testTokens()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/p", AuthMiddleware(tokens), RequireNGO(), func(c *gin.Context) {
		c.String(http.StatusOK, MustGetClaims(c).Subject)
	})

	good, _, err := tokens.Sign(models.NGOIdentity{ID: "ngo-9", Email: "n@x.org", OrgName: "N"})
	require.NoError(t, err)

	expired := signRaw(t, tokens, Claims{Role: RoleNGO, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "ngo-9",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	student := signRaw(t, tokens, Claims{Role: "student", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "s-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}})
	forged := signRaw(t, TokenService{Secret: []byte("other")}, Claims{Role: RoleNGO, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "ngo-9",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}})

	tests := []struct {
		name  string
		token string
		code  int
		msg   string
	}{
		{"valid", good, http.StatusOK, "ngo-9"},
		{"missing", "", http.StatusUnauthorized, "Not authenticated"},
		{"expired", expired, http.StatusUnauthorized, "Token has expired"},
		{"bad signature", forged, http.StatusUnauthorized, "Invalid authentication token"},
		{"wrong role", student, http.StatusForbidden, "Only NGO accounts can access this resource"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodGet, "/p", nil, tt.token)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.msg)
		})
	}
}

func signRaw(t *testing.T, ts TokenService, c Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(ts.Secret)
	require.NoError(t, err)
	return s
}
