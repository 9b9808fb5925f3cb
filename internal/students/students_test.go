package students

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safepath/pkg/database"
	"safepath/pkg/models"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := database.Open(database.Config{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewRepo(db)).RegisterRoutes(r.Group("/api/students"))
	return r
}

func post(r http.Handler, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/students", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndGet(t *testing.T) {
	r := newRouter(t)

	w := post(r, gin.H{"name": "  Meera ", "ageGroup": "6-8", "avatar": "owl"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var p models.StudentProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Meera", p.Name)
	require.NotNil(t, p.Avatar)
	assert.Equal(t, "owl", *p.Avatar)
	assert.False(t, p.CreatedAt.IsZero())

	req := httptest.NewRequest(http.MethodGet, "/api/students/"+p.ID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ageGroup":"6-8"`)

	req = httptest.NewRequest(http.MethodGet, "/api/students/missing", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateValidation(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"empty name", gin.H{"name": " ", "ageGroup": "6-8"}},
		{"long name", gin.H{"name": strings.Repeat("n", 101), "ageGroup": "6-8"}},
		{"no age group", gin.H{"name": "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(r, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
		})
	}
}
