package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(storyGenerationTotal.WithLabelValues("default"))
	StoryGenerated("default")
	assert.Equal(t, before+1, testutil.ToFloat64(storyGenerationTotal.WithLabelValues("default")))

	issues := testutil.ToFloat64(safetyIssuesTotal)
	SafetyIssues(0)
	SafetyIssues(3)
	assert.Equal(t, issues+3, testutil.ToFloat64(safetyIssuesTotal))
}

func TestHandlerExposesPipelineMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	LLMRequest("m", "ok", 300*time.Millisecond)
	Review("approved")
	ImageStep("placeholder")

	r := gin.New()
	r.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "safepath_llm_request_duration_seconds")
	assert.Contains(t, body, `safepath_llm_review_total{verdict="approved"}`)
	assert.Contains(t, body, `safepath_image_generation_total{outcome="placeholder"}`)
}
