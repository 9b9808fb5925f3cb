// Package metrics holds the Prometheus collectors of the story pipeline.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	storyGenerationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safepath_story_generation_total",
		Help: "Stories generated, by slide source (llm or default)",
	}, []string{"source"})

	safetyIssuesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safepath_safety_issues_total",
		Help: "Issues recorded by the safety critic",
	})

	llmRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "safepath_llm_request_duration_seconds",
		Help:    "Duration of /api/generate calls",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
	}, []string{"model", "outcome"})

	llmReviewTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safepath_llm_review_total",
		Help: "Secondary review verdicts",
	}, []string{"verdict"})

	imageGenerationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safepath_image_generation_total",
		Help: "Image step runs by outcome",
	}, []string{"outcome"})
)

func StoryGenerated(source string) { storyGenerationTotal.WithLabelValues(source).Inc() }

func SafetyIssues(n int) {
	if n > 0 {
		safetyIssuesTotal.Add(float64(n))
	}
}

func LLMRequest(model, outcome string, d time.Duration) {
	llmRequestDuration.WithLabelValues(model, outcome).Observe(d.Seconds())
}

func Review(verdict string) { llmReviewTotal.WithLabelValues(verdict).Inc() }

func ImageStep(outcome string) { imageGenerationTotal.WithLabelValues(outcome).Inc() }

// Handler serves the default registry for GET /metrics.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
