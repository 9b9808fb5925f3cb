package safety

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"safepath/internal/llm"
	"safepath/pkg/logger"
	"safepath/pkg/models"
)

// Verdict is the advisory outcome of a secondary review.
type Verdict struct {
	Approved  bool     `json:"approved"`
	RiskFlags []string `json:"risk_flags"`
	Notes     string   `json:"notes"`
}

func UnavailableVerdict() Verdict {
	return Verdict{Approved: false, RiskFlags: []string{"llm_review_unavailable"}, Notes: "LLM review unavailable"}
}

func InvalidVerdict() Verdict {
	return Verdict{Approved: false, RiskFlags: []string{"llm_review_invalid"}, Notes: "Invalid LLM review payload"}
}

// Label is the metric label for v.
func (v Verdict) Label() string {
	switch {
	case v.Approved:
		return "approved"
	case len(v.RiskFlags) == 1 && v.RiskFlags[0] == "llm_review_unavailable":
		return "unavailable"
	case len(v.RiskFlags) == 1 && v.RiskFlags[0] == "llm_review_invalid":
		return "invalid"
	default:
		return "rejected"
	}
}

// Reviewer never fails; problems are folded into the verdict.
type Reviewer interface {
	Review(ctx context.Context, req models.StoryRequest, slides []models.Slide) Verdict
}

// Generator is the subset of llm.Client the reviewer needs.
type Generator interface {
	Generate(ctx context.Context, model, prompt string, temperature float64) (string, error)
}

type LLMReviewer struct {
	gen   Generator
	model string
	log   *logger.Logger
}

func NewLLMReviewer(gen Generator, model string, log *logger.Logger) *LLMReviewer {
	if log == nil {
		log = logger.Nop()
	}
	return &LLMReviewer{gen: gen, model: model, log: log.With("component", "llm_review")}
}

func (r *LLMReviewer) Review(ctx context.Context, req models.StoryRequest, slides []models.Slide) Verdict {
	prompt, err := reviewPrompt(req, slides)
	if err != nil {
		r.log.Warn("build review prompt", "error", err)
		return UnavailableVerdict()
	}

	text, err := r.gen.Generate(ctx, r.model, prompt, 0.0)
	if err != nil {
		r.log.Warn("review request failed", "error", err)
		if errors.Is(err, llm.ErrUnexpectedPayload) {
			return InvalidVerdict()
		}
		return UnavailableVerdict()
	}

	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return UnavailableVerdict()
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return InvalidVerdict()
	}
	return verdictFrom(obj)
}

func verdictFrom(obj map[string]any) Verdict {
	var v Verdict
	v.Approved, _ = obj["approved"].(bool)
	v.Notes, _ = obj["notes"].(string)
	if flags, ok := obj["risk_flags"].([]any); ok {
		for _, f := range flags {
			if s, ok := f.(string); ok {
				v.RiskFlags = append(v.RiskFlags, s)
			}
		}
	}
	return v
}

func reviewPrompt(req models.StoryRequest, slides []models.Slide) (string, error) {
	slidesJSON, err := json.Marshal(slides)
	if err != nil {
		return "", fmt.Errorf("marshal slides: %w", err)
	}
	return "You are a child-safety reviewer. Review story slides for age appropriateness and safety guidance. " +
		"Return ONLY valid JSON with this shape: " +
		`{"approved": boolean, "risk_flags": [string], "notes": string}. ` +
		"Do not include markdown.\n\n" +
		"topic: " + req.Topic + "\n" +
		"age_group: " + req.AgeGroup + "\n" +
		"slides_json: " + string(slidesJSON), nil
}
