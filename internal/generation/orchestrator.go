// Package generation drafts story slides with a planner and a generator
// prompt, with a fixed template as the fallback.
package generation

import (
	"context"

	"safepath/internal/llm"
	"safepath/internal/slides"
	"safepath/pkg/logger"
	"safepath/pkg/models"
	"safepath/pkg/utils"
)

const temperature = 0.3

type Generator interface {
	Generate(ctx context.Context, model, prompt string, temperature float64) (string, error)
}

type Orchestrator struct {
	gen Generator
	cfg utils.LLMConfig
	log *logger.Logger
}

func NewOrchestrator(gen Generator, cfg utils.LLMConfig, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{gen: gen, cfg: cfg, log: log.With("component", "generation")}
}

// Generate runs planner then generator, one attempt each. Failures are
// returned inside the Outcome.
func (o *Orchestrator) Generate(ctx context.Context, req models.StoryRequest) Outcome {
	scene, out, err := o.generate(ctx, req)
	if err != nil {
		ge := wrap(err)
		o.log.Warn("story generation failed", "reason", ge.Msg, "error", err)
		return Outcome{Err: ge}
	}
	return Outcome{Context: scene, Slides: out, Source: SourceLLM}
}

func (o *Orchestrator) generate(ctx context.Context, req models.StoryRequest) (SceneContext, []models.Slide, error) {
	if !o.cfg.Enabled {
		return SceneContext{}, nil, ErrDisabled
	}

	planned, err := o.generateJSON(ctx, o.cfg.PlannerModel, plannerPrompt(req))
	if err != nil {
		return SceneContext{}, nil, err
	}
	scene := ValidateContext(planned, req)

	prompt, err := generatorPrompt(req, scene)
	if err != nil {
		return SceneContext{}, nil, err
	}
	story, err := o.generateJSON(ctx, o.cfg.StoryModel, prompt)
	if err != nil {
		return SceneContext{}, nil, err
	}

	out, err := slides.Normalize(story, req)
	if err != nil {
		return SceneContext{}, nil, err
	}
	return scene, out, nil
}

func (o *Orchestrator) generateJSON(ctx context.Context, model, prompt string) (map[string]any, error) {
	text, err := o.gen.Generate(ctx, model, prompt, temperature)
	if err != nil {
		return nil, err
	}
	return llm.ExtractJSONObject(text)
}
