package generation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safepath/internal/llm"
	"safepath/internal/slides"
	"safepath/pkg/models"
	"safepath/pkg/utils"
)

type call struct {
	model       string
	prompt      string
	temperature float64
}

// scripted returns one canned reply per call, in order.
type scripted struct {
	replies []string
	errs    []error
	calls   []call
}

func (s *scripted) Generate(_ context.Context, model, prompt string, temperature float64) (string, error) {
	i := len(s.calls)
	s.calls = append(s.calls, call{model, prompt, temperature})
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i >= len(s.replies) {
		return "", fmt.Errorf("unexpected call %d", i)
	}
	return s.replies[i], nil
}

func llmConfig() utils.LLMConfig {
	cfg := utils.DefaultConfig().LLM
	cfg.PlannerModel = "planner"
	cfg.StoryModel = "story"
	return cfg
}

func request() models.StoryRequest {
	region := "Mumbai market"
	return models.StoryRequest{
		Title: "Market Day", Topic: "Getting Lost", AgeGroup: "6-8", Language: "English",
		CharacterCount: 2, RegionContext: &region, Description: "A child gets separated",
	}
}

const storyJSON = `{"slides": [
	{"position": 1, "text": "Asha walks through the market."},
	{"position": 2, "text": "She cannot see her mother.", "choices": [
		{"id": "a", "text": "Ask a shopkeeper to call a police officer", "correct": true},
		{"id": "b", "text": "Wander off alone", "correct": false}
	]},
	{"position": 3, "text": "Her mother finds her."}
]}`

func TestGenerate_HappyPath(t *testing.T) {
	gen := &scripted{replies: []string{
		`{"age": 7, "location": "market", "character": {"skin": "dark", "hair": 3}, "topic": "lost"}`,
		"Here you go:\n" + storyJSON,
	}}
	o := NewOrchestrator(gen, llmConfig(), nil)

	out := o.Generate(context.Background(), request())
	require.Nil(t, out.Err)
	assert.Equal(t, SourceLLM, out.Source)
	require.Len(t, out.Slides, 3)
	assert.True(t, out.Slides[1].HasBranch())

	assert.Equal(t, SceneContext{
		Age: 7, Location: "market", Topic: "lost",
		Character: Character{Skin: "dark", Hair: "short black", Clothes: "school uniform"},
	}, out.Context)

	require.Len(t, gen.calls, 2)
	assert.Equal(t, "planner", gen.calls[0].model)
	assert.Equal(t, "story", gen.calls[1].model)
	assert.InDelta(t, 0.3, gen.calls[1].temperature, 1e-9)
	assert.Contains(t, gen.calls[0].prompt, "- region_context: Mumbai market")
	assert.Contains(t, gen.calls[0].prompt, "- moral_lesson: not provided")
	assert.Contains(t, gen.calls[1].prompt, `- context_json: {"age":7,"location":"market"`)
}

func TestGenerate_Disabled(t *testing.T) {
	cfg := llmConfig()
	cfg.Enabled = false
	gen := &scripted{}

	out := NewOrchestrator(gen, cfg, nil).Generate(context.Background(), request())
	require.NotNil(t, out.Err)
	assert.Equal(t, "LLM generation is disabled", out.Err.Error())
	assert.Empty(t, gen.calls)
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		gen     *scripted
		wantMsg string
	}{
		{"unreachable", &scripted{errs: []error{fmt.Errorf("%w: dial tcp", llm.ErrUnreachable)}}, "Cannot reach LLM server"},
		{"planner prose", &scripted{replies: []string{"I cannot help with that"}}, "No JSON object found in model response"},
		{"empty story", &scripted{replies: []string{`{}`, "  "}}, "Model returned empty response"},
		{"too few slides", &scripted{replies: []string{`{}`, `{"slides": [{"text": "a"}, {"text": "b"}]}`}}, "Model returned too few valid slides"},
		{"no slides list", &scripted{replies: []string{`{}`, `{"pages": []}`}}, "Model did not return valid slides list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewOrchestrator(tt.gen, llmConfig(), nil).Generate(context.Background(), request())
			require.NotNil(t, out.Err)
			assert.Equal(t, tt.wantMsg, out.Err.Error())
			assert.Empty(t, out.Slides)
		})
	}
}

func TestGenerate_TooFewSlidesIsGenerationError(t *testing.T) {
	gen := &scripted{replies: []string{`{}`, `{"slides": [{"text": "a"}, {"text": "b"}]}`}}
	out := NewOrchestrator(gen, llmConfig(), nil).Generate(context.Background(), request())

	var err error = out.Err
	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.ErrorIs(t, err, slides.ErrTooFewSlides)
}

func TestSelectFallback(t *testing.T) {
	req := request()
	ok := Outcome{Slides: []models.Slide{{Position: 1, Text: "x"}}, Source: SourceLLM}

	got, err := SelectFallback(ok, req, false)
	require.NoError(t, err)
	assert.Equal(t, ok, got)

	failed := Outcome{Err: &Error{Msg: "Cannot reach LLM server"}}
	_, err = SelectFallback(failed, req, false)
	var ge *Error
	require.True(t, errors.As(err, &ge))

	got, err = SelectFallback(failed, req, true)
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, got.Source)
	assert.Len(t, got.Slides, 3)
	assert.Equal(t, failed.Err, got.Err)
}
