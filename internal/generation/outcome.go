package generation

import "safepath/pkg/models"

const (
	SourceLLM     = "llm"
	SourceDefault = "default"
)

// Outcome is what a generation attempt produced. Err is set when the model
// path failed; Slides and Context are then empty.
type Outcome struct {
	Context SceneContext
	Slides  []models.Slide
	Source  string
	Err     *Error
}

func DefaultOutcome(req models.StoryRequest) Outcome {
	return Outcome{Context: DefaultContext(req), Slides: DefaultSlides(req), Source: SourceDefault}
}

// SelectFallback resolves a failed outcome: with allowDefault the template
// slides replace it, otherwise the generation error is returned.
func SelectFallback(out Outcome, req models.StoryRequest, allowDefault bool) (Outcome, error) {
	if out.Err == nil {
		return out, nil
	}
	if !allowDefault {
		return Outcome{}, out.Err
	}
	fallback := DefaultOutcome(req)
	fallback.Err = out.Err
	return fallback, nil
}
