// Package slides turns loosely structured model output into canonical
// models.Slide values.
package slides

import (
	"errors"
	"fmt"
	"strings"

	"safepath/pkg/models"
)

// MaxSlides caps how many raw entries are considered and how long the
// normalized list may grow.
const MaxSlides = 8

const minSlides = 3

var (
	ErrNoSlides     = errors.New("Model did not return valid slides list")
	ErrTooFewSlides = errors.New("Model returned too few valid slides")
)

const (
	defaultLesson    = "Say no and tell a trusted adult."
	riskyChoiceWrong = "Ignore warning signs and go alone."
)

// Normalize validates raw (a decoded JSON object with a "slides" list) and
// returns 3..MaxSlides slides with positions 1..N, at least one of which
// carries a two-choice branch.
func Normalize(raw any, req models.StoryRequest) ([]models.Slide, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrNoSlides
	}
	list, ok := obj["slides"].([]any)
	if !ok || len(list) == 0 {
		return nil, ErrNoSlides
	}
	if len(list) > MaxSlides {
		list = list[:MaxSlides]
	}

	out := make([]models.Slide, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text, _ := entry["text"].(string)
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		out = append(out, models.Slide{
			Text:    text,
			Choices: normalizeChoices(entry["choices"]),
		})
	}

	if len(out) < minSlides {
		return nil, ErrTooFewSlides
	}

	if !hasBranch(out) {
		out = Insert(out, 1, riskySlide(req))
		if len(out) > MaxSlides {
			out = out[:MaxSlides]
		}
	}
	return Resequence(out), nil
}

func normalizeChoices(raw any) []models.Choice {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	var out []models.Choice
	for idx, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text, _ := entry["text"].(string)
		correct, isBool := entry["correct"].(bool)
		if strings.TrimSpace(text) == "" || !isBool {
			continue
		}
		id, _ := entry["id"].(string)
		if id = strings.TrimSpace(id); id == "" {
			id = DefaultChoiceID(idx)
		}
		out = append(out, models.Choice{ID: id, Text: strings.TrimSpace(text), Correct: correct})
	}
	if len(out) == 0 {
		return nil
	}

	anyCorrect := false
	for _, c := range out {
		anyCorrect = anyCorrect || c.Correct
	}
	if !anyCorrect {
		out[0].Correct = true
	}
	return out
}

func riskySlide(req models.StoryRequest) models.Slide {
	return models.Slide{
		Text: fmt.Sprintf("A risky moment appears about %s. What is the safest choice?", strings.ToLower(req.Topic)),
		Choices: []models.Choice{
			{ID: "a", Text: req.Lesson(defaultLesson), Correct: true},
			{ID: "b", Text: riskyChoiceWrong, Correct: false},
		},
	}
}

func hasBranch(in []models.Slide) bool {
	for _, s := range in {
		if s.HasBranch() {
			return true
		}
	}
	return false
}
