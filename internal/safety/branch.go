package safety

import (
	"fmt"

	"safepath/internal/slides"
	"safepath/pkg/models"
)

func coercedBranchSlide() models.Slide {
	return models.Slide{
		Text: "A risky moment appears. What is the safest choice?",
		Choices: []models.Choice{
			{ID: "a", Text: "Move away and tell a trusted adult.", Correct: true},
			{ID: "b", Text: "Go alone and keep it secret.", Correct: false},
		},
	}
}

// CoerceBranch makes every choice list exactly two entries with exactly one
// correct, drops single-entry lists, and inserts a default decision slide at
// index 1 when nothing branches. Positions are re-sequenced.
func CoerceBranch(in []models.Slide) []models.Slide {
	out, _ := coerceBranch(in)
	return out
}

func coerceBranch(in []models.Slide) ([]models.Slide, []string) {
	out := models.CloneSlides(in)
	var issues []string
	branched := false

	for i := range out {
		switch n := len(out[i].Choices); {
		case n >= 2:
			out[i].Choices = pairOf(out[i].Choices)
			branched = true
		case n == 1:
			out[i].Choices = nil
			issues = append(issues, fmt.Sprintf("slide_%d: dropped single choice", i+1))
		default:
			out[i].Choices = nil
		}
	}

	if !branched {
		out = slides.Insert(out, 1, coercedBranchSlide())
	}
	return slides.Resequence(out), issues
}

// pairOf keeps the first two choices; if both carry the same flag the first
// becomes the correct one.
func pairOf(choices []models.Choice) []models.Choice {
	pair := []models.Choice{choices[0], choices[1]}
	for i := range pair {
		if pair[i].ID == "" {
			pair[i].ID = slides.DefaultChoiceID(i)
		}
		if pair[i].Text == "" {
			pair[i].Text = defaultChoiceText
		}
	}
	if pair[0].Correct == pair[1].Correct {
		pair[0].Correct = true
		pair[1].Correct = false
	}
	return pair
}
