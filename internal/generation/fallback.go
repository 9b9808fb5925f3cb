package generation

import (
	"fmt"
	"strings"

	"safepath/pkg/models"
)

const defaultGuidance = "Say no, move to safety, and tell a trusted adult immediately."

// DefaultSlides is the three-slide template used whenever generated content
// cannot be used.
func DefaultSlides(req models.StoryRequest) []models.Slide {
	guidance := req.Lesson(defaultGuidance)
	return []models.Slide{
		{
			Position: 1,
			Text:     fmt.Sprintf("%s begins in %s where children are learning how to stay safe.", req.Title, req.Region("a familiar neighborhood")),
		},
		{
			Position: 2,
			Text:     fmt.Sprintf("A tricky situation appears around %s. What should the child do?", strings.ToLower(req.Topic)),
			Choices: []models.Choice{
				{ID: "a", Text: guidance, Correct: true},
				{ID: "b", Text: "Keep it secret and stay quiet.", Correct: false},
			},
		},
		{
			Position: 3,
			Text:     "The child makes a safe choice and learns: " + guidance,
		},
	}
}
