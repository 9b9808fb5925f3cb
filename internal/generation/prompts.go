package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"safepath/pkg/models"
)

func orNotProvided(s string) string {
	if s == "" {
		return "not provided"
	}
	return s
}

func plannerPrompt(req models.StoryRequest) string {
	var b strings.Builder
	b.WriteString("You are a planner that converts NGO input into child-safe structured context for a safety story. ")
	b.WriteString("Return ONLY valid JSON with this exact shape: ")
	b.WriteString(`{"age": number, "location": string, "character": {"skin": string, "hair": string, "clothes": string}, "topic": string}. `)
	b.WriteString("Do not include markdown or extra keys.\n\n")
	b.WriteString("NGO Input:\n")
	fmt.Fprintf(&b, "- title: %s\n", req.Title)
	fmt.Fprintf(&b, "- topic: %s\n", req.Topic)
	fmt.Fprintf(&b, "- age_group: %s\n", req.AgeGroup)
	fmt.Fprintf(&b, "- language: %s\n", req.Language)
	fmt.Fprintf(&b, "- region_context: %s\n", orNotProvided(req.Region("")))
	fmt.Fprintf(&b, "- character_count: %d\n", req.CharacterCount)
	fmt.Fprintf(&b, "- description: %s\n", req.Description)
	fmt.Fprintf(&b, "- moral_lesson: %s", orNotProvided(req.Lesson("")))
	return b.String()
}

func generatorPrompt(req models.StoryRequest, scene SceneContext) (string, error) {
	sceneJSON, err := json.Marshal(scene)
	if err != nil {
		return "", fmt.Errorf("marshal scene context: %w", err)
	}

	var b strings.Builder
	b.WriteString("You generate branching, age-appropriate child safety stories as JSON. ")
	b.WriteString("Return ONLY valid JSON with this exact shape: ")
	b.WriteString(`{"slides": [{"position": number, "text": string, "choices": null | [{"id": string, "text": string, "correct": boolean}]}]}. `)
	b.WriteString("Rules: 4 to 6 slides, simple language, at least one slide with exactly 2 choices (one correct=true and one correct=false), ")
	b.WriteString("no violence, focus on safe behavior and trusted adults, output in the requested language.\n\n")
	b.WriteString("Story metadata:\n")
	fmt.Fprintf(&b, "- title: %s\n", req.Title)
	fmt.Fprintf(&b, "- topic: %s\n", req.Topic)
	fmt.Fprintf(&b, "- age_group: %s\n", req.AgeGroup)
	fmt.Fprintf(&b, "- language: %s\n", req.Language)
	fmt.Fprintf(&b, "- moral_lesson: %s\n", req.Lesson("Use safe choices and tell a trusted adult."))
	fmt.Fprintf(&b, "- region_context: %s\n", orNotProvided(req.Region("")))
	fmt.Fprintf(&b, "- context_json: %s", sceneJSON)
	return b.String(), nil
}
