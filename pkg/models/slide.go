package models

// Choice is one option of a branching slide.
type Choice struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Slide is the canonical in-pipeline form of a story slide.
//
// Raw LLM output and the fallback template are both mapped into this
// structure first; the safety critic and persistence layer only ever see
// Slides. Choices is nil when the slide has no branch.
type Slide struct {
	Position int      `json:"position"`
	Text     string   `json:"text"`
	Choices  []Choice `json:"choices"`
}

// HasBranch reports whether the slide carries a two-option decision.
func (s Slide) HasBranch() bool {
	return len(s.Choices) >= 2
}

// StorySlide is the API representation of a persisted slide.
// ID is the slide position within its story.
type StorySlide struct {
	ID      int      `json:"id"`
	Image   *string  `json:"image"`
	Text    string   `json:"text"`
	Choices []Choice `json:"choices"`
}

// SlideRow mirrors a story_slides row.
type SlideRow struct {
	ID       int64
	StoryID  string
	Position int
	ImageURL *string
	Text     string
	Choices  []Choice
}

func (r SlideRow) API() StorySlide {
	return StorySlide{
		ID:      r.Position,
		Image:   r.ImageURL,
		Text:    r.Text,
		Choices: r.Choices,
	}
}

// CloneSlides deep-copies a slide list so callers can rewrite it freely.
func CloneSlides(in []Slide) []Slide {
	if in == nil {
		return nil
	}
	out := make([]Slide, len(in))
	for i, s := range in {
		out[i] = s
		if s.Choices != nil {
			out[i].Choices = append([]Choice(nil), s.Choices...)
		}
	}
	return out
}
