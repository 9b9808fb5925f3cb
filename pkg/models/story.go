package models

import "time"

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// StoryRequest is the NGO input for a new story. The generation pipeline
// only reads it.
type StoryRequest struct {
	Title          string  `json:"title"`
	Topic          string  `json:"topic"`
	AgeGroup       string  `json:"ageGroup"`
	Language       string  `json:"language"`
	CharacterCount int     `json:"characterCount"`
	RegionContext  *string `json:"regionContext"`
	Description    string  `json:"description"`
	MoralLesson    *string `json:"moralLesson"`
}

// Region returns the region context or def when it is unset or blank.
func (r StoryRequest) Region(def string) string {
	if r.RegionContext == nil || *r.RegionContext == "" {
		return def
	}
	return *r.RegionContext
}

// Lesson returns the moral lesson or def when it is unset or blank.
func (r StoryRequest) Lesson(def string) string {
	if r.MoralLesson == nil || *r.MoralLesson == "" {
		return def
	}
	return *r.MoralLesson
}

// StoryRow mirrors a stories row.
type StoryRow struct {
	ID              string
	NGOID           string
	Title           string
	Topic           string
	AgeGroup        string
	Language        string
	RegionContext   *string
	Description     string
	MoralLesson     *string
	CharacterCount  int
	CoverImageURL   *string
	Status          string
	StudentsReached int
	CompletionRate  int
	CreatedAt       time.Time
}

// Story is the API representation of a story.
type Story struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Topic           string  `json:"topic"`
	AgeGroup        string  `json:"ageGroup"`
	Language        string  `json:"language"`
	CoverImage      *string `json:"coverImage"`
	Status          string  `json:"status"`
	StudentsReached int     `json:"studentsReached"`
	CompletionRate  int     `json:"completionRate"`
	CreatedAt       string  `json:"createdAt"`
}

func (r StoryRow) API() Story {
	status := r.Status
	if status == "" {
		status = StatusDraft
	}
	return Story{
		ID:              r.ID,
		Title:           r.Title,
		Topic:           r.Topic,
		AgeGroup:        r.AgeGroup,
		Language:        r.Language,
		CoverImage:      r.CoverImageURL,
		Status:          status,
		StudentsReached: r.StudentsReached,
		CompletionRate:  r.CompletionRate,
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type StoryCreateResponse struct {
	Story  Story        `json:"story"`
	Slides []StorySlide `json:"slides"`
}

type StorySearchResponse struct {
	Stories []Story `json:"stories"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}
