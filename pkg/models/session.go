package models

import "time"

// StorySession records one student playing through one story.
type StorySession struct {
	ID             string     `json:"id"`
	StoryID        string     `json:"storyId"`
	StudentID      string     `json:"studentId"`
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CorrectChoices int        `json:"correctChoices"`
}
