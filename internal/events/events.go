// Package events pushes story lifecycle events to an NGO's connected
// dashboards over WebSocket.
package events

import "time"

const (
	StoryCreated     = "story.created"
	StoryPublished   = "story.published"
	SessionStarted   = "session.started"
	SessionCompleted = "session.completed"
)

type Event struct {
	Type      string    `json:"type"`
	NGOID     string    `json:"ngo_id"`
	StoryID   string    `json:"story_id"`
	SessionID string    `json:"session_id,omitempty"`
	StudentID string    `json:"student_id,omitempty"`
	At        time.Time `json:"at"`
}
