package models

type DashboardStats struct {
	StoriesCreated  int `json:"storiesCreated"`
	StudentsReached int `json:"studentsReached"`
	CompletionRate  int `json:"completionRate"`
	ActiveSessions  int `json:"activeSessions"`
}
