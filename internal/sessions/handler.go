package sessions

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"safepath/internal/apierr"
	"safepath/internal/events"
	"safepath/internal/stories"
	"safepath/internal/students"
	"safepath/pkg/models"
)

type Handler struct {
	Repo     *Repo
	Stories  *stories.Repo
	Students *students.Repo
	Hub      *events.Hub
}

func NewHandler(repo *Repo, storyRepo *stories.Repo, studentRepo *students.Repo, hub *events.Hub) *Handler {
	return &Handler{Repo: repo, Stories: storyRepo, Students: studentRepo, Hub: hub}
}

// RegisterRoutes mounts on the API root group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/stories/:id/sessions", h.start)
	rg.PATCH("/sessions/:id/complete", h.complete)
}

type startReq struct {
	StudentID string `json:"studentId"`
}

func (h *Handler) start(c *gin.Context) {
	var req startReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, apierr.Validation("Validation error: request body is invalid"))
		return
	}
	studentID := strings.TrimSpace(req.StudentID)
	if studentID == "" {
		apierr.Respond(c, apierr.Validation("studentId is required"))
		return
	}

	ctx := c.Request.Context()
	story, err := h.Stories.GetByID(ctx, c.Param("id"))
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}
	if story == nil {
		apierr.Respond(c, apierr.NotFound("Story not found"))
		return
	}
	student, err := h.Students.GetByID(ctx, studentID)
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}
	if student == nil {
		apierr.Respond(c, apierr.NotFound("Student not found"))
		return
	}

	s, err := h.Repo.Start(ctx, models.StorySession{
		ID:        uuid.NewString(),
		StoryID:   story.ID,
		StudentID: student.ID,
		StartedAt: time.Now().UTC(),
	})
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}
	h.Hub.Publish(events.Event{Type: events.SessionStarted, NGOID: story.NGOID, StoryID: story.ID, SessionID: s.ID, StudentID: s.StudentID})
	c.JSON(http.StatusCreated, s)
}

type completeReq struct {
	CorrectChoices int `json:"correctChoices"`
}

func (h *Handler) complete(c *gin.Context) {
	var req completeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, apierr.Validation("Validation error: request body is invalid"))
		return
	}
	if req.CorrectChoices < 0 {
		apierr.Respond(c, apierr.Validation("correctChoices must be >= 0"))
		return
	}

	s, err := h.Repo.Complete(c.Request.Context(), c.Param("id"), req.CorrectChoices, time.Now().UTC())
	if errors.Is(err, ErrAlreadyCompleted) {
		apierr.Respond(c, apierr.Conflict("Session already completed"))
		return
	}
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}
	if s == nil {
		apierr.Respond(c, apierr.NotFound("Session not found"))
		return
	}
	if story, err := h.Stories.GetByID(c.Request.Context(), s.StoryID); err == nil && story != nil {
		h.Hub.Publish(events.Event{Type: events.SessionCompleted, NGOID: story.NGOID, StoryID: story.ID, SessionID: s.ID, StudentID: s.StudentID})
	}
	c.JSON(http.StatusOK, s)
}
