package students

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"safepath/internal/apierr"
	"safepath/pkg/models"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.create)
	rg.GET("/:id", h.get)
}

type createReq struct {
	Name     string  `json:"name"`
	AgeGroup string  `json:"ageGroup"`
	Avatar   *string `json:"avatar"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, apierr.Validation("Validation error: request body is invalid"))
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > 100 {
		apierr.Respond(c, apierr.Validation("name must be 1-100 characters"))
		return
	}
	ageGroup := strings.TrimSpace(req.AgeGroup)
	if ageGroup == "" {
		apierr.Respond(c, apierr.Validation("ageGroup is required"))
		return
	}

	p, err := h.Repo.Create(c.Request.Context(), models.StudentProfile{
		ID:        uuid.NewString(),
		Name:      name,
		AgeGroup:  ageGroup,
		Avatar:    req.Avatar,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}
	if p == nil {
		apierr.Respond(c, apierr.Newf(http.StatusInternalServerError, apierr.CodeServer, "Failed to create student profile"))
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}
	if p == nil {
		apierr.Respond(c, apierr.NotFound("Student not found"))
		return
	}
	c.JSON(http.StatusOK, p)
}
