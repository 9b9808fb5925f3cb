package stories

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"safepath/internal/apierr"
	"safepath/internal/auth"
	"safepath/internal/events"
	"safepath/pkg/models"
)

type Handler struct {
	Repo    *Repo
	Service *Service
	Tokens  auth.TokenService
	Hub     *events.Hub
}

func NewHandler(svc *Service, tokens auth.TokenService, hub *events.Hub) *Handler {
	return &Handler{Repo: svc.Repo, Service: svc, Tokens: tokens, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	protected := []gin.HandlerFunc{auth.AuthMiddleware(h.Tokens), auth.RequireNGO()}

	rg.GET("", h.list)
	rg.GET("/search", append(protected, h.search)...)
	rg.POST("", append(protected, h.create)...)
	rg.GET("/:id", h.getByID)
	rg.GET("/:id/slides", h.slides)
	rg.PATCH("/:id/publish", append(protected, h.publish)...)
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		Status:   c.Query("status"),
		Topic:    c.Query("topic"),
		AgeGroup: c.Query("age_group"),
	}
	rows, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}
	out := make([]models.Story, len(rows))
	for i, r := range rows {
		out[i] = r.API()
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) search(c *gin.Context) {
	q := SearchQuery{
		NGOID: auth.MustGetClaims(c).Subject,
		Q:     c.Query("q"),
	}
	if strings.TrimSpace(q.Q) == "" {
		apierr.Respond(c, apierr.Validation("q must not be empty"))
		return
	}
	var ok bool
	if q.Limit, ok = parseInt(c.Query("limit"), 10); !ok || q.Limit < 1 || q.Limit > 100 {
		apierr.Respond(c, apierr.Validation("limit must be between 1 and 100"))
		return
	}
	if q.Offset, ok = parseInt(c.Query("offset"), 0); !ok || q.Offset < 0 {
		apierr.Respond(c, apierr.Validation("offset must be >= 0"))
		return
	}

	ctx := c.Request.Context()
	total, err := h.Repo.Count(ctx, q)
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}
	rows, err := h.Repo.Search(ctx, q)
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}

	resp := models.StorySearchResponse{
		Stories: make([]models.Story, len(rows)),
		Total:   total,
		Limit:   q.Limit,
		Offset:  q.Offset,
	}
	for i, r := range rows {
		resp.Stories[i] = r.API()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getByID(c *gin.Context) {
	s, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}
	if s == nil {
		apierr.Respond(c, apierr.NotFound("Story not found"))
		return
	}
	c.JSON(http.StatusOK, s.API())
}

func (h *Handler) slides(c *gin.Context) {
	rows, err := h.Repo.ListSlides(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}
	out := make([]models.StorySlide, len(rows))
	for i, r := range rows {
		out[i] = r.API()
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) publish(c *gin.Context) {
	ctx := c.Request.Context()
	ngoID := auth.MustGetClaims(c).Subject
	id := c.Param("id")

	s, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}
	if s == nil {
		apierr.Respond(c, apierr.NotFound("Story not found"))
		return
	}
	if s.NGOID != ngoID {
		apierr.Respond(c, apierr.Forbidden("You can only publish your own stories"))
		return
	}

	updated, err := h.Repo.Publish(ctx, id)
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}
	if updated == nil {
		apierr.Respond(c, apierr.Newf(http.StatusInternalServerError, apierr.CodeServer, "Failed to publish story"))
		return
	}
	h.Service.Log.Info("story published", "story_id", id, "ngo_id", ngoID)
	h.Hub.Publish(events.Event{Type: events.StoryPublished, NGOID: ngoID, StoryID: id})
	c.JSON(http.StatusOK, updated.API())
}

type createReq struct {
	Title          string  `json:"title"`
	Topic          string  `json:"topic"`
	AgeGroup       string  `json:"ageGroup"`
	Language       string  `json:"language"`
	CharacterCount *int    `json:"characterCount"`
	RegionContext  *string `json:"regionContext"`
	Description    *string `json:"description"`
	MoralLesson    *string `json:"moralLesson"`
}

func (r createReq) validate() (models.StoryRequest, *apierr.Error) {
	req := models.StoryRequest{
		Title:         strings.TrimSpace(r.Title),
		Topic:         strings.TrimSpace(r.Topic),
		AgeGroup:      strings.TrimSpace(r.AgeGroup),
		Language:      strings.TrimSpace(r.Language),
		RegionContext: r.RegionContext,
		MoralLesson:   r.MoralLesson,
	}
	if req.Title == "" {
		return req, apierr.Validation("title must not be empty")
	}
	if req.Topic == "" || req.AgeGroup == "" || req.Language == "" {
		return req, apierr.Validation("topic, ageGroup and language are required")
	}
	if r.Description == nil {
		return req, apierr.Validation("description is required")
	}
	req.Description = *r.Description
	if r.CharacterCount == nil || *r.CharacterCount < 1 || *r.CharacterCount > 4 {
		return req, apierr.Validation("characterCount must be between 1 and 4")
	}
	req.CharacterCount = *r.CharacterCount
	return req, nil
}

func (h *Handler) create(c *gin.Context) {
	var body createReq
	if err := c.ShouldBindJSON(&body); err != nil {
		apierr.Respond(c, apierr.Validation("Validation error: request body is invalid"))
		return
	}
	req, verr := body.validate()
	if verr != nil {
		apierr.Respond(c, verr)
		return
	}

	ngo := auth.MustGetClaims(c).Identity()
	resp, err := h.Service.Create(c.Request.Context(), ngo, req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	h.Hub.Publish(events.Event{Type: events.StoryCreated, NGOID: ngo.ID, StoryID: resp.Story.ID})
	c.JSON(http.StatusOK, resp)
}

func parseInt(s string, def int) (int, bool) {
	if strings.TrimSpace(s) == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
