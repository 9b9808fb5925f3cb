// Package dashboard aggregates per-NGO story statistics.
package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"safepath/internal/apierr"
	"safepath/internal/auth"
	"safepath/internal/sessions"
	"safepath/pkg/database"
	"safepath/pkg/models"
)

type storyStat struct {
	studentsReached int
	completionRate  int
}

// Compute weighs each story's completion rate by the students it reached.
func Compute(stats []storyStat) models.DashboardStats {
	out := models.DashboardStats{StoriesCreated: len(stats)}
	weighted := 0
	for _, s := range stats {
		out.StudentsReached += s.studentsReached
		weighted += s.completionRate * s.studentsReached
	}
	if out.StudentsReached > 0 {
		out.CompletionRate = weighted / out.StudentsReached
	}
	return out
}

type Service struct {
	DB       *database.DB
	Sessions *sessions.Repo
	Now      func() time.Time
}

func NewService(db *database.DB, sessionRepo *sessions.Repo) *Service {
	return &Service{DB: db, Sessions: sessionRepo, Now: time.Now}
}

func (s *Service) Stats(ctx context.Context, ngoID string) (models.DashboardStats, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT students_reached, completion_rate
		FROM stories
		WHERE ngo_id = ?
	`, ngoID)
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("dashboard query: %w", err)
	}
	defer rows.Close()

	var stats []storyStat
	for rows.Next() {
		var st storyStat
		if err := rows.Scan(&st.studentsReached, &st.completionRate); err != nil {
			return models.DashboardStats{}, fmt.Errorf("dashboard scan: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return models.DashboardStats{}, fmt.Errorf("rows err: %w", err)
	}
	// release the connection before the next query; in-memory sqlite has one
	rows.Close()

	out := Compute(stats)
	out.ActiveSessions, err = s.Sessions.CountActive(ctx, ngoID, s.Now().UTC().Add(-sessions.ActiveWindow))
	if err != nil {
		return models.DashboardStats{}, err
	}
	return out, nil
}

type Handler struct {
	Service *Service
	Tokens  auth.TokenService
}

func NewHandler(svc *Service, tokens auth.TokenService) *Handler {
	return &Handler{Service: svc, Tokens: tokens}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", auth.AuthMiddleware(h.Tokens), auth.RequireNGO(), h.stats)
}

func (h *Handler) stats(c *gin.Context) {
	out, err := h.Service.Stats(c.Request.Context(), auth.MustGetClaims(c).Subject)
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}
	c.JSON(http.StatusOK, out)
}
