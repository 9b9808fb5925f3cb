package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"safepath/internal/apierr"
	"safepath/pkg/logger"
	"safepath/pkg/models"
)

type Handler struct {
	Repo   *Repo
	Tokens TokenService
	Log    *logger.Logger
}

func NewHandler(repo *Repo, tokens TokenService, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{Repo: repo, Tokens: tokens, Log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ngo/signup", h.signup)
	rg.POST("/ngo/login", h.login)
	rg.GET("/ngo/me", AuthMiddleware(h.Tokens), RequireNGO(), h.me)
}

type signupReq struct {
	OrgName  string `json:"orgName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	Success     bool   `json:"success"`
	NGOID       string `json:"ngoId"`
	Email       string `json:"email"`
	OrgName     string `json:"orgName,omitempty"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, apierr.BadRequest("Invalid JSON body"))
		return
	}

	req.OrgName = strings.TrimSpace(req.OrgName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.OrgName == "" || req.Email == "" || req.Password == "" {
		apierr.Respond(c, apierr.BadRequest("Email, password, and organization name are required"))
		return
	}
	if utf8.RuneCountInString(req.OrgName) > 200 {
		apierr.Respond(c, apierr.Validation("orgName must be 1-200 characters"))
		return
	}
	if len(req.Email) < 5 || !strings.Contains(req.Email, "@") {
		apierr.Respond(c, apierr.Validation("Invalid email"))
		return
	}
	// bcrypt ignores bytes past 72
	if len(req.Password) < 8 || len(req.Password) > 72 {
		apierr.Respond(c, apierr.Validation("Password must be 8-72 characters"))
		return
	}

	ctx := c.Request.Context()
	if a, err := h.Repo.GetByEmail(ctx, req.Email); err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	} else if a != nil {
		apierr.Respond(c, apierr.Conflict("Email already registered"))
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	account := models.NGOAccount{
		ID:           uuid.NewString(),
		OrgName:      req.OrgName,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Repo.Create(ctx, account); err != nil {
		// lost a race with a concurrent signup
		if errors.Is(err, ErrEmailTaken) {
			apierr.Respond(c, apierr.Conflict("Email already registered"))
			return
		}
		apierr.Respond(c, apierr.Database(err))
		return
	}

	h.Log.Info("ngo signed up", "ngo_id", account.ID)
	h.respondToken(c, account, true)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, apierr.BadRequest("Invalid JSON body"))
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		apierr.Respond(c, apierr.BadRequest("Email and password are required"))
		return
	}

	ctx := c.Request.Context()
	a, err := h.Repo.GetByEmail(ctx, email)
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}
	if a == nil {
		// don't reveal which part failed
		apierr.Respond(c, apierr.Unauthorized("Invalid email or password"))
		return
	}

	ok, legacy := CheckPassword(req.Password, a.PasswordHash)
	if !ok {
		apierr.Respond(c, apierr.Unauthorized("Invalid email or password"))
		return
	}
	if legacy {
		if hash, err := HashPassword(req.Password); err == nil {
			if err := h.Repo.UpdatePasswordHash(ctx, a.ID, hash); err != nil {
				h.Log.Warn("password rehash failed", "ngo_id", a.ID, "err", err)
			} else {
				h.Log.Info("upgraded legacy password hash", "ngo_id", a.ID)
			}
		}
	}

	h.respondToken(c, *a, false)
}

func (h *Handler) me(c *gin.Context) {
	claims := MustGetClaims(c)
	a, err := h.Repo.GetByID(c.Request.Context(), claims.Subject)
	if err != nil {
		apierr.Respond(c, apierr.Database(err))
		return
	}
	if a == nil {
		apierr.Respond(c, apierr.Forbidden("NGO not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"ngoId":   a.ID,
		"email":   a.Email,
		"orgName": a.OrgName,
	})
}

func (h *Handler) respondToken(c *gin.Context, a models.NGOAccount, withOrg bool) {
	ident := models.NGOIdentity{ID: a.ID, Email: a.Email, OrgName: a.OrgName}
	token, _, err := h.Tokens.Sign(ident)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	resp := tokenResp{
		Success:     true,
		NGOID:       a.ID,
		Email:       a.Email,
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   h.Tokens.ExpiresIn(),
	}
	if withOrg {
		resp.OrgName = a.OrgName
	}
	c.JSON(http.StatusOK, resp)
}
