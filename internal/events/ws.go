package events

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"safepath/internal/apierr"
	"safepath/internal/auth"
	"safepath/pkg/logger"
)

type Handler struct {
	Hub      *Hub
	Tokens   auth.TokenService
	Log      *logger.Logger
	upgrader websocket.Upgrader
}

// NewHandler accepts browser upgrades only from origins. Non-browser clients
// send no Origin and are always allowed.
func NewHandler(hub *Hub, tokens auth.TokenService, origins []string, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return &Handler{
		Hub:    hub,
		Tokens: tokens,
		Log:    log.With("component", "events"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws", h.serve)
}

// serve authenticates with the usual bearer header or, for browsers that
// cannot set headers on a WebSocket, a token query parameter.
func (h *Handler) serve(c *gin.Context) {
	raw := c.Query("token")
	if hdr := c.GetHeader("Authorization"); raw == "" && strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		raw = strings.TrimSpace(hdr[len("Bearer "):])
	}
	if raw == "" {
		apierr.Respond(c, apierr.Unauthorized("Not authenticated"))
		return
	}
	claims, err := h.Tokens.Parse(raw)
	if err != nil {
		apierr.Respond(c, apierr.Unauthorized("Invalid authentication token"))
		return
	}
	if claims.Role != auth.RoleNGO {
		apierr.Respond(c, apierr.Forbidden("Only NGO accounts can access this resource"))
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	// welcome goes out before registration so it cannot interleave with events
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"welcome","transport":"websocket"}`))

	h.Hub.Add(ws, claims.Subject)
	h.Log.Info("ws client connected", "ngo_id", claims.Subject)

	// ignore incoming messages; a read error means the client left
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	h.Hub.Remove(ws)
	h.Log.Info("ws client disconnected", "ngo_id", claims.Subject)
}
