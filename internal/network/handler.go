package network

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/tomz197/fruitcatch/internal/game"
	"github.com/tomz197/fruitcatch/internal/loop/config"
	"github.com/tomz197/fruitcatch/internal/loop/server"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The page may be served from a different origin during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// DefaultRunSeconds bounds a browser run when the game config sets no time limit.
const DefaultRunSeconds = 60

// PlayHandler upgrades GET /ws/play?username= into a play session.
type PlayHandler struct {
	hub server.GameServer
	cfg game.Config
	log *log.Logger
}

// NewPlayHandler creates the websocket endpoint. Browser runs are timed:
// a zero TimeLimitFrames becomes DefaultRunSeconds of client frames.
func NewPlayHandler(hub server.GameServer, cfg game.Config, logger *log.Logger) *PlayHandler {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.TimeLimitFrames == 0 {
		cfg.TimeLimitFrames = DefaultRunSeconds * config.ClientTargetFPS
	}
	return &PlayHandler{hub: hub, cfg: cfg, log: logger.WithPrefix("ws")}
}

func (h *PlayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	username := sanitizeUsername(r.URL.Query().Get("username"))
	if username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.log.Warn("upgrade", "err", err)
		return
	}

	h.log.Info("session opened", "user", username, "remote", r.RemoteAddr)
	NewSession(conn, h.hub, username, h.cfg, h.log).Serve()
}

func sanitizeUsername(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > config.MaxUsernameLength {
		runes = runes[:config.MaxUsernameLength]
	}
	return string(runes)
}
