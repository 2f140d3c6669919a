package ws

import (
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/chat-backend/internal/config"
	"github.com/fathima-sithara/chat-backend/internal/presence"
)

// Server owns the push channel: it binds each accepted connection to
// the announced user id and keeps the binding until the socket dies.
type Server struct {
	registry *presence.Registry
	cfg      *config.Config
	logger   *zap.SugaredLogger
}

func NewServer(registry *presence.Registry, cfg *config.Config, logger *zap.SugaredLogger) *Server {
	return &Server{registry: registry, cfg: cfg, logger: logger}
}

// Handle runs for the lifetime of one websocket connection. The user
// id comes from the auth middleware (Locals) with a query fallback,
// matching how the client announces itself at connect time.
func (s *Server) Handle(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	if userID == "" {
		userID = conn.Query("user_id")
	}
	if userID == "" {
		s.logger.Warn("ws connect without user id, closing")
		_ = conn.Close()
		return
	}

	client := NewClient(conn, s.cfg.PingInterval, s.cfg.WriteDeadline, s.cfg.WS.InboundRPS)
	if prev := s.registry.Bind(userID, client); prev != nil {
		// Single active connection per user: the newest bind wins and
		// the replaced session stops receiving pushes.
		if pc, ok := prev.(*Client); ok {
			pc.Close()
		}
	}
	s.logger.Infow("ws connected", "user", userID)

	go client.writePump()

	pongWait := 2 * s.cfg.PingInterval
	conn.SetReadLimit(int64(s.cfg.WS.MaxMessageSize))
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if !client.limiter.Allow() {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			// malformed frames are ignored, not fatal
			continue
		}
		switch env.Event {
		case EventSetup:
			var announced string
			if err := json.Unmarshal(env.Data, &announced); err != nil || announced == "" {
				continue
			}
			if announced != userID {
				s.registry.UnbindConn(userID, client)
				userID = announced
			}
			s.registry.Bind(userID, client)
			s.logger.Infow("ws re-announced", "user", userID)
		default:
			// clients send nothing else over the push channel
		}
	}

	s.registry.UnbindConn(userID, client)
	client.Close()
	s.logger.Infow("ws disconnected", "user", userID)
}
