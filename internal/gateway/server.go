package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/gateward/gateward/internal/admission"
	"github.com/gateward/gateward/internal/model"
	"github.com/gateward/gateward/internal/transport"
	"github.com/gateward/gateward/internal/verification"
)

// Server accepts proxy host connections over websocket and bridges their
// event stream into the verification engine.
type Server struct {
	engine   *verification.Engine
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer creates the gateway server
func NewServer(engine *verification.Engine, hub *Hub, logger *slog.Logger) *Server {
	return &Server{
		engine: engine,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: logger.With(slog.String("component", "gateway")),
	}
}

// Handler returns the websocket endpoint handler
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}
		s.serve(r.Context(), newHostConn(ws))
	}
}

func (s *Server) serve(ctx context.Context, hc *hostConn) {
	s.logger.Info("proxy host connected", slog.String("remote", hc.ws.RemoteAddr().String()))

	defer func() {
		// The proxy socket dropped: every player it was holding is gone
		for connID, accountID := range hc.drain() {
			s.hub.unbind(connID)
			s.engine.OnDisconnect(ctx, connID, accountID)
		}
		_ = hc.ws.Close()
		s.logger.Info("proxy host disconnected", slog.String("remote", hc.ws.RemoteAddr().String()))
	}()

	for {
		var frame Frame
		if err := hc.ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("gateway read failed", slog.String("error", err.Error()))
			}
			return
		}
		s.dispatch(ctx, hc, frame)
	}
}

func (s *Server) dispatch(ctx context.Context, hc *hostConn, frame Frame) {
	connID := model.ConnectionID(frame.ConnectionID)

	switch frame.Type {
	case FrameLogin:
		s.handleLogin(ctx, hc, frame)

	case FrameSpawn:
		accountID, err := model.ParseAccountID(frame.AccountID)
		if err != nil {
			s.logger.Warn("spawn with invalid account id", slog.String("account_id", frame.AccountID))
			return
		}
		hc.track(connID, accountID)
		s.hub.bind(connID, hc)
		if err := s.engine.OnSpawn(ctx, connID, accountID, frame.Username, frame.Origin); err != nil {
			s.logger.Warn("spawn rejected",
				slog.String("connection_id", frame.ConnectionID),
				slog.String("error", err.Error()))
		}

	case FrameChat:
		s.engine.OnChat(ctx, connID, frame.Text)

	case FrameMove:
		// Position fields are ignored; only orientation is semantic
		s.engine.OnOrientation(ctx, connID, frame.Yaw, frame.Pitch)

	case FrameDisconnect:
		accountID, _ := model.ParseAccountID(frame.AccountID)
		hc.forget(connID)
		s.hub.unbind(connID)
		s.engine.OnDisconnect(ctx, connID, accountID)

	default:
		s.logger.Warn("unknown frame type", slog.String("type", frame.Type))
	}
}

func (s *Server) handleLogin(ctx context.Context, hc *hostConn, frame Frame) {
	reply := Frame{
		Type:         FrameDecision,
		ConnectionID: frame.ConnectionID,
	}

	accountID, err := model.ParseAccountID(frame.AccountID)
	if err != nil {
		// An unparseable identity cannot be admitted on trust
		reply.Decision = string(model.DecisionChallenge)
		s.logger.Warn("login with invalid account id", slog.String("account_id", frame.AccountID))
	} else {
		adm := s.engine.Decide(ctx, admission.Request{
			AccountID:           accountID,
			Username:            frame.Username,
			OriginAddress:       frame.Origin,
			HasBypassPermission: frame.HasBypass,
		})
		reply.Decision = string(adm.Decision)
		if adm.Decision == model.DecisionDeny {
			reply.RetryAfterSeconds = int(adm.PenaltyRemaining.Seconds())
			minutes := int(adm.PenaltyRemaining.Minutes())
			if minutes < 1 {
				minutes = 1
			}
			reply.Key = transport.MsgPenaltyActive
			reply.Params = map[string]string{"time": strconv.Itoa(minutes)}
		}
	}

	if err := hc.writeFrame(reply); err != nil {
		s.logger.Warn("failed to send decision", slog.String("error", err.Error()))
	}
}
