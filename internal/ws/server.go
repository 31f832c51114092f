package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/services/broadcast"
	"gitlab.com/codemark.net/internal/handlers"
	"gitlab.com/codemark.net/internal/static/errs"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// Server upgrades viewers of a submission to websocket sessions of the broadcast hub
type Server struct {
	hub        broadcast.IBroadcastService
	jwtService primary.JWTService
	logger     primary.Logger
	upgrader   websocket.Upgrader
}

func NewServer(hub broadcast.IBroadcastService, jwtService primary.JWTService, logger primary.Logger) *Server {
	return &Server{
		hub:        hub,
		jwtService: jwtService,
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (s *Server) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws/submissions/{submissionId}", s.ServeSubmission).Methods("GET")
}

// ServeSubmission authorizes the viewer before upgrading, so a rejected viewer
// gets a plain HTTP error and never receives any result data
func (s *Server) ServeSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, err := uuid.Parse(mux.Vars(r)["submissionId"])
	if err != nil {
		http.Error(w, "Invalid submission id", http.StatusBadRequest)
		return
	}

	token := handlers.TokenFromRequest(r)
	if token == "" {
		http.Error(w, "Authorization missing", http.StatusUnauthorized)
		return
	}
	viewer, err := s.jwtService.Authenticate(r.Context(), token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	session, err := s.hub.Connect(r.Context(), viewer, submissionID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, errs.ErrNotFound):
			http.Error(w, "Submission not found", http.StatusNotFound)
		default:
			http.Error(w, "Internal error", http.StatusInternalServerError)
		}
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade connection", "submissionId", submissionID, "error", err)
		s.hub.Disconnect(session)
		return
	}

	go s.writePump(conn, session)
	go s.readPump(conn, session)
}

// readPump discards client messages and tracks liveness; any read error ends the session
func (s *Server) readPump(conn *websocket.Conn, session *broadcast.Session) {
	defer func() {
		s.hub.Disconnect(session)
		conn.Close()
	}()
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("Websocket read failed", "sessionId", session.ID, "error", err)
			}
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, session *broadcast.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-session.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Debug("Websocket write failed", "sessionId", session.ID, "error", err)
				s.hub.Disconnect(session)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.hub.Disconnect(session)
				return
			}
		}
	}
}
