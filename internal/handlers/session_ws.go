package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/parlorgames/parlor/internal/game"
)

// feedHub fans the public event stream of each session out to its
// websocket subscribers. Only ScopeAll events ever reach it, so there is
// no hidden information to leak here.
type feedHub struct {
	logger *logrus.Logger
	mu     sync.Mutex
	subs   map[uuid.UUID]map[*websocket.Conn]struct{}
}

func newFeedHub(logger *logrus.Logger) *feedHub {
	return &feedHub{
		logger: logger,
		subs:   make(map[uuid.UUID]map[*websocket.Conn]struct{}),
	}
}

func (h *feedHub) subscribe(sessionID uuid.UUID, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*websocket.Conn]struct{})
	}
	h.subs[sessionID][c] = struct{}{}
}

func (h *feedHub) unsubscribe(sessionID uuid.UUID, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[sessionID], c)
	if len(h.subs[sessionID]) == 0 {
		delete(h.subs, sessionID)
	}
}

// publish sends one public event to every subscriber of the session.
// Called from the dispatch goroutine; writes get their own timeout so a
// stalled client cannot hold the batch.
func (h *feedHub) publish(sessionID uuid.UUID, ev game.Event) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.subs[sessionID]))
	for c := range h.subs[sessionID] {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	if len(conns) == 0 {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.WithError(err).Error("feed event marshal failed")
		return
	}
	for _, c := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := c.Write(ctx, websocket.MessageText, data); err != nil {
			h.logger.WithField("session", sessionID).WithError(err).Debug("feed write failed")
		}
		cancel()
	}
}

// SessionFeedHandler upgrades GET /session/ws/{session_id} to a
// websocket streaming the session's public events as JSON.
func SessionFeedHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.URL.Path, "/session/ws/")
		sessionID, err := uuid.Parse(strings.SplitN(raw, "/", 2)[0])
		if err != nil {
			http.Error(w, "missing or invalid session id", http.StatusBadRequest)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			s.Logger.WithError(err).Warn("feed accept failed")
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler exit")

		s.hub.subscribe(sessionID, c)
		defer s.hub.unsubscribe(sessionID, c)
		s.Logger.WithFields(logrus.Fields{
			"session": sessionID,
			"remote":  r.RemoteAddr,
		}).Info("feed subscriber connected")

		// Drain the connection until the client goes away; subscribers
		// never send anything meaningful.
		ctx := r.Context()
		for {
			if _, _, err := c.Read(ctx); err != nil {
				break
			}
		}
		c.Close(websocket.StatusNormalClosure, "bye")
	}
}
