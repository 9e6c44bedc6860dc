package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/parlorgames/parlor/internal/game"
	"github.com/parlorgames/parlor/internal/notifier"
)

// Server ties the engine store to the per-variant bot clients and the
// live event feed. It is the store's delivery sink.
type Server struct {
	Store  *game.Store
	Logger *logrus.Logger

	bots map[game.Variant]*notifier.Client
	hub  *feedHub

	// chats maps a participant id to the variant bot that talks to them.
	// Populated the first time a chat hits a variant's webhook.
	mu    sync.Mutex
	chats map[string]game.Variant
}

// NewServer builds a server for the configured bots. The store is
// attached afterwards because the store needs the server as its sink.
func NewServer(logger *logrus.Logger, bots map[game.Variant]*notifier.Client) *Server {
	return &Server{
		Logger: logger,
		bots:   bots,
		hub:    newFeedHub(logger),
		chats:  make(map[string]game.Variant),
	}
}

// rememberChat pins a participant to the variant bot they spoke to.
func (s *Server) rememberChat(actorID string, v game.Variant) {
	s.mu.Lock()
	s.chats[actorID] = v
	s.mu.Unlock()
}

func (s *Server) botFor(actorID string) *notifier.Client {
	s.mu.Lock()
	v, ok := s.chats[actorID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.bots[v]
}

// Dispatch fans one committed batch out to chat messages and the public
// feed. Runs on the store's dispatch goroutine; failures are logged and
// dropped, never reported back to the engine.
func (s *Server) Dispatch(sessionID uuid.UUID, deliveries []game.Delivery) {
	published := make(map[int]bool)
	for _, d := range deliveries {
		if d.Event.Scope == game.ScopeAll && !published[d.Seq] {
			published[d.Seq] = true
			s.hub.publish(sessionID, d.Event)
		}

		text, markup := renderEvent(d.Event)
		if text == "" {
			continue
		}
		bot := s.botFor(d.Recipient)
		if bot == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := bot.SendMessage(ctx, notifier.Message{
			ChatID:    d.Recipient,
			Text:      text,
			ParseMode: "MarkdownV2",
			Markup:    markup,
		})
		cancel()
		if err != nil {
			s.Logger.WithFields(logrus.Fields{
				"session":   sessionID,
				"recipient": d.Recipient,
				"kind":      d.Event.Kind,
			}).WithError(err).Warn("delivery failed")
		}
	}
}
