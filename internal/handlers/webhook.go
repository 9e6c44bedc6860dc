package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parlorgames/parlor/internal/game"
	"github.com/parlorgames/parlor/internal/models"
	"github.com/parlorgames/parlor/internal/notifier"
)

// Telegram update envelope, trimmed to the fields the bot consumes.
type tgUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

type tgMessage struct {
	MessageID int64  `json:"message_id"`
	From      *tgUser `json:"from"`
	Chat      tgChat  `json:"chat"`
	Text      string  `json:"text"`
}

type tgCallback struct {
	ID   string `json:"id"`
	From tgUser `json:"from"`
	Data string `json:"data"`
}

type tgUpdate struct {
	UpdateID int64       `json:"update_id"`
	Message  *tgMessage  `json:"message"`
	Callback *tgCallback `json:"callback_query"`
}

// WebhookHandler serves one variant's bot. The secret lives in the mount
// path; anything that reaches the handler is trusted to come from the
// bot API.
func WebhookHandler(s *Server, variant game.Variant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		var upd tgUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			s.Logger.WithError(err).Warn("undecodable webhook update")
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}

		switch {
		case upd.Message != nil && upd.Message.From != nil:
			actorID := strconv.FormatInt(upd.Message.From.ID, 10)
			s.rememberChat(actorID, variant)
			s.handleCommand(variant, actorID, upd.Message)
		case upd.Callback != nil:
			actorID := strconv.FormatInt(upd.Callback.From.ID, 10)
			s.rememberChat(actorID, variant)
			s.handleCallback(variant, actorID, upd.Callback)
		}
		w.WriteHeader(http.StatusOK)
	}
}

// handleCommand runs one slash command. Game effects are announced via
// the dispatcher; only direct feedback is sent from here.
func (s *Server) handleCommand(variant game.Variant, actorID string, msg *tgMessage) {
	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return
	}
	cmd := strings.SplitN(fields[0], "@", 2)[0]
	name := msg.From.FirstName

	switch cmd {
	case "/new":
		min, _ := variant.CapacityBounds()
		capacity := min
		if len(fields) > 1 {
			if n, err := strconv.Atoi(fields[1]); err == nil {
				capacity = n
			}
		}
		sess, err := s.Store.CreateSession(actorID, variant, capacity)
		if err != nil {
			s.reply(variant, actorID, err.Error())
			return
		}
		if err := s.Store.Join(sess.ID, actorID, name); err != nil {
			s.reply(variant, actorID, err.Error())
			return
		}
		s.reply(variant, actorID, fmt.Sprintf("Session %s opened for %d players. Others can pick it with /join.", shortID(sess.ID), capacity))

	case "/join":
		if len(fields) > 1 {
			s.joinByID(variant, actorID, name, fields[1])
			return
		}
		s.listOpenSessions(variant, actorID)

	case "/exit":
		if err := s.Store.Leave(actorID); err != nil {
			s.reply(variant, actorID, err.Error())
			return
		}
		s.reply(variant, actorID, "You left the session.")

	case "/status":
		snap, err := s.Store.Snapshot(actorID)
		if err != nil {
			s.reply(variant, actorID, "You are not in a session. Start one with /new.")
			return
		}
		s.replyMarkdown(variant, actorID, renderSnapshot(snap), nil)

	case "/help":
		s.reply(variant, actorID, helpText(variant))
	}
}

func (s *Server) joinByID(variant game.Variant, actorID, name, raw string) {
	id, err := uuid.Parse(raw)
	if err != nil {
		s.reply(variant, actorID, "That does not look like a session id.")
		return
	}
	if err := s.Store.Join(id, actorID, name); err != nil {
		s.reply(variant, actorID, err.Error())
	}
}

// listOpenSessions offers the joinable sessions of this variant as
// inline buttons.
func (s *Server) listOpenSessions(variant game.Variant, actorID string) {
	var rows [][]notifier.InlineButton
	for _, sum := range s.Store.OpenSessions() {
		if sum.Variant != variant {
			continue
		}
		rows = append(rows, []notifier.InlineButton{{
			Text:         fmt.Sprintf("%s (%d/%d)", shortID(sum.ID), sum.Seated, sum.Capacity),
			CallbackData: "join:" + sum.ID.String(),
		}})
	}
	if len(rows) == 0 {
		s.reply(variant, actorID, "No open sessions. Start one with /new.")
		return
	}
	s.replyMarkdown(variant, actorID, "Open sessions:", &notifier.InlineKeyboard{Rows: rows})
}

// handleCallback translates an inline-button press into an engine call
// and acknowledges it; engine errors surface as a toast on the button.
func (s *Server) handleCallback(variant game.Variant, actorID string, cb *tgCallback) {
	err := s.routeCallback(variant, actorID, cb)
	feedback := ""
	if err != nil {
		feedback = err.Error()
	}
	bot := s.bots[variant]
	if bot == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if ackErr := bot.AnswerCallback(ctx, cb.ID, feedback); ackErr != nil {
		s.Logger.WithError(ackErr).Warn("callback ack failed")
	}
}

func (s *Server) routeCallback(variant game.Variant, actorID string, cb *tgCallback) error {
	verb, arg := cb.Data, ""
	if i := strings.IndexByte(cb.Data, ':'); i >= 0 {
		verb, arg = cb.Data[:i], cb.Data[i+1:]
	}

	switch verb {
	case "join":
		id, err := uuid.Parse(arg)
		if err != nil {
			return game.ErrRoomNotFound
		}
		return s.Store.Join(id, actorID, cb.From.FirstName)

	case "play":
		rank, err := strconv.Atoi(arg)
		if err != nil {
			return game.ErrCardNotInHand
		}
		return s.Store.SubmitAction(actorID, models.Action{Kind: "play", Payload: map[string]interface{}{"rank": rank}})

	case "guess":
		rank, err := strconv.Atoi(arg)
		if err != nil {
			return game.ErrInvalidGuess
		}
		return s.Store.SubmitAction(actorID, models.Action{Kind: "choose", Payload: map[string]interface{}{"rank": rank}})

	case "target":
		return s.Store.SubmitAction(actorID, models.Action{Kind: "choose", Payload: map[string]interface{}{"target": arg}})

	case "pass":
		return s.Store.SubmitAction(actorID, models.Action{Kind: "choose", Payload: map[string]interface{}{"target": "pass"}})

	case "nominate":
		return s.Store.SubmitAction(actorID, models.Action{Kind: "nominate", Payload: map[string]interface{}{"target": arg}})

	case "vote":
		return s.Store.SubmitAction(actorID, models.Action{Kind: "vote", Payload: map[string]interface{}{"vote": arg}})

	case "agenda":
		idx, err := strconv.Atoi(arg)
		if err != nil {
			return game.ErrAgendaIndex
		}
		return s.Store.SubmitAction(actorID, models.Action{Kind: "agenda", Payload: map[string]interface{}{"index": idx}})

	default:
		return game.ErrUnknownAction
	}
}

// reply sends plain-text direct feedback outside the event pipeline.
func (s *Server) reply(variant game.Variant, chatID, text string) {
	bot := s.bots[variant]
	if bot == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bot.SendMessage(ctx, notifier.Message{ChatID: chatID, Text: text}); err != nil {
		s.Logger.WithError(err).Warn("reply failed")
	}
}

func (s *Server) replyMarkdown(variant game.Variant, chatID, text string, markup *notifier.InlineKeyboard) {
	bot := s.bots[variant]
	if bot == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := bot.SendMessage(ctx, notifier.Message{ChatID: chatID, Text: text, ParseMode: "MarkdownV2", Markup: markup})
	if err != nil {
		s.Logger.WithError(err).Warn("reply failed")
	}
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func helpText(variant game.Variant) string {
	base := "/new [n] open a session for n players\n" +
		"/join list open sessions, or /join <id>\n" +
		"/exit leave your session\n" +
		"/status show the session state\n" +
		"/help this text"
	if variant == game.VariantCouncil {
		return "Council: nominate, vote and steer the agenda.\n" + base
	}
	return "Deduction: guess hands and outlast the table.\n" + base
}
