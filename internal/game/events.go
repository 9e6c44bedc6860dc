package game

import "github.com/parlorgames/parlor/internal/models"

// EventKind identifies a structured effect event emitted by the engine.
// The engine never constructs user-facing strings; the transport layer
// renders these records into chat messages.
type EventKind string

const (
	EventPlayerJoined EventKind = "player_joined"
	EventPlayerLeft   EventKind = "player_left"
	EventSessionStart EventKind = "session_start"
	EventSessionEnd   EventKind = "session_end"
	EventTurnStart    EventKind = "turn_start"

	// Private deals and reveals.
	EventHandDealt    EventKind = "private_hand"
	EventTokenDrawn   EventKind = "private_draw"
	EventRoleDealt    EventKind = "private_role"
	EventHandRevealed EventKind = "private_reveal"

	// Prompts asking a specific participant for input.
	EventPlayPrompt   EventKind = "prompt_play"
	EventGuessPrompt  EventKind = "prompt_guess"
	EventTargetPrompt EventKind = "prompt_target"
	EventBallotPrompt EventKind = "prompt_ballot"
	EventAgendaPrompt EventKind = "prompt_agenda"

	// Deduction resolutions.
	EventCardPlayed       EventKind = "card_played"
	EventGuessResolved    EventKind = "guess_resolved"
	EventHandsCompared    EventKind = "hands_compared"
	EventShieldRaised     EventKind = "shield_raised"
	EventDiscardForced    EventKind = "discard_forced"
	EventHandsSwapped     EventKind = "hands_swapped"
	EventTurnPassed       EventKind = "turn_passed"
	EventPlayerEliminated EventKind = "player_eliminated"
	EventShowdown         EventKind = "showdown"

	// Council resolutions.
	EventPartnerNominated EventKind = "partner_nominated"
	EventBallotRecorded   EventKind = "ballot_recorded"
	EventBallotResult     EventKind = "ballot_result"
	EventAgendaForwarded  EventKind = "agenda_forwarded"
	EventPolicyEnacted    EventKind = "policy_enacted"
	EventStockReshuffled  EventKind = "stock_reshuffled"
)

// Scope selects the recipients of an event.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeAllButActor
	ScopeActor
	ScopeOne
)

// Event is one structured effect record produced by resolving an action.
// Actor, Target and Recipient are participant ids; the display names are
// carried alongside so the renderer does not need roster access.
type Event struct {
	Kind       EventKind              `json:"kind"`
	Scope      Scope                  `json:"-"`
	Recipient  string                 `json:"-"` // ScopeOne only
	Actor      string                 `json:"actor,omitempty"`
	ActorName  string                 `json:"actorName,omitempty"`
	Target     string                 `json:"target,omitempty"`
	TargetName string                 `json:"targetName,omitempty"`
	Rank       int                    `json:"rank,omitempty"`
	Token      *models.Token          `json:"token,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// Delivery is an event resolved to one concrete recipient. The store
// expands scopes into deliveries at commit time so the notifier never
// needs to inspect the roster.
type Delivery struct {
	Recipient string `json:"recipient"`
	// Seq is shared by every delivery expanded from the same event, so
	// fan-out consumers can deduplicate within a batch.
	Seq   int   `json:"seq"`
	Event Event `json:"event"`
}

func publicEvent(kind EventKind, actor *models.Participant) Event {
	ev := Event{Kind: kind, Scope: ScopeAll}
	if actor != nil {
		ev.Actor = actor.ID
		ev.ActorName = actor.Name
	}
	return ev
}

func privateEvent(kind EventKind, recipient string) Event {
	return Event{Kind: kind, Scope: ScopeOne, Recipient: recipient}
}

// expandRecipients resolves an event's scope against the current roster.
// Assumes the session lock is held.
func (s *Session) expandRecipients(ev Event) []string {
	switch ev.Scope {
	case ScopeActor:
		return []string{ev.Actor}
	case ScopeOne:
		return []string{ev.Recipient}
	case ScopeAllButActor:
		ids := make([]string, 0, len(s.Players))
		for _, p := range s.Players {
			if p.ID != ev.Actor {
				ids = append(ids, p.ID)
			}
		}
		return ids
	default:
		ids := make([]string, 0, len(s.Players))
		for _, p := range s.Players {
			ids = append(ids, p.ID)
		}
		return ids
	}
}
