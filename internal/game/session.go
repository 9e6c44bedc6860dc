package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parlorgames/parlor/internal/models"
)

// Variant selects which ruleset a session runs.
type Variant string

const (
	VariantDeduction Variant = "deduction"
	VariantCouncil   Variant = "council"
)

// CapacityBounds returns the allowed roster size range for the variant.
func (v Variant) CapacityBounds() (min, max int) {
	switch v {
	case VariantCouncil:
		return 5, 10
	default:
		return 2, 5
	}
}

// Valid reports whether the variant is one the engine knows.
func (v Variant) Valid() bool {
	return v == VariantDeduction || v == VariantCouncil
}

// Phase is the session lifecycle state. Transitions are one-way:
// Open -> Active -> Finished.
type Phase int

const (
	PhaseOpen Phase = iota
	PhaseActive
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseFinished:
		return "finished"
	default:
		return "open"
	}
}

// ChoiceKind identifies what an open PendingChoice is waiting for.
type ChoiceKind int

const (
	ChooseGuessRank ChoiceKind = iota + 1
	ChooseTarget
	ChooseAgendaDiscard
	ChooseAgendaEnact
)

// PendingChoice is an open, actor-scoped sub-prompt attached to the
// session. The next submitted action must match it; anything else from
// the same actor is rejected until the choice resolves.
type PendingChoice struct {
	Actor     string
	Kind      ChoiceKind
	Rank      int      // rank of the played card awaiting its target
	GuessRank int      // Guard only: the rank picked in the first step
	Targets   []string // ids that may legally be chosen
}

// validTarget reports whether the id is among the pending targets.
func (pc *PendingChoice) validTarget(id string) bool {
	for _, t := range pc.Targets {
		if t == id {
			return true
		}
	}
	return false
}

// Outcome records how a finished session ended.
type Outcome struct {
	Reason     string `json:"reason"`
	WinnerID   string `json:"winnerId,omitempty"`
	WinnerName string `json:"winnerName,omitempty"`
	// Side is set for council sessions: "citizens" or "agitators".
	Side string `json:"side,omitempty"`
}

// Outcome reasons.
const (
	ReasonAborted              = "aborted"
	ReasonLastStanding         = "last_standing"
	ReasonShowdown             = "showdown"
	ReasonFavorableThreshold   = "favorable_threshold"
	ReasonUnfavorableThreshold = "unfavorable_threshold"
	ReasonAgitatorElected      = "agitator_elected"
)

// Session holds the entire state of one game room in memory. All reads
// and writes go through Mu; every exported entry point on Store acquires
// it, so at most one mutation is in flight per session.
type Session struct {
	ID       uuid.UUID
	Variant  Variant
	Capacity int
	Phase    Phase

	Players []*models.Participant

	// Stock is the shared draw pile; the last element is drawn next.
	Stock []models.Token
	// Burned is the deduction variant's face-down card removed at start.
	Burned *models.Token

	ActiveIndex int
	Pending     *PendingChoice

	// Council state: the nominated partner index (-1 when no ballot round
	// is open), the legislative agenda in flight, and the two enactment
	// counters.
	Nominee     int
	Agenda      []models.Token
	Favorable   int
	Unfavorable int

	Outcome *Outcome

	Mu sync.Mutex

	rules Ruleset
	rng   *rand.Rand
}

// NewSession builds an empty, open session for the variant. Capacity is
// validated by the store.
func NewSession(variant Variant, capacity int) *Session {
	return &Session{
		ID:       uuid.New(),
		Variant:  variant,
		Capacity: capacity,
		Phase:    PhaseOpen,
		Nominee:  -1,
		rules:    rulesFor(variant),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Reseed replaces the session's random source. Tests use this to make
// shuffles and the starting-player pick deterministic.
func (s *Session) Reseed(seed int64) {
	s.rng = rand.New(rand.NewSource(seed))
}

// begin transitions Open -> Active and performs the variant's initial
// distribution. Assumes the lock is held and the roster is at capacity.
func (s *Session) begin() []Event {
	s.Phase = PhaseActive
	return s.rules.Begin(s)
}

// finish freezes the session exactly once. Further mutation attempts are
// rejected by the store's phase checks. Assumes the lock is held.
func (s *Session) finish(out *Outcome) []Event {
	if s.Phase == PhaseFinished {
		return nil
	}
	s.Phase = PhaseFinished
	s.Pending = nil
	s.Outcome = out
	ev := Event{Kind: EventSessionEnd, Scope: ScopeAll, Payload: map[string]interface{}{
		"reason": out.Reason,
	}}
	if out.WinnerID != "" {
		ev.Target = out.WinnerID
		ev.TargetName = out.WinnerName
	}
	if out.Side != "" {
		ev.Payload["side"] = out.Side
	}
	return []Event{ev}
}

// abort finalizes a session after an invariant violation. The session is
// unrecoverable but the rest of the process is unaffected.
func (s *Session) abort() []Event {
	return s.finish(&Outcome{Reason: ReasonAborted})
}

// participant finds a seat by id. Assumes the lock is held.
func (s *Session) participant(id string) *models.Participant {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// active returns the participant whose turn it is.
func (s *Session) active() *models.Participant {
	return s.Players[s.ActiveIndex]
}

// survivors returns the non-eliminated participants in roster order.
func (s *Session) survivors() []*models.Participant {
	var alive []*models.Participant
	for _, p := range s.Players {
		if p.Status != models.StatusEliminated {
			alive = append(alive, p)
		}
	}
	return alive
}

// draw pops the next token off the stock tail. The second return is
// false when the stock is empty.
func (s *Session) draw() (models.Token, bool) {
	if len(s.Stock) == 0 {
		return models.Token{}, false
	}
	t := s.Stock[len(s.Stock)-1]
	s.Stock = s.Stock[:len(s.Stock)-1]
	return t, true
}

// eliminate takes a participant out of the round: the whole hand is
// revealed onto the discard pile and the status flips to Eliminated.
func (s *Session) eliminate(p *models.Participant) Event {
	p.Pile = append(p.Pile, p.Hand...)
	p.Hand = nil
	p.Status = models.StatusEliminated
	return Event{Kind: EventPlayerEliminated, Scope: ScopeAll, Target: p.ID, TargetName: p.Name}
}

// checkElimWin applies the variant-independent terminal conditions: zero
// survivors aborts the session, a sole survivor wins it.
func (s *Session) checkElimWin() ([]Event, bool) {
	alive := s.survivors()
	switch len(alive) {
	case 0:
		return s.finish(&Outcome{Reason: ReasonAborted}), true
	case 1:
		return s.finish(&Outcome{
			Reason:     ReasonLastStanding,
			WinnerID:   alive[0].ID,
			WinnerName: alive[0].Name,
		}), true
	default:
		return nil, false
	}
}
