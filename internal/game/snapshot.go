package game

import (
	"github.com/google/uuid"

	"github.com/parlorgames/parlor/internal/models"
)

// SeatView is one participant as seen by the requesting viewer. Hidden
// state (hand, role, an uncounted ballot) is only revealed for the
// viewer's own seat; discard piles and counters are public.
type SeatView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Status   string   `json:"status"`
	HandSize int      `json:"handSize"`
	Pile     []string `json:"pile,omitempty"`
	IsActive bool     `json:"isActive"`

	// Self only.
	Hand   []models.Token `json:"hand,omitempty"`
	Role   string         `json:"role,omitempty"`
	Ballot string         `json:"ballot,omitempty"`
}

// Snapshot is a point-in-time, viewer-obfuscated view of a session.
// Hidden information never leaks through it: stock contents, the burn
// slot and other hands appear only as counts.
type Snapshot struct {
	SessionID   uuid.UUID  `json:"sessionId"`
	Variant     Variant    `json:"variant"`
	Phase       string     `json:"phase"`
	Capacity    int        `json:"capacity"`
	StockSize   int        `json:"stockSize"`
	ActiveID    string     `json:"activeId,omitempty"`
	NomineeID   string     `json:"nomineeId,omitempty"`
	Favorable   int        `json:"favorable,omitempty"`
	Unfavorable int        `json:"unfavorable,omitempty"`
	Seats       []SeatView `json:"seats"`
	Outcome     *Outcome   `json:"outcome,omitempty"`

	// PendingFor is set when the viewer owes the session a choice.
	PendingFor bool `json:"pendingFor,omitempty"`
}

// Snapshot builds the obfuscated view for one participant.
func (st *Store) Snapshot(actorID string) (*Snapshot, error) {
	s, ok := st.Locate(actorID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	s.Mu.Lock()
	defer s.Mu.Unlock()
	snap := s.viewFor(actorID)
	return snap, nil
}

// viewFor assembles the snapshot as seen by viewerID; an empty viewer id
// yields the fully public view. Assumes the lock is held.
func (s *Session) viewFor(viewerID string) *Snapshot {
	snap := &Snapshot{
		SessionID:   s.ID,
		Variant:     s.Variant,
		Phase:       s.Phase.String(),
		Capacity:    s.Capacity,
		StockSize:   len(s.Stock),
		Favorable:   s.Favorable,
		Unfavorable: s.Unfavorable,
		Outcome:     s.Outcome,
	}
	if s.Phase == PhaseActive {
		snap.ActiveID = s.active().ID
		if s.Nominee >= 0 {
			snap.NomineeID = s.Players[s.Nominee].ID
		}
		snap.PendingFor = s.Pending != nil && s.Pending.Actor == viewerID
	}

	for i, p := range s.Players {
		sv := SeatView{
			ID:       p.ID,
			Name:     p.Name,
			Status:   statusLabel(p.Status),
			HandSize: len(p.Hand),
			IsActive: s.Phase == PhaseActive && i == s.ActiveIndex,
		}
		for _, t := range p.Pile {
			sv.Pile = append(sv.Pile, t.Name)
		}
		if p.ID == viewerID {
			sv.Hand = append(sv.Hand, p.Hand...)
			if p.Role != models.RoleNone {
				sv.Role = p.Role.String()
			}
			if p.Ballot != models.BallotNone {
				sv.Ballot = ballotLabel(p.Ballot)
			}
		}
		snap.Seats = append(snap.Seats, sv)
	}
	return snap
}

// publicView is the archive form of a snapshot: no viewer, no hidden
// hands. Finished sessions carry their outcome here.
func (s *Session) publicView() *Snapshot {
	return s.viewFor("")
}

func statusLabel(st models.Status) string {
	switch st {
	case models.StatusEliminated:
		return "eliminated"
	case models.StatusShielded:
		return "shielded"
	default:
		return "active"
	}
}

func ballotLabel(b models.Ballot) string {
	if b == models.BallotYes {
		return "yes"
	}
	return "no"
}
