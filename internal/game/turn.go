package game

import "github.com/parlorgames/parlor/internal/models"

// advanceTurn moves ActiveIndex to the next non-eliminated participant,
// scanning forward from ActiveIndex+1 and wrapping through the whole
// roster, including indices below the previous active one. Variant rules
// clear their own transient per-turn state (shield, nominee) around this
// call. Returns ErrNoEligibleParticipant when every seat is eliminated;
// that state must have been caught by the win evaluator first, so the
// caller treats it as fatal for the session.
//
// Assumes the lock is held.
func (s *Session) advanceTurn() error {
	n := len(s.Players)
	for off := 1; off <= n; off++ {
		idx := (s.ActiveIndex + off) % n
		if s.Players[idx].Status != models.StatusEliminated {
			s.ActiveIndex = idx
			return nil
		}
	}
	return ErrNoEligibleParticipant
}

// turnEvent announces whose turn it now is.
func (s *Session) turnEvent() Event {
	p := s.active()
	return Event{Kind: EventTurnStart, Scope: ScopeAll, Actor: p.ID, ActorName: p.Name}
}
