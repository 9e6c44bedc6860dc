package game

import (
	"github.com/sirupsen/logrus"

	"github.com/parlorgames/parlor/internal/models"
)

// deductionRules implements the hidden-rank guessing variant: a 16-card
// stock, one card in hand, play-one-of-two each turn, rank effects that
// eliminate opponents, and an end-of-stock showdown.
type deductionRules struct{}

func (r deductionRules) Begin(s *Session) []Event {
	stock := DeductionStock()
	shuffleTokens(s.rng, stock)
	s.Stock = stock

	// One card is burned face down so the last card of the stock can
	// never be deduced by elimination.
	burn, _ := s.draw()
	s.Burned = &burn

	evs := []Event{{Kind: EventSessionStart, Scope: ScopeAll}}
	for _, p := range s.Players {
		tok, _ := s.draw()
		p.Hand = append(p.Hand, tok)
		hand := tok
		evs = append(evs, Event{
			Kind:      EventHandDealt,
			Scope:     ScopeOne,
			Recipient: p.ID,
			Token:     &hand,
		})
	}

	s.ActiveIndex = s.rng.Intn(len(s.Players))
	evs = append(evs, s.turnEvent())
	evs = append(evs, r.dealToActive(s)...)
	return evs
}

// dealToActive performs the draw step for the participant whose turn is
// starting and prompts them for a play. The caller guarantees the stock
// is non-empty.
func (r deductionRules) dealToActive(s *Session) []Event {
	p := s.active()
	tok, ok := s.draw()
	if !ok {
		// Unreachable: endTurn checks stock exhaustion before advancing.
		logrus.WithField("session", s.ID).Error("draw step reached with empty stock")
		return s.abort()
	}
	p.Hand = append(p.Hand, tok)
	drawn := tok
	return []Event{
		{Kind: EventTokenDrawn, Scope: ScopeOne, Recipient: p.ID, Token: &drawn},
		r.playPrompt(s, p),
	}
}

func (deductionRules) playPrompt(s *Session, p *models.Participant) Event {
	ranks := make([]int, 0, len(p.Hand))
	for _, t := range p.Hand {
		ranks = append(ranks, t.Rank)
	}
	return Event{
		Kind:      EventPlayPrompt,
		Scope:     ScopeOne,
		Recipient: p.ID,
		Payload:   map[string]interface{}{"ranks": ranks},
	}
}

func (r deductionRules) Resolve(s *Session, actorID string, act models.Action) ([]Event, error) {
	switch act.Kind {
	case "play":
		return r.resolvePlay(s, actorID, act)
	case "choose":
		return r.resolveChoose(s, actorID, act)
	default:
		return nil, ErrUnknownAction
	}
}

// resolvePlay moves a card from the actor's hand to their discard pile
// and either applies its effect immediately or opens a pending choice
// for the second round trip.
func (r deductionRules) resolvePlay(s *Session, actorID string, act models.Action) ([]Event, error) {
	p := s.participant(actorID)
	if p == nil || s.active().ID != actorID {
		return nil, ErrNotYourTurn
	}
	if s.Pending != nil {
		return nil, ErrChoicePending
	}
	rank, ok := act.PayloadInt("rank")
	if !ok || !p.HoldsRank(rank) {
		return nil, ErrCardNotInHand
	}
	if rank != models.RankCountess && p.HoldsRank(models.RankCountess) &&
		(p.HoldsRank(models.RankKing) || p.HoldsRank(models.RankPrince)) {
		return nil, ErrCountessRequired
	}

	// Validation complete; commit the play.
	tok := removeRank(p, rank)
	p.Pile = append(p.Pile, tok)
	played := tok
	evs := []Event{{
		Kind:      EventCardPlayed,
		Scope:     ScopeAll,
		Actor:     p.ID,
		ActorName: p.Name,
		Rank:      rank,
		Token:     &played,
	}}

	switch rank {
	case models.RankHandmaid:
		p.Status = models.StatusShielded
		evs = append(evs, publicEvent(EventShieldRaised, p))
		return append(evs, r.endTurn(s)...), nil

	case models.RankCountess:
		return append(evs, r.endTurn(s)...), nil

	case models.RankPrincess:
		evs = append(evs, s.eliminate(p))
		return append(evs, r.endTurn(s)...), nil

	case models.RankGuard:
		s.Pending = &PendingChoice{Actor: p.ID, Kind: ChooseGuessRank, Rank: rank}
		evs = append(evs, Event{
			Kind:      EventGuessPrompt,
			Scope:     ScopeOne,
			Recipient: p.ID,
			Payload:   map[string]interface{}{"ranks": guessableRanks()},
		})
		return evs, nil

	default: // Priest, Baron, Prince, King need a live target.
		targets := r.eligibleTargets(s, p.ID)
		if len(targets) == 0 {
			evs = append(evs, publicEvent(EventTurnPassed, p))
			return append(evs, r.endTurn(s)...), nil
		}
		s.Pending = &PendingChoice{Actor: p.ID, Kind: ChooseTarget, Rank: rank, Targets: targets}
		evs = append(evs, r.targetPrompt(s, p, targets))
		return evs, nil
	}
}

// resolveChoose consumes the open pending choice: either the Guard's
// guessed rank or the final target selection. "pass" is always legal.
func (r deductionRules) resolveChoose(s *Session, actorID string, act models.Action) ([]Event, error) {
	pc := s.Pending
	if pc == nil || pc.Actor != actorID {
		return nil, ErrNoPendingChoice
	}
	p := s.participant(actorID)

	if tgt, ok := act.PayloadString("target"); ok && tgt == "pass" {
		s.Pending = nil
		evs := []Event{publicEvent(EventTurnPassed, p)}
		return append(evs, r.endTurn(s)...), nil
	}

	switch pc.Kind {
	case ChooseGuessRank:
		guess, ok := act.PayloadInt("rank")
		if !ok || guess <= models.RankGuard || guess > models.RankPrincess {
			return nil, ErrInvalidGuess
		}
		targets := r.eligibleTargets(s, p.ID)
		if len(targets) == 0 {
			s.Pending = nil
			evs := []Event{publicEvent(EventTurnPassed, p)}
			return append(evs, r.endTurn(s)...), nil
		}
		pc.Kind = ChooseTarget
		pc.GuessRank = guess
		pc.Targets = targets
		return []Event{r.targetPrompt(s, p, targets)}, nil

	case ChooseTarget:
		targetID, ok := act.PayloadString("target")
		if !ok {
			return nil, ErrNoPendingChoice
		}
		if targetID == actorID {
			return nil, ErrIllegalTargetSelf
		}
		t := s.participant(targetID)
		if t == nil || t.Status != models.StatusActive || !pc.validTarget(targetID) {
			return nil, ErrIllegalTargetStatus
		}
		evs := r.applyTargetedEffect(s, p, t, pc)
		s.Pending = nil
		return append(evs, r.endTurn(s)...), nil

	default:
		return nil, ErrNoPendingChoice
	}
}

// applyTargetedEffect resolves the played rank against a validated target.
// Assumes the lock is held and the target is live and unshielded.
func (r deductionRules) applyTargetedEffect(s *Session, p, t *models.Participant, pc *PendingChoice) []Event {
	var evs []Event
	switch pc.Rank {
	case models.RankGuard:
		correct := t.HoldsRank(pc.GuessRank)
		evs = append(evs, Event{
			Kind:       EventGuessResolved,
			Scope:      ScopeAll,
			Actor:      p.ID,
			ActorName:  p.Name,
			Target:     t.ID,
			TargetName: t.Name,
			Rank:       pc.GuessRank,
			Payload:    map[string]interface{}{"correct": correct},
		})
		if correct {
			evs = append(evs, s.eliminate(t))
		}

	case models.RankPriest:
		held := t.Hand[0]
		evs = append(evs,
			Event{Kind: EventHandRevealed, Scope: ScopeAllButActor, Actor: p.ID, ActorName: p.Name, Target: t.ID, TargetName: t.Name},
			Event{Kind: EventHandRevealed, Scope: ScopeActor, Actor: p.ID, Target: t.ID, TargetName: t.Name, Token: &held},
		)

	case models.RankBaron:
		mine, theirs := p.Hand[0].Rank, t.Hand[0].Rank
		ev := Event{
			Kind:       EventHandsCompared,
			Scope:      ScopeAll,
			Actor:      p.ID,
			ActorName:  p.Name,
			Target:     t.ID,
			TargetName: t.Name,
			Payload:    map[string]interface{}{},
		}
		switch {
		case mine > theirs:
			ev.Payload["loser"] = t.ID
			evs = append(evs, ev, s.eliminate(t))
		case mine < theirs:
			ev.Payload["loser"] = p.ID
			evs = append(evs, ev, s.eliminate(p))
		default:
			evs = append(evs, ev)
		}

	case models.RankPrince:
		discarded := t.Hand[0]
		t.Hand = t.Hand[1:]
		t.Pile = append(t.Pile, discarded)
		tok := discarded
		evs = append(evs, Event{
			Kind:       EventDiscardForced,
			Scope:      ScopeAll,
			Actor:      p.ID,
			ActorName:  p.Name,
			Target:     t.ID,
			TargetName: t.Name,
			Token:      &tok,
		})
		switch {
		case discarded.Rank == models.RankPrincess:
			evs = append(evs, s.eliminate(t))
		case len(s.Stock) == 0:
			// No card to redraw; the target is out of the round.
			evs = append(evs, s.eliminate(t))
		default:
			drawn, _ := s.draw()
			t.Hand = append(t.Hand, drawn)
			redraw := drawn
			evs = append(evs, Event{Kind: EventTokenDrawn, Scope: ScopeOne, Recipient: t.ID, Token: &redraw})
		}

	case models.RankKing:
		p.Hand, t.Hand = t.Hand, p.Hand
		mine, theirs := p.Hand[0], t.Hand[0]
		evs = append(evs,
			Event{Kind: EventHandsSwapped, Scope: ScopeAll, Actor: p.ID, ActorName: p.Name, Target: t.ID, TargetName: t.Name},
			Event{Kind: EventTokenDrawn, Scope: ScopeOne, Recipient: p.ID, Token: &mine},
			Event{Kind: EventTokenDrawn, Scope: ScopeOne, Recipient: t.ID, Token: &theirs},
		)
	}
	return evs
}

// endTurn runs the win evaluator and, if the round continues, performs
// the turn handoff: shield expiry for the incoming participant and their
// draw step.
func (r deductionRules) endTurn(s *Session) []Event {
	if evs, done := s.checkElimWin(); done {
		return evs
	}
	if len(s.Stock) == 0 {
		return r.showdown(s)
	}
	if err := s.advanceTurn(); err != nil {
		logrus.WithField("session", s.ID).WithError(err).Error("turn advance failed; aborting session")
		return s.abort()
	}
	p := s.active()
	if p.Status == models.StatusShielded {
		p.Status = models.StatusActive
	}
	evs := []Event{s.turnEvent()}
	return append(evs, r.dealToActive(s)...)
}

// showdown ends the round when the stock runs dry: the survivor with the
// highest held rank wins, ties broken by discard-pile sum, full ties by
// join order (the earlier seat keeps the lead under strict comparisons).
func (r deductionRules) showdown(s *Session) []Event {
	var best *models.Participant
	reveals := map[string]interface{}{}
	for _, p := range s.survivors() {
		reveals[p.ID] = p.Hand[0].Rank
		if best == nil ||
			p.Hand[0].Rank > best.Hand[0].Rank ||
			(p.Hand[0].Rank == best.Hand[0].Rank && p.PileSum() > best.PileSum()) {
			best = p
		}
	}
	evs := []Event{{Kind: EventShowdown, Scope: ScopeAll, Payload: map[string]interface{}{"hands": reveals}}}
	return append(evs, s.finish(&Outcome{
		Reason:     ReasonShowdown,
		WinnerID:   best.ID,
		WinnerName: best.Name,
	})...)
}

func (s *Session) isActive(id string) bool {
	return s.Players[s.ActiveIndex].ID == id
}

func (r deductionRules) CheckWin(s *Session) ([]Event, bool) {
	return s.checkElimWin()
}

func (r deductionRules) Departed(s *Session, p *models.Participant) []Event {
	if s.Pending != nil && s.Pending.Actor == p.ID {
		s.Pending = nil
	}
	if s.isActive(p.ID) {
		return r.endTurn(s)
	}
	if evs, done := s.checkElimWin(); done {
		return evs
	}
	return nil
}

// eligibleTargets lists the live, unshielded opponents of the actor.
func (deductionRules) eligibleTargets(s *Session, actorID string) []string {
	var ids []string
	for _, p := range s.Players {
		if p.ID != actorID && p.Status == models.StatusActive {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (deductionRules) targetPrompt(s *Session, p *models.Participant, targets []string) Event {
	names := make([]map[string]string, 0, len(targets))
	for _, id := range targets {
		t := s.participant(id)
		names = append(names, map[string]string{"id": t.ID, "name": t.Name})
	}
	return Event{
		Kind:      EventTargetPrompt,
		Scope:     ScopeOne,
		Recipient: p.ID,
		Payload:   map[string]interface{}{"targets": names},
	}
}

// guessableRanks are the ranks a Guard may name: everything but the
// Guard itself.
func guessableRanks() []int {
	ranks := make([]int, 0, 7)
	for r := models.RankPriest; r <= models.RankPrincess; r++ {
		ranks = append(ranks, r)
	}
	return ranks
}

// removeRank takes one card of the given rank out of the hand. The
// caller has already verified the rank is held.
func removeRank(p *models.Participant, rank int) models.Token {
	for i, t := range p.Hand {
		if t.Rank == rank {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return t
		}
	}
	return models.Token{}
}
