package game

import (
	"github.com/sirupsen/logrus"

	"github.com/parlorgames/parlor/internal/models"
)

// councilRules implements the nomination/ballot variant: hidden roles, a
// 17-token policy stock, and alternating ballot and legislative rounds
// driven by the rotating chair.
type councilRules struct{}

// agitatorKnowsConspirators: in small rosters the agitator is told who
// the conspirators are; in larger ones only the conspirators know each
// other and the agitator.
const agitatorKnowsConspirators = 6

func (r councilRules) Begin(s *Session) []Event {
	stock := CouncilStock()
	shuffleTokens(s.rng, stock)
	s.Stock = stock

	roles := CouncilRoles(len(s.Players))
	shuffleRoles(s.rng, roles)
	for i, p := range s.Players {
		p.Role = roles[i]
	}

	evs := []Event{{Kind: EventSessionStart, Scope: ScopeAll}}
	for _, p := range s.Players {
		ev := Event{
			Kind:      EventRoleDealt,
			Scope:     ScopeOne,
			Recipient: p.ID,
			Payload:   map[string]interface{}{"role": p.Role.String()},
		}
		if allies := r.alliesOf(s, p); len(allies) > 0 {
			ev.Payload["allies"] = allies
		}
		evs = append(evs, ev)
	}

	s.ActiveIndex = s.rng.Intn(len(s.Players))
	evs = append(evs, s.turnEvent(), r.nominatePrompt(s))
	return evs
}

// alliesOf lists the hostile seats a participant is allowed to know
// about. Conspirators always see the full hostile roster; the agitator
// only sees it on small rosters.
func (r councilRules) alliesOf(s *Session, p *models.Participant) []map[string]string {
	if !p.Role.Hostile() {
		return nil
	}
	if p.Role == models.RoleAgitator && len(s.Players) > agitatorKnowsConspirators {
		return nil
	}
	var allies []map[string]string
	for _, q := range s.Players {
		if q.ID != p.ID && q.Role.Hostile() {
			allies = append(allies, map[string]string{
				"id": q.ID, "name": q.Name, "role": q.Role.String(),
			})
		}
	}
	return allies
}

func (r councilRules) Resolve(s *Session, actorID string, act models.Action) ([]Event, error) {
	switch act.Kind {
	case "nominate":
		return r.resolveNominate(s, actorID, act)
	case "vote":
		return r.resolveVote(s, actorID, act)
	case "agenda":
		return r.resolveAgenda(s, actorID, act)
	default:
		return nil, ErrUnknownAction
	}
}

// resolveNominate opens a ballot round on the chair's chosen partner.
func (r councilRules) resolveNominate(s *Session, actorID string, act models.Action) ([]Event, error) {
	if s.active().ID != actorID {
		return nil, ErrNotYourTurn
	}
	if s.Pending != nil || s.Nominee >= 0 {
		return nil, ErrChoicePending
	}
	targetID, ok := act.PayloadString("target")
	if !ok {
		return nil, ErrIllegalTargetStatus
	}
	if targetID == actorID {
		return nil, ErrIllegalTargetSelf
	}
	t := s.participant(targetID)
	if t == nil || t.Status == models.StatusEliminated {
		return nil, ErrIllegalTargetStatus
	}

	for i, p := range s.Players {
		p.Ballot = models.BallotNone
		if p.ID == targetID {
			s.Nominee = i
		}
	}
	chair := s.active()
	return []Event{
		{Kind: EventPartnerNominated, Scope: ScopeAll, Actor: chair.ID, ActorName: chair.Name, Target: t.ID, TargetName: t.Name},
		{Kind: EventBallotPrompt, Scope: ScopeAll, Target: t.ID, TargetName: t.Name},
	}, nil
}

// resolveVote records one immutable ballot and tallies the round once
// every survivor has cast theirs.
func (r councilRules) resolveVote(s *Session, actorID string, act models.Action) ([]Event, error) {
	if s.Nominee < 0 || s.Pending != nil {
		return nil, ErrNoBallotOpen
	}
	p := s.participant(actorID)
	if p == nil || p.Status == models.StatusEliminated {
		return nil, ErrNoBallotOpen
	}
	if p.Ballot != models.BallotNone {
		return nil, ErrAlreadyVoted
	}
	var ballot models.Ballot
	switch v, _ := act.PayloadString("vote"); v {
	case "yes":
		ballot = models.BallotYes
	case "no":
		ballot = models.BallotNo
	default:
		return nil, ErrUnknownAction
	}

	p.Ballot = ballot
	evs := []Event{{Kind: EventBallotRecorded, Scope: ScopeAll, Actor: p.ID, ActorName: p.Name}}
	return append(evs, r.tally(s)...), nil
}

// tally closes the ballot round if complete. Ballot values stay secret
// until the result event reveals them all at once.
func (r councilRules) tally(s *Session) []Event {
	yes, no := 0, 0
	votes := map[string]interface{}{}
	for _, p := range s.survivors() {
		switch p.Ballot {
		case models.BallotYes:
			yes++
			votes[p.ID] = "yes"
		case models.BallotNo:
			no++
			votes[p.ID] = "no"
		default:
			return nil // still waiting
		}
	}

	approved := yes > no
	evs := []Event{{Kind: EventBallotResult, Scope: ScopeAll, Payload: map[string]interface{}{
		"approved": approved, "yes": yes, "no": no, "votes": votes,
	}}}

	if !approved {
		r.clearRound(s)
		return append(evs, r.nextChair(s)...)
	}

	nominee := s.Players[s.Nominee]
	if s.Unfavorable >= AgitatorElectionFloor && nominee.Role == models.RoleAgitator {
		return append(evs, s.finish(&Outcome{
			Reason:     ReasonAgitatorElected,
			WinnerID:   nominee.ID,
			WinnerName: nominee.Name,
			Side:       "agitators",
		})...)
	}

	// Open the legislative session: three tokens to the chair, who must
	// discard one. The stock holds every unenacted policy, so three are
	// always available here.
	for i := 0; i < 3; i++ {
		tok, ok := s.draw()
		if !ok {
			logrus.WithField("session", s.ID).Error("policy stock underflow")
			return append(evs, s.abort()...)
		}
		s.Agenda = append(s.Agenda, tok)
	}
	chair := s.active()
	s.Pending = &PendingChoice{Actor: chair.ID, Kind: ChooseAgendaDiscard}
	return append(evs, r.agendaPrompt(s, chair.ID))
}

func (r councilRules) agendaPrompt(s *Session, recipient string) Event {
	cats := make([]string, 0, len(s.Agenda))
	for _, t := range s.Agenda {
		cats = append(cats, t.Category.String())
	}
	return Event{
		Kind:      EventAgendaPrompt,
		Scope:     ScopeOne,
		Recipient: recipient,
		Payload:   map[string]interface{}{"agenda": cats},
	}
}

// resolveAgenda handles both legislative steps: the chair's discard and
// the partner's enactment.
func (r councilRules) resolveAgenda(s *Session, actorID string, act models.Action) ([]Event, error) {
	pc := s.Pending
	if pc == nil || pc.Actor != actorID {
		return nil, ErrNoPendingChoice
	}
	idx, ok := act.PayloadInt("index")
	if !ok || idx < 0 || idx >= len(s.Agenda) {
		return nil, ErrAgendaIndex
	}

	switch pc.Kind {
	case ChooseAgendaDiscard:
		// The discarded token goes back to the stock; it is not revealed.
		s.Stock = append(s.Stock, s.Agenda[idx])
		s.Agenda = append(s.Agenda[:idx], s.Agenda[idx+1:]...)
		nominee := s.Players[s.Nominee]
		pc.Actor = nominee.ID
		pc.Kind = ChooseAgendaEnact
		chair := s.active()
		return []Event{
			{Kind: EventAgendaForwarded, Scope: ScopeAll, Actor: chair.ID, ActorName: chair.Name, Target: nominee.ID, TargetName: nominee.Name},
			r.agendaPrompt(s, nominee.ID),
		}, nil

	case ChooseAgendaEnact:
		enacted := s.Agenda[idx]
		s.Stock = append(s.Stock, s.Agenda[1-idx])
		s.Agenda = nil
		s.Pending = nil
		if enacted.Category == models.CategoryFavorable {
			s.Favorable++
		} else {
			s.Unfavorable++
		}
		nominee := s.Players[s.Nominee]
		evs := []Event{{
			Kind:      EventPolicyEnacted,
			Scope:     ScopeAll,
			Actor:     nominee.ID,
			ActorName: nominee.Name,
			Payload: map[string]interface{}{
				"category":    enacted.Category.String(),
				"favorable":   s.Favorable,
				"unfavorable": s.Unfavorable,
			},
		}}
		evs = append(evs, r.reshuffleStock(s))
		r.clearRound(s)

		switch {
		case s.Favorable >= FavorableTarget:
			return append(evs, s.finish(&Outcome{Reason: ReasonFavorableThreshold, Side: "citizens"})...), nil
		case s.Unfavorable >= UnfavorableTarget:
			return append(evs, s.finish(&Outcome{Reason: ReasonUnfavorableThreshold, Side: "agitators"})...), nil
		}
		return append(evs, r.nextChair(s)...), nil

	default:
		return nil, ErrNoPendingChoice
	}
}

// reshuffleStock runs after every legislative session: the stock again
// holds every policy not yet enacted, in a fresh order.
func (r councilRules) reshuffleStock(s *Session) Event {
	shuffleTokens(s.rng, s.Stock)
	return Event{Kind: EventStockReshuffled, Scope: ScopeAll, Payload: map[string]interface{}{
		"remaining": len(s.Stock),
	}}
}

// clearRound wipes per-round state: the nominee and every recorded
// ballot.
func (r councilRules) clearRound(s *Session) {
	s.Nominee = -1
	for _, p := range s.Players {
		p.Ballot = models.BallotNone
	}
}

// nextChair rotates the chair and prompts the new one to nominate.
func (r councilRules) nextChair(s *Session) []Event {
	if err := s.advanceTurn(); err != nil {
		logrus.WithField("session", s.ID).WithError(err).Error("chair rotation failed; aborting session")
		return s.abort()
	}
	return []Event{s.turnEvent(), r.nominatePrompt(s)}
}

func (r councilRules) nominatePrompt(s *Session) Event {
	chair := s.active()
	var targets []map[string]string
	for _, p := range s.Players {
		if p.ID != chair.ID && p.Status != models.StatusEliminated {
			targets = append(targets, map[string]string{"id": p.ID, "name": p.Name})
		}
	}
	return Event{
		Kind:      EventTargetPrompt,
		Scope:     ScopeOne,
		Recipient: chair.ID,
		Payload:   map[string]interface{}{"targets": targets, "purpose": "nominate"},
	}
}

func (r councilRules) CheckWin(s *Session) ([]Event, bool) {
	return s.checkElimWin()
}

// Departed unwinds whatever round state the leaver was holding up: an
// open legislative session collapses (its tokens return to the stock), a
// departed nominee cancels the ballot, a departed chair passes the seat,
// and an incomplete ballot is re-tallied in case the leaver was the last
// absentee.
func (r councilRules) Departed(s *Session, p *models.Participant) []Event {
	if evs, done := s.checkElimWin(); done {
		return evs
	}

	if s.Pending != nil && (s.Pending.Actor == p.ID || s.isActive(p.ID)) {
		s.Stock = append(s.Stock, s.Agenda...)
		s.Agenda = nil
		s.Pending = nil
		evs := []Event{r.reshuffleStock(s)}
		r.clearRound(s)
		return append(evs, r.nextChair(s)...)
	}

	if s.Nominee >= 0 && s.Players[s.Nominee].ID == p.ID {
		r.clearRound(s)
		return []Event{r.nominatePrompt(s)}
	}

	if s.isActive(p.ID) {
		r.clearRound(s)
		return r.nextChair(s)
	}

	if s.Nominee >= 0 {
		return r.tally(s)
	}
	return nil
}
