package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorgames/parlor/internal/models"
)

// setupDeduction builds an in-flight session with a hand-crafted roster
// so tests control hands and stock exactly.
func setupDeduction(t *testing.T, n int) *Session {
	t.Helper()
	s := NewSession(VariantDeduction, n)
	s.Reseed(1)
	for i := 0; i < n; i++ {
		s.Players = append(s.Players, &models.Participant{
			ID:     fmt.Sprintf("p%d", i+1),
			Name:   fmt.Sprintf("Player %d", i+1),
			Status: models.StatusActive,
		})
	}
	s.Phase = PhaseActive
	return s
}

func dtok(rank int) models.Token {
	return models.DeductionToken(rank)
}

func hand(ranks ...int) []models.Token {
	h := make([]models.Token, 0, len(ranks))
	for _, r := range ranks {
		h = append(h, dtok(r))
	}
	return h
}

func resolve(t *testing.T, s *Session, actor, kind string, payload map[string]interface{}) []Event {
	t.Helper()
	evs, err := s.rules.Resolve(s, actor, models.Action{Kind: kind, Payload: payload})
	require.NoError(t, err)
	return evs
}

func containsKind(evs []Event, kind EventKind) bool {
	for _, ev := range evs {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

func TestBeginDealsAndPicksStarter(t *testing.T) {
	s := setupDeduction(t, 3)
	evs := s.begin()

	require.NotNil(t, s.Burned)
	// 16 cards minus burn, minus one per seat, minus the starter's draw.
	assert.Len(t, s.Stock, 16-1-3-1)

	total := 0
	for i, p := range s.Players {
		if i == s.ActiveIndex {
			assert.Len(t, p.Hand, 2)
		} else {
			assert.Len(t, p.Hand, 1)
		}
		total += len(p.Hand)
	}
	assert.Equal(t, 4, total)

	assert.True(t, containsKind(evs, EventSessionStart))
	assert.True(t, containsKind(evs, EventTurnStart))
	assert.True(t, containsKind(evs, EventPlayPrompt))
}

func TestGuardCorrectGuessEliminates(t *testing.T) {
	s := setupDeduction(t, 2)
	s.Players[0].Hand = hand(models.RankGuard, models.RankPriest)
	s.Players[1].Hand = hand(models.RankBaron)
	s.Stock = hand(models.RankGuard, models.RankGuard)

	evs := resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankGuard})
	assert.True(t, containsKind(evs, EventCardPlayed))
	assert.True(t, containsKind(evs, EventGuessPrompt))
	require.NotNil(t, s.Pending)
	assert.Equal(t, ChooseGuessRank, s.Pending.Kind)

	evs = resolve(t, s, "p1", "choose", map[string]interface{}{"rank": models.RankBaron})
	assert.True(t, containsKind(evs, EventTargetPrompt))
	assert.Equal(t, ChooseTarget, s.Pending.Kind)

	evs = resolve(t, s, "p1", "choose", map[string]interface{}{"target": "p2"})
	assert.True(t, containsKind(evs, EventGuessResolved))
	assert.True(t, containsKind(evs, EventPlayerEliminated))
	assert.True(t, containsKind(evs, EventSessionEnd))

	require.NotNil(t, s.Outcome)
	assert.Equal(t, ReasonLastStanding, s.Outcome.Reason)
	assert.Equal(t, "p1", s.Outcome.WinnerID)
	assert.Equal(t, PhaseFinished, s.Phase)
}

func TestGuardWrongGuessAdvancesTurn(t *testing.T) {
	s := setupDeduction(t, 3)
	s.Players[0].Hand = hand(models.RankGuard, models.RankPriest)
	s.Players[1].Hand = hand(models.RankBaron)
	s.Players[2].Hand = hand(models.RankHandmaid)
	s.Stock = hand(models.RankGuard, models.RankGuard)

	resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankGuard})
	resolve(t, s, "p1", "choose", map[string]interface{}{"rank": models.RankPrince})
	evs := resolve(t, s, "p1", "choose", map[string]interface{}{"target": "p2"})

	assert.False(t, containsKind(evs, EventPlayerEliminated))
	assert.True(t, containsKind(evs, EventTurnStart))
	assert.Equal(t, models.StatusActive, s.Players[1].Status)
	assert.Equal(t, 1, s.ActiveIndex)
	assert.Len(t, s.Players[1].Hand, 2, "incoming player draws")
	assert.Len(t, s.Stock, 1)
}

func TestGuardCannotGuessGuard(t *testing.T) {
	s := setupDeduction(t, 2)
	s.Players[0].Hand = hand(models.RankGuard, models.RankPriest)
	s.Players[1].Hand = hand(models.RankBaron)
	s.Stock = hand(models.RankGuard)

	resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankGuard})
	_, err := s.rules.Resolve(s, "p1", models.Action{Kind: "choose", Payload: map[string]interface{}{"rank": models.RankGuard}})
	assert.ErrorIs(t, err, ErrInvalidGuess)
}

func TestCountessForcedPlay(t *testing.T) {
	s := setupDeduction(t, 2)
	s.Players[0].Hand = hand(models.RankCountess, models.RankKing)
	s.Players[1].Hand = hand(models.RankGuard)
	s.Stock = hand(models.RankGuard, models.RankGuard)

	_, err := s.rules.Resolve(s, "p1", models.Action{Kind: "play", Payload: map[string]interface{}{"rank": models.RankKing}})
	assert.ErrorIs(t, err, ErrCountessRequired)
	assert.Len(t, s.Players[0].Hand, 2, "rejected play must not mutate")
	assert.Nil(t, s.Pending)

	evs := resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankCountess})
	assert.True(t, containsKind(evs, EventCardPlayed))
	assert.True(t, containsKind(evs, EventTurnStart))
}

func TestTurnAndChoiceGuards(t *testing.T) {
	s := setupDeduction(t, 2)
	s.Players[0].Hand = hand(models.RankGuard, models.RankPriest)
	s.Players[1].Hand = hand(models.RankBaron)
	s.Stock = hand(models.RankGuard)

	_, err := s.rules.Resolve(s, "p2", models.Action{Kind: "play", Payload: map[string]interface{}{"rank": models.RankBaron}})
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = s.rules.Resolve(s, "p1", models.Action{Kind: "choose", Payload: map[string]interface{}{"target": "p2"}})
	assert.ErrorIs(t, err, ErrNoPendingChoice)

	resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankGuard})
	_, err = s.rules.Resolve(s, "p1", models.Action{Kind: "play", Payload: map[string]interface{}{"rank": models.RankPriest}})
	assert.ErrorIs(t, err, ErrChoicePending)

	_, err = s.rules.Resolve(s, "p1", models.Action{Kind: "flip"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestBaronComparisons(t *testing.T) {
	t.Run("lower hand is eliminated", func(t *testing.T) {
		s := setupDeduction(t, 3)
		s.Players[0].Hand = hand(models.RankBaron, models.RankPrincess)
		s.Players[1].Hand = hand(models.RankPriest)
		s.Players[2].Hand = hand(models.RankGuard)
		s.Stock = hand(models.RankGuard, models.RankGuard)

		resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankBaron})
		evs := resolve(t, s, "p1", "choose", map[string]interface{}{"target": "p2"})

		assert.True(t, containsKind(evs, EventHandsCompared))
		assert.Equal(t, models.StatusEliminated, s.Players[1].Status)
		assert.Equal(t, 2, s.ActiveIndex, "turn skips the eliminated seat")
	})

	t.Run("tie is a no-op", func(t *testing.T) {
		s := setupDeduction(t, 3)
		s.Players[0].Hand = hand(models.RankBaron, models.RankPriest)
		s.Players[1].Hand = hand(models.RankPriest)
		s.Players[2].Hand = hand(models.RankGuard)
		s.Stock = hand(models.RankGuard, models.RankGuard)

		resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankBaron})
		evs := resolve(t, s, "p1", "choose", map[string]interface{}{"target": "p2"})

		assert.True(t, containsKind(evs, EventHandsCompared))
		assert.False(t, containsKind(evs, EventPlayerEliminated))
		assert.Equal(t, models.StatusActive, s.Players[1].Status)
	})
}

func TestHandmaidShieldCycle(t *testing.T) {
	s := setupDeduction(t, 2)
	s.Players[0].Hand = hand(models.RankHandmaid, models.RankPriest)
	s.Players[1].Hand = hand(models.RankGuard)
	s.Stock = hand(models.RankGuard, models.RankGuard, models.RankGuard)

	evs := resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankHandmaid})
	assert.True(t, containsKind(evs, EventShieldRaised))
	assert.Equal(t, models.StatusShielded, s.Players[0].Status)
	assert.Equal(t, 1, s.ActiveIndex)

	// The shielded opponent is untargetable, so the Guard guess fizzles.
	resolve(t, s, "p2", "play", map[string]interface{}{"rank": models.RankGuard})
	evs = resolve(t, s, "p2", "choose", map[string]interface{}{"rank": models.RankBaron})
	assert.True(t, containsKind(evs, EventTurnPassed))

	// Back on p1's turn the shield has expired.
	assert.Equal(t, 0, s.ActiveIndex)
	assert.Equal(t, models.StatusActive, s.Players[0].Status)
}

func TestTargetValidation(t *testing.T) {
	s := setupDeduction(t, 3)
	s.Players[0].Hand = hand(models.RankPriest, models.RankGuard)
	s.Players[1].Hand = hand(models.RankBaron)
	s.Players[2].Hand = hand(models.RankKing)
	s.Players[2].Status = models.StatusShielded
	s.Stock = hand(models.RankGuard, models.RankGuard)

	resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankPriest})
	require.NotNil(t, s.Pending)
	assert.Equal(t, []string{"p2"}, s.Pending.Targets, "shielded seat is not offered")

	_, err := s.rules.Resolve(s, "p1", models.Action{Kind: "choose", Payload: map[string]interface{}{"target": "p1"}})
	assert.ErrorIs(t, err, ErrIllegalTargetSelf)

	_, err = s.rules.Resolve(s, "p1", models.Action{Kind: "choose", Payload: map[string]interface{}{"target": "p3"}})
	assert.ErrorIs(t, err, ErrIllegalTargetStatus)

	evs := resolve(t, s, "p1", "choose", map[string]interface{}{"target": "p2"})
	assert.True(t, containsKind(evs, EventHandRevealed))
}

func TestPrinceEffects(t *testing.T) {
	t.Run("forced princess discard eliminates", func(t *testing.T) {
		s := setupDeduction(t, 2)
		s.Players[0].Hand = hand(models.RankPrince, models.RankGuard)
		s.Players[1].Hand = hand(models.RankPrincess)
		s.Stock = hand(models.RankGuard, models.RankGuard)

		resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankPrince})
		evs := resolve(t, s, "p1", "choose", map[string]interface{}{"target": "p2"})

		assert.True(t, containsKind(evs, EventDiscardForced))
		assert.Equal(t, models.StatusEliminated, s.Players[1].Status)
		assert.Equal(t, ReasonLastStanding, s.Outcome.Reason)
	})

	t.Run("empty stock means no redraw", func(t *testing.T) {
		s := setupDeduction(t, 2)
		s.Players[0].Hand = hand(models.RankPrince, models.RankGuard)
		s.Players[1].Hand = hand(models.RankBaron)
		s.Stock = nil

		resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankPrince})
		evs := resolve(t, s, "p1", "choose", map[string]interface{}{"target": "p2"})

		assert.True(t, containsKind(evs, EventPlayerEliminated))
		assert.Equal(t, "p1", s.Outcome.WinnerID)
	})

	t.Run("target redraws from the stock", func(t *testing.T) {
		s := setupDeduction(t, 2)
		s.Players[0].Hand = hand(models.RankPrince, models.RankGuard)
		s.Players[1].Hand = hand(models.RankBaron)
		s.Stock = hand(models.RankKing, models.RankPriest)

		resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankPrince})
		resolve(t, s, "p1", "choose", map[string]interface{}{"target": "p2"})

		require.Len(t, s.Players[1].Hand, 2, "redraw plus the turn-start draw")
		assert.Equal(t, models.RankBaron, s.Players[1].Pile[0].Rank)
		assert.Empty(t, s.Stock)
	})
}

func TestKingSwapsHands(t *testing.T) {
	s := setupDeduction(t, 2)
	s.Players[0].Hand = hand(models.RankKing, models.RankGuard)
	s.Players[1].Hand = hand(models.RankPrincess)
	s.Stock = hand(models.RankPriest, models.RankPriest)

	resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankKing})
	evs := resolve(t, s, "p1", "choose", map[string]interface{}{"target": "p2"})

	assert.True(t, containsKind(evs, EventHandsSwapped))
	assert.Equal(t, models.RankPrincess, s.Players[0].Hand[0].Rank)
	// p2 received the Guard and then drew for their turn.
	require.NotEmpty(t, s.Players[1].Hand)
	assert.Equal(t, models.RankGuard, s.Players[1].Hand[0].Rank)
}

func TestPrincessSelfElimination(t *testing.T) {
	s := setupDeduction(t, 2)
	s.Players[0].Hand = hand(models.RankPrincess, models.RankGuard)
	s.Players[1].Hand = hand(models.RankBaron)
	s.Stock = hand(models.RankGuard)

	evs := resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankPrincess})
	assert.True(t, containsKind(evs, EventPlayerEliminated))
	assert.Equal(t, models.StatusEliminated, s.Players[0].Status)
	assert.Equal(t, "p2", s.Outcome.WinnerID)
}

func TestShowdownResolution(t *testing.T) {
	t.Run("highest held rank wins", func(t *testing.T) {
		s := setupDeduction(t, 3)
		s.Players[0].Hand = hand(models.RankHandmaid, models.RankGuard)
		s.Players[1].Hand = hand(models.RankKing)
		s.Players[2].Hand = hand(models.RankBaron)
		s.Stock = nil

		evs := resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankHandmaid})
		assert.True(t, containsKind(evs, EventShowdown))
		require.NotNil(t, s.Outcome)
		assert.Equal(t, ReasonShowdown, s.Outcome.Reason)
		assert.Equal(t, "p2", s.Outcome.WinnerID)
	})

	t.Run("equal ranks fall back to pile sum", func(t *testing.T) {
		s := setupDeduction(t, 2)
		s.Players[0].Hand = hand(models.RankHandmaid, models.RankGuard)
		s.Players[1].Hand = hand(models.RankGuard)
		s.Players[1].Pile = hand(models.RankPriest)
		s.Stock = nil

		// p1's pile ends at Handmaid (4) versus p2's Priest (2).
		resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankHandmaid})
		assert.Equal(t, "p1", s.Outcome.WinnerID)
	})

	t.Run("full tie goes to the earliest joiner", func(t *testing.T) {
		s := setupDeduction(t, 2)
		s.Players[0].Hand = hand(models.RankHandmaid, models.RankGuard)
		s.Players[1].Hand = hand(models.RankGuard)
		s.Players[1].Pile = hand(models.RankHandmaid)
		s.Stock = nil

		resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankHandmaid})
		assert.Equal(t, "p1", s.Outcome.WinnerID)
	})
}

func TestTokenConservation(t *testing.T) {
	s := setupDeduction(t, 2)
	s.Players[0].Hand = hand(models.RankPriest, models.RankGuard)
	s.Players[1].Hand = hand(models.RankBaron)
	s.Stock = hand(models.RankKing, models.RankHandmaid)

	count := func() int {
		n := len(s.Stock)
		for _, p := range s.Players {
			n += len(p.Hand) + len(p.Pile)
		}
		return n
	}
	before := count()

	resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankPriest})
	resolve(t, s, "p1", "choose", map[string]interface{}{"target": "p2"})
	assert.Equal(t, before, count())
}

func TestDepartedActiveHandsTurnOver(t *testing.T) {
	s := setupDeduction(t, 3)
	s.Players[0].Hand = hand(models.RankGuard, models.RankPriest)
	s.Players[1].Hand = hand(models.RankBaron)
	s.Players[2].Hand = hand(models.RankKing)
	s.Stock = hand(models.RankGuard, models.RankGuard)

	resolve(t, s, "p1", "play", map[string]interface{}{"rank": models.RankGuard})
	require.NotNil(t, s.Pending)

	p := s.Players[0]
	s.eliminate(p)
	evs := s.rules.Departed(s, p)

	assert.Nil(t, s.Pending, "the leaver's open choice is discarded")
	assert.True(t, containsKind(evs, EventTurnStart))
	assert.Equal(t, 1, s.ActiveIndex)
	assert.Len(t, s.Players[1].Hand, 2)
}
