package game

import "github.com/parlorgames/parlor/internal/models"

// Ruleset is the variant capability set. Both variants share the
// Session/Participant scaffolding and the turn engine; everything
// rule-specific goes through this interface.
type Ruleset interface {
	// Begin shuffles and distributes the initial stock/roles and picks
	// the starting participant. Called once, when the roster fills.
	Begin(s *Session) []Event

	// Resolve validates and applies one player action. On error the
	// session is untouched and no events are produced.
	Resolve(s *Session, actorID string, act models.Action) ([]Event, error)

	// CheckWin applies the variant's terminal conditions after a forced
	// departure. Returns the finish events and whether the session ended.
	CheckWin(s *Session) ([]Event, bool)

	// Departed reacts to a mid-game departure after the participant has
	// been eliminated (ballot bookkeeping, turn handoff).
	Departed(s *Session, p *models.Participant) []Event
}

func rulesFor(v Variant) Ruleset {
	if v == VariantCouncil {
		return councilRules{}
	}
	return deductionRules{}
}
