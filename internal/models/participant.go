package models

// Status is a participant's standing within a session.
type Status int

const (
	StatusActive Status = iota
	StatusEliminated
	// StatusShielded is a one-turn elimination immunity. It is cleared
	// when the shielded participant's next turn begins.
	StatusShielded
)

func (s Status) String() string {
	switch s {
	case StatusEliminated:
		return "eliminated"
	case StatusShielded:
		return "shielded"
	default:
		return "active"
	}
}

// Ballot is a participant's vote within the current ballot round.
type Ballot int

const (
	BallotNone Ballot = iota
	BallotYes
	BallotNo
)

func (b Ballot) String() string {
	switch b {
	case BallotYes:
		return "yes"
	case BallotNo:
		return "no"
	default:
		return "none"
	}
}

// Participant is one player's seat within a session. The ID is the opaque
// identifier supplied by the transport layer (e.g. a chat user id); the
// engine never interprets it.
type Participant struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Status Status  `json:"status"`
	Hand   []Token `json:"-"`
	// Pile holds publicly revealed discards, in discard order.
	Pile   []Token `json:"pile"`
	Role   Role    `json:"-"`
	Ballot Ballot  `json:"-"`
}

// HoldsRank reports whether the participant's hand contains a card of
// the given rank.
func (p *Participant) HoldsRank(rank int) bool {
	for _, t := range p.Hand {
		if t.Rank == rank {
			return true
		}
	}
	return false
}

// PileSum is the sum of discard-pile ranks, used as the showdown tie-break.
func (p *Participant) PileSum() int {
	sum := 0
	for _, t := range p.Pile {
		sum += t.Rank
	}
	return sum
}
