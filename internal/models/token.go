package models

// Category tags a council policy token. Deduction cards carry
// CategoryNone and are identified by rank instead.
type Category int

const (
	CategoryNone Category = iota
	CategoryFavorable
	CategoryUnfavorable
)

func (c Category) String() string {
	switch c {
	case CategoryFavorable:
		return "favorable"
	case CategoryUnfavorable:
		return "unfavorable"
	default:
		return "none"
	}
}

// Deduction card ranks. The rank ordering is the card's strength in the
// end-of-stock showdown and the Baron comparison.
const (
	RankGuard    = 1
	RankPriest   = 2
	RankBaron    = 3
	RankHandmaid = 4
	RankPrince   = 5
	RankKing     = 6
	RankCountess = 7
	RankPrincess = 8
)

// Token is an immutable card or policy value. Tokens are interchangeable
// by value; a specific token only has identity through the container
// (stock, hand, discard pile) it currently sits in.
type Token struct {
	Rank     int      `json:"rank,omitempty"`
	Name     string   `json:"name,omitempty"`
	Category Category `json:"category,omitempty"`
}

// rankNames maps deduction ranks to their display keys.
var rankNames = map[int]string{
	RankGuard:    "Guard",
	RankPriest:   "Priest",
	RankBaron:    "Baron",
	RankHandmaid: "Handmaid",
	RankPrince:   "Prince",
	RankKing:     "King",
	RankCountess: "Countess",
	RankPrincess: "Princess",
}

// DeductionToken builds a card token for the given rank.
func DeductionToken(rank int) Token {
	return Token{Rank: rank, Name: rankNames[rank]}
}

// PolicyToken builds a council policy token.
func PolicyToken(cat Category) Token {
	return Token{Category: cat, Name: cat.String()}
}

// Role is a council participant's secret allegiance.
type Role int

const (
	RoleNone Role = iota
	RoleCitizen
	RoleConspirator
	RoleAgitator
)

func (r Role) String() string {
	switch r {
	case RoleCitizen:
		return "citizen"
	case RoleConspirator:
		return "conspirator"
	case RoleAgitator:
		return "agitator"
	default:
		return "none"
	}
}

// Hostile reports whether the role wins with the agitator side.
func (r Role) Hostile() bool {
	return r == RoleAgitator || r == RoleConspirator
}
