package game

import (
	"math/rand"

	"github.com/parlorgames/parlor/internal/models"
)

// Council thresholds and constants. The favorable target is deliberately
// lower than the unfavorable one; the agitator-election side channel only
// opens once the unfavorable counter passes AgitatorElectionFloor.
const (
	FavorableTarget       = 5
	UnfavorableTarget     = 6
	AgitatorElectionFloor = 3

	favorablePolicies   = 6
	unfavorablePolicies = 11
)

// deductionComposition is the fixed 16-card stock: five Guards, two each
// of Priest through Prince, and single King, Countess and Princess.
var deductionComposition = map[int]int{
	models.RankGuard:    5,
	models.RankPriest:   2,
	models.RankBaron:    2,
	models.RankHandmaid: 2,
	models.RankPrince:   2,
	models.RankKing:     1,
	models.RankCountess: 1,
	models.RankPrincess: 1,
}

// conspiratorsFor is the number of conspirators (agitator excluded) dealt
// for a given roster capacity.
var conspiratorsFor = map[int]int{
	5: 1, 6: 1, 7: 2, 8: 2, 9: 3, 10: 3,
}

// DeductionStock returns the unshuffled 16-card deduction stock.
func DeductionStock() []models.Token {
	stock := make([]models.Token, 0, 16)
	for rank := models.RankGuard; rank <= models.RankPrincess; rank++ {
		for i := 0; i < deductionComposition[rank]; i++ {
			stock = append(stock, models.DeductionToken(rank))
		}
	}
	return stock
}

// CouncilStock returns the unshuffled 17-token policy stock.
func CouncilStock() []models.Token {
	stock := make([]models.Token, 0, favorablePolicies+unfavorablePolicies)
	for i := 0; i < favorablePolicies; i++ {
		stock = append(stock, models.PolicyToken(models.CategoryFavorable))
	}
	for i := 0; i < unfavorablePolicies; i++ {
		stock = append(stock, models.PolicyToken(models.CategoryUnfavorable))
	}
	return stock
}

// CouncilRoles returns the unshuffled role set for a roster of the given
// capacity: one agitator, its conspirators, and citizens for the rest.
func CouncilRoles(capacity int) []models.Role {
	roles := make([]models.Role, 0, capacity)
	roles = append(roles, models.RoleAgitator)
	for i := 0; i < conspiratorsFor[capacity]; i++ {
		roles = append(roles, models.RoleConspirator)
	}
	for len(roles) < capacity {
		roles = append(roles, models.RoleCitizen)
	}
	return roles
}

// shuffleTokens permutes the stock in place with a Fisher-Yates walk.
// This and shuffleRoles are the only places randomness enters a session
// besides the starting-player pick.
func shuffleTokens(rng *rand.Rand, stock []models.Token) {
	for i := len(stock) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		stock[i], stock[j] = stock[j], stock[i]
	}
}

func shuffleRoles(rng *rand.Rand, roles []models.Role) {
	for i := len(roles) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		roles[i], roles[j] = roles[j], roles[i]
	}
}
