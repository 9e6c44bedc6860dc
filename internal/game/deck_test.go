package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorgames/parlor/internal/models"
)

func TestDeductionStockComposition(t *testing.T) {
	stock := DeductionStock()
	require.Len(t, stock, 16)

	counts := map[int]int{}
	for _, tok := range stock {
		counts[tok.Rank]++
	}
	assert.Equal(t, 5, counts[models.RankGuard])
	assert.Equal(t, 2, counts[models.RankPriest])
	assert.Equal(t, 2, counts[models.RankBaron])
	assert.Equal(t, 2, counts[models.RankHandmaid])
	assert.Equal(t, 2, counts[models.RankPrince])
	assert.Equal(t, 1, counts[models.RankKing])
	assert.Equal(t, 1, counts[models.RankCountess])
	assert.Equal(t, 1, counts[models.RankPrincess])
}

func TestCouncilStockComposition(t *testing.T) {
	stock := CouncilStock()
	require.Len(t, stock, 17)

	fav, unfav := 0, 0
	for _, tok := range stock {
		switch tok.Category {
		case models.CategoryFavorable:
			fav++
		case models.CategoryUnfavorable:
			unfav++
		}
	}
	assert.Equal(t, 6, fav)
	assert.Equal(t, 11, unfav)
}

func TestCouncilRolesPerCapacity(t *testing.T) {
	expected := map[int]int{5: 1, 6: 1, 7: 2, 8: 2, 9: 3, 10: 3}
	for capacity, conspirators := range expected {
		roles := CouncilRoles(capacity)
		require.Len(t, roles, capacity)

		byRole := map[models.Role]int{}
		for _, r := range roles {
			byRole[r]++
		}
		assert.Equal(t, 1, byRole[models.RoleAgitator], "capacity %d", capacity)
		assert.Equal(t, conspirators, byRole[models.RoleConspirator], "capacity %d", capacity)
		assert.Equal(t, capacity-1-conspirators, byRole[models.RoleCitizen], "capacity %d", capacity)
	}
}

func TestShuffleIsAPermutation(t *testing.T) {
	stock := DeductionStock()
	shuffleTokens(rand.New(rand.NewSource(7)), stock)
	require.Len(t, stock, 16)

	counts := map[int]int{}
	for _, tok := range stock {
		counts[tok.Rank]++
	}
	assert.Equal(t, 5, counts[models.RankGuard])
	assert.Equal(t, 1, counts[models.RankPrincess])
}

func TestShuffleIsDeterministicPerSeed(t *testing.T) {
	a := DeductionStock()
	b := DeductionStock()
	shuffleTokens(rand.New(rand.NewSource(99)), a)
	shuffleTokens(rand.New(rand.NewSource(99)), b)
	assert.Equal(t, a, b)
}
