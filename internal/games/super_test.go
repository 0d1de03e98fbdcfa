package games

import (
	"testing"

	"github.com/stretchr/testify/require"

	"onchaincasino/internal/rng"
)

func superStream() *rng.Stream {
	return rng.NewStream([]byte("super-seed"), 42, rng.SuperMoveIndex)
}

func TestGenerateSuperSetDeterministic(t *testing.T) {
	a := GenerateSuperSet(Blackjack, superStream(), false)
	b := GenerateSuperSet(Blackjack, superStream(), false)
	require.Equal(t, a, b)
	require.Len(t, a, superSetSize)

	bonus := GenerateSuperSet(Blackjack, superStream(), true)
	require.Len(t, bonus, superBonusSetSize)
}

func TestGenerateSuperSetDomains(t *testing.T) {
	for _, e := range GenerateSuperSet(Roulette, superStream(), false) {
		require.Equal(t, SuperNumber, e.Domain)
		require.LessOrEqual(t, e.Value, uint8(36))
		require.NotZero(t, e.Multiplier)
	}
	for _, e := range GenerateSuperSet(SicBo, superStream(), false) {
		require.Equal(t, SuperTotal, e.Domain)
		require.GreaterOrEqual(t, e.Value, uint8(3))
		require.LessOrEqual(t, e.Value, uint8(18))
	}
	for _, e := range GenerateSuperSet(Baccarat, superStream(), false) {
		switch e.Domain {
		case SuperCard:
			require.Less(t, e.Value, uint8(52))
		case SuperRank:
			require.GreaterOrEqual(t, e.Value, uint8(1))
			require.LessOrEqual(t, e.Value, uint8(13))
		case SuperSuit:
			require.Less(t, e.Value, uint8(4))
		default:
			t.Fatalf("unexpected domain %d for a card game", e.Domain)
		}
	}
}

func TestGenerateSuperSetEntriesDistinct(t *testing.T) {
	set := GenerateSuperSet(Roulette, superStream(), true)
	seen := map[uint8]bool{}
	for _, e := range set {
		require.False(t, seen[e.Value], "duplicate pocket %d", e.Value)
		seen[e.Value] = true
	}
}

func TestApplySuperNumberMatch(t *testing.T) {
	set := SuperSet{
		{Domain: SuperNumber, Value: 17, Multiplier: 100},
		{Domain: SuperNumber, Value: 3, Multiplier: 50},
	}
	n := uint8(17)
	res := Result{WinningNumber: &n}
	require.Equal(t, uint64(360000), ApplySuper(set, res, 3600))

	miss := uint8(5)
	res = Result{WinningNumber: &miss}
	require.Equal(t, uint64(3600), ApplySuper(set, res, 3600))

	// A number-keyed result never consults card entries.
	res = Result{WinningNumber: &n}
	require.Equal(t, uint64(100), ApplySuper(SuperSet{{Domain: SuperCard, Value: 17, Multiplier: 9}}, res, 100))
}

func TestApplySuperCardStacking(t *testing.T) {
	set := SuperSet{
		{Domain: SuperCard, Value: card(1, 3), Multiplier: 4},
		{Domain: SuperRank, Value: 13, Multiplier: 3},
		{Domain: SuperSuit, Value: suitSpades, Multiplier: 2},
	}
	// Ace of spades matches the card entry and the suit entry; king of
	// spades matches rank and suit. Factors stack multiplicatively.
	res := Result{WinningCards: []uint8{card(1, 3), card(13, 3)}}
	require.Equal(t, uint64(100*4*2*3*2), ApplySuper(set, res, 100))

	res = Result{WinningCards: []uint8{card(2, 0)}}
	require.Equal(t, uint64(100), ApplySuper(set, res, 100))
}

func TestApplySuperZeroPayout(t *testing.T) {
	set := SuperSet{{Domain: SuperCard, Value: 0, Multiplier: 10}}
	require.Equal(t, uint64(0), ApplySuper(set, Result{WinningCards: []uint8{0}}, 0))
	require.Equal(t, uint64(77), ApplySuper(nil, Result{WinningCards: []uint8{0}}, 77))
}

func TestSatMul(t *testing.T) {
	require.Equal(t, uint64(0), satMulU64(0, 10))
	require.Equal(t, uint64(50), satMulU64(5, 10))
	require.Equal(t, ^uint64(0), satMulU64(^uint64(0), 2))
	require.Equal(t, ^uint64(0), satMulU64(1<<63, 2))
}
