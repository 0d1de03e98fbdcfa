package games

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeNames(t *testing.T) {
	for _, typ := range []Type{Baccarat, Blackjack, CasinoWar, Roulette, SicBo, ThreeCardPoker, UltimateHoldem} {
		name := typ.String()
		require.NotEqual(t, "unknown", name)
		back, ok := TypeFromName(name)
		require.True(t, ok)
		require.Equal(t, typ, back)
	}
	_, ok := TypeFromName("craps")
	require.False(t, ok)
	require.Equal(t, "unknown", Type(0).String())
}

func TestMoveFunded(t *testing.T) {
	require.True(t, Roulette.MoveFunded())
	require.True(t, SicBo.MoveFunded())
	require.True(t, Baccarat.MoveFunded())
	require.False(t, Blackjack.MoveFunded())
	require.False(t, CasinoWar.MoveFunded())
	require.False(t, ThreeCardPoker.MoveFunded())
	require.False(t, UltimateHoldem.MoveFunded())
}

func TestUnknownGameRejected(t *testing.T) {
	_, _, err := Init(Type(99), Context{}, testStream(0))
	require.ErrorIs(t, err, ErrUnknownGame)
	_, _, err = ProcessMove(Type(99), Context{}, nil, nil, testStream(0))
	require.ErrorIs(t, err, ErrUnknownGame)
}

func TestNetOutcome(t *testing.T) {
	require.Equal(t, KindPush, netOutcome(0, 0).Kind)
	require.Equal(t, KindPush, netOutcome(100, 100).Kind)

	o := netOutcome(100, 0)
	require.Equal(t, KindLossPreDeducted, o.Kind)
	require.Equal(t, uint64(100), o.Amount)

	o = netOutcome(100, 250)
	require.Equal(t, KindWin, o.Kind)
	require.Equal(t, uint64(250), o.Amount)

	// Partial return is still a credit, not a loss.
	o = netOutcome(100, 40)
	require.Equal(t, KindWin, o.Kind)
	require.Equal(t, uint64(40), o.Amount)
}

func TestOutcomePredicates(t *testing.T) {
	require.False(t, Continue().Terminal())
	require.False(t, ContinueWithUpdate(5).Terminal())
	require.True(t, Win(1).Terminal())
	require.True(t, Push().Terminal())
	require.True(t, Loss().Terminal())

	require.True(t, Loss().IsLoss())
	require.True(t, LossWithExtraDeduction(5).IsLoss())
	require.True(t, LossPreDeducted(5).IsLoss())
	require.True(t, LossPreDeductedWithExtraDeduction(5, 2).IsLoss())
	require.False(t, Push().IsLoss())
	require.False(t, Win(1).IsLoss())

	require.True(t, Win(1).IsWin())
	require.True(t, WinWithExtraDeduction(1, 1).IsWin())
	require.False(t, Push().IsWin())
}

func TestSatAdd(t *testing.T) {
	require.Equal(t, uint64(7), satAddU64(3, 4))
	require.Equal(t, ^uint64(0), satAddU64(^uint64(0), 1))
	require.Equal(t, ^uint64(0), satAddU64(1, ^uint64(0)))
}

func TestBlobReaderRejectsTruncation(t *testing.T) {
	r := newBlobReader([]byte{1, 2})
	_ = r.u8()
	_ = r.u64()
	require.ErrorIs(t, r.err(), ErrMalformedState)

	r = newBlobReader([]byte{1, 2, 3})
	_ = r.u8()
	_ = r.u8()
	require.ErrorIs(t, r.err(), ErrMalformedState)

	r = newBlobReader(newBlobWriter(7).u8(3).u64(9).done())
	require.Equal(t, uint8(7), r.u8())
	require.Equal(t, uint8(3), r.u8())
	require.Equal(t, uint64(9), r.u64())
	require.NoError(t, r.err())
}

// Replaying the same session twice from the same seeds must produce
// byte-identical blobs, whatever the game.
func TestReplayDeterminism(t *testing.T) {
	ctx := Context{Stake: 100}
	moves := map[Type][]string{
		Roulette:       {`{"action":"bet","kind":"red","amount":50}`, `{"action":"spin"}`},
		SicBo:          {`{"action":"bet","kind":"big","amount":50}`, `{"action":"roll"}`},
		Baccarat:       {`{"action":"bet","kind":"player","amount":50}`, `{"action":"deal"}`},
		CasinoWar:      {`{"action":"deal"}`},
		Blackjack:      {`{"action":"deal"}`},
		ThreeCardPoker: {`{"action":"six_card","amount":10}`, `{"action":"deal"}`, `{"action":"fold"}`},
		UltimateHoldem: {`{"action":"deal"}`, `{"action":"raise","amount":4}`},
	}
	for typ, seq := range moves {
		run := func() [][]byte {
			var blobs [][]byte
			blob, _, err := Init(typ, ctx, testStream(0))
			require.NoError(t, err)
			blobs = append(blobs, blob)
			for i, mv := range seq {
				var res Result
				blob, res, err = ProcessMove(typ, ctx, blob, []byte(mv), testStream(uint32(i+1)))
				require.NoError(t, err)
				blobs = append(blobs, blob)
				if res.Outcome.Terminal() {
					break
				}
			}
			return blobs
		}
		require.Equal(t, run(), run(), "game %s must replay identically", typ)
	}
}
