package games

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"onchaincasino/internal/rng"
)

func testStream(move uint32) *rng.Stream {
	return rng.NewStream([]byte("games-test-seed"), 7, move)
}

func TestRouletteBetDeltas(t *testing.T) {
	blob, res, err := Init(Roulette, Context{}, testStream(0))
	require.NoError(t, err)
	require.Equal(t, KindContinue, res.Outcome.Kind)

	blob, res, err = ProcessMove(Roulette, Context{}, blob, []byte(`{"action":"bet","kind":"straight","number":17,"amount":100}`), testStream(1))
	require.NoError(t, err)
	require.Equal(t, KindContinueWithUpdate, res.Outcome.Kind)
	require.Equal(t, int64(100), res.Outcome.Delta)

	// Raising an existing bet only charges the difference.
	blob, res, err = ProcessMove(Roulette, Context{}, blob, []byte(`{"action":"bet","kind":"straight","number":17,"amount":250}`), testStream(2))
	require.NoError(t, err)
	require.Equal(t, int64(150), res.Outcome.Delta)

	// Lowering refunds.
	blob, res, err = ProcessMove(Roulette, Context{}, blob, []byte(`{"action":"bet","kind":"straight","number":17,"amount":50}`), testStream(3))
	require.NoError(t, err)
	require.Equal(t, int64(-200), res.Outcome.Delta)

	// Clearing removes the record entirely.
	blob, res, err = ProcessMove(Roulette, Context{}, blob, []byte(`{"action":"bet","kind":"straight","number":17,"amount":0}`), testStream(4))
	require.NoError(t, err)
	require.Equal(t, int64(-50), res.Outcome.Delta)
	st, err := decodeRoulette(blob)
	require.NoError(t, err)
	require.Empty(t, st.bets)

	// Clearing a bet that does not exist is rejected.
	_, _, err = ProcessMove(Roulette, Context{}, blob, []byte(`{"action":"bet","kind":"red","amount":0}`), testStream(5))
	require.ErrorIs(t, err, ErrInvalidMove)
}

func TestRouletteValidation(t *testing.T) {
	blob, _, err := Init(Roulette, Context{}, testStream(0))
	require.NoError(t, err)

	_, _, err = ProcessMove(Roulette, Context{}, blob, []byte(`{"action":"bet","kind":"straight","number":37,"amount":10}`), testStream(1))
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, _, err = ProcessMove(Roulette, Context{}, blob, []byte(`{"action":"bet","kind":"red","number":5,"amount":10}`), testStream(1))
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, _, err = ProcessMove(Roulette, Context{}, blob, []byte(`{"action":"bet","kind":"corner","amount":10}`), testStream(1))
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, _, err = ProcessMove(Roulette, Context{}, blob, []byte(fmt.Sprintf(`{"action":"bet","kind":"red","amount":%d}`, MaxWager+1)), testStream(1))
	require.ErrorIs(t, err, ErrInvalidPayload)

	// Spinning with no bets down is rejected.
	_, _, err = ProcessMove(Roulette, Context{}, blob, []byte(`{"action":"spin"}`), testStream(1))
	require.ErrorIs(t, err, ErrInvalidMove)
}

func TestRouletteSpinSettles(t *testing.T) {
	blob, _, err := Init(Roulette, Context{}, testStream(0))
	require.NoError(t, err)
	blob, _, err = ProcessMove(Roulette, Context{}, blob, []byte(`{"action":"bet","kind":"red","amount":100}`), testStream(1))
	require.NoError(t, err)
	blob, _, err = ProcessMove(Roulette, Context{}, blob, []byte(`{"action":"bet","kind":"straight","number":0,"amount":10}`), testStream(2))
	require.NoError(t, err)

	// Mirror the move stream to know the pocket before settling.
	pocket := testStream(3).SpinWheel()

	blob, res, err := ProcessMove(Roulette, Context{}, blob, []byte(`{"action":"spin"}`), testStream(3))
	require.NoError(t, err)
	require.True(t, res.Outcome.Terminal())
	require.NotNil(t, res.WinningNumber)
	require.Equal(t, pocket, *res.WinningNumber)

	var want uint64
	if pocket == 0 {
		want = 10 * 36 // straight on zero is the only survivor
	} else if redPockets[pocket] {
		want = 100 * 2
	}
	switch {
	case want == 0:
		require.Equal(t, KindLossPreDeducted, res.Outcome.Kind)
		require.Equal(t, uint64(110), res.Outcome.Amount)
	case want == 110:
		require.Equal(t, KindPush, res.Outcome.Kind)
	default:
		require.Equal(t, KindWin, res.Outcome.Kind)
		require.Equal(t, want, res.Outcome.Amount)
	}

	st, err := decodeRoulette(blob)
	require.NoError(t, err)
	require.Equal(t, rouletteStageDone, st.stage)
	require.Equal(t, pocket, st.pocket)

	// No further moves once resolved.
	_, _, err = ProcessMove(Roulette, Context{}, blob, []byte(`{"action":"spin"}`), testStream(4))
	require.ErrorIs(t, err, ErrInvalidMove)
}

func TestRouletteZeroRule(t *testing.T) {
	for _, kind := range []rouletteBetKind{rouletteRed, rouletteBlack, rouletteOdd, rouletteEven, rouletteHigh, rouletteLow, rouletteDozen, rouletteColumn} {
		require.False(t, rouletteBetWins(rouletteBet{kind: kind}, 0), "kind %d must lose on zero", kind)
	}
	require.True(t, rouletteBetWins(rouletteBet{kind: rouletteStraight, number: 0}, 0))
	require.False(t, rouletteBetWins(rouletteBet{kind: rouletteStraight, number: 17}, 0))
}

func TestRouletteBetWins(t *testing.T) {
	require.True(t, rouletteBetWins(rouletteBet{kind: rouletteRed}, 32))
	require.False(t, rouletteBetWins(rouletteBet{kind: rouletteRed}, 33))
	require.True(t, rouletteBetWins(rouletteBet{kind: rouletteBlack}, 33))
	require.True(t, rouletteBetWins(rouletteBet{kind: rouletteHigh}, 19))
	require.False(t, rouletteBetWins(rouletteBet{kind: rouletteHigh}, 18))
	require.True(t, rouletteBetWins(rouletteBet{kind: rouletteLow}, 18))
	require.True(t, rouletteBetWins(rouletteBet{kind: rouletteDozen, number: 1}, 13))
	require.False(t, rouletteBetWins(rouletteBet{kind: rouletteDozen, number: 1}, 12))
	require.True(t, rouletteBetWins(rouletteBet{kind: rouletteColumn, number: 0}, 1))
	require.True(t, rouletteBetWins(rouletteBet{kind: rouletteColumn, number: 2}, 36))

	require.Equal(t, uint32(35), rouletteMultiplier(rouletteStraight))
	require.Equal(t, uint32(2), rouletteMultiplier(rouletteDozen))
	require.Equal(t, uint32(1), rouletteMultiplier(rouletteRed))
}

func TestRouletteDecodeV1(t *testing.T) {
	// Legacy layout: no pocket byte.
	legacy := newBlobWriter(rouletteV1).u8(rouletteStageBetting).u8(1).
		u8(uint8(rouletteStraight)).u8(17).u64(100).done()
	st, err := decodeRoulette(legacy)
	require.NoError(t, err)
	require.Equal(t, uint8(noPocket), st.pocket)
	require.Len(t, st.bets, 1)

	// Re-encoding always yields the newest layout.
	st2, err := decodeRoulette(st.encode())
	require.NoError(t, err)
	require.Equal(t, st.bets, st2.bets)
}

func TestRouletteDecodeRejectsGarbage(t *testing.T) {
	_, err := decodeRoulette([]byte{9})
	require.ErrorIs(t, err, ErrMalformedState)

	_, err = decodeRoulette([]byte{rouletteV2, 0, noPocket, 1, 0})
	require.ErrorIs(t, err, ErrMalformedState)

	good := newBlobWriter(rouletteV2).u8(0).u8(noPocket).u8(0).done()
	_, err = decodeRoulette(append(good, 0xAA))
	require.ErrorIs(t, err, ErrMalformedState)

	_, err = decodeRoulette(newBlobWriter(rouletteV2).u8(0).u8(noPocket).u8(1).
		u8(uint8(rouletteKindEnd)).u8(0).u64(5).done())
	require.ErrorIs(t, err, ErrMalformedState)
}
