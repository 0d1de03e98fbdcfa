package games

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaccaratBetsAndDeal(t *testing.T) {
	blob, res, err := Init(Baccarat, Context{}, testStream(0))
	require.NoError(t, err)
	require.Equal(t, KindContinue, res.Outcome.Kind)

	blob, res, err = ProcessMove(Baccarat, Context{}, blob, []byte(`{"action":"bet","kind":"player","amount":100}`), testStream(1))
	require.NoError(t, err)
	require.Equal(t, int64(100), res.Outcome.Delta)

	blob, res, err = ProcessMove(Baccarat, Context{}, blob, []byte(`{"action":"bet","kind":"banker","amount":60}`), testStream(2))
	require.NoError(t, err)
	require.Equal(t, int64(60), res.Outcome.Delta)

	// Mirror the move stream to know the shoe order in advance.
	mirror := NewShoe(testStream(3), baccaratDecks, nil)
	next := func() uint8 {
		c, err := mirror.Draw()
		require.NoError(t, err)
		return c.Byte()
	}
	p := []uint8{next()}
	b := []uint8{next()}
	p = append(p, next())
	b = append(b, next())
	if baccaratValue(p) < 8 && baccaratValue(b) < 8 {
		drew, third := false, -1
		if baccaratValue(p) <= 5 {
			c := next()
			p = append(p, c)
			drew, third = true, baccaratCardValue(c)
		}
		if bankerDraws(baccaratValue(b), drew, third) {
			b = append(b, next())
		}
	}
	pTotal, bTotal := baccaratValue(p), baccaratValue(b)

	blob, res, err = ProcessMove(Baccarat, Context{}, blob, []byte(`{"action":"deal"}`), testStream(3))
	require.NoError(t, err)
	require.True(t, res.Outcome.Terminal())

	var want uint64
	switch {
	case pTotal > bTotal:
		want = 200
	case bTotal > pTotal:
		want = 60 + 60*95/100
	default:
		want = 160 // both main bets push on a tie
	}
	switch {
	case want == 0:
		require.Equal(t, KindLossPreDeducted, res.Outcome.Kind)
	case want == 160:
		require.Equal(t, KindPush, res.Outcome.Kind)
	default:
		require.Equal(t, KindWin, res.Outcome.Kind)
		require.Equal(t, want, res.Outcome.Amount)
	}

	st, err := decodeBaccarat(blob)
	require.NoError(t, err)
	require.Equal(t, baccaratStageDone, st.stage)
	require.Equal(t, p[0], st.player[0])
	require.Equal(t, b[0], st.banker[0])

	_, _, err = ProcessMove(Baccarat, Context{}, blob, []byte(`{"action":"deal"}`), testStream(4))
	require.ErrorIs(t, err, ErrInvalidMove)
}

func TestBaccaratDealRequiresBets(t *testing.T) {
	blob, _, err := Init(Baccarat, Context{}, testStream(0))
	require.NoError(t, err)
	_, _, err = ProcessMove(Baccarat, Context{}, blob, []byte(`{"action":"deal"}`), testStream(1))
	require.ErrorIs(t, err, ErrInvalidMove)
}

func TestBaccaratBankerCommissionFloor(t *testing.T) {
	// A 1-chip banker win yields zero commission profit after the floor;
	// the credit is exactly the stake, which nets out as a push.
	require.Equal(t, uint64(0), satMulU64(1, 95)/100)
	require.Equal(t, KindPush, netOutcome(1, 1).Kind)

	// At 100 the commission leaves 95 profit.
	require.Equal(t, uint64(95), satMulU64(100, 95)/100)
}

func TestBaccaratTiePaysNineForOne(t *testing.T) {
	st := &baccaratState{stage: baccaratStageBetting}
	st.bets[baccaratBetTie] = 10
	// Resolution credits 9x the tie stake on a tie: verify the constant via
	// the credit arithmetic used in deal.
	require.Equal(t, uint64(90), satMulU64(st.bets[baccaratBetTie], 9))
}

func TestBaccaratDecodeRejectsGarbage(t *testing.T) {
	_, err := decodeBaccarat([]byte{baccaratV1, 0, 1})
	require.ErrorIs(t, err, ErrMalformedState)

	_, err = decodeBaccarat([]byte{0x30})
	require.ErrorIs(t, err, ErrMalformedState)

	w := newBlobWriter(baccaratV1).u8(0)
	for i := 0; i < 6; i++ {
		w.u8(52) // out of range and not the sentinel
	}
	for i := 0; i < 5; i++ {
		w.u64(0)
	}
	_, err = decodeBaccarat(w.done())
	require.ErrorIs(t, err, ErrMalformedState)
}

func TestBaccaratRoundTrip(t *testing.T) {
	st := &baccaratState{stage: baccaratStageBetting}
	for i := range st.player {
		st.player[i] = unknownCard
		st.banker[i] = unknownCard
	}
	st.bets[baccaratBetPlayer] = 100
	st.bets[baccaratBetBankerPair] = 5

	got, err := decodeBaccarat(st.encode())
	require.NoError(t, err)
	require.Equal(t, st, got)
}
