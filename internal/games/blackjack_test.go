package games

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlackjackDeal(t *testing.T) {
	ctx := Context{Stake: 100}
	blob, res, err := Init(Blackjack, ctx, testStream(0))
	require.NoError(t, err)
	require.Equal(t, KindContinue, res.Outcome.Kind)

	mirror := NewShoe(testStream(1), bjDecks, nil)
	c1, err := mirror.Draw()
	require.NoError(t, err)
	c2, err := mirror.Draw()
	require.NoError(t, err)
	up, err := mirror.Draw()
	require.NoError(t, err)

	blob, res, err = ProcessMove(Blackjack, ctx, blob, []byte(`{"action":"deal"}`), testStream(1))
	require.NoError(t, err)

	st, err := decodeBlackjack(blob)
	require.NoError(t, err)
	require.Len(t, st.hands, 1)
	require.Equal(t, []uint8{c1.Byte(), c2.Byte()}, st.hands[0].cards)
	require.Equal(t, up.Byte(), st.dealerUp)
	require.Equal(t, uint64(100), st.hands[0].bet)

	if total, _ := blackjackValue(st.hands[0].cards); total == 21 {
		// Natural resolves immediately: 3:2 against a non-natural dealer,
		// push against a matching natural.
		require.True(t, res.Outcome.Terminal())
		require.Equal(t, bjStageDone, st.stage)
		if res.Outcome.Kind == KindWin {
			require.Equal(t, uint64(250), res.Outcome.Amount)
		} else {
			require.Equal(t, KindPush, res.Outcome.Kind)
		}
	} else {
		require.Equal(t, KindContinue, res.Outcome.Kind)
		require.Equal(t, bjStagePlayer, st.stage)
	}
}

func TestBlackjackSideBetDelta(t *testing.T) {
	ctx := Context{Stake: 100}
	blob, _, err := Init(Blackjack, ctx, testStream(0))
	require.NoError(t, err)

	blob, res, err := ProcessMove(Blackjack, ctx, blob, []byte(`{"action":"side_bet","amount":40}`), testStream(1))
	require.NoError(t, err)
	require.Equal(t, int64(40), res.Outcome.Delta)

	_, res, err = ProcessMove(Blackjack, ctx, blob, []byte(`{"action":"side_bet","amount":15}`), testStream(2))
	require.NoError(t, err)
	require.Equal(t, int64(-25), res.Outcome.Delta)
}

// bjPlayerState builds a mid-round state directly so play decisions can be
// tested without hunting the stream for particular cards.
func bjPlayerState(bet uint64, cards []uint8, up uint8) *blackjackState {
	return &blackjackState{
		stage:    bjStagePlayer,
		dealerUp: up,
		hands:    []bjHand{{bet: bet, cards: cards}},
	}
}

func TestBlackjackDoubleChargesOnce(t *testing.T) {
	ctx := Context{Stake: 100}
	st := bjPlayerState(100, []uint8{card(6, 0), card(5, 1)}, card(9, 2))
	blob := st.encode()

	out, res, err := ProcessMove(Blackjack, ctx, blob, []byte(`{"action":"double"}`), testStream(5))
	require.NoError(t, err)
	// Eleven cannot bust, so the round always advances to reveal.
	require.Equal(t, KindContinueWithUpdate, res.Outcome.Kind)
	require.Equal(t, int64(100), res.Outcome.Delta)

	st2, err := decodeBlackjack(out)
	require.NoError(t, err)
	require.Equal(t, bjStageReveal, st2.stage)
	require.Equal(t, uint64(200), st2.hands[0].bet)
	require.Len(t, st2.hands[0].cards, 3)
	require.NotZero(t, st2.hands[0].flags&bjFlagDoubled)

	// No second double on the same hand.
	st3 := bjPlayerState(100, []uint8{card(6, 0), card(5, 1), card(2, 2)}, card(9, 2))
	_, _, err = ProcessMove(Blackjack, ctx, st3.encode(), []byte(`{"action":"double"}`), testStream(6))
	require.ErrorIs(t, err, ErrInvalidMove)
}

func TestBlackjackSplit(t *testing.T) {
	ctx := Context{Stake: 100}
	st := bjPlayerState(100, []uint8{card(8, 0), card(8, 1)}, card(9, 2))

	// The shoe must exclude both eights and the upcard, the moved card
	// included even though it sits in no stored hand while drawing.
	mirror := NewShoe(testStream(7), bjDecks, []uint8{card(9, 2), card(8, 0), card(8, 1)})
	d1, err := mirror.Draw()
	require.NoError(t, err)
	d2, err := mirror.Draw()
	require.NoError(t, err)

	out, res, err := ProcessMove(Blackjack, ctx, st.encode(), []byte(`{"action":"split"}`), testStream(7))
	require.NoError(t, err)
	require.Equal(t, KindContinueWithUpdate, res.Outcome.Kind)
	require.Equal(t, int64(100), res.Outcome.Delta)

	st2, err := decodeBlackjack(out)
	require.NoError(t, err)
	require.Len(t, st2.hands, 2)
	for _, h := range st2.hands {
		require.Equal(t, uint64(100), h.bet)
		require.Len(t, h.cards, 2)
		require.NotZero(t, h.flags&bjFlagSplit)
	}
	require.Equal(t, uint8(card(8, 0)), st2.hands[0].cards[0])
	require.Equal(t, uint8(card(8, 1)), st2.hands[1].cards[0])
	require.Equal(t, d1.Byte(), st2.hands[0].cards[1])
	require.Equal(t, d2.Byte(), st2.hands[1].cards[1])

	// A split hand totalling 21 is not a natural and cannot resolve early.
	require.Equal(t, bjStagePlayer, st2.stage)

	notPair := bjPlayerState(100, []uint8{card(8, 0), card(9, 1)}, card(9, 2))
	_, _, err = ProcessMove(Blackjack, ctx, notPair.encode(), []byte(`{"action":"split"}`), testStream(8))
	require.ErrorIs(t, err, ErrInvalidMove)
}

func TestBlackjackDoubleBustKeepsExtraSeparate(t *testing.T) {
	ctx := Context{Stake: 100}
	st := bjPlayerState(100, []uint8{card(13, 0), card(12, 1)}, card(9, 2))

	mirror := NewShoe(testStream(15), bjDecks, []uint8{card(9, 2), card(13, 0), card(12, 1)})
	drawn, err := mirror.Draw()
	require.NoError(t, err)

	_, res, err := ProcessMove(Blackjack, ctx, st.encode(), []byte(`{"action":"double"}`), testStream(15))
	require.NoError(t, err)
	if rankOf(drawn.Byte()) == 1 {
		// Twenty plus an ace stands at twenty-one instead of busting.
		require.Equal(t, KindContinueWithUpdate, res.Outcome.Kind)
		return
	}
	// Busting a doubled hand forfeits the 100 pre-deducted stake and owes
	// the 100 double separately; the amount never counts the extra.
	require.Equal(t, KindLossPreDeductedWithExtraDeduction, res.Outcome.Kind)
	require.Equal(t, uint64(100), res.Outcome.Amount)
	require.Equal(t, uint64(100), res.Outcome.Extra)
}

func TestBlackjackHitAndBust(t *testing.T) {
	ctx := Context{Stake: 100}
	st := bjPlayerState(100, []uint8{card(13, 0), card(12, 1)}, card(9, 2))
	blob := st.encode()

	mirror := NewShoe(testStream(9), bjDecks, []uint8{card(9, 2), card(13, 0), card(12, 1)})
	drawn, err := mirror.Draw()
	require.NoError(t, err)

	out, res, err := ProcessMove(Blackjack, ctx, blob, []byte(`{"action":"hit"}`), testStream(9))
	require.NoError(t, err)

	st2, err := decodeBlackjack(out)
	require.NoError(t, err)
	require.Equal(t, drawn.Byte(), st2.hands[0].cards[2])

	if rankOf(drawn.Byte()) == 1 {
		// Twenty plus an ace stands automatically at twenty-one.
		require.Equal(t, KindContinue, res.Outcome.Kind)
		require.Equal(t, bjStageReveal, st2.stage)
	} else {
		// Any other rank busts the only hand and forfeits the stake.
		require.Equal(t, KindLossPreDeducted, res.Outcome.Kind)
		require.Equal(t, uint64(100), res.Outcome.Amount)
		require.Equal(t, bjStageDone, st2.stage)
	}
}

func TestBlackjackReveal(t *testing.T) {
	ctx := Context{Stake: 100}
	st := &blackjackState{
		stage:    bjStageReveal,
		dealerUp: card(9, 2),
		hands:    []bjHand{{bet: 100, flags: bjFlagStood, cards: []uint8{card(13, 0), card(9, 1)}}},
	}
	blob := st.encode()

	// Mirror the dealer's play: hole card, then hit to hard seventeen.
	mirror := NewShoe(testStream(10), bjDecks, []uint8{card(9, 2), card(13, 0), card(9, 1)})
	hole, err := mirror.Draw()
	require.NoError(t, err)
	dealer := []uint8{card(9, 2), hole.Byte()}
	for {
		total, soft := blackjackValue(dealer)
		if total > 17 || (total == 17 && !soft) {
			break
		}
		c, err := mirror.Draw()
		require.NoError(t, err)
		dealer = append(dealer, c.Byte())
	}
	dealerTotal, _ := blackjackValue(dealer)

	_, res, err := ProcessMove(Blackjack, ctx, blob, []byte(`{"action":"reveal"}`), testStream(10))
	require.NoError(t, err)
	require.True(t, res.Outcome.Terminal())

	switch {
	case dealerTotal > 21 || dealerTotal < 19:
		require.Equal(t, KindWin, res.Outcome.Kind)
		require.Equal(t, uint64(200), res.Outcome.Amount)
	case dealerTotal == 19:
		require.Equal(t, KindPush, res.Outcome.Kind)
	default:
		require.Equal(t, KindLossPreDeducted, res.Outcome.Kind)
		require.Equal(t, uint64(100), res.Outcome.Amount)
	}
}

func TestBlackjackSideBetPaysOnTerminal(t *testing.T) {
	// All hands busted but the side bet won at the deal: the session still
	// credits the side winnings.
	st := &blackjackState{
		stage:      bjStagePlayer,
		sideBet:    10,
		sideWon:    60,
		dealerUp:   card(9, 2),
		activeHand: 0,
		hands:      []bjHand{{bet: 100, flags: bjFlagBusted, cards: []uint8{card(13, 0), card(12, 1), card(5, 3)}}},
	}
	res, err := st.advance(0)
	require.NoError(t, err)
	require.Equal(t, KindWin, res.Outcome.Kind)
	require.Equal(t, uint64(60), res.Outcome.Amount)
}

func TestThreeCardBonusMultiplier(t *testing.T) {
	require.Equal(t, uint32(100), threeCardBonusMultiplier([]uint8{card(5, 2), card(5, 2), card(5, 2)}))
	require.Equal(t, uint32(40), threeCardBonusMultiplier([]uint8{card(9, 1), card(8, 1), card(7, 1)}))
	require.Equal(t, uint32(30), threeCardBonusMultiplier([]uint8{card(5, 0), card(5, 1), card(5, 2)}))
	require.Equal(t, uint32(10), threeCardBonusMultiplier([]uint8{card(9, 0), card(8, 1), card(7, 2)}))
	require.Equal(t, uint32(5), threeCardBonusMultiplier([]uint8{card(12, 3), card(8, 3), card(2, 3)}))
	require.Equal(t, uint32(0), threeCardBonusMultiplier([]uint8{card(4, 0), card(4, 1), card(13, 2)}))
}

func TestBlackjackDecodeLegacy(t *testing.T) {
	legacy := newBlobWriter(blackjackV1).
		u8(bjStagePlayer).
		u8(card(9, 2)).
		u8(0).
		u8(1).
		u64(100).u8(0).u8(2).bytes([]uint8{card(13, 0), card(9, 1)}).
		done()
	st, err := decodeBlackjack(legacy)
	require.NoError(t, err)
	require.Equal(t, uint64(0), st.sideBet)
	require.Equal(t, uint64(0), st.sideWon)
	require.Len(t, st.hands, 1)

	st2, err := decodeBlackjack(st.encode())
	require.NoError(t, err)
	require.Equal(t, st, st2)
}

func TestBlackjackDecodeRejectsGarbage(t *testing.T) {
	_, err := decodeBlackjack([]byte{blackjackV2, 0})
	require.ErrorIs(t, err, ErrMalformedState)

	_, err = decodeBlackjack([]byte{0x09})
	require.ErrorIs(t, err, ErrMalformedState)

	tooManyHands := newBlobWriter(blackjackV2).
		u8(bjStagePlayer).u64(0).u64(0).u8(card(9, 2)).u8(0).u8(bjMaxHands + 1).done()
	_, err = decodeBlackjack(tooManyHands)
	require.ErrorIs(t, err, ErrMalformedState)
}
