package games

import (
	"encoding/json"

	"onchaincasino/internal/rng"
)

// Blackjack: six-deck shoe, up to four hands via splitting, dealer hits
// soft 17, naturals pay 3:2 against a non-natural dealer. The hole card is
// drawn only at reveal (or at an immediate natural resolution) so committed
// state never leaks dealer information.
//
// Blob layout v2 (newest):
//   [0] version = 2
//   [1] stage (0 betting, 1 player turn, 2 awaiting reveal, 3 complete)
//   [2..9]  side bet u64be
//   [10..17] side bet winnings u64be (settled at deal, paid at terminal)
//   [18] dealer upcard (0xFF until dealt)
//   [19] active hand index
//   [20] hand count
//   per hand: bet u64be, flags u8, card count u8, cards
// v1 is the original layout without the two side-bet fields.
const (
	blackjackV1 = 1
	blackjackV2 = 2

	bjStageBetting uint8 = 0
	bjStagePlayer  uint8 = 1
	bjStageReveal  uint8 = 2
	bjStageDone    uint8 = 3

	bjDecks    = 6
	bjMaxHands = 4
	bjMaxCards = 12

	bjFlagStood   uint8 = 1 << 0
	bjFlagDoubled uint8 = 1 << 1
	bjFlagBusted  uint8 = 1 << 2
	bjFlagSplit   uint8 = 1 << 3
)

type bjHand struct {
	bet   uint64
	flags uint8
	cards []uint8
}

func (h *bjHand) done() bool {
	return h.flags&(bjFlagStood|bjFlagBusted) != 0
}

type blackjackState struct {
	stage      uint8
	sideBet    uint64
	sideWon    uint64
	dealerUp   uint8
	activeHand uint8
	hands      []bjHand
}

func decodeBlackjack(blob []byte) (*blackjackState, error) {
	r := newBlobReader(blob)
	ver := r.u8()
	st := &blackjackState{}
	switch ver {
	case blackjackV2:
		st.stage = r.u8()
		st.sideBet = r.u64()
		st.sideWon = r.u64()
	case blackjackV1:
		st.stage = r.u8()
	default:
		return nil, ErrMalformedState.Wrapf("blackjack: unknown version %d", ver)
	}
	st.dealerUp = r.u8()
	st.activeHand = r.u8()
	n := int(r.u8())
	if n > bjMaxHands {
		return nil, ErrMalformedState.Wrapf("blackjack: %d hands exceeds cap", n)
	}
	for i := 0; i < n; i++ {
		h := bjHand{bet: r.u64(), flags: r.u8()}
		cn := int(r.u8())
		if cn > bjMaxCards {
			return nil, ErrMalformedState.Wrapf("blackjack: %d cards exceeds cap", cn)
		}
		h.cards = append(h.cards, r.take(cn)...)
		st.hands = append(st.hands, h)
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	if st.stage > bjStageDone {
		return nil, ErrMalformedState.Wrapf("blackjack: bad stage %d", st.stage)
	}
	for _, h := range st.hands {
		for _, c := range h.cards {
			if c > 51 {
				return nil, ErrMalformedState.Wrapf("blackjack: bad card %d", c)
			}
		}
	}
	return st, nil
}

func (st *blackjackState) encode() []byte {
	w := newBlobWriter(blackjackV2).
		u8(st.stage).
		u64(st.sideBet).
		u64(st.sideWon).
		u8(st.dealerUp).
		u8(st.activeHand).
		u8(uint8(len(st.hands)))
	for _, h := range st.hands {
		w.u64(h.bet).u8(h.flags).u8(uint8(len(h.cards))).bytes(h.cards)
	}
	return w.done()
}

// escrowed is everything the player has put in: the hand bets (doubles and
// splits included, they were charged when made) plus the side bet.
func (st *blackjackState) escrowed() uint64 {
	sum := st.sideBet
	for _, h := range st.hands {
		sum = satAddU64(sum, h.bet)
	}
	return sum
}

func (st *blackjackState) revealedCards() []uint8 {
	out := []uint8{}
	if st.dealerUp != unknownCard {
		out = append(out, st.dealerUp)
	}
	for _, h := range st.hands {
		out = append(out, h.cards...)
	}
	return out
}

func blackjackInit(_ Context, _ *rng.Stream) ([]byte, Result, error) {
	st := &blackjackState{stage: bjStageBetting, dealerUp: unknownCard}
	return st.encode(), resultFor(Continue()), nil
}

type blackjackMovePayload struct {
	Action string `json:"action"`
	Amount uint64 `json:"amount,omitempty"`
}

func blackjackMove(ctx Context, blob, payload []byte, s *rng.Stream) ([]byte, Result, error) {
	st, err := decodeBlackjack(blob)
	if err != nil {
		return nil, Result{}, err
	}
	var mv blackjackMovePayload
	if err := json.Unmarshal(payload, &mv); err != nil {
		return nil, Result{}, ErrInvalidPayload.Wrap(err.Error())
	}

	switch st.stage {
	case bjStageBetting:
		switch mv.Action {
		case "side_bet":
			if mv.Amount > MaxWager {
				return nil, Result{}, ErrInvalidPayload.Wrapf("blackjack: side bet %d above wager cap", mv.Amount)
			}
			delta := int64(mv.Amount) - int64(st.sideBet)
			st.sideBet = mv.Amount
			return st.encode(), resultFor(ContinueWithUpdate(delta)), nil
		case "deal":
			res, err := st.deal(ctx, s)
			if err != nil {
				return nil, Result{}, err
			}
			return st.encode(), res, nil
		default:
			return nil, Result{}, ErrInvalidMove.Wrapf("blackjack: action %q not accepted while betting", mv.Action)
		}

	case bjStagePlayer:
		res, err := st.playerAction(mv.Action, s)
		if err != nil {
			return nil, Result{}, err
		}
		return st.encode(), res, nil

	case bjStageReveal:
		if mv.Action != "reveal" {
			return nil, Result{}, ErrInvalidMove.Wrapf("blackjack: action %q not accepted awaiting reveal", mv.Action)
		}
		res, err := st.reveal(s)
		if err != nil {
			return nil, Result{}, err
		}
		return st.encode(), res, nil

	default:
		return nil, Result{}, ErrInvalidMove.Wrap("blackjack: session resolved")
	}
}

func (st *blackjackState) deal(ctx Context, s *rng.Stream) (Result, error) {
	shoe := NewShoe(s, bjDecks, nil)
	c1, err := shoe.Draw()
	if err != nil {
		return Result{}, ErrShoeExhausted.Wrap("blackjack")
	}
	c2, err := shoe.Draw()
	if err != nil {
		return Result{}, ErrShoeExhausted.Wrap("blackjack")
	}
	up, err := shoe.Draw()
	if err != nil {
		return Result{}, ErrShoeExhausted.Wrap("blackjack")
	}
	st.hands = []bjHand{{bet: ctx.Stake, cards: []uint8{c1.Byte(), c2.Byte()}}}
	st.dealerUp = up.Byte()

	// The three-card side bet is priced off the player's two cards and the
	// dealer upcard, decided now and paid with the terminal outcome.
	if st.sideBet > 0 {
		if mult := threeCardBonusMultiplier([]uint8{c1.Byte(), c2.Byte(), up.Byte()}); mult > 0 {
			st.sideWon = satMulU64(st.sideBet, uint64(mult)+1)
		}
	}

	total, _ := blackjackValue(st.hands[0].cards)
	if total == 21 {
		// Natural: resolve immediately; the dealer only checks for a
		// matching natural.
		hole, err := shoe.Draw()
		if err != nil {
			return Result{}, ErrShoeExhausted.Wrap("blackjack")
		}
		dealerTotal, _ := blackjackValue([]uint8{st.dealerUp, hole.Byte()})
		st.stage = bjStageDone
		var credit uint64
		if dealerTotal == 21 {
			credit = st.hands[0].bet // both natural: push
		} else {
			credit = satAddU64(st.hands[0].bet, satMulU64(st.hands[0].bet, 3)/2)
		}
		credit = satAddU64(credit, st.sideWon)
		res := resultFor(netOutcome(st.escrowed(), credit))
		res.WinningCards = append([]uint8(nil), st.hands[0].cards...)
		return res, nil
	}

	st.stage = bjStagePlayer
	return resultFor(Continue()), nil
}

func (st *blackjackState) playerAction(action string, s *rng.Stream) (Result, error) {
	if int(st.activeHand) >= len(st.hands) {
		return Result{}, ErrMalformedState.Wrap("blackjack: active hand out of range")
	}
	h := &st.hands[st.activeHand]

	switch action {
	case "hit":
		shoe := NewShoe(s, bjDecks, st.revealedCards())
		c, err := shoe.Draw()
		if err != nil {
			return Result{}, ErrShoeExhausted.Wrap("blackjack")
		}
		if len(h.cards) >= bjMaxCards {
			return Result{}, ErrInvalidMove.Wrap("blackjack: hand card cap reached")
		}
		h.cards = append(h.cards, c.Byte())
		total, _ := blackjackValue(h.cards)
		switch {
		case total > 21:
			h.flags |= bjFlagBusted
		case total == 21:
			h.flags |= bjFlagStood
		default:
			return resultFor(Continue()), nil
		}
		return st.advance(0)

	case "stand":
		h.flags |= bjFlagStood
		return st.advance(0)

	case "double":
		if len(h.cards) != 2 || h.flags&bjFlagDoubled != 0 {
			return Result{}, ErrInvalidMove.Wrap("blackjack: double only on a fresh two-card hand")
		}
		extra := h.bet
		shoe := NewShoe(s, bjDecks, st.revealedCards())
		c, err := shoe.Draw()
		if err != nil {
			return Result{}, ErrShoeExhausted.Wrap("blackjack")
		}
		h.cards = append(h.cards, c.Byte())
		h.bet = satAddU64(h.bet, extra)
		h.flags |= bjFlagDoubled
		if total, _ := blackjackValue(h.cards); total > 21 {
			h.flags |= bjFlagBusted
		} else {
			h.flags |= bjFlagStood
		}
		return st.advance(extra)

	case "split":
		if len(st.hands) >= bjMaxHands {
			return Result{}, ErrInvalidMove.Wrapf("blackjack: split cap %d reached", bjMaxHands)
		}
		if len(h.cards) != 2 || rankOf(h.cards[0]) != rankOf(h.cards[1]) {
			return Result{}, ErrInvalidMove.Wrap("blackjack: split requires a two-card pair")
		}
		extra := h.bet
		moved := h.cards[1]
		h.cards = h.cards[:1]
		h.flags |= bjFlagSplit
		split := bjHand{bet: extra, flags: bjFlagSplit, cards: []uint8{moved}}

		// The moved card is revealed but not yet in any stored hand.
		shoe := NewShoe(s, bjDecks, append(st.revealedCards(), moved))
		c1, err := shoe.Draw()
		if err != nil {
			return Result{}, ErrShoeExhausted.Wrap("blackjack")
		}
		c2, err := shoe.Draw()
		if err != nil {
			return Result{}, ErrShoeExhausted.Wrap("blackjack")
		}
		h.cards = append(h.cards, c1.Byte())
		split.cards = append(split.cards, c2.Byte())

		// Insert the split hand right after the active one.
		idx := int(st.activeHand) + 1
		st.hands = append(st.hands, bjHand{})
		copy(st.hands[idx+1:], st.hands[idx:])
		st.hands[idx] = split
		return resultFor(ContinueWithUpdate(int64(extra))), nil

	default:
		return Result{}, ErrInvalidMove.Wrapf("blackjack: action %q not accepted in player turn", action)
	}
}

// advance moves to the next playable hand or on to reveal. A pending
// uncharged increase (a double) rides along on the outcome.
func (st *blackjackState) advance(pendingExtra uint64) (Result, error) {
	for i := int(st.activeHand) + 1; i < len(st.hands); i++ {
		if !st.hands[i].done() {
			st.activeHand = uint8(i)
			if pendingExtra > 0 {
				return resultFor(ContinueWithUpdate(int64(pendingExtra))), nil
			}
			return resultFor(Continue()), nil
		}
	}
	allBusted := true
	for _, h := range st.hands {
		if h.flags&bjFlagBusted == 0 {
			allBusted = false
			break
		}
	}
	if allBusted {
		st.stage = bjStageDone
		escrowed := st.escrowed()
		if pendingExtra > 0 {
			// The double was committed but never charged; escrowed already
			// counts the raised bet, so the uncharged half comes back out.
			if st.sideWon > 0 {
				return resultFor(WinWithExtraDeduction(st.sideWon, pendingExtra)), nil
			}
			return resultFor(LossPreDeductedWithExtraDeduction(escrowed-pendingExtra, pendingExtra)), nil
		}
		if st.sideWon > 0 {
			return resultFor(Win(st.sideWon)), nil
		}
		return resultFor(LossPreDeducted(escrowed)), nil
	}
	st.stage = bjStageReveal
	if pendingExtra > 0 {
		return resultFor(ContinueWithUpdate(int64(pendingExtra))), nil
	}
	return resultFor(Continue()), nil
}

func (st *blackjackState) reveal(s *rng.Stream) (Result, error) {
	shoe := NewShoe(s, bjDecks, st.revealedCards())
	hole, err := shoe.Draw()
	if err != nil {
		return Result{}, ErrShoeExhausted.Wrap("blackjack")
	}
	dealer := []uint8{st.dealerUp, hole.Byte()}
	for {
		total, soft := blackjackValue(dealer)
		if total > 17 || (total == 17 && !soft) {
			break
		}
		c, err := shoe.Draw()
		if err != nil {
			return Result{}, ErrShoeExhausted.Wrap("blackjack")
		}
		dealer = append(dealer, c.Byte())
	}
	dealerTotal, _ := blackjackValue(dealer)
	dealerBust := dealerTotal > 21

	var credit uint64
	winning := []uint8{}
	for _, h := range st.hands {
		if h.flags&bjFlagBusted != 0 {
			continue
		}
		total, _ := blackjackValue(h.cards)
		switch {
		case dealerBust || total > dealerTotal:
			credit = satAddU64(credit, satMulU64(h.bet, 2))
			winning = append(winning, h.cards...)
		case total == dealerTotal:
			credit = satAddU64(credit, h.bet)
		}
	}
	credit = satAddU64(credit, st.sideWon)

	st.stage = bjStageDone
	res := resultFor(netOutcome(st.escrowed(), credit))
	res.WinningCards = winning
	return res, nil
}

// threeCardBonusMultiplier prices the 21+3 style side bet over the
// player's two cards and the dealer upcard.
func threeCardBonusMultiplier(cards []uint8) uint32 {
	cat, _ := evalThreeCard(cards)
	suited := suitOf(cards[0]) == suitOf(cards[1]) && suitOf(cards[1]) == suitOf(cards[2])
	switch {
	case cat == tcTrips && suited:
		return 100
	case cat == tcStraightFlush:
		return 40
	case cat == tcTrips:
		return 30
	case cat == tcStraight:
		return 10
	case cat == tcFlush:
		return 5
	default:
		return 0
	}
}
