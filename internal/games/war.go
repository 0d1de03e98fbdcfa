package games

import (
	"encoding/json"

	"onchaincasino/internal/rng"
)

// Casino war: ante escrowed at session start, optional tie side bet, six
// deck shoe. A tie on the initial deal offers war or surrender; the war
// redraw burns three cards first.
//
// Blob layout v2 (newest):
//   [0] version = 2
//   [1] stage (0 = betting, 1 = war, 2 = complete)
//   [2] player card (0xFF = not dealt)
//   [3] dealer card
//   [4] war player card
//   [5] war dealer card
//   [6..13] tie bet u64be
// v1 is the legacy three-field layout: stage and the two initial cards,
// no tie bet and no war slots. Old sessions decode with a zero tie bet.
const (
	warV1 = 1
	warV2 = 2

	warStageBetting uint8 = 0
	warStageWar     uint8 = 1
	warStageDone    uint8 = 2

	warDecks = 6
)

type warState struct {
	stage      uint8
	playerCard uint8
	dealerCard uint8
	warPlayer  uint8
	warDealer  uint8
	tieBet     uint64
}

func decodeWar(blob []byte) (*warState, error) {
	r := newBlobReader(blob)
	ver := r.u8()
	st := &warState{}
	switch ver {
	case warV2:
		st.stage = r.u8()
		st.playerCard = r.u8()
		st.dealerCard = r.u8()
		st.warPlayer = r.u8()
		st.warDealer = r.u8()
		st.tieBet = r.u64()
	case warV1:
		st.stage = r.u8()
		st.playerCard = r.u8()
		st.dealerCard = r.u8()
		st.warPlayer = unknownCard
		st.warDealer = unknownCard
	default:
		return nil, ErrMalformedState.Wrapf("war: unknown version %d", ver)
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	if st.stage > warStageDone {
		return nil, ErrMalformedState.Wrapf("war: bad stage %d", st.stage)
	}
	for _, c := range []uint8{st.playerCard, st.dealerCard, st.warPlayer, st.warDealer} {
		if c != unknownCard && c > 51 {
			return nil, ErrMalformedState.Wrapf("war: bad card %d", c)
		}
	}
	return st, nil
}

func (st *warState) encode() []byte {
	return newBlobWriter(warV2).
		u8(st.stage).
		u8(st.playerCard).
		u8(st.dealerCard).
		u8(st.warPlayer).
		u8(st.warDealer).
		u64(st.tieBet).
		done()
}

func warInit(_ Context, _ *rng.Stream) ([]byte, Result, error) {
	st := &warState{
		stage:      warStageBetting,
		playerCard: unknownCard,
		dealerCard: unknownCard,
		warPlayer:  unknownCard,
		warDealer:  unknownCard,
	}
	return st.encode(), resultFor(Continue()), nil
}

type warMovePayload struct {
	Action string `json:"action"`
	Amount uint64 `json:"amount,omitempty"`
}

func warMove(ctx Context, blob, payload []byte, s *rng.Stream) ([]byte, Result, error) {
	st, err := decodeWar(blob)
	if err != nil {
		return nil, Result{}, err
	}

	var mv warMovePayload
	if err := json.Unmarshal(payload, &mv); err != nil {
		return nil, Result{}, ErrInvalidPayload.Wrap(err.Error())
	}

	switch st.stage {
	case warStageBetting:
		switch mv.Action {
		case "side_bet":
			if mv.Amount > MaxWager {
				return nil, Result{}, ErrInvalidPayload.Wrapf("war: tie bet %d above wager cap", mv.Amount)
			}
			delta := int64(mv.Amount) - int64(st.tieBet)
			st.tieBet = mv.Amount
			return st.encode(), resultFor(ContinueWithUpdate(delta)), nil
		case "deal":
			res, err := st.deal(ctx, s)
			if err != nil {
				return nil, Result{}, err
			}
			return st.encode(), res, nil
		default:
			return nil, Result{}, ErrInvalidMove.Wrapf("war: action %q not accepted while betting", mv.Action)
		}

	case warStageWar:
		switch mv.Action {
		case "war":
			res, err := st.goToWar(ctx, s)
			if err != nil {
				return nil, Result{}, err
			}
			return st.encode(), res, nil
		case "surrender":
			// Surrender refunds half the original ante; the rest stays with
			// the house.
			st.stage = warStageDone
			return st.encode(), resultFor(Win(ctx.Stake / 2)), nil
		default:
			return nil, Result{}, ErrInvalidMove.Wrapf("war: action %q not accepted at war decision", mv.Action)
		}

	default:
		return nil, Result{}, ErrInvalidMove.Wrap("war: session resolved")
	}
}

// warRank compares ace high.
func warRank(c uint8) uint8 {
	return aceHighRank(c)
}

func (st *warState) deal(ctx Context, s *rng.Stream) (Result, error) {
	shoe := NewShoe(s, warDecks, nil)
	p, err := shoe.Draw()
	if err != nil {
		return Result{}, ErrShoeExhausted.Wrap("war")
	}
	d, err := shoe.Draw()
	if err != nil {
		return Result{}, ErrShoeExhausted.Wrap("war")
	}
	st.playerCard = p.Byte()
	st.dealerCard = d.Byte()

	pr, dr := warRank(st.playerCard), warRank(st.dealerCard)
	switch {
	case pr == dr:
		// Tie side bet settles right now, independent of the war outcome.
		st.stage = warStageWar
		if st.tieBet > 0 {
			return resultFor(ContinueWithUpdate(-int64(satMulU64(st.tieBet, 11)))), nil
		}
		return resultFor(Continue()), nil
	case pr > dr:
		st.stage = warStageDone
		res := resultFor(Win(satMulU64(ctx.Stake, 2)))
		res.WinningCards = []uint8{st.playerCard}
		return res, nil
	default:
		st.stage = warStageDone
		return resultFor(Loss()), nil
	}
}

// goToWar commits a war stake equal to the ante. The stake was never
// escrowed, so both terminal outcomes carry it as the extra deduction.
func (st *warState) goToWar(ctx Context, s *rng.Stream) (Result, error) {
	revealed := []uint8{st.playerCard, st.dealerCard}
	shoe := NewShoe(s, warDecks, revealed)

	// Burn three before the redraw.
	for i := 0; i < 3; i++ {
		if _, err := shoe.Draw(); err != nil {
			return Result{}, ErrShoeExhausted.Wrap("war")
		}
	}
	p, err := shoe.Draw()
	if err != nil {
		return Result{}, ErrShoeExhausted.Wrap("war")
	}
	d, err := shoe.Draw()
	if err != nil {
		return Result{}, ErrShoeExhausted.Wrap("war")
	}
	st.warPlayer = p.Byte()
	st.warDealer = d.Byte()
	st.stage = warStageDone

	ante := ctx.Stake
	pr, dr := warRank(st.warPlayer), warRank(st.warDealer)
	switch {
	case pr == dr:
		// Winning a war on a second tie pays a bonus of one ante on top of
		// the doubled stake.
		res := resultFor(WinWithExtraDeduction(satMulU64(ante, 3), ante))
		res.WinningCards = []uint8{st.warPlayer}
		return res, nil
	case pr > dr:
		res := resultFor(WinWithExtraDeduction(satMulU64(ante, 2), ante))
		res.WinningCards = []uint8{st.warPlayer}
		return res, nil
	default:
		// Losing a war forfeits both the ante and the war stake.
		return resultFor(LossWithExtraDeduction(ante)), nil
	}
}
