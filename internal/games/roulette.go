package games

import (
	"encoding/json"

	"onchaincasino/internal/rng"
)

// Roulette: single-zero wheel, repeatable betting stage, one spin.
//
// Blob layout v2 (newest):
//   [0] version = 2
//   [1] stage (0 = betting, 1 = complete)
//   [2] spun pocket (0xFF until spun)
//   [3] bet count
//   then per bet: kind u8, number u8, amount u64be
// v1 is identical minus the pocket byte and must still decode.
const (
	rouletteV1 = 1
	rouletteV2 = 2

	rouletteStageBetting uint8 = 0
	rouletteStageDone    uint8 = 1

	rouletteMaxBets = 32
	noPocket        = 0xFF
)

type rouletteBetKind uint8

const (
	rouletteStraight rouletteBetKind = iota
	rouletteRed
	rouletteBlack
	rouletteOdd
	rouletteEven
	rouletteHigh
	rouletteLow
	rouletteDozen
	rouletteColumn
	rouletteKindEnd
)

var rouletteKindNames = map[string]rouletteBetKind{
	"straight": rouletteStraight,
	"red":      rouletteRed,
	"black":    rouletteBlack,
	"odd":      rouletteOdd,
	"even":     rouletteEven,
	"high":     rouletteHigh,
	"low":      rouletteLow,
	"dozen":    rouletteDozen,
	"column":   rouletteColumn,
}

type rouletteBet struct {
	kind   rouletteBetKind
	number uint8
	amount uint64
}

type rouletteState struct {
	stage  uint8
	pocket uint8
	bets   []rouletteBet
}

func decodeRoulette(blob []byte) (*rouletteState, error) {
	r := newBlobReader(blob)
	ver := r.u8()
	st := &rouletteState{}
	switch ver {
	case rouletteV2:
		st.stage = r.u8()
		st.pocket = r.u8()
	case rouletteV1:
		st.stage = r.u8()
		st.pocket = noPocket
	default:
		return nil, ErrMalformedState.Wrapf("roulette: unknown version %d", ver)
	}
	n := int(r.u8())
	if n > rouletteMaxBets {
		return nil, ErrMalformedState.Wrapf("roulette: %d bets exceeds cap", n)
	}
	for i := 0; i < n; i++ {
		b := rouletteBet{kind: rouletteBetKind(r.u8()), number: r.u8(), amount: r.u64()}
		if b.kind >= rouletteKindEnd {
			return nil, ErrMalformedState.Wrapf("roulette: bad bet kind %d", b.kind)
		}
		st.bets = append(st.bets, b)
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	if st.stage > rouletteStageDone {
		return nil, ErrMalformedState.Wrapf("roulette: bad stage %d", st.stage)
	}
	return st, nil
}

func (st *rouletteState) encode() []byte {
	w := newBlobWriter(rouletteV2).u8(st.stage).u8(st.pocket).u8(uint8(len(st.bets)))
	for _, b := range st.bets {
		w.u8(uint8(b.kind)).u8(b.number).u64(b.amount)
	}
	return w.done()
}

func (st *rouletteState) escrowed() uint64 {
	var sum uint64
	for _, b := range st.bets {
		sum = satAddU64(sum, b.amount)
	}
	return sum
}

func rouletteInit(_ Context, _ *rng.Stream) ([]byte, Result, error) {
	st := &rouletteState{stage: rouletteStageBetting, pocket: noPocket}
	return st.encode(), resultFor(Continue()), nil
}

type rouletteMovePayload struct {
	Action string `json:"action"`
	Kind   string `json:"kind,omitempty"`
	Number uint8  `json:"number,omitempty"`
	Amount uint64 `json:"amount,omitempty"`
}

func rouletteMove(_ Context, blob, payload []byte, s *rng.Stream) ([]byte, Result, error) {
	st, err := decodeRoulette(blob)
	if err != nil {
		return nil, Result{}, err
	}
	if st.stage != rouletteStageBetting {
		return nil, Result{}, ErrInvalidMove.Wrap("roulette: session resolved")
	}

	var mv rouletteMovePayload
	if err := json.Unmarshal(payload, &mv); err != nil {
		return nil, Result{}, ErrInvalidPayload.Wrap(err.Error())
	}

	switch mv.Action {
	case "bet":
		kind, ok := rouletteKindNames[mv.Kind]
		if !ok {
			return nil, Result{}, ErrInvalidPayload.Wrapf("roulette: unknown bet kind %q", mv.Kind)
		}
		if err := rouletteValidateNumber(kind, mv.Number); err != nil {
			return nil, Result{}, err
		}
		delta, err := st.setBet(kind, mv.Number, mv.Amount)
		if err != nil {
			return nil, Result{}, err
		}
		return st.encode(), resultFor(ContinueWithUpdate(delta)), nil

	case "spin":
		if len(st.bets) == 0 {
			return nil, Result{}, ErrInvalidMove.Wrap("roulette: no bets placed")
		}
		pocket := s.SpinWheel()
		escrowed := st.escrowed()
		var credit uint64
		for _, b := range st.bets {
			if rouletteBetWins(b, pocket) {
				credit = satAddU64(credit, satMulU64(b.amount, uint64(rouletteMultiplier(b.kind))+1))
			}
		}
		st.stage = rouletteStageDone
		st.pocket = pocket
		res := resultFor(netOutcome(escrowed, credit))
		p := pocket
		res.WinningNumber = &p
		return st.encode(), res, nil

	default:
		return nil, Result{}, ErrInvalidMove.Wrapf("roulette: action %q not accepted while betting", mv.Action)
	}
}

func (st *rouletteState) setBet(kind rouletteBetKind, number uint8, amount uint64) (int64, error) {
	if amount > MaxWager {
		return 0, ErrInvalidPayload.Wrapf("roulette: bet %d above wager cap", amount)
	}
	for i, b := range st.bets {
		if b.kind == kind && b.number == number {
			delta := int64(amount) - int64(b.amount)
			if amount == 0 {
				st.bets = append(st.bets[:i], st.bets[i+1:]...)
			} else {
				st.bets[i].amount = amount
			}
			return delta, nil
		}
	}
	if amount == 0 {
		return 0, ErrInvalidMove.Wrap("roulette: clearing a bet that was never placed")
	}
	if len(st.bets) >= rouletteMaxBets {
		return 0, ErrInvalidMove.Wrapf("roulette: bet cap %d reached", rouletteMaxBets)
	}
	st.bets = append(st.bets, rouletteBet{kind: kind, number: number, amount: amount})
	return int64(amount), nil
}

func rouletteValidateNumber(kind rouletteBetKind, number uint8) error {
	switch kind {
	case rouletteStraight:
		if number > 36 {
			return ErrInvalidPayload.Wrapf("roulette: straight number %d out of range", number)
		}
	case rouletteDozen, rouletteColumn:
		if number > 2 {
			return ErrInvalidPayload.Wrapf("roulette: dozen/column index %d out of range", number)
		}
	default:
		if number != 0 {
			return ErrInvalidPayload.Wrap("roulette: number not accepted for this bet kind")
		}
	}
	return nil
}

// redPockets is the standard single-zero red set.
var redPockets = map[uint8]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
	14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
	25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// rouletteBetWins: zero loses every bet except a straight bet on zero.
func rouletteBetWins(b rouletteBet, pocket uint8) bool {
	if pocket == 0 {
		return b.kind == rouletteStraight && b.number == 0
	}
	switch b.kind {
	case rouletteStraight:
		return b.number == pocket
	case rouletteRed:
		return redPockets[pocket]
	case rouletteBlack:
		return !redPockets[pocket]
	case rouletteOdd:
		return pocket%2 == 1
	case rouletteEven:
		return pocket%2 == 0
	case rouletteHigh:
		return pocket >= 19
	case rouletteLow:
		return pocket <= 18
	case rouletteDozen:
		return (pocket-1)/12 == b.number
	case rouletteColumn:
		return (pocket-1)%3 == b.number
	default:
		return false
	}
}

func rouletteMultiplier(kind rouletteBetKind) uint32 {
	switch kind {
	case rouletteStraight:
		return 35
	case rouletteDozen, rouletteColumn:
		return 2
	default:
		return 1
	}
}
