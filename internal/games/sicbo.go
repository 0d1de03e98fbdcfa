package games

import (
	"encoding/json"

	"onchaincasino/internal/rng"
)

// Sic bo: three dice, repeatable betting stage, one roll.
//
// Blob layout v1 (newest):
//   [0] version = 1
//   [1] stage (0 = betting, 1 = complete)
//   [2..4] dice (0 until rolled)
//   [5] bet count
//   then per bet: kind u8, number u8, amount u64be
const (
	sicboV1 = 1

	sicboStageBetting uint8 = 0
	sicboStageDone    uint8 = 1

	sicboMaxBets = 32
)

type sicboBetKind uint8

const (
	sicboSmall sicboBetKind = iota
	sicboBig
	sicboOdd
	sicboEven
	sicboSpecificTriple
	sicboAnyTriple
	sicboSpecificDouble
	sicboTotal
	sicboSingle
	sicboKindEnd
)

var sicboKindNames = map[string]sicboBetKind{
	"small":           sicboSmall,
	"big":             sicboBig,
	"odd":             sicboOdd,
	"even":            sicboEven,
	"specific_triple": sicboSpecificTriple,
	"any_triple":      sicboAnyTriple,
	"specific_double": sicboSpecificDouble,
	"total":           sicboTotal,
	"single":          sicboSingle,
}

type sicboBet struct {
	kind   sicboBetKind
	number uint8
	amount uint64
}

type sicboState struct {
	stage uint8
	dice  [3]uint8
	bets  []sicboBet
}

func decodeSicbo(blob []byte) (*sicboState, error) {
	r := newBlobReader(blob)
	if ver := r.u8(); ver != sicboV1 {
		return nil, ErrMalformedState.Wrapf("sicbo: unknown version %d", ver)
	}
	st := &sicboState{stage: r.u8()}
	st.dice[0], st.dice[1], st.dice[2] = r.u8(), r.u8(), r.u8()
	n := int(r.u8())
	if n > sicboMaxBets {
		return nil, ErrMalformedState.Wrapf("sicbo: %d bets exceeds cap", n)
	}
	for i := 0; i < n; i++ {
		b := sicboBet{kind: sicboBetKind(r.u8()), number: r.u8(), amount: r.u64()}
		if b.kind >= sicboKindEnd {
			return nil, ErrMalformedState.Wrapf("sicbo: bad bet kind %d", b.kind)
		}
		st.bets = append(st.bets, b)
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	if st.stage > sicboStageDone {
		return nil, ErrMalformedState.Wrapf("sicbo: bad stage %d", st.stage)
	}
	for _, d := range st.dice {
		if d > 6 {
			return nil, ErrMalformedState.Wrapf("sicbo: bad die %d", d)
		}
	}
	return st, nil
}

func (st *sicboState) encode() []byte {
	w := newBlobWriter(sicboV1).u8(st.stage).u8(st.dice[0]).u8(st.dice[1]).u8(st.dice[2]).u8(uint8(len(st.bets)))
	for _, b := range st.bets {
		w.u8(uint8(b.kind)).u8(b.number).u64(b.amount)
	}
	return w.done()
}

func (st *sicboState) escrowed() uint64 {
	var sum uint64
	for _, b := range st.bets {
		sum = satAddU64(sum, b.amount)
	}
	return sum
}

func sicboInit(_ Context, _ *rng.Stream) ([]byte, Result, error) {
	st := &sicboState{stage: sicboStageBetting}
	return st.encode(), resultFor(Continue()), nil
}

type sicboMovePayload struct {
	Action string `json:"action"`
	Kind   string `json:"kind,omitempty"`
	Number uint8  `json:"number,omitempty"`
	Amount uint64 `json:"amount,omitempty"`
}

func sicboMove(_ Context, blob, payload []byte, s *rng.Stream) ([]byte, Result, error) {
	st, err := decodeSicbo(blob)
	if err != nil {
		return nil, Result{}, err
	}
	if st.stage != sicboStageBetting {
		return nil, Result{}, ErrInvalidMove.Wrap("sicbo: session resolved")
	}

	var mv sicboMovePayload
	if err := json.Unmarshal(payload, &mv); err != nil {
		return nil, Result{}, ErrInvalidPayload.Wrap(err.Error())
	}

	switch mv.Action {
	case "bet":
		kind, ok := sicboKindNames[mv.Kind]
		if !ok {
			return nil, Result{}, ErrInvalidPayload.Wrapf("sicbo: unknown bet kind %q", mv.Kind)
		}
		if err := sicboValidateNumber(kind, mv.Number); err != nil {
			return nil, Result{}, err
		}
		delta, err := st.setBet(kind, mv.Number, mv.Amount)
		if err != nil {
			return nil, Result{}, err
		}
		return st.encode(), resultFor(ContinueWithUpdate(delta)), nil

	case "roll":
		if len(st.bets) == 0 {
			return nil, Result{}, ErrInvalidMove.Wrap("sicbo: no bets placed")
		}
		for i := range st.dice {
			st.dice[i] = s.RollDie()
		}
		escrowed := st.escrowed()
		var credit uint64
		for _, b := range st.bets {
			if mult, win := sicboResolve(b, st.dice); win {
				credit = satAddU64(credit, satMulU64(b.amount, uint64(mult)+1))
			}
		}
		st.stage = sicboStageDone
		res := resultFor(netOutcome(escrowed, credit))
		total := st.dice[0] + st.dice[1] + st.dice[2]
		res.WinningNumber = &total
		return st.encode(), res, nil

	default:
		return nil, Result{}, ErrInvalidMove.Wrapf("sicbo: action %q not accepted while betting", mv.Action)
	}
}

func (st *sicboState) setBet(kind sicboBetKind, number uint8, amount uint64) (int64, error) {
	if amount > MaxWager {
		return 0, ErrInvalidPayload.Wrapf("sicbo: bet %d above wager cap", amount)
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
		return 0, ErrInvalidMove.Wrap("sicbo: clearing a bet that was never placed")
	}
	if len(st.bets) >= sicboMaxBets {
		return 0, ErrInvalidMove.Wrapf("sicbo: bet cap %d reached", sicboMaxBets)
	}
	st.bets = append(st.bets, sicboBet{kind: kind, number: number, amount: amount})
	return int64(amount), nil
}

func sicboValidateNumber(kind sicboBetKind, number uint8) error {
	switch kind {
	case sicboSpecificTriple, sicboSpecificDouble, sicboSingle:
		if number < 1 || number > 6 {
			return ErrInvalidPayload.Wrapf("sicbo: die face %d out of range", number)
		}
	case sicboTotal:
		if number < 4 || number > 17 {
			return ErrInvalidPayload.Wrapf("sicbo: total %d out of range", number)
		}
	default:
		if number != 0 {
			return ErrInvalidPayload.Wrap("sicbo: number not accepted for this bet kind")
		}
	}
	return nil
}

// totalPayouts is keyed by exact total, symmetric around 10 and 11.
var totalPayouts = map[uint8]uint32{
	4: 60, 17: 60,
	5: 30, 16: 30,
	6: 17, 15: 17,
	7: 12, 14: 12,
	8: 8, 13: 8,
	9: 6, 12: 6,
	10: 6, 11: 6,
}

// sicboResolve returns the winning multiplier for a bet against the rolled
// dice, and whether it won at all.
func sicboResolve(b sicboBet, dice [3]uint8) (uint32, bool) {
	total := dice[0] + dice[1] + dice[2]
	triple := dice[0] == dice[1] && dice[1] == dice[2]
	count := func(face uint8) int {
		n := 0
		for _, d := range dice {
			if d == face {
				n++
			}
		}
		return n
	}

	switch b.kind {
	case sicboSmall:
		// Any triple kills small and big.
		return 1, !triple && total >= 4 && total <= 10
	case sicboBig:
		return 1, !triple && total >= 11 && total <= 17
	case sicboOdd:
		return 1, total%2 == 1
	case sicboEven:
		return 1, total%2 == 0
	case sicboSpecificTriple:
		return 180, triple && dice[0] == b.number
	case sicboAnyTriple:
		return 30, triple
	case sicboSpecificDouble:
		return 10, count(b.number) >= 2
	case sicboTotal:
		return totalPayouts[b.number], total == b.number
	case sicboSingle:
		n := count(b.number)
		return uint32(n), n > 0
	default:
		return 0, false
	}
}
