package games

import (
	"encoding/json"

	"onchaincasino/internal/rng"
)

// Ultimate hold'em: ante and an equal blind up front, optional trips,
// six-card bonus and unit progressive side bets, then one chance to raise
// at 4x/3x preflop, 2x on the flop, or 1x at the river. Checking past the
// river is a fold decision. Community cards are drawn progressively as
// streets are reached and the dealer's hole cards only at showdown, so
// committed state never hides cards. The progressive is keyed off the
// player's hole cards plus the flop alone; the six-card bonus reads the
// best five of the hole cards plus the first four community cards. Both
// resolve even on a fold, which always happens with a complete board.
//
// Blob layout v2:
//   [0] version = 2
//   [1] stage (0 betting, 1 preflop, 2 flop, 3 river, 4 complete)
//   [2..9]   trips bet u64be
//   [10..17] six-card bonus bet u64be
//   [18..25] progressive bet u64be (0 or the fixed unit)
//   [26..27] player hole cards (0xFF until dealt)
//   [28..32] community cards (0xFF until dealt)
// v1 lacks the six-card and progressive fields; decode only.
const (
	holdemV1 = 1
	holdemV2 = 2

	uthStageBetting uint8 = 0
	uthStagePreflop uint8 = 1
	uthStageFlop    uint8 = 2
	uthStageRiver   uint8 = 3
	uthStageDone    uint8 = 4
)

type holdemState struct {
	stage     uint8
	trips     uint64
	sixCard   uint64
	prog      uint64
	hole      [2]uint8
	community [5]uint8
}

func decodeHoldem(blob []byte) (*holdemState, error) {
	r := newBlobReader(blob)
	ver := r.u8()
	if ver != holdemV1 && ver != holdemV2 {
		return nil, ErrMalformedState.Wrapf("holdem: unknown version %d", ver)
	}
	st := &holdemState{}
	st.stage = r.u8()
	st.trips = r.u64()
	if ver == holdemV2 {
		st.sixCard = r.u64()
		st.prog = r.u64()
	}
	st.hole[0] = r.u8()
	st.hole[1] = r.u8()
	for i := range st.community {
		st.community[i] = r.u8()
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	if st.stage > uthStageDone {
		return nil, ErrMalformedState.Wrapf("holdem: bad stage %d", st.stage)
	}
	for _, c := range append(st.hole[:], st.community[:]...) {
		if c != unknownCard && c > 51 {
			return nil, ErrMalformedState.Wrapf("holdem: bad card %d", c)
		}
	}
	return st, nil
}

func (st *holdemState) encode() []byte {
	w := newBlobWriter(holdemV2).
		u8(st.stage).
		u64(st.trips).
		u64(st.sixCard).
		u64(st.prog).
		u8(st.hole[0]).u8(st.hole[1])
	for _, c := range st.community {
		w.u8(c)
	}
	return w.done()
}

func (st *holdemState) revealedCards() []uint8 {
	out := []uint8{}
	for _, c := range st.hole {
		if c != unknownCard {
			out = append(out, c)
		}
	}
	for _, c := range st.community {
		if c != unknownCard {
			out = append(out, c)
		}
	}
	return out
}

// escrowed is everything charged so far: ante, blind and each side bet.
func (st *holdemState) escrowed(ante uint64) uint64 {
	return satAddU64(satMulU64(ante, 2), satAddU64(st.trips, satAddU64(st.sixCard, st.prog)))
}

// holdemInit escrows the blind alongside the ante the ledger already took.
func holdemInit(ctx Context, _ *rng.Stream) ([]byte, Result, error) {
	st := &holdemState{
		stage:     uthStageBetting,
		hole:      [2]uint8{unknownCard, unknownCard},
		community: [5]uint8{unknownCard, unknownCard, unknownCard, unknownCard, unknownCard},
	}
	return st.encode(), resultFor(ContinueWithUpdate(int64(ctx.Stake))), nil
}

type holdemMovePayload struct {
	Action  string `json:"action"`
	Amount  uint64 `json:"amount,omitempty"`
	Enabled bool   `json:"enabled,omitempty"`
}

func holdemMove(ctx Context, blob, payload []byte, s *rng.Stream) ([]byte, Result, error) {
	st, err := decodeHoldem(blob)
	if err != nil {
		return nil, Result{}, err
	}
	var mv holdemMovePayload
	if err := json.Unmarshal(payload, &mv); err != nil {
		return nil, Result{}, ErrInvalidPayload.Wrap(err.Error())
	}

	switch st.stage {
	case uthStageBetting:
		switch mv.Action {
		case "trips":
			if mv.Amount > MaxWager {
				return nil, Result{}, ErrInvalidPayload.Wrapf("holdem: trips bet %d above wager cap", mv.Amount)
			}
			delta := int64(mv.Amount) - int64(st.trips)
			st.trips = mv.Amount
			return st.encode(), resultFor(ContinueWithUpdate(delta)), nil
		case "six_card":
			if mv.Amount > MaxWager {
				return nil, Result{}, ErrInvalidPayload.Wrapf("holdem: six card bonus %d above wager cap", mv.Amount)
			}
			delta := int64(mv.Amount) - int64(st.sixCard)
			st.sixCard = mv.Amount
			return st.encode(), resultFor(ContinueWithUpdate(delta)), nil
		case "progressive":
			want := uint64(0)
			if mv.Enabled {
				want = progressiveUnit
			}
			delta := int64(want) - int64(st.prog)
			st.prog = want
			return st.encode(), resultFor(ContinueWithUpdate(delta)), nil
		case "deal":
			shoe := NewShoe(s, 1, nil)
			for i := range st.hole {
				c, err := shoe.Draw()
				if err != nil {
					return nil, Result{}, ErrShoeExhausted.Wrap("holdem")
				}
				st.hole[i] = c.Byte()
			}
			st.stage = uthStagePreflop
			return st.encode(), resultFor(Continue()), nil
		default:
			return nil, Result{}, ErrInvalidMove.Wrapf("holdem: action %q not accepted while betting", mv.Action)
		}

	case uthStagePreflop:
		switch mv.Action {
		case "raise":
			if mv.Amount != 3 && mv.Amount != 4 {
				return nil, Result{}, ErrInvalidPayload.Wrap("holdem: preflop raise is 3x or 4x")
			}
			res, err := st.showdown(ctx, s, mv.Amount)
			if err != nil {
				return nil, Result{}, err
			}
			return st.encode(), res, nil
		case "check":
			if err := st.drawCommunity(s, 0, 3); err != nil {
				return nil, Result{}, err
			}
			st.stage = uthStageFlop
			return st.encode(), resultFor(Continue()), nil
		default:
			return nil, Result{}, ErrInvalidMove.Wrapf("holdem: action %q not accepted preflop", mv.Action)
		}

	case uthStageFlop:
		switch mv.Action {
		case "raise":
			if mv.Amount != 2 {
				return nil, Result{}, ErrInvalidPayload.Wrap("holdem: flop raise is 2x")
			}
			res, err := st.showdown(ctx, s, 2)
			if err != nil {
				return nil, Result{}, err
			}
			return st.encode(), res, nil
		case "check":
			if err := st.drawCommunity(s, 3, 2); err != nil {
				return nil, Result{}, err
			}
			st.stage = uthStageRiver
			return st.encode(), resultFor(Continue()), nil
		default:
			return nil, Result{}, ErrInvalidMove.Wrapf("holdem: action %q not accepted on the flop", mv.Action)
		}

	case uthStageRiver:
		switch mv.Action {
		case "raise":
			if mv.Amount != 1 {
				return nil, Result{}, ErrInvalidPayload.Wrap("holdem: river raise is 1x")
			}
			res, err := st.showdown(ctx, s, 1)
			if err != nil {
				return nil, Result{}, err
			}
			return st.encode(), res, nil
		case "fold":
			res := st.fold(ctx)
			return st.encode(), res, nil
		default:
			return nil, Result{}, ErrInvalidMove.Wrapf("holdem: action %q not accepted at the river", mv.Action)
		}

	default:
		return nil, Result{}, ErrInvalidMove.Wrap("holdem: session resolved")
	}
}

func (st *holdemState) drawCommunity(s *rng.Stream, offset, n int) error {
	shoe := NewShoe(s, 1, st.revealedCards())
	for i := 0; i < n; i++ {
		c, err := shoe.Draw()
		if err != nil {
			return ErrShoeExhausted.Wrap("holdem")
		}
		st.community[offset+i] = c.Byte()
	}
	return nil
}

// sixCardWin settles the six-card bonus against hole cards plus the first
// four community cards.
func (st *holdemState) sixCardWin() uint64 {
	if st.sixCard == 0 {
		return 0
	}
	six := make([]uint8, 0, 6)
	six = append(six, st.hole[:]...)
	six = append(six, st.community[:4]...)
	cat, _ := bestFive(six)
	if m := sixCardBonusMultiplier(cat); m > 0 {
		return satMulU64(st.sixCard, uint64(m)+1)
	}
	return 0
}

// progressiveHit annotates a hole-plus-flop royal or straight flush when
// the progressive bet rides.
func (st *holdemState) progressiveHit(res *Result) {
	if st.prog == 0 {
		return
	}
	res.ProgressiveStake = st.prog
	five := make([]uint8, 0, 5)
	five = append(five, st.hole[:]...)
	five = append(five, st.community[:3]...)
	switch cat, _ := evalFive(five); cat {
	case catRoyalFlush:
		res.Progressive = ProgressiveMajor
	case catStraightFlush:
		res.Progressive = ProgressiveMinor
	}
}

// fold forfeits ante, blind and trips but still settles the six-card bonus
// and the progressive, both decided by cards already on the table.
func (st *holdemState) fold(ctx Context) Result {
	st.stage = uthStageDone
	res := Result{}
	st.progressiveHit(&res)
	credit := st.sixCardWin()
	res.Outcome = netOutcome(st.escrowed(ctx.Stake), credit)
	if credit > 0 {
		res.WinningCards = append(st.hole[:], st.community[:4]...)
	}
	return res
}

// showdown commits the play bet (never escrowed, so it rides as the extra
// deduction), completes the board, and reveals the dealer.
func (st *holdemState) showdown(ctx Context, s *rng.Stream, mult uint64) (Result, error) {
	ante := ctx.Stake
	play := satMulU64(ante, mult)
	if play > MaxWager {
		return Result{}, ErrInvalidPayload.Wrap("holdem: play bet above wager cap")
	}

	shoe := NewShoe(s, 1, st.revealedCards())
	for i, c := range st.community {
		if c != unknownCard {
			continue
		}
		d, err := shoe.Draw()
		if err != nil {
			return Result{}, ErrShoeExhausted.Wrap("holdem")
		}
		st.community[i] = d.Byte()
	}
	dealer := make([]uint8, 2)
	for i := range dealer {
		c, err := shoe.Draw()
		if err != nil {
			return Result{}, ErrShoeExhausted.Wrap("holdem")
		}
		dealer[i] = c.Byte()
	}
	st.stage = uthStageDone

	playerCat, playerKey := bestFive(append(st.hole[:], st.community[:]...))
	dealerCat, dealerKey := bestFive(append(dealer, st.community[:]...))
	qualifies := dealerCat >= catPair

	escrowed := st.escrowed(ante)

	var tripsWin uint64
	if st.trips > 0 {
		if m := tripsMultiplier(playerCat); m > 0 {
			tripsWin = satMulU64(st.trips, uint64(m)+1)
		}
	}
	sideWin := satAddU64(tripsWin, st.sixCardWin())

	res := Result{}
	st.progressiveHit(&res)

	switch {
	case playerKey > dealerKey:
		// Play pays even money. Ante pays even money only against a
		// qualified dealer, otherwise it pushes. Blind pays odds on a
		// straight or better and pushes below.
		credit := satMulU64(play, 2)
		if qualifies {
			credit = satAddU64(credit, satMulU64(ante, 2))
		} else {
			credit = satAddU64(credit, ante)
		}
		credit = satAddU64(credit, satAddU64(ante, blindProfit(playerCat, ante)))
		credit = satAddU64(credit, sideWin)
		res.Outcome = WinWithExtraDeduction(credit, play)
		res.WinningCards = append(st.hole[:], st.community[:]...)
	case playerKey == dealerKey:
		credit := satAddU64(satMulU64(ante, 2), sideWin)
		res.Outcome = netOutcome(escrowed, credit)
	default:
		res.WinningCards = append(dealer, st.community[:]...)
		// The ante pushes against a non-qualifying dealer even when the
		// dealer's hand wins; the blind and play still lose.
		credit := sideWin
		if !qualifies {
			credit = satAddU64(credit, ante)
		}
		if credit > 0 {
			res.Outcome = WinWithExtraDeduction(credit, play)
		} else {
			res.Outcome = LossPreDeductedWithExtraDeduction(escrowed, play)
		}
	}
	return res, nil
}

// blindProfit is the blind paytable, in profit on the blind stake.
func blindProfit(cat handCategory, blind uint64) uint64 {
	switch cat {
	case catRoyalFlush:
		return satMulU64(blind, 500)
	case catStraightFlush:
		return satMulU64(blind, 50)
	case catQuads:
		return satMulU64(blind, 10)
	case catFullHouse:
		return satMulU64(blind, 3)
	case catFlush:
		return satMulU64(blind, 3) / 2
	case catStraight:
		return blind
	default:
		return 0
	}
}

// tripsMultiplier is the trips paytable, profit multiples.
func tripsMultiplier(cat handCategory) uint32 {
	switch cat {
	case catRoyalFlush:
		return 50
	case catStraightFlush:
		return 40
	case catQuads:
		return 30
	case catFullHouse:
		return 8
	case catFlush:
		return 7
	case catStraight:
		return 4
	case catTrips:
		return 3
	default:
		return 0
	}
}

// sixCardBonusMultiplier is the six-card bonus paytable, profit multiples
// on trips or better. Shared with three-card poker's six-card side bet.
func sixCardBonusMultiplier(cat handCategory) uint32 {
	switch cat {
	case catRoyalFlush:
		return 1000
	case catStraightFlush:
		return 200
	case catQuads:
		return 50
	case catFullHouse:
		return 25
	case catFlush:
		return 15
	case catStraight:
		return 10
	case catTrips:
		return 5
	default:
		return 0
	}
}
