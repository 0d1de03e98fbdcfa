package games

import (
	"encoding/json"

	"onchaincasino/internal/rng"
)

// Three-card poker: ante up front, optional pair-plus, six-card bonus and
// unit progressive side bets, then a play-or-fold decision against a
// dealer hand that must make queen-six-four to qualify. The dealer's
// cards are drawn only at resolution so committed state never holds a
// hidden hand; folding still resolves the independent side bets.
//
// Blob layout v2:
//   [0] version = 2
//   [1] stage (0 betting, 1 decision, 2 complete)
//   [2..9]   pair-plus bet u64be
//   [10..17] pair-plus winnings u64be (decided at deal, paid at terminal)
//   [18..25] six-card bonus bet u64be
//   [26..33] progressive bet u64be (0 or the fixed unit)
//   [34..36] player cards (0xFF until dealt)
// v1 lacks the six-card and progressive fields; decode only.
const (
	threeCardV1 = 1
	threeCardV2 = 2

	tcStageBetting  uint8 = 0
	tcStageDecision uint8 = 1
	tcStageDone     uint8 = 2

	// progressiveUnit is the fixed price of the progressive side bet.
	progressiveUnit uint64 = 25
)

type threeCardState struct {
	stage    uint8
	pairPlus uint64
	ppWon    uint64
	sixCard  uint64
	prog     uint64
	cards    [3]uint8
}

func decodeThreeCard(blob []byte) (*threeCardState, error) {
	r := newBlobReader(blob)
	ver := r.u8()
	if ver != threeCardV1 && ver != threeCardV2 {
		return nil, ErrMalformedState.Wrapf("three-card: unknown version %d", ver)
	}
	st := &threeCardState{}
	st.stage = r.u8()
	st.pairPlus = r.u64()
	st.ppWon = r.u64()
	if ver == threeCardV2 {
		st.sixCard = r.u64()
		st.prog = r.u64()
	}
	for i := range st.cards {
		st.cards[i] = r.u8()
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	if st.stage > tcStageDone {
		return nil, ErrMalformedState.Wrapf("three-card: bad stage %d", st.stage)
	}
	for _, c := range st.cards {
		if c != unknownCard && c > 51 {
			return nil, ErrMalformedState.Wrapf("three-card: bad card %d", c)
		}
	}
	return st, nil
}

func (st *threeCardState) encode() []byte {
	return newBlobWriter(threeCardV2).
		u8(st.stage).
		u64(st.pairPlus).
		u64(st.ppWon).
		u64(st.sixCard).
		u64(st.prog).
		u8(st.cards[0]).u8(st.cards[1]).u8(st.cards[2]).
		done()
}

// escrowed is everything charged so far: the ante plus each side bet.
func (st *threeCardState) escrowed(ante uint64) uint64 {
	return satAddU64(ante, satAddU64(st.pairPlus, satAddU64(st.sixCard, st.prog)))
}

func threeCardInit(_ Context, _ *rng.Stream) ([]byte, Result, error) {
	st := &threeCardState{stage: tcStageBetting, cards: [3]uint8{unknownCard, unknownCard, unknownCard}}
	return st.encode(), resultFor(Continue()), nil
}

type threeCardMovePayload struct {
	Action  string `json:"action"`
	Amount  uint64 `json:"amount,omitempty"`
	Enabled bool   `json:"enabled,omitempty"`
}

func threeCardMove(ctx Context, blob, payload []byte, s *rng.Stream) ([]byte, Result, error) {
	st, err := decodeThreeCard(blob)
	if err != nil {
		return nil, Result{}, err
	}
	var mv threeCardMovePayload
	if err := json.Unmarshal(payload, &mv); err != nil {
		return nil, Result{}, ErrInvalidPayload.Wrap(err.Error())
	}

	switch st.stage {
	case tcStageBetting:
		switch mv.Action {
		case "pair_plus":
			if mv.Amount > MaxWager {
				return nil, Result{}, ErrInvalidPayload.Wrapf("three-card: pair plus %d above wager cap", mv.Amount)
			}
			delta := int64(mv.Amount) - int64(st.pairPlus)
			st.pairPlus = mv.Amount
			return st.encode(), resultFor(ContinueWithUpdate(delta)), nil
		case "six_card":
			if mv.Amount > MaxWager {
				return nil, Result{}, ErrInvalidPayload.Wrapf("three-card: six card bonus %d above wager cap", mv.Amount)
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
			for i := range st.cards {
				c, err := shoe.Draw()
				if err != nil {
					return nil, Result{}, ErrShoeExhausted.Wrap("three-card")
				}
				st.cards[i] = c.Byte()
			}
			if st.pairPlus > 0 {
				if mult := pairPlusMultiplier(st.cards[:]); mult > 0 {
					st.ppWon = satMulU64(st.pairPlus, uint64(mult)+1)
				}
			}
			st.stage = tcStageDecision
			return st.encode(), resultFor(Continue()), nil
		default:
			return nil, Result{}, ErrInvalidMove.Wrapf("three-card: action %q not accepted while betting", mv.Action)
		}

	case tcStageDecision:
		switch mv.Action {
		case "fold":
			res, err := st.fold(ctx, s)
			if err != nil {
				return nil, Result{}, err
			}
			return st.encode(), res, nil
		case "play":
			res, err := st.play(ctx, s)
			if err != nil {
				return nil, Result{}, err
			}
			return st.encode(), res, nil
		default:
			return nil, Result{}, ErrInvalidMove.Wrapf("three-card: action %q not accepted at decision", mv.Action)
		}

	default:
		return nil, Result{}, ErrInvalidMove.Wrap("three-card: session resolved")
	}
}

func (st *threeCardState) drawDealer(s *rng.Stream) ([]uint8, error) {
	shoe := NewShoe(s, 1, st.cards[:])
	dealer := make([]uint8, 3)
	for i := range dealer {
		c, err := shoe.Draw()
		if err != nil {
			return nil, ErrShoeExhausted.Wrap("three-card")
		}
		dealer[i] = c.Byte()
	}
	return dealer, nil
}

// progressiveHit annotates a mini-royal when the progressive bet rides.
func (st *threeCardState) progressiveHit(res *Result) {
	if st.prog == 0 {
		return
	}
	res.ProgressiveStake = st.prog
	if mini, spades := isMiniRoyal(st.cards[:]); mini {
		if spades {
			res.Progressive = ProgressiveMajor
		} else {
			res.Progressive = ProgressiveMinor
		}
	}
}

// fold forfeits ante and play but still resolves the independent side
// bets, which need the dealer hand for the six-card bonus.
func (st *threeCardState) fold(ctx Context, s *rng.Stream) (Result, error) {
	dealer, err := st.drawDealer(s)
	if err != nil {
		return Result{}, err
	}
	st.stage = tcStageDone

	credit := st.ppWon
	if st.sixCard > 0 {
		if mult := sixCardMultiplier(st.cards[:], dealer); mult > 0 {
			credit = satAddU64(credit, satMulU64(st.sixCard, uint64(mult)+1))
		}
	}

	res := Result{}
	st.progressiveHit(&res)
	res.Outcome = netOutcome(st.escrowed(ctx.Stake), credit)
	if credit > 0 {
		res.WinningCards = append([]uint8(nil), st.cards[:]...)
	}
	return res, nil
}

// play commits a play bet equal to the ante and resolves against a freshly
// drawn dealer hand. The play bet is never escrowed, so outcomes that lose
// or win it carry it as the extra deduction.
func (st *threeCardState) play(ctx Context, s *rng.Stream) (Result, error) {
	ante := ctx.Stake
	dealer, err := st.drawDealer(s)
	if err != nil {
		return Result{}, err
	}
	st.stage = tcStageDone

	escrowed := st.escrowed(ante)
	// Ante bonus pays on a strong player hand regardless of the dealer.
	bonus := satMulU64(ante, uint64(anteBonusMultiplier(st.cards[:])))
	sideWon := satAddU64(bonus, st.ppWon)
	if st.sixCard > 0 {
		if mult := sixCardMultiplier(st.cards[:], dealer); mult > 0 {
			sideWon = satAddU64(sideWon, satMulU64(st.sixCard, uint64(mult)+1))
		}
	}

	res := Result{}
	st.progressiveHit(&res)

	if !threeCardQualifies(dealer) {
		// Ante pays even money, play pushes.
		credit := satAddU64(satMulU64(ante, 2), sideWon)
		res.Outcome = netOutcome(escrowed, credit)
		res.WinningCards = append([]uint8(nil), st.cards[:]...)
		return res, nil
	}

	switch threeCardBeats(st.cards[:], dealer) {
	case 1:
		// Ante and play both pay even money; the play stake rides on the
		// outcome as an extra deduction because it was never charged.
		credit := satAddU64(satMulU64(ante, 4), sideWon)
		res.Outcome = WinWithExtraDeduction(credit, ante)
		res.WinningCards = append([]uint8(nil), st.cards[:]...)
	case 0:
		// Both bets push.
		credit := satAddU64(ante, sideWon)
		res.Outcome = netOutcome(escrowed, credit)
	default:
		res.WinningCards = dealer
		if sideWon > 0 {
			res.Outcome = WinWithExtraDeduction(sideWon, ante)
		} else {
			res.Outcome = LossPreDeductedWithExtraDeduction(escrowed, ante)
		}
	}
	return res, nil
}

// pairPlusMultiplier is the pair-plus paytable, profit multiples.
func pairPlusMultiplier(cards []uint8) uint32 {
	cat, _ := evalThreeCard(cards)
	if mini, _ := isMiniRoyal(cards); mini {
		return 50
	}
	switch cat {
	case tcStraightFlush:
		return 40
	case tcTrips:
		return 30
	case tcStraight:
		return 6
	case tcFlush:
		return 3
	case tcPair:
		return 1
	default:
		return 0
	}
}

// anteBonusMultiplier pays the ante bonus on straights or better.
func anteBonusMultiplier(cards []uint8) uint32 {
	cat, _ := evalThreeCard(cards)
	switch cat {
	case tcStraightFlush:
		return 5
	case tcTrips:
		return 4
	case tcStraight:
		return 1
	default:
		return 0
	}
}

// sixCardMultiplier evaluates the best five of the six player and dealer
// cards against the shared six-card bonus paytable.
func sixCardMultiplier(player, dealer []uint8) uint32 {
	six := make([]uint8, 0, 6)
	six = append(six, player...)
	six = append(six, dealer...)
	cat, _ := bestFive(six)
	return sixCardBonusMultiplier(cat)
}
