package games

import (
	"encoding/json"

	"onchaincasino/internal/rng"
)

// Baccarat: repeatable betting stage, then a single deal that resolves
// every bet against the standard third-card tableau. Eight-deck shoe.
//
// Blob layout v1 (newest):
//   [0] version = 1
//   [1] stage (0 = betting, 1 = complete)
//   [2..4] player cards (0xFF = not dealt)
//   [5..7] banker cards (0xFF = not dealt)
//   [8..] five u64be bet amounts: player, banker, tie, player pair, banker pair
const (
	baccaratV1 = 1

	baccaratStageBetting uint8 = 0
	baccaratStageDone    uint8 = 1

	baccaratDecks = 8
)

type baccaratBetKind uint8

const (
	baccaratBetPlayer baccaratBetKind = iota
	baccaratBetBanker
	baccaratBetTie
	baccaratBetPlayerPair
	baccaratBetBankerPair
	baccaratBetCount
)

var baccaratKindNames = map[string]baccaratBetKind{
	"player":      baccaratBetPlayer,
	"banker":      baccaratBetBanker,
	"tie":         baccaratBetTie,
	"player_pair": baccaratBetPlayerPair,
	"banker_pair": baccaratBetBankerPair,
}

type baccaratState struct {
	stage  uint8
	player [3]uint8
	banker [3]uint8
	bets   [baccaratBetCount]uint64
}

func decodeBaccarat(blob []byte) (*baccaratState, error) {
	r := newBlobReader(blob)
	if ver := r.u8(); ver != baccaratV1 {
		return nil, ErrMalformedState.Wrapf("baccarat: unknown version %d", ver)
	}
	st := &baccaratState{stage: r.u8()}
	for i := range st.player {
		st.player[i] = r.u8()
	}
	for i := range st.banker {
		st.banker[i] = r.u8()
	}
	for i := range st.bets {
		st.bets[i] = r.u64()
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	if st.stage > baccaratStageDone {
		return nil, ErrMalformedState.Wrapf("baccarat: bad stage %d", st.stage)
	}
	for _, c := range append(st.player[:], st.banker[:]...) {
		if c != unknownCard && c > 51 {
			return nil, ErrMalformedState.Wrapf("baccarat: bad card %d", c)
		}
	}
	return st, nil
}

func (st *baccaratState) encode() []byte {
	w := newBlobWriter(baccaratV1).u8(st.stage)
	for _, c := range st.player {
		w.u8(c)
	}
	for _, c := range st.banker {
		w.u8(c)
	}
	for _, b := range st.bets {
		w.u64(b)
	}
	return w.done()
}

func (st *baccaratState) escrowed() uint64 {
	var sum uint64
	for _, b := range st.bets {
		sum = satAddU64(sum, b)
	}
	return sum
}

func baccaratInit(_ Context, _ *rng.Stream) ([]byte, Result, error) {
	st := &baccaratState{stage: baccaratStageBetting}
	for i := range st.player {
		st.player[i] = unknownCard
		st.banker[i] = unknownCard
	}
	return st.encode(), resultFor(Continue()), nil
}

type baccaratMovePayload struct {
	Action string `json:"action"`
	Kind   string `json:"kind,omitempty"`
	Amount uint64 `json:"amount,omitempty"`
}

func baccaratMove(_ Context, blob, payload []byte, s *rng.Stream) ([]byte, Result, error) {
	st, err := decodeBaccarat(blob)
	if err != nil {
		return nil, Result{}, err
	}
	if st.stage != baccaratStageBetting {
		return nil, Result{}, ErrInvalidMove.Wrap("baccarat: session resolved")
	}

	var mv baccaratMovePayload
	if err := json.Unmarshal(payload, &mv); err != nil {
		return nil, Result{}, ErrInvalidPayload.Wrap(err.Error())
	}

	switch mv.Action {
	case "bet":
		kind, ok := baccaratKindNames[mv.Kind]
		if !ok {
			return nil, Result{}, ErrInvalidPayload.Wrapf("baccarat: unknown bet kind %q", mv.Kind)
		}
		if mv.Amount > MaxWager {
			return nil, Result{}, ErrInvalidPayload.Wrapf("baccarat: bet %d above wager cap", mv.Amount)
		}
		delta := int64(mv.Amount) - int64(st.bets[kind])
		st.bets[kind] = mv.Amount
		return st.encode(), resultFor(ContinueWithUpdate(delta)), nil

	case "deal":
		if st.escrowed() == 0 {
			return nil, Result{}, ErrInvalidMove.Wrap("baccarat: no bets placed")
		}
		res, err := st.deal(s)
		if err != nil {
			return nil, Result{}, err
		}
		return st.encode(), res, nil

	default:
		return nil, Result{}, ErrInvalidMove.Wrapf("baccarat: action %q not accepted while betting", mv.Action)
	}
}

func (st *baccaratState) deal(s *rng.Stream) (Result, error) {
	shoe := NewShoe(s, baccaratDecks, nil)
	draw := func() (uint8, error) {
		c, err := shoe.Draw()
		if err != nil {
			return 0, ErrShoeExhausted.Wrap("baccarat")
		}
		return c.Byte(), nil
	}

	// Initial four cards alternate player, banker.
	var err error
	if st.player[0], err = draw(); err != nil {
		return Result{}, err
	}
	if st.banker[0], err = draw(); err != nil {
		return Result{}, err
	}
	if st.player[1], err = draw(); err != nil {
		return Result{}, err
	}
	if st.banker[1], err = draw(); err != nil {
		return Result{}, err
	}

	pHand := []uint8{st.player[0], st.player[1]}
	bHand := []uint8{st.banker[0], st.banker[1]}
	pTotal := baccaratValue(pHand)
	bTotal := baccaratValue(bHand)

	// Naturals (8 or 9) stand both sides.
	if pTotal < 8 && bTotal < 8 {
		playerDrew := false
		playerThird := -1
		if pTotal <= 5 {
			c, err := draw()
			if err != nil {
				return Result{}, err
			}
			st.player[2] = c
			pHand = append(pHand, c)
			playerDrew = true
			playerThird = baccaratCardValue(c)
		}
		if bankerDraws(bTotal, playerDrew, playerThird) {
			c, err := draw()
			if err != nil {
				return Result{}, err
			}
			st.banker[2] = c
			bHand = append(bHand, c)
		}
		pTotal = baccaratValue(pHand)
		bTotal = baccaratValue(bHand)
	}

	escrowed := st.escrowed()
	var credit uint64

	// Main bets.
	switch {
	case pTotal > bTotal:
		credit = satAddU64(credit, satMulU64(st.bets[baccaratBetPlayer], 2))
	case bTotal > pTotal:
		// Banker pays 95%: 5% commission, rounded down. A commission-floored
		// zero profit is treated as a push (stake back, nothing more).
		b := st.bets[baccaratBetBanker]
		profit := satMulU64(b, 95) / 100
		credit = satAddU64(credit, satAddU64(b, profit))
	default:
		// Tie: player and banker bets push, tie bet pays 8:1.
		credit = satAddU64(credit, st.bets[baccaratBetPlayer])
		credit = satAddU64(credit, st.bets[baccaratBetBanker])
		credit = satAddU64(credit, satMulU64(st.bets[baccaratBetTie], 9))
	}

	// Pair side bets: first two cards of each hand, 11:1.
	if rankOf(st.player[0]) == rankOf(st.player[1]) {
		credit = satAddU64(credit, satMulU64(st.bets[baccaratBetPlayerPair], 12))
	}
	if rankOf(st.banker[0]) == rankOf(st.banker[1]) {
		credit = satAddU64(credit, satMulU64(st.bets[baccaratBetBankerPair], 12))
	}

	st.stage = baccaratStageDone
	res := resultFor(netOutcome(escrowed, credit))
	switch {
	case pTotal > bTotal:
		res.WinningCards = append([]uint8(nil), pHand...)
	case bTotal > pTotal:
		res.WinningCards = append([]uint8(nil), bHand...)
	}
	return res, nil
}

// bankerDraws is the fixed third-card tableau: the banker's draw depends on
// its total and, when the player drew, the player's third card value.
func bankerDraws(bankerTotal int, playerDrew bool, playerThird int) bool {
	if !playerDrew {
		return bankerTotal <= 5
	}
	switch bankerTotal {
	case 0, 1, 2:
		return true
	case 3:
		return playerThird != 8
	case 4:
		return playerThird >= 2 && playerThird <= 7
	case 5:
		return playerThird >= 4 && playerThird <= 7
	case 6:
		return playerThird == 6 || playerThird == 7
	default:
		return false
	}
}
