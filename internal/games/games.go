package games

import (
	"onchaincasino/internal/rng"
)

// Type is the closed set of supported games. Dispatch happens through the
// exhaustive switches in Init and ProcessMove; adding a game means adding a
// variant here and a case there, nowhere else.
type Type uint8

const (
	Baccarat Type = iota + 1
	Blackjack
	CasinoWar
	Roulette
	SicBo
	ThreeCardPoker
	UltimateHoldem
)

var typeNames = map[Type]string{
	Baccarat:       "baccarat",
	Blackjack:      "blackjack",
	CasinoWar:      "casino_war",
	Roulette:       "roulette",
	SicBo:          "sic_bo",
	ThreeCardPoker: "three_card_poker",
	UltimateHoldem: "ultimate_holdem",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// TypeFromName resolves a wire name to a game type.
func TypeFromName(name string) (Type, bool) {
	for t, n := range typeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// MoveFunded reports whether the game's wagers are placed entirely via
// mid-round updates, so a zero stake at session start is legal.
func (t Type) MoveFunded() bool {
	switch t {
	case Baccarat, Roulette, SicBo:
		return true
	default:
		return false
	}
}

// Context carries the per-session facts a state machine needs beyond its
// own blob.
type Context struct {
	// Stake is the amount escrowed at session start (the ante or main bet);
	// zero for move-funded games.
	Stake uint64
}

// Init establishes a new session's initial stage and returns its first
// state blob. The returned outcome is non-terminal; games that escrow an
// additional amount at entry (the hold'em blind) report it as a
// ContinueWithUpdate delta.
func Init(t Type, ctx Context, s *rng.Stream) ([]byte, Result, error) {
	switch t {
	case Baccarat:
		return baccaratInit(ctx, s)
	case Blackjack:
		return blackjackInit(ctx, s)
	case CasinoWar:
		return warInit(ctx, s)
	case Roulette:
		return rouletteInit(ctx, s)
	case SicBo:
		return sicboInit(ctx, s)
	case ThreeCardPoker:
		return threeCardInit(ctx, s)
	case UltimateHoldem:
		return holdemInit(ctx, s)
	default:
		return nil, Result{}, ErrUnknownGame.Wrapf("type %d", t)
	}
}

// ProcessMove applies one move to a session blob and returns the
// re-encoded blob (always the newest layout version) and the outcome. The
// caller guarantees the session is not already complete.
func ProcessMove(t Type, ctx Context, blob, payload []byte, s *rng.Stream) ([]byte, Result, error) {
	switch t {
	case Baccarat:
		return baccaratMove(ctx, blob, payload, s)
	case Blackjack:
		return blackjackMove(ctx, blob, payload, s)
	case CasinoWar:
		return warMove(ctx, blob, payload, s)
	case Roulette:
		return rouletteMove(ctx, blob, payload, s)
	case SicBo:
		return sicboMove(ctx, blob, payload, s)
	case ThreeCardPoker:
		return threeCardMove(ctx, blob, payload, s)
	case UltimateHoldem:
		return holdemMove(ctx, blob, payload, s)
	default:
		return nil, Result{}, ErrUnknownGame.Wrapf("type %d", t)
	}
}

// netOutcome combines independently resolved bets into one terminal
// outcome for move-funded games: everything wagered was escrowed
// incrementally, so losses are pre-deducted.
func netOutcome(escrowed, credit uint64) Outcome {
	switch {
	case credit == 0 && escrowed == 0:
		return Push()
	case credit == 0:
		return LossPreDeducted(escrowed)
	case credit == escrowed:
		return Push()
	default:
		return Win(credit)
	}
}

// MaxWager bounds any single wager so signed deltas and payout products
// stay representable. The ledger rejects bets above it before escrow.
const MaxWager uint64 = 1 << 48

// NewShoe builds a shuffled shoe from a session's move stream, excluding
// one copy per already-revealed card byte.
func NewShoe(s *rng.Stream, decks int, exclude []uint8) *rng.Shoe {
	return rng.NewShoe(s, decks, exclude)
}

// satAddU64 adds with saturation.
func satAddU64(a, b uint64) uint64 {
	if a > ^uint64(0)-b {
		return ^uint64(0)
	}
	return a + b
}
