package games

import (
	"onchaincasino/internal/rng"
)

// SuperDomain tags what a super-mode entry matches against.
type SuperDomain uint8

const (
	SuperCard   SuperDomain = iota // exact table card 0..51
	SuperRank                      // raw rank 1..13
	SuperSuit                      // suit 0..3
	SuperNumber                    // roulette pocket 0..36
	SuperTotal                     // dice total 3..18
)

// SuperEntry binds one winning identifier to a multiplicative factor.
type SuperEntry struct {
	Domain     SuperDomain `json:"domain"`
	Value      uint8       `json:"value"`
	Multiplier uint32      `json:"multiplier"`
}

// SuperSet is a session's frozen multiplier overlay. Generated once at
// session start, read-only afterwards.
type SuperSet []SuperEntry

// Multiplier strength tables, weighted towards the low end. Indexed draws
// below pick (value, weight) pairs.
type weighted struct {
	mult   uint32
	weight uint64
}

var cardMultipliers = []weighted{
	{2, 45}, {3, 25}, {4, 15}, {5, 9}, {8, 4}, {10, 2},
}

var numberMultipliers = []weighted{
	{50, 40}, {100, 30}, {150, 15}, {200, 9}, {300, 4}, {500, 2},
}

var totalMultipliers = []weighted{
	{2, 40}, {3, 28}, {5, 18}, {10, 9}, {25, 4}, {50, 1},
}

func drawMultiplier(s *rng.Stream, table []weighted) uint32 {
	var sum uint64
	for _, w := range table {
		sum += w.weight
	}
	v := s.Uint64n(sum)
	for _, w := range table {
		if v < w.weight {
			return w.mult
		}
		v -= w.weight
	}
	return table[len(table)-1].mult
}

// superSetSize is the number of entries generated per session; a bonus
// round inflates it before the set is frozen.
const (
	superSetSize      = 3
	superBonusSetSize = 5
)

// GenerateSuperSet draws a session's multiplier overlay from the reserved
// RNG stream. The stream must be keyed with rng.SuperMoveIndex so the draw
// never shares bytes with in-game moves.
func GenerateSuperSet(t Type, s *rng.Stream, bonusRound bool) SuperSet {
	n := superSetSize
	if bonusRound {
		n = superBonusSetSize
	}
	set := make(SuperSet, 0, n)
	switch t {
	case Roulette:
		seen := map[uint8]bool{}
		for len(set) < n {
			v := s.SpinWheel()
			if seen[v] {
				continue
			}
			seen[v] = true
			set = append(set, SuperEntry{Domain: SuperNumber, Value: v, Multiplier: drawMultiplier(s, numberMultipliers)})
		}
	case SicBo:
		seen := map[uint8]bool{}
		for len(set) < n {
			v := uint8(s.Uint64n(16)) + 3 // totals 3..18
			if seen[v] {
				continue
			}
			seen[v] = true
			set = append(set, SuperEntry{Domain: SuperTotal, Value: v, Multiplier: drawMultiplier(s, totalMultipliers)})
		}
	default:
		// Card games: mostly exact cards, with occasional rank or suit
		// entries that match whole groups.
		seen := map[uint16]bool{}
		for len(set) < n {
			roll := s.Uint64n(100)
			var e SuperEntry
			switch {
			case roll < 80:
				e = SuperEntry{Domain: SuperCard, Value: uint8(s.Uint64n(52))}
			case roll < 95:
				e = SuperEntry{Domain: SuperRank, Value: uint8(s.Uint64n(13)) + 1}
			default:
				e = SuperEntry{Domain: SuperSuit, Value: uint8(s.Uint64n(4))}
			}
			key := uint16(e.Domain)<<8 | uint16(e.Value)
			if seen[key] {
				continue
			}
			seen[key] = true
			e.Multiplier = drawMultiplier(s, cardMultipliers)
			set = append(set, e)
		}
	}
	return set
}

// ApplySuper rescales an already-computed non-zero payout against the
// frozen set. Card-keyed matches stack multiplicatively across every
// matching card in the winning hand; number- and total-keyed games apply a
// single matching multiplier or none. Game logic is never consulted.
func ApplySuper(set SuperSet, res Result, payout uint64) uint64 {
	if payout == 0 || len(set) == 0 {
		return payout
	}
	out := payout
	if res.WinningNumber != nil {
		for _, e := range set {
			if e.Domain != SuperNumber && e.Domain != SuperTotal {
				continue
			}
			if e.Value == *res.WinningNumber {
				return satMulU64(out, uint64(e.Multiplier))
			}
		}
		return out
	}
	for _, c := range res.WinningCards {
		for _, e := range set {
			match := false
			switch e.Domain {
			case SuperCard:
				match = e.Value == c
			case SuperRank:
				match = e.Value == rankOf(c)
			case SuperSuit:
				match = e.Value == suitOf(c)
			}
			if match {
				out = satMulU64(out, uint64(e.Multiplier))
			}
		}
	}
	return out
}

// satMulU64 multiplies with saturation; cross-validator determinism depends
// on saturating rather than wrapping.
func satMulU64(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > ^uint64(0)/b {
		return ^uint64(0)
	}
	return a * b
}
