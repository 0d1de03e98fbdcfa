package rng

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

const streamDomainV1 = "occ/rng/v1"

// SuperMoveIndex is reserved for the super-mode multiplier draw. In-game
// move indices are ordinary move counters and never reach this value, so
// arming super mode cannot perturb a game's own card or dice sequence.
const SuperMoveIndex uint32 = 0xFFFFFFFF

// Stream is a deterministic byte stream keyed by (block seed, session id,
// move index). The same triple always yields the same bytes on every
// validator; nothing else feeds it.
type Stream struct {
	prefix  []byte
	counter uint64
	buf     []byte
}

func NewStream(seed []byte, sessionID uint64, moveIndex uint32) *Stream {
	prefix := make([]byte, 0, len(streamDomainV1)+1+len(seed)+8+4)
	prefix = append(prefix, streamDomainV1...)
	prefix = append(prefix, 0)
	prefix = append(prefix, seed...)
	prefix = binary.BigEndian.AppendUint64(prefix, sessionID)
	prefix = binary.BigEndian.AppendUint32(prefix, moveIndex)
	return &Stream{prefix: prefix}
}

func (s *Stream) next() []byte {
	buf := make([]byte, len(s.prefix)+8)
	copy(buf, s.prefix)
	binary.BigEndian.PutUint64(buf[len(s.prefix):], s.counter)
	s.counter++
	sum := sha256.Sum256(buf)
	return sum[:]
}

// Bytes returns the next n bytes of the stream.
func (s *Stream) Bytes(n int) []byte {
	out := make([]byte, 0, n)
	for len(out) < n {
		if len(s.buf) == 0 {
			s.buf = s.next()
		}
		take := n - len(out)
		if take > len(s.buf) {
			take = len(s.buf)
		}
		out = append(out, s.buf[:take]...)
		s.buf = s.buf[take:]
	}
	return out
}

// Uint64 returns the next 8 stream bytes as a big-endian uint64.
func (s *Stream) Uint64() uint64 {
	return binary.BigEndian.Uint64(s.Bytes(8))
}

// Uint64n returns a uniform value in [0, n) via rejection sampling.
// Plain modulo would bias small values and diverge from other validators
// only in expectation, not in output, but the bias is still a table-fairness
// bug; rejection keeps the draw exactly uniform.
func (s *Stream) Uint64n(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	limit := ^uint64(0) - (^uint64(0) % n)
	for {
		v := s.Uint64()
		if v < limit {
			return v % n
		}
	}
}

// Intn returns a uniform value in [0, n).
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.Uint64n(uint64(n)))
}

// RollDie returns a die roll in 1..6.
func (s *Stream) RollDie() uint8 {
	return uint8(s.Uint64n(6)) + 1
}

// SpinWheel returns a single-zero roulette pocket in 0..36.
func (s *Stream) SpinWheel() uint8 {
	return uint8(s.Uint64n(37))
}

// Card identifies one card in a shoe: 0..52*decks-1. Rank and suit are
// derived from the id reduced mod 52, so identical cards from different
// decks compare equal at the table while remaining distinct in the shoe.
type Card uint16

func (c Card) Rank() uint8 { // 1..13, ace low; games normalize ace high where needed
	return uint8(c%52)%13 + 1
}

func (c Card) Suit() uint8 { // 0..3: clubs, diamonds, hearts, spades
	return uint8(c%52) / 13
}

// Byte is the single-byte table identity (0..51) stored in state blobs.
func (c Card) Byte() uint8 {
	return uint8(c % 52)
}

// Shoe is a shuffled sequence of one or more decks, drawn without
// replacement.
type Shoe struct {
	cards []Card
	cur   int
}

// NewShoe builds a Fisher-Yates shuffled shoe of the given deck count,
// excluding one shoe copy per entry in exclude. Exclusion supports
// progressive reveal: already-revealed cards are removed up front so the
// hole card never has to be stored hidden in state.
func NewShoe(s *Stream, decks int, exclude []uint8) *Shoe {
	if decks <= 0 {
		decks = 1
	}
	n := 52 * decks
	remaining := make(map[uint8]int, 52)
	for _, e := range exclude {
		remaining[e%52]++
	}
	cards := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		c := Card(i)
		if remaining[c.Byte()] > 0 {
			remaining[c.Byte()]--
			continue
		}
		cards = append(cards, c)
	}
	// Fisher-Yates, one stream draw per swap.
	for i := len(cards) - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
	return &Shoe{cards: cards}
}

// Draw removes and returns the next card.
func (sh *Shoe) Draw() (Card, error) {
	if sh.cur >= len(sh.cards) {
		return 0, fmt.Errorf("shoe exhausted")
	}
	c := sh.cards[sh.cur]
	sh.cur++
	return c, nil
}

// Remaining reports how many cards are left.
func (sh *Shoe) Remaining() int {
	return len(sh.cards) - sh.cur
}
