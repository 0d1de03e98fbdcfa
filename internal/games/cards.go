package games

import "sort"

// Table cards are single bytes 0..51: rank = b%13+1 (ace low raw),
// suit = b/13 (clubs, diamonds, hearts, spades).

func rankOf(b uint8) uint8 { // 1..13
	return b%13 + 1
}

func suitOf(b uint8) uint8 { // 0..3
	return b / 13
}

// aceHighRank maps the raw rank to 2..14.
func aceHighRank(b uint8) uint8 {
	r := rankOf(b)
	if r == 1 {
		return 14
	}
	return r
}

const (
	suitSpades = 3
)

// ---- Blackjack ----

// blackjackValue returns the best hand total and whether it is soft (an ace
// currently counted as 11).
func blackjackValue(cards []uint8) (total int, soft bool) {
	aces := 0
	for _, c := range cards {
		r := rankOf(c)
		switch {
		case r == 1:
			aces++
			total++
		case r >= 10:
			total += 10
		default:
			total += int(r)
		}
	}
	if aces > 0 && total+10 <= 21 {
		return total + 10, true
	}
	return total, false
}

// ---- Baccarat ----

// baccaratValue is the hand total mod 10 (tens and faces count zero).
func baccaratValue(cards []uint8) int {
	total := 0
	for _, c := range cards {
		r := rankOf(c)
		if r < 10 {
			total += int(r)
		}
	}
	return total % 10
}

// baccaratCardValue is a single card's drawing value (0..9).
func baccaratCardValue(c uint8) int {
	r := rankOf(c)
	if r >= 10 {
		return 0
	}
	return int(r)
}

// ---- Three-card poker ----

type threeCardCategory uint8

const (
	tcHighCard threeCardCategory = iota
	tcPair
	tcFlush
	tcStraight
	tcTrips
	tcStraightFlush
)

// evalThreeCard ranks a 3-card hand. Higher key beats lower; keys from the
// same category compare by the packed rank ordering.
func evalThreeCard(cards []uint8) (threeCardCategory, uint32) {
	r := []uint8{aceHighRank(cards[0]), aceHighRank(cards[1]), aceHighRank(cards[2])}
	sort.Slice(r, func(i, j int) bool { return r[i] > r[j] })
	flush := suitOf(cards[0]) == suitOf(cards[1]) && suitOf(cards[1]) == suitOf(cards[2])

	straight := r[0] == r[1]+1 && r[1] == r[2]+1
	straightHigh := r[0]
	// Ace plays low in A-2-3 only.
	if !straight && r[0] == 14 && r[1] == 3 && r[2] == 2 {
		straight = true
		straightHigh = 3
	}

	trips := r[0] == r[1] && r[1] == r[2]
	pairRank, kicker := uint8(0), uint8(0)
	if !trips {
		switch {
		case r[0] == r[1]:
			pairRank, kicker = r[0], r[2]
		case r[1] == r[2]:
			pairRank, kicker = r[1], r[0]
		}
	}

	var cat threeCardCategory
	var key uint32
	switch {
	case straight && flush:
		cat = tcStraightFlush
		key = uint32(straightHigh)
	case trips:
		cat = tcTrips
		key = uint32(r[0])
	case straight:
		cat = tcStraight
		key = uint32(straightHigh)
	case flush:
		cat = tcFlush
		key = uint32(r[0])<<8 | uint32(r[1])<<4 | uint32(r[2])
	case pairRank != 0:
		cat = tcPair
		key = uint32(pairRank)<<8 | uint32(kicker)
	default:
		cat = tcHighCard
		key = uint32(r[0])<<8 | uint32(r[1])<<4 | uint32(r[2])
	}
	return cat, uint32(cat)<<16 | key&0xFFFF
}

// threeCardBeats reports whether hand a outranks hand b.
func threeCardBeats(a, b []uint8) int {
	_, ka := evalThreeCard(a)
	_, kb := evalThreeCard(b)
	switch {
	case ka > kb:
		return 1
	case ka < kb:
		return -1
	default:
		return 0
	}
}

// isMiniRoyal reports an A-K-Q suited hand and whether it is in spades.
func isMiniRoyal(cards []uint8) (mini bool, spades bool) {
	cat, _ := evalThreeCard(cards)
	if cat != tcStraightFlush {
		return false, false
	}
	high := uint8(0)
	for _, c := range cards {
		if r := aceHighRank(c); r > high {
			high = r
		}
	}
	if high != 14 {
		return false, false
	}
	return true, suitOf(cards[0]) == suitSpades
}

// threeCardQualifies applies the dealer threshold: queen-six-four high or a
// pair or better.
func threeCardQualifies(cards []uint8) bool {
	cat, key := evalThreeCard(cards)
	if cat > tcHighCard {
		return true
	}
	// Q64 exactly: 12,6,4 packed.
	const q64 = uint32(12)<<8 | uint32(6)<<4 | uint32(4)
	return key&0xFFFF >= q64
}

// ---- Five-card poker ----

type handCategory uint8

const (
	catHighCard handCategory = iota
	catPair
	catTwoPair
	catTrips
	catStraight
	catFlush
	catFullHouse
	catQuads
	catStraightFlush
	catRoyalFlush
)

// evalFive ranks exactly five cards. The returned key orders any two hands
// totally: category in the top bits, then ranks grouped by multiplicity.
func evalFive(cards []uint8) (handCategory, uint64) {
	ranks := make([]uint8, 5)
	for i, c := range cards {
		ranks[i] = aceHighRank(c)
	}
	flush := true
	for i := 1; i < 5; i++ {
		if suitOf(cards[i]) != suitOf(cards[0]) {
			flush = false
			break
		}
	}

	counts := map[uint8]int{}
	for _, r := range ranks {
		counts[r]++
	}

	uniq := make([]uint8, 0, 5)
	for r := range counts {
		uniq = append(uniq, r)
	}
	// Order by count desc, then rank desc; this is also the tiebreak order.
	sort.Slice(uniq, func(i, j int) bool {
		if counts[uniq[i]] != counts[uniq[j]] {
			return counts[uniq[i]] > counts[uniq[j]]
		}
		return uniq[i] > uniq[j]
	})

	straightHigh := uint8(0)
	if len(uniq) == 5 {
		sorted := append([]uint8(nil), uniq...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
		if sorted[0]-sorted[4] == 4 {
			straightHigh = sorted[0]
		} else if sorted[0] == 14 && sorted[1] == 5 && sorted[4] == 2 && sorted[1]-sorted[4] == 3 {
			straightHigh = 5 // wheel
		}
	}

	var cat handCategory
	switch {
	case flush && straightHigh == 14:
		cat = catRoyalFlush
	case flush && straightHigh != 0:
		cat = catStraightFlush
	case counts[uniq[0]] == 4:
		cat = catQuads
	case counts[uniq[0]] == 3 && counts[uniq[1]] == 2:
		cat = catFullHouse
	case flush:
		cat = catFlush
	case straightHigh != 0:
		cat = catStraight
	case counts[uniq[0]] == 3:
		cat = catTrips
	case counts[uniq[0]] == 2 && counts[uniq[1]] == 2:
		cat = catTwoPair
	case counts[uniq[0]] == 2:
		cat = catPair
	default:
		cat = catHighCard
	}

	key := uint64(cat) << 24
	if straightHigh != 0 && (cat == catStraight || cat == catStraightFlush || cat == catRoyalFlush) {
		key |= uint64(straightHigh)
	} else {
		shift := 20
		for _, r := range uniq {
			key |= uint64(r) << shift
			shift -= 4
		}
	}
	return cat, key
}

// bestFive returns the best 5-card evaluation over any 5 of the given
// cards (6 or 7 in practice).
func bestFive(cards []uint8) (handCategory, uint64) {
	n := len(cards)
	if n <= 5 {
		return evalFive(cards)
	}
	bestCat, bestKey := handCategory(0), uint64(0)
	pick := make([]uint8, 5)
	var rec func(start, depth int)
	rec = func(start, depth int) {
		if depth == 5 {
			cat, key := evalFive(pick)
			if key > bestKey {
				bestCat, bestKey = cat, key
			}
			return
		}
		for i := start; i <= n-(5-depth); i++ {
			pick[depth] = cards[i]
			rec(i+1, depth+1)
		}
	}
	rec(0, 0)
	return bestCat, bestKey
}
