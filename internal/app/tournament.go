package app

import (
	"encoding/json"
	"fmt"
	"sort"

	sdkmath "cosmossdk.io/math"
	abci "github.com/cometbft/cometbft/abci/types"

	"onchaincasino/internal/codec"
	"onchaincasino/internal/games"
	"onchaincasino/internal/state"
)

const (
	// Entry cap: joins allowed per player per window of blocks. The window
	// approximates a day at 5s blocks; consensus has no wall clock.
	entryWindowBlocks   int64  = 17280
	maxEntriesPerWindow uint32 = 3

	// House subsidy added to the prize pool at start, capped so entry fees
	// bound the inflation.
	tournamentSubsidyCap uint64 = 25_000

	// Fraction of the field that is paid: the top third, at least one.
	paidFieldDivisor = 3

	// Fixed-point scale for harmonic prize weights.
	harmonicScale int64 = 1 << 20
)

func handleTournamentCreate(st *state.State, msg codec.TournamentCreateTx, height int64) *abci.ExecTxResult {
	if _, ok := st.Players[msg.Creator]; !ok {
		return errResult(ErrPlayerNotFound.Wrap(msg.Creator))
	}
	if msg.EntryFee == 0 || msg.EntryFee > games.MaxWager {
		return errResult(ErrInvalidTx.Wrap("entry fee must be nonzero and below the wager cap"))
	}
	if msg.StartingChips == 0 {
		return errResult(ErrInvalidTx.Wrap("starting chips must be nonzero"))
	}
	id := st.NextTournamentID
	st.NextTournamentID++
	st.Tournaments[id] = &state.Tournament{
		ID:            id,
		Name:          msg.Name,
		Phase:         state.TournamentRegistration,
		EntryFee:      msg.EntryFee,
		StartingChips: msg.StartingChips,
		CreatedHeight: height,
	}
	return okEvent("TournamentCreated", map[string]string{
		"tournamentId": fmt.Sprintf("%d", id),
		"name":         msg.Name,
		"entryFee":     fmt.Sprintf("%d", msg.EntryFee),
	})
}

func handleTournamentJoin(st *state.State, msg codec.TournamentJoinTx, height int64) *abci.ExecTxResult {
	p, ok := st.Players[msg.Player]
	if !ok {
		return errResult(ErrPlayerNotFound.Wrap(msg.Player))
	}
	t, ok := st.Tournaments[msg.TournamentID]
	if !ok {
		return errResult(ErrTournamentNotFound.Wrapf("tournament %d", msg.TournamentID))
	}
	if t.Phase != state.TournamentRegistration {
		return errResult(ErrTournamentPhase.Wrapf("tournament %d is %s", t.ID, t.Phase))
	}
	if t.HasEntrant(msg.Player) {
		return errResult(ErrAlreadyJoined.Wrapf("tournament %d", t.ID))
	}
	if p.TournamentID != 0 {
		return errResult(ErrAlreadyJoined.Wrapf("already entered in tournament %d", p.TournamentID))
	}

	if height-p.EntryWindowStart >= entryWindowBlocks {
		p.EntryWindowStart = height
		p.EntryCount = 0
	}
	if p.EntryCount >= maxEntriesPerWindow {
		return errResult(ErrEntryLimit.Wrapf("max %d entries per %d blocks", maxEntriesPerWindow, entryWindowBlocks))
	}
	p.EntryCount++

	if err := p.Debit(state.PoolCash, t.EntryFee); err != nil {
		return errResult(ErrInsufficientFunds.Wrap(err.Error()))
	}
	t.PrizePool = satAdd(t.PrizePool, t.EntryFee)
	t.Entrants = append(t.Entrants, msg.Player)
	p.TournamentID = t.ID

	return okEvent("PlayerJoined", map[string]string{
		"tournamentId": fmt.Sprintf("%d", t.ID),
		"player":       msg.Player,
		"prizePool":    fmt.Sprintf("%d", t.PrizePool),
	})
}

func handleTournamentStart(st *state.State, msg codec.TournamentStartTx, height int64) *abci.ExecTxResult {
	t, ok := st.Tournaments[msg.TournamentID]
	if !ok {
		return errResult(ErrTournamentNotFound.Wrapf("tournament %d", msg.TournamentID))
	}
	if t.Phase != state.TournamentRegistration {
		return errResult(ErrTournamentPhase.Wrapf("tournament %d is %s", t.ID, t.Phase))
	}
	if len(t.Entrants) < 2 {
		return errResult(ErrTournamentPhase.Wrap("need at least two entrants"))
	}

	for _, addr := range t.Entrants {
		if p := st.Players[addr]; p != nil {
			p.TournamentChips = t.StartingChips
		}
	}

	// One-time subsidy, capped by the fee take so the pool cannot inflate
	// past double the buy-ins.
	subsidy := t.PrizePool
	if subsidy > tournamentSubsidyCap {
		subsidy = tournamentSubsidyCap
	}
	t.PrizePool = satAdd(t.PrizePool, subsidy)
	st.House.Issued = satAdd(st.House.Issued, subsidy)

	t.Phase = state.TournamentActive
	t.StartHeight = height

	return okEvent("TournamentStarted", map[string]string{
		"tournamentId": fmt.Sprintf("%d", t.ID),
		"entrants":     fmt.Sprintf("%d", len(t.Entrants)),
		"prizePool":    fmt.Sprintf("%d", t.PrizePool),
	})
}

func handleTournamentEnd(st *state.State, msg codec.TournamentEndTx, height int64) *abci.ExecTxResult {
	t, ok := st.Tournaments[msg.TournamentID]
	if !ok {
		return errResult(ErrTournamentNotFound.Wrapf("tournament %d", msg.TournamentID))
	}
	if t.Phase != state.TournamentActive {
		return errResult(ErrTournamentPhase.Wrapf("tournament %d is %s", t.ID, t.Phase))
	}

	ranked := tournamentRanking(st, t)
	shares := harmonicShares(t.PrizePool, paidWinners(len(ranked)))
	for i, share := range shares {
		if p := st.Players[ranked[i].Addr]; p != nil && share > 0 {
			creditClamped(p, state.PoolCash, share)
		}
	}

	// Clear every participant's tournament-scoped state, including any
	// session still open against the tournament pool.
	for _, addr := range t.Entrants {
		if p := st.Players[addr]; p != nil {
			p.TournamentChips = 0
			p.TournamentID = 0
		}
	}
	for _, sess := range st.Sessions {
		if sess.TournamentID == t.ID && !sess.Complete {
			sess.Complete = true
		}
	}

	t.Phase = state.TournamentComplete
	t.EndHeight = height

	rankingsJSON, _ := json.Marshal(ranked)
	return okEvent("TournamentEnded", map[string]string{
		"tournamentId": fmt.Sprintf("%d", t.ID),
		"rankings":     string(rankingsJSON),
		"prizePool":    fmt.Sprintf("%d", t.PrizePool),
	})
}

// tournamentRanking orders entrants by final tournament chips, ties broken
// by address for determinism.
func tournamentRanking(st *state.State, t *state.Tournament) []leaderboardEntry {
	out := make([]leaderboardEntry, 0, len(t.Entrants))
	for _, addr := range t.Entrants {
		var chips uint64
		var name string
		if p := st.Players[addr]; p != nil {
			chips = p.TournamentChips
			name = p.Name
		}
		out = append(out, leaderboardEntry{Addr: addr, Name: name, Chips: chips})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Chips != out[j].Chips {
			return out[i].Chips > out[j].Chips
		}
		return out[i].Addr < out[j].Addr
	})
	return out
}

// paidWinners is the number of prize positions for a field of n.
func paidWinners(n int) int {
	if n == 0 {
		return 0
	}
	w := (n + paidFieldDivisor - 1) / paidFieldDivisor
	if w < 1 {
		w = 1
	}
	return w
}

// harmonicShares splits pool across winners weighted 1, 1/2, 1/3, ...;
// integer remainders go to first place so the pool pays out exactly.
func harmonicShares(pool uint64, winners int) []uint64 {
	if winners == 0 || pool == 0 {
		return nil
	}
	weights := make([]int64, winners)
	var totalWeight int64
	for i := 0; i < winners; i++ {
		weights[i] = harmonicScale / int64(i+1)
		totalWeight += weights[i]
	}
	shares := make([]uint64, winners)
	poolInt := sdkmath.NewIntFromUint64(pool)
	var distributed uint64
	for i := 0; i < winners; i++ {
		s := poolInt.MulRaw(weights[i]).QuoRaw(totalWeight).Uint64()
		shares[i] = s
		distributed += s
	}
	shares[0] += pool - distributed
	return shares
}
