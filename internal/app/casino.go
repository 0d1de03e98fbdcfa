package app

import (
	"encoding/hex"
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"

	"onchaincasino/internal/codec"
	"onchaincasino/internal/games"
	"onchaincasino/internal/rng"
	"onchaincasino/internal/state"
)

const (
	// Session starts allowed per player per window of blocks.
	rateWindowBlocks int64  = 20
	rateMaxStarts    uint32 = 10

	// Super mode fee: a fifth of the stake, with a flat floor for
	// move-funded games that open with zero stake.
	superFeeDivisor uint64 = 5
	superBaseFee    uint64 = 50

	// Consecutive wins needed before super draws the inflated set.
	auraBonusThreshold uint32 = 5

	// Consumable shop prices, cash only.
	shieldPrice  uint64 = 500
	doublePrice  uint64 = 750
	maxBuyCount  uint64 = 100

	// Progressive stake split between the two pools.
	jackpotMinorShare uint64 = 5 // minor gets 1/5, major the rest
)

func handleBankMint(st *state.State, msg codec.BankMintTx) *abci.ExecTxResult {
	if msg.To == "" || msg.Amount == 0 {
		return errResult(ErrInvalidTx.Wrap("missing to/amount"))
	}
	p, ok := st.Players[msg.To]
	if !ok {
		return errResult(ErrPlayerNotFound.Wrap(msg.To))
	}
	if err := p.Credit(state.PoolCash, msg.Amount); err != nil {
		return errResult(ErrInvalidTx.Wrap(err.Error()))
	}
	st.House.Issued = satAdd(st.House.Issued, msg.Amount)
	return okEvent("BankMinted", map[string]string{
		"to":     msg.To,
		"amount": fmt.Sprintf("%d", msg.Amount),
	})
}

func handleBankSend(st *state.State, msg codec.BankSendTx) *abci.ExecTxResult {
	if msg.From == "" || msg.To == "" || msg.Amount == 0 {
		return errResult(ErrInvalidTx.Wrap("missing from/to/amount"))
	}
	from, ok := st.Players[msg.From]
	if !ok {
		return errResult(ErrPlayerNotFound.Wrap(msg.From))
	}
	to, ok := st.Players[msg.To]
	if !ok {
		return errResult(ErrPlayerNotFound.Wrap(msg.To))
	}
	if err := from.Debit(state.PoolCash, msg.Amount); err != nil {
		return errResult(ErrInsufficientFunds.Wrap(err.Error()))
	}
	if err := to.Credit(state.PoolCash, msg.Amount); err != nil {
		return errResult(ErrInvalidTx.Wrap(err.Error()))
	}
	return okEvent("BankSent", map[string]string{
		"from":   msg.From,
		"to":     msg.To,
		"amount": fmt.Sprintf("%d", msg.Amount),
	})
}

func handleRegisterAccount(st *state.State, msg codec.AuthRegisterAccountTx) *abci.ExecTxResult {
	if _, ok := st.Players[msg.Account]; ok {
		return errResult(ErrPlayerExists.Wrap(msg.Account))
	}
	st.Players[msg.Account] = &state.Player{Name: msg.Name}
	st.AccountKeys[msg.Account] = msg.PubKey
	return okEvent("PlayerRegistered", map[string]string{
		"player": msg.Account,
		"name":   msg.Name,
	})
}

// checkRateLimit enforces the per-player sliding window on session starts.
// The window is block-height based; there is no wall clock in consensus.
func checkRateLimit(p *state.Player, height int64) error {
	if height-p.WindowStart >= rateWindowBlocks {
		p.WindowStart = height
		p.WindowMoves = 0
	}
	if p.WindowMoves >= rateMaxStarts {
		return ErrRateLimited.Wrapf("max %d starts per %d blocks", rateMaxStarts, rateWindowBlocks)
	}
	p.WindowMoves++
	return nil
}

func handleStartGame(st *state.State, msg codec.CasinoStartGameTx, height int64, seed []byte) *abci.ExecTxResult {
	p, ok := st.Players[msg.Player]
	if !ok {
		return errResult(ErrPlayerNotFound.Wrap(msg.Player))
	}
	gt, ok := games.TypeFromName(msg.Game)
	if !ok {
		return errResult(games.ErrUnknownGame.Wrap(msg.Game))
	}
	if err := checkRateLimit(p, height); err != nil {
		return errResult(err)
	}

	pool := state.PoolCash
	tournamentID := uint64(0)
	switch msg.Pool {
	case "", string(state.PoolCash):
	case string(state.PoolTournament):
		pool = state.PoolTournament
		if p.TournamentID == 0 {
			return errResult(ErrTournamentPhase.Wrap("player not in a tournament"))
		}
		t := st.Tournaments[p.TournamentID]
		if t == nil || t.Phase != state.TournamentActive {
			return errResult(ErrTournamentPhase.Wrap("tournament not active"))
		}
		tournamentID = p.TournamentID
	default:
		return errResult(ErrInvalidTx.Wrapf("unknown pool %q", msg.Pool))
	}

	if gt.MoveFunded() {
		if msg.Stake != 0 {
			return errResult(ErrInvalidBet.Wrapf("%s wagers per move, stake must be zero", gt))
		}
	} else {
		if msg.Stake == 0 {
			return errResult(ErrInvalidBet.Wrap("stake must be nonzero"))
		}
		if msg.Stake > games.MaxWager {
			return errResult(ErrInvalidBet.Wrapf("stake %d above max %d", msg.Stake, games.MaxWager))
		}
	}

	id := msg.SessionID
	if id == 0 {
		id = st.NextSessionID
	}
	if _, taken := st.Sessions[id]; taken {
		return errResult(ErrSessionExists.Wrapf("session %d", id))
	}
	if id >= st.NextSessionID {
		st.NextSessionID = id + 1
	}

	var fee uint64
	if p.SuperArmed {
		fee = msg.Stake / superFeeDivisor
		if fee == 0 {
			fee = superBaseFee
		}
	}
	total := satAdd(msg.Stake, fee)
	if p.Balance(pool) < total {
		return errResult(ErrInsufficientFunds.Wrapf("have %d, need %d", p.Balance(pool), total))
	}
	if err := p.Debit(pool, total); err != nil {
		return errResult(ErrInsufficientFunds.Wrap(err.Error()))
	}
	if pool == state.PoolCash {
		st.House.RecordHouseGain(total)
	}

	var superSet games.SuperSet
	if p.SuperArmed {
		superStream := rng.NewStream(seed, id, rng.SuperMoveIndex)
		superSet = games.GenerateSuperSet(gt, superStream, p.AuraStreak >= auraBonusThreshold)
	}

	blob, res, err := games.Init(gt, games.Context{Stake: msg.Stake}, rng.NewStream(seed, id, 0))
	if err != nil {
		return errResult(err)
	}

	sess := &state.GameSession{
		ID:           id,
		Owner:        msg.Player,
		Game:         gt,
		Pool:         pool,
		Stake:        msg.Stake,
		Escrowed:     msg.Stake,
		Blob:         blob,
		SuperSet:     superSet,
		ShieldArmed:  p.ShieldArmed,
		DoubleArmed:  p.DoubleArmed,
		TournamentID: tournamentID,
		StartHeight:  height,
	}
	st.Sessions[id] = sess

	// Games that escrow beyond the stake at entry report it as a delta.
	if res.Outcome.Kind == games.KindContinueWithUpdate {
		if err := applyDelta(st, p, sess, res.Outcome.Delta); err != nil {
			return errResult(err)
		}
	}

	return okEvent("GameStarted", map[string]string{
		"sessionId": fmt.Sprintf("%d", id),
		"game":      gt.String(),
		"pool":      string(pool),
		"stake":     fmt.Sprintf("%d", msg.Stake),
		"state":     hex.EncodeToString(blob),
	})
}

func handleMove(st *state.State, msg codec.CasinoMoveTx, seed []byte) *abci.ExecTxResult {
	p, ok := st.Players[msg.Player]
	if !ok {
		return errResult(ErrPlayerNotFound.Wrap(msg.Player))
	}
	sess, ok := st.Sessions[msg.SessionID]
	if !ok {
		return errResult(ErrSessionNotFound.Wrapf("session %d", msg.SessionID))
	}
	if sess.Owner != msg.Player {
		return errResult(ErrSessionNotOwned.Wrapf("session %d belongs to %s", sess.ID, sess.Owner))
	}
	if sess.Complete {
		return errResult(ErrSessionComplete.Wrapf("session %d", sess.ID))
	}

	stream := rng.NewStream(seed, sess.ID, sess.MoveIndex)
	blob, res, err := games.ProcessMove(sess.Game, games.Context{Stake: sess.Stake}, sess.Blob, msg.Payload, stream)
	if err != nil {
		return errResult(err)
	}
	sess.Blob = blob
	sess.MoveIndex++

	if !res.Outcome.Terminal() {
		if res.Outcome.Kind == games.KindContinueWithUpdate {
			if err := applyDelta(st, p, sess, res.Outcome.Delta); err != nil {
				return errResult(err)
			}
		}
		return okEvent("GameMoved", map[string]string{
			"sessionId": fmt.Sprintf("%d", sess.ID),
			"move":      fmt.Sprintf("%d", sess.MoveIndex-1),
			"state":     hex.EncodeToString(blob),
		})
	}

	stl := settleTerminal(st, p, sess, res)
	return okEvent("GameCompleted", map[string]string{
		"sessionId": fmt.Sprintf("%d", sess.ID),
		"payout":    fmt.Sprintf("%d", stl.netPayout),
		"balance":   fmt.Sprintf("%d", p.Balance(sess.Pool)),
		"shielded":  fmt.Sprintf("%t", stl.shielded),
		"doubled":   fmt.Sprintf("%t", stl.doubled),
		"jackpot":   fmt.Sprintf("%d", stl.jackpot),
	})
}

// applyDelta charges or refunds a mid-round bet adjustment. Positive
// deltas grow the escrow; negative deltas are immediate credits and
// shrink it, saturating at zero for credits that exceed it (the casino
// war tie bet pays mid-round, above its own escrow).
func applyDelta(st *state.State, p *state.Player, sess *state.GameSession, delta int64) error {
	if delta > 0 {
		amt := uint64(delta)
		if err := p.Debit(sess.Pool, amt); err != nil {
			return ErrInsufficientFunds.Wrap(err.Error())
		}
		sess.Escrowed = satAdd(sess.Escrowed, amt)
		if sess.Pool == state.PoolCash {
			st.House.RecordHouseGain(amt)
		}
		return nil
	}
	if delta < 0 {
		amt := creditClamped(p, sess.Pool, uint64(-delta))
		if amt >= sess.Escrowed {
			sess.Escrowed = 0
		} else {
			sess.Escrowed -= amt
		}
		if sess.Pool == state.PoolCash {
			st.House.RecordHousePayout(amt)
		}
	}
	return nil
}

type settlement struct {
	netPayout int64
	shielded  bool
	doubled   bool
	jackpot   uint64
}

// settleTerminal interprets a terminal outcome against the ledger. This is
// the only place outcomes touch balances: extra deductions are collected,
// the win credit is computed, super multipliers and the double are applied
// to wins, a shield nullifies a loss, progressive pools are fed and paid,
// the aura streak moves, and every armed flag clears.
func settleTerminal(st *state.State, p *state.Player, sess *state.GameSession, res games.Result) settlement {
	o := res.Outcome
	var stl settlement

	extra := debitClamped(p, sess.Pool, o.Extra)
	if sess.Pool == state.PoolCash && extra > 0 {
		st.House.RecordHouseGain(extra)
	}

	var credit uint64
	switch o.Kind {
	case games.KindWin, games.KindWinWithExtraDeduction:
		credit = o.Amount
	case games.KindPush:
		credit = sess.Escrowed
	}

	if o.IsWin() {
		credit = games.ApplySuper(sess.SuperSet, res, credit)
		if sess.DoubleArmed && p.Doubles > 0 {
			p.Doubles--
			credit = satMul(credit, 2)
			stl.doubled = true
		}
		p.AuraStreak++
	}

	if o.IsLoss() {
		p.AuraStreak = 0
		if sess.ShieldArmed && p.Shields > 0 {
			p.Shields--
			stl.shielded = true
			// The shield refunds what the session actually holds in escrow.
			// The extra deduction stays charged even when shielded.
			credit = satAdd(credit, sess.Escrowed)
		}
	}

	paid := creditClamped(p, sess.Pool, credit)
	if sess.Pool == state.PoolCash {
		if paid > 0 {
			st.House.RecordHousePayout(paid)
		}
		stl.jackpot = settleProgressive(st, p, res)
	}

	p.ShieldArmed = false
	p.DoubleArmed = false
	p.SuperArmed = false
	sess.Complete = true

	stl.netPayout = int64(paid) + int64(stl.jackpot) - int64(sess.Escrowed) - int64(extra)
	return stl
}

// settleProgressive feeds the jackpot pools from this session's
// progressive stake and pays a hit. Pool flows bypass house P/L; the pools
// are player-funded.
func settleProgressive(st *state.State, p *state.Player, res games.Result) uint64 {
	h := st.House
	if res.ProgressiveStake > 0 {
		minorCut := res.ProgressiveStake / jackpotMinorShare
		h.JackpotMinor = satAdd(h.JackpotMinor, minorCut)
		h.JackpotMajor = satAdd(h.JackpotMajor, res.ProgressiveStake-minorCut)
	}

	var award uint64
	switch res.Progressive {
	case games.ProgressiveMajor:
		award = h.JackpotMajor
		h.JackpotMajor = state.JackpotMajorFloor
	case games.ProgressiveMinor:
		// A minor hit pays a tenth of the pool, never draining it below
		// the floor.
		award = h.JackpotMinor / 10
		if h.JackpotMinor-award < state.JackpotMinorFloor {
			if h.JackpotMinor > state.JackpotMinorFloor {
				award = h.JackpotMinor - state.JackpotMinorFloor
			} else {
				award = 0
			}
		}
		h.JackpotMinor -= award
	default:
		return 0
	}
	if award > 0 {
		award = creditClamped(p, state.PoolCash, award)
	}
	return award
}

func handleBuy(st *state.State, msg codec.CasinoBuyTx) *abci.ExecTxResult {
	p, ok := st.Players[msg.Player]
	if !ok {
		return errResult(ErrPlayerNotFound.Wrap(msg.Player))
	}
	if msg.Count == 0 || msg.Count > maxBuyCount {
		return errResult(ErrInvalidTx.Wrapf("count must be 1..%d", maxBuyCount))
	}
	var price uint64
	switch msg.Item {
	case "shield":
		price = shieldPrice
	case "double":
		price = doublePrice
	default:
		return errResult(ErrInvalidTx.Wrapf("unknown item %q", msg.Item))
	}
	cost := satMul(price, msg.Count)
	if err := p.Debit(state.PoolCash, cost); err != nil {
		return errResult(ErrInsufficientFunds.Wrap(err.Error()))
	}
	st.House.RecordHouseGain(cost)
	switch msg.Item {
	case "shield":
		p.Shields = satAdd(p.Shields, msg.Count)
	case "double":
		p.Doubles = satAdd(p.Doubles, msg.Count)
	}
	return okEvent("ItemPurchased", map[string]string{
		"player": msg.Player,
		"item":   msg.Item,
		"count":  fmt.Sprintf("%d", msg.Count),
		"cost":   fmt.Sprintf("%d", cost),
	})
}

func handleToggle(st *state.State, txType string, msg codec.CasinoToggleTx) *abci.ExecTxResult {
	p, ok := st.Players[msg.Player]
	if !ok {
		return errResult(ErrPlayerNotFound.Wrap(msg.Player))
	}
	var toggle string
	switch txType {
	case "casino/toggle_shield":
		toggle = "shield"
		if msg.Enabled && p.Shields == 0 {
			return errResult(ErrInvalidTx.Wrap("no shields owned"))
		}
		p.ShieldArmed = msg.Enabled
	case "casino/toggle_double":
		toggle = "double"
		if msg.Enabled && p.Doubles == 0 {
			return errResult(ErrInvalidTx.Wrap("no doubles owned"))
		}
		p.DoubleArmed = msg.Enabled
	case "casino/toggle_super":
		toggle = "super"
		p.SuperArmed = msg.Enabled
	}
	return okEvent("ToggleSet", map[string]string{
		"player":  msg.Player,
		"toggle":  toggle,
		"enabled": fmt.Sprintf("%t", msg.Enabled),
	})
}

// creditClamped credits and saturates at the balance ceiling, returning
// the amount actually credited.
func creditClamped(p *state.Player, pool state.ChipPool, amt uint64) uint64 {
	if amt == 0 {
		return 0
	}
	if room := ^uint64(0) - p.Balance(pool); amt > room {
		amt = room
	}
	_ = p.Credit(pool, amt)
	return amt
}

// debitClamped debits up to the available balance, returning the amount
// actually taken. Balance arithmetic never faults on overflow.
func debitClamped(p *state.Player, pool state.ChipPool, amt uint64) uint64 {
	if amt == 0 {
		return 0
	}
	if bal := p.Balance(pool); amt > bal {
		amt = bal
	}
	_ = p.Debit(pool, amt)
	return amt
}

func satAdd(a, b uint64) uint64 {
	if a > ^uint64(0)-b {
		return ^uint64(0)
	}
	return a + b
}

func satMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > ^uint64(0)/b {
		return ^uint64(0)
	}
	return a * b
}
