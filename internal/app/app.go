package app

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"

	"onchaincasino/internal/codec"
	"onchaincasino/internal/state"
)

const (
	AppVersion uint64 = 1

	blockSeedDomain = "occ/block-seed/v1"
)

type CasinoApp struct {
	*abci.BaseApplication

	home   string
	logger log.Logger

	mu       sync.Mutex
	st       *state.State
	lastHash []byte

	// blockSeed is derived per FinalizeBlock and keys every RNG stream in
	// that block.
	blockSeed []byte

	// kv mirrors committed state for raw key queries.
	kv *state.MemKV
}

func New(home string, logger log.Logger) (*CasinoApp, error) {
	appHome := filepath.Join(home, "app")
	st, err := state.Load(appHome)
	if err != nil {
		return nil, err
	}
	a := &CasinoApp{
		BaseApplication: abci.NewBaseApplication(),
		home:            home,
		logger:          logger.With("module", "casino-app"),
		st:              st,
		lastHash:        st.AppHash(),
		kv:              state.NewMemKV(),
	}
	if err := st.WriteTo(a.kv); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *CasinoApp) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "OCC (v0)",
		Version:          "v0",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.st.Height,
		LastBlockAppHash: a.lastHash,
	}, nil
}

func (a *CasinoApp) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	_, err := codec.DecodeTxEnvelope(req.Tx)
	if err != nil {
		return &abci.CheckTxResponse{Code: 1, Log: err.Error()}, nil
	}
	// Structural validation only; auth and economics run at finalize time.
	return &abci.CheckTxResponse{Code: 0}, nil
}

func (a *CasinoApp) InitChain(_ context.Context, _ *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	// v0: no special genesis handling.
	return &abci.InitChainResponse{}, nil
}

// blockSeedFor derives the verifiable per-block seed every RNG stream in
// the block is keyed from. It depends only on consensus-agreed inputs.
func blockSeedFor(height int64, blockHash []byte) []byte {
	h := sha256.New()
	h.Write([]byte(blockSeedDomain))
	h.Write(blockHash)
	var hb [8]byte
	binary.BigEndian.PutUint64(hb[:], uint64(height))
	h.Write(hb[:])
	return h.Sum(nil)
}

func (a *CasinoApp) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.Height = req.Height
	a.blockSeed = blockSeedFor(req.Height, req.Hash)

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		res := a.deliverTx(txBytes, req.Height)
		if res.Code != 0 {
			a.logger.Info("tx rejected", "height", req.Height, "code", res.Code, "log", res.Log)
		}
		txResults = append(txResults, res)
	}

	a.lastHash = a.st.AppHash()

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *CasinoApp) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	appHome := filepath.Join(a.home, "app")
	if err := a.st.Save(appHome); err != nil {
		// CometBFT expects Commit to not crash; return error so node halts loudly.
		return nil, err
	}
	a.kv = state.NewMemKV()
	if err := a.st.WriteTo(a.kv); err != nil {
		return nil, err
	}
	return &abci.CommitResponse{}, nil
}

func (a *CasinoApp) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Paths:
	// - /player/<addr>
	// - /session/<id>
	// - /tournament/<id>
	// - /house
	// - /leaderboard
	// - /kv/<key>
	path := strings.TrimSpace(req.Path)
	switch {
	case path == "/house":
		b, _ := json.Marshal(a.st.House)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	case path == "/leaderboard":
		b, _ := json.Marshal(cashLeaderboard(a.st))
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	case strings.HasPrefix(path, "/player/"):
		addr := strings.TrimPrefix(path, "/player/")
		p, ok := a.st.Players[addr]
		if !ok {
			return &abci.QueryResponse{Code: 1, Log: "player not found", Height: a.st.Height}, nil
		}
		b, _ := json.Marshal(p)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	case strings.HasPrefix(path, "/session/"):
		raw := strings.TrimPrefix(path, "/session/")
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return &abci.QueryResponse{Code: 1, Log: "invalid session id", Height: a.st.Height}, nil
		}
		sess, ok := a.st.Sessions[id]
		if !ok {
			return &abci.QueryResponse{Code: 1, Log: "session not found", Height: a.st.Height}, nil
		}
		b, _ := json.Marshal(sess)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	case strings.HasPrefix(path, "/tournament/"):
		raw := strings.TrimPrefix(path, "/tournament/")
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return &abci.QueryResponse{Code: 1, Log: "invalid tournament id", Height: a.st.Height}, nil
		}
		t, ok := a.st.Tournaments[id]
		if !ok {
			return &abci.QueryResponse{Code: 1, Log: "tournament not found", Height: a.st.Height}, nil
		}
		b, _ := json.Marshal(t)
		return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
	case strings.HasPrefix(path, "/kv/"):
		key := strings.TrimPrefix(path, "/kv/")
		v, ok := a.kv.Get(key)
		if !ok {
			return &abci.QueryResponse{Code: 1, Log: "key not found", Height: a.st.Height}, nil
		}
		return &abci.QueryResponse{Code: 0, Value: v, Height: a.st.Height}, nil
	default:
		return &abci.QueryResponse{Code: 1, Log: "unknown query path", Height: a.st.Height}, nil
	}
}

// leaderboardEntry is the query shape for ranked standings.
type leaderboardEntry struct {
	Addr  string `json:"addr"`
	Name  string `json:"name,omitempty"`
	Chips uint64 `json:"chips"`
}

// cashLeaderboard is a derived view: ranked by cash, ties broken by
// address so the ordering is deterministic.
func cashLeaderboard(st *state.State) []leaderboardEntry {
	out := make([]leaderboardEntry, 0, len(st.Players))
	for addr, p := range st.Players {
		out = append(out, leaderboardEntry{Addr: addr, Name: p.Name, Chips: p.Cash})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Chips != out[j].Chips {
			return out[i].Chips > out[j].Chips
		}
		return out[i].Addr < out[j].Addr
	})
	return out
}

// deliverTx stages one instruction on a clone of state; anything short of
// full success discards the clone, so failed txs cannot leave partial
// writes behind.
func (a *CasinoApp) deliverTx(txBytes []byte, height int64) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return errResult(ErrInvalidTx.Wrap(err.Error()))
	}

	clone, err := a.st.Clone()
	if err != nil {
		return errResult(ErrInvalidTx.Wrap(err.Error()))
	}
	res := a.routeTx(clone, env, height)
	if res.Code == 0 {
		a.st = clone
	}
	return res
}

func (a *CasinoApp) routeTx(st *state.State, env codec.TxEnvelope, height int64) *abci.ExecTxResult {
	switch env.Type {
	case "bank/mint":
		var msg codec.BankMintTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errResult(ErrInvalidTx.Wrap("bad bank/mint value"))
		}
		return handleBankMint(st, msg)

	case "bank/send":
		var msg codec.BankSendTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errResult(ErrInvalidTx.Wrap("bad bank/send value"))
		}
		if err := requireAccountAuth(st, env, msg.From); err != nil {
			return errResult(err)
		}
		if err := checkAndBumpNonce(st, env); err != nil {
			return errResult(err)
		}
		return handleBankSend(st, msg)

	case "auth/register_account":
		var msg codec.AuthRegisterAccountTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errResult(ErrInvalidTx.Wrap("bad auth/register_account value"))
		}
		if err := requireRegisterAccountAuth(env, msg); err != nil {
			return errResult(err)
		}
		if err := checkAndBumpNonce(st, env); err != nil {
			return errResult(err)
		}
		return handleRegisterAccount(st, msg)

	case "casino/start_game":
		var msg codec.CasinoStartGameTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errResult(ErrInvalidTx.Wrap("bad casino/start_game value"))
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return errResult(err)
		}
		if err := checkAndBumpNonce(st, env); err != nil {
			return errResult(err)
		}
		return handleStartGame(st, msg, height, a.blockSeed)

	case "casino/move":
		var msg codec.CasinoMoveTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errResult(ErrInvalidTx.Wrap("bad casino/move value"))
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return errResult(err)
		}
		if err := checkAndBumpNonce(st, env); err != nil {
			return errResult(err)
		}
		return handleMove(st, msg, a.blockSeed)

	case "casino/buy":
		var msg codec.CasinoBuyTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errResult(ErrInvalidTx.Wrap("bad casino/buy value"))
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return errResult(err)
		}
		if err := checkAndBumpNonce(st, env); err != nil {
			return errResult(err)
		}
		return handleBuy(st, msg)

	case "casino/toggle_shield", "casino/toggle_double", "casino/toggle_super":
		var msg codec.CasinoToggleTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errResult(ErrInvalidTx.Wrapf("bad %s value", env.Type))
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return errResult(err)
		}
		if err := checkAndBumpNonce(st, env); err != nil {
			return errResult(err)
		}
		return handleToggle(st, env.Type, msg)

	case "tournament/create":
		var msg codec.TournamentCreateTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errResult(ErrInvalidTx.Wrap("bad tournament/create value"))
		}
		if err := requireAccountAuth(st, env, msg.Creator); err != nil {
			return errResult(err)
		}
		if err := checkAndBumpNonce(st, env); err != nil {
			return errResult(err)
		}
		return handleTournamentCreate(st, msg, height)

	case "tournament/join":
		var msg codec.TournamentJoinTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errResult(ErrInvalidTx.Wrap("bad tournament/join value"))
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return errResult(err)
		}
		if err := checkAndBumpNonce(st, env); err != nil {
			return errResult(err)
		}
		return handleTournamentJoin(st, msg, height)

	case "tournament/start":
		var msg codec.TournamentStartTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errResult(ErrInvalidTx.Wrap("bad tournament/start value"))
		}
		if err := requireAccountAuth(st, env, msg.Caller); err != nil {
			return errResult(err)
		}
		if err := checkAndBumpNonce(st, env); err != nil {
			return errResult(err)
		}
		return handleTournamentStart(st, msg, height)

	case "tournament/end":
		var msg codec.TournamentEndTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errResult(ErrInvalidTx.Wrap("bad tournament/end value"))
		}
		if err := requireAccountAuth(st, env, msg.Caller); err != nil {
			return errResult(err)
		}
		if err := checkAndBumpNonce(st, env); err != nil {
			return errResult(err)
		}
		return handleTournamentEnd(st, msg, height)

	default:
		return errResult(ErrInvalidTx.Wrapf("unknown tx type: %s", env.Type))
	}
}

func errResult(err error) *abci.ExecTxResult {
	space, code, msg := errorsmod.ABCIInfo(err, false)
	return &abci.ExecTxResult{Code: code, Codespace: space, Log: msg}
}

func okEvent(typ string, attrs map[string]string) *abci.ExecTxResult {
	ev := abci.Event{Type: typ}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: k, Value: attrs[k], Index: true})
	}
	return &abci.ExecTxResult{
		Code:   0,
		Events: []abci.Event{ev},
	}
}
