package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	sdkmath "cosmossdk.io/math"

	"onchaincasino/internal/games"
)

type State struct {
	Height int64 `json:"height"`

	NextSessionID    uint64 `json:"nextSessionId"`
	NextTournamentID uint64 `json:"nextTournamentId"`

	Players     map[string]*Player      `json:"players"`
	AccountKeys map[string][]byte       `json:"accountKeys,omitempty"` // addr -> ed25519 pubkey (32 bytes)
	NonceMax    map[string]uint64       `json:"nonceMax,omitempty"`    // signer -> last accepted tx.nonce (u64), for replay protection
	Sessions    map[uint64]*GameSession `json:"sessions"`
	Tournaments map[uint64]*Tournament  `json:"tournaments,omitempty"`

	House *HouseState `json:"house"`
}

func NewState() *State {
	return &State{
		Height:           0,
		NextSessionID:    1,
		NextTournamentID: 1,
		Players:          map[string]*Player{},
		AccountKeys:      map[string][]byte{},
		NonceMax:         map[string]uint64{},
		Sessions:         map[uint64]*GameSession{},
		Tournaments:      map[uint64]*Tournament{},
		House:            NewHouseState(),
	}
}

func Load(home string) (*State, error) {
	path := filepath.Join(home, "state.json")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	st.normalize()
	return &st, nil
}

func (s *State) Save(home string) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return fmt.Errorf("mkdir home: %w", err)
	}
	path := filepath.Join(home, "state.json")
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

func (s *State) normalize() {
	if s.Players == nil {
		s.Players = map[string]*Player{}
	}
	if s.AccountKeys == nil {
		s.AccountKeys = map[string][]byte{}
	}
	if s.NonceMax == nil {
		s.NonceMax = map[string]uint64{}
	}
	if s.Sessions == nil {
		s.Sessions = map[uint64]*GameSession{}
	}
	if s.Tournaments == nil {
		s.Tournaments = map[uint64]*Tournament{}
	}
	if s.NextSessionID == 0 {
		s.NextSessionID = 1
	}
	if s.NextTournamentID == 0 {
		s.NextTournamentID = 1
	}
	if s.House == nil {
		s.House = NewHouseState()
	}
	if s.House.Net.IsNil() {
		s.House.Net = sdkmath.ZeroInt()
	}
}

// Clone returns a deep copy of state suitable for staged tx execution.
func (s *State) Clone() (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("state is nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state clone: %w", err)
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode state clone: %w", err)
	}
	out.normalize()
	return &out, nil
}

func (s *State) AppHash() []byte {
	// Deterministic JSON hash: marshal with stable key ordering by serializing
	// a normalized view.
	//
	// Note: encoding/json does NOT guarantee map key order, so we manually
	// normalize maps into slices.
	type playerKV struct {
		Addr   string  `json:"addr"`
		Player *Player `json:"player"`
	}
	type accountKeyKV struct {
		Addr   string `json:"addr"`
		PubKey []byte `json:"pubKey"`
	}
	type nonceKV struct {
		Signer string `json:"signer"`
		Nonce  uint64 `json:"nonce"`
	}
	type sessionKV struct {
		ID      uint64       `json:"id"`
		Session *GameSession `json:"session"`
	}
	type tournamentKV struct {
		ID         uint64      `json:"id"`
		Tournament *Tournament `json:"tournament"`
	}

	players := make([]playerKV, 0, len(s.Players))
	for k, v := range s.Players {
		players = append(players, playerKV{Addr: k, Player: v})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Addr < players[j].Addr })

	accountKeys := make([]accountKeyKV, 0, len(s.AccountKeys))
	for k, v := range s.AccountKeys {
		accountKeys = append(accountKeys, accountKeyKV{Addr: k, PubKey: v})
	}
	sort.Slice(accountKeys, func(i, j int) bool { return accountKeys[i].Addr < accountKeys[j].Addr })

	nonces := make([]nonceKV, 0, len(s.NonceMax))
	for k, v := range s.NonceMax {
		nonces = append(nonces, nonceKV{Signer: k, Nonce: v})
	}
	sort.Slice(nonces, func(i, j int) bool { return nonces[i].Signer < nonces[j].Signer })

	sessions := make([]sessionKV, 0, len(s.Sessions))
	for id, sess := range s.Sessions {
		sessions = append(sessions, sessionKV{ID: id, Session: sess})
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })

	tournaments := make([]tournamentKV, 0, len(s.Tournaments))
	for id, tr := range s.Tournaments {
		tournaments = append(tournaments, tournamentKV{ID: id, Tournament: tr})
	}
	sort.Slice(tournaments, func(i, j int) bool { return tournaments[i].ID < tournaments[j].ID })

	normalized := struct {
		Height           int64          `json:"height"`
		NextSessionID    uint64         `json:"nextSessionId"`
		NextTournamentID uint64         `json:"nextTournamentId"`
		Players          []playerKV     `json:"players"`
		AccountKeys      []accountKeyKV `json:"accountKeys,omitempty"`
		NonceMax         []nonceKV      `json:"nonceMax,omitempty"`
		Sessions         []sessionKV    `json:"sessions"`
		Tournaments      []tournamentKV `json:"tournaments,omitempty"`
		House            *HouseState    `json:"house"`
	}{
		Height:           s.Height,
		NextSessionID:    s.NextSessionID,
		NextTournamentID: s.NextTournamentID,
		Players:          players,
		AccountKeys:      accountKeys,
		NonceMax:         nonces,
		Sessions:         sessions,
		Tournaments:      tournaments,
		House:            s.House,
	}

	b, _ := json.Marshal(normalized)
	sum := sha256.Sum256(b)
	return sum[:]
}

// ---- Players ----

// ChipPool selects which of a player's two balances a session plays with.
type ChipPool string

const (
	PoolCash       ChipPool = "cash"
	PoolTournament ChipPool = "tournament"
)

type Player struct {
	Name string `json:"name,omitempty"`

	Cash            uint64 `json:"cash"`
	TournamentChips uint64 `json:"tournamentChips,omitempty"`

	// Consumable inventory.
	Shields uint64 `json:"shields,omitempty"`
	Doubles uint64 `json:"doubles,omitempty"`

	// Armed toggles are consumed by the next qualifying terminal outcome.
	ShieldArmed bool `json:"shieldArmed,omitempty"`
	DoubleArmed bool `json:"doubleArmed,omitempty"`
	SuperArmed  bool `json:"superArmed,omitempty"`

	// AuraStreak counts consecutive winning sessions; a push leaves it
	// untouched, a loss resets it.
	AuraStreak uint32 `json:"auraStreak,omitempty"`

	// TournamentID is the tournament the player is entered in, 0 for none.
	TournamentID uint64 `json:"tournamentId,omitempty"`

	// Rate limiting window, in block heights.
	WindowStart int64  `json:"windowStart,omitempty"`
	WindowMoves uint32 `json:"windowMoves,omitempty"`

	// Tournament entry cap window, in block heights.
	EntryWindowStart int64  `json:"entryWindowStart,omitempty"`
	EntryCount       uint32 `json:"entryCount,omitempty"`
}

func (p *Player) Balance(pool ChipPool) uint64 {
	if pool == PoolTournament {
		return p.TournamentChips
	}
	return p.Cash
}

func (p *Player) Credit(pool ChipPool, amount uint64) error {
	bal := p.Balance(pool)
	if bal > ^uint64(0)-amount {
		return fmt.Errorf("balance overflow: have=%d add=%d", bal, amount)
	}
	p.setBalance(pool, bal+amount)
	return nil
}

func (p *Player) Debit(pool ChipPool, amount uint64) error {
	bal := p.Balance(pool)
	if bal < amount {
		return fmt.Errorf("insufficient funds: have=%d need=%d", bal, amount)
	}
	p.setBalance(pool, bal-amount)
	return nil
}

func (p *Player) setBalance(pool ChipPool, v uint64) {
	if pool == PoolTournament {
		p.TournamentChips = v
	} else {
		p.Cash = v
	}
}

// ---- Sessions ----

type GameSession struct {
	ID    uint64     `json:"id"`
	Owner string     `json:"owner"`
	Game  games.Type `json:"game"`
	Pool  ChipPool   `json:"pool"`

	// Stake is the amount escrowed at session start.
	Stake uint64 `json:"stake"`
	// Escrowed is the cumulative amount charged to the player for this
	// session: the stake plus every positive mid-round adjustment.
	Escrowed uint64 `json:"escrowed"`

	// MoveIndex keys the per-move RNG stream; it counts applied moves.
	MoveIndex uint32 `json:"moveIndex"`

	Blob     []byte `json:"blob"`
	Complete bool   `json:"complete"`

	// Super overlays frozen at session start, empty when super mode was not
	// armed.
	SuperSet games.SuperSet `json:"superSet,omitempty"`

	// Armed flags captured when the session began; consumed at resolution.
	ShieldArmed bool `json:"shieldArmed,omitempty"`
	DoubleArmed bool `json:"doubleArmed,omitempty"`

	// TournamentID links a tournament-pool session, 0 otherwise.
	TournamentID uint64 `json:"tournamentId,omitempty"`

	// StartHeight is the block that created the session.
	StartHeight int64 `json:"startHeight"`
}

// ---- Tournaments ----

type TournamentPhase string

const (
	TournamentRegistration TournamentPhase = "registration"
	TournamentActive       TournamentPhase = "active"
	TournamentComplete     TournamentPhase = "complete"
)

type Tournament struct {
	ID    uint64          `json:"id"`
	Name  string          `json:"name,omitempty"`
	Phase TournamentPhase `json:"phase"`

	// EntryFee is charged in cash at join; StartingChips is the tournament
	// balance each entrant begins with.
	EntryFee      uint64 `json:"entryFee"`
	StartingChips uint64 `json:"startingChips"`

	// Entrants in join order; scoring reads their tournament balances.
	Entrants []string `json:"entrants,omitempty"`

	// PrizePool accumulates entry fees plus any house subsidy.
	PrizePool uint64 `json:"prizePool"`

	CreatedHeight int64 `json:"createdHeight"`
	StartHeight   int64 `json:"startHeight,omitempty"`
	EndHeight     int64 `json:"endHeight,omitempty"`
}

func (t *Tournament) HasEntrant(addr string) bool {
	for _, e := range t.Entrants {
		if e == addr {
			return true
		}
	}
	return false
}

// ---- House ----

// HouseState aggregates the house side of every cash settlement plus the
// progressive jackpot pools.
type HouseState struct {
	// Net is the cumulative house profit (positive) or loss (negative) in
	// cash chips. Tournament-chip flows never touch it.
	Net sdkmath.Int `json:"net"`

	// Issued counts every cash chip ever minted.
	Issued uint64 `json:"issued,omitempty"`

	// Progressive pools. Each never pays below its floor.
	JackpotMajor uint64 `json:"jackpotMajor"`
	JackpotMinor uint64 `json:"jackpotMinor"`
}

const (
	// JackpotMajorFloor reseeds the major pool after a hit.
	JackpotMajorFloor uint64 = 50_000
	// JackpotMinorFloor reseeds the minor pool after a hit.
	JackpotMinorFloor uint64 = 5_000
)

func NewHouseState() *HouseState {
	return &HouseState{
		Net:          sdkmath.ZeroInt(),
		JackpotMajor: JackpotMajorFloor,
		JackpotMinor: JackpotMinorFloor,
	}
}

// RecordHouseGain books chips flowing from players to the house.
func (h *HouseState) RecordHouseGain(amount uint64) {
	h.Net = h.Net.Add(sdkmath.NewIntFromUint64(amount))
}

// RecordHousePayout books chips flowing from the house to players.
func (h *HouseState) RecordHousePayout(amount uint64) {
	h.Net = h.Net.Sub(sdkmath.NewIntFromUint64(amount))
}
