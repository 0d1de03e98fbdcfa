package codec

import (
	"encoding/json"
	"fmt"
)

// TxEnvelope is the v0 transaction container.
//
// CometBFT transactions are opaque bytes. For v0 localnet we use JSON-encoded
// txs to move fast; this is NOT the final protocol encoding.
type TxEnvelope struct {
	// Basic routing.
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// v0 tx auth (optional):
	// - Nonce: included in the signed message for replay protection (must increase per signer).
	// - Signer: logical signer id (the player address).
	// - Sig: Ed25519 signature over (type, nonce, signer, sha256(value)).
	//
	// Note: This is still a scaffold; it is NOT the final protocol encoding.
	Nonce  string `json:"nonce,omitempty"`
	Signer string `json:"signer,omitempty"`
	Sig    []byte `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// ---- Bank ----

type BankMintTx struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type BankSendTx struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// ---- Auth (v0) ----

// v0: account pubkey registration for tx authentication.
type AuthRegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)
	Name    string `json:"name,omitempty"`
}

// ---- Casino ----

// CasinoStartGameTx opens a session. Stake is the ante or main bet for
// games funded at entry; move-funded games pass zero and wager per move.
// SessionID is chosen by the client; zero asks the ledger to assign one.
type CasinoStartGameTx struct {
	Player    string `json:"player"`
	Game      string `json:"game"` // wire name, e.g. "blackjack"
	Pool      string `json:"pool,omitempty"` // "cash" (default) or "tournament"
	Stake     uint64 `json:"stake,omitempty"`
	SessionID uint64 `json:"sessionId,omitempty"`
}

// CasinoMoveTx applies one move to an open session. Payload is the
// game-specific action document, passed through opaquely.
type CasinoMoveTx struct {
	Player    string          `json:"player"`
	SessionID uint64          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload"`
}

// CasinoBuyTx purchases consumables with cash chips.
type CasinoBuyTx struct {
	Player string `json:"player"`
	Item   string `json:"item"` // "shield" | "double"
	Count  uint64 `json:"count"`
}

// CasinoToggleTx arms or disarms a consumable or super mode for upcoming
// sessions. Used by casino/toggle_shield, casino/toggle_double and
// casino/toggle_super.
type CasinoToggleTx struct {
	Player  string `json:"player"`
	Enabled bool   `json:"enabled"`
}

// ---- Tournaments ----

type TournamentCreateTx struct {
	Creator       string `json:"creator"`
	Name          string `json:"name,omitempty"`
	EntryFee      uint64 `json:"entryFee"`
	StartingChips uint64 `json:"startingChips"`
}

type TournamentJoinTx struct {
	Player       string `json:"player"`
	TournamentID uint64 `json:"tournamentId"`
}

type TournamentStartTx struct {
	Caller       string `json:"caller"`
	TournamentID uint64 `json:"tournamentId"`
}

type TournamentEndTx struct {
	Caller       string `json:"caller"`
	TournamentID uint64 `json:"tournamentId"`
}
