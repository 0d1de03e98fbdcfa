package app

import (
	errorsmod "cosmossdk.io/errors"

	"onchaincasino/internal/games"
)

// Ledger-level failure codes. The games package owns 20+ in the same
// codespace; these stay below it so the enumeration reads as one table.
var (
	ErrPlayerNotFound      = errorsmod.Register(games.Codespace, 1, "player not found")
	ErrPlayerExists        = errorsmod.Register(games.Codespace, 2, "player already registered")
	ErrInsufficientFunds   = errorsmod.Register(games.Codespace, 3, "insufficient funds")
	ErrInvalidBet          = errorsmod.Register(games.Codespace, 4, "invalid bet")
	ErrSessionExists       = errorsmod.Register(games.Codespace, 5, "session already exists")
	ErrSessionNotFound     = errorsmod.Register(games.Codespace, 6, "session not found")
	ErrSessionNotOwned     = errorsmod.Register(games.Codespace, 7, "session not owned by caller")
	ErrSessionComplete     = errorsmod.Register(games.Codespace, 8, "session already complete")
	ErrRateLimited         = errorsmod.Register(games.Codespace, 9, "rate limited")
	ErrTournamentNotFound  = errorsmod.Register(games.Codespace, 10, "tournament not found")
	ErrTournamentPhase     = errorsmod.Register(games.Codespace, 11, "tournament not in required phase")
	ErrAlreadyJoined       = errorsmod.Register(games.Codespace, 12, "already joined tournament")
	ErrEntryLimit          = errorsmod.Register(games.Codespace, 13, "tournament entry limit reached")
	ErrInvalidTx           = errorsmod.Register(games.Codespace, 14, "invalid transaction")
	ErrUnauthorized        = errorsmod.Register(games.Codespace, 15, "unauthorized")
)
