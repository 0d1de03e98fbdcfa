package games

import errorsmod "cosmossdk.io/errors"

// Game-rule sentinel errors. Codes live in the shared "casino" codespace;
// the ledger layer registers its own (non-overlapping) codes in internal/app.
var (
	ErrInvalidMove     = errorsmod.Register(Codespace, 20, "invalid move")
	ErrInvalidPayload  = errorsmod.Register(Codespace, 21, "invalid move payload")
	ErrAlreadyComplete = errorsmod.Register(Codespace, 22, "session already complete")
	ErrMalformedState  = errorsmod.Register(Codespace, 23, "malformed session state")
	ErrShoeExhausted   = errorsmod.Register(Codespace, 24, "shoe exhausted")
	ErrUnknownGame     = errorsmod.Register(Codespace, 25, "unknown game type")
)

// Codespace tags every error this module family emits.
const Codespace = "casino"
