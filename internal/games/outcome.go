package games

import "fmt"

// OutcomeKind enumerates every way a state machine call can resolve. The
// set is closed: the ledger layer interprets it with one exhaustive switch
// and nothing else in the repository assigns meaning to these values.
type OutcomeKind uint8

const (
	// KindContinue: session stays open, no balance effect.
	KindContinue OutcomeKind = iota
	// KindContinueWithUpdate: session stays open; Delta is a signed chip
	// adjustment (positive = additional escrow, negative = immediate credit,
	// e.g. a side bet settled before the main wager resolves).
	KindContinueWithUpdate
	// KindWin: terminal; credit Amount.
	KindWin
	// KindPush: terminal; refund everything escrowed.
	KindPush
	// KindLoss: terminal; forfeit the escrowed stake. A shield refunds it.
	KindLoss
	// KindLossWithExtraDeduction: terminal loss that still owes Extra, an
	// increase the game committed to mid-round but never charged.
	KindLossWithExtraDeduction
	// KindLossPreDeducted: terminal loss of Amount that was already escrowed
	// incrementally via ContinueWithUpdate; the ledger must not charge again.
	KindLossPreDeducted
	// KindLossPreDeductedWithExtraDeduction: both of the above.
	KindLossPreDeductedWithExtraDeduction
	// KindWinWithExtraDeduction: terminal win of Amount that still owes one
	// last uncharged increase of Extra.
	KindWinWithExtraDeduction
)

// Outcome is what a game state machine decided, free of any balance
// bookkeeping. Amounts are totals credited, not profit.
type Outcome struct {
	Kind   OutcomeKind
	Amount uint64 // credit for Win variants; escrowed total for pre-deducted losses
	Extra  uint64 // uncharged final deduction
	Delta  int64  // signed mid-round adjustment for ContinueWithUpdate
}

func Continue() Outcome                 { return Outcome{Kind: KindContinue} }
func ContinueWithUpdate(d int64) Outcome {
	return Outcome{Kind: KindContinueWithUpdate, Delta: d}
}
func Win(amount uint64) Outcome { return Outcome{Kind: KindWin, Amount: amount} }
func Push() Outcome             { return Outcome{Kind: KindPush} }
func Loss() Outcome             { return Outcome{Kind: KindLoss} }
func LossWithExtraDeduction(extra uint64) Outcome {
	return Outcome{Kind: KindLossWithExtraDeduction, Extra: extra}
}
func LossPreDeducted(total uint64) Outcome {
	return Outcome{Kind: KindLossPreDeducted, Amount: total}
}
func LossPreDeductedWithExtraDeduction(total, extra uint64) Outcome {
	return Outcome{Kind: KindLossPreDeductedWithExtraDeduction, Amount: total, Extra: extra}
}
func WinWithExtraDeduction(amount, extra uint64) Outcome {
	return Outcome{Kind: KindWinWithExtraDeduction, Amount: amount, Extra: extra}
}

// Terminal reports whether the session is finished after this outcome.
func (o Outcome) Terminal() bool {
	switch o.Kind {
	case KindContinue, KindContinueWithUpdate:
		return false
	default:
		return true
	}
}

// IsLoss reports whether a shield may apply.
func (o Outcome) IsLoss() bool {
	switch o.Kind {
	case KindLoss, KindLossWithExtraDeduction, KindLossPreDeducted, KindLossPreDeductedWithExtraDeduction:
		return true
	default:
		return false
	}
}

// IsWin reports whether a double may apply.
func (o Outcome) IsWin() bool {
	return o.Kind == KindWin || o.Kind == KindWinWithExtraDeduction
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindContinue:
		return "continue"
	case KindContinueWithUpdate:
		return fmt.Sprintf("continue(delta=%d)", o.Delta)
	case KindWin:
		return fmt.Sprintf("win(%d)", o.Amount)
	case KindPush:
		return "push"
	case KindLoss:
		return "loss"
	case KindLossWithExtraDeduction:
		return fmt.Sprintf("loss(extra=%d)", o.Extra)
	case KindLossPreDeducted:
		return fmt.Sprintf("loss(prededucted=%d)", o.Amount)
	case KindLossPreDeductedWithExtraDeduction:
		return fmt.Sprintf("loss(prededucted=%d,extra=%d)", o.Amount, o.Extra)
	case KindWinWithExtraDeduction:
		return fmt.Sprintf("win(%d,extra=%d)", o.Amount, o.Extra)
	default:
		return fmt.Sprintf("outcome(%d)", o.Kind)
	}
}

// ProgressiveHit reports whether a session hit a progressive jackpot tier.
// The pools themselves live in the house aggregate; games only report the
// hit so the ledger can pay it.
type ProgressiveHit uint8

const (
	ProgressiveNone ProgressiveHit = iota
	// ProgressiveMajor pays the full pool (which then resets to its floor).
	ProgressiveMajor
	// ProgressiveMinor pays a fixed reduced amount out of the pool.
	ProgressiveMinor
)

// Result couples an outcome with the annotations the ledger needs to apply
// super-mode multipliers and progressive jackpots.
type Result struct {
	Outcome Outcome

	// WinningCards are the table identities (0..51) of the cards composing
	// the paying hand, for card-keyed super-mode matching.
	WinningCards []uint8

	// WinningNumber is the spun pocket, dice total, or other number-keyed
	// super-mode identifier, when the game has one.
	WinningNumber *uint8

	// Progressive reports a progressive jackpot hit, if any.
	Progressive ProgressiveHit

	// ProgressiveStake is the amount wagered on the progressive this
	// session, contributed to the pool by the ledger.
	ProgressiveStake uint64
}

func resultFor(o Outcome) Result {
	return Result{Outcome: o}
}
