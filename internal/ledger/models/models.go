// Package models holds the credit ledger's data types.
package models

// DeductOutcome classifies a deduction attempt. Running out of credits is a
// normal business outcome, distinct from a store or network failure; callers
// must branch on all three.
type DeductOutcome string

const (
	// OutcomeOK means the deduction was applied.
	OutcomeOK DeductOutcome = "ok"

	// OutcomeInsufficient means the balance could not cover the amount.
	// Nothing was deducted.
	OutcomeInsufficient DeductOutcome = "insufficient"

	// OutcomeTransportError means the attempt never reached a verdict.
	// Nothing was deducted.
	OutcomeTransportError DeductOutcome = "transport_error"
)

// Deduction is the result of a deduction attempt. Balance is meaningful only
// when Outcome is OutcomeOK.
type Deduction struct {
	Outcome DeductOutcome
	Balance int
}

// Applied reports whether credits were actually deducted.
func (d Deduction) Applied() bool {
	return d.Outcome == OutcomeOK
}
