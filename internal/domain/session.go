package domain

import "math/big"

// Session is the durable per-user record keyed by the frame session id.
// It is mutated only by the transition engine; rendering code may refresh
// the balance snapshots after a screen-triggered oracle read.
type Session struct {
	View View

	// Address is the user's wallet address in hex form, empty until the
	// user submits a syntactically valid address.
	Address string

	// Snapshot of the last oracle read, display-only. Never trusted for
	// validation: handlers receive fresh balances from the caller.
	Shares    *big.Int
	Assets    *big.Int
	Allowance *big.Int

	// Pending amounts in smallest units. DepositAmount is set only while
	// the session sits on the approve/deposit/success screens,
	// WithdrawAmount only on the withdraw/success screens.
	DepositAmount  *big.Int
	WithdrawAmount *big.Int
}

// NewSession returns the initial record shown to a session id that has
// no stored state yet.
func NewSession() Session {
	return Session{View: ViewWelcome}
}

// HasAddress reports whether a wallet address has been connected.
func (s *Session) HasAddress() bool {
	return s.Address != ""
}
