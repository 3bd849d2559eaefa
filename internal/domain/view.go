// Package domain defines core data structures used throughout the vault frame server.
package domain

// View identifies the frame screen a session is currently on.
type View string

const (
	// ViewWelcome entry screen with deposit/account shortcuts.
	ViewWelcome View = "welcome"
	// ViewAwaitingAddress wallet address entry screen.
	ViewAwaitingAddress View = "awaiting_address"
	// ViewAccount balances overview for the connected address.
	ViewAccount View = "account"
	// ViewDepositParams deposit amount entry screen.
	ViewDepositParams View = "deposit_params"
	// ViewApproveTx allowance approval confirmation screen.
	ViewApproveTx View = "approve_tx"
	// ViewDepositTx deposit transaction confirmation screen.
	ViewDepositTx View = "deposit_tx"
	// ViewDepositSuccess terminal screen of the deposit flow.
	ViewDepositSuccess View = "deposit_success"
	// ViewWithdrawParams withdraw amount entry screen.
	ViewWithdrawParams View = "withdraw_params"
	// ViewWithdrawTx withdraw transaction confirmation screen.
	ViewWithdrawTx View = "withdraw_tx"
	// ViewWithdrawSuccess terminal screen of the withdraw flow.
	ViewWithdrawSuccess View = "withdraw_success"
)

// String returns the string representation.
func (v View) String() string {
	return string(v)
}

// IsValid checks if the View value is one of the known screens.
func (v View) IsValid() bool {
	switch v {
	case ViewWelcome, ViewAwaitingAddress, ViewAccount,
		ViewDepositParams, ViewApproveTx, ViewDepositTx, ViewDepositSuccess,
		ViewWithdrawParams, ViewWithdrawTx, ViewWithdrawSuccess:
		return true
	}
	return false
}
