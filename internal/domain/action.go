package domain

import "math/big"

// Action is a single user interaction posted by the frame client:
// which button was pressed on the currently rendered screen, plus the
// free-text input if that screen had an input field.
type Action struct {
	// SessionID is the opaque numeric id keying the session store.
	SessionID uint64

	// Button is the 1-based index of the pressed button, relative to the
	// button list of the screen the user was on.
	Button int

	// Input is the raw free-text entered by the user, if any.
	Input string

	// TransactionID is set when the action follows a submitted wallet
	// transaction (approve/deposit/redeem confirmations).
	TransactionID string
}

// Balances is a point-in-time oracle read for one address against one
// vault, all amounts in smallest units.
type Balances struct {
	// Shares vault share balance of the user.
	Shares *big.Int
	// Assets underlying asset balance of the user.
	Assets *big.Int
	// Allowance amount the vault may pull from the user's asset balance.
	Allowance *big.Int
}
