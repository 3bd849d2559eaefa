// Package engine implements the pure view state machine behind the vault
// frame. Given the previous session record and the user's latest action it
// computes the next record; it performs no I/O and never blocks. Balance
// reads and persistence are the caller's job.
package engine

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/vaultframe/internal/domain"
)

// Contract violations. These mean the caller (or a corrupted record) broke
// the protocol and the request must abort; they are never shown as inline
// validation errors.
var (
	ErrUnknownView      = errors.New("unknown view")
	ErrButtonOutOfRange = errors.New("button index out of range")
	ErrBalancesRequired = errors.New("balances required for this transition")
)

// RejectReason classifies an expected user-input validation failure.
type RejectReason string

const (
	RejectInvalidAddress RejectReason = "invalid_address"
	RejectInvalidAmount  RejectReason = "invalid_amount"
)

// Result is the outcome of a transition. Rejected results keep the view
// unchanged so the presentation layer re-renders the same screen with an
// inline error; it branches on Rejected directly, not on view equality.
type Result struct {
	Session  domain.Session
	Rejected bool
	Reason   RejectReason
}

func accepted(sess domain.Session) (Result, error) {
	return Result{Session: sess}, nil
}

func rejected(sess domain.Session, reason RejectReason) (Result, error) {
	return Result{Session: sess, Rejected: true, Reason: reason}, nil
}

// handler advances one session record in response to one button press.
// input is the trimmed free-text, bal the fresh oracle read supplied by
// the caller (nil when the screen does not validate against balances).
type handler func(e *Engine, sess domain.Session, input string, bal *domain.Balances) (Result, error)

// viewButtons associates every view with its ordered button handlers.
// The index into the slice is the 0-based button position; an incoming
// 1-based button index outside the slice is a contract violation.
var viewButtons = map[domain.View][]handler{
	domain.ViewWelcome: {
		(*Engine).welcomeDeposit,
		(*Engine).welcomeViewAccount,
		(*Engine).linkButton,
	},
	domain.ViewAwaitingAddress: {
		(*Engine).submitAddress,
	},
	domain.ViewAccount: {
		(*Engine).accountDeposit,
		(*Engine).accountWithdraw,
		(*Engine).switchAccount,
	},
	domain.ViewDepositParams: {
		(*Engine).backToAccount,
		(*Engine).submitDepositAmount,
	},
	domain.ViewApproveTx: {
		(*Engine).cancelDeposit,
		(*Engine).approveConfirmed,
	},
	domain.ViewDepositTx: {
		(*Engine).cancelDeposit,
		(*Engine).depositConfirmed,
	},
	domain.ViewDepositSuccess: {
		(*Engine).finishDeposit,
	},
	domain.ViewWithdrawParams: {
		(*Engine).backToAccount,
		(*Engine).submitWithdrawAmount,
		(*Engine).withdrawAll,
	},
	domain.ViewWithdrawTx: {
		(*Engine).cancelWithdraw,
		(*Engine).withdrawConfirmed,
	},
	domain.ViewWithdrawSuccess: {
		(*Engine).finishWithdraw,
	},
}

// ButtonCount returns the number of buttons the given view declares.
func ButtonCount(view domain.View) (int, error) {
	handlers, ok := viewButtons[view]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownView, "view %q", view)
	}
	return len(handlers), nil
}

func init() {
	// every known view must declare its button list; a view without
	// handlers would make any button press a silent fallthrough.
	for _, view := range []domain.View{
		domain.ViewWelcome, domain.ViewAwaitingAddress, domain.ViewAccount,
		domain.ViewDepositParams, domain.ViewApproveTx, domain.ViewDepositTx,
		domain.ViewDepositSuccess, domain.ViewWithdrawParams,
		domain.ViewWithdrawTx, domain.ViewWithdrawSuccess,
	} {
		handlers, ok := viewButtons[view]
		if !ok || len(handlers) == 0 {
			panic("engine: view " + view.String() + " has no button handlers")
		}
	}
}

// Engine is the transition function for a single vault. It carries only
// static vault parameters (the asset's decimal exponent); all per-request
// data arrives through Transition.
type Engine struct {
	vault domain.Vault
}

// New creates a transition engine for the given vault.
func New(vault domain.Vault) *Engine {
	return &Engine{vault: vault}
}

// Transition computes the next session record. A nil action is the first
// visit and returns the record unchanged. The caller must supply a fresh
// oracle read when the current view validates amounts against balances
// (deposit and withdraw parameter screens).
func (e *Engine) Transition(sess domain.Session, act *domain.Action, bal *domain.Balances) (Result, error) {
	if act == nil {
		return accepted(sess)
	}

	handlers, ok := viewButtons[sess.View]
	if !ok {
		return Result{}, errors.Wrapf(ErrUnknownView, "view %q", sess.View)
	}

	if act.Button < 1 || act.Button > len(handlers) {
		return Result{}, errors.Wrapf(ErrButtonOutOfRange,
			"view %s declares %d buttons, got button %d", sess.View, len(handlers), act.Button)
	}

	return handlers[act.Button-1](e, sess, strings.TrimSpace(act.Input), bal)
}

// NeedsBalances reports whether transitions out of the given view must be
// supplied with a fresh oracle read.
func NeedsBalances(view domain.View) bool {
	return view == domain.ViewDepositParams || view == domain.ViewWithdrawParams
}

func (e *Engine) welcomeDeposit(sess domain.Session, _ string, _ *domain.Balances) (Result, error) {
	if sess.HasAddress() {
		sess.View = domain.ViewDepositParams
	} else {
		sess.View = domain.ViewAwaitingAddress
	}
	return accepted(sess)
}

func (e *Engine) welcomeViewAccount(sess domain.Session, _ string, _ *domain.Balances) (Result, error) {
	if sess.HasAddress() {
		sess.View = domain.ViewAccount
	} else {
		sess.View = domain.ViewAwaitingAddress
	}
	return accepted(sess)
}

// linkButton covers external-link buttons: they never post back in a
// well-behaved client, but a replayed press must not move the session.
func (e *Engine) linkButton(sess domain.Session, _ string, _ *domain.Balances) (Result, error) {
	return accepted(sess)
}

func (e *Engine) submitAddress(sess domain.Session, input string, _ *domain.Balances) (Result, error) {
	if !common.IsHexAddress(input) {
		return rejected(sess, RejectInvalidAddress)
	}

	sess.Address = common.HexToAddress(input).Hex()
	sess.View = domain.ViewAccount
	return accepted(sess)
}

func (e *Engine) accountDeposit(sess domain.Session, _ string, _ *domain.Balances) (Result, error) {
	sess.View = domain.ViewDepositParams
	return accepted(sess)
}

func (e *Engine) accountWithdraw(sess domain.Session, _ string, _ *domain.Balances) (Result, error) {
	sess.View = domain.ViewWithdrawParams
	return accepted(sess)
}

// switchAccount disconnects the wallet. The snapshots belong to the old
// address, so they go too.
func (e *Engine) switchAccount(sess domain.Session, _ string, _ *domain.Balances) (Result, error) {
	sess.Address = ""
	sess.Shares = nil
	sess.Assets = nil
	sess.Allowance = nil
	sess.View = domain.ViewAwaitingAddress
	return accepted(sess)
}

func (e *Engine) backToAccount(sess domain.Session, _ string, _ *domain.Balances) (Result, error) {
	sess.View = domain.ViewAccount
	return accepted(sess)
}

func (e *Engine) submitDepositAmount(sess domain.Session, input string, bal *domain.Balances) (Result, error) {
	if bal == nil || bal.Assets == nil || bal.Allowance == nil {
		return Result{}, errors.Wrap(ErrBalancesRequired, "deposit amount validation")
	}

	amount, err := ParseAmount(input, e.vault.Asset.Decimals)
	if err != nil {
		return rejected(sess, RejectInvalidAmount)
	}
	if amount.Cmp(bal.Assets) > 0 {
		return rejected(sess, RejectInvalidAmount)
	}

	sess.DepositAmount = amount
	if bal.Allowance.Cmp(amount) >= 0 {
		sess.View = domain.ViewDepositTx
	} else {
		sess.View = domain.ViewApproveTx
	}
	return accepted(sess)
}

func (e *Engine) cancelDeposit(sess domain.Session, _ string, _ *domain.Balances) (Result, error) {
	sess.DepositAmount = nil
	sess.View = domain.ViewAccount
	return accepted(sess)
}

func (e *Engine) approveConfirmed(sess domain.Session, _ string, _ *domain.Balances) (Result, error) {
	sess.View = domain.ViewDepositTx
	return accepted(sess)
}

func (e *Engine) depositConfirmed(sess domain.Session, _ string, _ *domain.Balances) (Result, error) {
	sess.View = domain.ViewDepositSuccess
	return accepted(sess)
}

func (e *Engine) finishDeposit(sess domain.Session, _ string, _ *domain.Balances) (Result, error) {
	sess.DepositAmount = nil
	sess.View = domain.ViewAccount
	return accepted(sess)
}

func (e *Engine) submitWithdrawAmount(sess domain.Session, input string, bal *domain.Balances) (Result, error) {
	if bal == nil || bal.Shares == nil {
		return Result{}, errors.Wrap(ErrBalancesRequired, "withdraw amount validation")
	}

	amount, err := ParseAmount(input, e.vault.Asset.Decimals)
	if err != nil {
		return rejected(sess, RejectInvalidAmount)
	}
	if amount.Cmp(bal.Shares) > 0 {
		return rejected(sess, RejectInvalidAmount)
	}

	sess.WithdrawAmount = amount
	sess.View = domain.ViewWithdrawTx
	return accepted(sess)
}

// withdrawAll ignores any free-text and commits the full share balance.
func (e *Engine) withdrawAll(sess domain.Session, _ string, bal *domain.Balances) (Result, error) {
	if bal == nil || bal.Shares == nil {
		return Result{}, errors.Wrap(ErrBalancesRequired, "withdraw all")
	}

	sess.WithdrawAmount = new(big.Int).Set(bal.Shares)
	sess.View = domain.ViewWithdrawTx
	return accepted(sess)
}

func (e *Engine) cancelWithdraw(sess domain.Session, _ string, _ *domain.Balances) (Result, error) {
	sess.WithdrawAmount = nil
	sess.View = domain.ViewAccount
	return accepted(sess)
}

func (e *Engine) withdrawConfirmed(sess domain.Session, _ string, _ *domain.Balances) (Result, error) {
	sess.View = domain.ViewWithdrawSuccess
	return accepted(sess)
}

func (e *Engine) finishWithdraw(sess domain.Session, _ string, _ *domain.Balances) (Result, error) {
	sess.WithdrawAmount = nil
	sess.View = domain.ViewAccount
	return accepted(sess)
}
