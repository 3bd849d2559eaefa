package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/vaultframe/internal/domain"
)

const testAddress = "0x1234567890AbcdEF1234567890aBcdef12345678"

func testVault() domain.Vault {
	return domain.Vault{
		ID:      "pUSDC",
		ChainID: 10,
		Address: "0x77935F2C72b5EB814753a05921AE495AA283906B",
		Symbol:  "pUSDC",
		Asset: domain.Asset{
			Address:  "0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85",
			Symbol:   "USDC",
			Decimals: 6,
		},
	}
}

func balances(shares, assets, allowance int64) *domain.Balances {
	return &domain.Balances{
		Shares:    big.NewInt(shares),
		Assets:    big.NewInt(assets),
		Allowance: big.NewInt(allowance),
	}
}

func TestTransitionNilActionIsIdentity(t *testing.T) {
	e := New(testVault())

	records := []domain.Session{
		domain.NewSession(),
		{View: domain.ViewAccount, Address: testAddress},
		{View: domain.ViewDepositTx, Address: testAddress, DepositAmount: big.NewInt(2500000)},
		{View: domain.ViewWithdrawSuccess, Address: testAddress, WithdrawAmount: big.NewInt(3000000)},
	}

	for _, sess := range records {
		res, err := e.Transition(sess, nil, nil)
		require.NoError(t, err)
		require.False(t, res.Rejected)
		require.Equal(t, sess, res.Session)
	}
}

func TestTransitionButtonOutOfRange(t *testing.T) {
	e := New(testVault())

	views := []domain.View{
		domain.ViewWelcome, domain.ViewAwaitingAddress, domain.ViewAccount,
		domain.ViewDepositParams, domain.ViewApproveTx, domain.ViewDepositTx,
		domain.ViewDepositSuccess, domain.ViewWithdrawParams,
		domain.ViewWithdrawTx, domain.ViewWithdrawSuccess,
	}

	for _, view := range views {
		count, err := ButtonCount(view)
		require.NoError(t, err)

		sess := domain.Session{View: view, Address: testAddress}
		for _, btn := range []int{0, -1, count + 1, count + 10} {
			_, err := e.Transition(sess, &domain.Action{SessionID: 1, Button: btn}, balances(1, 1, 1))
			require.ErrorIs(t, err, ErrButtonOutOfRange, "view %s button %d", view, btn)
		}
	}
}

func TestTransitionUnknownView(t *testing.T) {
	e := New(testVault())

	_, err := e.Transition(domain.Session{View: domain.View("garbage")}, &domain.Action{Button: 1}, nil)
	require.ErrorIs(t, err, ErrUnknownView)
}

func TestWelcomeRouting(t *testing.T) {
	e := New(testVault())

	tests := []struct {
		name     string
		address  string
		button   int
		wantView domain.View
	}{
		{"deposit without address", "", 1, domain.ViewAwaitingAddress},
		{"deposit with address", testAddress, 1, domain.ViewDepositParams},
		{"account without address", "", 2, domain.ViewAwaitingAddress},
		{"account with address", testAddress, 2, domain.ViewAccount},
		{"learn more link is a no-op", testAddress, 3, domain.ViewWelcome},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sess := domain.Session{View: domain.ViewWelcome, Address: tc.address}
			res, err := e.Transition(sess, &domain.Action{SessionID: 1, Button: tc.button}, nil)
			require.NoError(t, err)
			require.False(t, res.Rejected)
			require.Equal(t, tc.wantView, res.Session.View)
			require.Equal(t, tc.address, res.Session.Address)
		})
	}
}

func TestSubmitAddress(t *testing.T) {
	e := New(testVault())

	t.Run("valid address connects and moves to account", func(t *testing.T) {
		sess := domain.Session{View: domain.ViewAwaitingAddress}
		res, err := e.Transition(sess, &domain.Action{SessionID: 1, Button: 1, Input: "  " + testAddress + "  "}, nil)
		require.NoError(t, err)
		require.False(t, res.Rejected)
		require.Equal(t, domain.ViewAccount, res.Session.View)
		require.Equal(t, testAddress, res.Session.Address)
	})

	t.Run("invalid address stays put with address unset", func(t *testing.T) {
		sess := domain.Session{View: domain.ViewAwaitingAddress}
		res, err := e.Transition(sess, &domain.Action{SessionID: 1, Button: 1, Input: "0xnotanaddress"}, nil)
		require.NoError(t, err)
		require.True(t, res.Rejected)
		require.Equal(t, RejectInvalidAddress, res.Reason)
		require.Equal(t, domain.ViewAwaitingAddress, res.Session.View)
		require.Empty(t, res.Session.Address)
	})
}

func TestSwitchAccountClearsWallet(t *testing.T) {
	e := New(testVault())

	sess := domain.Session{
		View:      domain.ViewAccount,
		Address:   testAddress,
		Shares:    big.NewInt(100),
		Assets:    big.NewInt(200),
		Allowance: big.NewInt(300),
	}

	res, err := e.Transition(sess, &domain.Action{SessionID: 1, Button: 3}, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ViewAwaitingAddress, res.Session.View)
	require.Empty(t, res.Session.Address)
	require.Nil(t, res.Session.Shares)
	require.Nil(t, res.Session.Assets)
	require.Nil(t, res.Session.Allowance)
}

func TestDepositAmountValidation(t *testing.T) {
	e := New(testVault())
	sess := domain.Session{View: domain.ViewDepositParams, Address: testAddress}

	tests := []struct {
		name       string
		input      string
		bal        *domain.Balances
		wantView   domain.View
		wantAmount int64
		rejected   bool
	}{
		{
			name:       "within balance, no allowance, routes to approve",
			input:      "2.5",
			bal:        balances(0, 5000000, 0),
			wantView:   domain.ViewApproveTx,
			wantAmount: 2500000,
		},
		{
			name:       "within balance, allowance covers, skips approve",
			input:      "2.5",
			bal:        balances(0, 5000000, 2500000),
			wantView:   domain.ViewDepositTx,
			wantAmount: 2500000,
		},
		{
			name:     "exceeds balance",
			input:    "2.5",
			bal:      balances(0, 1000000, 0),
			rejected: true,
		},
		{
			name:       "exactly the balance",
			input:      "5",
			bal:        balances(0, 5000000, 0),
			wantView:   domain.ViewApproveTx,
			wantAmount: 5000000,
		},
		{
			name:     "zero amount",
			input:    "0",
			bal:      balances(0, 5000000, 0),
			rejected: true,
		},
		{
			name:     "negative amount",
			input:    "-1",
			bal:      balances(0, 5000000, 0),
			rejected: true,
		},
		{
			name:     "non-numeric",
			input:    "lots",
			bal:      balances(0, 5000000, 0),
			rejected: true,
		},
		{
			name:     "empty input",
			input:    "",
			bal:      balances(0, 5000000, 0),
			rejected: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.Transition(sess, &domain.Action{SessionID: 1, Button: 2, Input: tc.input}, tc.bal)
			require.NoError(t, err)

			if tc.rejected {
				require.True(t, res.Rejected)
				require.Equal(t, RejectInvalidAmount, res.Reason)
				require.Equal(t, domain.ViewDepositParams, res.Session.View)
				require.Nil(t, res.Session.DepositAmount)
				return
			}

			require.False(t, res.Rejected)
			require.Equal(t, tc.wantView, res.Session.View)
			require.Equal(t, big.NewInt(tc.wantAmount), res.Session.DepositAmount)
		})
	}
}

func TestDepositAmountRequiresBalances(t *testing.T) {
	e := New(testVault())
	sess := domain.Session{View: domain.ViewDepositParams, Address: testAddress}

	_, err := e.Transition(sess, &domain.Action{SessionID: 1, Button: 2, Input: "1"}, nil)
	require.ErrorIs(t, err, ErrBalancesRequired)
}

func TestWithdrawAmountValidation(t *testing.T) {
	e := New(testVault())
	sess := domain.Session{View: domain.ViewWithdrawParams, Address: testAddress}

	t.Run("within share balance", func(t *testing.T) {
		res, err := e.Transition(sess, &domain.Action{SessionID: 1, Button: 2, Input: "1.5"}, balances(3000000, 0, 0))
		require.NoError(t, err)
		require.False(t, res.Rejected)
		require.Equal(t, domain.ViewWithdrawTx, res.Session.View)
		require.Equal(t, big.NewInt(1500000), res.Session.WithdrawAmount)
	})

	t.Run("exceeds share balance", func(t *testing.T) {
		res, err := e.Transition(sess, &domain.Action{SessionID: 1, Button: 2, Input: "3.000001"}, balances(3000000, 0, 0))
		require.NoError(t, err)
		require.True(t, res.Rejected)
		require.Equal(t, domain.ViewWithdrawParams, res.Session.View)
		require.Nil(t, res.Session.WithdrawAmount)
	})
}

func TestWithdrawAll(t *testing.T) {
	e := New(testVault())
	sess := domain.Session{View: domain.ViewWithdrawParams, Address: testAddress}

	// free-text is ignored entirely
	for _, input := range []string{"", "0.5", "not a number"} {
		bal := balances(3000000, 0, 0)
		res, err := e.Transition(sess, &domain.Action{SessionID: 1, Button: 3, Input: input}, bal)
		require.NoError(t, err)
		require.False(t, res.Rejected)
		require.Equal(t, domain.ViewWithdrawTx, res.Session.View)
		require.Equal(t, big.NewInt(3000000), res.Session.WithdrawAmount)

		// committed amount must not alias the oracle read
		bal.Shares.SetInt64(7)
		require.Equal(t, big.NewInt(3000000), res.Session.WithdrawAmount)
	}
}

func TestCancelClearsPendingAmounts(t *testing.T) {
	e := New(testVault())

	tests := []struct {
		name string
		sess domain.Session
	}{
		{"cancel on approve", domain.Session{View: domain.ViewApproveTx, Address: testAddress, DepositAmount: big.NewInt(2500000)}},
		{"cancel on deposit tx", domain.Session{View: domain.ViewDepositTx, Address: testAddress, DepositAmount: big.NewInt(2500000)}},
		{"cancel on withdraw tx", domain.Session{View: domain.ViewWithdrawTx, Address: testAddress, WithdrawAmount: big.NewInt(3000000)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.Transition(tc.sess, &domain.Action{SessionID: 1, Button: 1}, nil)
			require.NoError(t, err)
			require.Equal(t, domain.ViewAccount, res.Session.View)
			require.Nil(t, res.Session.DepositAmount)
			require.Nil(t, res.Session.WithdrawAmount)
		})
	}
}

func TestDepositRoundTrip(t *testing.T) {
	e := New(testVault())

	sess := domain.NewSession()

	// Welcome -> AwaitingAddress
	res, err := e.Transition(sess, &domain.Action{SessionID: 1, Button: 1}, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ViewAwaitingAddress, res.Session.View)

	// AwaitingAddress -> Account
	res, err = e.Transition(res.Session, &domain.Action{SessionID: 1, Button: 1, Input: testAddress}, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ViewAccount, res.Session.View)
	require.Equal(t, testAddress, res.Session.Address)

	// Account -> DepositParams
	res, err = e.Transition(res.Session, &domain.Action{SessionID: 1, Button: 1}, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ViewDepositParams, res.Session.View)

	// DepositParams -> ApproveTx (zero allowance)
	res, err = e.Transition(res.Session, &domain.Action{SessionID: 1, Button: 2, Input: "2.5"}, balances(0, 5000000, 0))
	require.NoError(t, err)
	require.Equal(t, domain.ViewApproveTx, res.Session.View)
	require.Equal(t, big.NewInt(2500000), res.Session.DepositAmount)

	// ApproveTx -> DepositTx, amount carried unchanged
	res, err = e.Transition(res.Session, &domain.Action{SessionID: 1, Button: 2}, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ViewDepositTx, res.Session.View)
	require.Equal(t, big.NewInt(2500000), res.Session.DepositAmount)

	// DepositTx -> DepositSuccess, amount still carried
	res, err = e.Transition(res.Session, &domain.Action{SessionID: 1, Button: 2}, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ViewDepositSuccess, res.Session.View)
	require.Equal(t, big.NewInt(2500000), res.Session.DepositAmount)

	// DepositSuccess -> Account, pending amount cleared
	res, err = e.Transition(res.Session, &domain.Action{SessionID: 1, Button: 1}, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ViewAccount, res.Session.View)
	require.Nil(t, res.Session.DepositAmount)
	require.Equal(t, testAddress, res.Session.Address)
}

func TestWithdrawRoundTrip(t *testing.T) {
	e := New(testVault())

	sess := domain.Session{View: domain.ViewAccount, Address: testAddress}

	// Account -> WithdrawParams
	res, err := e.Transition(sess, &domain.Action{SessionID: 1, Button: 2}, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ViewWithdrawParams, res.Session.View)

	// WithdrawParams -> WithdrawTx via Withdraw All
	res, err = e.Transition(res.Session, &domain.Action{SessionID: 1, Button: 3}, balances(3000000, 0, 0))
	require.NoError(t, err)
	require.Equal(t, domain.ViewWithdrawTx, res.Session.View)
	require.Equal(t, big.NewInt(3000000), res.Session.WithdrawAmount)

	// WithdrawTx -> WithdrawSuccess
	res, err = e.Transition(res.Session, &domain.Action{SessionID: 1, Button: 2}, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ViewWithdrawSuccess, res.Session.View)
	require.Equal(t, big.NewInt(3000000), res.Session.WithdrawAmount)

	// WithdrawSuccess -> Account, pending amount cleared
	res, err = e.Transition(res.Session, &domain.Action{SessionID: 1, Button: 1}, nil)
	require.NoError(t, err)
	require.Equal(t, domain.ViewAccount, res.Session.View)
	require.Nil(t, res.Session.WithdrawAmount)
}

func TestTransitionDoesNotMutateInput(t *testing.T) {
	e := New(testVault())

	sess := domain.Session{View: domain.ViewDepositParams, Address: testAddress}
	_, err := e.Transition(sess, &domain.Action{SessionID: 1, Button: 2, Input: "2.5"}, balances(0, 5000000, 0))
	require.NoError(t, err)

	require.Equal(t, domain.ViewDepositParams, sess.View)
	require.Nil(t, sess.DepositAmount)
}
