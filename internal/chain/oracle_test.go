package chain

import (
	"context"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// stubCaller answers eth_call by contract address and method selector.
type stubCaller struct {
	shares    *big.Int
	assets    *big.Int
	allowance *big.Int
	calls     []ethereum.CallMsg
	err       error
}

func (c *stubCaller) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.calls = append(c.calls, call)
	if c.err != nil {
		return nil, c.err
	}

	selector := hex.EncodeToString(call.Data[:4])
	switch {
	case selector == "70a08231" && *call.To == common.HexToAddress(testVaultAddr):
		return encodeUint(c.shares), nil
	case selector == "70a08231" && *call.To == common.HexToAddress(testAssetAddr):
		return encodeUint(c.assets), nil
	case selector == "dd62ed3e":
		return encodeUint(c.allowance), nil
	}
	return nil, errors.Errorf("unexpected call %s to %s", selector, call.To.Hex())
}

func encodeUint(v *big.Int) []byte {
	out := make([]byte, 32)
	v.FillBytes(out)
	return out
}

func TestReadBalances(t *testing.T) {
	caller := &stubCaller{
		shares:    big.NewInt(3000000),
		assets:    big.NewInt(5000000),
		allowance: big.NewInt(2500000),
	}

	oracle, err := NewOracle(caller, testVault())
	require.NoError(t, err)

	bal, err := oracle.ReadBalances(context.Background(), testUserAddr)
	require.NoError(t, err)

	require.Equal(t, big.NewInt(3000000), bal.Shares)
	require.Equal(t, big.NewInt(5000000), bal.Assets)
	require.Equal(t, big.NewInt(2500000), bal.Allowance)
	require.Len(t, caller.calls, 3)

	// allowance must be queried on the asset with the vault as spender
	allowanceCall := caller.calls[2]
	require.Equal(t, common.HexToAddress(testAssetAddr), *allowanceCall.To)
	data := hex.EncodeToString(allowanceCall.Data)
	require.Contains(t, data, strings.ToLower(testUserAddr[2:]), "owner argument")
	require.Contains(t, data, strings.ToLower(testVaultAddr[2:]), "spender argument")
}

func TestReadBalancesRejectsBadUser(t *testing.T) {
	oracle, err := NewOracle(&stubCaller{}, testVault())
	require.NoError(t, err)

	_, err = oracle.ReadBalances(context.Background(), "0xnotanaddress")
	require.Error(t, err)
}

func TestReadBalancesPropagatesCallError(t *testing.T) {
	caller := &stubCaller{err: errors.New("rpc down")}

	oracle, err := NewOracle(caller, testVault())
	require.NoError(t, err)

	_, err = oracle.ReadBalances(context.Background(), testUserAddr)
	require.Error(t, err)
	require.Contains(t, err.Error(), "rpc down")
}

func TestNewOracleValidatesAddresses(t *testing.T) {
	vault := testVault()
	vault.Address = "bad"
	_, err := NewOracle(&stubCaller{}, vault)
	require.Error(t, err)

	vault = testVault()
	vault.Asset.Address = "bad"
	_, err = NewOracle(&stubCaller{}, vault)
	require.Error(t, err)
}
