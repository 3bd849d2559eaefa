package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/vaultframe/internal/domain"
)

// ContractCaller is the eth_call surface the oracle needs.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Oracle reads live share/asset balances and the vault spending allowance
// for a user address, all in smallest units at the latest block.
type Oracle struct {
	caller ContractCaller
	vault  common.Address
	asset  common.Address
}

// NewOracle creates a balance oracle for the given vault.
func NewOracle(caller ContractCaller, vault domain.Vault) (*Oracle, error) {
	if !common.IsHexAddress(vault.Address) {
		return nil, errors.Errorf("invalid vault address %q", vault.Address)
	}
	if !common.IsHexAddress(vault.Asset.Address) {
		return nil, errors.Errorf("invalid asset address %q", vault.Asset.Address)
	}

	return &Oracle{
		caller: caller,
		vault:  common.HexToAddress(vault.Address),
		asset:  common.HexToAddress(vault.Asset.Address),
	}, nil
}

// ReadBalances fetches the user's vault share balance, underlying asset
// balance and current allowance towards the vault.
func (o *Oracle) ReadBalances(ctx context.Context, user string) (*domain.Balances, error) {
	if !common.IsHexAddress(user) {
		return nil, errors.Errorf("invalid user address %q", user)
	}
	addr := common.HexToAddress(user)

	shares, err := o.readUint(ctx, o.vault, vaultABI, "balanceOf", addr)
	if err != nil {
		return nil, errors.Wrap(err, "read share balance")
	}

	assets, err := o.readUint(ctx, o.asset, erc20ABI, "balanceOf", addr)
	if err != nil {
		return nil, errors.Wrap(err, "read asset balance")
	}

	allowance, err := o.readUint(ctx, o.asset, erc20ABI, "allowance", addr, o.vault)
	if err != nil {
		return nil, errors.Wrap(err, "read allowance")
	}

	return &domain.Balances{Shares: shares, Assets: assets, Allowance: allowance}, nil
}

func (o *Oracle) readUint(ctx context.Context, to common.Address, contract abi.ABI, method string, args ...interface{}) (*big.Int, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s", method)
	}

	out, err := o.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s", method)
	}

	values, err := contract.Unpack(method, out)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s", method)
	}
	if len(values) != 1 {
		return nil, errors.Errorf("%s returned %d values, want 1", method, len(values))
	}

	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.Errorf("%s returned %T, want *big.Int", method, values[0])
	}
	return value, nil
}
