package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/vaultframe/internal/domain"
)

// TxTarget is the frame transaction descriptor handed to the user's
// wallet. The transition engine never inspects it.
type TxTarget struct {
	ChainID string   `json:"chainId"`
	Method  string   `json:"method"`
	Params  TxParams `json:"params"`
}

// TxParams carries the raw call the wallet should send.
type TxParams struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

// TxBuilder encodes approve/deposit/redeem calls for one vault.
type TxBuilder struct {
	vault domain.Vault
}

// NewTxBuilder creates a transaction builder for the given vault.
func NewTxBuilder(vault domain.Vault) *TxBuilder {
	return &TxBuilder{vault: vault}
}

// BuildApprove encodes an ERC-20 approve granting the vault the given
// amount, targeting the underlying asset contract.
func (b *TxBuilder) BuildApprove(amount *big.Int) (TxTarget, error) {
	if amount == nil || amount.Sign() <= 0 {
		return TxTarget{}, errors.New("approval amount must be positive")
	}

	data, err := erc20ABI.Pack("approve", common.HexToAddress(b.vault.Address), amount)
	if err != nil {
		return TxTarget{}, errors.Wrap(err, "encode approve")
	}

	return b.target(b.vault.Asset.Address, data), nil
}

// BuildDeposit encodes deposit(assets, receiver) targeting the vault.
func (b *TxBuilder) BuildDeposit(user string, amount *big.Int) (TxTarget, error) {
	receiver, err := parseUser(user)
	if err != nil {
		return TxTarget{}, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return TxTarget{}, errors.New("deposit amount must be positive")
	}

	data, err := vaultABI.Pack("deposit", amount, receiver)
	if err != nil {
		return TxTarget{}, errors.Wrap(err, "encode deposit")
	}

	return b.target(b.vault.Address, data), nil
}

// BuildRedeem encodes redeem(shares, receiver, owner) targeting the vault,
// with the user as both receiver and owner.
func (b *TxBuilder) BuildRedeem(user string, amount *big.Int) (TxTarget, error) {
	owner, err := parseUser(user)
	if err != nil {
		return TxTarget{}, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return TxTarget{}, errors.New("redeem amount must be positive")
	}

	data, err := vaultABI.Pack("redeem", amount, owner, owner)
	if err != nil {
		return TxTarget{}, errors.Wrap(err, "encode redeem")
	}

	return b.target(b.vault.Address, data), nil
}

func (b *TxBuilder) target(to string, data []byte) TxTarget {
	return TxTarget{
		ChainID: b.vault.CAIP2(),
		Method:  "eth_sendTransaction",
		Params: TxParams{
			To:    common.HexToAddress(to).Hex(),
			Data:  hexutil.Encode(data),
			Value: "0",
		},
	}
}

func parseUser(user string) (common.Address, error) {
	if !common.IsHexAddress(user) {
		return common.Address{}, errors.Errorf("invalid user address %q", user)
	}
	return common.HexToAddress(user), nil
}
