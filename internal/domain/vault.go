package domain

import "fmt"

// Asset is the underlying token a vault accepts.
type Asset struct {
	// Address token contract address in hex form.
	Address string
	// Symbol display symbol, e.g. USDC.
	Symbol string
	// Decimals declared decimal exponent of the token.
	Decimals int32
}

// Vault describes one yield-bearing vault served by the frame.
type Vault struct {
	// ID short identifier used in URLs, e.g. pUSDC.
	ID string
	// ChainID EVM chain id the vault lives on.
	ChainID uint64
	// Address vault contract address in hex form.
	Address string
	// Symbol display symbol of the vault share token.
	Symbol string
	// Asset underlying token configuration.
	Asset Asset
}

// CAIP2 returns the eip155 chain reference used in frame tx descriptors.
func (v *Vault) CAIP2() string {
	return fmt.Sprintf("eip155:%d", v.ChainID)
}
