// Package setup provides the terminal wizard that generates a server
// config without hand-editing yaml.
package setup

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

type wizardVault struct {
	ID            string `yaml:"id"`
	ChainID       uint64 `yaml:"chain_id"`
	RPCURL        string `yaml:"rpc_url"`
	Address       string `yaml:"address"`
	Symbol        string `yaml:"symbol"`
	AssetAddress  string `yaml:"asset_address"`
	AssetSymbol   string `yaml:"asset_symbol"`
	AssetDecimals int32  `yaml:"asset_decimals"`
}

type wizardConfig struct {
	Listen     string        `yaml:"listen"`
	BaseURL    string        `yaml:"base_url,omitempty"`
	SessionDir string        `yaml:"session_dir,omitempty"`
	JournalDir string        `yaml:"journal_dir,omitempty"`
	Vaults     []wizardVault `yaml:"vaults"`
}

// RunTUI launches the terminal configuration wizard and writes the
// generated yaml to config.gen.yaml.
func RunTUI() error {
	var (
		listen        string
		baseURL       string
		vaultID       string
		chainIDStr    string
		rpcURL        string
		vaultAddr     string
		vaultSymbol   string
		assetAddr     string
		assetSymbol   string
		assetDecimals string
		confirm       bool
	)

	// defaults
	listen = ":8080"
	chainIDStr = "10"
	assetDecimals = "6"

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("VAULTFRAME CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's wire your vault frame.\n"))

	fmt.Println(stepStyle.Render("STEP 1: SERVER"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen Address").
				Description("host:port the frame server binds to").
				Value(&listen),
			huh.NewInput().
				Title("Public Base URL").
				Description("Prefix for frame image and tx targets (optional)").
				Value(&baseURL),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("VAULTFRAME CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: CHAIN"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Chain ID").
				Description("EVM chain id (10 for Optimism)").
				Value(&chainIDStr).
				Validate(func(s string) error {
					_, err := strconv.ParseUint(s, 10, 64)
					return err
				}),
			huh.NewInput().
				Title("RPC URL").
				Value(&rpcURL).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("rpc url cannot be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("VAULTFRAME CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: VAULT"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Vault ID").
				Description("Short identifier used in URLs (e.g. pUSDC)").
				Value(&vaultID).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("vault id cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Vault Address").
				Value(&vaultAddr).
				Validate(validateAddress),
			huh.NewInput().
				Title("Vault Symbol").
				Description("Share token symbol (e.g. pUSDC)").
				Value(&vaultSymbol),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("VAULTFRAME CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: UNDERLYING ASSET"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Asset Address").
				Value(&assetAddr).
				Validate(validateAddress),
			huh.NewInput().
				Title("Asset Symbol").
				Description("e.g. USDC").
				Value(&assetSymbol),
			huh.NewInput().
				Title("Asset Decimals").
				Description("Declared decimal exponent (6 for USDC, 18 for WETH)").
				Value(&assetDecimals).
				Validate(func(s string) error {
					d, err := strconv.ParseInt(s, 10, 32)
					if err != nil {
						return fmt.Errorf("must be an integer")
					}
					if d < 0 || d > 36 {
						return fmt.Errorf("must be between 0 and 36")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("VAULTFRAME CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Listen: %s\nChain: %s\nVault: %s (%s)\nAsset: %s (%s decimals)\n",
		listen, chainIDStr, vaultID, vaultAddr, assetSymbol, assetDecimals,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	chainID, _ := strconv.ParseUint(chainIDStr, 10, 64)
	decimals, _ := strconv.ParseInt(assetDecimals, 10, 32)

	cfg := wizardConfig{
		Listen:  listen,
		BaseURL: baseURL,
		Vaults: []wizardVault{
			{
				ID:            vaultID,
				ChainID:       chainID,
				RPCURL:        rpcURL,
				Address:       vaultAddr,
				Symbol:        vaultSymbol,
				AssetAddress:  assetAddr,
				AssetSymbol:   assetSymbol,
				AssetDecimals: int32(decimals),
			},
		},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", filename)))
	return nil
}

func validateAddress(s string) error {
	if !common.IsHexAddress(s) {
		return fmt.Errorf("must be a 0x-prefixed hex address")
	}
	return nil
}
