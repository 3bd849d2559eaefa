package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/vaultframe/internal/domain"
)

// Config is the resolved server configuration.
type Config struct {
	Listen     string
	BaseURL    string
	SessionDir string
	JournalDir string
	Vaults     []VaultConfig

	// Dashboard settings are optional; an empty listen address disables
	// the operator dashboard entirely.
	DashboardListen    string
	DashboardDomains   []string
	DashboardCertCache string
}

// VaultConfig describes one vault block of the yaml config.
type VaultConfig struct {
	Vault  domain.Vault
	RPCURL string
}

// configTmp mirrors the yaml layout before validation.
type configTmp struct {
	Listen     string     `yaml:"listen"`
	BaseURL    string     `yaml:"base_url,omitempty"`
	SessionDir string     `yaml:"session_dir,omitempty"`
	JournalDir string     `yaml:"journal_dir,omitempty"`
	Vaults     []vaultTmp `yaml:"vaults"`

	DashboardListen    string   `yaml:"dashboard_listen,omitempty"`
	DashboardDomains   []string `yaml:"dashboard_domains,omitempty"`
	DashboardCertCache string   `yaml:"dashboard_cert_cache,omitempty"`
}

type vaultTmp struct {
	ID            string `yaml:"id"`
	ChainID       uint64 `yaml:"chain_id"`
	RPCURL        string `yaml:"rpc_url"`
	Address       string `yaml:"address"`
	Symbol        string `yaml:"symbol"`
	AssetAddress  string `yaml:"asset_address"`
	AssetSymbol   string `yaml:"asset_symbol"`
	AssetDecimals int32  `yaml:"asset_decimals"`
}

// Get loads configuration from the --config yaml file, falling back to
// flag values for a single-vault setup.
func Get() (*Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	listen := flag.String("listen", ":8080", "listen address")
	flag.Parse()

	if *configPath == "" {
		return nil, fmt.Errorf("--config is required (run with --setup to generate one)")
	}

	cfg, err := getYaml(*configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Listen == "" {
		cfg.Listen = *listen
	}
	return cfg, nil
}

func getYaml(path string) (*Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return nil, err
	}

	if len(tmp.Vaults) == 0 {
		return nil, fmt.Errorf("config declares no vaults")
	}

	cfg := &Config{
		Listen:             tmp.Listen,
		BaseURL:            tmp.BaseURL,
		SessionDir:         tmp.SessionDir,
		JournalDir:         tmp.JournalDir,
		DashboardListen:    tmp.DashboardListen,
		DashboardDomains:   tmp.DashboardDomains,
		DashboardCertCache: tmp.DashboardCertCache,
	}

	if len(tmp.DashboardDomains) > 0 && tmp.DashboardListen == "" {
		return nil, fmt.Errorf("'dashboard_domains' set without 'dashboard_listen'")
	}

	seen := make(map[string]bool, len(tmp.Vaults))
	for _, v := range tmp.Vaults {
		if v.ID == "" {
			return nil, fmt.Errorf("vault block without 'id'")
		}
		if seen[v.ID] {
			return nil, fmt.Errorf("duplicate vault id %q", v.ID)
		}
		seen[v.ID] = true

		if v.ChainID == 0 {
			return nil, fmt.Errorf("vault %s: 'chain_id' is required", v.ID)
		}
		if v.RPCURL == "" {
			return nil, fmt.Errorf("vault %s: 'rpc_url' is required", v.ID)
		}
		if !common.IsHexAddress(v.Address) {
			return nil, fmt.Errorf("vault %s: invalid 'address' %q", v.ID, v.Address)
		}
		if !common.IsHexAddress(v.AssetAddress) {
			return nil, fmt.Errorf("vault %s: invalid 'asset_address' %q", v.ID, v.AssetAddress)
		}
		if v.AssetDecimals < 0 || v.AssetDecimals > 36 {
			return nil, fmt.Errorf("vault %s: 'asset_decimals' out of range: %d", v.ID, v.AssetDecimals)
		}

		cfg.Vaults = append(cfg.Vaults, VaultConfig{
			RPCURL: v.RPCURL,
			Vault: domain.Vault{
				ID:      v.ID,
				ChainID: v.ChainID,
				Address: common.HexToAddress(v.Address).Hex(),
				Symbol:  v.Symbol,
				Asset: domain.Asset{
					Address:  common.HexToAddress(v.AssetAddress).Hex(),
					Symbol:   v.AssetSymbol,
					Decimals: v.AssetDecimals,
				},
			},
		})
	}

	return cfg, nil
}
