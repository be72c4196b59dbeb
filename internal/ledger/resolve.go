package ledger

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
)

// Config is the ledger material gathered from the environment at startup.
type Config struct {
	Mode            string // "bridge" (default) or "sim"
	BridgeURL       string
	APIKey          string
	DeploymentsPath string
}

// Resolve turns startup configuration into a gateway exactly once. Missing
// bridge URL or an unreadable deployments file produces the permanently
// disabled gateway; there is no mid-run reconfiguration.
func Resolve(cfg Config, log *slog.Logger) Gateway {
	if cfg.Mode == "sim" {
		log.Info("ledger gateway running in simulator mode")
		return NewSimulator()
	}

	if cfg.BridgeURL == "" {
		log.Warn("ledger bridge URL not set, on-chain writes disabled")
		return NewDisabled()
	}

	contracts, err := loadDeployments(cfg.DeploymentsPath)
	if err != nil {
		log.Warn("deployments file unusable, on-chain writes disabled",
			"path", cfg.DeploymentsPath, "error", err)
		return NewDisabled()
	}

	return NewBridgeClient(cfg.BridgeURL, cfg.APIKey, contracts)
}

func loadDeployments(path string) (ContractAddresses, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ContractAddresses{}, err
	}
	var file struct {
		Contracts ContractAddresses `json:"contracts"`
	}
	if err := json.Unmarshal(raw, &file); err != nil {
		return ContractAddresses{}, err
	}
	if file.Contracts.RecordRegistry == "" || file.Contracts.VetRegistry == "" ||
		file.Contracts.ConsentManager == "" || file.Contracts.VCValidator == "" {
		return ContractAddresses{}, errors.New("deployments file missing contract addresses")
	}
	return file.Contracts, nil
}
