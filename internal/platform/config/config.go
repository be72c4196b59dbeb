package config

import (
	"os"
	"strings"
)

// Server captures process-level configuration. Ledger material is resolved
// exactly once at startup; see internal/ledger.Resolve.
type Server struct {
	Addr          string
	JWTSigningKey string

	LedgerMode      string // "bridge" (default) or "sim"
	LedgerBridgeURL string
	LedgerAPIKey    string
	DeploymentsPath string

	AuditDBPath string // empty keeps the audit log in memory

	VetAddresses    []string
	KennelAddresses []string
}

// FromEnv builds a Server config from environment variables so main stays
// lean.
func FromEnv() Server {
	addr := os.Getenv("PAWSPORT_ADDR")
	if addr == "" {
		addr = ":4000"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	deployments := os.Getenv("DEPLOYMENTS_PATH")
	if deployments == "" {
		deployments = "deployments/deployments.json"
	}

	return Server{
		Addr:            addr,
		JWTSigningKey:   jwtSigningKey,
		LedgerMode:      os.Getenv("LEDGER_MODE"),
		LedgerBridgeURL: os.Getenv("LEDGER_BRIDGE_URL"),
		LedgerAPIKey:    os.Getenv("LEDGER_API_KEY"),
		DeploymentsPath: deployments,
		AuditDBPath:     os.Getenv("AUDIT_DB_PATH"),
		VetAddresses:    splitList(os.Getenv("VET_ADDRESSES")),
		KennelAddresses: splitList(os.Getenv("KENNEL_CLUB_ADDRESSES")),
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
