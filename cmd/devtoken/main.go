// Command devtoken prints an access token for local testing of the agent
// API. Identity is normally issued elsewhere; this signs with the same
// JWT settings the API verifies with.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"telecom-bridge/internal/auth"
	"telecom-bridge/internal/config"
	"telecom-bridge/internal/rbac"

	"github.com/joho/godotenv"
)

func main() {
	username := flag.String("user", "", "agent username (required)")
	role := flag.String("role", rbac.RoleAgent, "role: agent, supervisor or admin")
	ttl := flag.Duration("ttl", 0, "token lifetime (default JWT_ACCESS_TTL)")
	flag.Parse()

	_ = godotenv.Load()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "devtoken: -user is required")
		os.Exit(2)
	}
	switch *role {
	case rbac.RoleAgent, rbac.RoleSupervisor, rbac.RoleAdmin:
	default:
		fmt.Fprintf(os.Stderr, "devtoken: unknown role %q\n", *role)
		os.Exit(2)
	}

	cfg := config.AuthConfig{
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTIssuer:   os.Getenv("JWT_ISSUER"),
		JWTAudience: os.Getenv("JWT_AUDIENCE"),
	}
	if *ttl > 0 {
		cfg.AccessTokenTTL = *ttl
	} else if v := os.Getenv("JWT_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("invalid JWT_ACCESS_TTL", "err", err)
			os.Exit(1)
		}
		cfg.AccessTokenTTL = d
	}

	m, err := auth.NewManager(cfg)
	if err != nil {
		slog.Error("auth init failed", "err", err)
		os.Exit(1)
	}
	tok, err := m.IssueAccess(time.Now(), *username, *role)
	if err != nil {
		slog.Error("token issuance failed", "err", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
