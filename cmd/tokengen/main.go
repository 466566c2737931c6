package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	jwttoken "docverify/internal/jwt_token"
	"docverify/internal/platform/config"
	"docverify/pkg/platform/secrets"
)

// tokengen mints a service token for a lender client using the configured
// signing key, issuer and audience. With --hash-admin-token it instead prints
// the bcrypt hash to configure as SERVER_METRICS_TOKEN_HASH.
func main() {
	var (
		clientID   = flag.String("client", "", "client ID to embed in the token")
		ttl        = flag.Duration("ttl", 24*time.Hour, "token lifetime")
		adminToken = flag.String("hash-admin-token", "", "print the bcrypt hash of this admin token and exit")
	)
	flag.Parse()

	if *adminToken != "" {
		hash, err := secrets.Hash(*adminToken)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	if *clientID == "" {
		fmt.Fprintln(os.Stderr, "usage: tokengen --client lender-portal [--ttl 24h] | --hash-admin-token <token>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.UsesDevSigningKey() {
		fmt.Fprintln(os.Stderr, "tokengen: warning: signing with the development key")
	}

	svc := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	token, err := svc.GenerateServiceToken(*clientID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
