// Command tokengen mints bearer tokens for calling the registry's mutating
// endpoints. It uses the dev signing key by default, so tokens it produces
// will NOT work against a production deployment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"credchain/internal/token"
	"credchain/pkg/domain"
)

const (
	// Matches config.Load when JWT_SIGNING_KEY is not set.
	devSigningKey   = "dev-secret-key-change-in-production"
	defaultTokenTTL = 15 * time.Minute
)

type tokenOutput struct {
	Token     string `json:"token"`
	Address   string `json:"address"`
	ExpiresIn string `json:"expires_in"`
	Usage     string `json:"usage"`
}

func main() {
	addr := flag.String("addr", "", "Caller wallet address (required)")
	ttl := flag.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	signingKey := flag.String("signing-key", "", "Signing key; defaults to JWT_SIGNING_KEY or the dev key")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	if *addr == "" {
		fmt.Fprintln(os.Stderr, "usage: tokengen -addr 0x... [-ttl 15m] [-signing-key key] [-json]")
		os.Exit(2)
	}

	caller, err := domain.ParseAddress(*addr)
	if err != nil {
		fatal(err)
	}

	key := *signingKey
	if key == "" {
		key = os.Getenv("JWT_SIGNING_KEY")
	}
	if key == "" {
		key = devSigningKey
	}

	svc := token.NewService(key, "credchain", "credchain-registry", defaultTokenTTL)
	tok, err := svc.Generate(caller, *ttl)
	if err != nil {
		fatal(err)
	}

	if *asJSON {
		out := tokenOutput{
			Token:     tok,
			Address:   caller.String(),
			ExpiresIn: ttl.String(),
			Usage:     "Authorization: Bearer <token>",
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fatal(err)
		}
		return
	}

	fmt.Println(tok)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "tokengen:", err)
	os.Exit(1)
}
