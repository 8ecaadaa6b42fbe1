// admintoken mints an operator JWT for the administrative subjects
// (pause, unpause, admin_withdraw). Requires JWT_PRIVATE_KEY; the token
// subject defaults to OWNER_ID and must match the engine owner to pass
// the policy gate.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"stakegov/internal/config"
	"stakegov/internal/security"
)

func main() {
	subject := flag.String("subject", "", "Token subject (defaults to OWNER_ID)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.JWTPrivateKey == "" {
		fmt.Fprintln(os.Stderr, "JWT_PRIVATE_KEY is not set")
		os.Exit(1)
	}

	priv, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, "private key:", err)
		os.Exit(1)
	}
	var pub interface{}
	if cfg.JWTPublicKey != "" {
		pub, err = security.ParsePublicKey(cfg.JWTPublicKey)
		if err != nil {
			fmt.Fprintln(os.Stderr, "public key:", err)
			os.Exit(1)
		}
	} else {
		pub = priv.Public()
	}

	sub := *subject
	if sub == "" {
		sub = cfg.OwnerID
	}

	tokens := security.NewTokenProvider(priv, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL())
	token, expiresAt, err := tokens.Issue(sub)
	if err != nil {
		fmt.Fprintln(os.Stderr, "issue:", err)
		os.Exit(1)
	}

	fmt.Printf("alg:     %s\n", security.KeyAlg(pub))
	fmt.Printf("subject: %s\n", sub)
	fmt.Printf("expires: %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}
