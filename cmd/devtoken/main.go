// Command devtoken mints identity tokens for local development and prints
// admin key hashes.
//
//	devtoken -sub alice -email alice@example.com -ttl 24h
//	devtoken -hash-admin-key 'my admin key'
//
// Tokens are signed with AUTH_JWT_SECRET (and carry AUTH_ISSUER /
// AUTH_AUDIENCE when set), read the same way the server reads them.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sakif/college-tracker/internal/auth"
	"github.com/sakif/college-tracker/internal/config"
)

func main() {
	var (
		envFile  = flag.String("env", ".env", "optional dotenv file")
		sub      = flag.String("sub", "", "subject (user id) of the token")
		email    = flag.String("email", "", "email claim, omitted when empty")
		name     = flag.String("name", "", "name claim, omitted when empty")
		ttl      = flag.Duration("ttl", 24*time.Hour, "token lifetime")
		adminKey = flag.String("hash-admin-key", "", "print the bcrypt hash for ADMIN_KEY_HASH and exit")
	)
	flag.Parse()

	if *adminKey != "" {
		hash, err := auth.HashAdminKey(*adminKey, auth.DefaultAdminKeyCost)
		if err != nil {
			fail(err)
		}
		fmt.Println(hash)
		return
	}

	if *sub == "" {
		fail(fmt.Errorf("-sub is required"))
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fail(err)
	}
	verifier, err := auth.NewTokenVerifier(cfg.AuthJWTSecret, cfg.AuthIssuer, cfg.AuthAudience)
	if err != nil {
		fail(err)
	}

	id := auth.Identity{Subject: *sub}
	if *email != "" {
		id.Email = email
	}
	if *name != "" {
		id.Name = name
	}

	token, err := verifier.Generate(id, *ttl)
	if err != nil {
		fail(err)
	}
	fmt.Println(token)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "devtoken:", err)
	os.Exit(1)
}
