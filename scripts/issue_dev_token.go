//go:build ignore

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"redeemly/internal/config"
	"redeemly/internal/middleware"
	"redeemly/internal/model"
)

// Prints a bearer token signed with the configured JWT_SECRET for local
// testing against the API, e.g.
//
//	go run scripts/issue_dev_token.go -sub m1 -role merchant
func main() {
	subject := flag.String("sub", "dev-customer", "token subject (customer, merchant or admin id)")
	role := flag.String("role", string(model.RoleCustomer), "admin, merchant or customer")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if !model.Role(*role).Valid() {
		fmt.Fprintf(os.Stderr, "Unknown role %q\n", *role)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}

	token, err := middleware.IssueToken(cfg.Auth.JWTSecret, *subject, model.Role(*role), *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
