// Command tokengen prints an access token signed with the configured secret,
// for local testing of the REST and WebSocket endpoints.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/DevHoji/smart-Delivery-sub001/config"
	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/DevHoji/smart-Delivery-sub001/modules/auth"
)

func main() {
	user := flag.String("user", "", "user id (required)")
	role := flag.String("role", string(delivery.RoleCustomer), "customer, agent or admin")
	flag.Parse()

	if *user == "" {
		log.Fatal("-user is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tokens := auth.NewTokenManager(auth.JWTConfig{
		SecretKey: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
		Issuer:    cfg.Auth.Issuer,
	})
	token, err := tokens.Issue(delivery.Identity{UserID: *user, Role: delivery.Role(*role)})
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
