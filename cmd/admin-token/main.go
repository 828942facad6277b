// Command admin-token mints a JWT for the admin sync endpoints.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/stemsi/handbook/internal/config"
	"github.com/stemsi/handbook/internal/service"
)

func main() {
	var (
		subject string
		expiry  time.Duration
	)
	flag.StringVar(&subject, "subject", "admin", "Who the token is issued to")
	flag.DurationVar(&expiry, "expiry", 0, "Token lifetime (default JWT_EXPIRY_HOURS)")
	flag.Parse()

	cfg := config.Load()
	if expiry > 0 {
		cfg.JWTExpiry = expiry
	}

	token, err := service.NewAuthService(cfg).GenerateAdminToken(subject)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
