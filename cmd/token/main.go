// Command token prints a signed development JWT for a member id.
//
//	go run ./cmd/token -member 42 -ttl 24h
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	jwtmw "stock_simulator/internal/platform/jwt"
)

func main() {
	_ = godotenv.Load()

	member := flag.Uint("member", 0, "member id to put in the sub claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *member == 0 {
		log.Fatal("-member is required")
	}
	secret := os.Getenv(jwtmw.EnvKeyJWTSecret)
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	token, err := jwtmw.NewGenerator(secret, *ttl).GenerateToken(uint(*member))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
