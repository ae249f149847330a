// Command admintoken prints a signed admin token for the /api routes.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	config "github.com/maheshrc27/followflow/configs"
	"github.com/maheshrc27/followflow/pkg/utils"
)

func main() {
	subject := flag.String("subject", "admin", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY is required")
	}

	token, err := utils.GenerateToken(cfg.SecretKey, *subject, *ttl)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}
	fmt.Println(token)
}
