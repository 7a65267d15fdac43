package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/claudel/offrebot/internal/app"
)

func main() {
	// Local development convenience; production relies on real env vars.
	_ = godotenv.Load()

	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ offrebot failed to start: %v", err)
	}
}
