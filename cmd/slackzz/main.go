package main

import (
	"context"
	"log"
	"os"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
	"github.com/joho/godotenv"
)

func main() {
	// SLACKZZ_ENV_FILE points at an extra env file (e.g. secrets mounted by
	// the deployment). Variables already set in the environment win.
	if f := os.Getenv("SLACKZZ_ENV_FILE"); f != "" {
		if err := godotenv.Load(f); err != nil {
			log.Fatalf("load %s: %v", f, err)
		}
	}

	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
