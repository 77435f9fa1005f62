package main

import (
	"context"
	"fmt"
	"log"

	"user-registration-service/cmd/api/app"
	"user-registration-service/cmd/api/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("application exited with error: %v", err)
	}
}

func run() error {
	application, err := app.New()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx, stop := server.WithSignal(context.Background())
	defer stop()

	return application.Run(ctx)
}
