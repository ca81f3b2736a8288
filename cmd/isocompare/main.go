package main

import (
	"context"
	"log"
	"os"

	"github.com/rawblock/isocompare/internal/api"
	"github.com/rawblock/isocompare/internal/store"
)

func main() {
	log.Println("Starting isocompare (netlist isomorphism comparison host)...")

	// DATABASE_URL is optional: the engine itself never needs persistence
	//, so a run can be submitted and observed over
	// its websocket topic even with no store configured. Only run history
	// and audit survive a restart when it's set.
	var db *store.PostgresStore
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		conn, err := store.Connect(context.Background(), dbURL)
		if err != nil {
			log.Printf("warning: failed to connect to PostgreSQL, continuing without run persistence: %v", err)
		} else {
			db = conn
			defer db.Close()
			if err := db.InitSchema(context.Background()); err != nil {
				log.Printf("warning: schema init failed: %v", err)
			}
		}
	} else {
		log.Println("DATABASE_URL not set, running without run persistence")
	}

	wsHub := api.NewHub()
	go wsHub.Run()

	r := api.SetupRouter(db, wsHub)

	port := getEnvOrDefault("PORT", "5339")
	log.Printf("isocompare listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
