package main

import (
	"Larder-Backend/cmd/config"
	migration "Larder-Backend/cmd/database/migrate"
	"Larder-Backend/internal/utils"
	"context"
	"log"
	"strconv"
	"time"
)

const defaultSweepInterval = 60 * time.Minute

func main() {
	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := migration.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	app, expiryNotifier, inventoryService, err := config.NewApp(db)
	if err != nil {
		log.Fatalf("failed to build app: %v", err)
	}

	// Periodic expired-status sweep. The flag it writes is advisory; read
	// paths recompute expiration from the stored date either way.
	go func() {
		ticker := time.NewTicker(sweepInterval())
		defer ticker.Stop()
		for range ticker.C {
			res, err := inventoryService.UpdateExpiredStatus(context.Background())
			if err != nil {
				log.Printf("expired-status sweep failed: %v", err)
				continue
			}
			log.Printf("expired-status sweep updated %d records", res.UpdatedCount)
		}
	}()

	// Daily expiring-soon digest mail.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := expiryNotifier.SendExpiryDigest(context.Background()); err != nil {
				log.Printf("expiry digest failed: %v", err)
			}
		}
	}()

	if err := app.Listen(":8080"); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func sweepInterval() time.Duration {
	raw := utils.GetConfig("SWEEP_INTERVAL_MINUTES")
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return defaultSweepInterval
	}
	return time.Duration(minutes) * time.Minute
}
