package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agent-pulse/pulsed/internal/agent"
	"github.com/agent-pulse/pulsed/internal/events"
	"github.com/agent-pulse/pulsed/internal/ledger"
	"github.com/agent-pulse/pulsed/internal/registry"
	"github.com/agent-pulse/pulsed/internal/server"
	"github.com/agent-pulse/pulsed/internal/storage"
)

const defaultAdminAddress = "0x0000000000000000000000000000000000000001"

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dataDir := os.Getenv("PULSE_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data dir: %v", err)
	}

	secret := os.Getenv("PULSE_ADMIN_SECRET")
	if secret == "" {
		log.Fatal("PULSE_ADMIN_SECRET environment variable is required")
	}

	db, err := storage.NewDB(dataDir + "/pulsed.db")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	params, adminAddr, err := loadParams(db)
	if err != nil {
		log.Fatalf("Failed to load params: %v", err)
	}

	assets := ledger.NewMemory()
	bus := events.NewBus()
	reg := registry.New(params, db, assets, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.New(reg, db, assets, bus, secret, adminAddr)
	srv.StartWorkers(ctx)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
	}()

	fmt.Printf("pulsed running on http://localhost:%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, srv))
}

// loadParams restores persisted registry parameters, or seeds defaults on
// first boot. PULSE_ADMIN_ADDRESS overrides the persisted administrator.
func loadParams(db *storage.DB) (*registry.Params, string, error) {
	adminAddr := agent.NormalizeAddress(os.Getenv("PULSE_ADMIN_ADDRESS"))

	row, err := db.LoadParams()
	if err != nil {
		return nil, "", err
	}
	if row == nil {
		if adminAddr == "" {
			adminAddr = defaultAdminAddress
		}
		params := registry.NewParams(adminAddr)
		row = &storage.ParamsRow{
			TTLSeconds:      params.TTLSeconds(),
			MinSignalAmount: params.MinSignalAmount(),
			Paused:          false,
			Administrator:   adminAddr,
		}
		if err := db.SaveParams(row); err != nil {
			return nil, "", err
		}
		return params, adminAddr, nil
	}

	if adminAddr == "" {
		adminAddr = row.Administrator
	}
	return registry.RestoreParams(adminAddr, row.TTLSeconds, row.MinSignalAmount, row.Paused), adminAddr, nil
}
