package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/odyssey-erp/console/internal/app"
	"github.com/odyssey-erp/console/internal/platform/db"
	"github.com/odyssey-erp/console/internal/seed"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.UsesMemory() {
		log.Fatal("seed requires DATA_BACKEND=postgres")
	}
	policy, err := app.LoadPolicy(cfg.PolicyFile, cfg.Currency)
	if err != nil {
		log.Fatalf("load policy: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	svc := app.BuildServices(cfg, policy, app.Infra{Pool: pool}, app.NewLogger(cfg))
	res, err := seed.Run(ctx, svc, os.Stdout, time.Now().UTC())
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("✓ Seed complete: %d clients, %d employees, %d projects, %d tasks, %d invoices, %d expenses, %d risks, %d assets\n",
		res.Clients, res.Employees, res.Projects, res.Tasks, res.Invoices, res.Expenses, res.Risks, res.Assets)
}
