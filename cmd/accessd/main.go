// Package main implements the accessd demo process: it loads
// configuration, connects to the rule-source Postgres table, rehydrates
// the access-control enforcement engine from it, and serves the demo
// HTTP surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/nexusdirectory/accessd/internal/access"
	"github.com/nexusdirectory/accessd/internal/common"
	"github.com/nexusdirectory/accessd/internal/server"
	"github.com/nexusdirectory/accessd/internal/store"
)

func run(ctx context.Context, configPath string) error {
	common.PrintSplash()

	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := common.InitializeDatabase(cfg.Postgres, "")
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer db.Close()

	ruleStore, err := store.NewRuleEntryStore(db, cfg.Access.RuleTable)
	if err != nil {
		return fmt.Errorf("rule store: %w", err)
	}
	if err := ruleStore.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure rule table: %w", err)
	}

	engine := access.NewEngine()
	if cfg.Access.RehydrateOnStartup {
		if err := store.Rehydrate(ctx, ruleStore, engine, access.NoopSchemaValidator{}); err != nil {
			return fmt.Errorf("rehydrate engine: %w", err)
		}
	}

	r := server.NewRouter(cfg, engine, ruleStore, access.NoopSchemaValidator{})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("accessd listening on %s (contextPath=%q)", addr, cfg.Server.ContextPath)

	go func() {
		if err := http.ListenAndServe(addr, r); err != nil && err != http.ErrServerClosed {
			log.Printf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	return nil
}

func main() {
	configPath := ""
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	if err := run(context.Background(), configPath); err != nil {
		log.Fatalf("accessd: %v", err)
	}
}
