/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/kentakayama/sk-anoncred/internal/config"
	"github.com/kentakayama/sk-anoncred/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional)")
	addr := flag.String("addr", "", "listen address (overrides the config file)")
	dbFile := flag.String("db", "", "SQLite slot database (default: in-memory)")
	flag.Parse()

	cfg := config.DefaultServer()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadServerFile(*configPath)
		if err != nil {
			log.Fatalf("sk-anoncredd failed to load config: %v", err)
		}
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbFile != "" {
		cfg.DatabaseFile = *dbFile
	}
	cfg.Logger = log.Default()

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("sk-anoncredd failed to initialize: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("sk-anoncredd failed: %v", err)
	}
	log.Println("sk-anoncredd stopped")
}
