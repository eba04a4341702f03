/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	cose "github.com/veraison/go-cose"

	"github.com/kentakayama/sk-anoncred/internal/config"
	"github.com/kentakayama/sk-anoncred/internal/env"
	"github.com/kentakayama/sk-anoncred/internal/infra/sqlite"
	"github.com/kentakayama/sk-anoncred/internal/upgrade"
	"github.com/kentakayama/sk-anoncred/resources"
)

// Server wires the HTTP listener and the authenticator environment.
type Server struct {
	cfg     config.ServerConfig
	handler *handler
	http    *http.Server
	db      *sql.DB
	logger  *log.Logger
}

// New constructs a Server using the provided configuration.
func New(cfg config.ServerConfig) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	opts := []env.Option{
		env.WithLogger(logger),
	}

	var db *sql.DB
	if cfg.DatabaseFile != "" {
		var err error
		db, err = sqlite.InitDB(context.Background(), cfg.DatabaseFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, env.WithStore(sqlite.NewSlotStore(context.Background(), db)))
	}

	if cfg.DisableUpgrade {
		opts = append(opts, env.WithoutUpgradeStorage())
	} else {
		verifyKey, err := upgradeVerifyKey(cfg.UpgradeVerifyKeyFile)
		if err != nil {
			sqlite.CloseDB(db)
			return nil, err
		}
		opts = append(opts, env.WithUpgradeStorage(upgrade.NewPartition(verifyKey)))
	}

	policy := env.Policy{
		BatchAttestation:  true,
		VendorChannelOnly: !cfg.AllowMainChannel,
	}
	if cfg.RequireBatchAttestation != nil {
		policy.BatchAttestation = *cfg.RequireBatchAttestation
	}
	opts = append(opts, env.WithPolicy(policy))

	h, err := newHandler(env.NewSoftware(opts...), logger)
	if err != nil {
		sqlite.CloseDB(db)
		return nil, err
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		cfg:     cfg,
		handler: h,
		http:    httpSrv,
		db:      db,
		logger:  logger,
	}, nil
}

// upgradeVerifyKey loads the metadata verification key from path, or
// falls back to the embedded development key.
func upgradeVerifyKey(path string) (*cose.Key, error) {
	raw := resources.UpgradeCoseKeyBytes
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read upgrade verify key: %w", err)
		}
		raw = data
	}

	var key cose.Key
	if err := cbor.Unmarshal(raw, &key); err != nil {
		return nil, fmt.Errorf("parse upgrade verify key: %w", err)
	}
	return &key, nil
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.logger.Printf("Run Vendor Command Server on %s.", s.http.Addr)

	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully takes down the HTTP server and closes the slot
// database when one is open.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if dbErr := sqlite.CloseDB(s.db); err == nil {
		err = dbErr
	}
	return err
}
