/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package env

import (
	"crypto/rand"
	"crypto/sha256"
	"io"
	"log"

	"github.com/kentakayama/sk-anoncred/internal/attest"
	"github.com/kentakayama/sk-anoncred/internal/store"
	"github.com/kentakayama/sk-anoncred/internal/upgrade"
)

// Software is the host-side environment: memory backed storage, OS
// randomness, auto-approved presence, an in-memory upgrade partition.
// Options replace individual capabilities, so tests and the daemon can
// swap exactly the parts they need.
type Software struct {
	kv       store.Store
	attest   *attest.Store
	rng      io.Reader
	upgrade  upgrade.Storage
	presence func(Channel) error
	lock     func() bool
	policy   Policy
	logger   *log.Logger
}

type Option func(*Software)

// WithStore replaces the backing key/value store.
func WithStore(kv store.Store) Option {
	return func(s *Software) { s.kv = kv }
}

// WithRNG replaces the random source.
func WithRNG(rng io.Reader) Option {
	return func(s *Software) { s.rng = rng }
}

// WithUpgradeStorage replaces the upgrade partition.
func WithUpgradeStorage(st upgrade.Storage) Option {
	return func(s *Software) { s.upgrade = st }
}

// WithoutUpgradeStorage builds an environment with no upgrade support,
// matching devices shipped without an upgrade partition.
func WithoutUpgradeStorage() Option {
	return func(s *Software) { s.upgrade = nil }
}

// WithPresenceGate installs a user-presence gate. The default gate
// approves immediately; a hardware-backed build blocks here until the
// button is touched.
func WithPresenceGate(gate func(Channel) error) Option {
	return func(s *Software) { s.presence = gate }
}

// WithFirmwareLock replaces the firmware protection lock operation.
func WithFirmwareLock(lock func() bool) Option {
	return func(s *Software) { s.lock = lock }
}

func WithPolicy(p Policy) Option {
	return func(s *Software) { s.policy = p }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Software) { s.logger = logger }
}

// NewSoftware assembles an environment from the defaults and the given
// options.
func NewSoftware(opts ...Option) *Software {
	s := &Software{
		kv:       store.NewMemStore(),
		rng:      rand.Reader,
		upgrade:  upgrade.NewPartition(nil),
		presence: func(Channel) error { return nil },
		lock:     func() bool { return true },
		policy:   Policy{BatchAttestation: true, VendorChannelOnly: true},
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.attest = attest.NewStore(s.kv)
	return s
}

func (s *Software) Store() store.Store { return s.kv }

func (s *Software) AttestationStore() *attest.Store { return s.attest }

func (s *Software) RNG() io.Reader { return s.rng }

func (s *Software) UpgradeStorage() upgrade.Storage { return s.upgrade }

func (s *Software) CheckUserPresence(ch Channel) error { return s.presence(ch) }

func (s *Software) LockFirmwareProtection() bool { return s.lock() }

func (s *Software) Policy() Policy { return s.policy }

func (s *Software) Hash(data []byte) [32]byte { return sha256.Sum256(data) }

func (s *Software) Logger() *log.Logger { return s.logger }
