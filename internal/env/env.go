/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package env defines the capability surface vendor command handlers
// run against. A handler receives exactly one Env per command and owns
// it exclusively until the command returns.
package env

import (
	"errors"
	"io"
	"log"

	"github.com/kentakayama/sk-anoncred/internal/attest"
	"github.com/kentakayama/sk-anoncred/internal/store"
	"github.com/kentakayama/sk-anoncred/internal/upgrade"
)

// Presence gate outcomes. Anything else coming out of a gate is
// treated as an internal failure by the dispatcher.
var (
	ErrUserActionTimeout = errors.New("env: user presence timed out")
	ErrOperationDenied   = errors.New("env: user presence denied")
	ErrKeepaliveCancel   = errors.New("env: user presence cancelled")
)

// ChannelKind distinguishes the standard transport from the dedicated
// vendor transport.
type ChannelKind uint8

const (
	MainChannel ChannelKind = iota
	VendorChannel
)

// Channel identifies the transport a request arrived on.
type Channel struct {
	Kind ChannelKind
	ID   uint32
}

// Policy carries the build-time customization switches consulted by
// the dispatcher.
type Policy struct {
	// BatchAttestation reports whether certificate-backed batch
	// attestation is required on this build.
	BatchAttestation bool

	// VendorChannelOnly restricts vendor commands to the vendor
	// transport; requests arriving on the main transport are ignored.
	VendorChannelOnly bool
}

// Env is the capability object threaded through every vendor command
// handler.
type Env interface {
	Store() store.Store
	AttestationStore() *attest.Store
	RNG() io.Reader

	// UpgradeStorage returns nil when the build has no upgrade support.
	UpgradeStorage() upgrade.Storage

	// CheckUserPresence blocks until the user confirms, declines, or
	// the gate times out.
	CheckUserPresence(ch Channel) error

	// LockFirmwareProtection engages the firmware write protection and
	// reports whether it actually locked.
	LockFirmwareProtection() bool

	Policy() Policy
	Hash(data []byte) [32]byte
	Logger() *log.Logger
}
