/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package attest persists the authenticator's attestation material:
// the batch signing key, its certificate, and the link secret used by
// the anonymous credential protocol. The three values form one record
// that is stored and read atomically.
package attest

import (
	"errors"

	"github.com/kentakayama/sk-anoncred/internal/secret"
)

const (
	// PrivateKeyLen is the length of the batch attestation signing key.
	PrivateKeyLen = 32

	// LinkSecretLen is the length of the BBS link secret.
	LinkSecretLen = 32
)

var (
	ErrStorage   = errors.New("attest: storage failure")
	ErrInternal  = errors.New("attest: internal error")
	ErrNoSupport = errors.New("attest: attestation not supported")
)

// ID selects which attestation a caller refers to.
type ID int

const (
	// Batch is the shared batch attestation programmed at the factory.
	Batch ID = iota

	// Enterprise is recognized but not provisioned in this build.
	Enterprise
)

// Attestation is the full attestation record. PrivateKey and
// LinkSecret are secrets; call Destroy once the record is no longer
// needed.
type Attestation struct {
	PrivateKey  *secret.Buffer
	Certificate []byte
	LinkSecret  *secret.Buffer
}

// New builds a record, copying the secret inputs into wipeable buffers.
func New(privateKey, certificate, linkSecret []byte) *Attestation {
	return &Attestation{
		PrivateKey:  secret.From(privateKey),
		Certificate: certificate,
		LinkSecret:  secret.From(linkSecret),
	}
}

// Destroy wipes the secret fields. The certificate is public and left
// untouched.
func (a *Attestation) Destroy() {
	if a == nil {
		return
	}
	a.PrivateKey.Wipe()
	a.LinkSecret.Wipe()
}
