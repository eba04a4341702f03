/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package upgrade receives firmware bundle writes from the vendor
// upgrade command and keeps them inside a fixed-size partition.
package upgrade

import (
	"errors"

	"github.com/fxamacker/cbor/v2"
	cose "github.com/veraison/go-cose"
)

const (
	// PartitionSize is the writable size of the upgrade partition.
	PartitionSize = 0x40000

	// MetadataLen is the first page of the partition, reserved for the
	// signed bundle metadata.
	MetadataLen = 0x1000

	bundleIdentifier = 0x60000
)

var (
	ErrOutOfBounds = errors.New("upgrade: write outside partition")
	ErrMetadata    = errors.New("upgrade: invalid bundle metadata")
)

// Storage is the capability the vendor upgrade commands talk to. An
// environment without upgrade support exposes no Storage at all.
type Storage interface {
	// WriteBundle stores data at the given offset within the partition.
	WriteBundle(offset int, data []byte) error

	// BundleIdentifier names the partition layout expected by the
	// running firmware.
	BundleIdentifier() uint32
}

// Metadata is the signed description of an upgrade bundle, carried in
// the partition's first page as a COSE_Sign1 payload.
type Metadata struct {
	Version uint64 `cbor:"1,keyasint"`
	Digest  []byte `cbor:"2,keyasint"`
}

// ParseMetadata decodes a COSE_Sign1 metadata envelope and, when a
// verification key is given, checks its signature. A nil key skips the
// signature check.
func ParseMetadata(data []byte, key *cose.Key) (*Metadata, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(data); err != nil {
		return nil, ErrMetadata
	}

	if key != nil {
		verifier, err := key.Verifier()
		if err != nil {
			return nil, err
		}
		if err := msg.Verify(nil, verifier); err != nil {
			return nil, ErrMetadata
		}
	}

	var md Metadata
	if err := cbor.Unmarshal(msg.Payload, &md); err != nil {
		return nil, ErrMetadata
	}
	if len(md.Digest) != 32 {
		return nil, ErrMetadata
	}
	return &md, nil
}
