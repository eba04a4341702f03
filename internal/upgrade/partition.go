/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package upgrade

import (
	"bytes"

	cose "github.com/veraison/go-cose"
)

// Partition is an in-memory upgrade partition. The hardware build
// backs the same contract with a flash page driver.
type Partition struct {
	buf       []byte
	verifyKey *cose.Key
}

// NewPartition allocates an empty partition. Metadata writes are
// verified against verifyKey; a nil key accepts any well-formed
// metadata envelope.
func NewPartition(verifyKey *cose.Key) *Partition {
	return &Partition{
		buf:       make([]byte, PartitionSize),
		verifyKey: verifyKey,
	}
}

// WriteBundle stores data at offset. Writes into the first page must
// start at offset zero and carry the signed bundle metadata; anything
// crossing the partition end is rejected before touching storage.
func (p *Partition) WriteBundle(offset int, data []byte) error {
	if len(data) == 0 || offset < 0 || offset+len(data) > len(p.buf) {
		return ErrOutOfBounds
	}
	if offset < MetadataLen {
		if offset != 0 || len(data) > MetadataLen {
			return ErrOutOfBounds
		}
		if _, err := ParseMetadata(data, p.verifyKey); err != nil {
			return err
		}
	}
	copy(p.buf[offset:], data)
	return nil
}

func (p *Partition) BundleIdentifier() uint32 {
	return bundleIdentifier
}

// ReadBundle returns a copy of the stored bytes at offset.
func (p *Partition) ReadBundle(offset, length int) ([]byte, error) {
	if length <= 0 || offset < 0 || offset+length > len(p.buf) {
		return nil, ErrOutOfBounds
	}
	return bytes.Clone(p.buf[offset : offset+length]), nil
}
