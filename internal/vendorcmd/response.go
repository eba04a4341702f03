/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package vendorcmd

import "github.com/fxamacker/cbor/v2"

// Responses encode as CTAP2 canonical CBOR maps behind a success
// status byte. Failures are the bare status byte.

var encMode = func() cbor.EncMode {
	em, err := cbor.CTAP2EncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// ConfigureResponse reports which attestation fields are programmed
// after the command. The three fields move together; they stay
// separate on the wire for compatibility.
type ConfigureResponse struct {
	CertProgrammed       bool `cbor:"1,keyasint"`
	PrivateKeyProgrammed bool `cbor:"2,keyasint"`
	LinkSecretProgrammed bool `cbor:"3,keyasint"`
}

type UpgradeInfoResponse struct {
	Identifier uint64 `cbor:"1,keyasint"`
}

type CommitmentResponse struct {
	Commitment []byte `cbor:"1,keyasint"`
	Blind      []byte `cbor:"2,keyasint"`
}

// ProofResponse carries the proof bytes alone; the caller already
// knows what it disclosed.
type ProofResponse struct {
	Proof []byte `cbor:"1,keyasint"`
}
