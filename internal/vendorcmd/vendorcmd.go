/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package vendorcmd dispatches the vendor command channel of the
// authenticator: attestation provisioning, firmware upgrade writes,
// and the link secret commitment/proof protocol.
//
// A request frame is one command identifier byte followed by a CBOR
// parameter map. A response frame is a success byte followed by an
// optional CBOR map, or a single error status byte. Command
// identifiers the dispatcher does not own produce no frame at all, so
// an outer layer can fall through to its own handling.
package vendorcmd

import (
	"bytes"
	"errors"
	"math"

	"github.com/kentakayama/sk-anoncred/internal/attest"
	"github.com/kentakayama/sk-anoncred/internal/bbs"
	"github.com/kentakayama/sk-anoncred/internal/env"
	"github.com/kentakayama/sk-anoncred/internal/upgrade"
)

// Command is the one-byte vendor command identifier.
type Command byte

const (
	CommandConfigure   Command = 0x40
	CommandUpgrade     Command = 0x42
	CommandUpgradeInfo Command = 0x43
	CommandCommitment  Command = 0x50
	CommandProof       Command = 0x51
)

// Process runs a single vendor command frame against the environment
// and returns the response frame. It returns nil when the frame is not
// a vendor command this dispatcher owns, including any traffic on the
// main transport while policy restricts vendor commands to the vendor
// transport.
func Process(e env.Env, request []byte, ch env.Channel) []byte {
	if len(request) == 0 {
		return nil
	}
	if e.Policy().VendorChannelOnly && ch.Kind != env.VendorChannel {
		return nil
	}

	cmd := Command(request[0])
	payload := request[1:]

	switch cmd {
	case CommandConfigure:
		resp, err := processConfigure(e, payload, ch)
		return encode(e, cmd, resp, err)
	case CommandUpgrade:
		return encode(e, cmd, nil, processUpgrade(e, payload))
	case CommandUpgradeInfo:
		resp, err := processUpgradeInfo(e)
		return encode(e, cmd, resp, err)
	case CommandCommitment:
		resp, err := processCommitment(e, ch)
		return encode(e, cmd, resp, err)
	case CommandProof:
		resp, err := processProof(e, payload, ch)
		return encode(e, cmd, resp, err)
	}
	return nil
}

func processConfigure(e env.Env, data []byte, ch env.Channel) (*ConfigureResponse, error) {
	params, err := parseConfigureParameters(data)
	if err != nil {
		return nil, err
	}
	defer params.Wipe()

	if params.Material != nil || params.Lockdown {
		if err := e.CheckUserPresence(ch); err != nil {
			return nil, err
		}
	}

	store := e.AttestationStore()
	if params.Material != nil {
		existing, err := store.Get(attest.Batch)
		if err != nil {
			return nil, StatusVendorInternalError
		}
		if existing == nil {
			record := attest.New(params.Material.PrivateKey, params.Material.Certificate, params.Material.LinkSecret)
			err := store.Set(attest.Batch, record)
			record.Destroy()
			if err != nil {
				return nil, StatusVendorInternalError
			}
		} else {
			// keep the current record and do not tell the caller
			existing.Destroy()
		}
	}

	record, err := store.Get(attest.Batch)
	if err != nil {
		return nil, StatusVendorInternalError
	}
	programmed := record != nil
	if programmed {
		record.Destroy()
	}

	if params.Lockdown {
		// locking down without stored attestation would brick a build
		// that requires it
		if (e.Policy().BatchAttestation && !programmed) || !e.LockFirmwareProtection() {
			return nil, StatusVendorInternalError
		}
	}

	return &ConfigureResponse{
		CertProgrammed:       programmed,
		PrivateKeyProgrammed: programmed,
		LinkSecretProgrammed: programmed,
	}, nil
}

func processUpgrade(e env.Env, data []byte) error {
	params, err := parseUpgradeParameters(data)
	if err != nil {
		return err
	}
	storage := e.UpgradeStorage()
	if storage == nil {
		return StatusInvalidCommand
	}
	if params.Offset > math.MaxInt32 {
		return StatusInvalidParameter
	}

	digest := e.Hash(params.Data)
	if !bytes.Equal(digest[:], params.Hash) {
		return StatusIntegrityFailure
	}

	if err := storage.WriteBundle(int(params.Offset), params.Data); err != nil {
		switch {
		case errors.Is(err, upgrade.ErrOutOfBounds):
			return StatusInvalidParameter
		case errors.Is(err, upgrade.ErrMetadata):
			return StatusIntegrityFailure
		}
		return StatusVendorInternalError
	}
	return nil
}

func processUpgradeInfo(e env.Env) (*UpgradeInfoResponse, error) {
	storage := e.UpgradeStorage()
	if storage == nil {
		return nil, StatusInvalidCommand
	}
	return &UpgradeInfoResponse{Identifier: uint64(storage.BundleIdentifier())}, nil
}

func processCommitment(e env.Env, ch env.Channel) (*CommitmentResponse, error) {
	if err := e.CheckUserPresence(ch); err != nil {
		return nil, err
	}

	record, err := e.AttestationStore().Get(attest.Batch)
	if err != nil || record == nil {
		return nil, StatusVendorInternalError
	}
	defer record.Destroy()

	ls, err := bbs.LinkSecretFromBytes(record.LinkSecret.Bytes())
	if err != nil {
		return nil, StatusVendorInternalError
	}
	defer ls.Wipe()

	commitment, blind, err := bbs.GenerateLinkSecretCommitment(e.RNG(), ls)
	if err != nil {
		return nil, StatusVendorInternalError
	}
	defer blind.Wipe()

	return &CommitmentResponse{Commitment: commitment, Blind: blind.Bytes()}, nil
}

func processProof(e env.Env, data []byte, ch env.Channel) (*ProofResponse, error) {
	params, err := parseProofParameters(data)
	if err != nil {
		return nil, err
	}
	defer params.Wipe()

	if err := e.CheckUserPresence(ch); err != nil {
		return nil, err
	}

	record, err := e.AttestationStore().Get(attest.Batch)
	if err != nil || record == nil {
		return nil, StatusVendorInternalError
	}
	defer record.Destroy()

	// everything from here on is opaque to the caller
	pk, err := bbs.PublicKeyFromBytes(params.PublicKey)
	if err != nil {
		return nil, StatusVendorInternalError
	}
	sig, err := bbs.SignatureFromBytes(params.Signature)
	if err != nil {
		return nil, StatusVendorInternalError
	}
	blind, err := bbs.BlindFactorFromBytes(params.Blind)
	if err != nil {
		return nil, StatusVendorInternalError
	}
	defer blind.Wipe()

	ls, err := bbs.LinkSecretFromBytes(record.LinkSecret.Bytes())
	if err != nil {
		return nil, StatusVendorInternalError
	}
	defer ls.Wipe()

	resp, err := bbs.GenerateProof(e.RNG(), pk, params.Messages, ls, sig, params.Header, params.PresentationHeader, params.DisclosedIndexes, blind)
	if err != nil {
		return nil, StatusVendorInternalError
	}
	return &ProofResponse{Proof: resp.Proof}, nil
}

func encode(e env.Env, cmd Command, body any, err error) []byte {
	if err != nil {
		status := toStatus(err)
		e.Logger().Printf("vendor command 0x%02X: %v", byte(cmd), status)
		return []byte{byte(status)}
	}
	if body == nil {
		return []byte{byte(StatusOK)}
	}
	encoded, err := encMode.Marshal(body)
	if err != nil {
		e.Logger().Printf("vendor command 0x%02X: response encoding: %v", byte(cmd), err)
		return []byte{byte(StatusVendorInternalError)}
	}
	return append([]byte{byte(StatusOK)}, encoded...)
}

func toStatus(err error) Status {
	var status Status
	if errors.As(err, &status) {
		return status
	}
	switch {
	case errors.Is(err, env.ErrUserActionTimeout):
		return StatusUserActionTimeout
	case errors.Is(err, env.ErrOperationDenied):
		return StatusOperationDenied
	case errors.Is(err, env.ErrKeepaliveCancel):
		return StatusKeepaliveCancel
	}
	return StatusVendorInternalError
}
