/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package vendorcmd

import (
	"github.com/kentakayama/sk-anoncred/internal/attest"
	"github.com/kentakayama/sk-anoncred/internal/bbs"
	"github.com/kentakayama/sk-anoncred/internal/secret"
)

// AttestationMaterial is the nested map supplied to Configure:
// {1: certificate, 2: private key (32), 3: link secret (32)}.
type AttestationMaterial struct {
	Certificate []byte
	PrivateKey  []byte
	LinkSecret  []byte
}

func parseAttestationMaterial(m fields) (*AttestationMaterial, error) {
	cert, err := requireBytes(m, 1)
	if err != nil {
		return nil, err
	}
	pkey, err := requireFixedBytes(m, 2, attest.PrivateKeyLen)
	if err != nil {
		return nil, err
	}
	ls, err := requireFixedBytes(m, 3, attest.LinkSecretLen)
	if err != nil {
		return nil, err
	}
	return &AttestationMaterial{
		Certificate: cert,
		PrivateKey:  pkey,
		LinkSecret:  ls,
	}, nil
}

// ConfigureParameters decodes the Configure map:
// {1: lockdown (optional, default false), 2: attestation material (optional)}.
type ConfigureParameters struct {
	Lockdown bool
	Material *AttestationMaterial
}

func parseConfigureParameters(data []byte) (*ConfigureParameters, error) {
	m, err := decodeFields(data)
	if err != nil {
		return nil, err
	}
	lockdown, err := optionalBool(m, 1, false)
	if err != nil {
		return nil, err
	}
	materialFields, err := optionalMap(m, 2)
	if err != nil {
		return nil, err
	}
	var material *AttestationMaterial
	if materialFields != nil {
		material, err = parseAttestationMaterial(materialFields)
		if err != nil {
			return nil, err
		}
	}
	return &ConfigureParameters{Lockdown: lockdown, Material: material}, nil
}

// Wipe clears the secret halves of the supplied material.
func (p *ConfigureParameters) Wipe() {
	if p == nil || p.Material == nil {
		return
	}
	secret.Zero(p.Material.PrivateKey)
	secret.Zero(p.Material.LinkSecret)
}

// UpgradeParameters decodes the Upgrade map:
// {1: offset, 2: data, 3: expected hash (32)}.
type UpgradeParameters struct {
	Offset uint64
	Data   []byte
	Hash   []byte
}

func parseUpgradeParameters(data []byte) (*UpgradeParameters, error) {
	m, err := decodeFields(data)
	if err != nil {
		return nil, err
	}
	offset, err := requireUint(m, 1)
	if err != nil {
		return nil, err
	}
	payload, err := requireBytes(m, 2)
	if err != nil {
		return nil, err
	}
	hash, err := requireFixedBytes(m, 3, 32)
	if err != nil {
		return nil, err
	}
	return &UpgradeParameters{Offset: offset, Data: payload, Hash: hash}, nil
}

// ProofParameters decodes the Proof map:
// {1: public key, 2: messages, 3: signature (80), 4: header,
//  5: presentation header, 6: disclosed indexes, 7: blind factor (32)}.
type ProofParameters struct {
	PublicKey          []byte
	Messages           [][]byte
	Signature          []byte
	Header             []byte
	PresentationHeader []byte
	DisclosedIndexes   []int
	Blind              []byte
}

func parseProofParameters(data []byte) (*ProofParameters, error) {
	m, err := decodeFields(data)
	if err != nil {
		return nil, err
	}
	publicKey, err := requireBytes(m, 1)
	if err != nil {
		return nil, err
	}
	messages, err := requireByteArrays(m, 2)
	if err != nil {
		return nil, err
	}
	signature, err := requireFixedBytes(m, 3, bbs.SignatureLen)
	if err != nil {
		return nil, err
	}
	header, err := requireBytes(m, 4)
	if err != nil {
		return nil, err
	}
	presentationHeader, err := requireBytes(m, 5)
	if err != nil {
		return nil, err
	}
	indexes, err := requireIndexes(m, 6)
	if err != nil {
		return nil, err
	}
	blind, err := requireFixedBytes(m, 7, bbs.BlindFactorLen)
	if err != nil {
		return nil, err
	}
	return &ProofParameters{
		PublicKey:          publicKey,
		Messages:           messages,
		Signature:          signature,
		Header:             header,
		PresentationHeader: presentationHeader,
		DisclosedIndexes:   indexes,
		Blind:              blind,
	}, nil
}

// Wipe clears the caller-supplied blind factor.
func (p *ProofParameters) Wipe() {
	if p == nil {
		return
	}
	secret.Zero(p.Blind)
}
