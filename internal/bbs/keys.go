/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package bbs

import (
	"io"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

const (
	// PublicKeyLen is the compressed G2 encoding of a signer key.
	PublicKeyLen = bls12381.SizeOfG2AffineCompressed

	// SecretKeyLen is the scalar encoding of a signer key.
	SecretKeyLen = scalarLen
)

// SecretKey is an issuer signing key.
type SecretKey struct {
	x fr.Element
}

// PublicKey is the issuer verification key, a point in G2.
type PublicKey struct {
	w bls12381.G2Affine
}

// GenerateKeyPair draws a fresh signing key from rng.
func GenerateKeyPair(rng io.Reader) (*SecretKey, *PublicKey, error) {
	x, err := randomScalar(rng)
	if err != nil {
		return nil, nil, err
	}
	sk := &SecretKey{x: x}
	return sk, sk.Public(), nil
}

// Public derives the verification key.
func (sk *SecretKey) Public() *PublicKey {
	_, _, _, g2 := bls12381.Generators()
	var pk PublicKey
	pk.w.ScalarMultiplication(&g2, sk.x.BigInt(new(big.Int)))
	return &pk
}

func (sk *SecretKey) Bytes() []byte {
	b := sk.x.Bytes()
	return b[:]
}

func SecretKeyFromBytes(data []byte) (*SecretKey, error) {
	if len(data) != SecretKeyLen {
		return nil, ErrInvalidSecretKey
	}
	var sk SecretKey
	sk.x.SetBytes(data)
	if sk.x.IsZero() {
		return nil, ErrInvalidSecretKey
	}
	return &sk, nil
}

func (pk *PublicKey) Bytes() []byte {
	b := pk.w.Bytes()
	return b[:]
}

func PublicKeyFromBytes(data []byte) (*PublicKey, error) {
	if len(data) != PublicKeyLen {
		return nil, ErrInvalidPublicKey
	}
	var pk PublicKey
	if _, err := pk.w.SetBytes(data); err != nil {
		return nil, ErrInvalidPublicKey
	}
	if pk.w.IsInfinity() {
		return nil, ErrInvalidPublicKey
	}
	return &pk, nil
}
