/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package bbs implements the BBS blind-signature scheme over BLS12-381:
// commitments carrying a proof of knowledge, blind signing over the
// committed values, and selective disclosure proofs. The link-secret
// helpers bind the scheme to the anonymous credential protocol, where
// the sole committed message is the authenticator's link secret.
package bbs

// draft-irtf-cfrg-bbs-blind-signatures

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

const (
	suiteID = "BBS_BLS12381G1_XMD:SHA-256_SSWU_RO_"

	pointLen  = bls12381.SizeOfG1AffineCompressed
	scalarLen = fr.Bytes
)

var (
	apiID      = []byte(suiteID + "H2G_HM2S_")
	blindAPIID = []byte(suiteID + "BLIND_H2G_HM2S_")
)

var (
	ErrInvalidPublicKey  = errors.New("bbs: invalid public key")
	ErrInvalidSecretKey  = errors.New("bbs: invalid secret key")
	ErrInvalidCommitment = errors.New("bbs: invalid commitment")
	ErrInvalidSignature  = errors.New("bbs: invalid signature")
	ErrInvalidProof      = errors.New("bbs: invalid proof")
	ErrInvalidLinkSecret = errors.New("bbs: invalid link secret")
)

func hashToScalar(msg, dst []byte) (fr.Element, error) {
	s, err := fr.Hash(msg, dst, 1)
	if err != nil {
		return fr.Element{}, fmt.Errorf("hash to scalar: %w", err)
	}
	return s[0], nil
}

// messagesToScalars maps each message into the scalar field under the
// given API identifier. Signer and prover must use the same identifier
// or the scheme falls apart.
func messagesToScalars(messages [][]byte, id []byte) ([]fr.Element, error) {
	dst := append(append([]byte{}, id...), []byte("MAP_MSG_TO_SCALAR_AS_HASH_")...)
	scalars := make([]fr.Element, len(messages))
	for i, msg := range messages {
		s, err := hashToScalar(msg, dst)
		if err != nil {
			return nil, err
		}
		scalars[i] = s
	}
	return scalars, nil
}

// createGenerators derives count independent G1 generators for the
// given API identifier. The first is the domain generator (Q), the
// rest are message generators (H_i or J_i).
func createGenerators(count int, id []byte) ([]bls12381.G1Affine, error) {
	dst := append(append([]byte{}, id...), []byte("SIG_GENERATOR_DST_")...)
	seed := append(append([]byte{}, id...), []byte("MESSAGE_GENERATOR_SEED")...)

	gens := make([]bls12381.G1Affine, count)
	for i := range gens {
		msg := append(append([]byte{}, seed...), i2osp8(uint64(i+1))...)
		g, err := bls12381.HashToG1(msg, dst)
		if err != nil {
			return nil, fmt.Errorf("derive generator %d: %w", i+1, err)
		}
		gens[i] = g
	}
	return gens, nil
}

// basePoint is the fixed P1 generator every signature chain starts
// from. Derived from its own seed so it can never collide with a
// message generator.
func basePoint() (bls12381.G1Affine, error) {
	dst := append(append([]byte{}, apiID...), []byte("SIG_GENERATOR_DST_")...)
	seed := append(append([]byte{}, apiID...), []byte("BP_MESSAGE_GENERATOR_SEED")...)
	p, err := bls12381.HashToG1(append(seed, i2osp8(1)...), dst)
	if err != nil {
		return bls12381.G1Affine{}, fmt.Errorf("derive base point: %w", err)
	}
	return p, nil
}

// calculateDomain binds the public key, every generator in use, and
// the header into a single scalar.
func calculateDomain(pk *PublicKey, sigGens, blindGens []bls12381.G1Affine, header []byte) (fr.Element, error) {
	buf := pk.Bytes()
	buf = append(buf, i2osp8(uint64(len(sigGens)))...)
	for i := range sigGens {
		b := sigGens[i].Bytes()
		buf = append(buf, b[:]...)
	}
	buf = append(buf, i2osp8(uint64(len(blindGens)))...)
	for i := range blindGens {
		b := blindGens[i].Bytes()
		buf = append(buf, b[:]...)
	}
	buf = append(buf, i2osp8(uint64(len(header)))...)
	buf = append(buf, header...)

	dst := append(append([]byte{}, apiID...), []byte("H2S_")...)
	return hashToScalar(buf, dst)
}

// randomScalar draws a uniformly distributed non-zero field element
// from rng using wide reduction.
func randomScalar(rng io.Reader) (fr.Element, error) {
	var wide [48]byte
	var s fr.Element
	for {
		if _, err := io.ReadFull(rng, wide[:]); err != nil {
			return s, fmt.Errorf("read randomness: %w", err)
		}
		s.SetBytes(wide[:])
		if !s.IsZero() {
			return s, nil
		}
	}
}

// sumG1 computes sum(points[i] * scalars[i]) + sum(extra).
func sumG1(points []bls12381.G1Affine, scalars []fr.Element, extra ...*bls12381.G1Affine) (bls12381.G1Affine, error) {
	var acc bls12381.G1Affine
	if len(points) > 0 {
		if _, err := acc.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
			return acc, fmt.Errorf("multi-scalar multiplication: %w", err)
		}
	}

	var jac bls12381.G1Jac
	jac.FromAffine(&acc)
	for _, p := range extra {
		var pj bls12381.G1Jac
		pj.FromAffine(p)
		jac.AddAssign(&pj)
	}
	acc.FromJacobian(&jac)
	return acc, nil
}

func i2osp8(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}
