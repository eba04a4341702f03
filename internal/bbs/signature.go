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

// SignatureLen is the serialized length of a blind signature: a
// compressed G1 point followed by a scalar.
const SignatureLen = pointLen + scalarLen

// Signature is a BBS blind signature over a message list plus a
// commitment supplied by the holder.
type Signature struct {
	a bls12381.G1Affine
	e fr.Element
}

func (s *Signature) Bytes() []byte {
	out := make([]byte, 0, SignatureLen)
	ab := s.a.Bytes()
	out = append(out, ab[:]...)
	eb := s.e.Bytes()
	return append(out, eb[:]...)
}

func SignatureFromBytes(data []byte) (*Signature, error) {
	if len(data) != SignatureLen {
		return nil, ErrInvalidSignature
	}
	var s Signature
	if _, err := s.a.SetBytes(data[:pointLen]); err != nil {
		return nil, ErrInvalidSignature
	}
	if s.a.IsInfinity() {
		return nil, ErrInvalidSignature
	}
	s.e.SetBytes(data[pointLen:])
	return &s, nil
}

// BlindSign issues a signature over messages plus the values hidden in
// commitmentWithProof. The commitment proof is validated first; a
// commitment the holder cannot open is rejected.
func BlindSign(rng io.Reader, sk *SecretKey, commitmentWithProof, header []byte, messages [][]byte) (*Signature, error) {
	commitment, m, ok := checkCommitment(commitmentWithProof)
	if !ok {
		return nil, ErrInvalidCommitment
	}

	sigGens, err := createGenerators(len(messages)+1, apiID)
	if err != nil {
		return nil, err
	}
	blindGens, err := createGenerators(m+1, blindAPIID)
	if err != nil {
		return nil, err
	}
	domain, err := calculateDomain(sk.Public(), sigGens, blindGens, header)
	if err != nil {
		return nil, err
	}
	msgScalars, err := messagesToScalars(messages, apiID)
	if err != nil {
		return nil, err
	}
	p1, err := basePoint()
	if err != nil {
		return nil, err
	}

	// B = P_1 + Q_1 * domain + sum H_i * msg_i + C
	scalars := make([]fr.Element, 0, len(msgScalars)+1)
	scalars = append(scalars, domain)
	scalars = append(scalars, msgScalars...)
	b, err := sumG1(sigGens, scalars, &p1, &commitment)
	if err != nil {
		return nil, err
	}

	e, err := randomScalar(rng)
	if err != nil {
		return nil, err
	}

	// A = B * 1 / (sk + e)
	var denom fr.Element
	denom.Add(&sk.x, &e)
	if denom.IsZero() {
		return nil, ErrInvalidSecretKey
	}
	var inv fr.Element
	inv.Inverse(&denom)

	var sig Signature
	sig.a.ScalarMultiplication(&b, inv.BigInt(new(big.Int)))
	sig.e = e
	return &sig, nil
}

// VerifySignature checks a blind signature with every message and
// committed message known in clear, including the blind factor. Only
// the holder can run it; verifiers use BlindProofVerify instead.
func VerifySignature(pk *PublicKey, sig *Signature, header []byte, messages, committedMessages [][]byte, blindFactor *BlindFactor) (bool, error) {
	if sig.a.IsInfinity() {
		return false, nil
	}

	sigGens, err := createGenerators(len(messages)+1, apiID)
	if err != nil {
		return false, err
	}
	blindGens, err := createGenerators(len(committedMessages)+1, blindAPIID)
	if err != nil {
		return false, err
	}
	domain, err := calculateDomain(pk, sigGens, blindGens, header)
	if err != nil {
		return false, err
	}
	msgScalars, err := messagesToScalars(messages, apiID)
	if err != nil {
		return false, err
	}
	cmScalars, err := messagesToScalars(committedMessages, blindAPIID)
	if err != nil {
		return false, err
	}
	p1, err := basePoint()
	if err != nil {
		return false, err
	}

	points := make([]bls12381.G1Affine, 0, len(sigGens)+len(blindGens))
	points = append(points, sigGens...)
	points = append(points, blindGens...)
	scalars := make([]fr.Element, 0, len(points))
	scalars = append(scalars, domain)
	scalars = append(scalars, msgScalars...)
	scalars = append(scalars, blindFactor.s)
	scalars = append(scalars, cmScalars...)
	b, err := sumG1(points, scalars, &p1)
	if err != nil {
		return false, err
	}

	// e(A, W + e * G2) == e(B, G2)
	_, g2Jac, _, g2Aff := bls12381.Generators()
	var acc bls12381.G2Jac
	acc.ScalarMultiplication(&g2Jac, sig.e.BigInt(new(big.Int)))
	var wJac bls12381.G2Jac
	wJac.FromAffine(&pk.w)
	acc.AddAssign(&wJac)
	var wPlusE bls12381.G2Affine
	wPlusE.FromJacobian(&acc)

	var negB bls12381.G1Affine
	negB.Neg(&b)

	return bls12381.PairingCheck(
		[]bls12381.G1Affine{sig.a, negB},
		[]bls12381.G2Affine{wPlusE, g2Aff},
	)
}
