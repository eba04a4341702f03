/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package bbs

import (
	"io"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// BlindFactorLen is the serialized length of a commitment blind factor.
const BlindFactorLen = scalarLen

// BlindFactor is the secret scalar blinding a commitment. The prover
// needs it again for every proof over the resulting blind signature,
// but it must never be persisted on the signer side.
type BlindFactor struct {
	s fr.Element
}

func (b *BlindFactor) Bytes() []byte {
	out := b.s.Bytes()
	return out[:]
}

func BlindFactorFromBytes(data []byte) (*BlindFactor, error) {
	if len(data) != BlindFactorLen {
		return nil, ErrInvalidCommitment
	}
	var b BlindFactor
	b.s.SetBytes(data)
	return &b, nil
}

// Wipe clears the scalar. The factor is unusable afterwards.
func (b *BlindFactor) Wipe() {
	if b == nil {
		return
	}
	b.s.SetZero()
}

// Commit commits to committedMessages under a fresh blind factor and
// attaches a Schnorr proof of knowledge of all openings. It returns
// the commitment-with-proof octets and the blind factor.
func Commit(rng io.Reader, committedMessages [][]byte) ([]byte, *BlindFactor, error) {
	m := len(committedMessages)
	if m == 0 {
		return nil, nil, ErrInvalidCommitment
	}

	gens, err := createGenerators(m+1, blindAPIID)
	if err != nil {
		return nil, nil, err
	}
	msgScalars, err := messagesToScalars(committedMessages, blindAPIID)
	if err != nil {
		return nil, nil, err
	}

	s, err := randomScalar(rng)
	if err != nil {
		return nil, nil, err
	}

	// C = Q_2 * s + J_1 * msg_1 + ... + J_m * msg_m
	scalars := make([]fr.Element, 0, m+1)
	scalars = append(scalars, s)
	scalars = append(scalars, msgScalars...)
	commitment, err := sumG1(gens, scalars)
	if err != nil {
		return nil, nil, err
	}

	// proof of knowledge of s and every committed message
	sTilde, err := randomScalar(rng)
	if err != nil {
		return nil, nil, err
	}
	mTilde := make([]fr.Element, m)
	for i := range mTilde {
		if mTilde[i], err = randomScalar(rng); err != nil {
			return nil, nil, err
		}
	}
	blinds := make([]fr.Element, 0, m+1)
	blinds = append(blinds, sTilde)
	blinds = append(blinds, mTilde...)
	cBar, err := sumG1(gens, blinds)
	if err != nil {
		return nil, nil, err
	}

	chal, err := calcBlindChallenge(&commitment, &cBar, gens)
	if err != nil {
		return nil, nil, err
	}

	var sHat fr.Element
	sHat.Mul(&chal, &s)
	sHat.Add(&sHat, &sTilde)

	out := make([]byte, 0, pointLen+(2+m)*scalarLen)
	cb := commitment.Bytes()
	out = append(out, cb[:]...)
	chb := chal.Bytes()
	out = append(out, chb[:]...)
	shb := sHat.Bytes()
	out = append(out, shb[:]...)
	for i := range mTilde {
		var mHat fr.Element
		mHat.Mul(&chal, &msgScalars[i])
		mHat.Add(&mHat, &mTilde[i])
		mhb := mHat.Bytes()
		out = append(out, mhb[:]...)
	}

	return out, &BlindFactor{s: s}, nil
}

// VerifyCommitment reports whether commitmentWithProof is a valid
// commitment to exactly committedCount messages. The result is binary;
// malformed input is simply invalid.
func VerifyCommitment(commitmentWithProof []byte, committedCount int) bool {
	_, m, ok := checkCommitment(commitmentWithProof)
	return ok && m == committedCount
}

// checkCommitment validates the proof of knowledge and returns the
// commitment point and the committed message count.
func checkCommitment(data []byte) (bls12381.G1Affine, int, bool) {
	var commitment bls12381.G1Affine

	if len(data) < pointLen+3*scalarLen {
		return commitment, 0, false
	}
	if (len(data)-pointLen-2*scalarLen)%scalarLen != 0 {
		return commitment, 0, false
	}
	m := (len(data) - pointLen - 2*scalarLen) / scalarLen

	if _, err := commitment.SetBytes(data[:pointLen]); err != nil {
		return commitment, 0, false
	}
	if commitment.IsInfinity() {
		return commitment, 0, false
	}

	var chal, sHat fr.Element
	off := pointLen
	chal.SetBytes(data[off : off+scalarLen])
	off += scalarLen
	sHat.SetBytes(data[off : off+scalarLen])
	off += scalarLen
	mHat := make([]fr.Element, m)
	for i := range mHat {
		mHat[i].SetBytes(data[off : off+scalarLen])
		off += scalarLen
	}

	gens, err := createGenerators(m+1, blindAPIID)
	if err != nil {
		return commitment, 0, false
	}

	// Cbar = Q_2 * sHat + sum J_i * mHat_i - C * chal
	var negChal fr.Element
	negChal.Neg(&chal)
	points := make([]bls12381.G1Affine, 0, m+2)
	points = append(points, gens...)
	points = append(points, commitment)
	scalars := make([]fr.Element, 0, m+2)
	scalars = append(scalars, sHat)
	scalars = append(scalars, mHat...)
	scalars = append(scalars, negChal)
	cBar, err := sumG1(points, scalars)
	if err != nil {
		return commitment, 0, false
	}

	expected, err := calcBlindChallenge(&commitment, &cBar, gens)
	if err != nil {
		return commitment, 0, false
	}
	return commitment, m, expected.Equal(&chal)
}

func calcBlindChallenge(commitment, cBar *bls12381.G1Affine, gens []bls12381.G1Affine) (fr.Element, error) {
	buf := make([]byte, 0, 2*pointLen+8+len(gens)*pointLen)
	cb := commitment.Bytes()
	buf = append(buf, cb[:]...)
	bb := cBar.Bytes()
	buf = append(buf, bb[:]...)
	buf = append(buf, i2osp8(uint64(len(gens)-1))...)
	for i := range gens {
		gb := gens[i].Bytes()
		buf = append(buf, gb[:]...)
	}

	dst := append(append([]byte{}, blindAPIID...), []byte("H2S_")...)
	return hashToScalar(buf, dst)
}
