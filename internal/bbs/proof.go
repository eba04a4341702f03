/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package bbs

import (
	"io"
	"math/big"
	"sort"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/kentakayama/sk-anoncred/internal/util"
)

// Proofs run over a combined message vector in which the first slot is
// the blind factor and the next ones are the committed messages. An
// application message at index i therefore sits at combined index
// 1 + committedCount + i. Callers only ever see application indexes;
// the shift stays inside this file.

// BlindProofGen creates a selective disclosure proof over a blind
// signature. disclosedIndexes selects application messages to reveal;
// the committed messages and the blind factor always stay hidden.
func BlindProofGen(rng io.Reader, pk *PublicKey, sig *Signature, header, presentationHeader []byte, messages, committedMessages [][]byte, disclosedIndexes []int, blindFactor *BlindFactor) ([]byte, error) {
	m := len(committedMessages)
	l := len(messages)

	disclosed := util.NewSet[int]()
	for _, idx := range disclosedIndexes {
		if idx < 0 || idx >= l || disclosed.Has(idx) {
			return nil, ErrInvalidProof
		}
		disclosed.Add(idx)
	}

	sigGens, err := createGenerators(l+1, apiID)
	if err != nil {
		return nil, err
	}
	blindGens, err := createGenerators(m+1, blindAPIID)
	if err != nil {
		return nil, err
	}
	domain, err := calculateDomain(pk, sigGens, blindGens, header)
	if err != nil {
		return nil, err
	}
	msgScalars, err := messagesToScalars(messages, apiID)
	if err != nil {
		return nil, err
	}
	cmScalars, err := messagesToScalars(committedMessages, blindAPIID)
	if err != nil {
		return nil, err
	}
	p1, err := basePoint()
	if err != nil {
		return nil, err
	}

	// combined vectors: [Q_2, J_1..J_m, H_1..H_l] against
	// [blind factor, committed..., messages...]
	combinedGens := make([]bls12381.G1Affine, 0, 1+m+l)
	combinedGens = append(combinedGens, blindGens...)
	combinedGens = append(combinedGens, sigGens[1:]...)
	combinedScalars := make([]fr.Element, 0, 1+m+l)
	combinedScalars = append(combinedScalars, blindFactor.s)
	combinedScalars = append(combinedScalars, cmScalars...)
	combinedScalars = append(combinedScalars, msgScalars...)

	// B = P_1 + Q_1 * domain + sum gen_j * scalar_j
	points := make([]bls12381.G1Affine, 0, 2+m+l)
	points = append(points, sigGens[0])
	points = append(points, combinedGens...)
	scalars := make([]fr.Element, 0, len(points))
	scalars = append(scalars, domain)
	scalars = append(scalars, combinedScalars...)
	b, err := sumG1(points, scalars, &p1)
	if err != nil {
		return nil, err
	}

	var disclosedCombined []int
	var undisclosedCombined []int
	for j := 0; j < 1+m+l; j++ {
		if j >= 1+m && disclosed.Has(j-1-m) {
			disclosedCombined = append(disclosedCombined, j)
		} else {
			undisclosedCombined = append(undisclosedCombined, j)
		}
	}
	disclosedScalars := make([]fr.Element, len(disclosedCombined))
	for i, j := range disclosedCombined {
		disclosedScalars[i] = combinedScalars[j]
	}

	r1, err := randomScalar(rng)
	if err != nil {
		return nil, err
	}
	r2, err := randomScalar(rng)
	if err != nil {
		return nil, err
	}
	eTilde, err := randomScalar(rng)
	if err != nil {
		return nil, err
	}
	r1Tilde, err := randomScalar(rng)
	if err != nil {
		return nil, err
	}
	r3Tilde, err := randomScalar(rng)
	if err != nil {
		return nil, err
	}
	mTilde := make([]fr.Element, len(undisclosedCombined))
	for i := range mTilde {
		if mTilde[i], err = randomScalar(rng); err != nil {
			return nil, err
		}
	}

	var d bls12381.G1Affine
	d.ScalarMultiplication(&b, r2.BigInt(new(big.Int)))

	var r1r2 fr.Element
	r1r2.Mul(&r1, &r2)
	var aBar bls12381.G1Affine
	aBar.ScalarMultiplication(&sig.a, r1r2.BigInt(new(big.Int)))

	// Bbar = D * r1 - Abar * e
	var negE fr.Element
	negE.Neg(&sig.e)
	bBar, err := sumG1(
		[]bls12381.G1Affine{d, aBar},
		[]fr.Element{r1, negE},
	)
	if err != nil {
		return nil, err
	}

	t1, err := sumG1(
		[]bls12381.G1Affine{aBar, d},
		[]fr.Element{eTilde, r1Tilde},
	)
	if err != nil {
		return nil, err
	}

	t2Points := make([]bls12381.G1Affine, 0, 1+len(undisclosedCombined))
	t2Points = append(t2Points, d)
	t2Scalars := make([]fr.Element, 0, cap(t2Points))
	t2Scalars = append(t2Scalars, r3Tilde)
	for i, j := range undisclosedCombined {
		t2Points = append(t2Points, combinedGens[j])
		t2Scalars = append(t2Scalars, mTilde[i])
	}
	t2, err := sumG1(t2Points, t2Scalars)
	if err != nil {
		return nil, err
	}

	chal, err := proofChallenge(&aBar, &bBar, &d, &t1, &t2, disclosedCombined, disclosedScalars, &domain, presentationHeader)
	if err != nil {
		return nil, err
	}

	var r3 fr.Element
	r3.Inverse(&r2)

	var eHat, r1Hat, r3Hat, tmp fr.Element
	eHat.Mul(&sig.e, &chal)
	eHat.Add(&eHat, &eTilde)
	tmp.Mul(&r1, &chal)
	r1Hat.Sub(&r1Tilde, &tmp)
	tmp.Mul(&r3, &chal)
	r3Hat.Sub(&r3Tilde, &tmp)

	out := make([]byte, 0, 3*pointLen+(4+len(undisclosedCombined))*scalarLen)
	ab := aBar.Bytes()
	out = append(out, ab[:]...)
	bb := bBar.Bytes()
	out = append(out, bb[:]...)
	db := d.Bytes()
	out = append(out, db[:]...)
	eb := eHat.Bytes()
	out = append(out, eb[:]...)
	r1b := r1Hat.Bytes()
	out = append(out, r1b[:]...)
	r3b := r3Hat.Bytes()
	out = append(out, r3b[:]...)
	for i, j := range undisclosedCombined {
		var mHat fr.Element
		mHat.Mul(&combinedScalars[j], &chal)
		mHat.Add(&mHat, &mTilde[i])
		mb := mHat.Bytes()
		out = append(out, mb[:]...)
	}
	cb := chal.Bytes()
	out = append(out, cb[:]...)
	return out, nil
}

// BlindProofVerify checks a selective disclosure proof. messageCount
// and committedCount describe the signed vector; disclosedIndexes are
// application message indexes matching disclosedMessages.
func BlindProofVerify(pk *PublicKey, proof, header, presentationHeader []byte, messageCount, committedCount int, disclosedIndexes []int, disclosedMessages [][]byte) (bool, error) {
	m := committedCount
	l := messageCount
	if m < 0 || l < 0 || len(disclosedIndexes) != len(disclosedMessages) {
		return false, ErrInvalidProof
	}

	seen := util.NewSet[int]()
	for _, idx := range disclosedIndexes {
		if idx < 0 || idx >= l || seen.Has(idx) {
			return false, ErrInvalidProof
		}
		seen.Add(idx)
	}

	undisclosedCount := 1 + m + l - len(disclosedIndexes)
	if len(proof) != 3*pointLen+(4+undisclosedCount)*scalarLen {
		return false, nil
	}

	var aBar, bBar, d bls12381.G1Affine
	off := 0
	if _, err := aBar.SetBytes(proof[off : off+pointLen]); err != nil {
		return false, nil
	}
	off += pointLen
	if _, err := bBar.SetBytes(proof[off : off+pointLen]); err != nil {
		return false, nil
	}
	off += pointLen
	if _, err := d.SetBytes(proof[off : off+pointLen]); err != nil {
		return false, nil
	}
	off += pointLen
	if aBar.IsInfinity() {
		return false, nil
	}

	var eHat, r1Hat, r3Hat, chal fr.Element
	eHat.SetBytes(proof[off : off+scalarLen])
	off += scalarLen
	r1Hat.SetBytes(proof[off : off+scalarLen])
	off += scalarLen
	r3Hat.SetBytes(proof[off : off+scalarLen])
	off += scalarLen
	mHat := make([]fr.Element, undisclosedCount)
	for i := range mHat {
		mHat[i].SetBytes(proof[off : off+scalarLen])
		off += scalarLen
	}
	chal.SetBytes(proof[off : off+scalarLen])

	sigGens, err := createGenerators(l+1, apiID)
	if err != nil {
		return false, err
	}
	blindGens, err := createGenerators(m+1, blindAPIID)
	if err != nil {
		return false, err
	}
	domain, err := calculateDomain(pk, sigGens, blindGens, header)
	if err != nil {
		return false, err
	}
	p1, err := basePoint()
	if err != nil {
		return false, err
	}

	combinedGens := make([]bls12381.G1Affine, 0, 1+m+l)
	combinedGens = append(combinedGens, blindGens...)
	combinedGens = append(combinedGens, sigGens[1:]...)

	revealedScalars, err := messagesToScalars(disclosedMessages, apiID)
	if err != nil {
		return false, err
	}

	// pair up and order disclosures by combined index
	type revealed struct {
		combined int
		scalar   fr.Element
	}
	pairs := make([]revealed, len(disclosedIndexes))
	for i, idx := range disclosedIndexes {
		pairs[i] = revealed{combined: 1 + m + idx, scalar: revealedScalars[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].combined < pairs[j].combined })
	disclosedCombined := make([]int, len(pairs))
	disclosedScalars := make([]fr.Element, len(pairs))
	disclosedSet := util.NewSet[int]()
	for i, p := range pairs {
		disclosedCombined[i] = p.combined
		disclosedScalars[i] = p.scalar
		disclosedSet.Add(p.combined)
	}

	// Bv = P_1 + Q_1 * domain + sum over disclosed gen_j * msg_j
	bvPoints := make([]bls12381.G1Affine, 0, 1+len(disclosedCombined))
	bvPoints = append(bvPoints, sigGens[0])
	bvScalars := make([]fr.Element, 0, cap(bvPoints))
	bvScalars = append(bvScalars, domain)
	for i, j := range disclosedCombined {
		bvPoints = append(bvPoints, combinedGens[j])
		bvScalars = append(bvScalars, disclosedScalars[i])
	}
	bv, err := sumG1(bvPoints, bvScalars, &p1)
	if err != nil {
		return false, err
	}

	// T1 = Bbar * c + Abar * eHat + D * r1Hat
	t1, err := sumG1(
		[]bls12381.G1Affine{bBar, aBar, d},
		[]fr.Element{chal, eHat, r1Hat},
	)
	if err != nil {
		return false, err
	}

	// T2 = Bv * c + D * r3Hat + sum over undisclosed gen_j * mHat_j
	t2Points := make([]bls12381.G1Affine, 0, 2+undisclosedCount)
	t2Points = append(t2Points, bv, d)
	t2Scalars := make([]fr.Element, 0, cap(t2Points))
	t2Scalars = append(t2Scalars, chal, r3Hat)
	hatIdx := 0
	for j := 0; j < 1+m+l; j++ {
		if disclosedSet.Has(j) {
			continue
		}
		if hatIdx >= len(mHat) {
			return false, nil
		}
		t2Points = append(t2Points, combinedGens[j])
		t2Scalars = append(t2Scalars, mHat[hatIdx])
		hatIdx++
	}
	t2, err := sumG1(t2Points, t2Scalars)
	if err != nil {
		return false, err
	}

	expected, err := proofChallenge(&aBar, &bBar, &d, &t1, &t2, disclosedCombined, disclosedScalars, &domain, presentationHeader)
	if err != nil {
		return false, err
	}
	if !expected.Equal(&chal) {
		return false, nil
	}

	// e(Abar, W) == e(Bbar, G2)
	_, _, _, g2Aff := bls12381.Generators()
	var negBBar bls12381.G1Affine
	negBBar.Neg(&bBar)
	return bls12381.PairingCheck(
		[]bls12381.G1Affine{aBar, negBBar},
		[]bls12381.G2Affine{pk.w, g2Aff},
	)
}

func proofChallenge(aBar, bBar, d, t1, t2 *bls12381.G1Affine, disclosedCombined []int, disclosedScalars []fr.Element, domain *fr.Element, presentationHeader []byte) (fr.Element, error) {
	buf := make([]byte, 0, 5*pointLen+(1+len(disclosedCombined))*(8+scalarLen)+scalarLen+8+len(presentationHeader))
	for _, p := range []*bls12381.G1Affine{aBar, bBar, d, t1, t2} {
		pb := p.Bytes()
		buf = append(buf, pb[:]...)
	}
	buf = append(buf, i2osp8(uint64(len(disclosedCombined)))...)
	for i, j := range disclosedCombined {
		buf = append(buf, i2osp8(uint64(j))...)
		sb := disclosedScalars[i].Bytes()
		buf = append(buf, sb[:]...)
	}
	db := domain.Bytes()
	buf = append(buf, db[:]...)
	buf = append(buf, i2osp8(uint64(len(presentationHeader)))...)
	buf = append(buf, presentationHeader...)

	dst := append(append([]byte{}, apiID...), []byte("H2S_")...)
	return hashToScalar(buf, dst)
}
