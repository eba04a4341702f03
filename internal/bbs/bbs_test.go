/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package bbs

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMessages = [][]byte{
	[]byte("credential-attribute-one"),
	[]byte("credential-attribute-two"),
	[]byte("credential-attribute-three"),
}

func TestKeyRoundTrip(t *testing.T) {
	sk, pk, err := GenerateKeyPair(rand.Reader)
	require.Nil(t, err)

	sk2, err := SecretKeyFromBytes(sk.Bytes())
	require.Nil(t, err)
	assert.Equal(t, sk.Bytes(), sk2.Bytes())
	assert.Equal(t, pk.Bytes(), sk2.Public().Bytes())

	pk2, err := PublicKeyFromBytes(pk.Bytes())
	require.Nil(t, err)
	assert.Equal(t, pk.Bytes(), pk2.Bytes())

	_, err = SecretKeyFromBytes([]byte{0x01})
	assert.ErrorIs(t, err, ErrInvalidSecretKey)
	_, err = PublicKeyFromBytes(make([]byte, PublicKeyLen))
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestCommitmentRoundTrip(t *testing.T) {
	ls, err := NewLinkSecret(rand.Reader)
	require.Nil(t, err)

	commitment, blind, err := GenerateLinkSecretCommitment(rand.Reader, ls)
	require.Nil(t, err)
	require.NotNil(t, blind)
	assert.Equal(t, BlindFactorLen, len(blind.Bytes()))

	assert.True(t, VerifyLinkSecretCommitment(commitment))

	// the commitment is pinned to exactly one committed message
	assert.False(t, VerifyCommitment(commitment, 2))

	// bit flips anywhere must invalidate it
	for _, pos := range []int{0, pointLen, pointLen + scalarLen, len(commitment) - 1} {
		corrupted := bytes.Clone(commitment)
		corrupted[pos] ^= 0x01
		assert.False(t, VerifyLinkSecretCommitment(corrupted), "flip at %d", pos)
	}

	// truncation and garbage
	assert.False(t, VerifyLinkSecretCommitment(commitment[:len(commitment)-1]))
	assert.False(t, VerifyLinkSecretCommitment(nil))
	assert.False(t, VerifyLinkSecretCommitment([]byte{0x00, 0x01}))
}

func TestCommitmentCountMismatch(t *testing.T) {
	two, _, err := Commit(rand.Reader, [][]byte{[]byte("a"), []byte("b")})
	require.Nil(t, err)
	assert.True(t, VerifyCommitment(two, 2))
	assert.False(t, VerifyLinkSecretCommitment(two))
}

func TestBlindSignAndVerify(t *testing.T) {
	sk, pk, err := GenerateKeyPair(rand.Reader)
	require.Nil(t, err)

	ls, err := NewLinkSecret(rand.Reader)
	require.Nil(t, err)
	commitment, blind, err := GenerateLinkSecretCommitment(rand.Reader, ls)
	require.Nil(t, err)

	header := []byte("issuer-header")
	sig, err := BlindSign(rand.Reader, sk, commitment, header, testMessages)
	require.Nil(t, err)
	assert.Equal(t, SignatureLen, len(sig.Bytes()))

	sig2, err := SignatureFromBytes(sig.Bytes())
	require.Nil(t, err)
	assert.Equal(t, sig.Bytes(), sig2.Bytes())

	ok, err := VerifySignature(pk, sig2, header, testMessages, [][]byte{ls.Bytes()}, blind)
	require.Nil(t, err)
	assert.True(t, ok)

	// tampered message list
	tampered := [][]byte{testMessages[0], []byte("changed"), testMessages[2]}
	ok, err = VerifySignature(pk, sig, header, tampered, [][]byte{ls.Bytes()}, blind)
	require.Nil(t, err)
	assert.False(t, ok)

	// wrong blind factor
	otherBlind, err := BlindFactorFromBytes(bytes.Repeat([]byte{0x07}, BlindFactorLen))
	require.Nil(t, err)
	ok, err = VerifySignature(pk, sig, header, testMessages, [][]byte{ls.Bytes()}, otherBlind)
	require.Nil(t, err)
	assert.False(t, ok)

	// wrong header
	ok, err = VerifySignature(pk, sig, []byte("other-header"), testMessages, [][]byte{ls.Bytes()}, blind)
	require.Nil(t, err)
	assert.False(t, ok)
}

func TestBlindSignRejectsBadCommitment(t *testing.T) {
	sk, _, err := GenerateKeyPair(rand.Reader)
	require.Nil(t, err)

	_, err = BlindSign(rand.Reader, sk, []byte{0x01, 0x02, 0x03}, nil, testMessages)
	assert.ErrorIs(t, err, ErrInvalidCommitment)

	ls, err := NewLinkSecret(rand.Reader)
	require.Nil(t, err)
	commitment, _, err := GenerateLinkSecretCommitment(rand.Reader, ls)
	require.Nil(t, err)
	commitment[0] ^= 0x01
	_, err = BlindSign(rand.Reader, sk, commitment, nil, testMessages)
	assert.ErrorIs(t, err, ErrInvalidCommitment)
}

func TestProofRoundTrip(t *testing.T) {
	sk, pk, err := GenerateKeyPair(rand.Reader)
	require.Nil(t, err)

	ls, err := NewLinkSecret(rand.Reader)
	require.Nil(t, err)
	commitment, blind, err := GenerateLinkSecretCommitment(rand.Reader, ls)
	require.Nil(t, err)

	header := []byte("issuer-header")
	ph := []byte("presentation-header")
	sig, err := BlindSign(rand.Reader, sk, commitment, header, testMessages)
	require.Nil(t, err)

	resp, err := GenerateProof(rand.Reader, pk, testMessages, ls, sig, header, ph, []int{2, 0}, blind)
	require.Nil(t, err)

	// disclosed output is sorted by application index
	assert.Equal(t, []int{0, 2}, resp.DisclosedIndexes)
	assert.Equal(t, [][]byte{testMessages[0], testMessages[2]}, resp.DisclosedMessages)
	for _, msg := range resp.DisclosedMessages {
		assert.NotEqual(t, ls.Bytes(), msg)
	}

	ok, err := VerifyProof(pk, resp, header, ph, len(testMessages))
	require.Nil(t, err)
	assert.True(t, ok)

	// nothing disclosed
	respNone, err := GenerateProof(rand.Reader, pk, testMessages, ls, sig, header, ph, nil, blind)
	require.Nil(t, err)
	assert.Empty(t, respNone.DisclosedIndexes)
	ok, err = VerifyProof(pk, respNone, header, ph, len(testMessages))
	require.Nil(t, err)
	assert.True(t, ok)

	// everything disclosed, link secret still hidden
	respAll, err := GenerateProof(rand.Reader, pk, testMessages, ls, sig, header, ph, []int{0, 1, 2}, blind)
	require.Nil(t, err)
	ok, err = VerifyProof(pk, respAll, header, ph, len(testMessages))
	require.Nil(t, err)
	assert.True(t, ok)
}

func TestProofRejectsCorruption(t *testing.T) {
	sk, pk, err := GenerateKeyPair(rand.Reader)
	require.Nil(t, err)

	ls, err := NewLinkSecret(rand.Reader)
	require.Nil(t, err)
	commitment, blind, err := GenerateLinkSecretCommitment(rand.Reader, ls)
	require.Nil(t, err)

	header := []byte("issuer-header")
	ph := []byte("presentation-header")
	sig, err := BlindSign(rand.Reader, sk, commitment, header, testMessages)
	require.Nil(t, err)

	resp, err := GenerateProof(rand.Reader, pk, testMessages, ls, sig, header, ph, []int{1}, blind)
	require.Nil(t, err)

	// flip one byte in the scalar region
	corrupted := bytes.Clone(resp.Proof)
	corrupted[3*pointLen] ^= 0x01
	ok, err := BlindProofVerify(pk, corrupted, header, ph, len(testMessages), 1, resp.DisclosedIndexes, resp.DisclosedMessages)
	require.Nil(t, err)
	assert.False(t, ok)

	// truncated proof
	ok, err = BlindProofVerify(pk, resp.Proof[:len(resp.Proof)-1], header, ph, len(testMessages), 1, resp.DisclosedIndexes, resp.DisclosedMessages)
	require.Nil(t, err)
	assert.False(t, ok)

	// different presentation header
	ok, err = BlindProofVerify(pk, resp.Proof, header, []byte("other"), len(testMessages), 1, resp.DisclosedIndexes, resp.DisclosedMessages)
	require.Nil(t, err)
	assert.False(t, ok)

	// claiming a different disclosed message
	ok, err = BlindProofVerify(pk, resp.Proof, header, ph, len(testMessages), 1, []int{1}, [][]byte{[]byte("lie")})
	require.Nil(t, err)
	assert.False(t, ok)

	// wrong issuer key
	_, otherPK, err := GenerateKeyPair(rand.Reader)
	require.Nil(t, err)
	ok, err = BlindProofVerify(otherPK, resp.Proof, header, ph, len(testMessages), 1, resp.DisclosedIndexes, resp.DisclosedMessages)
	require.Nil(t, err)
	assert.False(t, ok)
}

// Disclosed indexes refer to the application message list; the shift
// past the blind factor and link secret slots happens inside the
// proof layer on both sides. Shifting them again must not verify.
func TestProofIndexConvention(t *testing.T) {
	messages := [][]byte{
		[]byte("m0"), []byte("m1"), []byte("m2"), []byte("m3"), []byte("m4"),
	}

	sk, pk, err := GenerateKeyPair(rand.Reader)
	require.Nil(t, err)
	ls, err := NewLinkSecret(rand.Reader)
	require.Nil(t, err)
	commitment, blind, err := GenerateLinkSecretCommitment(rand.Reader, ls)
	require.Nil(t, err)
	sig, err := BlindSign(rand.Reader, sk, commitment, nil, messages)
	require.Nil(t, err)

	resp, err := GenerateProof(rand.Reader, pk, messages, ls, sig, nil, nil, []int{1}, blind)
	require.Nil(t, err)

	ok, err := BlindProofVerify(pk, resp.Proof, nil, nil, len(messages), 1, []int{1}, [][]byte{messages[1]})
	require.Nil(t, err)
	assert.True(t, ok)

	// pre-shifted by the two reserved slots: same message, wrong index
	ok, err = BlindProofVerify(pk, resp.Proof, nil, nil, len(messages), 1, []int{3}, [][]byte{messages[1]})
	require.Nil(t, err)
	assert.False(t, ok)
}

func TestProofGenRejectsBadIndexes(t *testing.T) {
	sk, pk, err := GenerateKeyPair(rand.Reader)
	require.Nil(t, err)
	ls, err := NewLinkSecret(rand.Reader)
	require.Nil(t, err)
	commitment, blind, err := GenerateLinkSecretCommitment(rand.Reader, ls)
	require.Nil(t, err)
	sig, err := BlindSign(rand.Reader, sk, commitment, nil, testMessages)
	require.Nil(t, err)

	_, err = GenerateProof(rand.Reader, pk, testMessages, ls, sig, nil, nil, []int{3}, blind)
	assert.ErrorIs(t, err, ErrInvalidProof)
	_, err = GenerateProof(rand.Reader, pk, testMessages, ls, sig, nil, nil, []int{-1}, blind)
	assert.ErrorIs(t, err, ErrInvalidProof)
	_, err = GenerateProof(rand.Reader, pk, testMessages, ls, sig, nil, nil, []int{1, 1}, blind)
	assert.ErrorIs(t, err, ErrInvalidProof)
}

func TestLinkSecret(t *testing.T) {
	ls, err := NewLinkSecret(rand.Reader)
	require.Nil(t, err)
	assert.Equal(t, LinkSecretLen, len(ls.Bytes()))

	ls2, err := LinkSecretFromBytes(ls.Bytes())
	require.Nil(t, err)
	assert.True(t, ls.Equal(ls2))

	_, err = LinkSecretFromBytes([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrInvalidLinkSecret)

	ls2.Wipe()
	assert.Equal(t, make([]byte, LinkSecretLen), ls2.Bytes())
	assert.False(t, ls.Equal(ls2))
}
