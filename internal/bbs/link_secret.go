/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package bbs

import (
	"io"
	"sort"
)

// LinkSecretLen is the exact serialized length of a link secret.
const LinkSecretLen = 32

// LinkSecret is the 32-byte secret binding all credentials issued to
// one authenticator. It is committed to during issuance and never
// disclosed in proofs.
type LinkSecret struct {
	b [LinkSecretLen]byte
}

// NewLinkSecret draws a fresh link secret from rng.
func NewLinkSecret(rng io.Reader) (*LinkSecret, error) {
	var ls LinkSecret
	if _, err := io.ReadFull(rng, ls.b[:]); err != nil {
		return nil, err
	}
	return &ls, nil
}

// LinkSecretFromBytes rejects anything but exactly 32 bytes.
func LinkSecretFromBytes(data []byte) (*LinkSecret, error) {
	if len(data) != LinkSecretLen {
		return nil, ErrInvalidLinkSecret
	}
	var ls LinkSecret
	copy(ls.b[:], data)
	return &ls, nil
}

func (l *LinkSecret) Bytes() []byte {
	return l.b[:]
}

func (l *LinkSecret) Equal(other *LinkSecret) bool {
	return l != nil && other != nil && l.b == other.b
}

// Wipe clears the secret in place.
func (l *LinkSecret) Wipe() {
	if l == nil {
		return
	}
	for i := range l.b {
		l.b[i] = 0
	}
}

// GenerateLinkSecretCommitment commits to the link secret as the sole
// committed message. The returned blind factor goes back to the caller
// along with the commitment and is required for later proofs; the
// authenticator keeps no copy.
func GenerateLinkSecretCommitment(rng io.Reader, ls *LinkSecret) ([]byte, *BlindFactor, error) {
	return Commit(rng, [][]byte{ls.Bytes()})
}

// VerifyLinkSecretCommitment accepts only commitments to exactly one
// committed message.
func VerifyLinkSecretCommitment(commitmentWithProof []byte) bool {
	return VerifyCommitment(commitmentWithProof, 1)
}

// ProofResponse carries a generated proof together with the messages
// it discloses. Indexes refer to the application message list; the
// link secret is never part of it.
type ProofResponse struct {
	Proof             []byte
	DisclosedMessages [][]byte
	DisclosedIndexes  []int
}

// GenerateProof builds a selective disclosure proof over a credential
// blind-signed against the link secret.
func GenerateProof(rng io.Reader, pk *PublicKey, messages [][]byte, ls *LinkSecret, sig *Signature, header, presentationHeader []byte, disclosedIndexes []int, blindFactor *BlindFactor) (*ProofResponse, error) {
	proof, err := BlindProofGen(rng, pk, sig, header, presentationHeader, messages, [][]byte{ls.Bytes()}, disclosedIndexes, blindFactor)
	if err != nil {
		return nil, err
	}

	sorted := append([]int{}, disclosedIndexes...)
	sort.Ints(sorted)
	disclosedMessages := make([][]byte, len(sorted))
	for i, idx := range sorted {
		disclosedMessages[i] = messages[idx]
	}

	return &ProofResponse{
		Proof:             proof,
		DisclosedMessages: disclosedMessages,
		DisclosedIndexes:  sorted,
	}, nil
}

// VerifyProof checks a ProofResponse against the issuer key. The
// message count must cover the full signed message list, not just the
// disclosed part.
func VerifyProof(pk *PublicKey, resp *ProofResponse, header, presentationHeader []byte, messageCount int) (bool, error) {
	return BlindProofVerify(pk, resp.Proof, header, presentationHeader, messageCount, 1, resp.DisclosedIndexes, resp.DisclosedMessages)
}
