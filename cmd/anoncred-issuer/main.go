/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// anoncred-issuer drives a full issuance round against a running vendor
// command server: fetch a link secret commitment, blind-sign it with a
// fresh issuer key, ask the device for a presentation proof, and verify
// it. The resulting transcript prints as JSON for use as a test vector.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/kentakayama/sk-anoncred/internal/attest"
	"github.com/kentakayama/sk-anoncred/internal/bbs"
	"github.com/kentakayama/sk-anoncred/internal/client"
	"github.com/kentakayama/sk-anoncred/internal/config"
	"github.com/kentakayama/sk-anoncred/internal/util"
	"github.com/kentakayama/sk-anoncred/internal/vendorcmd"
)

func main() {
	serverURL := flag.String("server", "http://127.0.0.1:8640", "vendor command server URL")
	provision := flag.Bool("provision", false, "program fresh attestation material before issuing")
	messagesArg := flag.String("messages", "issuer id,expiry,revocation handle", "comma-separated credential attributes")
	discloseArg := flag.String("disclose", "0", "comma-separated attribute indexes to disclose")
	header := flag.String("header", "sk-anoncred demo credential", "credential header")
	presentationHeader := flag.String("presentation-header", "", "presentation header, typically a verifier nonce")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	insecure := flag.Bool("insecure", false, "skip TLS certificate verification")
	flag.Parse()

	messages := parseMessages(*messagesArg)
	disclosed, err := parseIndexes(*discloseArg, len(messages))
	if err != nil {
		log.Fatalf("anoncred-issuer: %v", err)
	}

	cl, err := client.New(config.ClientConfig{
		BaseURL:     *serverURL,
		Timeout:     *timeout,
		InsecureTLS: *insecure,
		Logger:      log.Default(),
	})
	if err != nil {
		log.Fatalf("anoncred-issuer failed to initialize: %v", err)
	}

	if err := run(cl, *provision, messages, disclosed, []byte(*header), []byte(*presentationHeader)); err != nil {
		log.Fatalf("anoncred-issuer failed: %v", err)
	}
}

func run(cl *client.Client, provision bool, messages [][]byte, disclosed []int, header, presentationHeader []byte) error {
	if provision {
		if err := provisionDevice(cl); err != nil {
			return err
		}
	}

	commitment, err := cl.Commitment()
	if err != nil {
		return fmt.Errorf("fetch commitment: %w", err)
	}
	if !bbs.VerifyLinkSecretCommitment(commitment.Commitment) {
		return fmt.Errorf("device returned an invalid commitment")
	}

	sk, pk, err := bbs.GenerateKeyPair(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate issuer key: %w", err)
	}

	sig, err := bbs.BlindSign(rand.Reader, sk, commitment.Commitment, header, messages)
	if err != nil {
		return fmt.Errorf("blind sign: %w", err)
	}

	proof, err := cl.Proof(client.ProofRequest{
		PublicKey:          pk.Bytes(),
		Messages:           messages,
		Signature:          sig.Bytes(),
		Header:             header,
		PresentationHeader: presentationHeader,
		DisclosedIndexes:   disclosed,
		Blind:              commitment.Blind,
	})
	if err != nil {
		return fmt.Errorf("fetch proof: %w", err)
	}

	disclosedMessages := make([][]byte, len(disclosed))
	for i, idx := range disclosed {
		disclosedMessages[i] = messages[idx]
	}
	ok, err := bbs.BlindProofVerify(pk, proof, header, presentationHeader,
		len(messages), 1, disclosed, disclosedMessages)
	if err != nil {
		return fmt.Errorf("verify proof: %w", err)
	}
	if !ok {
		return fmt.Errorf("proof did not verify")
	}

	return printTranscript(pk, messages, header, presentationHeader, disclosed, commitment.Commitment, sig.Bytes(), proof)
}

func provisionDevice(cl *client.Client) error {
	privateKey := make([]byte, attest.PrivateKeyLen)
	if _, err := rand.Read(privateKey); err != nil {
		return fmt.Errorf("generate batch key: %w", err)
	}
	ls, err := bbs.NewLinkSecret(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate link secret: %w", err)
	}
	defer ls.Wipe()

	programmed, err := cl.Configure(&vendorcmd.AttestationMaterial{
		Certificate: []byte("anoncred-issuer demo certificate"),
		PrivateKey:  privateKey,
		LinkSecret:  ls.Bytes(),
	}, false)
	if err != nil {
		return fmt.Errorf("configure device: %w", err)
	}
	log.Printf("device provisioned: cert=%t key=%t link_secret=%t",
		programmed.CertProgrammed, programmed.PrivateKeyProgrammed, programmed.LinkSecretProgrammed)
	return nil
}

func printTranscript(pk *bbs.PublicKey, messages [][]byte, header, presentationHeader []byte, disclosed []int, commitment, signature, proof []byte) error {
	attrs := make([]any, len(messages))
	for i, m := range messages {
		attrs[i] = m
	}

	transcript := map[string]any{
		"issuer_public_key":     pk.Bytes(),
		"messages":              attrs,
		"header":                header,
		"presentation_header":   presentationHeader,
		"disclosed_indexes":     disclosed,
		"commitment_with_proof": commitment,
		"signature":             signature,
		"proof":                 proof,
	}

	pretty, err := util.RenderCBORPretty(transcript)
	if err != nil {
		return fmt.Errorf("render transcript: %w", err)
	}
	fmt.Println(pretty)
	return nil
}

func parseMessages(arg string) [][]byte {
	parts := strings.Split(arg, ",")
	messages := make([][]byte, 0, len(parts))
	for _, p := range parts {
		messages = append(messages, []byte(strings.TrimSpace(p)))
	}
	return messages
}

func parseIndexes(arg string, messageCount int) ([]int, error) {
	if strings.TrimSpace(arg) == "" {
		return []int{}, nil
	}

	parts := strings.Split(arg, ",")
	indexes := make([]int, 0, len(parts))
	for _, p := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parse disclose index %q: %w", p, err)
		}
		if idx < 0 || idx >= messageCount {
			return nil, fmt.Errorf("disclose index %d out of range for %d attributes", idx, messageCount)
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}
