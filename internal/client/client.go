/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package client speaks the vendor command protocol over HTTP. It is the
// issuer-side counterpart of the server package, used by the command
// line tools and the integration tests.
package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/kentakayama/sk-anoncred/internal/config"
	"github.com/kentakayama/sk-anoncred/internal/util"
	"github.com/kentakayama/sk-anoncred/internal/vendorcmd"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultUserAgent   = "sk-anoncred/vendor-client"
	defaultContentType = "application/ctap-vendor+cbor"
)

var encMode = func() cbor.EncMode {
	opts := cbor.CTAP2EncOptions()
	em, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	contentType string
	timeout     time.Duration
	logger      *log.Logger
}

func New(cfg config.ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("server base URL is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{}
	if base.Scheme == "https" {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.InsecureTLS}
	}

	contentType := cfg.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		baseURL:     base,
		httpClient:  &http.Client{Timeout: timeout, Transport: transport},
		contentType: contentType,
		timeout:     timeout,
		logger:      logger,
	}, nil
}

// Wire bodies mirror the integer-keyed maps the device decodes.
type materialBody struct {
	Certificate []byte `cbor:"1,keyasint"`
	PrivateKey  []byte `cbor:"2,keyasint"`
	LinkSecret  []byte `cbor:"3,keyasint"`
}

type configureBody struct {
	Lockdown *bool         `cbor:"1,keyasint,omitempty"`
	Material *materialBody `cbor:"2,keyasint,omitempty"`
}

type upgradeBody struct {
	Offset uint64 `cbor:"1,keyasint"`
	Data   []byte `cbor:"2,keyasint"`
	Hash   []byte `cbor:"3,keyasint"`
}

type proofBody struct {
	PublicKey          []byte   `cbor:"1,keyasint"`
	Messages           [][]byte `cbor:"2,keyasint"`
	Signature          []byte   `cbor:"3,keyasint"`
	Header             []byte   `cbor:"4,keyasint"`
	PresentationHeader []byte   `cbor:"5,keyasint"`
	DisclosedIndexes   []int    `cbor:"6,keyasint"`
	Blind              []byte   `cbor:"7,keyasint"`
}

// Configure programs attestation material and optionally locks the
// device down. A nil material reports the provisioning state without
// writing anything.
func (c *Client) Configure(material *vendorcmd.AttestationMaterial, lockdown bool) (*vendorcmd.ConfigureResponse, error) {
	body := configureBody{}
	if lockdown {
		body.Lockdown = &lockdown
	}
	if material != nil {
		body.Material = &materialBody{
			Certificate: material.Certificate,
			PrivateKey:  material.PrivateKey,
			LinkSecret:  material.LinkSecret,
		}
	}

	var resp vendorcmd.ConfigureResponse
	if err := c.exec(vendorcmd.CommandConfigure, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Upgrade writes one chunk of a firmware bundle at offset. The chunk
// hash accompanies the data so the device can verify it before
// persisting anything.
func (c *Client) Upgrade(offset uint64, data []byte) error {
	hash := sha256.Sum256(data)
	return c.exec(vendorcmd.CommandUpgrade, upgradeBody{
		Offset: offset,
		Data:   data,
		Hash:   hash[:],
	}, nil)
}

// UpgradeInfo returns the partition identifier upgrade chunks must
// target.
func (c *Client) UpgradeInfo() (uint64, error) {
	var resp vendorcmd.UpgradeInfoResponse
	if err := c.exec(vendorcmd.CommandUpgradeInfo, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Identifier, nil
}

// Commitment asks the device for a fresh link secret commitment and the
// matching blind factor.
func (c *Client) Commitment() (*vendorcmd.CommitmentResponse, error) {
	var resp vendorcmd.CommitmentResponse
	if err := c.exec(vendorcmd.CommandCommitment, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type ProofRequest struct {
	PublicKey          []byte
	Messages           [][]byte
	Signature          []byte
	Header             []byte
	PresentationHeader []byte
	DisclosedIndexes   []int
	Blind              []byte
}

// Proof asks the device to present the credential bound to its link
// secret, disclosing only the listed message indexes.
func (c *Client) Proof(req ProofRequest) ([]byte, error) {
	body := proofBody{
		PublicKey:          req.PublicKey,
		Messages:           req.Messages,
		Signature:          req.Signature,
		Header:             orEmpty(req.Header),
		PresentationHeader: orEmpty(req.PresentationHeader),
		DisclosedIndexes:   req.DisclosedIndexes,
		Blind:              req.Blind,
	}
	if body.Messages == nil {
		body.Messages = [][]byte{}
	}
	if body.DisclosedIndexes == nil {
		body.DisclosedIndexes = []int{}
	}

	var resp vendorcmd.ProofResponse
	if err := c.exec(vendorcmd.CommandProof, body, &resp); err != nil {
		return nil, err
	}
	return resp.Proof, nil
}

// exec sends one command frame and splits the response into status and
// payload. A non-zero device status comes back as the error.
func (c *Client) exec(cmd vendorcmd.Command, params any, out any) error {
	frame := []byte{byte(cmd)}
	if params != nil {
		encoded, err := encMode.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode command 0x%02X parameters: %w", byte(cmd), err)
		}
		frame = append(frame, encoded...)
	}

	body, err := c.roundTrip(frame)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return fmt.Errorf("empty response frame")
	}
	if status := vendorcmd.Status(body[0]); status != vendorcmd.StatusOK {
		return status
	}

	payload := body[1:]
	c.logResponse(cmd, payload)

	if out == nil {
		return nil
	}
	if len(payload) == 0 {
		return fmt.Errorf("command 0x%02X returned no response map", byte(cmd))
	}
	if err := cbor.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode command 0x%02X response: %w", byte(cmd), err)
	}
	return nil
}

func (c *Client) roundTrip(frame []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	endpoint, err := c.baseURL.Parse("/vendor")
	if err != nil {
		return nil, fmt.Errorf("build vendor URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", c.contentType)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, fmt.Errorf("unexpected response status %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

func (c *Client) logResponse(cmd vendorcmd.Command, payload []byte) {
	if len(payload) == 0 {
		return
	}
	// Commitment responses carry the blind factor; keep them out of the log.
	if cmd == vendorcmd.CommandCommitment {
		return
	}

	var decoded any
	if err := cbor.Unmarshal(payload, &decoded); err != nil {
		return
	}
	if pretty, err := util.RenderCBORPretty(decoded); err == nil {
		c.logger.Printf("command 0x%02X response:\n%s", byte(cmd), pretty)
	}
}

func orEmpty(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
