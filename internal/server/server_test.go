/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"bytes"
	"context"
	"crypto/rand"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kentakayama/sk-anoncred/internal/attest"
	"github.com/kentakayama/sk-anoncred/internal/bbs"
	"github.com/kentakayama/sk-anoncred/internal/client"
	"github.com/kentakayama/sk-anoncred/internal/config"
	"github.com/kentakayama/sk-anoncred/internal/env"
	"github.com/kentakayama/sk-anoncred/internal/vendorcmd"
)

func newTestHandler(t *testing.T, opts ...env.Option) *handler {
	t.Helper()
	h, err := newHandler(env.NewSoftware(opts...), log.Default())
	require.NoError(t, err)
	return h
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestHandlerRejectsWrongMethodAndPath(t *testing.T) {
	ts := httptest.NewServer(newTestHandler(t))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/vendor")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/other", vendorContentType, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerRejectsWrongContentType(t *testing.T) {
	ts := httptest.NewServer(newTestHandler(t))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/vendor", "application/octet-stream", bytes.NewReader([]byte{0x43}))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestHandlerAnswersUnknownCommands(t *testing.T) {
	ts := httptest.NewServer(newTestHandler(t))
	defer ts.Close()

	// identifiers the dispatcher does not own, including an empty frame
	for _, frame := range [][]byte{nil, {0x41}, {0xFF}, {0x01}} {
		resp, err := http.Post(ts.URL+"/vendor", vendorContentType, bytes.NewReader(frame))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []byte{0x01}, readBody(t, resp))
	}
}

func TestHandlerDispatchesVendorCommands(t *testing.T) {
	ts := httptest.NewServer(newTestHandler(t))
	defer ts.Close()

	// a bare configure reports the provisioning state
	frame := append([]byte{0x40}, 0xA0)
	resp, err := http.Post(ts.URL+"/vendor", vendorContentType, bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, vendorContentType, resp.Header.Get("Content-Type"))

	body := readBody(t, resp)
	require.NotEmpty(t, body)
	require.Equal(t, byte(0x00), body[0])

	var out vendorcmd.ConfigureResponse
	require.NoError(t, cbor.Unmarshal(body[1:], &out))
	assert.False(t, out.CertProgrammed)
	assert.False(t, out.PrivateKeyProgrammed)
	assert.False(t, out.LinkSecretProgrammed)
}

// TestClientEndToEnd walks the full issuance flow through the HTTP
// client: provision the device, fetch a commitment, blind-sign it as
// the issuer, and check the resulting presentation proof.
func TestClientEndToEnd(t *testing.T) {
	ts := httptest.NewServer(newTestHandler(t))
	defer ts.Close()

	cl, err := client.New(config.ClientConfig{BaseURL: ts.URL, Logger: log.Default()})
	require.NoError(t, err)

	info, err := cl.UpgradeInfo()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x60000), info)

	ls, err := bbs.NewLinkSecret(rand.Reader)
	require.NoError(t, err)
	programmed, err := cl.Configure(&vendorcmd.AttestationMaterial{
		Certificate: []byte("device cert"),
		PrivateKey:  bytes.Repeat([]byte{0x01}, attest.PrivateKeyLen),
		LinkSecret:  ls.Bytes(),
	}, false)
	require.NoError(t, err)
	assert.True(t, programmed.LinkSecretProgrammed)

	commitment, err := cl.Commitment()
	require.NoError(t, err)
	require.True(t, bbs.VerifyLinkSecretCommitment(commitment.Commitment))

	sk, pk, err := bbs.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	messages := [][]byte{[]byte("issuer id"), []byte("expiry"), []byte("revocation handle")}
	header := []byte("credential header")
	sig, err := bbs.BlindSign(rand.Reader, sk, commitment.Commitment, header, messages)
	require.NoError(t, err)

	ph := []byte("presentation nonce")
	proof, err := cl.Proof(client.ProofRequest{
		PublicKey:          pk.Bytes(),
		Messages:           messages,
		Signature:          sig.Bytes(),
		Header:             header,
		PresentationHeader: ph,
		DisclosedIndexes:   []int{0, 2},
		Blind:              commitment.Blind,
	})
	require.NoError(t, err)

	ok, err := bbs.BlindProofVerify(pk, proof, header, ph, len(messages), 1,
		[]int{0, 2}, [][]byte{messages[0], messages[2]})
	require.NoError(t, err)
	assert.True(t, ok)

	// lockdown after provisioning succeeds
	_, err = cl.Configure(nil, true)
	require.NoError(t, err)
}

func TestClientSurfacesDeviceStatus(t *testing.T) {
	ts := httptest.NewServer(newTestHandler(t))
	defer ts.Close()

	cl, err := client.New(config.ClientConfig{BaseURL: ts.URL, Logger: log.Default()})
	require.NoError(t, err)

	// no attestation programmed yet
	_, err = cl.Commitment()
	require.Error(t, err)
	var status vendorcmd.Status
	require.ErrorAs(t, err, &status)
	assert.Equal(t, vendorcmd.StatusVendorInternalError, status)
}

func TestNewPersistsAcrossRestarts(t *testing.T) {
	cfg := config.DefaultServer()
	cfg.DatabaseFile = filepath.Join(t.TempDir(), "slots.db")
	cfg.Logger = log.Default()

	srv, err := New(cfg)
	require.NoError(t, err)

	ls, err := bbs.NewLinkSecret(rand.Reader)
	require.NoError(t, err)
	record := attest.New(bytes.Repeat([]byte{0x07}, attest.PrivateKeyLen), []byte("cert"), ls.Bytes())
	require.NoError(t, srv.handler.env.AttestationStore().Set(attest.Batch, record))
	require.NoError(t, srv.Shutdown(context.Background()))

	srv, err = New(cfg)
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	stored, err := srv.handler.env.AttestationStore().Get(attest.Batch)
	require.NoError(t, err)
	require.NotNil(t, stored)
	defer stored.Destroy()
	assert.Equal(t, ls.Bytes(), stored.LinkSecret.Bytes())
}

func TestNewWithoutUpgradeStorage(t *testing.T) {
	cfg := config.DefaultServer()
	cfg.DisableUpgrade = true

	srv, err := New(cfg)
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	resp := srv.handler.dispatch([]byte{0x43})
	assert.Equal(t, []byte{byte(vendorcmd.StatusInvalidCommand)}, resp)
}
