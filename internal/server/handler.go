/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/kentakayama/sk-anoncred/internal/env"
	"github.com/kentakayama/sk-anoncred/internal/vendorcmd"
)

const (
	maxRequestBodyBytes = 1 << 20 // 1 MiB covers the largest upgrade chunk plus CBOR overhead.

	vendorContentType = "application/ctap-vendor+cbor"
)

type handler struct {
	env    env.Env
	logger *log.Logger

	// The authenticator executes commands one at a time from a single
	// event loop. The HTTP front end recreates that by serializing
	// dispatch; each request gets a fresh vendor channel.
	mu         sync.Mutex
	nextChanID uint32
}

type responseSpec struct {
	status      int
	body        []byte
	contentType string
}

func newHandler(e env.Env, logger *log.Logger) (*handler, error) {
	return &handler{
		env:    e,
		logger: logger,
	}, nil
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/vendor":
		h.vendorOverHttp(w, r)
		return
	default:
		http.NotFound(w, r)
		return
	}
}

func (h *handler) vendorOverHttp(w http.ResponseWriter, r *http.Request) {
	// check the content
	if r.Header.Get("Content-Type") != vendorContentType {
		h.logger.Printf("content type mismatch: expected %s, actual %v", vendorContentType, r.Header.Get("Content-Type"))
		http.Error(w, "This endpoint only accepts Content-Type: "+vendorContentType, http.StatusUnsupportedMediaType)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		h.logger.Printf("failed reading request body: %v", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if err := r.Body.Close(); err != nil {
		h.logger.Printf("failed closing request body: %v", err)
		http.Error(w, "failed to close request body", http.StatusBadRequest)
		return
	}

	responseBody := h.dispatch(body)
	if responseBody == nil {
		// The dispatcher stays silent on command identifiers it does not
		// own; over HTTP that surfaces as the invalid-command status.
		responseBody = []byte{byte(vendorcmd.StatusInvalidCommand)}
	}

	h.writeResponse(w, responseSpec{
		status:      http.StatusOK,
		body:        responseBody,
		contentType: vendorContentType,
	})
}

func (h *handler) dispatch(request []byte) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextChanID++
	ch := env.Channel{Kind: env.VendorChannel, ID: h.nextChanID}
	return vendorcmd.Process(h.env, request, ch)
}

func (h *handler) writeResponse(w http.ResponseWriter, spec responseSpec) {
	w.Header().Set("Server", "sk-anoncred")

	if len(spec.body) > 0 {
		for k, v := range defaultHeaders {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", spec.contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(spec.body)))
		w.WriteHeader(spec.status)
		if _, err := w.Write(spec.body); err != nil {
			h.logger.Printf("failed writing response body: %v", err)
		}
		return
	}

	w.WriteHeader(spec.status)
}

var defaultHeaders = map[string]string{
	"Cache-Control":           "no-store",
	"X-Content-Type-Options":  "nosniff",
	"Content-Security-Policy": "default-src 'none'",
	"Referrer-Policy":         "no-referrer",
}
