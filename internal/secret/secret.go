/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package secret holds key material in buffers that are explicitly
// wiped once they leave scope.
package secret

// Buffer owns a chunk of key material. Callers wipe it as soon as the
// material is no longer needed, typically with defer.
type Buffer struct {
	b []byte
}

// New allocates a zeroed Buffer of n bytes.
func New(n int) *Buffer {
	return &Buffer{b: make([]byte, n)}
}

// From copies b into a fresh Buffer. The caller keeps ownership of b
// and should wipe it separately if it is sensitive.
func From(b []byte) *Buffer {
	s := &Buffer{b: make([]byte, len(b))}
	copy(s.b, b)
	return s
}

// Bytes exposes the live contents. The slice aliases the internal
// storage and becomes all-zero after Wipe.
func (s *Buffer) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.b
}

func (s *Buffer) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// Wipe overwrites the contents with zeros. Safe to call more than once.
func (s *Buffer) Wipe() {
	if s == nil {
		return
	}
	Zero(s.b)
}

// Zero clears b in place.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
