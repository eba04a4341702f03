/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package store

import (
	"bytes"
	"errors"
	"testing"
)

func TestMemStoreFindMissing(t *testing.T) {
	s := NewMemStore()
	v, err := s.Find(1)
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if v != nil {
		t.Fatalf("expected nil for missing key, got %x", v)
	}
}

func TestMemStoreInsertFind(t *testing.T) {
	s := NewMemStore()
	if err := s.Insert(1, []byte{0xAA, 0xBB}); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	v, err := s.Find(1)
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if !bytes.Equal(v, []byte{0xAA, 0xBB}) {
		t.Fatalf("unexpected value: %x", v)
	}

	// replacing is allowed
	if err := s.Insert(1, []byte{0xCC}); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	v, _ = s.Find(1)
	if !bytes.Equal(v, []byte{0xCC}) {
		t.Fatalf("unexpected value after replace: %x", v)
	}
}

func TestMemStoreKeyBounds(t *testing.T) {
	s := NewMemStore()
	if err := s.Insert(-1, []byte{0x01}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if err := s.Insert(MaxKey+1, []byte{0x01}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := s.Find(MaxKey + 1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestMemStoreValueTooLarge(t *testing.T) {
	s := NewMemStore()
	err := s.Insert(1, make([]byte, MaxValueLen+1))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestMemStoreCapacity(t *testing.T) {
	s := NewMemStoreWithCapacity(10)
	if err := s.Insert(1, make([]byte, 8)); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if err := s.Insert(2, make([]byte, 8)); !errors.Is(err, ErrNoCapacity) {
		t.Fatalf("expected ErrNoCapacity, got %v", err)
	}
	// replacing the existing slot frees its old bytes first
	if err := s.Insert(1, make([]byte, 10)); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
}

func TestMemStoreTransactionAtomic(t *testing.T) {
	s := NewMemStore()
	if err := s.Insert(1, []byte{0x01}); err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	// second update is invalid, so the first must not apply either
	err := s.Transaction([]Update{
		Insert(2, []byte{0x02}),
		Insert(MaxKey+1, []byte{0x03}),
	})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	v, _ := s.Find(2)
	if v != nil {
		t.Fatalf("failed transaction left state behind: %x", v)
	}

	// mixed insert and remove applies together
	err = s.Transaction([]Update{
		Remove(1),
		Insert(2, []byte{0x02}),
		Insert(3, []byte{0x03}),
	})
	if err != nil {
		t.Fatalf("Transaction error: %v", err)
	}
	if v, _ := s.Find(1); v != nil {
		t.Fatalf("slot 1 should be removed")
	}
	if v, _ := s.Find(3); !bytes.Equal(v, []byte{0x03}) {
		t.Fatalf("slot 3 missing after transaction")
	}
}

func TestMemStoreDuplicateKeyInTransaction(t *testing.T) {
	s := NewMemStore()
	err := s.Transaction([]Update{
		Insert(1, []byte{0x01}),
		Insert(1, []byte{0x02}),
	})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestMemStoreFindReturnsCopy(t *testing.T) {
	s := NewMemStore()
	if err := s.Insert(1, []byte{0x01, 0x02}); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	v, _ := s.Find(1)
	v[0] = 0xFF
	again, _ := s.Find(1)
	if !bytes.Equal(again, []byte{0x01, 0x02}) {
		t.Fatalf("Find leaked internal storage")
	}
}
