/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package store

import "bytes"

const (
	// MaxKey bounds the usable key space, mirroring the key layout of
	// small embedded stores.
	MaxKey = 4095

	// MaxValueLen bounds a single slot value.
	MaxValueLen = 1023

	defaultCapacity = 1 << 16
)

// MemStore is an in-memory Store with bounded capacity. It backs tests
// and the default software environment.
type MemStore struct {
	slots    map[int][]byte
	capacity int
	used     int
}

// NewMemStore returns an empty MemStore with the default byte capacity.
func NewMemStore() *MemStore {
	return NewMemStoreWithCapacity(defaultCapacity)
}

func NewMemStoreWithCapacity(capacity int) *MemStore {
	return &MemStore{
		slots:    make(map[int][]byte),
		capacity: capacity,
	}
}

func (m *MemStore) Find(key int) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	v, ok := m.slots[key]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(v), nil
}

func (m *MemStore) Insert(key int, value []byte) error {
	return m.Transaction([]Update{Insert(key, value)})
}

func (m *MemStore) Transaction(updates []Update) error {
	// Validate everything up front so a rejected transaction leaves no
	// partial state behind.
	used := m.used
	seen := make(map[int]struct{}, len(updates))
	for _, u := range updates {
		if err := checkKey(u.Key); err != nil {
			return err
		}
		if _, dup := seen[u.Key]; dup {
			return ErrInvalidArgument
		}
		seen[u.Key] = struct{}{}

		used -= len(m.slots[u.Key])
		if !u.IsRemove() {
			if len(u.Value) > MaxValueLen {
				return ErrInvalidArgument
			}
			used += len(u.Value)
		}
	}
	if used > m.capacity {
		return ErrNoCapacity
	}

	for _, u := range updates {
		if u.IsRemove() {
			delete(m.slots, u.Key)
		} else {
			m.slots[u.Key] = bytes.Clone(u.Value)
		}
	}
	m.used = used
	return nil
}

func checkKey(key int) error {
	if key < 0 || key > MaxKey {
		return ErrInvalidArgument
	}
	return nil
}
