/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package store defines the slot-oriented key/value storage used for
// authenticator state. Keys are small integers, values are opaque byte
// strings, and multi-slot mutations apply atomically.
package store

import "errors"

var (
	ErrInvalidArgument = errors.New("store: invalid argument")
	ErrNoCapacity      = errors.New("store: no capacity")
	ErrNoLifetime      = errors.New("store: no lifetime")
	ErrInvalidStorage  = errors.New("store: invalid storage")
	ErrStorage         = errors.New("store: storage failure")
)

// Update describes one slot mutation inside a transaction.
// A nil Value removes the slot; anything else replaces it.
type Update struct {
	Key   int
	Value []byte
}

// Insert builds an update that writes value into key.
func Insert(key int, value []byte) Update {
	return Update{Key: key, Value: value}
}

// Remove builds an update that deletes key.
func Remove(key int) Update {
	return Update{Key: key}
}

// IsRemove reports whether the update deletes its slot.
func (u Update) IsRemove() bool {
	return u.Value == nil
}

// Store is the slot storage contract.
//
// Find returns (nil, nil) when the key holds no value. Transaction
// applies every update or none of them; a failed transaction leaves
// the store exactly as it was.
type Store interface {
	Find(key int) ([]byte, error)
	Insert(key int, value []byte) error
	Transaction(updates []Update) error
}
