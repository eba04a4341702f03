/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kentakayama/sk-anoncred/internal/store"
)

// SlotStore persists authenticator slots in SQLite. It implements
// store.Store; multi-slot updates run inside one SQL transaction so a
// failure leaves no partial state.
type SlotStore struct {
	db  *sql.DB
	ctx context.Context
}

func NewSlotStore(ctx context.Context, db *sql.DB) *SlotStore {
	return &SlotStore{db: db, ctx: ctx}
}

func (r *SlotStore) Find(key int) ([]byte, error) {
	if key < 0 || key > store.MaxKey {
		return nil, store.ErrInvalidArgument
	}

	const q = `
		SELECT value
		FROM slots
		WHERE key = ?
		LIMIT 1
	`
	row := r.db.QueryRowContext(r.ctx, q, key)
	var value []byte
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: scan slot: %v", store.ErrStorage, err)
	}
	return value, nil
}

func (r *SlotStore) Insert(key int, value []byte) error {
	return r.Transaction([]store.Update{store.Insert(key, value)})
}

func (r *SlotStore) Transaction(updates []store.Update) error {
	seen := make(map[int]struct{}, len(updates))
	for _, u := range updates {
		if u.Key < 0 || u.Key > store.MaxKey {
			return store.ErrInvalidArgument
		}
		if _, dup := seen[u.Key]; dup {
			return store.ErrInvalidArgument
		}
		seen[u.Key] = struct{}{}
		if !u.IsRemove() && len(u.Value) > store.MaxValueLen {
			return store.ErrInvalidArgument
		}
	}

	tx, err := r.db.BeginTx(r.ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", store.ErrStorage, err)
	}
	defer tx.Rollback()

	const insertQ = `
		INSERT OR REPLACE INTO slots (key, value)
		VALUES (?, ?)
	`
	const removeQ = `
		DELETE FROM slots
		WHERE key = ?
	`
	for _, u := range updates {
		if u.IsRemove() {
			if _, err := tx.ExecContext(r.ctx, removeQ, u.Key); err != nil {
				return fmt.Errorf("%w: remove slot %d: %v", store.ErrStorage, u.Key, err)
			}
			continue
		}
		if _, err := tx.ExecContext(r.ctx, insertQ, u.Key, u.Value); err != nil {
			return fmt.Errorf("%w: insert slot %d: %v", store.ErrStorage, u.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit transaction: %v", store.ErrStorage, err)
	}
	return nil
}
