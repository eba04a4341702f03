/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package attest

import (
	"errors"

	"github.com/kentakayama/sk-anoncred/internal/secret"
	"github.com/kentakayama/sk-anoncred/internal/store"
)

// Fixed slot keys for the batch attestation record.
const (
	slotPrivateKey  = 1
	slotCertificate = 2
	slotLinkSecret  = 3
)

// Store reads and writes attestation records on top of slot storage.
// Every Get hits the backing store; nothing is cached.
type Store struct {
	kv store.Store
}

func NewStore(kv store.Store) *Store {
	return &Store{kv: kv}
}

// Get returns the attestation record for id, or (nil, nil) when none
// is programmed. A record with some but not all parts present is
// corrupt and reported as ErrInternal.
func (s *Store) Get(id ID) (*Attestation, error) {
	if id != Batch {
		return nil, ErrNoSupport
	}

	privateKey, err := s.kv.Find(slotPrivateKey)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	certificate, err := s.kv.Find(slotCertificate)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	linkSecret, err := s.kv.Find(slotLinkSecret)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if privateKey == nil && certificate == nil && linkSecret == nil {
		return nil, nil
	}
	if privateKey == nil || certificate == nil || linkSecret == nil {
		return nil, ErrInternal
	}
	if len(privateKey) != PrivateKeyLen || len(linkSecret) != LinkSecretLen {
		secret.Zero(privateKey)
		secret.Zero(linkSecret)
		return nil, ErrInternal
	}

	a := &Attestation{
		PrivateKey:  secret.From(privateKey),
		Certificate: certificate,
		LinkSecret:  secret.From(linkSecret),
	}
	secret.Zero(privateKey)
	secret.Zero(linkSecret)
	return a, nil
}

// Set writes the attestation record for id in one transaction, or
// erases it when a is nil. Either all three slots change or none does.
func (s *Store) Set(id ID, a *Attestation) error {
	if id != Batch {
		return ErrNoSupport
	}

	if a == nil {
		err := s.kv.Transaction([]store.Update{
			store.Remove(slotPrivateKey),
			store.Remove(slotCertificate),
			store.Remove(slotLinkSecret),
		})
		if err != nil {
			return mapStoreErr(err)
		}
		return nil
	}

	if a.PrivateKey.Len() != PrivateKeyLen || a.LinkSecret.Len() != LinkSecretLen {
		return ErrInternal
	}

	err := s.kv.Transaction([]store.Update{
		store.Insert(slotPrivateKey, a.PrivateKey.Bytes()),
		store.Insert(slotCertificate, a.Certificate),
		store.Insert(slotLinkSecret, a.LinkSecret.Bytes()),
	})
	if err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// mapStoreErr collapses slot-storage failures into the attestation
// error set. Only genuine storage faults stay visible as such; the
// rest indicate bugs on our side of the contract.
func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrStorage) {
		return ErrStorage
	}
	return ErrInternal
}
