/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package vendorcmd

import (
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/kentakayama/sk-anoncred/internal/util"
)

// Requests decode in two stages: the parameter map into raw fields,
// then each field into its typed value. A map that does not decode is
// the caller's CBOR problem; a field that does not decode is a
// parameter problem. Absence of a required field is reported
// separately so the caller can tell the two apart.

var decMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
		TagsMd:      cbor.TagsForbidden,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

type fields map[uint64]cbor.RawMessage

func decodeFields(data []byte) (fields, error) {
	if len(data) == 0 {
		return nil, StatusInvalidCBOR
	}
	var m fields
	if err := decMode.Unmarshal(data, &m); err != nil {
		return nil, StatusInvalidCBOR
	}
	return m, nil
}

func requireBytes(m fields, key uint64) ([]byte, error) {
	raw, ok := m[key]
	if !ok {
		return nil, StatusMissingParameter
	}
	var b []byte
	if err := decMode.Unmarshal(raw, &b); err != nil {
		return nil, StatusInvalidParameter
	}
	return b, nil
}

func requireFixedBytes(m fields, key uint64, n int) ([]byte, error) {
	b, err := requireBytes(m, key)
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, StatusInvalidParameter
	}
	return b, nil
}

func requireUint(m fields, key uint64) (uint64, error) {
	raw, ok := m[key]
	if !ok {
		return 0, StatusMissingParameter
	}
	var v uint64
	if err := decMode.Unmarshal(raw, &v); err != nil {
		return 0, StatusInvalidParameter
	}
	return v, nil
}

func requireByteArrays(m fields, key uint64) ([][]byte, error) {
	raw, ok := m[key]
	if !ok {
		return nil, StatusMissingParameter
	}
	var a [][]byte
	if err := decMode.Unmarshal(raw, &a); err != nil {
		return nil, StatusInvalidParameter
	}
	return a, nil
}

// requireIndexes decodes an array of uints into ints, rejecting
// duplicates and values that do not fit.
func requireIndexes(m fields, key uint64) ([]int, error) {
	raw, ok := m[key]
	if !ok {
		return nil, StatusMissingParameter
	}
	var a []uint64
	if err := decMode.Unmarshal(raw, &a); err != nil {
		return nil, StatusInvalidParameter
	}
	seen := util.NewSet[int]()
	indexes := make([]int, len(a))
	for i, v := range a {
		if v > math.MaxInt32 {
			return nil, StatusInvalidParameter
		}
		idx := int(v)
		if seen.Has(idx) {
			return nil, StatusInvalidParameter
		}
		seen.Add(idx)
		indexes[i] = idx
	}
	return indexes, nil
}

func optionalBool(m fields, key uint64, def bool) (bool, error) {
	raw, ok := m[key]
	if !ok {
		return def, nil
	}
	var v bool
	if err := decMode.Unmarshal(raw, &v); err != nil {
		return false, StatusInvalidParameter
	}
	return v, nil
}

// optionalMap returns the nested parameter map under key, or nil when
// the key is absent.
func optionalMap(m fields, key uint64) (fields, error) {
	raw, ok := m[key]
	if !ok {
		return nil, nil
	}
	var nested fields
	if err := decMode.Unmarshal(raw, &nested); err != nil {
		return nil, StatusInvalidParameter
	}
	return nested, nil
}
