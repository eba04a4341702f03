/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package vendorcmd

import "fmt"

// Status is the one-byte CTAP status carried on the wire. Handlers
// pass it around as an error; the zero value means success.
type Status byte

const (
	StatusOK                  Status = 0x00
	StatusInvalidCommand      Status = 0x01
	StatusInvalidParameter    Status = 0x02
	StatusInvalidCBOR         Status = 0x12
	StatusMissingParameter    Status = 0x14
	StatusOperationDenied     Status = 0x27
	StatusKeepaliveCancel     Status = 0x2D
	StatusUserActionTimeout   Status = 0x2F
	StatusIntegrityFailure    Status = 0x7D
	StatusVendorInternalError Status = 0xF2
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidCommand:
		return "invalid command"
	case StatusInvalidParameter:
		return "invalid parameter"
	case StatusInvalidCBOR:
		return "invalid CBOR"
	case StatusMissingParameter:
		return "missing parameter"
	case StatusOperationDenied:
		return "operation denied"
	case StatusKeepaliveCancel:
		return "keepalive cancelled"
	case StatusUserActionTimeout:
		return "user action timeout"
	case StatusIntegrityFailure:
		return "integrity failure"
	case StatusVendorInternalError:
		return "vendor internal error"
	default:
		return fmt.Sprintf("status 0x%02X", byte(s))
	}
}

func (s Status) Error() string {
	return s.String()
}
