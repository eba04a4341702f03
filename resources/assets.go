/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package resources

import (
	_ "embed"
)

var (
	// UpgradeCoseKeyBytes is a CBOR-encoded COSE_Key (EC2, ES256) used to
	// sign and verify firmware metadata in development builds. The key pair
	// is the published P-256 example from RFC 6979 and protects nothing;
	// production deployments point the server at their own verification key.
	//
	//go:embed upgrade_priv.cbor
	UpgradeCoseKeyBytes []byte
)
