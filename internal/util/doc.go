// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the bcard packages.
//
// # Key Functions
//
//   - WriteFileAtomic: crash-safe file writing with fsync and rename
//   - Truncate: UTF-8 safe truncation with ellipsis for table cells
//   - Fingerprint: short, non-reversible label for secrets in logs
//
// # Usage
//
//	// Persist the session token without ever leaving a half-written file
//	err := util.WriteFileAtomic(path, []byte(token), 0600)
//
//	// Never log a token, log its fingerprint
//	logger.Info("token stored", zap.String("token", util.Fingerprint(token)))
package util
