// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history persists ordered message sequences.
//
// Two interchangeable encodings represent the same message sequence: a
// human-readable JSON encoding and a compact deterministic CBOR encoding.
// Round-tripping either reproduces every role, content, and function-call
// payload exactly.
//
// For durable multi-conversation storage the package also provides Store,
// a SQLite-backed database of named conversations keyed by ID.
package history
