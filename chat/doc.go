// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat contains the data structures shared by the converse client:
// messages, completion requests and responses, function descriptors, and
// the error taxonomy.
//
// # Key Types
//
//   - Message: a single conversational turn with role, content, and an
//     optional function-call payload
//   - CompletionRequest: the request body for the completions endpoint
//   - CompletionResponse: a finalized, non-streamed completion result
//   - FunctionDescriptor: a tool the remote model may ask to invoke
//
// # Errors
//
// All failures surface as one of three typed errors:
//
//   - TransportError: network or I/O failure reaching the backend
//   - ParsingError: malformed UTF-8, JSON, or persisted history
//   - BackendError: the service returned a structured error object
//
// Each supports errors.As, and BackendError additionally matches the
// ErrBackend sentinel via errors.Is.
package chat
