// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("API key not configured")

	// ErrBackend matches any BackendError via errors.Is.
	ErrBackend = errors.New("backend error")

	// ErrParsing matches any ParsingError via errors.Is.
	ErrParsing = errors.New("parsing error")

	// ErrTransport matches any TransportError via errors.Is.
	ErrTransport = errors.New("transport error")
)

// =============================================================================
// TRANSPORT ERRORS
// =============================================================================

// TransportError wraps a network or I/O failure reaching the backend.
// The core never retries these; they surface to the caller as-is.
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is allows TransportError to be compared with ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// =============================================================================
// PARSING ERRORS
// =============================================================================

// ParsingError reports malformed UTF-8, a malformed JSON payload, or an
// undecodable persisted history. It is always surfaced, never dropped.
type ParsingError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParsingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("parsing error: %s", e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *ParsingError) Unwrap() error {
	return e.Err
}

// Is allows ParsingError to be compared with ErrParsing.
func (e *ParsingError) Is(target error) bool {
	return target == ErrParsing
}

// =============================================================================
// BACKEND ERRORS
// =============================================================================

// BackendError is a structured error object returned by the remote
// service, carrying the server's message and error classification.
// The conversation history is left unmodified for the failed turn.
type BackendError struct {
	Message string
	Type    string
	Status  int
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("backend error [%s]: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("backend error: %s", e.Message)
}

// Is allows BackendError to be compared with ErrBackend.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}
