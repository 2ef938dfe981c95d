// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/jeranaias/converse/chat"
)

// =============================================================================
// CBOR MODES
// =============================================================================

// encMode uses Core Deterministic Encoding: the same history always
// produces identical bytes, which keeps stored blobs diffable and
// deduplicatable.
var encMode cbor.EncMode

// decMode accepts standard CBOR; unknown fields are ignored for forward
// compatibility.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("history: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("history: CBOR decoder initialization failed: " + err.Error())
	}
}

// =============================================================================
// ENCODINGS
// =============================================================================

// EncodeJSON serializes a message sequence to the human-readable encoding.
func EncodeJSON(msgs []chat.Message) ([]byte, error) {
	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return nil, &chat.ParsingError{Message: "encoding history as JSON", Err: err}
	}
	return data, nil
}

// DecodeJSON deserializes the human-readable encoding.
func DecodeJSON(data []byte) ([]chat.Message, error) {
	var msgs []chat.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, &chat.ParsingError{Message: "decoding JSON history", Err: err}
	}
	return msgs, nil
}

// EncodeBinary serializes a message sequence to the compact CBOR encoding.
func EncodeBinary(msgs []chat.Message) ([]byte, error) {
	data, err := encMode.Marshal(msgs)
	if err != nil {
		return nil, &chat.ParsingError{Message: "encoding history as CBOR", Err: err}
	}
	return data, nil
}

// DecodeBinary deserializes the compact CBOR encoding.
func DecodeBinary(data []byte) ([]chat.Message, error) {
	var msgs []chat.Message
	if err := decMode.Unmarshal(data, &msgs); err != nil {
		return nil, &chat.ParsingError{Message: "decoding CBOR history", Err: err}
	}
	return msgs, nil
}

// =============================================================================
// FILE HELPERS
// =============================================================================

// WriteFile persists a history to disk, choosing the encoding by file
// extension: ".json" is human-readable, anything else is the compact
// binary encoding.
func WriteFile(path string, msgs []chat.Message) error {
	var data []byte
	var err error
	if isJSONPath(path) {
		data, err = EncodeJSON(msgs)
	} else {
		data, err = EncodeBinary(msgs)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile restores a history from disk, dispatching on extension the
// same way WriteFile does. A missing file is a ParsingError, matching
// the restore contract.
func ReadFile(path string) ([]chat.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &chat.ParsingError{Message: "history file does not exist: " + path}
		}
		return nil, &chat.ParsingError{Message: "reading history file", Err: err}
	}
	if isJSONPath(path) {
		return DecodeJSON(data)
	}
	return DecodeBinary(data)
}

func isJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
