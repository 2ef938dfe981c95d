// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "encoding/json"

// =============================================================================
// COMPLETION REQUEST
// =============================================================================

// CompletionRequest is the request body for the completions endpoint.
//
// ReplyCount maps to the wire field "n": the number of parallel candidate
// completions requested. When it is greater than one, streamed deltas carry
// a response index identifying which candidate they belong to.
type CompletionRequest struct {
	Model            string               `json:"model"`
	Messages         []Message            `json:"messages"`
	Stream           bool                 `json:"stream"`
	Temperature      float32              `json:"temperature"`
	TopP             float32              `json:"top_p"`
	MaxTokens        int                  `json:"max_tokens,omitempty"`
	FrequencyPenalty float32              `json:"frequency_penalty"`
	PresencePenalty  float32              `json:"presence_penalty"`
	ReplyCount       int                  `json:"n"`
	Functions        []FunctionDescriptor `json:"functions,omitempty"`
}

// =============================================================================
// FUNCTION DESCRIPTORS
// =============================================================================

// FunctionDescriptor describes a function the remote model is permitted to
// call. Parameters is a JSON Schema object describing the arguments.
//
// Descriptors are processed as tokens on the backend, so keep the count
// and the descriptions small.
type FunctionDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// NewFunctionDescriptor creates a descriptor with a JSON Schema parameter
// object marshaled from params. A nil params produces a descriptor with no
// parameter schema.
func NewFunctionDescriptor(name, description string, params any) (FunctionDescriptor, error) {
	fd := FunctionDescriptor{Name: name, Description: description}
	if params == nil {
		return fd, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return FunctionDescriptor{}, &ParsingError{Message: "encoding function parameters", Err: err}
	}
	fd.Parameters = raw
	return fd, nil
}
