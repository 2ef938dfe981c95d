// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "encoding/json"

// =============================================================================
// COMPLETION RESPONSE
// =============================================================================

// CompletionResponse is a finalized, non-streamed completion result: one or
// more candidate completions plus usage metadata.
type CompletionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Usage   Usage              `json:"usage"`
}

// CompletionChoice is a single candidate completion.
type CompletionChoice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
	Index        int     `json:"index"`
}

// Usage holds the token accounting for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// FirstMessage returns the message of the first candidate, or a zero
// Message if the response carries no choices.
func (r *CompletionResponse) FirstMessage() Message {
	if len(r.Choices) == 0 {
		return Message{}
	}
	return r.Choices[0].Message
}

// Content returns the content of the first candidate's message.
func (r *CompletionResponse) Content() string {
	return r.FirstMessage().Content
}

// =============================================================================
// SERVER RESPONSE ENVELOPE
// =============================================================================

// errorPayload is the error object the backend embeds in an error response.
type errorPayload struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// serverResponse is the untagged union the backend returns: either an
// error envelope or a completion.
type serverResponse struct {
	Error *errorPayload `json:"error"`
	CompletionResponse
}

// UnmarshalServerResponse decodes the response body of a non-streamed
// completion request. A well-formed error envelope becomes a BackendError;
// an undecodable body becomes a ParsingError.
func UnmarshalServerResponse(data []byte) (*CompletionResponse, error) {
	var sr serverResponse
	if err := json.Unmarshal(data, &sr); err != nil {
		return nil, &ParsingError{Message: "decoding completion response", Err: err}
	}
	if sr.Error != nil {
		return nil, &BackendError{Message: sr.Error.Message, Type: sr.Error.Type}
	}
	return &sr.CompletionResponse, nil
}
