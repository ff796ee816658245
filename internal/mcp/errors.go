// Package mcp implements the Model Context Protocol (MCP) server
// exposing the knowledge base to AI clients.
package mcp

import (
	"context"
	"errors"
	"fmt"

	kberrors "github.com/paperdex/paperdex/internal/errors"
)

// Custom MCP error codes.
const (
	// ErrCodeDiscoveryFailed indicates the paper discovery service failed.
	ErrCodeDiscoveryFailed = -32001

	// ErrCodeEmbeddingFailed indicates embedding generation failed.
	ErrCodeEmbeddingFailed = -32002

	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout = -32003

	// ErrCodeStoreFailed indicates a knowledge store operation failed.
	ErrCodeStoreFailed = -32004

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError creates an invalid-params error with detail.
func NewInvalidParamsError(detail string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: fmt.Sprintf("Invalid parameters: %s", detail),
	}
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var kbErr *kberrors.KBError
	if errors.As(err, &kbErr) {
		return mapKBError(kbErr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out.",
		}
	case errors.Is(err, context.Canceled):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request was canceled.",
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: err.Error(),
		}
	}
}

// mapKBError maps a structured knowledge-base error to an MCP error.
func mapKBError(err *kberrors.KBError) *MCPError {
	code := ErrCodeInternalError

	switch err.Code {
	case kberrors.ErrCodeDiscoveryFailed:
		code = ErrCodeDiscoveryFailed
	case kberrors.ErrCodeEmbeddingFailed:
		code = ErrCodeEmbeddingFailed
	case kberrors.ErrCodeNetworkTimeout:
		code = ErrCodeTimeout
	case kberrors.ErrCodeStoreCorrupt, kberrors.ErrCodeStoreWriteFailed, kberrors.ErrCodeQueryFailed:
		code = ErrCodeStoreFailed
	case kberrors.ErrCodeInvalidInput, kberrors.ErrCodeQueryEmpty, kberrors.ErrCodeDimensionMismatch:
		code = ErrCodeInvalidParams
	}

	message := err.Message
	if err.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", message, err.Suggestion)
	}

	return &MCPError{Code: code, Message: message}
}
