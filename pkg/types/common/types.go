// Package common defines the primitive shared types used across chat-buddy
// layers: identifiers, pagination, and generic API envelopes.  No business
// logic lives here.
package common

import (
	"time"

	"github.com/google/uuid"
)

// ID is a string alias for UUID v4.
type ID string

// OwnerID is a string alias for the account that owns a persisted entity.
// Every template, refined response, conversation, and upload session is
// scoped to exactly one owner.
type OwnerID string

// NewID generates a fresh random ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// Metadata is an open-ended key-value bag.
type Metadata map[string]interface{}

// Pagination defines parameters for paginated requests.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total,omitempty"`
}

// Limit returns the page size clamped to [1, max].
func (p Pagination) Limit(max int) int {
	if p.PageSize < 1 {
		return max
	}
	if p.PageSize > max {
		return max
	}
	return p.PageSize
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset(max int) int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * p.Limit(max)
}

// SortOrder defines the direction of sorting.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ErrorDetail provides structured error information for API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// APIResponse is the generic wrapper for all API responses.
type APIResponse[T any] struct {
	Success    bool         `json:"success"`
	Data       T            `json:"data,omitempty"`
	Error      *ErrorDetail `json:"error,omitempty"`
	Pagination *Pagination  `json:"pagination,omitempty"`
	RequestID  string       `json:"request_id,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}
