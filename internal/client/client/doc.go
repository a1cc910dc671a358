// Package client contains the Loominal backend API client.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     the health check, organizations, memberships and invitations.
//  2. A REST implementation (see HTTPClient) that bounds every call with a
//     timeout, attaches the bearer token, the selected organization id and a
//     request id, and maps HTTP statuses to sentinel errors.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrNotFound, ErrTimeout. Any other
// non-2xx answer is an *APIError carrying the status and the server message.
// Cancellation by the caller is returned as context.Canceled, unwrapped.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept context.Context
// and honor cancellation.
//
// See Also
//
//   - Interface:  Client
//   - REST impl:  HTTPClient
//   - Errors:     ErrUnavailable, ErrUnauthorized, ErrNotFound, ErrTimeout, APIError
package client
