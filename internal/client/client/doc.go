// Package client contains the CLI's connection to the wellkeeper record API.
//
// # Overview
//
// Client is the transport-agnostic contract the CLI programs against;
// HTTPClient implements it over net/http. The bearer token obtained by
// Login is kept on the client and attached to every later request.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable. Non-2xx responses are returned as
// *APIError, which unwraps to ErrUnauthorized (401) or common.ErrorNotFound
// (404) so callers can match with errors.Is.
//
// All operations accept context.Context and honor cancellation/timeouts.
package client
