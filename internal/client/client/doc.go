// Package client talks to the authentication API over JSON/HTTP.
//
// # Overview
//
// The package provides:
//  1. The API contract (see the Client interface): create, verify and
//     refresh a session; register, activate and reset a password; fetch the
//     current profile.
//  2. HTTPClient, the net/http implementation. Every request goes through an
//     authorizing transport that attaches the stored access token and, when
//     the API answers 401, asks a Renewer for a new token and replays the
//     request once.
//
// # Error Handling
//
// Non-2xx answers are returned as *APIError, which carries the field-keyed
// messages from the body. It unwraps to ErrUnauthorized for 401 and to
// ErrUnavailable for gateway failures; network faults also wrap
// ErrUnavailable. Match with errors.Is and errors.As.
//
// # Concurrency
//
// HTTPClient is safe for concurrent use. All operations honor ctx.
package client
