// Package common contains constants shared by the client, its configuration
// and the reference API server.
package common

const (
	// AuthorizationHeaderName carries the access token on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName correlates a client log line with the server's.
	RequestIDHeaderName = "X-Request-ID"
)

// Authorization schemes. A deployment uses exactly one of them for every
// request; the API rejects tokens presented under the other.
const (
	SchemeBearer = "Bearer"
	SchemeJWT    = "JWT"
)

// Credential store keys.
const (
	AccessTokenKey  = "access"
	RefreshTokenKey = "refresh"
)
