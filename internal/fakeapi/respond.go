package fakeapi

import (
	"encoding/json"
	"net/http"
)

const (
	detailNoCredentials  = "Authentication credentials were not provided."
	detailBadCredentials = "No active account found with the given credentials"
	detailTokenInvalid   = "Given token not valid for any token type"
	detailTokenExpired   = "Token is invalid or expired"
	detailStaleToken     = "Stale token for given user."
	detailServerError    = "A server error occurred."
	codeTokenNotValid    = "token_not_valid"
)

type detailBody struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailBody{Detail: detail})
}

func writeTokenNotValid(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusUnauthorized, detailBody{Detail: detail, Code: codeTokenNotValid})
}

// decodeStrict decodes the request body, rejecting unknown fields.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
