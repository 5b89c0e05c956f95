// Package redact masks personal data and secrets before they reach logs.
package redact

import "strings"

// Email keeps the first two characters of the local part and the domain.
func Email(s string) string {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "***"
	}

	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token hides a bearer credential while still telling "set" from "unset".
func Token(s string) string {
	if s == "" {
		return "[EMPTY]"
	}
	return "[REDACTED_TOKEN]"
}

func Password() string { return "[REDACTED_PASSWORD]" }
