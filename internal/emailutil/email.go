package emailutil

import "strings"

// Normalize lowercases and trims an email address or domain for comparison
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ExtractDomain returns the normalized part after "@", or "" when the address
// does not contain exactly one "@".
func ExtractDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return Normalize(parts[1])
}
