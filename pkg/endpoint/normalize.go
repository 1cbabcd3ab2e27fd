package endpoint

import "strings"

// Normalize converts a request path into the registry lookup key:
// exactly one leading and one trailing '/' are stripped if present, and
// the result is lowercased. Lowercasing is plain ASCII folding, not
// Unicode case mapping, so keys stay predictable across locales.
//
// "/API/Users/", "api/users" and "API/USERS" all normalize to "api/users".
func Normalize(path string) string {
	if path == "" {
		return ""
	}

	p := strings.TrimPrefix(path, "/")
	p = strings.TrimSuffix(p, "/")
	return asciiLower(p)
}

// asciiLower lowercases A-Z only, leaving all other bytes untouched.
func asciiLower(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}

	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
