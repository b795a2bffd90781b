package logging

import "strings"

// RedactValue masks a secret, keeping only a short prefix.
func RedactValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 6 {
		return "****"
	}
	return trimmed[:4] + "****"
}

// RedactQueryKey masks the value of a key= query parameter inside s. Transport
// errors quote the request URL, and Gemini carries its API key there.
func RedactQueryKey(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, key, RedactValue(key))
}
