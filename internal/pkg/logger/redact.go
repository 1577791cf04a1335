package logger

import (
	"regexp"
	"strings"
)

var (
	secretKeyRe = regexp.MustCompile(`(?i)(key|token|secret|credential|password|authorization)`)
	emailRe     = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// redactValue masks sensitive values before they reach the log stream.
// Fields whose key looks credential-shaped are masked whole; embedded email
// addresses in any field are masked in place.
func redactValue(key, val string) string {
	if secretKeyRe.MatchString(key) {
		return MaskSecret(val)
	}
	return emailRe.ReplaceAllStringFunc(val, MaskEmail)
}

// MaskSecret keeps a short identifying prefix of a credential.
// "sk-abcdef123456" → "sk-a****"
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}

// MaskEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
func MaskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}
