// Package validate sanitizes and validates incoming campaign drafts before
// they reach the simulation engine. Draft text ends up embedded in model
// prompts and stored verbatim, so it gets length caps and an injection
// screen at the door.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// Field length limits.
const (
	MaxSubjectLength  = 200
	MaxBodyLength     = 10000
	MaxCTALength      = 500
	MaxAudienceLength = 100
	MaxSampleSize     = 500
)

// ValidationError reports a draft field that violates its constraints.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)<iframe[^>]*>`),
	regexp.MustCompile(`(?i)eval\(`),
	regexp.MustCompile(`(?i)expression\(`),
}

var audienceIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Subject sanitizes and validates an email subject.
func Subject(s string) (string, error) {
	s = sanitize(s, MaxSubjectLength)
	if len(s) < 3 {
		return "", &ValidationError{Field: "subject", Reason: "must be at least 3 characters"}
	}
	if err := checkDangerous("subject", s); err != nil {
		return "", err
	}
	return s, nil
}

// Body sanitizes and validates an email body.
func Body(s string) (string, error) {
	s = sanitize(s, MaxBodyLength)
	if len(s) < 10 {
		return "", &ValidationError{Field: "body", Reason: "must be at least 10 characters"}
	}
	if err := checkDangerous("body", s); err != nil {
		return "", err
	}
	return s, nil
}

// CTA sanitizes and validates a call-to-action. Empty is allowed.
func CTA(s string) (string, error) {
	s = sanitize(s, MaxCTALength)
	if s == "" {
		return "", nil
	}
	if err := checkDangerous("cta", s); err != nil {
		return "", err
	}
	return s, nil
}

// Audience validates an audience identifier.
func Audience(s string) (string, error) {
	s = sanitize(s, MaxAudienceLength)
	if s == "" {
		return "", &ValidationError{Field: "audience", Reason: "cannot be empty"}
	}
	if !audienceIDRe.MatchString(s) {
		return "", &ValidationError{Field: "audience",
			Reason: "must contain only alphanumerics, hyphens, and underscores"}
	}
	return s, nil
}

// SampleSize validates the requested persona count, defaulting to 10.
func SampleSize(n int) (int, error) {
	if n == 0 {
		return 10, nil
	}
	if n < 0 {
		return 0, &ValidationError{Field: "sample_size", Reason: "must be positive"}
	}
	if n > MaxSampleSize {
		return 0, &ValidationError{Field: "sample_size",
			Reason: fmt.Sprintf("must be at most %d", MaxSampleSize)}
	}
	return n, nil
}

// sanitize strips null bytes, trims whitespace, and clips to maxLen.
func sanitize(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}

func checkDangerous(field, s string) error {
	for _, re := range dangerousPatterns {
		if re.MatchString(s) {
			return &ValidationError{Field: field, Reason: "contains potentially dangerous content"}
		}
	}
	return nil
}
