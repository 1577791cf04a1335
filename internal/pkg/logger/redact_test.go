package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "sk-a****", MaskSecret("sk-abcdef123456"))
	assert.Equal(t, "****", MaskSecret("abc"))
	assert.Equal(t, "****", MaskSecret(""))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", MaskEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", MaskEmail("jd@example.com"))
	assert.Equal(t, "***@***", MaskEmail("not-an-email"))
}

func TestRedactValue(t *testing.T) {
	assert.Equal(t, "sk-l****", redactValue("api_key", "sk-live-123456"))
	assert.Equal(t, "hunt****", redactValue("password", "hunter22"))
	assert.Equal(t, "Bear****", redactValue("Authorization", "Bearer abc"))

	// Non-secret keys keep their value, but embedded emails are masked.
	assert.Equal(t, "plain value", redactValue("comment", "plain value"))
	assert.Equal(t, "reply to jo***@example.com please",
		redactValue("comment", "reply to john@example.com please"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcde...", Truncate("abcdefgh", 5))
	assert.Equal(t, "héllo...", Truncate("héllo wörld", 5))
}
