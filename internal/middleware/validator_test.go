package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRepoURL(t *testing.T) {
	assert.NoError(t, ValidateRepoURL("https://github.com/acme/repo.git"))
	assert.NoError(t, ValidateRepoURL("http://git.example.com/repo"))

	assert.Error(t, ValidateRepoURL(""))
	assert.Error(t, ValidateRepoURL("git@github.com:acme/repo.git"))
	assert.Error(t, ValidateRepoURL("file:///etc/passwd"))
	assert.Error(t, ValidateRepoURL("http://localhost:8080/repo"))
	assert.Error(t, ValidateRepoURL("https://127.0.0.1/repo"))
	assert.Error(t, ValidateRepoURL("https://192.168.1.5/repo"))
	assert.Error(t, ValidateRepoURL("https://10.0.0.3/repo"))
}

func TestValidateTenantID(t *testing.T) {
	assert.NoError(t, ValidateTenantID("acme"))
	assert.NoError(t, ValidateTenantID("acme-corp_01"))

	assert.Error(t, ValidateTenantID(""))
	assert.Error(t, ValidateTenantID("has space"))
	assert.Error(t, ValidateTenantID("slash/y"))
}

func TestValidateRunID(t *testing.T) {
	assert.NoError(t, ValidateRunID("2b1c0d3e-4f5a-6789-abcd-ef0123456789"))

	assert.Error(t, ValidateRunID(""))
	assert.Error(t, ValidateRunID("not-a-uuid"))
	assert.Error(t, ValidateRunID("2B1C0D3E-4F5A-6789-ABCD-EF0123456789")) // uppercase
}

func TestValidateQuestion(t *testing.T) {
	assert.NoError(t, ValidateQuestion("where is the auth logic?"))
	assert.Error(t, ValidateQuestion("   "))

	long := make([]byte, 2001)
	for i := range long {
		long[i] = 'q'
	}
	assert.Error(t, ValidateQuestion(string(long)))
}

func TestValidateLimitAndDays(t *testing.T) {
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 100, ValidateLimit(500))
	assert.Equal(t, 35, ValidateLimit(35))

	assert.Equal(t, 7, ValidateDays(-1))
	assert.Equal(t, 365, ValidateDays(1000))
	assert.Equal(t, 30, ValidateDays(30))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("hello\x00"))
	assert.Equal(t, "a b", SanitizeString("  a b \x07 "))
}

func TestExemptPath(t *testing.T) {
	assert.True(t, ExemptPath("/health"))
	assert.True(t, ExemptPath("/metrics"))
	assert.False(t, ExemptPath("/v1/acme/analyses"))
}
