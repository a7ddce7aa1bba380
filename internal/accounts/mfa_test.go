package accounts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rfcSecret is the ASCII key "12345678901234567890" from the RFC 6238
// test vectors, base32-encoded.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestTOTPProvider_VerifyCode_RFCVector(t *testing.T) {
	p := NewTOTPProvider("HospitalPortal", false)

	// At T=59s the reference 8-digit value is 94287082; the 6-digit
	// truncation is 287082.
	p.now = func() time.Time { return time.Unix(59, 0).UTC() }

	assert.True(t, p.VerifyCode(rfcSecret, "287082"))
	assert.False(t, p.VerifyCode(rfcSecret, "123456"))
}

func TestTOTPProvider_VerifyCode_AcceptsAdjacentWindow(t *testing.T) {
	p := NewTOTPProvider("HospitalPortal", false)

	// The code for T=59s (counter 1) should still verify one step later.
	p.now = func() time.Time { return time.Unix(59+totpPeriod, 0).UTC() }
	assert.True(t, p.VerifyCode(rfcSecret, "287082"))

	// Two steps later it is outside the skew tolerance.
	p.now = func() time.Time { return time.Unix(59+2*totpPeriod, 0).UTC() }
	assert.False(t, p.VerifyCode(rfcSecret, "287082"))
}

func TestTOTPProvider_DevelopmentBypass(t *testing.T) {
	dev := NewTOTPProvider("HospitalPortal", true)
	prod := NewTOTPProvider("HospitalPortal", false)

	assert.True(t, dev.VerifyCode(rfcSecret, devBypassCode))
	assert.False(t, prod.VerifyCode(rfcSecret, devBypassCode))
}

func TestTOTPProvider_VerifyCode_RejectsMalformed(t *testing.T) {
	p := NewTOTPProvider("HospitalPortal", false)

	assert.False(t, p.VerifyCode(rfcSecret, ""))
	assert.False(t, p.VerifyCode(rfcSecret, "12345"))
	assert.False(t, p.VerifyCode(rfcSecret, "1234567"))
}

func TestTOTPProvider_GenerateSecret(t *testing.T) {
	p := NewTOTPProvider("HospitalPortal", false)

	secret, err := p.GenerateSecret()
	require.NoError(t, err)
	assert.NotEmpty(t, secret)

	// A code generated from the fresh secret should verify immediately.
	code, err := totpAt(secret, time.Now().Unix()/totpPeriod)
	require.NoError(t, err)
	assert.True(t, p.VerifyCode(secret, code))
}

func TestTOTPProvider_OTPAuthURL(t *testing.T) {
	p := NewTOTPProvider("HospitalPortal", false)

	url := p.OTPAuthURL("alice@example.com", rfcSecret)
	assert.Contains(t, url, "otpauth://totp/HospitalPortal:alice%40example.com")
	assert.Contains(t, url, "secret="+rfcSecret)
	assert.Contains(t, url, "issuer=HospitalPortal")
}

func TestTOTPProvider_BackupCodes(t *testing.T) {
	p := NewTOTPProvider("HospitalPortal", false)

	codes, err := p.BackupCodes(10)
	require.NoError(t, err)
	require.Len(t, codes, 10)
	for _, code := range codes {
		assert.Len(t, code, 8)
	}
}
