package accounts

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	totpPeriod = 30 // seconds per time step
	totpDigits = 6
	totpSkew   = 1 // accepted windows either side of now

	// devBypassCode is accepted in development mode so the login flow can
	// be exercised before an authenticator app is enrolled.
	devBypassCode = "000000"
)

// TOTPProvider implements time-based one-time passwords per RFC 6238
// (HMAC-SHA1, 30 second steps, six digits).
type TOTPProvider struct {
	issuer          string
	developmentMode bool
	now             func() time.Time
}

// NewTOTPProvider creates a new TOTP provider
func NewTOTPProvider(issuer string, developmentMode bool) *TOTPProvider {
	return &TOTPProvider{
		issuer:          issuer,
		developmentMode: developmentMode,
		now:             time.Now,
	}
}

// GenerateSecret generates a new base32-encoded TOTP secret
func (p *TOTPProvider) GenerateSecret() (string, error) {
	secretBytes := make([]byte, 20)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("failed to generate random secret: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secretBytes), nil
}

// OTPAuthURL builds the otpauth:// provisioning URI consumed by
// authenticator apps.
func (p *TOTPProvider) OTPAuthURL(account, secret string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", p.issuer)
	v.Set("digits", fmt.Sprintf("%d", totpDigits))
	v.Set("period", fmt.Sprintf("%d", totpPeriod))

	return fmt.Sprintf("otpauth://totp/%s:%s?%s",
		labelEscape(p.issuer), labelEscape(account), v.Encode())
}

// labelEscape percent-encodes a label component of the provisioning URI.
// The Key Uri format URL-encodes the label, including "@", which
// url.PathEscape leaves literal; spaces must become %20, not "+".
func labelEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// VerifyCode checks a six-digit code against the secret, accepting one
// time step of clock skew in either direction.
func (p *TOTPProvider) VerifyCode(secret, code string) bool {
	if len(code) != totpDigits {
		return false
	}

	if p.developmentMode && code == devBypassCode {
		return true
	}

	counter := p.now().Unix() / totpPeriod
	for i := -totpSkew; i <= totpSkew; i++ {
		expected, err := totpAt(secret, counter+int64(i))
		if err != nil {
			return false
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return true
		}
	}
	return false
}

// BackupCodes generates n eight-digit recovery codes
func (p *TOTPProvider) BackupCodes(n int) ([]string, error) {
	codes := make([]string, n)
	for i := range codes {
		codeBytes := make([]byte, 4)
		if _, err := rand.Read(codeBytes); err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes[i] = fmt.Sprintf("%08d", binary.BigEndian.Uint32(codeBytes)%100000000)
	}
	return codes, nil
}

// totpAt computes the HOTP value for a counter per RFC 4226 truncation
func totpAt(secret string, counter int64) (string, error) {
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		return "", fmt.Errorf("invalid secret encoding: %w", err)
	}

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%06d", value%1000000), nil
}
