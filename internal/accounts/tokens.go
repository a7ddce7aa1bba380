package accounts

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// Token purposes accepted by the signer
const (
	TokenPurposeVerifyEmail   = "verify_email"
	TokenPurposeResetPassword = "reset_password"
)

// Token lifetimes per purpose
const (
	verifyEmailTTL   = 48 * time.Hour
	resetPasswordTTL = 1 * time.Hour
)

// HMACTokenSigner issues single-purpose account tokens of the form
// base64(purpose|userID|expiresAt).signature. The signature covers the
// purpose so a verification token can never be replayed as a reset token.
type HMACTokenSigner struct {
	secret []byte
	now    func() time.Time
}

// NewHMACTokenSigner creates a token signer keyed with the given secret
func NewHMACTokenSigner(secret string) *HMACTokenSigner {
	return &HMACTokenSigner{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Sign issues a token binding the user to the purpose with an expiry
func (s *HMACTokenSigner) Sign(purpose, userID string) string {
	expiresAt := s.now().Add(ttlFor(purpose)).Unix()
	payload := fmt.Sprintf("%s|%s|%d", purpose, userID, expiresAt)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return encoded + "." + s.signature(payload)
}

// Verify checks the token signature, purpose and expiry, returning the
// user ID the token was issued for.
func (s *HMACTokenSigner) Verify(purpose, token string) (string, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return "", types.NewAuthenticationError(types.ErrCodeInvalidToken, "malformed token")
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", types.NewAuthenticationError(types.ErrCodeInvalidToken, "malformed token")
	}
	payload := string(payloadBytes)

	if !hmac.Equal([]byte(s.signature(payload)), []byte(parts[1])) {
		return "", types.NewAuthenticationError(types.ErrCodeInvalidToken, "token signature mismatch")
	}

	fields := strings.Split(payload, "|")
	if len(fields) != 3 {
		return "", types.NewAuthenticationError(types.ErrCodeInvalidToken, "malformed token payload")
	}
	if fields[0] != purpose {
		return "", types.NewAuthenticationError(types.ErrCodeInvalidToken, "token purpose mismatch")
	}

	expiresAt, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return "", types.NewAuthenticationError(types.ErrCodeInvalidToken, "malformed token expiry")
	}
	if s.now().Unix() > expiresAt {
		return "", types.NewAuthenticationError(types.ErrCodeTokenExpired, "token has expired")
	}

	return fields[1], nil
}

func (s *HMACTokenSigner) signature(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func ttlFor(purpose string) time.Duration {
	if purpose == TokenPurposeResetPassword {
		return resetPasswordTTL
	}
	return verifyEmailTTL
}
