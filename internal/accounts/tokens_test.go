package accounts

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

func TestHMACTokenSigner_RoundTrip(t *testing.T) {
	signer := NewHMACTokenSigner("test-signing-secret")

	token := signer.Sign(TokenPurposeVerifyEmail, "user-123")

	userID, err := signer.Verify(TokenPurposeVerifyEmail, token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestHMACTokenSigner_PurposeMismatch(t *testing.T) {
	signer := NewHMACTokenSigner("test-signing-secret")

	token := signer.Sign(TokenPurposeVerifyEmail, "user-123")

	_, err := signer.Verify(TokenPurposeResetPassword, token)
	require.Error(t, err)

	var portalErr *types.PortalError
	require.True(t, errors.As(err, &portalErr))
	assert.Equal(t, types.ErrCodeInvalidToken, portalErr.Code)
}

func TestHMACTokenSigner_Expired(t *testing.T) {
	signer := NewHMACTokenSigner("test-signing-secret")

	issued := time.Now()
	signer.now = func() time.Time { return issued }
	token := signer.Sign(TokenPurposeResetPassword, "user-123")

	signer.now = func() time.Time { return issued.Add(resetPasswordTTL + time.Minute) }
	_, err := signer.Verify(TokenPurposeResetPassword, token)
	require.Error(t, err)

	var portalErr *types.PortalError
	require.True(t, errors.As(err, &portalErr))
	assert.Equal(t, types.ErrCodeTokenExpired, portalErr.Code)
}

func TestHMACTokenSigner_Tampered(t *testing.T) {
	signer := NewHMACTokenSigner("test-signing-secret")

	token := signer.Sign(TokenPurposeVerifyEmail, "user-123")

	_, err := signer.Verify(TokenPurposeVerifyEmail, token+"x")
	assert.Error(t, err)

	_, err = signer.Verify(TokenPurposeVerifyEmail, "not-a-token")
	assert.Error(t, err)

	other := NewHMACTokenSigner("different-secret")
	_, err = other.Verify(TokenPurposeVerifyEmail, token)
	assert.Error(t, err)
}
