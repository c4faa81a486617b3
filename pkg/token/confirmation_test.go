package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmationIssueAndVerify(t *testing.T) {
	signer := NewConfirmationSigner("secret", time.Hour)
	issued, err := signer.Issue(7, []int64{3, 1, 3, 2})
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.NotEmpty(t, issued.Nonce)

	verified, err := signer.Verify(issued.Token, 7, []int64{2, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, issued.Nonce, verified.Nonce)
	assert.WithinDuration(t, issued.ExpiresAt, verified.ExpiresAt, time.Second)
}

func TestConfirmationVerifyRejections(t *testing.T) {
	signer := NewConfirmationSigner("secret", time.Hour)
	issued, err := signer.Issue(7, []int64{1, 2})
	require.NoError(t, err)

	_, err = signer.Verify(issued.Token, 8, []int64{1, 2})
	assert.ErrorIs(t, err, ErrActorMismatch)

	_, err = signer.Verify(issued.Token, 7, []int64{1, 2, 3})
	assert.ErrorIs(t, err, ErrSelectionMismatch)

	_, err = signer.Verify("garbage", 7, []int64{1, 2})
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = signer.Verify("", 7, []int64{1, 2})
	assert.ErrorIs(t, err, ErrMalformed)

	tampered := strings.Replace(issued.Token, "7.", "9.", 1)
	_, err = signer.Verify(tampered, 9, []int64{1, 2})
	assert.ErrorIs(t, err, ErrSignature)

	other := NewConfirmationSigner("other-secret", time.Hour)
	_, err = other.Verify(issued.Token, 7, []int64{1, 2})
	assert.ErrorIs(t, err, ErrSignature)
}

func TestConfirmationExpired(t *testing.T) {
	signer := NewConfirmationSigner("secret", time.Minute)
	issued, err := signer.Issue(1, []int64{5})
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = signer.Verify(issued.Token, 1, []int64{5})
	assert.ErrorIs(t, err, ErrExpired)
}

func TestConfirmationIssueRequiresSelectionAndSecret(t *testing.T) {
	_, err := NewConfirmationSigner("secret", time.Minute).Issue(1, []int64{0, -4})
	assert.Error(t, err)

	_, err = NewConfirmationSigner("", time.Minute).Issue(1, []int64{1})
	assert.ErrorIs(t, err, ErrSecretMissing)
}

func TestCanonicalIDs(t *testing.T) {
	assert.Equal(t, []int64{1, 4, 9}, CanonicalIDs([]int64{9, 4, 0, 1, 9, -2, 4}))
	assert.Empty(t, CanonicalIDs(nil))
}
