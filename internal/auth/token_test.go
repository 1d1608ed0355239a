package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	raw, err := iss.Issue("user-1", "ananda")
	require.NoError(t, err)

	claims, err := ParseToken("secret", raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ananda", claims.Username)
}

func TestParseToken_WrongSecret(t *testing.T) {
	raw, err := NewIssuer("secret", time.Hour).Issue("user-1", "")
	require.NoError(t, err)

	_, err = ParseToken("other", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	iss := NewIssuer("secret", time.Minute)
	iss.now = func() time.Time { return time.Now().Add(-time.Hour) }
	raw, err := iss.Issue("user-1", "")
	require.NoError(t, err)

	_, err = ParseToken("secret", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_RejectsNonHMAC(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken("secret", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_MissingSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"username": "x"})
	raw, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseToken("secret", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssue_RequiresUserID(t *testing.T) {
	_, err := NewIssuer("secret", 0).Issue("", "x")
	assert.Error(t, err)
}
