package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "docverify/pkg/domain-errors"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("ops-token")
	require.NoError(t, err)
	assert.NotEqual(t, "ops-token", hash)
	require.NoError(t, ValidateHash(hash))

	assert.NoError(t, Verify("ops-token", hash))

	err = Verify("wrong", hash)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestHash_RejectsBadInput(t *testing.T) {
	_, err := Hash("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = Hash(strings.Repeat("x", 73))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "bcrypt caps input at 72 bytes")
}

func TestValidateHash(t *testing.T) {
	assert.Error(t, ValidateHash("ops-token"), "plaintext is not a hash")
	assert.Error(t, ValidateHash(""))
}
