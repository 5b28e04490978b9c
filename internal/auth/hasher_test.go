// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/pkg/errutil"
)

func TestArgon2idHasher_Hash(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("produces PHC argon2id encoding", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))
		assert.Len(t, strings.Split(hash, "$"), 6)
	})

	t.Run("same password produces different hashes that both verify", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
		assert.True(t, hasher.Verify("samepassword", hash1))
		assert.True(t, hasher.Verify("samepassword", hash2))
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_EMPTY_PASSWORD")
	})
}

func TestArgon2idHasher_Verify(t *testing.T) {
	hasher := auth.NewArgon2idHasher()
	hash, err := hasher.Hash("correctpassword")
	require.NoError(t, err)

	assert.True(t, hasher.Verify("correctpassword", hash))
	assert.False(t, hasher.Verify("wrongpassword", hash))
	assert.False(t, hasher.Verify("", hash))
}

func TestArgon2idHasher_VerifyMalformedNeverMatches(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	malformed := map[string]string{
		"garbage":           "not-a-valid-hash",
		"empty":             "",
		"wrong algorithm":   "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"bad version":       "$argon2id$vXX$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"future version":    "$argon2id$v=20$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"bad params":        "$argon2id$v=19$invalid$c2FsdA$aGFzaA",
		"bad salt":          "$argon2id$v=19$m=65536,t=1,p=4$!!!invalid!!!$aGFzaA",
		"bad key":           "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!invalid!!!",
		"threads overflow":  "$argon2id$v=19$m=65536,t=1,p=256$c2FsdA$aGFzaA",
		"zero threads":      "$argon2id$v=19$m=65536,t=1,p=0$c2FsdA$aGFzaA",
		"huge memory":       "$argon2id$v=19$m=4294967295,t=1,p=4$c2FsdA$aGFzaA",
		"zero time":         "$argon2id$v=19$m=65536,t=0,p=4$c2FsdA$aGFzaA",
		"empty key":         "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$",
		"truncated bcrypt":  "$2a$10$short",
		"too many segments": "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA$extra",
	}
	for name, hash := range malformed {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, hasher.Verify("password", hash))
			})
		})
	}
}

func TestArgon2idHasher_LegacyBcrypt(t *testing.T) {
	hasher := auth.NewArgon2idHasher()
	legacy, err := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, hasher.Verify("oldpassword", string(legacy)))
	assert.False(t, hasher.Verify("newpassword", string(legacy)))
	assert.True(t, hasher.NeedsUpgrade(string(legacy)))

	fresh, err := hasher.Hash("oldpassword")
	require.NoError(t, err)
	assert.False(t, hasher.NeedsUpgrade(fresh))
}
