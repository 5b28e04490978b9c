// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/samber/oops"
)

// IDBytes is the number of random bytes in a session id (64 hex chars).
const IDBytes = 32

// NewID returns a cryptographically random, hex-encoded opaque identifier.
func NewID() (string, error) {
	b := make([]byte, IDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("SESSION_ID_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", IDBytes).
			Wrap(err)
	}
	return hex.EncodeToString(b), nil
}
