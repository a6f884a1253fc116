// Copyright (c) 2022, superwindstorm <fengwd.hc@gmail.com>
// All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

package lenext

import (
	"crypto/rand"
	"crypto/subtle"

	"github.com/superwindstorm/smkit/sm3"
)

// SecretPrefixMAC is the insecure tag = SM3(secret || m). It plays the
// server side of the demonstration.
type SecretPrefixMAC struct {
	secret []byte
}

// NewSecretPrefixMAC copies secret.
func NewSecretPrefixMAC(secret []byte) *SecretPrefixMAC {
	return &SecretPrefixMAC{secret: append([]byte(nil), secret...)}
}

// RandomSecretPrefixMAC draws an n-byte secret from crypto/rand.
func RandomSecretPrefixMAC(n int) (*SecretPrefixMAC, error) {
	secret := make([]byte, n)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	return &SecretPrefixMAC{secret: secret}, nil
}

// SecretLen returns the length of the secret, for reporting only.
func (m *SecretPrefixMAC) SecretLen() int { return len(m.secret) }

// Tag returns SM3(secret || msg).
func (m *SecretPrefixMAC) Tag(msg []byte) []byte {
	sum := sm3.Sum(m.secret, msg)
	return sum[:]
}

// Verify implements Oracle.
func (m *SecretPrefixMAC) Verify(msg, tag []byte) bool {
	return subtle.ConstantTimeCompare(m.Tag(msg), tag) == 1
}
