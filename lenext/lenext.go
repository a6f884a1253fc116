// Copyright (c) 2022, superwindstorm <fengwd.hc@gmail.com>
// All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

// Package lenext demonstrates the length-extension attack on the
// secret-prefix construction tag = SM3(secret || m).
//
// Knowing m and its tag, but not the secret, an attacker can compute a
// valid tag for m || glue || suffix by resuming SM3 from the tag. This
// package exists to show why SM3(secret || m) must never be used as a
// MAC; use HMAC-SM3 instead.
package lenext

import (
	"encoding"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"

	"github.com/superwindstorm/smkit/sm3"
)

var (
	// ErrNotFound is returned by Attack when no secret length in the
	// searched range yields a forgery the oracle accepts.
	ErrNotFound = errors.New("lenext: no secret length in range produced a valid forgery")
	// ErrInvalidTag is returned for tags that are not sm3.Size bytes.
	ErrInvalidTag = errors.New("lenext: tag is not an SM3 digest")
	// ErrInvalidRange is returned for a negative or inverted secret
	// length range.
	ErrInvalidRange = errors.New("lenext: invalid secret length range")
)

// stateOffset is where the eight chaining words start in the marshaled
// SM3 state, right after its 4-byte identifier.
const stateOffset = 4

type resumable interface {
	hash.Hash
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// Forgery is the outcome of one extension: Message = m || glue || suffix
// and Tag = SM3(secret || Message) provided the secret is SecretLen bytes.
type Forgery struct {
	Message   []byte
	Tag       []byte
	SecretLen int
	GlueLen   int
}

// MDPad returns the SM3 padding of an n-byte message: 0x80, zero bytes
// up to 56 mod 64, then the bit length 8n as a big endian uint64.
func MDPad(n uint64) []byte {
	zeros := (sm3.BlockSize + 56 - int((n+1)%sm3.BlockSize)) % sm3.BlockSize
	pad := make([]byte, 1+zeros+8)
	pad[0] = 0x80
	binary.BigEndian.PutUint64(pad[1+zeros:], n<<3)
	return pad
}

// Forge extends msg by suffix assuming the secret is secretLen bytes.
func Forge(tag, msg, suffix []byte, secretLen int) (*Forgery, error) {
	if len(tag) != sm3.Size {
		return nil, ErrInvalidTag
	}
	if secretLen < 0 {
		return nil, ErrInvalidRange
	}
	prefixLen := uint64(secretLen) + uint64(len(msg))
	glue := MDPad(prefixLen)

	h, ok := sm3.New().(resumable)
	if !ok {
		return nil, errors.New("lenext: sm3 digest cannot restore state")
	}
	state, err := h.MarshalBinary()
	if err != nil {
		return nil, err
	}
	// chaining value = tag, absorbed length = secret || msg || glue,
	// nothing pending
	copy(state[stateOffset:stateOffset+sm3.Size], tag)
	binary.BigEndian.PutUint64(state[len(state)-8:], prefixLen+uint64(len(glue)))
	if err := h.UnmarshalBinary(state); err != nil {
		return nil, fmt.Errorf("lenext: resume from tag: %w", err)
	}
	if _, err := h.Write(suffix); err != nil {
		return nil, err
	}

	forged := make([]byte, 0, len(msg)+len(glue)+len(suffix))
	forged = append(forged, msg...)
	forged = append(forged, glue...)
	forged = append(forged, suffix...)
	return &Forgery{
		Message:   forged,
		Tag:       h.Sum(nil),
		SecretLen: secretLen,
		GlueLen:   len(glue),
	}, nil
}

// Oracle checks tags of the vulnerable construction.
type Oracle interface {
	Verify(msg, tag []byte) bool
}

// Attack tries every secret length in the configured range (1..64 by
// default) and returns the first forgery the oracle accepts.
func Attack(o Oracle, msg, tag, suffix []byte, opts ...Option) (*Forgery, error) {
	cfg := newConfig(opts...)
	if cfg.minLen < 0 || cfg.maxLen < cfg.minLen {
		return nil, fmt.Errorf("%w: %d..%d", ErrInvalidRange, cfg.minLen, cfg.maxLen)
	}

	for n := cfg.minLen; n <= cfg.maxLen; n++ {
		f, err := Forge(tag, msg, suffix, n)
		if err != nil {
			return nil, err
		}
		if o.Verify(f.Message, f.Tag) {
			cfg.logger.Info("forgery accepted", "secret_len", n, "glue_len", f.GlueLen)
			return f, nil
		}
		cfg.logger.Debug("forgery rejected", "secret_len", n)
	}
	return nil, ErrNotFound
}
