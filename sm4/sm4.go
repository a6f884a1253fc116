// Copyright (c) 2022, superwindstorm <fengwd.hc@gmail.com>
// All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

// Package sm4 implements the SM4 block cipher as defined in
// GB/T 32907-2016 (GM/T 0002-2012).
//
// Rounds are evaluated with four precomputed 256-entry tables that merge
// the S-box with the linear transform L. Table lookups are indexed by
// secret data, so this implementation is not constant time.
package sm4

import (
	"errors"
	"strconv"
)

const (
	// BlockSize is the SM4 block size in bytes.
	BlockSize = 16
	// KeySize is the SM4 key size in bytes.
	KeySize = 16
	// Lanes is the number of blocks processed together by Encrypt4.
	Lanes = 4
)

// ErrInvalidLength is returned when a multi-block input is not a whole
// number of blocks or the destination is too short.
var ErrInvalidLength = errors.New("sm4: invalid buffer length")

// KeySizeError is returned by NewCipher for keys that are not KeySize bytes.
type KeySizeError int

func (k KeySizeError) Error() string {
	return "sm4: invalid key size " + strconv.Itoa(int(k))
}

// Cipher is an SM4 instance bound to one key. It implements cipher.Block
// and is safe for concurrent use once created.
type Cipher struct {
	enc [rounds]uint32
	dec [rounds]uint32
}

// NewCipher expands key into encryption and decryption round keys.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, KeySizeError(len(key))
	}
	c := new(Cipher)
	expandKey(key, &c.enc)
	for i, rk := range c.enc {
		c.dec[rounds-1-i] = rk
	}
	return c, nil
}

// RoundKeys returns the 32 encryption round keys rk[0..31].
func (c *Cipher) RoundKeys() [rounds]uint32 { return c.enc }

// BlockSize returns BlockSize.
func (c *Cipher) BlockSize() int { return BlockSize }

// Encrypt encrypts the first block in src into dst.
// Dst and src must overlap entirely or not at all.
func (c *Cipher) Encrypt(dst, src []byte) {
	if len(src) < BlockSize {
		panic("sm4: input not full block")
	}
	if len(dst) < BlockSize {
		panic("sm4: output not full block")
	}
	cryptBlock(&c.enc, dst, src)
}

// Decrypt decrypts the first block in src into dst.
// Dst and src must overlap entirely or not at all.
func (c *Cipher) Decrypt(dst, src []byte) {
	if len(src) < BlockSize {
		panic("sm4: input not full block")
	}
	if len(dst) < BlockSize {
		panic("sm4: output not full block")
	}
	cryptBlock(&c.dec, dst, src)
}

// Encrypt4 encrypts four independent blocks, src[0:64], into dst[0:64].
// The result equals four calls to Encrypt on consecutive blocks.
func (c *Cipher) Encrypt4(dst, src []byte) {
	if len(src) < Lanes*BlockSize {
		panic("sm4: input not four full blocks")
	}
	if len(dst) < Lanes*BlockSize {
		panic("sm4: output not four full blocks")
	}
	crypt4(&c.enc, dst, src)
}

// Decrypt4 is the inverse of Encrypt4.
func (c *Cipher) Decrypt4(dst, src []byte) {
	if len(src) < Lanes*BlockSize {
		panic("sm4: input not four full blocks")
	}
	if len(dst) < Lanes*BlockSize {
		panic("sm4: output not four full blocks")
	}
	crypt4(&c.dec, dst, src)
}

// EncryptBlocks encrypts src into dst block by block (ECB), four blocks
// at a time while at least four remain.
func (c *Cipher) EncryptBlocks(dst, src []byte) error {
	return cryptBlocks(&c.enc, dst, src)
}

// DecryptBlocks is the inverse of EncryptBlocks.
func (c *Cipher) DecryptBlocks(dst, src []byte) error {
	return cryptBlocks(&c.dec, dst, src)
}

func cryptBlocks(rk *[rounds]uint32, dst, src []byte) error {
	if len(src)%BlockSize != 0 || len(dst) < len(src) {
		return ErrInvalidLength
	}
	for len(src) >= Lanes*BlockSize {
		crypt4(rk, dst, src)
		src, dst = src[Lanes*BlockSize:], dst[Lanes*BlockSize:]
	}
	for len(src) > 0 {
		cryptBlock(rk, dst, src)
		src, dst = src[BlockSize:], dst[BlockSize:]
	}
	return nil
}
