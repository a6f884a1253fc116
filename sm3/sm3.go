// Copyright (c) 2022, superwindstorm <fengwd.hc@gmail.com>
// All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

// Package sm3 implements the sm3 hash algorithms as defined
// in GB/T 32905-2016. SM3 has already been accepted by ISO
// in ISO/IEC 10118-3:2018.
//
// The digest returned by New also implements encoding.BinaryMarshaler
// and encoding.BinaryUnmarshaler to save and restore its internal state.
package sm3

import (
	"encoding/binary"
	"errors"
	"hash"
)

// ErrTooLong is returned by Write when the total input would exceed
// 2^64-1 bits, the largest length the padding can encode.
var ErrTooLong = errors.New("sm3: message length exceeds 2^64-1 bits")

// maxLen is the largest byte count whose bit length fits in 64 bits.
const maxLen = (1<<64 - 1) >> 3

type digest struct {
	h   [8]uint32
	x   [chunk]byte
	nx  int
	len uint64
}

// New returns a new hash.Hash computing the SM3 checksum.
func New() hash.Hash {
	d := new(digest)
	d.Reset()
	return d
}

// Reset reset the states
func (d *digest) Reset() {
	d.h[0] = init0
	d.h[1] = init1
	d.h[2] = init2
	d.h[3] = init3
	d.h[4] = init4
	d.h[5] = init5
	d.h[6] = init6
	d.h[7] = init7
	d.nx = 0
	d.len = 0
}

// Size returns the size of hash digest
func (d *digest) Size() int { return Size }

// BlockSize return the bytes of one block
func (d *digest) BlockSize() int { return BlockSize }

// Write absorbs p. It fails only with ErrTooLong, in which case
// nothing is absorbed.
func (d *digest) Write(p []byte) (nn int, err error) {
	if uint64(len(p)) > maxLen-d.len {
		return 0, ErrTooLong
	}
	nn = len(p)
	d.len += uint64(nn)
	if d.nx > 0 {
		n := copy(d.x[d.nx:], p)
		d.nx += n
		if d.nx == chunk {
			block(d, d.x[:])
			d.nx = 0
		}
		p = p[n:]
	}

	if len(p) >= chunk {
		n := len(p) &^ (chunk - 1)
		block(d, p[:n])
		p = p[n:]
	}
	if len(p) > 0 {
		d.nx = copy(d.x[:], p)
	}
	return
}

// Sum returns the digest in bytes. The intenal states remain the same
func (d *digest) Sum(in []byte) []byte {
	// checkSum will change intenal states, so make a copy
	d0 := *d
	hash := d0.checkSum()
	return append(in, hash[:]...)
}

// Sum returns the SM3 checksum of the concatenation of data.
func Sum(data ...[]byte) [Size]byte {
	var d digest
	d.Reset()
	for _, x := range data {
		d.Write(x)
	}
	return d.checkSum()
}

const (
	magic         = "sm3\x03"
	marshaledSize = len(magic) + 8*4 + chunk + 8
)

// MarshalBinary encodes the state as
// magic || h[0..7] (big endian) || pending block (zero padded) || byte length.
func (d *digest) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, marshaledSize)
	b = append(b, magic...)
	for _, s := range d.h {
		b = binary.BigEndian.AppendUint32(b, s)
	}
	b = append(b, d.x[:d.nx]...)
	b = b[:len(b)+len(d.x)-d.nx] // already zero
	b = binary.BigEndian.AppendUint64(b, d.len)
	return b, nil
}

// UnmarshalBinary restores a state produced by MarshalBinary. The
// number of pending bytes is derived from the length field.
func (d *digest) UnmarshalBinary(b []byte) error {
	if len(b) < len(magic) || string(b[:len(magic)]) != magic {
		return errors.New("sm3: invalid hash state identifier")
	}
	if len(b) != marshaledSize {
		return errors.New("sm3: invalid hash state size")
	}
	b = b[len(magic):]
	for i := range d.h {
		d.h[i] = binary.BigEndian.Uint32(b)
		b = b[4:]
	}
	b = b[copy(d.x[:], b):]
	length := binary.BigEndian.Uint64(b)
	if length > maxLen {
		return ErrTooLong
	}
	d.len = length
	d.nx = int(d.len % chunk)
	return nil
}
