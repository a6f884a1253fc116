// Copyright (c) 2022, superwindstorm <fengwd.hc@gmail.com>
// All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

package sm4

import (
	"encoding/binary"
	"math/bits"
)

// T-tables: tk[i] = L(sbox[i]) <<< (24 - 8k). Since L commutes with
// rotation, T(x) is the XOR of one lookup per byte of x.
// Built once in init and read-only afterwards.
var t0, t1, t2, t3 [256]uint32

func init() {
	for i := range sbox {
		v := l(uint32(sbox[i]))
		t0[i] = bits.RotateLeft32(v, 24)
		t1[i] = bits.RotateLeft32(v, 16)
		t2[i] = bits.RotateLeft32(v, 8)
		t3[i] = v
	}
}

// tt is the table-driven round transform, equal to roundT(x).
func tt(x uint32) uint32 {
	return t0[x>>24] ^ t1[x>>16&0xff] ^ t2[x>>8&0xff] ^ t3[x&0xff]
}

// cryptBlock runs the 32 rounds over one block. Passing the reversed
// round keys decrypts.
func cryptBlock(rk *[rounds]uint32, dst, src []byte) {
	_ = src[BlockSize-1]
	x0 := binary.BigEndian.Uint32(src[0:4])
	x1 := binary.BigEndian.Uint32(src[4:8])
	x2 := binary.BigEndian.Uint32(src[8:12])
	x3 := binary.BigEndian.Uint32(src[12:16])

	for i := 0; i < rounds; i += 4 {
		x0 ^= tt(x1 ^ x2 ^ x3 ^ rk[i])
		x1 ^= tt(x2 ^ x3 ^ x0 ^ rk[i+1])
		x2 ^= tt(x3 ^ x0 ^ x1 ^ rk[i+2])
		x3 ^= tt(x0 ^ x1 ^ x2 ^ rk[i+3])
	}

	// R: output (X35, X34, X33, X32)
	_ = dst[BlockSize-1]
	binary.BigEndian.PutUint32(dst[0:4], x3)
	binary.BigEndian.PutUint32(dst[4:8], x2)
	binary.BigEndian.PutUint32(dst[8:12], x1)
	binary.BigEndian.PutUint32(dst[12:16], x0)
}
