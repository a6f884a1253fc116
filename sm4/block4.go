// Copyright (c) 2022, superwindstorm <fengwd.hc@gmail.com>
// All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

package sm4

import (
	"encoding/binary"

	"golang.org/x/sys/cpu"
)

// lanes holds one state word for each of the four blocks, so a vector
// unit can fold all four lanes with a single XOR.
type lanes [Lanes]uint32

// Wide vector units make the interleaved round order pay off: the four
// dependency chains overlap. Without them the serial order is as fast.
var useLanes = cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD

var crypt4 func(rk *[rounds]uint32, dst, src []byte)

func init() {
	if useLanes {
		crypt4 = crypt4Lanes
	} else {
		crypt4 = crypt4Serial
	}
}

func crypt4Serial(rk *[rounds]uint32, dst, src []byte) {
	for i := 0; i < Lanes; i++ {
		cryptBlock(rk, dst[i*BlockSize:], src[i*BlockSize:])
	}
}

// load transposes four blocks into lane-major words: x[w][b] is word w
// of block b.
func load(src []byte) (x [4]lanes) {
	_ = src[Lanes*BlockSize-1]
	for b := 0; b < Lanes; b++ {
		blk := src[b*BlockSize:]
		x[0][b] = binary.BigEndian.Uint32(blk[0:4])
		x[1][b] = binary.BigEndian.Uint32(blk[4:8])
		x[2][b] = binary.BigEndian.Uint32(blk[8:12])
		x[3][b] = binary.BigEndian.Uint32(blk[12:16])
	}
	return
}

func store(dst []byte, x *[4]lanes) {
	_ = dst[Lanes*BlockSize-1]
	for b := 0; b < Lanes; b++ {
		blk := dst[b*BlockSize:]
		binary.BigEndian.PutUint32(blk[0:4], x[3][b])
		binary.BigEndian.PutUint32(blk[4:8], x[2][b])
		binary.BigEndian.PutUint32(blk[8:12], x[1][b])
		binary.BigEndian.PutUint32(blk[12:16], x[0][b])
	}
}

// round updates x0 ^= T(x1 ^ x2 ^ x3 ^ rk) in every lane. The XOR fold
// is lane-parallel; the table lookups stay scalar per lane.
func round(x0, x1, x2, x3 *lanes, rk uint32) {
	var tmp lanes
	for b := range tmp {
		tmp[b] = x1[b] ^ x2[b] ^ x3[b] ^ rk
	}
	x0[0] ^= tt(tmp[0])
	x0[1] ^= tt(tmp[1])
	x0[2] ^= tt(tmp[2])
	x0[3] ^= tt(tmp[3])
}

// crypt4Lanes runs the rounds of four blocks in lockstep.
func crypt4Lanes(rk *[rounds]uint32, dst, src []byte) {
	x := load(src)
	for i := 0; i < rounds; i += 4 {
		round(&x[0], &x[1], &x[2], &x[3], rk[i])
		round(&x[1], &x[2], &x[3], &x[0], rk[i+1])
		round(&x[2], &x[3], &x[0], &x[1], rk[i+2])
		round(&x[3], &x[0], &x[1], &x[2], rk[i+3])
	}
	store(dst, &x)
}
