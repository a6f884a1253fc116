// Copyright (c) 2022, superwindstorm <fengwd.hc@gmail.com>
// All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

package sm4

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/rand"
	"testing"

	emsm4 "github.com/emmansun/gmsm/sm4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tjsm4 "github.com/tjfoc/gmsm/sm4"
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

var (
	stdKey    = mustHex("0123456789abcdeffedcba9876543210")
	stdCipher = mustHex("681edf34d206965e86b3e94f536e4246")
)

func randBytes(r *rand.Rand, n int) []byte {
	b := make([]byte, n)
	r.Read(b)
	return b
}

func TestStandardVector(t *testing.T) {
	c, err := NewCipher(stdKey)
	require.NoError(t, err)

	out := make([]byte, BlockSize)
	c.Encrypt(out, stdKey)
	assert.Equal(t, stdCipher, out)

	c.Decrypt(out, out)
	assert.Equal(t, stdKey, out)
}

func TestKeySchedule(t *testing.T) {
	c, err := NewCipher(stdKey)
	require.NoError(t, err)
	rk := c.RoundKeys()
	assert.Equal(t, uint32(0xf12186f9), rk[0])
	assert.Equal(t, uint32(0x9124a012), rk[31])
	for i := range rk {
		assert.Equal(t, rk[i], c.dec[rounds-1-i])
	}
}

func TestMillionEncryptions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping 1,000,000 iterations in short mode")
	}
	c, err := NewCipher(stdKey)
	require.NoError(t, err)
	buf := append([]byte(nil), stdKey...)
	for i := 0; i < 1000000; i++ {
		c.Encrypt(buf, buf)
	}
	assert.Equal(t, mustHex("595298c7c6fd271f0402f804c33d3f66"), buf)
}

func TestZeroRoundTrip(t *testing.T) {
	c, err := NewCipher(make([]byte, KeySize))
	require.NoError(t, err)

	pt := make([]byte, BlockSize)
	ct := make([]byte, BlockSize)
	c.Encrypt(ct, pt)
	assert.NotEqual(t, pt, ct)

	back := make([]byte, BlockSize)
	c.Decrypt(back, ct)
	assert.Equal(t, pt, back)
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		c, err := NewCipher(randBytes(r, KeySize))
		require.NoError(t, err)
		pt := randBytes(r, BlockSize)
		ct := make([]byte, BlockSize)
		c.Encrypt(ct, pt)
		c.Decrypt(ct, ct)
		require.Equal(t, pt, ct)
	}
}

func TestTTable(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 256; i++ {
		b := uint32(i)
		for _, x := range []uint32{b, b << 8, b << 16, b << 24, r.Uint32()} {
			require.Equal(t, roundT(x), tt(x), "x = %08x", x)
		}
	}
}

func TestCrypt4MatchesSingle(t *testing.T) {
	c, err := NewCipher(stdKey)
	require.NoError(t, err)

	src := bytes.Join([][]byte{
		stdKey,
		mustHex("00112233445566778899aabbccddeeff"),
		mustHex("0f1e2d3c4b5a69788796a5b4c3d2e1f0"),
		mustHex("ffeeddccbbaa99887766554433221100"),
	}, nil)

	want := make([]byte, len(src))
	for i := 0; i < Lanes; i++ {
		c.Encrypt(want[i*BlockSize:], src[i*BlockSize:])
	}
	assert.Equal(t, stdCipher, want[:BlockSize])

	for name, f := range map[string]func(*[rounds]uint32, []byte, []byte){
		"lanes":  crypt4Lanes,
		"serial": crypt4Serial,
	} {
		got := make([]byte, len(src))
		f(&c.enc, got, src)
		assert.Equal(t, want, got, name)

		f(&c.dec, got, got)
		assert.Equal(t, src, got, name)
	}

	got := make([]byte, len(src))
	c.Encrypt4(got, src)
	assert.Equal(t, want, got)
	c.Decrypt4(got, got)
	assert.Equal(t, src, got)
}

func TestCrypt4Random(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		c, err := NewCipher(randBytes(r, KeySize))
		require.NoError(t, err)
		src := randBytes(r, Lanes*BlockSize)

		want := make([]byte, len(src))
		for b := 0; b < Lanes; b++ {
			c.Encrypt(want[b*BlockSize:], src[b*BlockSize:])
		}
		got := make([]byte, len(src))
		crypt4Lanes(&c.enc, got, src)
		require.Equal(t, want, got)
	}
}

func TestEncryptBlocks(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	c, err := NewCipher(randBytes(r, KeySize))
	require.NoError(t, err)

	for _, n := range []int{0, 1, 3, 4, 5, 8, 11} {
		src := randBytes(r, n*BlockSize)
		want := make([]byte, len(src))
		for b := 0; b < n; b++ {
			c.Encrypt(want[b*BlockSize:], src[b*BlockSize:])
		}

		got := make([]byte, len(src))
		require.NoError(t, c.EncryptBlocks(got, src))
		assert.Equal(t, want, got, "%d blocks", n)

		require.NoError(t, c.DecryptBlocks(got, got))
		assert.Equal(t, src, got, "%d blocks", n)
	}

	assert.True(t, errors.Is(c.EncryptBlocks(make([]byte, 32), make([]byte, 17)), ErrInvalidLength))
	assert.True(t, errors.Is(c.DecryptBlocks(make([]byte, 16), make([]byte, 32)), ErrInvalidLength))
}

func TestNewCipherKeySize(t *testing.T) {
	for _, n := range []int{0, 15, 17, 32} {
		_, err := NewCipher(make([]byte, n))
		var kse KeySizeError
		require.True(t, errors.As(err, &kse))
		assert.Equal(t, KeySizeError(n), kse)
	}
}

func TestShortBlocksPanic(t *testing.T) {
	c, err := NewCipher(stdKey)
	require.NoError(t, err)
	assert.Panics(t, func() { c.Encrypt(make([]byte, 16), make([]byte, 15)) })
	assert.Panics(t, func() { c.Decrypt(make([]byte, 15), make([]byte, 16)) })
	assert.Panics(t, func() { c.Encrypt4(make([]byte, 64), make([]byte, 48)) })
	assert.Panics(t, func() { c.Decrypt4(make([]byte, 63), make([]byte, 64)) })
}

func TestReferenceImplementations(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	for i := 0; i < 50; i++ {
		key := randBytes(r, KeySize)
		pt := randBytes(r, BlockSize)

		c, err := NewCipher(key)
		require.NoError(t, err)
		want := make([]byte, BlockSize)
		c.Encrypt(want, pt)

		em, err := emsm4.NewCipher(key)
		require.NoError(t, err)
		got := make([]byte, BlockSize)
		em.Encrypt(got, pt)
		require.Equal(t, want, got, "emmansun")

		tj, err := tjsm4.NewCipher(key)
		require.NoError(t, err)
		tj.Encrypt(got, pt)
		require.Equal(t, want, got, "tjfoc")
	}
}

func BenchmarkEncrypt(b *testing.B) {
	c, _ := NewCipher(stdKey)
	buf := make([]byte, BlockSize)
	b.SetBytes(BlockSize)
	for i := 0; i < b.N; i++ {
		c.Encrypt(buf, buf)
	}
}

func benchmark4(b *testing.B, f func(*[rounds]uint32, []byte, []byte)) {
	c, _ := NewCipher(stdKey)
	buf := make([]byte, Lanes*BlockSize)
	b.SetBytes(Lanes * BlockSize)
	for i := 0; i < b.N; i++ {
		f(&c.enc, buf, buf)
	}
}

func BenchmarkEncrypt4Lanes(b *testing.B)  { benchmark4(b, crypt4Lanes) }
func BenchmarkEncrypt4Serial(b *testing.B) { benchmark4(b, crypt4Serial) }
