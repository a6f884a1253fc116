// Copyright (c) 2022, superwindstorm <fengwd.hc@gmail.com>
// All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

// Command smdemo exercises the sm3, sm4, merkle and lenext packages.
//
//	smdemo sm3 [-v] [message...]
//	smdemo sm4 [-v] [-key hex] [-n blocks]
//	smdemo merkle [-v] [-n leaves]
//	smdemo lenext [-v] [-secret n] [-min n] [-max n]
package main

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/superwindstorm/smkit/internal/logx"
	"github.com/superwindstorm/smkit/lenext"
	"github.com/superwindstorm/smkit/merkle"
	"github.com/superwindstorm/smkit/sm3"
	"github.com/superwindstorm/smkit/sm4"
)

const usage = "usage: smdemo sm3|sm4|merkle|lenext [flags]"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "sm3":
		err = runSM3(os.Stdout, args)
	case "sm4":
		err = runSM4(os.Stdout, args)
	case "merkle":
		err = runMerkle(os.Stdout, args)
	case "lenext":
		err = runLenext(os.Stdout, args)
	default:
		err = fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "smdemo:", err)
		os.Exit(1)
	}
}

func newFlagSet(name string) (*flag.FlagSet, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return fs, fs.Bool("v", false, "log debug records to stderr")
}

func newLogger(verbose bool) *slog.Logger {
	lvl := slog.LevelInfo
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(logx.New(os.Stderr, logx.WithLevel(lvl)))
}

func runSM3(w io.Writer, args []string) error {
	fs, verbose := newFlagSet("sm3")
	if err := fs.Parse(args); err != nil {
		return err
	}
	log := newLogger(*verbose)

	msgs := fs.Args()
	if len(msgs) == 0 {
		msgs = []string{"abc", strings.Repeat("abcd", 16)}
	}
	for _, m := range msgs {
		sum := sm3.Sum([]byte(m))
		log.Debug("digest", "len", len(m))
		fmt.Fprintf(w, "SM3(%q) = %x\n", m, sum)
	}
	return nil
}

func runSM4(w io.Writer, args []string) error {
	fs, verbose := newFlagSet("sm4")
	keyHex := fs.String("key", "0123456789abcdeffedcba9876543210", "128-bit key in hex")
	n := fs.Int("n", 1<<16, "number of blocks for the throughput run")
	if err := fs.Parse(args); err != nil {
		return err
	}
	log := newLogger(*verbose)

	key, err := hex.DecodeString(*keyHex)
	if err != nil {
		return fmt.Errorf("decode key: %w", err)
	}
	c, err := sm4.NewCipher(key)
	if err != nil {
		return err
	}

	ct := make([]byte, sm4.BlockSize)
	pt := make([]byte, sm4.BlockSize)
	c.Encrypt(ct, key)
	c.Decrypt(pt, ct)
	fmt.Fprintf(w, "plaintext  %x\nciphertext %x\ndecrypted  %x\n", key, ct, pt)
	if !bytes.Equal(pt, key) {
		return errors.New("sm4 round trip mismatch")
	}

	if *n <= 0 {
		return nil
	}
	buf := make([]byte, *n*sm4.BlockSize)
	if _, err := rand.Read(buf); err != nil {
		return err
	}
	orig := append([]byte(nil), buf...)
	start := time.Now()
	if err := c.EncryptBlocks(buf, buf); err != nil {
		return err
	}
	elapsed := time.Since(start)
	if err := c.DecryptBlocks(buf, buf); err != nil {
		return err
	}
	if !bytes.Equal(buf, orig) {
		return errors.New("sm4 bulk round trip mismatch")
	}
	mbps := float64(len(buf)) / elapsed.Seconds() / (1 << 20)
	log.Info("bulk encrypt", "blocks", *n, "elapsed", elapsed)
	fmt.Fprintf(w, "encrypted %d blocks in %s (%.1f MiB/s)\n", *n, elapsed, mbps)
	return nil
}

func runMerkle(w io.Writer, args []string) error {
	fs, verbose := newFlagSet("merkle")
	n := fs.Int("n", 100000, "number of leaves")
	if err := fs.Parse(args); err != nil {
		return err
	}
	log := newLogger(*verbose)
	if *n <= 0 {
		return merkle.ErrEmptyTree
	}

	leaves := make([][]byte, *n)
	for i := range leaves {
		leaves[i] = []byte(fmt.Sprintf("leaf-%08d", i))
	}
	start := time.Now()
	tree, err := merkle.Build(leaves)
	if err != nil {
		return err
	}
	log.Info("tree built", "leaves", tree.Size(), "height", tree.Height(), "elapsed", time.Since(start))
	root := tree.Root()
	fmt.Fprintf(w, "root %x\n", root[:])

	r, err := rand.Int(rand.Reader, big.NewInt(int64(*n)))
	if err != nil {
		return err
	}
	idx := int(r.Int64())
	proof, err := tree.InclusionProof(idx)
	if err != nil {
		return err
	}
	ok := merkle.VerifyInclusion(root, leaves[idx], proof, idx)
	fmt.Fprintf(w, "inclusion of %s (index %d, %d steps): %v\n", leaves[idx], idx, len(proof), ok)

	target := []byte("leaf-99999999")
	nm, err := tree.NonMembershipProof(leaves, target)
	if err != nil {
		return err
	}
	if nm.Found {
		fmt.Fprintf(w, "%s is present at index %d\n", target, nm.Index)
		return nil
	}
	ok = merkle.VerifyNonMembership(root, target, nm)
	enc, err := nm.MarshalBinary()
	if err != nil {
		return err
	}
	log.Debug("non-membership proof", "bytes", len(enc))
	fmt.Fprintf(w, "non-membership of %s: %v\n", target, ok)
	return nil
}

func runLenext(w io.Writer, args []string) error {
	fs, verbose := newFlagSet("lenext")
	secretLen := fs.Int("secret", 0, "secret length (0 picks 8..32 at random)")
	lo := fs.Int("min", lenext.DefaultMinSecretLen, "smallest secret length to try")
	hi := fs.Int("max", lenext.DefaultMaxSecretLen, "largest secret length to try")
	if err := fs.Parse(args); err != nil {
		return err
	}
	log := newLogger(*verbose)

	if *secretLen <= 0 {
		r, err := rand.Int(rand.Reader, big.NewInt(25))
		if err != nil {
			return err
		}
		*secretLen = 8 + int(r.Int64())
	}
	mac, err := lenext.RandomSecretPrefixMAC(*secretLen)
	if err != nil {
		return err
	}

	msg := []byte("comment=10&uid=1001&role=user")
	suffix := []byte("&role=admin")
	tag := mac.Tag(msg)
	fmt.Fprintf(w, "message %q\ntag     %x\n", msg, tag)

	f, err := lenext.Attack(mac, msg, tag, suffix,
		lenext.WithSecretLenRange(*lo, *hi), lenext.WithLogger(log))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "forged  %x\ntag     %x\nsecret length %d (actual %d), accepted: %v\n",
		f.Message, f.Tag, f.SecretLen, mac.SecretLen(), mac.Verify(f.Message, f.Tag))
	return nil
}
