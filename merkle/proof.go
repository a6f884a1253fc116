// Copyright (c) 2022, superwindstorm <fengwd.hc@gmail.com>
// All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

package merkle

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// Direction tells on which side of the running hash a sibling sits.
type Direction uint8

const (
	// SiblingRight: the current node is the left child.
	SiblingRight Direction = 0
	// SiblingLeft: the current node is the right child.
	SiblingLeft Direction = 1
)

// maxProofLen bounds decoded proofs; a tree of at most 2^64 leaves is
// 64 levels tall.
const maxProofLen = 64

// ProofStep is one level of an inclusion proof.
type ProofStep struct {
	Sibling Hash
	Dir     Direction
}

// Proof is an inclusion path from a leaf to the root, bottom up.
//
// Encoded form: count (uint32, big endian), then count times
// direction (uint8) followed by the 32-byte sibling hash.
type Proof []ProofStep

// VerifyInclusion reports whether leaf sits at index under root. Each
// step's direction must agree with the matching bit of index and index
// must fit in the proof height, so a proof only verifies at its own index.
func VerifyInclusion(root Hash, leaf []byte, proof Proof, index int) bool {
	if index < 0 || len(proof) > maxProofLen {
		return false
	}
	idx := uint64(index)
	cur := LeafHash(leaf)
	for _, step := range proof {
		switch step.Dir {
		case SiblingRight:
			if idx&1 != 0 {
				return false
			}
			cur = NodeHash(cur, step.Sibling)
		case SiblingLeft:
			if idx&1 != 1 {
				return false
			}
			cur = NodeHash(step.Sibling, cur)
		default:
			return false
		}
		idx >>= 1
	}
	return idx == 0 && cur == root
}

// isRightmost reports whether the path of leaf never has a real right
// sibling, that is, the leaf is the last one of its tree.
func isRightmost(leaf []byte, proof Proof) bool {
	cur := LeafHash(leaf)
	for _, step := range proof {
		if step.Dir == SiblingRight {
			if step.Sibling != cur {
				return false
			}
			cur = NodeHash(cur, step.Sibling)
		} else {
			cur = NodeHash(step.Sibling, cur)
		}
	}
	return true
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p Proof) MarshalBinary() ([]byte, error) {
	b := cryptobyte.NewBuilder(make([]byte, 0, 4+len(p)*(1+HashSize)))
	addProof(b, p)
	return b.Bytes()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *Proof) UnmarshalBinary(data []byte) error {
	s := cryptobyte.String(data)
	proof, err := readProof(&s)
	if err != nil {
		return err
	}
	if !s.Empty() {
		return fmt.Errorf("%w: %d trailing bytes", ErrInvalidProof, len(s))
	}
	*p = proof
	return nil
}

func addProof(b *cryptobyte.Builder, p Proof) {
	b.AddUint32(uint32(len(p)))
	for _, step := range p {
		b.AddUint8(uint8(step.Dir))
		b.AddBytes(step.Sibling[:])
	}
}

func readProof(s *cryptobyte.String) (Proof, error) {
	var n uint32
	if !s.ReadUint32(&n) {
		return nil, fmt.Errorf("%w: missing step count", ErrInvalidProof)
	}
	if n > maxProofLen {
		return nil, fmt.Errorf("%w: %d steps", ErrInvalidProof, n)
	}
	proof := make(Proof, n)
	for i := range proof {
		var dir uint8
		if !s.ReadUint8(&dir) || !s.CopyBytes(proof[i].Sibling[:]) {
			return nil, fmt.Errorf("%w: truncated step %d", ErrInvalidProof, i)
		}
		if Direction(dir) != SiblingRight && Direction(dir) != SiblingLeft {
			return nil, fmt.Errorf("%w: direction %d", ErrInvalidProof, dir)
		}
		proof[i].Dir = Direction(dir)
	}
	return proof, nil
}
