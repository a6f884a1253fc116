// Copyright (c) 2022, superwindstorm <fengwd.hc@gmail.com>
// All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

package merkle

import (
	"bytes"
	"fmt"
	"math"
	"slices"

	"golang.org/x/crypto/cryptobyte"
)

// Neighbor is a leaf adjacent to an absent value, with its inclusion proof.
type Neighbor struct {
	Leaf  []byte
	Index int
	Proof Proof
}

// NonMembershipProof is either Found (Index holds the position of the
// value) or absent, with Left and/or Right set to the neighbors that
// bracket the value in sorted order.
type NonMembershipProof struct {
	Found bool
	Index int
	Left  *Neighbor
	Right *Neighbor
}

// NonMembershipProof locates target among leaves, the sorted values the
// tree was built from. Leaves are ordered by bytes.Compare: byte-wise,
// and a proper prefix sorts before any longer value.
func (t *Tree) NonMembershipProof(leaves [][]byte, target []byte) (*NonMembershipProof, error) {
	if len(leaves) != t.Size() {
		return nil, fmt.Errorf("%w: %d leaves for a tree of %d", ErrLeavesMismatch, len(leaves), t.Size())
	}
	if !slices.IsSortedFunc(leaves, bytes.Compare) {
		return nil, ErrUnsortedLeaves
	}

	pos, found := slices.BinarySearchFunc(leaves, target, bytes.Compare)
	if found {
		return &NonMembershipProof{Found: true, Index: pos}, nil
	}

	p := new(NonMembershipProof)
	var err error
	if pos > 0 {
		if p.Left, err = t.neighbor(leaves, pos-1); err != nil {
			return nil, err
		}
	}
	if pos < len(leaves) {
		if p.Right, err = t.neighbor(leaves, pos); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (t *Tree) neighbor(leaves [][]byte, index int) (*Neighbor, error) {
	if LeafHash(leaves[index]) != t.levels[0][index] {
		return nil, fmt.Errorf("%w: leaf %d", ErrLeavesMismatch, index)
	}
	proof, err := t.InclusionProof(index)
	if err != nil {
		return nil, err
	}
	return &Neighbor{
		Leaf:  append([]byte(nil), leaves[index]...),
		Index: index,
		Proof: proof,
	}, nil
}

// VerifyNonMembership reports whether p proves that target is not a
// leaf of the sorted tree with the given root: every neighbor proof
// verifies, left < target < right, and the neighbors are adjacent. A
// lone right neighbor must be leaf 0 and a lone left neighbor must be
// the last leaf.
func VerifyNonMembership(root Hash, target []byte, p *NonMembershipProof) bool {
	if p == nil || p.Found {
		return false
	}
	l, r := p.Left, p.Right
	if l == nil && r == nil {
		return false
	}
	if l != nil {
		if bytes.Compare(l.Leaf, target) >= 0 || !VerifyInclusion(root, l.Leaf, l.Proof, l.Index) {
			return false
		}
	}
	if r != nil {
		if bytes.Compare(r.Leaf, target) <= 0 || !VerifyInclusion(root, r.Leaf, r.Proof, r.Index) {
			return false
		}
	}
	switch {
	case l != nil && r != nil:
		return l.Index < math.MaxInt && r.Index == l.Index+1
	case l == nil:
		return r.Index == 0
	default:
		return isRightmost(l.Leaf, l.Proof)
	}
}

const (
	tagFound  = 0
	tagAbsent = 1

	hasLeft  = 1 << 0
	hasRight = 1 << 1
)

// MarshalBinary encodes the proof as a tag byte, then either the found
// index (uint64) or a presence byte followed by each neighbor as
// index (uint64), leaf (uint32 length prefixed) and its Proof encoding.
func (p *NonMembershipProof) MarshalBinary() ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	if p.Found {
		b.AddUint8(tagFound)
		b.AddUint64(uint64(p.Index))
		return b.Bytes()
	}
	b.AddUint8(tagAbsent)
	var present uint8
	if p.Left != nil {
		present |= hasLeft
	}
	if p.Right != nil {
		present |= hasRight
	}
	b.AddUint8(present)
	for _, n := range []*Neighbor{p.Left, p.Right} {
		if n == nil {
			continue
		}
		b.AddUint64(uint64(n.Index))
		b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
			b.AddBytes(n.Leaf)
		})
		addProof(b, n.Proof)
	}
	return b.Bytes()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *NonMembershipProof) UnmarshalBinary(data []byte) error {
	s := cryptobyte.String(data)
	var tag uint8
	if !s.ReadUint8(&tag) {
		return fmt.Errorf("%w: empty", ErrInvalidProof)
	}

	var out NonMembershipProof
	switch tag {
	case tagFound:
		index, err := readIndex(&s)
		if err != nil {
			return err
		}
		out = NonMembershipProof{Found: true, Index: index}
	case tagAbsent:
		var present uint8
		if !s.ReadUint8(&present) || present == 0 || present&^(hasLeft|hasRight) != 0 {
			return fmt.Errorf("%w: bad neighbor flags", ErrInvalidProof)
		}
		var err error
		if present&hasLeft != 0 {
			if out.Left, err = readNeighbor(&s); err != nil {
				return err
			}
		}
		if present&hasRight != 0 {
			if out.Right, err = readNeighbor(&s); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: tag %d", ErrInvalidProof, tag)
	}
	if !s.Empty() {
		return fmt.Errorf("%w: %d trailing bytes", ErrInvalidProof, len(s))
	}
	*p = out
	return nil
}

func readIndex(s *cryptobyte.String) (int, error) {
	var v uint64
	if !s.ReadUint64(&v) || v > math.MaxInt {
		return 0, fmt.Errorf("%w: bad index", ErrInvalidProof)
	}
	return int(v), nil
}

func readNeighbor(s *cryptobyte.String) (*Neighbor, error) {
	index, err := readIndex(s)
	if err != nil {
		return nil, err
	}
	var n uint32
	var leaf []byte
	if !s.ReadUint32(&n) || !s.ReadBytes(&leaf, int(n)) {
		return nil, fmt.Errorf("%w: truncated leaf", ErrInvalidProof)
	}
	proof, err := readProof(s)
	if err != nil {
		return nil, err
	}
	return &Neighbor{
		Leaf:  append([]byte{}, leaf...),
		Index: index,
		Proof: proof,
	}, nil
}
