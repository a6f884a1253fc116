// Copyright (c) 2022, superwindstorm <fengwd.hc@gmail.com>
// All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

// Package merkle builds binary SM3 hash trees with RFC 6962 style domain
// separation: leaves hash as SM3(0x00 || leaf) and interior nodes as
// SM3(0x01 || left || right). A level with an odd number of nodes pairs
// its last node with itself.
//
// Trees over sorted leaves additionally support non-membership proofs
// built from the inclusion proofs of the two neighbors of the absent value.
package merkle

import (
	"errors"

	"github.com/superwindstorm/smkit/sm3"
)

// HashSize is the size of every node hash.
const HashSize = sm3.Size

const (
	leafPrefix = 0x00
	nodePrefix = 0x01
)

var (
	ErrEmptyTree       = errors.New("merkle: tree has no leaves")
	ErrIndexOutOfRange = errors.New("merkle: index out of range")
	ErrUnsortedLeaves  = errors.New("merkle: leaves are not sorted")
	ErrLeavesMismatch  = errors.New("merkle: leaves do not match the tree")
	ErrInvalidProof    = errors.New("merkle: malformed proof encoding")
)

// Hash is a node hash.
type Hash [HashSize]byte

// LeafHash returns SM3(0x00 || leaf).
func LeafHash(leaf []byte) Hash {
	return Hash(sm3.Sum([]byte{leafPrefix}, leaf))
}

// NodeHash returns SM3(0x01 || left || right).
func NodeHash(left, right Hash) Hash {
	return Hash(sm3.Sum([]byte{nodePrefix}, left[:], right[:]))
}

// Tree keeps every level of the tree, leaf hashes first.
// Level i+1 has ceil(len(level i)/2) nodes and the last level has one.
type Tree struct {
	levels [][]Hash
}

// Build hashes leaves in order and folds them up to the root.
func Build(leaves [][]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	level := make([]Hash, len(leaves))
	for i, leaf := range leaves {
		level[i] = LeafHash(leaf)
	}

	t := &Tree{levels: [][]Hash{level}}
	for len(level) > 1 {
		next := make([]Hash, (len(level)+1)/2)
		for i := range next {
			left := level[2*i]
			right := left
			if 2*i+1 < len(level) {
				right = level[2*i+1]
			}
			next[i] = NodeHash(left, right)
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t, nil
}

// Root returns the single hash of the top level.
func (t *Tree) Root() Hash {
	return t.levels[len(t.levels)-1][0]
}

// Size returns the number of leaves.
func (t *Tree) Size() int { return len(t.levels[0]) }

// Height returns the number of levels above the leaves, which is also
// the length of every inclusion proof.
func (t *Tree) Height() int { return len(t.levels) - 1 }

// Level returns a copy of level i, 0 being the leaf hashes.
func (t *Tree) Level(i int) ([]Hash, error) {
	if i < 0 || i >= len(t.levels) {
		return nil, ErrIndexOutOfRange
	}
	return append([]Hash(nil), t.levels[i]...), nil
}

// InclusionProof returns the sibling path of leaf index, bottom up.
func (t *Tree) InclusionProof(index int) (Proof, error) {
	if index < 0 || index >= t.Size() {
		return nil, ErrIndexOutOfRange
	}
	proof := make(Proof, 0, t.Height())
	for _, level := range t.levels[:t.Height()] {
		var step ProofStep
		switch {
		case index%2 == 1:
			step = ProofStep{Sibling: level[index-1], Dir: SiblingLeft}
		case index+1 < len(level):
			step = ProofStep{Sibling: level[index+1], Dir: SiblingRight}
		default:
			// odd tail, paired with itself
			step = ProofStep{Sibling: level[index], Dir: SiblingRight}
		}
		proof = append(proof, step)
		index /= 2
	}
	return proof, nil
}
