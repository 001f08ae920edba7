/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mockcl

import (
	"crypto/sha256"
	"io"
	"strconv"

	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
)

// tailsGenerator streams deterministic tail entries derived from the
// registry private key. Entry count follows the accumulator convention of
// two tails per credential plus the two generator points.
type tailsGenerator struct {
	seed  string
	count uint32
	next  uint32
}

func newTailsGenerator(seed string, maxCredNum uint32) *tailsGenerator {
	return &tailsGenerator{seed: seed, count: 2*maxCredNum + 2}
}

func (g *tailsGenerator) Count() uint32 {
	return g.count
}

func (g *tailsGenerator) Next() ([]byte, error) {
	if g.next >= g.count {
		return nil, io.EOF
	}

	tail := make([]byte, 0, cl.TailSize)
	block := sha256.Sum256([]byte(g.seed + ":" + strconv.FormatUint(uint64(g.next), 10)))

	for len(tail) < cl.TailSize {
		tail = append(tail, block[:]...)
		block = sha256.Sum256(block[:])
	}

	g.next++

	return tail[:cl.TailSize], nil
}
