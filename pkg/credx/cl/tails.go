/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cl

// TailSize is the serialized size of one tail entry in bytes.
const TailSize = 128

// TailsVersion is the two-byte version prefix written ahead of the tail
// entries and included in the tails file content hash.
var TailsVersion = [2]byte{0, 2}

// TailsGenerator streams the tail entries of a freshly created registry.
type TailsGenerator interface {
	// Count returns the total number of tail entries.
	Count() uint32
	// Next returns the next TailSize-byte entry, or io.EOF when exhausted.
	Next() ([]byte, error)
}

// TailsAccessor provides random access to stored tail entries.
type TailsAccessor interface {
	// AccessTail returns the TailSize-byte entry at idx.
	AccessTail(idx uint32) ([]byte, error)
}
