/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package secret

// Buffer owns a copy of sensitive bytes and zeroes it on Close. The caller's
// slice is not retained.
type Buffer struct {
	data []byte
}

// NewBuffer copies data into a new buffer.
func NewBuffer(data []byte) *Buffer {
	owned := make([]byte, len(data))
	copy(owned, data)

	return &Buffer{data: owned}
}

// Bytes returns the buffer contents. The slice is invalid after Close.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the buffer length.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Close zeroes the buffer contents and releases them.
func (b *Buffer) Close() error {
	Wipe(b.data)
	b.data = nil

	return nil
}

// Wipe overwrites data with zeros.
func Wipe(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
