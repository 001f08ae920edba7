/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package tails stores revocation registry tails files. A tails file is a
// two-byte version prefix followed by fixed-size tail entries; its name is
// the base58 SHA-256 of its full content, making files immutable once
// written.
package tails

import (
	"crypto/sha256"
	"io"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcutil/base58"
	"github.com/google/uuid"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
)

// Writer persists the tails of a new registry and reports where.
type Writer interface {
	// Write streams all entries of gen and returns the file location and
	// its base58 content hash.
	Write(gen cl.TailsGenerator) (location, hash string, err error)
}

// FileWriter writes tails files under a root directory.
type FileWriter struct {
	rootPath string
}

// NewFileWriter returns a writer rooted at rootPath, or the system temp
// directory when rootPath is empty.
func NewFileWriter(rootPath string) *FileWriter {
	if rootPath == "" {
		rootPath = filepath.Join(os.TempDir(), "tails")
	}

	return &FileWriter{rootPath: rootPath}
}

// Write streams the generator into a temp file while hashing, then renames
// the file to its content hash. An existing file with the same hash is an
// error: tails files are never overwritten.
func (w *FileWriter) Write(gen cl.TailsGenerator) (string, string, error) {
	if err := os.MkdirAll(w.rootPath, 0o700); err != nil {
		return "", "", cerrors.WithCause(cerrors.IOError, err, "create tails directory")
	}

	tmpPath := filepath.Join(w.rootPath, uuid.New().String()+".tmp")

	file, err := os.Create(tmpPath)
	if err != nil {
		return "", "", cerrors.WithCause(cerrors.IOError, err, "create tails file")
	}

	hash, err := w.writeEntries(file, gen)

	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = cerrors.WithCause(cerrors.IOError, closeErr, "close tails file")
	}

	if err != nil {
		_ = os.Remove(tmpPath)

		return "", "", err
	}

	location := filepath.Join(w.rootPath, hash)

	if _, err := os.Stat(location); err == nil {
		_ = os.Remove(tmpPath)

		return "", "", cerrors.Newf(cerrors.IOError, "tails file %q already exists", location)
	}

	if err := os.Rename(tmpPath, location); err != nil {
		_ = os.Remove(tmpPath)

		return "", "", cerrors.WithCause(cerrors.IOError, err, "rename tails file")
	}

	return location, hash, nil
}

func (w *FileWriter) writeEntries(file *os.File, gen cl.TailsGenerator) (string, error) {
	hasher := sha256.New()
	out := io.MultiWriter(file, hasher)

	if _, err := out.Write(cl.TailsVersion[:]); err != nil {
		return "", cerrors.WithCause(cerrors.IOError, err, "write tails version")
	}

	for {
		tail, err := gen.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return "", cerrors.WithCause(cerrors.Unexpected, err, "generate tail")
		}

		if len(tail) != cl.TailSize {
			return "", cerrors.Newf(cerrors.InvalidState, "tail entry has size %d, want %d",
				len(tail), cl.TailSize)
		}

		if _, err := out.Write(tail); err != nil {
			return "", cerrors.WithCause(cerrors.IOError, err, "write tail")
		}
	}

	return base58.Encode(hasher.Sum(nil)), nil
}

// FileReader provides random access to a stored tails file. Opening a file
// verifies its version prefix and content hash.
type FileReader struct {
	file  *os.File
	count uint32
}

// NewFileReader opens and verifies the tails file at location. The file
// content must hash to the file's own name.
func NewFileReader(location string) (*FileReader, error) {
	file, err := os.Open(location)
	if err != nil {
		return nil, cerrors.WithCause(cerrors.IOError, err, "open tails file")
	}

	reader, err := verifyTailsFile(file, filepath.Base(location))
	if err != nil {
		_ = file.Close()

		return nil, err
	}

	return reader, nil
}

func verifyTailsFile(file *os.File, wantHash string) (*FileReader, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, cerrors.WithCause(cerrors.IOError, err, "stat tails file")
	}

	size := info.Size()
	if size < int64(len(cl.TailsVersion)) ||
		(size-int64(len(cl.TailsVersion)))%cl.TailSize != 0 {
		return nil, cerrors.Newf(cerrors.InvalidState, "tails file has invalid size %d", size)
	}

	var version [2]byte
	if _, err := io.ReadFull(file, version[:]); err != nil {
		return nil, cerrors.WithCause(cerrors.IOError, err, "read tails version")
	}

	if version != cl.TailsVersion {
		return nil, cerrors.Newf(cerrors.InvalidState, "unsupported tails file version %v", version)
	}

	hasher := sha256.New()
	hasher.Write(version[:])

	if _, err := io.Copy(hasher, file); err != nil {
		return nil, cerrors.WithCause(cerrors.IOError, err, "hash tails file")
	}

	if got := base58.Encode(hasher.Sum(nil)); got != wantHash {
		return nil, cerrors.Newf(cerrors.InvalidState,
			"tails file hash mismatch: content hashes to %q", got)
	}

	return &FileReader{
		file:  file,
		count: uint32((size - int64(len(cl.TailsVersion))) / cl.TailSize),
	}, nil
}

// Count returns the number of tail entries in the file.
func (r *FileReader) Count() uint32 {
	return r.count
}

// AccessTail returns the tail entry at idx.
func (r *FileReader) AccessTail(idx uint32) ([]byte, error) {
	if idx >= r.count {
		return nil, cerrors.Newf(cerrors.Input, "tail index %d out of range (%d entries)", idx, r.count)
	}

	tail := make([]byte, cl.TailSize)

	offset := int64(len(cl.TailsVersion)) + int64(idx)*cl.TailSize
	if _, err := r.file.ReadAt(tail, offset); err != nil {
		return nil, cerrors.WithCause(cerrors.IOError, err, "read tail")
	}

	return tail, nil
}

// Close releases the underlying file.
func (r *FileReader) Close() error {
	return r.file.Close()
}
