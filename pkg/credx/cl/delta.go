/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cl

import (
	"encoding/json"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
)

// Delta is the serialized form of a registry delta: the target accumulator,
// the previous one when known, and the index sets the transition covers.
type Delta struct {
	PrevAccum Accumulator `json:"prevAccum,omitempty"`
	Accum     Accumulator `json:"accum"`
	Issued    []uint32    `json:"issued,omitempty"`
	Revoked   []uint32    `json:"revoked,omitempty"`
}

// DeltaFromParts assembles a registry delta. prev may be nil for a delta
// rooted at the registry origin (the form used to bootstrap witnesses).
func DeltaFromParts(prev, curr Accumulator, issued, revoked []uint32) (json.RawMessage, error) {
	if len(curr) == 0 {
		return nil, cerrors.New(cerrors.Input, "delta requires a target accumulator")
	}

	raw, err := json.Marshal(&Delta{
		PrevAccum: prev,
		Accum:     curr,
		Issued:    issued,
		Revoked:   revoked,
	})
	if err != nil {
		return nil, cerrors.WithCause(cerrors.Unexpected, err, "marshal registry delta")
	}

	return raw, nil
}

// ParseDelta decodes a registry delta blob.
func ParseDelta(raw json.RawMessage) (*Delta, error) {
	var delta Delta
	if err := json.Unmarshal(raw, &delta); err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "unmarshal registry delta")
	}

	if len(delta.Accum) == 0 {
		return nil, cerrors.New(cerrors.Input, "registry delta has no target accumulator")
	}

	return &delta, nil
}
