/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package clutil provides the shared helpers that translate domain entities
// into primitive-level inputs: attribute name normalization, schema and
// value assembly and sub-proof request construction.
package clutil

import (
	"encoding/json"
	"strings"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx"
	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
)

// MasterSecretAttr is the reserved hidden attribute carrying the prover's
// link secret. It never appears in a schema.
const MasterSecretAttr = "master_secret"

// CommonView normalizes an attribute name: spaces stripped, lower-cased.
// All primitive-level attribute references use this form.
func CommonView(attr string) string {
	return strings.ToLower(strings.ReplaceAll(attr, " ", ""))
}

// BuildSchemaAttrs returns the normalized attribute list handed to the
// primitive as the credential schema.
func BuildSchemaAttrs(attrs credx.AttributeNames) []string {
	out := make([]string, len(attrs))
	for i, attr := range attrs {
		out[i] = CommonView(attr)
	}

	return out
}

// BuildCredentialValues assembles primitive-level credential values from
// encoded attribute values, adding the hidden master secret when provided.
func BuildCredentialValues(values credx.CredentialValues, masterSecret string) *cl.CredentialValues {
	known := make(map[string]string, len(values))
	for attr, value := range values {
		known[CommonView(attr)] = value.Encoded
	}

	out := &cl.CredentialValues{Known: known}

	if masterSecret != "" {
		out.Hidden = map[string]string{MasterSecretAttr: masterSecret}
	}

	return out
}

// MasterSecretValue extracts the hidden value of an opaque master secret.
func MasterSecretValue(masterSecret json.RawMessage) (string, error) {
	var view struct {
		MS string `json:"ms"`
	}

	if err := json.Unmarshal(masterSecret, &view); err != nil {
		return "", cerrors.WithCause(cerrors.Input, err, "unmarshal master secret")
	}

	if view.MS == "" {
		return "", cerrors.New(cerrors.Input, "master secret has no value")
	}

	return view.MS, nil
}

// FindAttribute locates an attribute in credential values by its normalized
// name.
func FindAttribute(values credx.CredentialValues, name string) (credx.AttributeValues, bool) {
	target := CommonView(name)

	for attr, value := range values {
		if CommonView(attr) == target {
			return value, true
		}
	}

	return credx.AttributeValues{}, false
}

// BuildSubProofRequest derives the normalized revealed attribute names and
// primitive-level predicates for one credential's sub-proof.
func BuildSubProofRequest(attrs []credx.AttributeInfo,
	predicates []credx.PredicateInfo) ([]string, []cl.Predicate, error) {
	var revealed []string

	for i := range attrs {
		attr := &attrs[i]
		if err := attr.Validate(); err != nil {
			return nil, nil, err
		}

		names := attr.Names
		if attr.Name != "" {
			names = []string{attr.Name}
		}

		for _, name := range names {
			revealed = append(revealed, CommonView(name))
		}
	}

	preds := make([]cl.Predicate, 0, len(predicates))

	for i := range predicates {
		predicate := &predicates[i]
		if err := predicate.PType.Validate(); err != nil {
			return nil, nil, err
		}

		preds = append(preds, cl.Predicate{
			Attr:  CommonView(predicate.Name),
			PType: predicate.PType.CryptoType(),
			Value: predicate.PValue,
		})
	}

	return revealed, preds, nil
}
