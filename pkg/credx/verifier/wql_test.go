/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifier

import (
	"testing"

	"github.com/stretchr/testify/require"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx"
)

const (
	testSchemaID        = "123"
	testSchemaName      = "Schema Name"
	testSchemaIssuerDID = "234"
	testSchemaVersion   = "1.2.3"
	testCredDefID       = "345"
	testIssuerDID       = "456"
)

func testFilter() *filter {
	return &filter{
		schemaID:        testSchemaID,
		schemaIssuerDID: testSchemaIssuerDID,
		schemaName:      testSchemaName,
		schemaVersion:   testSchemaVersion,
		credDefID:       testCredDefID,
		issuerDID:       testIssuerDID,
	}
}

func eq(key, value string) *credx.Query {
	return &credx.Query{Op: credx.OpEq, Key: key, Value: value}
}

func neq(key, value string) *credx.Query {
	return &credx.Query{Op: credx.OpNeq, Key: key, Value: value}
}

func in(key string, values ...string) *credx.Query {
	return &credx.Query{Op: credx.OpIn, Key: key, Values: values}
}

func and(queries ...*credx.Query) *credx.Query {
	return &credx.Query{Op: credx.OpAnd, Queries: queries}
}

func or(queries ...*credx.Query) *credx.Query {
	return &credx.Query{Op: credx.OpOr, Queries: queries}
}

func not(query *credx.Query) *credx.Query {
	return &credx.Query{Op: credx.OpNot, Queries: []*credx.Query{query}}
}

func TestProcessOperatorEq(t *testing.T) {
	fltr := testFilter()

	require.NoError(t, processOperator("zip", eq("schema_id", testSchemaID), fltr, nil))

	require.NoError(t, processOperator("zip", and(
		eq("attr::zip::marker", "1"),
		eq("schema_id", testSchemaID),
	), fltr, nil))

	err := processOperator("zip", and(
		eq("bad::zip::marker", "1"),
		eq("schema_id", testSchemaID),
	), fltr, nil)
	require.Error(t, err)
	require.Equal(t, cerrors.Input, cerrors.KindOf(err))

	err = processOperator("zip", eq("schema_id", "NOT HERE"), fltr, nil)
	require.Error(t, err)
	require.Equal(t, cerrors.ProofRejected, cerrors.KindOf(err))
}

func TestProcessOperatorNeq(t *testing.T) {
	fltr := testFilter()

	err := processOperator("zip", neq("schema_id", testSchemaID), fltr, nil)
	require.Error(t, err)
	require.Equal(t, cerrors.ProofRejected, cerrors.KindOf(err))

	require.NoError(t, processOperator("zip", neq("schema_id", "NOT HERE"), fltr, nil))
}

func TestProcessOperatorIn(t *testing.T) {
	fltr := testFilter()

	err := processOperator("zip", in("cred_def_id", "Not Here"), fltr, nil)
	require.Error(t, err)

	require.NoError(t, processOperator("zip",
		in("cred_def_id", "Not Here", testCredDefID), fltr, nil))
}

func TestProcessOperatorOr(t *testing.T) {
	fltr := testFilter()

	err := processOperator("zip", or(
		eq("schema_id", "Not Here"),
		eq("cred_def_id", "Not Here"),
	), fltr, nil)
	require.Error(t, err)

	require.NoError(t, processOperator("zip", or(
		eq("schema_id", testSchemaID),
		eq("cred_def_id", "Not Here"),
	), fltr, nil))
}

func TestProcessOperatorAnd(t *testing.T) {
	fltr := testFilter()

	err := processOperator("zip", and(
		eq("schema_id", "Not Here"),
		eq("cred_def_id", "Not Here"),
	), fltr, nil)
	require.Error(t, err)

	err = processOperator("zip", and(
		eq("schema_id", testSchemaID),
		eq("cred_def_id", "Not Here"),
	), fltr, nil)
	require.Error(t, err)

	require.NoError(t, processOperator("zip", and(
		eq("schema_id", testSchemaID),
		eq("cred_def_id", testCredDefID),
	), fltr, nil))
}

func TestProcessOperatorNot(t *testing.T) {
	fltr := testFilter()

	err := processOperator("zip", not(and(
		eq("schema_id", testSchemaID),
		eq("cred_def_id", testCredDefID),
	)), fltr, nil)
	require.Error(t, err)

	require.NoError(t, processOperator("zip", not(and(
		eq("schema_id", "Not Here"),
		eq("cred_def_id", "Not Here"),
	)), fltr, nil))
}

func TestProcessOperatorOrWithNestedAnd(t *testing.T) {
	fltr := testFilter()

	err := processOperator("zip", or(
		and(eq("schema_id", "Not Here"), eq("cred_def_id", "Not Here")),
		and(eq("schema_issuer_did", "Not Here"), eq("schema_name", "Not Here")),
		and(eq("schema_name", "Not Here"), eq("issuer_did", "Not Here")),
	), fltr, nil)
	require.Error(t, err)

	err = processOperator("zip", or(
		and(eq("schema_id", testSchemaID), eq("cred_def_id", "Not Here")),
		and(eq("schema_issuer_did", "Not Here"), eq("schema_name", "Not Here")),
		and(eq("schema_name", "Not Here"), eq("issuer_did", "Not Here")),
	), fltr, nil)
	require.Error(t, err)

	require.NoError(t, processOperator("zip", or(
		and(eq("schema_id", testSchemaID), eq("cred_def_id", testCredDefID)),
		and(eq("schema_issuer_did", "Not Here"), eq("schema_name", "Not Here")),
		and(eq("schema_name", "Not Here"), eq("issuer_did", "Not Here")),
	), fltr, nil))
}

func TestProcessOperatorComplexNested(t *testing.T) {
	fltr := testFilter()

	err := processOperator("zip", and(
		and(
			or(eq("schema_name", "Not Here"), eq("issuer_did", "Not Here")),
			eq("schema_id", testSchemaID),
			eq("cred_def_id", testCredDefID),
		),
		and(eq("schema_issuer_did", testSchemaIssuerDID), eq("schema_name", testSchemaName)),
		and(eq("schema_version", testSchemaVersion), eq("issuer_did", testIssuerDID)),
	), fltr, nil)
	require.Error(t, err)

	require.NoError(t, processOperator("zip", and(
		and(
			or(eq("schema_name", testSchemaName), eq("issuer_did", "Not Here")),
			eq("schema_id", testSchemaID),
			eq("cred_def_id", testCredDefID),
		),
		and(eq("schema_issuer_did", testSchemaIssuerDID), eq("schema_name", testSchemaName)),
		and(eq("schema_version", testSchemaVersion), eq("issuer_did", testIssuerDID)),
		not(eq("schema_version", "NOT HERE")),
	), fltr, nil))

	err = processOperator("zip", and(
		and(
			or(eq("schema_name", testSchemaName), eq("issuer_did", "Not Here")),
			eq("schema_id", testSchemaID),
			eq("cred_def_id", testCredDefID),
		),
		and(eq("schema_issuer_did", testSchemaIssuerDID), eq("schema_name", testSchemaName)),
		and(eq("schema_version", testSchemaVersion), eq("issuer_did", testIssuerDID)),
		not(eq("schema_version", testSchemaVersion)),
	), fltr, nil)
	require.Error(t, err)
}

func TestProcessOperatorEqRevealedValue(t *testing.T) {
	fltr := testFilter()
	value := "value"

	require.NoError(t, processOperator("zip", eq("attr::zip::value", value), fltr, &value))

	require.NoError(t, processOperator("zip", and(
		eq("attr::zip::value", value),
		eq("schema_issuer_did", testSchemaIssuerDID),
	), fltr, &value))

	other := "NOT HERE"
	err := processOperator("zip", eq("attr::zip::value", value), fltr, &other)
	require.Error(t, err)
	require.Equal(t, cerrors.ProofRejected, cerrors.KindOf(err))
}

func TestProcessOperatorUnrevealedValuePasses(t *testing.T) {
	require.NoError(t, processOperator("zip",
		eq("attr::zip::value", "anything"), testFilter(), nil))
}

func TestProcessOperatorUnsupported(t *testing.T) {
	err := processOperator("zip",
		&credx.Query{Op: credx.OpGt, Key: "schema_version", Value: "1.0"}, testFilter(), nil)
	require.Error(t, err)
	require.Equal(t, cerrors.ProofRejected, cerrors.KindOf(err))
	require.Contains(t, err.Error(), "unsupported operator")
}

func TestGatherFilterInfo(t *testing.T) {
	ids := map[string]credx.Identifier{
		"attr1_referent": {
			SchemaID:  "NcYxiDXkpYi6ov5FcYDi1e:2:gvt:1.0",
			CredDefID: "NcYxiDXkpYi6ov5FcYDi1e:3:CL:NcYxiDXkpYi6ov5FcYDi1e:2:gvt:1.0:tag",
		},
	}

	fltr, err := gatherFilterInfo("attr1_referent", ids)
	require.NoError(t, err)
	require.Equal(t, "NcYxiDXkpYi6ov5FcYDi1e:2:gvt:1.0", fltr.schemaID)
	require.Equal(t, "NcYxiDXkpYi6ov5FcYDi1e", fltr.schemaIssuerDID)
	require.Equal(t, "gvt", fltr.schemaName)
	require.Equal(t, "1.0", fltr.schemaVersion)
	require.Equal(t, "NcYxiDXkpYi6ov5FcYDi1e", fltr.issuerDID)

	_, err = gatherFilterInfo("missing", ids)
	require.Error(t, err)
	require.Equal(t, cerrors.InvalidState, cerrors.KindOf(err))
}

func TestIsSelfAttested(t *testing.T) {
	selfAttested := map[string]struct{}{"attr1_referent": {}}

	info := &credx.AttributeInfo{Name: "name"}
	require.True(t, isSelfAttested("attr1_referent", info, selfAttested))
	require.False(t, isSelfAttested("attr2_referent", info, selfAttested))

	info.Restrictions = and()
	require.True(t, isSelfAttested("attr1_referent", info, selfAttested))

	info.Restrictions = eq("schema_id", testSchemaID)
	require.False(t, isSelfAttested("attr1_referent", info, selfAttested))
}
