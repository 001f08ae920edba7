/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credx

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx/identifiers"
)

const testDID = identifiers.DID("NcYxiDXkpYi6ov5FcYDi1e")

func testSchema() *Schema {
	return &Schema{
		Ver:       Version1,
		ID:        identifiers.NewSchemaID(testDID, "gvt", "1.0"),
		Name:      "gvt",
		Version:   "1.0",
		AttrNames: AttributeNames{"name", "age", "sex", "height"},
	}
}

func TestSchemaValidate(t *testing.T) {
	require.NoError(t, testSchema().Validate())
}

func TestSchemaValidateAttributeBounds(t *testing.T) {
	schema := testSchema()
	schema.AttrNames = nil
	require.Error(t, schema.Validate())

	names := make(AttributeNames, 0, MaxAttributesCount+1)
	for i := 0; i < MaxAttributesCount; i++ {
		names = append(names, fmt.Sprintf("attr%d", i))
	}

	schema.AttrNames = names
	require.NoError(t, schema.Validate())

	schema.AttrNames = append(names, "attr125")
	err := schema.Validate()
	require.Error(t, err)
	require.Equal(t, cerrors.Input, cerrors.KindOf(err))
}

func TestSchemaValidateDuplicateAttr(t *testing.T) {
	schema := testSchema()
	schema.AttrNames = AttributeNames{"name", "name"}

	err := schema.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestSchemaValidateIDMismatch(t *testing.T) {
	schema := testSchema()
	schema.ID = identifiers.NewSchemaID(testDID, "other", "2.0")

	err := schema.Validate()
	require.Error(t, err)
	require.Equal(t, cerrors.Input, cerrors.KindOf(err))
}

func TestSchemaValidateVersion(t *testing.T) {
	schema := testSchema()
	schema.Ver = "2.0"
	require.Error(t, schema.Validate())
}

func TestSchemaToUnqualified(t *testing.T) {
	qualDID := testDID.DefaultMethod("sov")
	schema := testSchema()
	schema.ID = identifiers.NewSchemaID(qualDID, "gvt", "1.0")

	unq := schema.ToUnqualified()
	require.Equal(t, identifiers.NewSchemaID(testDID, "gvt", "1.0"), unq.ID)
	require.Equal(t, schema.Name, unq.Name)

	// source untouched
	require.Equal(t, "sov", schema.ID.Method())
}

func TestSchemaJSONRoundTrip(t *testing.T) {
	seqNo := uint32(1578)
	schema := testSchema()
	schema.SeqNo = &seqNo

	raw, err := json.Marshal(schema)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"ver":"1.0"`)
	require.Contains(t, string(raw), `"attrNames"`)
	require.Contains(t, string(raw), `"seqNo":1578`)

	var decoded Schema
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, schema, &decoded)
}
