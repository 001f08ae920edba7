/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credx

import (
	"encoding/json"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
	"github.com/hyperledger/indy-credx-go/pkg/credx/identifiers"
)

// RegistryTypeCLAccum is the only supported revocation registry type.
const RegistryTypeCLAccum RegistryType = "CL_ACCUM"

// RegistryType names the accumulator scheme of a revocation registry.
type RegistryType string

// Validate accepts supported registry types.
func (t RegistryType) Validate() error {
	if t != RegistryTypeCLAccum {
		return cerrors.Newf(cerrors.Input, "unsupported revocation registry type %q", string(t))
	}

	return nil
}

// Issuance strategies for a revocation registry.
const (
	// IssuanceByDefault treats every index as issued until revoked.
	IssuanceByDefault IssuanceType = "ISSUANCE_BY_DEFAULT"
	// IssuanceOnDemand treats indexes as revoked until issued.
	IssuanceOnDemand IssuanceType = "ISSUANCE_ON_DEMAND"
)

// IssuanceType names the issuance strategy of a revocation registry.
type IssuanceType string

// ByDefault reports whether the strategy is issuance-by-default.
func (t IssuanceType) ByDefault() bool {
	return t == IssuanceByDefault
}

// Validate accepts known issuance types.
func (t IssuanceType) Validate() error {
	if t != IssuanceByDefault && t != IssuanceOnDemand {
		return cerrors.Newf(cerrors.Input, "unsupported issuance type %q", string(t))
	}

	return nil
}

// DefaultRegistryTag is used when a caller does not name the registry.
const DefaultRegistryTag = "default"

// RevocationRegistryConfig controls registry creation.
type RevocationRegistryConfig struct {
	IssuanceType IssuanceType `json:"issuance_type,omitempty"`
	MaxCredNum   uint32       `json:"max_cred_num,omitempty"`
}

// Validate checks the configured capacity and issuance strategy. The
// issuance type defaults to issuance-by-default when empty.
func (c *RevocationRegistryConfig) Validate() error {
	if c.MaxCredNum == 0 {
		return cerrors.New(cerrors.Input, "revocation registry size must be greater than zero")
	}

	if c.IssuanceType != "" {
		return c.IssuanceType.Validate()
	}

	return nil
}

// Issuance returns the configured issuance type, defaulted when empty.
func (c *RevocationRegistryConfig) Issuance() IssuanceType {
	if c.IssuanceType == "" {
		return IssuanceByDefault
	}

	return c.IssuanceType
}

// RevocationRegistryDefinitionValuePublicKeys holds the registry
// accumulator public key.
type RevocationRegistryDefinitionValuePublicKeys struct {
	AccumKey json.RawMessage `json:"accumKey"`
}

// RevocationRegistryDefinitionValue is the payload of a registry definition.
type RevocationRegistryDefinitionValue struct {
	IssuanceType  IssuanceType                                `json:"issuanceType"`
	MaxCredNum    uint32                                      `json:"maxCredNum"`
	PublicKeys    RevocationRegistryDefinitionValuePublicKeys `json:"publicKeys"`
	TailsHash     string                                      `json:"tailsHash"`
	TailsLocation string                                      `json:"tailsLocation"`
}

// RevocationRegistryDefinition describes a revocation registry: capacity,
// issuance strategy, accumulator public key and tails file location.
type RevocationRegistryDefinition struct {
	Ver          string                             `json:"ver"`
	ID           identifiers.RevocationRegistryID   `json:"id"`
	RevocDefType RegistryType                       `json:"revocDefType"`
	Tag          string                             `json:"tag"`
	CredDefID    identifiers.CredentialDefinitionID `json:"credDefId"`
	Value        RevocationRegistryDefinitionValue  `json:"value"`
}

// Validate checks version, ids, registry type and capacity.
func (d *RevocationRegistryDefinition) Validate() error {
	if d.Ver != Version1 {
		return cerrors.Newf(cerrors.Input, "unsupported revocation registry definition version %q", d.Ver)
	}

	if err := d.ID.Validate(); err != nil {
		return err
	}

	if err := d.CredDefID.Validate(); err != nil {
		return err
	}

	if err := d.RevocDefType.Validate(); err != nil {
		return err
	}

	if err := d.Value.IssuanceType.Validate(); err != nil {
		return err
	}

	if d.Value.MaxCredNum == 0 {
		return cerrors.New(cerrors.Input, "revocation registry size must be greater than zero")
	}

	return nil
}

// ToUnqualified strips method qualification from the definition's ids.
func (d *RevocationRegistryDefinition) ToUnqualified() *RevocationRegistryDefinition {
	out := *d
	out.ID = d.ID.ToUnqualified()
	out.CredDefID = d.CredDefID.ToUnqualified()

	return &out
}

// RevocationRegistryDefinitionPrivate is the issuer-held private half of a
// revocation registry.
type RevocationRegistryDefinitionPrivate struct {
	Value json.RawMessage `json:"value"`
}

// RevocationRegistry is an accumulator snapshot.
type RevocationRegistry struct {
	Ver   string          `json:"ver"`
	Value json.RawMessage `json:"value"`
}

// RevocationRegistryDelta is a transition between accumulator snapshots.
type RevocationRegistryDelta struct {
	Ver   string          `json:"ver"`
	Value json.RawMessage `json:"value"`
}

// NewRegistryDeltaFromSnapshot synthesizes a delta rooted at the registry
// origin for the given snapshot and index sets. Provers use it to build a
// witness when only the current registry state is known.
func NewRegistryDeltaFromSnapshot(reg *RevocationRegistry,
	issued, revoked []uint32) (*RevocationRegistryDelta, error) {
	value, err := cl.DeltaFromParts(nil, reg.Value, issued, revoked)
	if err != nil {
		return nil, err
	}

	return &RevocationRegistryDelta{Ver: Version1, Value: value}, nil
}

// RevocationRegistryInfo tracks index assignment during issuance.
type RevocationRegistryInfo struct {
	ID      identifiers.RevocationRegistryID `json:"id"`
	CurrID  uint32                           `json:"curr_id"`
	UsedIDs []uint32                         `json:"used_ids"`
}

// RevocationState is a prover-side non-revocation witness bound to the
// registry snapshot observed at a ledger timestamp.
type RevocationState struct {
	Witness   json.RawMessage `json:"witness"`
	RevReg    json.RawMessage `json:"rev_reg"`
	Timestamp uint64          `json:"timestamp"`
}

// Validate rejects a state without a positive timestamp.
func (s *RevocationState) Validate() error {
	if s.Timestamp == 0 {
		return cerrors.New(cerrors.Input, "revocation state must have a timestamp")
	}

	if len(s.Witness) == 0 {
		return cerrors.New(cerrors.Input, "revocation state has no witness")
	}

	return nil
}
