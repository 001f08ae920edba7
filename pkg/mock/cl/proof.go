/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mockcl

import (
	"encoding/json"
	"strconv"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
	"github.com/hyperledger/indy-credx-go/pkg/internal/clutil"
)

type eqProof struct {
	RevealedAttrs map[string]string `json:"revealed_attrs"`
	PK            string            `json:"pk"`
	M2            string            `json:"m_2"`
}

type geProof struct {
	Attr  string `json:"attr"`
	PType string `json:"p_type"`
	Value int64  `json:"value"`
}

type primaryProof struct {
	EqProof  eqProof   `json:"eq_proof"`
	GeProofs []geProof `json:"ge_proofs"`
}

type nonRevocProof struct {
	Accum string `json:"accum"`
}

type subProof struct {
	PrimaryProof  primaryProof   `json:"primary_proof"`
	NonRevocProof *nonRevocProof `json:"non_revoc_proof,omitempty"`
}

type aggregatedProof struct {
	CHash string `json:"c_hash"`
}

func aggregate(nonce cl.Nonce, subProofs []json.RawMessage) *aggregatedProof {
	parts := []string{string(nonce)}
	for _, sub := range subProofs {
		parts = append(parts, digest(string(sub)))
	}

	return &aggregatedProof{CHash: digest(parts...)}
}

func predicateSatisfied(pred *cl.Predicate, encoded string) (bool, error) {
	value, err := strconv.ParseInt(encoded, 10, 64)
	if err != nil {
		return false, cerrors.Newf(cerrors.ProofRejected,
			"predicate attribute %q does not hold a 32-bit integer", pred.Attr)
	}

	switch pred.PType {
	case "GE":
		return value >= pred.Value, nil
	case "LE":
		return value <= pred.Value, nil
	case "GT":
		return value > pred.Value, nil
	case "LT":
		return value < pred.Value, nil
	default:
		return false, cerrors.Newf(cerrors.Input, "unsupported predicate type %q", pred.PType)
	}
}

func (p *Provider) buildSubProof(req *cl.SubProofRequest, msValue string) (json.RawMessage, error) {
	var sig signature
	if err := json.Unmarshal(req.Signature, &sig); err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "unmarshal credential signature")
	}

	if !sig.Unblinded {
		return nil, cerrors.New(cerrors.Input, "credential signature has not been processed")
	}

	if sig.PK != digest(string(req.PublicKey.Primary)) {
		return nil, cerrors.New(cerrors.Input, "credential signature does not match credential definition")
	}

	if req.Values.Hidden[clutil.MasterSecretAttr] != msValue {
		return nil, cerrors.New(cerrors.Input, "master secret does not match credential")
	}

	for attr, encoded := range req.Values.Known {
		if signed, ok := sig.Attrs[attr]; ok && signed != encoded {
			return nil, cerrors.Newf(cerrors.Input, "value of attribute %q does not match signature", attr)
		}
	}

	revealed := make(map[string]string, len(req.RevealedAttrs))

	for _, attr := range req.RevealedAttrs {
		encoded, ok := req.Values.Known[attr]
		if !ok {
			return nil, cerrors.Newf(cerrors.Input, "revealed attribute %q is not in the credential", attr)
		}

		revealed[attr] = encoded
	}

	gathered := make([]geProof, 0, len(req.Predicates))

	for i := range req.Predicates {
		pred := &req.Predicates[i]

		encoded, ok := req.Values.Known[pred.Attr]
		if !ok {
			return nil, cerrors.Newf(cerrors.Input, "predicate attribute %q is not in the credential", pred.Attr)
		}

		ok, err := predicateSatisfied(pred, encoded)
		if err != nil {
			return nil, err
		}

		if !ok {
			return nil, cerrors.Newf(cerrors.ProofRejected,
				"predicate %s %s %d is not satisfied", pred.Attr, pred.PType, pred.Value)
		}

		gathered = append(gathered, geProof{Attr: pred.Attr, PType: pred.PType, Value: pred.Value})
	}

	sub := &subProof{
		PrimaryProof: primaryProof{
			EqProof:  eqProof{RevealedAttrs: revealed, PK: sig.PK, M2: sig.M2},
			GeProofs: gathered,
		},
	}

	if len(req.Witness) > 0 {
		var wit witness
		if err := json.Unmarshal(req.Witness, &wit); err != nil {
			return nil, cerrors.WithCause(cerrors.Input, err, "unmarshal witness")
		}

		if wit.Revoked {
			return nil, cerrors.New(cerrors.CredentialRevoked, "credential is revoked")
		}

		sub.NonRevocProof = &nonRevocProof{Accum: wit.Accum.Accum}
	}

	return mustMarshal(sub), nil
}

// CreateProof assembles one sub-proof per request and aggregates them under
// the presentation nonce.
func (p *Provider) CreateProof(subProofs []*cl.SubProofRequest, nonce cl.Nonce,
	masterSecret cl.MasterSecret) (*cl.Proof, error) {
	msValue, err := clutil.MasterSecretValue(masterSecret)
	if err != nil {
		return nil, err
	}

	proofs := make([]json.RawMessage, 0, len(subProofs))

	for _, req := range subProofs {
		sub, err := p.buildSubProof(req, msValue)
		if err != nil {
			return nil, err
		}

		proofs = append(proofs, sub)
	}

	return &cl.Proof{
		Proofs:          proofs,
		AggregatedProof: mustMarshal(aggregate(nonce, proofs)),
	}, nil
}

// VerifyProof checks every sub-proof against its expected keys, attributes,
// predicates and accumulator, and the aggregate against the nonce.
func (p *Provider) VerifyProof(items []*cl.SubProofItem, proof *cl.Proof, nonce cl.Nonce) (bool, error) {
	if len(items) != len(proof.Proofs) {
		return false, nil
	}

	var agg aggregatedProof
	if err := json.Unmarshal(proof.AggregatedProof, &agg); err != nil {
		return false, cerrors.WithCause(cerrors.Input, err, "unmarshal aggregated proof")
	}

	if agg.CHash != aggregate(nonce, proof.Proofs).CHash {
		return false, nil
	}

	for i, item := range items {
		var sub subProof
		if err := json.Unmarshal(proof.Proofs[i], &sub); err != nil {
			return false, cerrors.WithCause(cerrors.Input, err, "unmarshal sub-proof")
		}

		if !p.verifySubProof(item, &sub) {
			return false, nil
		}
	}

	return true, nil
}

func (p *Provider) verifySubProof(item *cl.SubProofItem, sub *subProof) bool {
	if sub.PrimaryProof.EqProof.PK != digest(string(item.PublicKey.Primary)) {
		return false
	}

	for _, attr := range item.RevealedAttrs {
		if _, ok := sub.PrimaryProof.EqProof.RevealedAttrs[attr]; !ok {
			return false
		}
	}

	for i := range item.Predicates {
		if !p.containsPredicate(sub.PrimaryProof.GeProofs, &item.Predicates[i]) {
			return false
		}
	}

	if len(item.Accumulator) > 0 {
		if sub.NonRevocProof == nil {
			return false
		}

		accum, err := parseAccumulator(item.Accumulator)
		if err != nil {
			return false
		}

		if sub.NonRevocProof.Accum != accum.Accum {
			return false
		}
	}

	return true
}

func (p *Provider) containsPredicate(proofs []geProof, pred *cl.Predicate) bool {
	for _, proved := range proofs {
		if proved.Attr == pred.Attr && proved.PType == pred.PType && proved.Value == pred.Value {
			return true
		}
	}

	return false
}
