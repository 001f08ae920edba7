/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mockcl is a deterministic stand-in for the CL primitive. It keeps
// the protocol contracts observable without FFI: signatures bind to the key
// and value digests, proofs bind to the presentation nonce, predicates are
// checked against the actual values and the revocation accumulator is an
// explicit index set. It provides no cryptographic hiding and exists for
// tests only.
package mockcl

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/google/uuid"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
	"github.com/hyperledger/indy-credx-go/pkg/credx/cl"
	"github.com/hyperledger/indy-credx-go/pkg/internal/clutil"
)

// Provider implements cl.Provider. The zero value is ready to use.
type Provider struct {
	// Call counters observable by tests.
	SignCalls          int
	CreateWitnessCalls int
	UpdateWitnessCalls int
}

// Issuer returns the issuer side of the primitive.
func (p *Provider) Issuer() cl.Issuer { return p }

// Prover returns the prover side of the primitive.
func (p *Provider) Prover() cl.Prover { return p }

// Verifier returns the verifier side of the primitive.
func (p *Provider) Verifier() cl.Verifier { return p }

// NewNonce returns a fresh unique nonce.
func (p *Provider) NewNonce() (cl.Nonce, error) {
	return json.Marshal(digest(uuid.New().String()))
}

func digest(parts ...string) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(part))
		hasher.Write([]byte{0})
	}

	return hex.EncodeToString(hasher.Sum(nil))
}

type primaryKey struct {
	N     string   `json:"n"`
	Attrs []string `json:"attrs"`
}

type keyProof struct {
	C string `json:"c"`
}

type signature struct {
	PK        string            `json:"pk"`
	M2        string            `json:"m_2"`
	Attrs     map[string]string `json:"attrs"`
	Blinded   json.RawMessage   `json:"blinded"`
	Unblinded bool              `json:"unblinded"`
	RevIdx    *uint32           `json:"rev_idx,omitempty"`
}

type accumulator struct {
	Accum  string   `json:"accum"`
	Issued []uint32 `json:"issued"`
}

type witness struct {
	RevIdx  uint32      `json:"rev_idx"`
	Accum   accumulator `json:"accum"`
	Revoked bool        `json:"revoked"`
}

func makeAccumulator(issued []uint32) accumulator {
	sorted := append([]uint32(nil), issued...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	parts := make([]string, len(sorted))
	for i, idx := range sorted {
		parts[i] = strconv.FormatUint(uint64(idx), 10)
	}

	return accumulator{Accum: digest(parts...), Issued: sorted}
}

func (a *accumulator) contains(idx uint32) bool {
	for _, issued := range a.Issued {
		if issued == idx {
			return true
		}
	}

	return false
}

func (a *accumulator) with(idx uint32) accumulator {
	return makeAccumulator(append(append([]uint32(nil), a.Issued...), idx))
}

func (a *accumulator) without(idx uint32) accumulator {
	kept := make([]uint32, 0, len(a.Issued))

	for _, issued := range a.Issued {
		if issued != idx {
			kept = append(kept, issued)
		}
	}

	return makeAccumulator(kept)
}

func parseAccumulator(raw json.RawMessage) (*accumulator, error) {
	var accum accumulator
	if err := json.Unmarshal(raw, &accum); err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "unmarshal accumulator")
	}

	return &accum, nil
}

func mustMarshal(v interface{}) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return raw
}

// NewCredentialDefinition generates a deterministic key pair over the
// normalized attribute list.
func (p *Provider) NewCredentialDefinition(attrs []string, supportRevocation bool) (*cl.CredentialKeyPair, error) {
	if len(attrs) == 0 {
		return nil, cerrors.New(cerrors.Input, "credential definition requires attributes")
	}

	secret := digest(uuid.New().String())

	sorted := append([]string(nil), attrs...)
	sort.Strings(sorted)

	primary := mustMarshal(&primaryKey{N: digest(secret, "primary"), Attrs: sorted})

	pub := &cl.CredentialPublicKey{Primary: primary}
	if supportRevocation {
		pub.Revocation = mustMarshal(map[string]string{"g": digest(secret, "revocation")})
	}

	return &cl.CredentialKeyPair{
		PublicKey:           pub,
		PrivateKey:          mustMarshal(map[string]string{"sk": secret}),
		KeyCorrectnessProof: mustMarshal(&keyProof{C: digest(string(primary))}),
	}, nil
}

// NewMasterSecret generates a fresh link secret.
func (p *Provider) NewMasterSecret() (cl.MasterSecret, error) {
	return mustMarshal(map[string]string{"ms": digest(uuid.New().String())}), nil
}

// BlindCredentialSecrets commits to the master secret under the issuer key.
func (p *Provider) BlindCredentialSecrets(pub *cl.CredentialPublicKey, proof cl.KeyCorrectnessProof,
	offerNonce cl.Nonce, masterSecret cl.MasterSecret) (*cl.BlindedSecrets, error) {
	var parsedProof keyProof
	if err := json.Unmarshal(proof, &parsedProof); err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "unmarshal key correctness proof")
	}

	if parsedProof.C != digest(string(pub.Primary)) {
		return nil, cerrors.New(cerrors.Input, "key correctness proof does not match credential definition")
	}

	msValue, err := clutil.MasterSecretValue(masterSecret)
	if err != nil {
		return nil, err
	}

	blinded := digest(msValue, string(offerNonce))

	return &cl.BlindedSecrets{
		Handle:           mustMarshal(map[string]string{"u": blinded}),
		CorrectnessProof: mustMarshal(map[string]string{"c": digest(blinded)}),
		BlindingFactor:   mustMarshal(map[string]string{"v_prime": digest(msValue, "factors")}),
	}, nil
}

func (p *Provider) sign(req *cl.SignRequest, revIdx *uint32) (*signature, error) {
	if len(req.BlindedSecrets) == 0 {
		return nil, cerrors.New(cerrors.Input, "sign request has no blinded secrets")
	}

	p.SignCalls++

	return &signature{
		PK:      digest(string(req.PublicKey.Primary)),
		M2:      digest(req.ProverID, string(req.RequestNonce)),
		Attrs:   req.Values.Known,
		Blinded: req.BlindedSecrets,
		RevIdx:  revIdx,
	}, nil
}

func (p *Provider) signResult(sig *signature) *cl.CredentialSignature {
	return &cl.CredentialSignature{
		Signature:        mustMarshal(sig),
		CorrectnessProof: mustMarshal(map[string]string{"se": digest(sig.PK, "proof")}),
	}
}

// SignCredential signs credential values for a non-revocable credential.
func (p *Provider) SignCredential(req *cl.SignRequest) (*cl.CredentialSignature, error) {
	sig, err := p.sign(req, nil)
	if err != nil {
		return nil, err
	}

	return p.signResult(sig), nil
}

// SignCredentialWithRevocation signs and assigns a registry index. For
// on-demand registries the index joins the accumulator and the transition
// delta is returned alongside.
func (p *Provider) SignCredentialWithRevocation(req *cl.SignRequest,
	rev *cl.RevocationSignConfig) (*cl.CredentialSignature, error) {
	if rev.RegistryIndex < 1 || rev.RegistryIndex > rev.MaxCredNum {
		return nil, cerrors.Newf(cerrors.InvalidUserRevocID,
			"revocation index %d is outside the registry bounds [1, %d]",
			rev.RegistryIndex, rev.MaxCredNum)
	}

	accum, err := parseAccumulator(rev.Accumulator)
	if err != nil {
		return nil, err
	}

	sig, err := p.sign(req, &rev.RegistryIndex)
	if err != nil {
		return nil, err
	}

	result := p.signResult(sig)

	if rev.IssuanceByDefault {
		result.Accumulator = rev.Accumulator

		return result, nil
	}

	if accum.contains(rev.RegistryIndex) {
		return nil, cerrors.Newf(cerrors.InvalidState,
			"revocation index %d is already in use", rev.RegistryIndex)
	}

	if uint32(len(accum.Issued)) >= rev.MaxCredNum {
		return nil, cerrors.New(cerrors.RevocationRegistryFull, "revocation registry is full")
	}

	if rev.Tails != nil {
		if _, err := rev.Tails.AccessTail(rev.RegistryIndex); err != nil {
			return nil, err
		}
	}

	next := accum.with(rev.RegistryIndex)
	result.Accumulator = mustMarshal(&next)

	result.Delta, err = cl.DeltaFromParts(rev.Accumulator, result.Accumulator,
		[]uint32{rev.RegistryIndex}, nil)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ProcessCredentialSignature unblinds a received signature.
func (p *Provider) ProcessCredentialSignature(req *cl.ProcessSignatureRequest) (json.RawMessage, error) {
	var sig signature
	if err := json.Unmarshal(req.Signature, &sig); err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "unmarshal credential signature")
	}

	if sig.PK != digest(string(req.PublicKey.Primary)) {
		return nil, cerrors.New(cerrors.Input, "credential signature does not match credential definition")
	}

	var proof map[string]string
	if err := json.Unmarshal(req.CorrectnessProof, &proof); err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "unmarshal signature correctness proof")
	}

	if proof["se"] != digest(sig.PK, "proof") {
		return nil, cerrors.New(cerrors.Input, "signature correctness proof does not match")
	}

	msValue := req.Values.Hidden[clutil.MasterSecretAttr]

	var factor map[string]string
	if err := json.Unmarshal(req.BlindingFactor, &factor); err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "unmarshal blinding factor")
	}

	if factor["v_prime"] != digest(msValue, "factors") {
		return nil, cerrors.New(cerrors.Input, "blinding factor does not match master secret")
	}

	sig.Unblinded = true

	return mustMarshal(&sig), nil
}

// NewRevocationRegistry generates registry keys, an empty accumulator and a
// deterministic tails stream.
func (p *Provider) NewRevocationRegistry(pub *cl.CredentialPublicKey, maxCredNum uint32,
	issuanceByDefault bool) (*cl.RevocationRegistrySetup, error) {
	if len(pub.Revocation) == 0 {
		return nil, cerrors.New(cerrors.Input, "credential definition does not support revocation")
	}

	if maxCredNum == 0 {
		return nil, cerrors.New(cerrors.Input, "registry size must be greater than zero")
	}

	gamma := digest(uuid.New().String())

	issued := []uint32(nil)
	if issuanceByDefault {
		for idx := uint32(1); idx <= maxCredNum; idx++ {
			issued = append(issued, idx)
		}
	}

	accum := makeAccumulator(issued)

	return &cl.RevocationRegistrySetup{
		PublicKey:   mustMarshal(map[string]string{"z": digest(gamma, "accumkey")}),
		PrivateKey:  mustMarshal(map[string]string{"gamma": gamma}),
		Accumulator: mustMarshal(&accum),
		Tails:       newTailsGenerator(gamma, maxCredNum),
	}, nil
}

func (p *Provider) updateAccumulator(raw cl.Accumulator, maxCredNum uint32, issued, revoked []uint32,
	tails cl.TailsAccessor) (*cl.RegistryUpdate, error) {
	accum, err := parseAccumulator(raw)
	if err != nil {
		return nil, err
	}

	next := *accum

	for _, idx := range issued {
		if idx < 1 || idx > maxCredNum {
			return nil, cerrors.Newf(cerrors.InvalidUserRevocID,
				"revocation index %d is outside the registry bounds [1, %d]", idx, maxCredNum)
		}

		next = next.with(idx)
	}

	for _, idx := range revoked {
		if idx < 1 || idx > maxCredNum {
			return nil, cerrors.Newf(cerrors.InvalidUserRevocID,
				"revocation index %d is outside the registry bounds [1, %d]", idx, maxCredNum)
		}

		next = next.without(idx)
	}

	if tails != nil {
		if _, err := tails.AccessTail(0); err != nil {
			return nil, err
		}
	}

	nextRaw := mustMarshal(&next)

	delta, err := cl.DeltaFromParts(raw, nextRaw, issued, revoked)
	if err != nil {
		return nil, err
	}

	return &cl.RegistryUpdate{Accumulator: nextRaw, Delta: delta}, nil
}

// UpdateRevocationRegistry applies issued and revoked index sets.
func (p *Provider) UpdateRevocationRegistry(accum cl.Accumulator, maxCredNum uint32,
	issued, revoked []uint32, tails cl.TailsAccessor) (*cl.RegistryUpdate, error) {
	return p.updateAccumulator(accum, maxCredNum, issued, revoked, tails)
}

// RevokeCredential removes one index from the accumulator.
func (p *Provider) RevokeCredential(accum cl.Accumulator, maxCredNum, revIdx uint32,
	tails cl.TailsAccessor) (*cl.RegistryUpdate, error) {
	parsed, err := parseAccumulator(accum)
	if err != nil {
		return nil, err
	}

	if !parsed.contains(revIdx) {
		return nil, cerrors.Newf(cerrors.InvalidState, "revocation index %d is not issued", revIdx)
	}

	return p.updateAccumulator(accum, maxCredNum, nil, []uint32{revIdx}, tails)
}

// RecoverCredential returns one revoked index to the accumulator.
func (p *Provider) RecoverCredential(accum cl.Accumulator, maxCredNum, revIdx uint32,
	tails cl.TailsAccessor) (*cl.RegistryUpdate, error) {
	parsed, err := parseAccumulator(accum)
	if err != nil {
		return nil, err
	}

	if parsed.contains(revIdx) {
		return nil, cerrors.Newf(cerrors.InvalidState, "revocation index %d is not revoked", revIdx)
	}

	return p.updateAccumulator(accum, maxCredNum, []uint32{revIdx}, nil, tails)
}

// CreateWitness builds a witness for revIdx against the delta's target
// accumulator.
func (p *Provider) CreateWitness(delta json.RawMessage, revIdx, maxCredNum uint32,
	issuanceByDefault bool, tails cl.TailsAccessor) (cl.Witness, error) {
	p.CreateWitnessCalls++

	if revIdx < 1 || revIdx > maxCredNum {
		return nil, cerrors.Newf(cerrors.InvalidUserRevocID,
			"revocation index %d is outside the registry bounds [1, %d]", revIdx, maxCredNum)
	}

	parsed, err := cl.ParseDelta(delta)
	if err != nil {
		return nil, err
	}

	accum, err := parseAccumulator(parsed.Accum)
	if err != nil {
		return nil, err
	}

	if tails != nil {
		if _, err := tails.AccessTail(revIdx); err != nil {
			return nil, err
		}
	}

	return mustMarshal(&witness{
		RevIdx:  revIdx,
		Accum:   *accum,
		Revoked: !accum.contains(revIdx),
	}), nil
}

// UpdateWitness advances a witness across a delta.
func (p *Provider) UpdateWitness(rawWitness cl.Witness, delta json.RawMessage, revIdx, maxCredNum uint32,
	tails cl.TailsAccessor) (cl.Witness, error) {
	p.UpdateWitnessCalls++

	var wit witness
	if err := json.Unmarshal(rawWitness, &wit); err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "unmarshal witness")
	}

	if wit.RevIdx != revIdx {
		return nil, cerrors.Newf(cerrors.Input,
			"witness belongs to revocation index %d, not %d", wit.RevIdx, revIdx)
	}

	parsed, err := cl.ParseDelta(delta)
	if err != nil {
		return nil, err
	}

	accum, err := parseAccumulator(parsed.Accum)
	if err != nil {
		return nil, err
	}

	if tails != nil {
		if _, err := tails.AccessTail(revIdx); err != nil {
			return nil, err
		}
	}

	wit.Accum = *accum
	wit.Revoked = !accum.contains(revIdx)

	return mustMarshal(&wit), nil
}
