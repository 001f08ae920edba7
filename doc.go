/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credx implements the indy anonymous credential protocol: schema and
// credential definition issuance, holder-side credential requests and proof
// construction, proof verification with WQL restrictions, and revocation
// registries backed by tails files.
//
// Packages for end developer usage
//
// pkg/credx/issuer: Schema, credential definition and revocation registry
// management, credential signing, and revocation state transitions.
//
// pkg/credx/prover: Master secrets, credential requests, credential
// processing, non-revocation state tracking, and proof construction.
//
// pkg/credx/verifier: Proof verification against a proof request, including
// restriction (WQL) evaluation and revocation interval checks.
//
// The CL signature primitive is reached through the boundary in pkg/credx/cl.
// The libursa-backed implementation is built with the ursa build tag;
// pkg/mock/cl provides a deterministic implementation for tests.
package credx
