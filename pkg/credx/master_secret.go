/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credx

import (
	"encoding/json"

	"github.com/hyperledger/indy-credx-go/pkg/common/secret"
)

// MasterSecret is the prover's link secret. Its value never appears in
// diagnostics; log call sites pass it through secret.Redact.
type MasterSecret struct {
	Value json.RawMessage `json:"value"`
}

// Zero overwrites the secret value in place. The master secret is unusable
// afterwards.
func (ms *MasterSecret) Zero() {
	secret.Wipe(ms.Value)
	ms.Value = nil
}
