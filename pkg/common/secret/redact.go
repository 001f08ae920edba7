//go:build !credxdebug
// +build !credxdebug

/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package secret keeps sensitive material out of diagnostics. Redact masks
// values in log output unless the credxdebug build tag is set, and Buffer
// holds secret bytes that are zeroed when released.
package secret

// Redact returns a placeholder for v. The value itself is only rendered in
// builds carrying the credxdebug tag.
func Redact(v interface{}) string {
	return "_"
}
