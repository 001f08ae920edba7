//go:build credxdebug
// +build credxdebug

/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package secret

import "fmt"

// Redact renders v for debugging. Only compiled with the credxdebug tag;
// release builds mask the value.
func Redact(v interface{}) string {
	return fmt.Sprintf("%v", v)
}
