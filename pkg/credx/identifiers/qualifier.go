/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package identifiers implements the indy identifier grammar: DIDs, schema
// ids, credential definition ids and revocation registry ids, each in an
// unqualified form and a method-qualified form under its own prefix.
package identifiers

import (
	"fmt"
	"regexp"
)

// Delimiter separates the segments of every composite identifier.
const Delimiter = ":"

const (
	didPrefix     = "did"
	schemaPrefix  = "schema"
	credDefPrefix = "creddef"
	revRegPrefix  = "revreg"
)

var (
	didQualifier     = newQualifier(didPrefix)
	schemaQualifier  = newQualifier(schemaPrefix)
	credDefQualifier = newQualifier(credDefPrefix)
	revRegQualifier  = newQualifier(revRegPrefix)
)

// qualifier attaches and strips a "<prefix>:<method>:" qualification.
type qualifier struct {
	prefix  string
	pattern *regexp.Regexp
}

func newQualifier(prefix string) *qualifier {
	return &qualifier{
		prefix:  prefix,
		pattern: regexp.MustCompile(fmt.Sprintf(`^%s:([a-z0-9]+):(.+)$`, prefix)),
	}
}

// Qualify prefixes entity with the prefix and method. An empty method
// returns entity unchanged.
func (q *qualifier) Qualify(method, entity string) string {
	if method == "" {
		return entity
	}

	return q.prefix + Delimiter + method + Delimiter + entity
}

// Method returns the method segment of a qualified entity, or "" for an
// unqualified one.
func (q *qualifier) Method(entity string) string {
	if m := q.pattern.FindStringSubmatch(entity); m != nil {
		return m[1]
	}

	return ""
}

// Unqualify strips the prefix and method from entity. Unqualified input is
// returned unchanged.
func (q *qualifier) Unqualify(entity string) string {
	if m := q.pattern.FindStringSubmatch(entity); m != nil {
		return m[2]
	}

	return entity
}
