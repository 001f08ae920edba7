/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credx

import (
	"encoding/json"
	"sort"

	cerrors "github.com/hyperledger/indy-credx-go/pkg/common/errors"
)

// Query operators of the wallet query language used in restrictions.
const (
	OpEq QueryOp = iota
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
	OpLike
	OpIn
	OpAnd
	OpOr
	OpNot
)

// QueryOp identifies a restriction query operator.
type QueryOp int

// Query is one node of a restriction query. Comparison nodes use Key and
// Value (or Values for $in); combinator nodes use Queries.
type Query struct {
	Op      QueryOp
	Key     string
	Value   string
	Values  []string
	Queries []*Query
}

// IsEmptyCombinator reports whether the query is an AND or OR with no
// clauses, which matches everything.
func (q *Query) IsEmptyCombinator() bool {
	return (q.Op == OpAnd || q.Op == OpOr) && len(q.Queries) == 0
}

// UnmarshalJSON parses the WQL JSON form. A document with several clauses
// is an implicit AND.
func (q *Query) UnmarshalJSON(data []byte) error {
	parsed, err := parseQueryDocument(data)
	if err != nil {
		return err
	}

	*q = *parsed

	return nil
}

func parseQueryDocument(data []byte) (*Query, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, cerrors.WithCause(cerrors.Input, err, "restriction query must be a JSON object")
	}

	clauses, err := parseClauses(doc)
	if err != nil {
		return nil, err
	}

	if len(clauses) == 1 {
		return clauses[0], nil
	}

	return &Query{Op: OpAnd, Queries: clauses}, nil
}

func parseClauses(doc map[string]json.RawMessage) ([]*Query, error) {
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	clauses := make([]*Query, 0, len(doc))

	for _, key := range keys {
		clause, err := parseClause(key, doc[key])
		if err != nil {
			return nil, err
		}

		clauses = append(clauses, clause)
	}

	return clauses, nil
}

func parseClause(key string, value json.RawMessage) (*Query, error) {
	switch key {
	case "$and", "$or":
		var subDocs []json.RawMessage
		if err := json.Unmarshal(value, &subDocs); err != nil {
			return nil, cerrors.WithCause(cerrors.Input, err, key+" value must be an array")
		}

		op := OpAnd
		if key == "$or" {
			op = OpOr
		}

		queries := make([]*Query, 0, len(subDocs))

		for _, subDoc := range subDocs {
			sub, err := parseQueryDocument(subDoc)
			if err != nil {
				return nil, err
			}

			queries = append(queries, sub)
		}

		return &Query{Op: op, Queries: queries}, nil
	case "$not":
		sub, err := parseQueryDocument(value)
		if err != nil {
			return nil, err
		}

		return &Query{Op: OpNot, Queries: []*Query{sub}}, nil
	default:
		return parseComparison(key, value)
	}
}

func parseComparison(key string, value json.RawMessage) (*Query, error) {
	var str string
	if err := json.Unmarshal(value, &str); err == nil {
		return &Query{Op: OpEq, Key: key, Value: str}, nil
	}

	var operators map[string]json.RawMessage
	if err := json.Unmarshal(value, &operators); err != nil {
		return nil, cerrors.Newf(cerrors.Input,
			"restriction clause %q must be a string or an operator object", key)
	}

	if len(operators) != 1 {
		return nil, cerrors.Newf(cerrors.Input,
			"restriction clause %q must contain exactly one operator", key)
	}

	for operator, operand := range operators {
		op, ok := comparisonOps[operator]
		if !ok {
			return nil, cerrors.Newf(cerrors.Input, "unsupported restriction operator %q", operator)
		}

		if op == OpIn {
			var values []string
			if err := json.Unmarshal(operand, &values); err != nil {
				return nil, cerrors.WithCause(cerrors.Input, err, "$in operand must be a string array")
			}

			return &Query{Op: OpIn, Key: key, Values: values}, nil
		}

		var operandStr string
		if err := json.Unmarshal(operand, &operandStr); err != nil {
			return nil, cerrors.Newf(cerrors.Input, "%s operand for %q must be a string", operator, key)
		}

		return &Query{Op: op, Key: key, Value: operandStr}, nil
	}

	return nil, cerrors.Newf(cerrors.Input, "restriction clause %q is empty", key)
}

var comparisonOps = map[string]QueryOp{
	"$neq":  OpNeq,
	"$gt":   OpGt,
	"$gte":  OpGte,
	"$lt":   OpLt,
	"$lte":  OpLte,
	"$like": OpLike,
	"$in":   OpIn,
}

var comparisonNames = map[QueryOp]string{
	OpNeq:  "$neq",
	OpGt:   "$gt",
	OpGte:  "$gte",
	OpLt:   "$lt",
	OpLte:  "$lte",
	OpLike: "$like",
}

// MarshalJSON renders the query back into WQL JSON.
func (q *Query) MarshalJSON() ([]byte, error) {
	doc, err := q.document()
	if err != nil {
		return nil, err
	}

	return json.Marshal(doc)
}

func (q *Query) document() (map[string]interface{}, error) {
	switch q.Op {
	case OpEq:
		return map[string]interface{}{q.Key: q.Value}, nil
	case OpIn:
		return map[string]interface{}{q.Key: map[string]interface{}{"$in": q.Values}}, nil
	case OpNeq, OpGt, OpGte, OpLt, OpLte, OpLike:
		return map[string]interface{}{q.Key: map[string]interface{}{comparisonNames[q.Op]: q.Value}}, nil
	case OpAnd, OpOr:
		name := "$and"
		if q.Op == OpOr {
			name = "$or"
		}

		subDocs := make([]map[string]interface{}, 0, len(q.Queries))

		for _, sub := range q.Queries {
			subDoc, err := sub.document()
			if err != nil {
				return nil, err
			}

			subDocs = append(subDocs, subDoc)
		}

		// An empty combinator flattens to the empty document; WQL has no
		// spelling for an empty $or, so it re-parses as an empty $and.
		if len(subDocs) == 0 {
			return map[string]interface{}{}, nil
		}

		return map[string]interface{}{name: subDocs}, nil
	case OpNot:
		if len(q.Queries) != 1 {
			return nil, cerrors.New(cerrors.Input, "$not must wrap exactly one query")
		}

		subDoc, err := q.Queries[0].document()
		if err != nil {
			return nil, err
		}

		return map[string]interface{}{"$not": subDoc}, nil
	default:
		return nil, cerrors.Newf(cerrors.Input, "unsupported restriction operator %d", int(q.Op))
	}
}
