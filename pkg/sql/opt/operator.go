// Copyright 2022 The RaptorDB Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package opt

import "fmt"

// Operator describes the type of operation that a plan or scalar expression
// performs. Relational operators are either logical (describe a result) or
// physical (describe a result plus one implementation strategy); scalar
// operators are embedded inside relational operators as payload and are
// never memoized.
type Operator uint16

// Operators.
const (
	UnknownOp Operator = iota

	// ------------------------------------------------------------
	// Logical relational operators.
	// ------------------------------------------------------------

	// ScanOp returns all rows of a base table.
	ScanOp

	// SelectOp filters its input by a boolean condition.
	SelectOp

	// ProjectOp computes an ordered list of output columns.
	ProjectOp

	// InnerJoinOp, LeftJoinOp, CrossJoinOp, SemiJoinOp and AntiJoinOp are
	// the join variants. Semi and anti joins return left rows with (without)
	// at least one matching right row and project only left columns.
	InnerJoinOp
	LeftJoinOp
	CrossJoinOp
	SemiJoinOp
	AntiJoinOp

	// SemiJoinApplyOp and AntiJoinApplyOp are the apply (correlated) forms:
	// the right input may refer to columns of the left input. They are
	// produced when a correlated EXISTS subquery is hoisted out of a filter
	// and removed again by decorrelation whenever that is legal.
	SemiJoinApplyOp
	AntiJoinApplyOp

	// GroupByOp partitions its input by grouping columns and computes
	// aggregates per partition.
	GroupByOp

	// ------------------------------------------------------------
	// Physical relational operators.
	// ------------------------------------------------------------

	// TableScanOp implements ScanOp by a full scan.
	TableScanOp

	// FilterOp implements SelectOp by row-at-a-time predicate evaluation.
	FilterOp

	// RenderOp implements ProjectOp.
	RenderOp

	// HashJoinOp implements a join by hashing the right input on its equi-
	// join columns. An empty equi-column set degenerates to one bucket.
	HashJoinOp

	// NestedLoopJoinOp implements a join by scanning the right input for
	// every left row.
	NestedLoopJoinOp

	// HashGroupByOp implements GroupByOp with an in-memory hash table.
	HashGroupByOp

	// ------------------------------------------------------------
	// Scalar operators.
	// ------------------------------------------------------------

	// VariableOp is a reference to a metadata column.
	VariableOp

	// ConstOp is a constant datum.
	ConstOp

	// TrueOp and FalseOp are the boolean constants. They get their own
	// operators so rules can match them without inspecting datums.
	TrueOp
	FalseOp

	// NullOp is the NULL literal.
	NullOp

	AndOp
	OrOp
	NotOp

	EqOp
	LtOp
	GtOp
	LeOp
	GeOp
	NeOp

	PlusOp
	MinusOp
	MultOp
	DivOp

	// ExistsOp tests whether a subquery returns at least one row. Its
	// payload carries the bound relational subtree.
	ExistsOp

	// Aggregate functions.
	CountRowsOp
	CountOp
	SumOp
	MinOp
	MaxOp
	AvgOp

	// NumOperators tracks the number of operators.
	NumOperators
)

var opNames = [NumOperators]string{
	UnknownOp: "unknown",

	ScanOp:          "scan",
	SelectOp:        "select",
	ProjectOp:       "project",
	InnerJoinOp:     "inner-join",
	LeftJoinOp:      "left-join",
	CrossJoinOp:     "cross-join",
	SemiJoinOp:      "semi-join",
	AntiJoinOp:      "anti-join",
	SemiJoinApplyOp: "semi-join-apply",
	AntiJoinApplyOp: "anti-join-apply",
	GroupByOp:       "group-by",

	TableScanOp:      "table-scan",
	FilterOp:         "filter",
	RenderOp:         "render",
	HashJoinOp:       "hash-join",
	NestedLoopJoinOp: "nested-loop-join",
	HashGroupByOp:    "hash-group-by",

	VariableOp: "variable",
	ConstOp:    "const",
	TrueOp:     "true",
	FalseOp:    "false",
	NullOp:     "null",
	AndOp:      "and",
	OrOp:       "or",
	NotOp:      "not",
	EqOp:       "eq",
	LtOp:       "lt",
	GtOp:       "gt",
	LeOp:       "le",
	GeOp:       "ge",
	NeOp:       "ne",
	PlusOp:     "plus",
	MinusOp:    "minus",
	MultOp:     "mult",
	DivOp:      "div",
	ExistsOp:   "exists",

	CountRowsOp: "count-rows",
	CountOp:     "count",
	SumOp:       "sum",
	MinOp:       "min",
	MaxOp:       "max",
	AvgOp:       "avg",
}

// String returns the name of the operator as a string.
func (op Operator) String() string {
	if op >= NumOperators {
		return fmt.Sprintf("Operator(%d)", op)
	}
	return opNames[op]
}

// IsRelational is true for logical and physical relational operators.
func (op Operator) IsRelational() bool {
	return op >= ScanOp && op <= HashGroupByOp
}

// IsLogical is true for logical relational operators, the only operators
// allowed in memo groups before implementation rules run.
func (op Operator) IsLogical() bool {
	return op >= ScanOp && op <= GroupByOp
}

// IsPhysical is true for physical relational operators.
func (op Operator) IsPhysical() bool {
	return op >= TableScanOp && op <= HashGroupByOp
}

// IsScalar is true for scalar operators.
func (op Operator) IsScalar() bool {
	return op >= VariableOp && op < NumOperators
}

// IsJoin is true for all join variants, logical and apply.
func (op Operator) IsJoin() bool {
	return op >= InnerJoinOp && op <= AntiJoinApplyOp
}

// IsJoinApply is true for the correlated apply variants.
func (op Operator) IsJoinApply() bool {
	return op == SemiJoinApplyOp || op == AntiJoinApplyOp
}

// IsComparison is true for the binary comparison operators.
func (op Operator) IsComparison() bool {
	return op >= EqOp && op <= NeOp
}

// IsAggregate is true for aggregate function operators.
func (op Operator) IsAggregate() bool {
	return op >= CountRowsOp && op <= AvgOp
}

// UnApplyOp maps an apply join variant to the uncorrelated variant produced
// by decorrelation.
func (op Operator) UnApplyOp() Operator {
	switch op {
	case SemiJoinApplyOp:
		return SemiJoinOp
	case AntiJoinApplyOp:
		return AntiJoinOp
	}
	return op
}

// NegateOp returns the negated comparison operator, used when a NOT is
// pushed through a comparison during scalar simplification.
func (op Operator) NegateOp() (_ Operator, ok bool) {
	switch op {
	case EqOp:
		return NeOp, true
	case NeOp:
		return EqOp, true
	case LtOp:
		return GeOp, true
	case GtOp:
		return LeOp, true
	case LeOp:
		return GtOp, true
	case GeOp:
		return LtOp, true
	}
	return UnknownOp, false
}
