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

package memo

import (
	"bytes"
	"fmt"

	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/sem/tree"
	"github.com/bjm1244/raptordb/pkg/sql/types"
	"github.com/cockroachdb/errors"
)

// ScalarExpr is a node in a scalar expression tree: a predicate, projection
// element or aggregate call. Scalar expressions are embedded as payload
// inside relational operators and are deliberately not memoized; equivalent
// scalar rewrites happen in a separate simplification pass rather than
// during the relational search.
type ScalarExpr struct {
	// Op is the scalar operator tag.
	Op opt.Operator

	// Children holds the operands, in order.
	Children []*ScalarExpr

	// Col is set for VariableOp: the referenced metadata column.
	Col opt.ColumnID

	// Value is set for ConstOp: the constant datum.
	Value tree.Datum

	// Typ is the result type of the expression.
	Typ *types.T

	// Input is set for ExistsOp: the bound relational subtree of the
	// subquery.
	Input *Expr

	// OuterCols is set for ExistsOp: the columns of enclosing scopes
	// referenced inside Input. A non-empty set means the subquery is
	// correlated.
	OuterCols opt.ColSet
}

// Canonical boolean constants.
var (
	TrueSingleton  = &ScalarExpr{Op: opt.TrueOp, Typ: types.Bool}
	FalseSingleton = &ScalarExpr{Op: opt.FalseOp, Typ: types.Bool}
	NullSingleton  = &ScalarExpr{Op: opt.NullOp, Typ: types.Unknown}
)

// MakeVariable constructs a column reference.
func MakeVariable(col opt.ColumnID, typ *types.T) *ScalarExpr {
	return &ScalarExpr{Op: opt.VariableOp, Col: col, Typ: typ}
}

// MakeConst constructs a constant. Boolean and NULL datums fold to the
// dedicated singleton operators so that rules can match them by tag.
func MakeConst(value tree.Datum) *ScalarExpr {
	switch v := value.(type) {
	case tree.DBool:
		if v {
			return TrueSingleton
		}
		return FalseSingleton
	}
	if value == tree.DNull {
		return NullSingleton
	}
	return &ScalarExpr{Op: opt.ConstOp, Value: value, Typ: value.ResolvedType()}
}

// MakeBinary constructs a comparison, arithmetic or boolean binary node.
func MakeBinary(op opt.Operator, left, right *ScalarExpr, typ *types.T) *ScalarExpr {
	return &ScalarExpr{Op: op, Children: []*ScalarExpr{left, right}, Typ: typ}
}

// MakeNot constructs a negation.
func MakeNot(input *ScalarExpr) *ScalarExpr {
	return &ScalarExpr{Op: opt.NotOp, Children: []*ScalarExpr{input}, Typ: types.Bool}
}

// MakeExists constructs an EXISTS predicate over a bound subquery.
func MakeExists(input *Expr, outerCols opt.ColSet) *ScalarExpr {
	return &ScalarExpr{Op: opt.ExistsOp, Input: input, OuterCols: outerCols, Typ: types.Bool}
}

// MakeAggregate constructs an aggregate call. CountRowsOp takes no operand.
func MakeAggregate(op opt.Operator, operand *ScalarExpr, typ *types.T) *ScalarExpr {
	if op == opt.CountRowsOp {
		return &ScalarExpr{Op: op, Typ: typ}
	}
	return &ScalarExpr{Op: op, Children: []*ScalarExpr{operand}, Typ: typ}
}

// IsTrue returns true for the true singleton.
func (s *ScalarExpr) IsTrue() bool { return s.Op == opt.TrueOp }

// IsFalse returns true for the false singleton.
func (s *ScalarExpr) IsFalse() bool { return s.Op == opt.FalseOp }

// OuterRefs returns the set of columns referenced by this scalar tree,
// including columns referenced inside EXISTS subqueries but not produced by
// them.
func (s *ScalarExpr) OuterRefs() opt.ColSet {
	var refs opt.ColSet
	s.collectRefs(&refs)
	return refs
}

func (s *ScalarExpr) collectRefs(refs *opt.ColSet) {
	switch s.Op {
	case opt.VariableOp:
		refs.Add(s.Col)
	case opt.ExistsOp:
		refs.UnionWith(s.OuterCols)
	}
	for _, c := range s.Children {
		c.collectRefs(refs)
	}
}

// ScalarEquals compares two scalar trees structurally. Relational payloads
// of EXISTS nodes are compared with RelEquals.
func ScalarEquals(a, b *ScalarExpr) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Op != b.Op || len(a.Children) != len(b.Children) {
		return false
	}
	switch a.Op {
	case opt.VariableOp:
		if a.Col != b.Col {
			return false
		}
	case opt.ConstOp:
		if a.Value.ResolvedType().Family() != b.Value.ResolvedType().Family() ||
			a.Value.Compare(b.Value) != 0 {
			return false
		}
	case opt.ExistsOp:
		if !a.OuterCols.Equals(b.OuterCols) || !RelEquals(a.Input, b.Input) {
			return false
		}
	}
	for i := range a.Children {
		if !ScalarEquals(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// ExtractConjuncts flattens a tree of AND nodes into the list of its
// conjuncts.
func ExtractConjuncts(s *ScalarExpr) []*ScalarExpr {
	if s == nil {
		return nil
	}
	if s.Op == opt.AndOp {
		left := ExtractConjuncts(s.Children[0])
		return append(left, ExtractConjuncts(s.Children[1])...)
	}
	return []*ScalarExpr{s}
}

// CombineConjuncts rebuilds a single condition from a conjunct list. An
// empty list yields the true singleton.
func CombineConjuncts(conjuncts []*ScalarExpr) *ScalarExpr {
	if len(conjuncts) == 0 {
		return TrueSingleton
	}
	res := conjuncts[0]
	for _, c := range conjuncts[1:] {
		res = MakeBinary(opt.AndOp, res, c, types.Bool)
	}
	return res
}

// IsNullRejecting returns true if the condition cannot evaluate to true when
// any of the given columns is NULL. Comparisons and arithmetic over a column
// yield NULL on NULL input, which a filter treats as false, so any conjunct
// that is a comparison involving one of the columns rejects NULLs for it.
func IsNullRejecting(cond *ScalarExpr, cols opt.ColSet) bool {
	for _, conjunct := range ExtractConjuncts(cond) {
		if conjunct.Op.IsComparison() && conjunct.OuterRefs().Intersects(cols) {
			return true
		}
	}
	return false
}

func (s *ScalarExpr) String() string {
	var buf bytes.Buffer
	s.format(&buf)
	return buf.String()
}

func (s *ScalarExpr) format(buf *bytes.Buffer) {
	switch s.Op {
	case opt.VariableOp:
		fmt.Fprintf(buf, "@%d", s.Col)
	case opt.ConstOp:
		buf.WriteString(s.Value.String())
	case opt.TrueOp:
		buf.WriteString("true")
	case opt.FalseOp:
		buf.WriteString("false")
	case opt.NullOp:
		buf.WriteString("NULL")
	case opt.ExistsOp:
		if s.OuterCols.Empty() {
			buf.WriteString("exists(...)")
		} else {
			fmt.Fprintf(buf, "exists(... outer=%s)", s.OuterCols)
		}
	case opt.NotOp:
		buf.WriteString("NOT ")
		s.Children[0].format(buf)
	case opt.CountRowsOp:
		buf.WriteString("count(*)")
	default:
		if s.Op.IsAggregate() {
			fmt.Fprintf(buf, "%s(", s.Op)
			s.Children[0].format(buf)
			buf.WriteByte(')')
			return
		}
		if len(s.Children) != 2 {
			panic(errors.AssertionFailedf("unexpected scalar operator %s", s.Op))
		}
		buf.WriteByte('(')
		s.Children[0].format(buf)
		fmt.Fprintf(buf, " %s ", scalarOpSymbol(s.Op))
		s.Children[1].format(buf)
		buf.WriteByte(')')
	}
}

func scalarOpSymbol(op opt.Operator) string {
	switch op {
	case opt.AndOp:
		return "AND"
	case opt.OrOp:
		return "OR"
	case opt.EqOp:
		return "="
	case opt.LtOp:
		return "<"
	case opt.GtOp:
		return ">"
	case opt.LeOp:
		return "<="
	case opt.GeOp:
		return ">="
	case opt.NeOp:
		return "!="
	case opt.PlusOp:
		return "+"
	case opt.MinusOp:
		return "-"
	case opt.MultOp:
		return "*"
	case opt.DivOp:
		return "/"
	}
	return op.String()
}
