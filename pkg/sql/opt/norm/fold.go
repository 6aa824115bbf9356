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

package norm

import (
	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
	"github.com/bjm1244/raptordb/pkg/sql/sem/tree"
	"github.com/bjm1244/raptordb/pkg/sql/types"
)

// foldConstants folds the scalar payloads of the whole tree, including
// subquery bodies. Scalars are not memoized, so this is a plain recursive
// rewrite separate from the rule list.
func (n *Normalizer) foldConstants(e *memo.Expr) {
	switch p := e.Private.(type) {
	case *memo.SelectPrivate:
		p.Filter = n.foldScalar(p.Filter)
	case *memo.ProjectPrivate:
		for i := range p.Projections {
			p.Projections[i].Element = n.foldScalar(p.Projections[i].Element)
		}
	case *memo.JoinPrivate:
		p.On = n.foldScalar(p.On)
	case *memo.HashJoinPrivate:
		p.On = n.foldScalar(p.On)
	case *memo.NestedLoopJoinPrivate:
		p.On = n.foldScalar(p.On)
	case *memo.GroupByPrivate:
		for i := range p.Aggregations {
			p.Aggregations[i].Agg = n.foldScalar(p.Aggregations[i].Agg)
		}
	}
	for _, c := range e.Children {
		n.foldConstants(c)
	}
}

// constDatum extracts the datum of a constant scalar node.
func constDatum(s *memo.ScalarExpr) (tree.Datum, bool) {
	switch s.Op {
	case opt.ConstOp:
		return s.Value, true
	case opt.TrueOp:
		return tree.DBoolTrue, true
	case opt.FalseOp:
		return tree.DBoolFalse, true
	case opt.NullOp:
		return tree.DNull, true
	}
	return nil, false
}

var foldBinaryOps = map[opt.Operator]tree.BinaryOperator{
	opt.PlusOp:  tree.Plus,
	opt.MinusOp: tree.Minus,
	opt.MultOp:  tree.Mult,
	opt.DivOp:   tree.Div,
}

var foldComparisonOps = map[opt.Operator]tree.ComparisonOperator{
	opt.EqOp: tree.EQ,
	opt.NeOp: tree.NE,
	opt.LtOp: tree.LT,
	opt.LeOp: tree.LE,
	opt.GtOp: tree.GT,
	opt.GeOp: tree.GE,
}

// foldScalar folds a scalar tree bottom-up. Foldable errors (division by
// zero) are left in place so they surface at execution time rather than
// during planning.
func (n *Normalizer) foldScalar(s *memo.ScalarExpr) *memo.ScalarExpr {
	if s == nil {
		return nil
	}
	for i := range s.Children {
		s.Children[i] = n.foldScalar(s.Children[i])
	}
	if s.Op == opt.ExistsOp {
		n.foldConstants(s.Input)
		return s
	}

	switch s.Op {
	case opt.AndOp:
		return foldAnd(s)
	case opt.OrOp:
		return foldOr(s)
	case opt.NotOp:
		child := s.Children[0]
		switch child.Op {
		case opt.TrueOp:
			return memo.FalseSingleton
		case opt.FalseOp:
			return memo.TrueSingleton
		case opt.NullOp:
			return memo.NullSingleton
		case opt.NotOp:
			return child.Children[0]
		}
		if neg, ok := child.Op.NegateOp(); ok {
			return memo.MakeBinary(neg, child.Children[0], child.Children[1], types.Bool)
		}
		return s
	}

	if treeOp, ok := foldBinaryOps[s.Op]; ok {
		left, lok := constDatum(s.Children[0])
		right, rok := constDatum(s.Children[1])
		if !lok || !rok {
			return s
		}
		res, err := tree.EvalBinary(treeOp, left, right)
		if err != nil {
			return s
		}
		return memo.MakeConst(res)
	}
	if treeOp, ok := foldComparisonOps[s.Op]; ok {
		left, lok := constDatum(s.Children[0])
		right, rok := constDatum(s.Children[1])
		if !lok || !rok {
			return s
		}
		res, err := tree.EvalComparison(treeOp, left, right)
		if err != nil {
			return s
		}
		return memo.MakeConst(res)
	}
	return s
}

// foldAnd applies the boolean identities for AND. A NULL operand folds
// only against false, which dominates it.
func foldAnd(s *memo.ScalarExpr) *memo.ScalarExpr {
	left, right := s.Children[0], s.Children[1]
	switch {
	case left.IsFalse() || right.IsFalse():
		return memo.FalseSingleton
	case left.IsTrue():
		return right
	case right.IsTrue():
		return left
	}
	return s
}

func foldOr(s *memo.ScalarExpr) *memo.ScalarExpr {
	left, right := s.Children[0], s.Children[1]
	switch {
	case left.IsTrue() || right.IsTrue():
		return memo.TrueSingleton
	case left.IsFalse():
		return right
	case right.IsFalse():
		return left
	}
	return s
}
