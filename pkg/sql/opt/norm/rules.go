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
)

// simplifyFilters merges stacked Select nodes, removes true conjuncts and
// unwraps a Select whose whole condition is true.
func (n *Normalizer) simplifyFilters(e *memo.Expr) (*memo.Expr, bool) {
	if e.Op != opt.SelectOp {
		return e, false
	}
	input := e.Children[0]
	filter := e.Private.(*memo.SelectPrivate).Filter

	if input.Op == opt.SelectOp {
		inner := input.Private.(*memo.SelectPrivate).Filter
		combined := append(memo.ExtractConjuncts(filter), memo.ExtractConjuncts(inner)...)
		return memo.MakeSelect(input.Children[0], memo.CombineConjuncts(combined)), true
	}

	conjuncts := memo.ExtractConjuncts(filter)
	kept := conjuncts[:0]
	for _, c := range conjuncts {
		if !c.IsTrue() {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(conjuncts) {
		return e, false
	}
	if len(kept) == 0 {
		return input, true
	}
	return memo.MakeSelect(input, memo.CombineConjuncts(kept)), true
}

// hoistExists rewrites an EXISTS conjunct of a filter into a semi join
// apply over the subquery body, or an anti join apply for NOT EXISTS:
//
//	Select(x, Exists(sub) AND rest) => Select(SemiJoinApply(x, sub, true), rest)
//
// The subquery's projections are discarded: a semi or anti join only tests
// whether each binding produces a row, and projection never changes that.
func (n *Normalizer) hoistExists(e *memo.Expr) (*memo.Expr, bool) {
	if e.Op != opt.SelectOp {
		return e, false
	}
	filter := e.Private.(*memo.SelectPrivate).Filter
	conjuncts := memo.ExtractConjuncts(filter)

	for i, c := range conjuncts {
		var exists *memo.ScalarExpr
		joinOp := opt.SemiJoinApplyOp
		switch {
		case c.Op == opt.ExistsOp:
			exists = c
		case c.Op == opt.NotOp && c.Children[0].Op == opt.ExistsOp:
			exists = c.Children[0]
			joinOp = opt.AntiJoinApplyOp
		default:
			continue
		}

		body := exists.Input
		for body.Op == opt.ProjectOp {
			body = body.Children[0]
		}
		join := memo.MakeJoin(joinOp, e.Children[0], body, memo.TrueSingleton)

		rest := make([]*memo.ScalarExpr, 0, len(conjuncts)-1)
		rest = append(rest, conjuncts[:i]...)
		rest = append(rest, conjuncts[i+1:]...)
		if len(rest) == 0 {
			return join, true
		}
		return memo.MakeSelect(join, memo.CombineConjuncts(rest)), true
	}
	return e, false
}

// decorrelateApply pulls the correlated conjuncts out of the right side of
// a semi or anti join apply. When nothing correlated remains underneath,
// the apply turns into the plain join form with those conjuncts in its
// condition:
//
//	SemiJoinApply(l, Select(r, p AND local), true) => SemiJoin(l, Select(r, local), p)
func (n *Normalizer) decorrelateApply(e *memo.Expr) (*memo.Expr, bool) {
	plainOp := e.Op.UnApplyOp()
	if plainOp == e.Op {
		return e, false
	}

	left, right := e.Children[0], e.Children[1]
	leftCols := left.OutputCols()

	newRight := right
	var hoisted []*memo.ScalarExpr
	if right.Op == opt.SelectOp {
		var local []*memo.ScalarExpr
		for _, c := range memo.ExtractConjuncts(right.Private.(*memo.SelectPrivate).Filter) {
			if c.OuterRefs().Intersects(leftCols) {
				hoisted = append(hoisted, c)
			} else {
				local = append(local, c)
			}
		}
		if len(hoisted) > 0 {
			if len(local) == 0 {
				newRight = right.Children[0]
			} else {
				newRight = memo.MakeSelect(right.Children[0], memo.CombineConjuncts(local))
			}
		}
	}

	// The rewrite is legal only if no correlation is left below.
	if freeCols(newRight).Intersects(leftCols) {
		return e, false
	}

	on := append(memo.ExtractConjuncts(e.JoinCondition()), hoisted...)
	kept := on[:0]
	for _, c := range on {
		if !c.IsTrue() {
			kept = append(kept, c)
		}
	}
	return memo.MakeJoin(plainOp, left, newRight, memo.CombineConjuncts(kept)), true
}

// pushSelectIntoJoin moves filter conjuncts that only touch one join input
// below the join. A LEFT JOIN preserves unmatched left rows, so only
// left-side conjuncts may move; pushing a right-side conjunct would turn
// padded NULL rows into missing rows.
func (n *Normalizer) pushSelectIntoJoin(e *memo.Expr) (*memo.Expr, bool) {
	if e.Op != opt.SelectOp {
		return e, false
	}
	join := e.Children[0]
	switch join.Op {
	case opt.InnerJoinOp, opt.CrossJoinOp, opt.LeftJoinOp:
	default:
		return e, false
	}
	left, right := join.Children[0], join.Children[1]
	leftCols, rightCols := left.OutputCols(), right.OutputCols()

	var pushLeft, pushRight, remaining []*memo.ScalarExpr
	for _, c := range memo.ExtractConjuncts(e.Private.(*memo.SelectPrivate).Filter) {
		refs := c.OuterRefs()
		switch {
		case refs.SubsetOf(leftCols):
			pushLeft = append(pushLeft, c)
		case join.Op != opt.LeftJoinOp && refs.SubsetOf(rightCols):
			pushRight = append(pushRight, c)
		default:
			remaining = append(remaining, c)
		}
	}
	if len(pushLeft) == 0 && len(pushRight) == 0 {
		return e, false
	}

	if len(pushLeft) > 0 {
		left = memo.MakeSelect(left, memo.CombineConjuncts(pushLeft))
	}
	if len(pushRight) > 0 {
		right = memo.MakeSelect(right, memo.CombineConjuncts(pushRight))
	}
	newJoin := memo.MakeJoin(join.Op, left, right, join.JoinCondition())
	if len(remaining) == 0 {
		return newJoin, true
	}
	return memo.MakeSelect(newJoin, memo.CombineConjuncts(remaining)), true
}

// eliminateLeftJoin converts a LeftJoin under a null-rejecting filter on
// its right-side columns into an InnerJoin: the filter discards every
// NULL-padded row, so preserving unmatched left rows is wasted work.
func (n *Normalizer) eliminateLeftJoin(e *memo.Expr) (*memo.Expr, bool) {
	if e.Op != opt.SelectOp {
		return e, false
	}
	join := e.Children[0]
	if join.Op != opt.LeftJoinOp {
		return e, false
	}
	filter := e.Private.(*memo.SelectPrivate).Filter
	rightCols := join.Children[1].OutputCols()
	if !memo.IsNullRejecting(filter, rightCols) {
		return e, false
	}
	inner := memo.MakeJoin(opt.InnerJoinOp, join.Children[0], join.Children[1], join.JoinCondition())
	return memo.MakeSelect(inner, filter), true
}
