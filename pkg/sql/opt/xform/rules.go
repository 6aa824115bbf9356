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

package xform

import (
	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
)

// pattern describes the shape a rule matches: the operator kinds accepted
// at the root, and optional per-child kind constraints. A nil child entry
// leaves that child unconstrained; a child constraint is satisfied when the
// child group contains at least one member of an allowed kind.
type pattern struct {
	root  []opt.Operator
	child [][]opt.Operator
}

// Rule is an immutable, stateless rewrite: a pattern plus an apply step
// that yields zero or more replacement members for the matched expression's
// group. Transformation rules yield logical members and are applied to
// fixpoint; implementation rules yield physical members and are applied
// once per logical member.
type Rule struct {
	Name    string
	pattern pattern
	apply   func(o *Optimizer, e *memo.GroupExpr) []*memo.GroupExpr
}

func opIn(op opt.Operator, ops []opt.Operator) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

// matches checks the rule pattern against a member.
func (o *Optimizer) matches(e *memo.GroupExpr, p pattern) bool {
	if !opIn(e.Op, p.root) {
		return false
	}
	for i, allowed := range p.child {
		if allowed == nil || i >= len(e.ChildGroups) {
			continue
		}
		found := false
		for _, m := range o.mem.Group(e.ChildGroups[i]).Exprs {
			if opIn(m.Op, allowed) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

var joinOps = []opt.Operator{
	opt.InnerJoinOp, opt.LeftJoinOp, opt.CrossJoinOp, opt.SemiJoinOp, opt.AntiJoinOp,
}

// transformationRules generate logical alternatives.
var transformationRules = []Rule{
	{
		Name:    "CommuteInnerJoin",
		pattern: pattern{root: []opt.Operator{opt.InnerJoinOp}},
		apply:   commuteJoin,
	},
	{
		Name:    "CommuteCrossJoin",
		pattern: pattern{root: []opt.Operator{opt.CrossJoinOp}},
		apply:   commuteJoin,
	},
}

// commuteJoin swaps the join inputs. The condition is symmetric in the
// inputs, so it carries over unchanged. Applying the rule to its own output
// regenerates the original member, which the insertion dedup then skips.
func commuteJoin(o *Optimizer, e *memo.GroupExpr) []*memo.GroupExpr {
	return []*memo.GroupExpr{{
		Op:          e.Op,
		ChildGroups: []memo.GroupID{e.ChildGroups[1], e.ChildGroups[0]},
		Private:     e.Private,
	}}
}

// implementationRules map each logical operator to its physical
// counterparts within the same group.
var implementationRules = []Rule{
	{
		Name:    "ImplementScan",
		pattern: pattern{root: []opt.Operator{opt.ScanOp}},
		apply: func(o *Optimizer, e *memo.GroupExpr) []*memo.GroupExpr {
			return []*memo.GroupExpr{{Op: opt.TableScanOp, Private: e.Private}}
		},
	},
	{
		Name:    "ImplementSelect",
		pattern: pattern{root: []opt.Operator{opt.SelectOp}},
		apply: func(o *Optimizer, e *memo.GroupExpr) []*memo.GroupExpr {
			return []*memo.GroupExpr{{
				Op: opt.FilterOp, ChildGroups: e.ChildGroups, Private: e.Private,
			}}
		},
	},
	{
		Name:    "ImplementProject",
		pattern: pattern{root: []opt.Operator{opt.ProjectOp}},
		apply: func(o *Optimizer, e *memo.GroupExpr) []*memo.GroupExpr {
			return []*memo.GroupExpr{{
				Op: opt.RenderOp, ChildGroups: e.ChildGroups, Private: e.Private,
			}}
		},
	},
	{
		Name:    "ImplementGroupBy",
		pattern: pattern{root: []opt.Operator{opt.GroupByOp}},
		apply: func(o *Optimizer, e *memo.GroupExpr) []*memo.GroupExpr {
			return []*memo.GroupExpr{{
				Op: opt.HashGroupByOp, ChildGroups: e.ChildGroups, Private: e.Private,
			}}
		},
	},
	{
		Name:    "ImplementHashJoin",
		pattern: pattern{root: joinOps},
		apply:   implementHashJoin,
	},
	{
		Name:    "ImplementNestedLoopJoin",
		pattern: pattern{root: joinOps},
		apply:   implementNestedLoopJoin,
	},
}

// implementHashJoin builds a hash join member. Equality conjuncts between
// the two inputs become the bucket key; everything else stays behind as a
// residual condition checked per candidate pair. With no equality columns
// at all the join degenerates to a single bucket, which keeps cross joins
// executable by either join implementation.
func implementHashJoin(o *Optimizer, e *memo.GroupExpr) []*memo.GroupExpr {
	leftCols := o.mem.GroupOutputCols(e.ChildGroups[0])
	rightCols := o.mem.GroupOutputCols(e.ChildGroups[1])

	var leftEq, rightEq opt.ColList
	var residual []*memo.ScalarExpr
	on := e.Private.(*memo.JoinPrivate).On
	for _, c := range memo.ExtractConjuncts(on) {
		if l, r, ok := extractEquiPair(c, leftCols, rightCols); ok {
			leftEq = append(leftEq, l)
			rightEq = append(rightEq, r)
			continue
		}
		if !c.IsTrue() {
			residual = append(residual, c)
		}
	}

	return []*memo.GroupExpr{{
		Op:          opt.HashJoinOp,
		ChildGroups: e.ChildGroups,
		Private: &memo.HashJoinPrivate{
			JoinPrivate: memo.JoinPrivate{On: memo.CombineConjuncts(residual)},
			LogicalOp:   e.Op,
			LeftEq:      leftEq,
			RightEq:     rightEq,
		},
	}}
}

// extractEquiPair recognizes a conjunct of the form left.col = right.col.
func extractEquiPair(
	c *memo.ScalarExpr, leftCols, rightCols opt.ColSet,
) (left, right opt.ColumnID, ok bool) {
	if c.Op != opt.EqOp ||
		c.Children[0].Op != opt.VariableOp || c.Children[1].Op != opt.VariableOp {
		return 0, 0, false
	}
	a, b := c.Children[0].Col, c.Children[1].Col
	switch {
	case leftCols.Contains(a) && rightCols.Contains(b):
		return a, b, true
	case leftCols.Contains(b) && rightCols.Contains(a):
		return b, a, true
	}
	return 0, 0, false
}

func implementNestedLoopJoin(o *Optimizer, e *memo.GroupExpr) []*memo.GroupExpr {
	return []*memo.GroupExpr{{
		Op:          opt.NestedLoopJoinOp,
		ChildGroups: e.ChildGroups,
		Private: &memo.NestedLoopJoinPrivate{
			JoinPrivate: memo.JoinPrivate{On: e.Private.(*memo.JoinPrivate).On},
			LogicalOp:   e.Op,
		},
	}}
}
