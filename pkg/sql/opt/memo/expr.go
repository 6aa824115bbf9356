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
	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/cockroachdb/errors"
)

// Expr is a relational operator in tree form: an operator tag, an ordered
// list of child nodes and an operator-specific payload. The binder produces
// this form, the heuristic rewriter transforms it in place, and the memo
// copies it into group form for the search.
type Expr struct {
	// Op is the relational operator tag (logical or physical).
	Op opt.Operator

	// Children holds the relational inputs, in order.
	Children []*Expr

	// Private is the operator payload; its concrete type is determined by
	// Op (see the *Private types below).
	Private interface{}
}

// ScanPrivate is the payload of ScanOp and TableScanOp.
type ScanPrivate struct {
	// Table is the metadata occurrence being scanned.
	Table opt.TableID

	// Cols are the IDs of the produced columns, in schema order.
	Cols opt.ColList
}

// SelectPrivate is the payload of SelectOp and FilterOp.
type SelectPrivate struct {
	// Filter is the boolean condition.
	Filter *ScalarExpr
}

// ProjectionsItem is one element of a projection list.
type ProjectionsItem struct {
	// Element computes the output value. A bare VariableOp is a passthrough
	// of an input column.
	Element *ScalarExpr

	// Col is the ID of the output column.
	Col opt.ColumnID
}

// ProjectPrivate is the payload of ProjectOp and RenderOp.
type ProjectPrivate struct {
	Projections []ProjectionsItem
}

// JoinPrivate is the payload of the logical join operators and of
// NestedLoopJoinOp.
type JoinPrivate struct {
	// On is the join condition; the true singleton for unconditional joins.
	On *ScalarExpr
}

// HashJoinPrivate is the payload of HashJoinOp. It extends the join
// condition with the extracted equi-join column pairs used to build the
// hash table. Empty lists are legal and degenerate to a single bucket.
type HashJoinPrivate struct {
	JoinPrivate

	// LogicalOp records which logical join variant this hash join
	// implements (inner, cross, semi, anti).
	LogicalOp opt.Operator

	// LeftEq and RightEq are parallel lists of equated columns.
	LeftEq, RightEq opt.ColList
}

// NestedLoopJoinPrivate is the payload of NestedLoopJoinOp.
type NestedLoopJoinPrivate struct {
	JoinPrivate

	// LogicalOp records which logical join variant is implemented.
	LogicalOp opt.Operator
}

// AggregationsItem is one aggregate computation of a GroupBy.
type AggregationsItem struct {
	// Agg is the aggregate call.
	Agg *ScalarExpr

	// Col is the ID of the output column holding the aggregate result.
	Col opt.ColumnID
}

// GroupByPrivate is the payload of GroupByOp and HashGroupByOp.
type GroupByPrivate struct {
	// GroupingCols are the grouping key columns, in the order they appear
	// in the GROUP BY clause. May be empty (scalar aggregation).
	GroupingCols opt.ColList

	// Aggregations are the aggregate computations.
	Aggregations []AggregationsItem
}

// MakeScan constructs a Scan node.
func MakeScan(table opt.TableID, cols opt.ColList) *Expr {
	return &Expr{Op: opt.ScanOp, Private: &ScanPrivate{Table: table, Cols: cols}}
}

// MakeSelect constructs a Select node over the input.
func MakeSelect(input *Expr, filter *ScalarExpr) *Expr {
	return &Expr{Op: opt.SelectOp, Children: []*Expr{input}, Private: &SelectPrivate{Filter: filter}}
}

// MakeProject constructs a Project node over the input.
func MakeProject(input *Expr, projections []ProjectionsItem) *Expr {
	return &Expr{Op: opt.ProjectOp, Children: []*Expr{input}, Private: &ProjectPrivate{Projections: projections}}
}

// MakeJoin constructs a join node of the given logical variant.
func MakeJoin(op opt.Operator, left, right *Expr, on *ScalarExpr) *Expr {
	if !op.IsJoin() {
		panic(errors.AssertionFailedf("%s is not a join operator", op))
	}
	return &Expr{Op: op, Children: []*Expr{left, right}, Private: &JoinPrivate{On: on}}
}

// MakeGroupBy constructs a GroupBy node over the input.
func MakeGroupBy(input *Expr, private *GroupByPrivate) *Expr {
	return &Expr{Op: opt.GroupByOp, Children: []*Expr{input}, Private: private}
}

// OutputCols returns the set of column IDs produced by the expression.
func (e *Expr) OutputCols() opt.ColSet {
	switch e.Op {
	case opt.ScanOp, opt.TableScanOp:
		return e.Private.(*ScanPrivate).Cols.ToSet()

	case opt.SelectOp, opt.FilterOp:
		return e.Children[0].OutputCols()

	case opt.ProjectOp, opt.RenderOp:
		var cols opt.ColSet
		for i := range e.Private.(*ProjectPrivate).Projections {
			cols.Add(e.Private.(*ProjectPrivate).Projections[i].Col)
		}
		return cols

	case opt.InnerJoinOp, opt.LeftJoinOp, opt.CrossJoinOp:
		return e.Children[0].OutputCols().Union(e.Children[1].OutputCols())

	case opt.SemiJoinOp, opt.AntiJoinOp, opt.SemiJoinApplyOp, opt.AntiJoinApplyOp:
		// Semi and anti joins only pass through the left side.
		return e.Children[0].OutputCols()

	case opt.HashJoinOp:
		return joinOutputCols(e.Private.(*HashJoinPrivate).LogicalOp, e)

	case opt.NestedLoopJoinOp:
		return joinOutputCols(e.Private.(*NestedLoopJoinPrivate).LogicalOp, e)

	case opt.GroupByOp, opt.HashGroupByOp:
		p := e.Private.(*GroupByPrivate)
		var cols opt.ColSet
		for _, c := range p.GroupingCols {
			cols.Add(c)
		}
		for i := range p.Aggregations {
			cols.Add(p.Aggregations[i].Col)
		}
		return cols
	}
	panic(errors.AssertionFailedf("unexpected operator %s", e.Op))
}

func joinOutputCols(logicalOp opt.Operator, e *Expr) opt.ColSet {
	switch logicalOp {
	case opt.SemiJoinOp, opt.AntiJoinOp:
		return e.Children[0].OutputCols()
	}
	return e.Children[0].OutputCols().Union(e.Children[1].OutputCols())
}

// RelEquals compares two relational trees structurally: same operators,
// same payloads, same children in the same order.
func RelEquals(a, b *Expr) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Op != b.Op || len(a.Children) != len(b.Children) {
		return false
	}
	if !PrivateEquals(a.Private, b.Private) {
		return false
	}
	for i := range a.Children {
		if !RelEquals(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// PrivateEquals compares two operator payloads of the same underlying type.
func PrivateEquals(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	switch ap := a.(type) {
	case *ScanPrivate:
		bp, ok := b.(*ScanPrivate)
		return ok && ap.Table == bp.Table && ap.Cols.Equals(bp.Cols)

	case *SelectPrivate:
		bp, ok := b.(*SelectPrivate)
		return ok && ScalarEquals(ap.Filter, bp.Filter)

	case *ProjectPrivate:
		bp, ok := b.(*ProjectPrivate)
		if !ok || len(ap.Projections) != len(bp.Projections) {
			return false
		}
		for i := range ap.Projections {
			if ap.Projections[i].Col != bp.Projections[i].Col ||
				!ScalarEquals(ap.Projections[i].Element, bp.Projections[i].Element) {
				return false
			}
		}
		return true

	case *JoinPrivate:
		bp, ok := b.(*JoinPrivate)
		return ok && ScalarEquals(ap.On, bp.On)

	case *HashJoinPrivate:
		bp, ok := b.(*HashJoinPrivate)
		return ok && ap.LogicalOp == bp.LogicalOp && ScalarEquals(ap.On, bp.On) &&
			ap.LeftEq.Equals(bp.LeftEq) && ap.RightEq.Equals(bp.RightEq)

	case *NestedLoopJoinPrivate:
		bp, ok := b.(*NestedLoopJoinPrivate)
		return ok && ap.LogicalOp == bp.LogicalOp && ScalarEquals(ap.On, bp.On)

	case *GroupByPrivate:
		bp, ok := b.(*GroupByPrivate)
		if !ok || !ap.GroupingCols.Equals(bp.GroupingCols) ||
			len(ap.Aggregations) != len(bp.Aggregations) {
			return false
		}
		for i := range ap.Aggregations {
			if ap.Aggregations[i].Col != bp.Aggregations[i].Col ||
				!ScalarEquals(ap.Aggregations[i].Agg, bp.Aggregations[i].Agg) {
				return false
			}
		}
		return true
	}
	panic(errors.AssertionFailedf("unexpected private type %T", a))
}

// JoinCondition returns the join condition of any join node, logical or
// physical.
func (e *Expr) JoinCondition() *ScalarExpr {
	switch p := e.Private.(type) {
	case *JoinPrivate:
		return p.On
	case *HashJoinPrivate:
		return p.On
	case *NestedLoopJoinPrivate:
		return p.On
	}
	panic(errors.AssertionFailedf("%s has no join condition", e.Op))
}
