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
	"github.com/bjm1244/raptordb/pkg/util/treeprinter"
)

// FormatExpr renders a tree-form expression for tests and debugging.
func FormatExpr(e *Expr, md *opt.Metadata) string {
	tp := treeprinter.New()
	formatExpr(e, md, tp)
	return tp.String()
}

func formatExpr(e *Expr, md *opt.Metadata, tp treeprinter.Node) {
	var n treeprinter.Node

	switch e.Op {
	case opt.ScanOp, opt.TableScanOp:
		p := e.Private.(*ScanPrivate)
		n = tp.Childf("%s %s", e.Op, md.TableMeta(p.Table).Alias)
		n.Child(formatColList("columns:", p.Cols, md))

	case opt.SelectOp, opt.FilterOp:
		p := e.Private.(*SelectPrivate)
		n = tp.Child(e.Op.String())
		n.Childf("filter: %s", p.Filter)

	case opt.ProjectOp, opt.RenderOp:
		p := e.Private.(*ProjectPrivate)
		n = tp.Child(e.Op.String())
		for i := range p.Projections {
			item := &p.Projections[i]
			n.Childf("%s [as=%s:%d]", item.Element, md.ColumnAlias(item.Col), item.Col)
		}

	case opt.InnerJoinOp, opt.LeftJoinOp, opt.CrossJoinOp, opt.SemiJoinOp,
		opt.AntiJoinOp, opt.SemiJoinApplyOp, opt.AntiJoinApplyOp:
		p := e.Private.(*JoinPrivate)
		n = tp.Child(e.Op.String())
		if !p.On.IsTrue() {
			n.Childf("on: %s", p.On)
		}

	case opt.HashJoinOp:
		p := e.Private.(*HashJoinPrivate)
		n = tp.Childf("hash-join (%s)", p.LogicalOp)
		if !p.On.IsTrue() {
			n.Childf("on: %s", p.On)
		}
		if len(p.LeftEq) > 0 {
			n.Childf("left-eq: %v right-eq: %v", p.LeftEq, p.RightEq)
		}

	case opt.NestedLoopJoinOp:
		p := e.Private.(*NestedLoopJoinPrivate)
		n = tp.Childf("nested-loop-join (%s)", p.LogicalOp)
		if !p.On.IsTrue() {
			n.Childf("on: %s", p.On)
		}

	case opt.GroupByOp, opt.HashGroupByOp:
		p := e.Private.(*GroupByPrivate)
		n = tp.Child(e.Op.String())
		if len(p.GroupingCols) > 0 {
			n.Child(formatColList("grouping:", p.GroupingCols, md))
		}
		for i := range p.Aggregations {
			item := &p.Aggregations[i]
			n.Childf("%s [as=%s:%d]", item.Agg, md.ColumnAlias(item.Col), item.Col)
		}

	default:
		n = tp.Child(e.Op.String())
	}

	for _, child := range e.Children {
		formatExpr(child, md, n)
	}
}

func formatColList(prefix string, cols opt.ColList, md *opt.Metadata) string {
	var buf bytes.Buffer
	buf.WriteString(prefix)
	for _, col := range cols {
		fmt.Fprintf(&buf, " %s:%d", md.QualifiedAlias(col), col)
	}
	return buf.String()
}

// formatPrivate renders a short payload summary for memo group listings.
func formatPrivate(private interface{}, md *opt.Metadata) string {
	switch p := private.(type) {
	case *ScanPrivate:
		return md.TableMeta(p.Table).Alias

	case *SelectPrivate:
		return p.Filter.String()

	case *ProjectPrivate:
		var buf bytes.Buffer
		for i := range p.Projections {
			if i > 0 {
				buf.WriteByte(' ')
			}
			fmt.Fprintf(&buf, "%s:%d", p.Projections[i].Element, p.Projections[i].Col)
		}
		return buf.String()

	case *JoinPrivate:
		if p.On.IsTrue() {
			return ""
		}
		return p.On.String()

	case *HashJoinPrivate:
		if p.On.IsTrue() {
			return fmt.Sprintf("(%s)", p.LogicalOp)
		}
		return fmt.Sprintf("(%s) %s", p.LogicalOp, p.On)

	case *NestedLoopJoinPrivate:
		if p.On.IsTrue() {
			return fmt.Sprintf("(%s)", p.LogicalOp)
		}
		return fmt.Sprintf("(%s) %s", p.LogicalOp, p.On)

	case *GroupByPrivate:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "grouping=%v", p.GroupingCols)
		for i := range p.Aggregations {
			fmt.Fprintf(&buf, " %s:%d", p.Aggregations[i].Agg, p.Aggregations[i].Col)
		}
		return buf.String()
	}
	return ""
}
