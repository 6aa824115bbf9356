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
	"github.com/cockroachdb/errors"
)

// GroupID identifies a group within the memo. Group 0 is reserved as
// invalid; the arena is 1-based.
type GroupID int32

// GroupExpr is a relational expression in memo form: its children are group
// references rather than expression pointers. This is what lets structurally
// different but equivalent plans share identical sub-plans instead of
// duplicating them.
type GroupExpr struct {
	// Op is the relational operator tag.
	Op opt.Operator

	// ChildGroups holds the input groups, in order.
	ChildGroups []GroupID

	// Private is the operator payload, same types as Expr.Private.
	Private interface{}
}

// Group is an equivalence class of expressions which have been proven to
// produce the same logical result. Logical and physical members coexist in
// the same group. Members are stored in insertion order, which extraction's
// first-inserted tie-break depends on.
type Group struct {
	// ID is the index of the group in the memo arena.
	ID GroupID

	// Exprs are the member expressions.
	Exprs []*GroupExpr

	// Explored is set once a full exploration pass over the group produced
	// no new members; a later insertion clears it again.
	Explored bool
}

// Memo is a data structure for efficiently storing a forest of query plans.
// Conceptually it is composed of a numbered set of equivalence classes
// called groups where each group contains a set of logically equivalent
// expressions. Two expressions are considered logically equivalent if they
// return the same set of rows (order does not matter, since no ordering
// properties are modeled here).
//
// The memo is built by copying the heuristically rewritten operator tree
// bottom-up into singleton groups. Exploration then adds alternative members
// to existing groups. Before a candidate member is added, it is compared
// structurally (operator, payload, exact child group sequence) against the
// existing members and skipped if already present; this dedup check is what
// guarantees that repeated rule application terminates. For example, join
// commutation expands a memo like this:
//
//	G3: [inner-join [G1 G2]] [inner-join [G2 G1]]
//	G2: [scan b]
//	G1: [scan a]
//
// and applying commutation again produces [inner-join [G1 G2]], which is
// already a member and is skipped.
//
// A Memo is per query: it shares no state with other queries and is
// discarded after extraction.
type Memo struct {
	// Metadata describes the columns and tables used by this query.
	Metadata *opt.Metadata

	// groups is the arena; index = GroupID - 1.
	groups []Group

	// root is the group holding the top of the query.
	root GroupID
}

// Init prepares the memo for use.
func (m *Memo) Init(md *opt.Metadata) {
	m.Metadata = md
	m.groups = m.groups[:0]
	m.root = 0
}

// NumGroups returns the number of groups in the memo.
func (m *Memo) NumGroups() int {
	return len(m.groups)
}

// Group returns the group with the given ID.
func (m *Memo) Group(id GroupID) *Group {
	if id <= 0 || int(id) > len(m.groups) {
		panic(errors.AssertionFailedf("invalid group id %d", id))
	}
	return &m.groups[id-1]
}

// RootGroup returns the group holding the top of the query.
func (m *Memo) RootGroup() GroupID {
	if m.root == 0 {
		panic(errors.AssertionFailedf("memo root is not set"))
	}
	return m.root
}

// SetRoot records the root group.
func (m *Memo) SetRoot(id GroupID) {
	m.root = id
}

// newGroup appends an empty group to the arena.
func (m *Memo) newGroup() GroupID {
	id := GroupID(len(m.groups) + 1)
	m.groups = append(m.groups, Group{ID: id})
	return id
}

// AddTree copies a relational tree into the memo bottom-up, creating a
// singleton group per node, and returns the group holding the tree's root.
func (m *Memo) AddTree(e *Expr) GroupID {
	children := make([]GroupID, len(e.Children))
	for i, child := range e.Children {
		children[i] = m.AddTree(child)
	}
	id := m.newGroup()
	m.Group(id).Exprs = append(m.Group(id).Exprs, &GroupExpr{
		Op:          e.Op,
		ChildGroups: children,
		Private:     e.Private,
	})
	return id
}

// AddExpr inserts a member into the given group unless an identical member
// already exists. It reports whether the insertion happened. This is the
// dedup mechanism that prevents unbounded duplication when a rule is
// applied repeatedly or from multiple directions.
func (m *Memo) AddExpr(grp GroupID, e *GroupExpr) bool {
	g := m.Group(grp)
	for _, existing := range g.Exprs {
		if exprEquals(existing, e) {
			return false
		}
	}
	g.Exprs = append(g.Exprs, e)
	g.Explored = false
	return true
}

func exprEquals(a, b *GroupExpr) bool {
	if a.Op != b.Op || len(a.ChildGroups) != len(b.ChildGroups) {
		return false
	}
	for i := range a.ChildGroups {
		if a.ChildGroups[i] != b.ChildGroups[i] {
			return false
		}
	}
	return PrivateEquals(a.Private, b.Private)
}

// GroupOutputCols returns the set of columns produced by a group. Every
// member of a group produces the same columns, so the first member is
// authoritative.
func (m *Memo) GroupOutputCols(id GroupID) opt.ColSet {
	g := m.Group(id)
	if len(g.Exprs) == 0 {
		panic(errors.AssertionFailedf("group G%d has no members", id))
	}
	e := g.Exprs[0]
	switch e.Op {
	case opt.ScanOp, opt.TableScanOp:
		return e.Private.(*ScanPrivate).Cols.ToSet()

	case opt.SelectOp, opt.FilterOp:
		return m.GroupOutputCols(e.ChildGroups[0])

	case opt.ProjectOp, opt.RenderOp:
		var cols opt.ColSet
		for i := range e.Private.(*ProjectPrivate).Projections {
			cols.Add(e.Private.(*ProjectPrivate).Projections[i].Col)
		}
		return cols

	case opt.InnerJoinOp, opt.LeftJoinOp, opt.CrossJoinOp:
		return m.GroupOutputCols(e.ChildGroups[0]).Union(m.GroupOutputCols(e.ChildGroups[1]))

	case opt.SemiJoinOp, opt.AntiJoinOp, opt.SemiJoinApplyOp, opt.AntiJoinApplyOp:
		return m.GroupOutputCols(e.ChildGroups[0])

	case opt.HashJoinOp, opt.NestedLoopJoinOp:
		var logicalOp opt.Operator
		if p, ok := e.Private.(*HashJoinPrivate); ok {
			logicalOp = p.LogicalOp
		} else {
			logicalOp = e.Private.(*NestedLoopJoinPrivate).LogicalOp
		}
		switch logicalOp {
		case opt.SemiJoinOp, opt.AntiJoinOp:
			return m.GroupOutputCols(e.ChildGroups[0])
		}
		return m.GroupOutputCols(e.ChildGroups[0]).Union(m.GroupOutputCols(e.ChildGroups[1]))

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

// CountExprs returns the total member count across all groups; exploration
// uses it to detect that a pass reached a fixpoint.
func (m *Memo) CountExprs() int {
	n := 0
	for i := range m.groups {
		n += len(m.groups[i].Exprs)
	}
	return n
}

// String renders the memo contents, one group per line, members in
// insertion order. Used by tests and the opt tester.
func (m *Memo) String() string {
	var buf bytes.Buffer
	for i := len(m.groups); i >= 1; i-- {
		g := &m.groups[i-1]
		marker := ""
		if GroupID(i) == m.root {
			marker = " (root)"
		}
		fmt.Fprintf(&buf, "G%d%s:", i, marker)
		for _, e := range g.Exprs {
			buf.WriteString(" [")
			buf.WriteString(e.Op.String())
			for _, c := range e.ChildGroups {
				fmt.Fprintf(&buf, " G%d", c)
			}
			if s := formatPrivate(e.Private, m.Metadata); s != "" {
				fmt.Fprintf(&buf, " %s", s)
			}
			buf.WriteByte(']')
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}
