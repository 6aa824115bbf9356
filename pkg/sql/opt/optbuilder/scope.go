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

package optbuilder

import (
	"strings"

	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgcode"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgerror"
	"github.com/bjm1244/raptordb/pkg/sql/sem/tree"
)

// scope implements the binder's name resolution frame. A new frame is
// pushed when the builder enters a relational subtree (a FROM element, a
// subquery body), and resolution of an unresolved column name walks the
// parent chain from the innermost frame outward. Frames are allocated from
// the builder's arena and are never mutated through the parent link.
type scope struct {
	builder *Builder
	parent  *scope
	cols    []scopeColumn

	// expr is the relational expression the columns of this scope are
	// produced by.
	expr *memo.Expr

	// groupby holds the aggregation state while the projection list of a
	// grouped query is being built.
	groupby *groupbyInfo

	// context is the name of the clause currently being built, used for
	// error messages ("WHERE", "GROUP BY").
	context string
}

// groupbyInfo accumulates the grouping keys and the aggregate functions
// discovered while binding the projection list of a grouped query.
type groupbyInfo struct {
	groupingCols opt.ColSet
	groupingList opt.ColList
	aggs         []memo.AggregationsItem

	// inAgg is true while the argument of an aggregate function is being
	// bound. Inside an aggregate any input column may be referenced, not
	// just the grouping columns.
	inAgg bool
}

// push allocates a child frame of s.
func (s *scope) push() *scope {
	r := s.builder.allocScope()
	r.parent = s
	return r
}

// appendColumnsFrom adds copies of all the columns of src, preserving
// order. Duplicate names are allowed; they become ambiguous to reference
// but are still projected by a wildcard.
func (s *scope) appendColumnsFrom(src *scope) {
	s.cols = append(s.cols, src.cols...)
}

// hasTable reports whether any column of this frame is qualified by the
// given alias.
func (s *scope) hasTable(alias tree.Name) bool {
	for i := range s.cols {
		if s.cols[i].table == alias {
			return true
		}
	}
	return false
}

// findColumn resolves a possibly qualified column name against this frame
// and, failing that, its ancestors. The second return value is the frame
// in which the column was found; a frame other than s means the reference
// is correlated. An ambiguous or unknown name raises a builder error.
func (s *scope) findColumn(qualifier, name tree.Name) (*scopeColumn, *scope) {
	for curr := s; curr != nil; curr = curr.parent {
		if col := curr.findLocalColumn(qualifier, name); col != nil {
			return col, curr
		}
	}
	if qualifier != "" {
		panic(pgerror.Newf(pgcode.UndefinedColumn,
			"column %q does not exist", string(qualifier)+"."+string(name)))
	}
	panic(pgerror.Newf(pgcode.UndefinedColumn, "column %q does not exist", name))
}

// findLocalColumn searches only this frame. It returns nil when the name
// does not match any column, and raises an error when the match is
// ambiguous.
func (s *scope) findLocalColumn(qualifier, name tree.Name) *scopeColumn {
	var found *scopeColumn
	for i := range s.cols {
		col := &s.cols[i]
		if col.name != name || col.hidden {
			continue
		}
		if qualifier != "" {
			if col.table != qualifier {
				continue
			}
			return col
		}
		if found != nil {
			panic(pgerror.Newf(pgcode.AmbiguousColumn,
				"column reference %q is ambiguous (candidates: %s)",
				name, s.candidateNames(name)))
		}
		found = col
	}
	return found
}

func (s *scope) candidateNames(name tree.Name) string {
	var sb strings.Builder
	for i := range s.cols {
		if s.cols[i].name != name || s.cols[i].hidden {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(s.cols[i].String())
	}
	return sb.String()
}

// colSet returns the set of column IDs exposed by this frame.
func (s *scope) colSet() opt.ColSet {
	var set opt.ColSet
	for i := range s.cols {
		set.Add(s.cols[i].id)
	}
	return set
}

// colList returns the column IDs exposed by this frame in order.
func (s *scope) colList() opt.ColList {
	list := make(opt.ColList, len(s.cols))
	for i := range s.cols {
		list[i] = s.cols[i].id
	}
	return list
}
