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
	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/opt/cat"
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgcode"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgerror"
	"github.com/bjm1244/raptordb/pkg/sql/sem/tree"
	"github.com/bjm1244/raptordb/pkg/sql/types"
)

// buildSelect binds a SELECT statement bottom-up: FROM, then WHERE, then
// grouping and projections. parent is the enclosing frame, or nil at the
// top level. The returned scope exposes the projected columns and holds
// the bound relational expression.
func (b *Builder) buildSelect(sel *tree.Select, parent *scope) *scope {
	fromScope := b.buildFrom(sel.From, parent)

	if sel.Where != nil {
		fromScope.context = "WHERE"
		filter := b.buildScalar(sel.Where, fromScope)
		if !filter.Typ.Equivalent(types.Bool) {
			panic(pgerror.Newf(pgcode.DatatypeMismatch,
				"argument of WHERE must be type bool, not type %s", filter.Typ))
		}
		fromScope.context = ""
		fromScope.expr = memo.MakeSelect(fromScope.expr, filter)
	}

	if len(sel.GroupBy) > 0 || b.hasAggregates(sel.Exprs) {
		return b.buildAggregation(sel, fromScope, parent)
	}
	return b.buildProjectionList(sel.Exprs, fromScope, parent)
}

// hasAggregates reports whether any projection target contains an
// aggregate function call.
func (b *Builder) hasAggregates(exprs tree.SelectExprs) bool {
	for i := range exprs {
		if exprContainsAggregate(exprs[i].Expr) {
			return true
		}
	}
	return false
}

func exprContainsAggregate(e tree.Expr) bool {
	switch t := e.(type) {
	case *tree.FuncExpr:
		return tree.AggregateNames[t.Name]
	case *tree.BinaryExpr:
		return exprContainsAggregate(t.Left) || exprContainsAggregate(t.Right)
	case *tree.ComparisonExpr:
		return exprContainsAggregate(t.Left) || exprContainsAggregate(t.Right)
	case *tree.AndExpr:
		return exprContainsAggregate(t.Left) || exprContainsAggregate(t.Right)
	case *tree.OrExpr:
		return exprContainsAggregate(t.Left) || exprContainsAggregate(t.Right)
	case *tree.NotExpr:
		return exprContainsAggregate(t.Expr)
	case *tree.ParenExpr:
		return exprContainsAggregate(t.Expr)
	}
	return false
}

// buildFrom binds the FROM clause. Multiple FROM elements fold left to
// right into cross joins. An empty FROM is not supported.
func (b *Builder) buildFrom(from tree.TableExprs, parent *scope) *scope {
	if len(from) == 0 {
		panic(unsupportedf("SELECT without FROM is not supported"))
	}
	outScope := b.buildDataSource(from[0], parent)
	for _, te := range from[1:] {
		rightScope := b.buildDataSource(te, parent)
		outScope = b.mergeJoinScopes(outScope, rightScope, parent)
		outScope.expr = memo.MakeJoin(
			opt.CrossJoinOp, outScope.expr, rightScope.expr, memo.TrueSingleton)
	}
	return outScope
}

// buildDataSource binds one FROM element into its own frame, a child of
// parent. Sibling FROM elements never see each other's columns.
func (b *Builder) buildDataSource(te tree.TableExpr, parent *scope) *scope {
	switch t := te.(type) {
	case *tree.TableName:
		return b.buildTable(t, t.TableName, parent)

	case *tree.AliasedTableExpr:
		if t.As == "" {
			return b.buildDataSource(t.Expr, parent)
		}
		switch inner := t.Expr.(type) {
		case *tree.TableName:
			return b.buildTable(inner, t.As, parent)
		case *tree.Subquery:
			return b.buildDerivedTable(inner, t.As, parent)
		default:
			panic(unsupportedf("cannot alias %T", t.Expr))
		}

	case *tree.Subquery:
		panic(pgerror.Newf(pgcode.Syntax,
			"subquery in FROM must have an alias"))

	case *tree.JoinTableExpr:
		return b.buildJoin(t, parent)
	}
	panic(unsupportedf("unsupported FROM element: %T", te))
}

// buildTable resolves a base table and binds it as a Scan. Each mention of
// a table gets a fresh metadata occurrence, so self joins produce distinct
// column IDs for each side.
func (b *Builder) buildTable(tn *tree.TableName, alias tree.Name, parent *scope) *scope {
	ds, err := b.catalog.ResolveDataSource(b.ctx, tn)
	if err != nil {
		panic(err)
	}
	tab, ok := ds.(cat.Table)
	if !ok {
		panic(pgerror.Newf(pgcode.UndefinedTable,
			"%q is not a table", tree.Name(tn.String())))
	}

	tabID := b.md.AddTable(tab, string(alias))
	outScope := b.newScope(parent)
	cols := make(opt.ColList, tab.ColumnCount())
	for i := 0; i < tab.ColumnCount(); i++ {
		col := tab.Column(i)
		id := tabID.ColumnID(i)
		cols[i] = id
		outScope.cols = append(outScope.cols, scopeColumn{
			name:  col.ColName(),
			table: alias,
			typ:   col.DatumType(),
			id:    id,
		})
	}
	outScope.expr = memo.MakeScan(tabID, cols)
	return outScope
}

// buildDerivedTable binds a subquery in FROM. The body may not reference
// the enclosing query.
func (b *Builder) buildDerivedTable(sub *tree.Subquery, alias tree.Name, parent *scope) *scope {
	b.pushSubquery(parent, false /* allowOuter */, "subquery in FROM")
	defer b.popSubquery()

	innerScope := b.buildSelect(sub.Select, parent)

	// Requalify the visible columns with the derived table alias.
	outScope := b.newScope(parent)
	outScope.expr = innerScope.expr
	for i := range innerScope.cols {
		col := innerScope.cols[i]
		if col.hidden {
			continue
		}
		col.table = alias
		outScope.cols = append(outScope.cols, col)
	}
	return outScope
}

// buildJoin binds both join operands as siblings, merges their frames and
// binds the ON condition in the merged frame.
func (b *Builder) buildJoin(j *tree.JoinTableExpr, parent *scope) *scope {
	leftScope := b.buildDataSource(j.Left, parent)
	rightScope := b.buildDataSource(j.Right, parent)
	outScope := b.mergeJoinScopes(leftScope, rightScope, parent)

	var on *memo.ScalarExpr
	if j.Cond != nil {
		outScope.context = "ON"
		on = b.buildScalar(j.Cond, outScope)
		if !on.Typ.Equivalent(types.Bool) {
			panic(pgerror.Newf(pgcode.DatatypeMismatch,
				"argument of JOIN/ON must be type bool, not type %s", on.Typ))
		}
		outScope.context = ""
	} else {
		on = memo.TrueSingleton
	}

	var op opt.Operator
	switch j.JoinType {
	case tree.JoinInner:
		op = opt.InnerJoinOp
		if j.Cond == nil {
			op = opt.CrossJoinOp
		}
	case tree.JoinLeft:
		if j.Cond == nil {
			panic(pgerror.Newf(pgcode.Syntax, "LEFT JOIN requires an ON clause"))
		}
		op = opt.LeftJoinOp
	case tree.JoinCross:
		if j.Cond != nil {
			panic(pgerror.Newf(pgcode.Syntax, "CROSS JOIN cannot have an ON clause"))
		}
		op = opt.CrossJoinOp
	default:
		panic(unsupportedf("unsupported join type: %s", j.JoinType))
	}

	outScope.expr = memo.MakeJoin(op, leftScope.expr, rightScope.expr, on)
	return outScope
}

// mergeJoinScopes builds the joined frame: the ordered union of the left
// and right columns. Same-named columns from the two sides coexist; an
// unqualified reference to such a name is ambiguous, a qualified one is
// not. Reusing an alias on both sides is an error.
func (b *Builder) mergeJoinScopes(leftScope, rightScope, parent *scope) *scope {
	for i := range rightScope.cols {
		alias := rightScope.cols[i].table
		if alias != "" && leftScope.hasTable(alias) {
			panic(pgerror.Newf(pgcode.DuplicateAlias,
				"table name %q specified more than once", alias))
		}
	}
	outScope := b.newScope(parent)
	outScope.appendColumnsFrom(leftScope)
	outScope.appendColumnsFrom(rightScope)
	return outScope
}

// buildProjectionList binds the projection targets of an ungrouped query
// and wraps the input in a Project. Wildcards expand to the visible input
// columns in their original order.
func (b *Builder) buildProjectionList(
	exprs tree.SelectExprs, fromScope, parent *scope,
) *scope {
	outScope := b.newScope(parent)
	var items []memo.ProjectionsItem
	for i := range exprs {
		items = b.buildProjection(exprs[i], fromScope, outScope, items)
	}
	outScope.expr = memo.MakeProject(fromScope.expr, items)
	return outScope
}

// buildProjection binds one projection target, appending the resulting
// items and output columns.
func (b *Builder) buildProjection(
	pe tree.SelectExpr, fromScope, outScope *scope, items []memo.ProjectionsItem,
) []memo.ProjectionsItem {
	switch t := tree.StripParens(pe.Expr).(type) {
	case tree.UnqualifiedStar:
		if pe.As != "" {
			panic(pgerror.Newf(pgcode.Syntax, "cannot alias %q", "*"))
		}
		return b.expandStar("", fromScope, outScope, items)

	case *tree.UnresolvedName:
		if t.ColumnName == "*" {
			if pe.As != "" {
				panic(pgerror.Newf(pgcode.Syntax, "cannot alias %q", t))
			}
			return b.expandStar(t.Qualifier, fromScope, outScope, items)
		}
	}

	fromScope.context = "SELECT"
	scalar := b.buildScalar(pe.Expr, fromScope)
	fromScope.context = ""

	name := pe.As
	if name == "" {
		if un, ok := tree.StripParens(pe.Expr).(*tree.UnresolvedName); ok {
			name = un.ColumnName
		}
	}

	// A bare column reference keeps its identity. Anything else becomes a
	// synthesized column.
	if scalar.Op == opt.VariableOp && pe.As == "" {
		outScope.cols = append(outScope.cols, scopeColumn{
			name: name, typ: scalar.Typ, id: scalar.Col,
		})
		return append(items, memo.ProjectionsItem{Element: scalar, Col: scalar.Col})
	}

	id := b.md.AddColumn(string(name), scalar.Typ)
	outScope.cols = append(outScope.cols, scopeColumn{
		name: name, typ: scalar.Typ, id: id,
	})
	return append(items, memo.ProjectionsItem{Element: scalar, Col: id})
}

// expandStar expands "*" or "alias.*" to passthrough projections of the
// visible input columns, in insertion order.
func (b *Builder) expandStar(
	qualifier tree.Name, fromScope, outScope *scope, items []memo.ProjectionsItem,
) []memo.ProjectionsItem {
	if qualifier != "" && !fromScope.hasTable(qualifier) {
		panic(pgerror.Newf(pgcode.UndefinedTable,
			"table %q does not exist in FROM clause", qualifier))
	}
	found := false
	for i := range fromScope.cols {
		col := &fromScope.cols[i]
		if col.hidden {
			continue
		}
		if qualifier != "" && col.table != qualifier {
			continue
		}
		if fromScope.groupby != nil && !fromScope.groupby.groupingCols.Contains(col.id) {
			panic(pgerror.Newf(pgcode.Grouping,
				"column %q must appear in the GROUP BY clause or be used in an aggregate function", col))
		}
		found = true
		outScope.cols = append(outScope.cols, scopeColumn{
			name: col.name, table: col.table, typ: col.typ, id: col.id,
		})
		items = append(items, memo.ProjectionsItem{
			Element: memo.MakeVariable(col.id, col.typ), Col: col.id,
		})
	}
	if !found {
		panic(pgerror.Newf(pgcode.Syntax, "%q expanded to zero columns", "*"))
	}
	return items
}
