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
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgcode"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgerror"
	"github.com/bjm1244/raptordb/pkg/sql/sem/tree"
	"github.com/bjm1244/raptordb/pkg/sql/types"
)

// buildAggregation binds a grouped query: the GROUP BY columns, then the
// projection list under grouping rules (every plain column reference must
// be a grouping column, aggregates may reference any input column). The
// result is a Project over a GroupBy.
func (b *Builder) buildAggregation(sel *tree.Select, fromScope, parent *scope) *scope {
	g := &groupbyInfo{}
	for _, ge := range sel.GroupBy {
		un, ok := tree.StripParens(ge).(*tree.UnresolvedName)
		if !ok {
			panic(unsupportedf("GROUP BY expressions must be column references"))
		}
		fromScope.context = "GROUP BY"
		col, foundIn := fromScope.findColumn(un.Qualifier, un.ColumnName)
		fromScope.context = ""
		if foundIn != fromScope {
			panic(unsupportedf("GROUP BY cannot reference the enclosing query"))
		}
		if g.groupingCols.Contains(col.id) {
			continue
		}
		g.groupingCols.Add(col.id)
		g.groupingList = append(g.groupingList, col.id)
	}
	fromScope.groupby = g

	outScope := b.newScope(parent)
	var items []memo.ProjectionsItem
	for i := range sel.Exprs {
		items = b.buildProjection(sel.Exprs[i], fromScope, outScope, items)
	}

	groupBy := memo.MakeGroupBy(fromScope.expr, &memo.GroupByPrivate{
		GroupingCols: g.groupingList,
		Aggregations: g.aggs,
	})
	outScope.expr = memo.MakeProject(groupBy, items)
	return outScope
}

// buildAggregateFunction binds one aggregate call inside the projection
// list of a grouped query and returns a variable referencing the aggregate
// output column.
func (b *Builder) buildAggregateFunction(f *tree.FuncExpr, inScope *scope) *memo.ScalarExpr {
	g := inScope.groupby

	var agg *memo.ScalarExpr
	var typ *types.T
	if f.Star {
		if f.Name != "count" {
			panic(pgerror.Newf(pgcode.Syntax, "%s(*) is not supported", f.Name))
		}
		if len(f.Exprs) != 0 {
			panic(pgerror.Newf(pgcode.Syntax, "count(*) takes no arguments"))
		}
		typ = types.Int
		agg = memo.MakeAggregate(opt.CountRowsOp, nil, typ)
	} else {
		if len(f.Exprs) != 1 {
			panic(pgerror.Newf(pgcode.Syntax,
				"%s() requires exactly one argument", f.Name))
		}
		g.inAgg = true
		operand := b.buildScalar(f.Exprs[0], inScope)
		g.inAgg = false

		op, resultTyp, ok := aggregateOverload(f.Name, operand.Typ)
		if !ok {
			panic(pgerror.Newf(pgcode.DatatypeMismatch,
				"%s() does not accept arguments of type %s", f.Name, operand.Typ))
		}
		typ = resultTyp
		agg = memo.MakeAggregate(op, operand, typ)
	}

	id := b.md.AddColumn(string(f.Name), typ)
	g.aggs = append(g.aggs, memo.AggregationsItem{Agg: agg, Col: id})
	return memo.MakeVariable(id, typ)
}

// aggregateOverload resolves an aggregate name and operand type to the
// aggregate operator and its result type. count accepts any type; sum and
// avg are numeric only; min and max work on any ordered type. avg of an
// int is exact, so it widens to decimal.
func aggregateOverload(name tree.Name, operand *types.T) (opt.Operator, *types.T, bool) {
	switch name {
	case "count":
		return opt.CountOp, types.Int, true
	case "sum":
		if !operand.IsNumeric() {
			return 0, nil, false
		}
		return opt.SumOp, operand, true
	case "avg":
		if !operand.IsNumeric() {
			return 0, nil, false
		}
		if operand.Family() == types.IntFamily {
			return opt.AvgOp, types.Decimal, true
		}
		return opt.AvgOp, operand, true
	case "min":
		return opt.MinOp, operand, true
	case "max":
		return opt.MaxOp, operand, true
	}
	return 0, nil, false
}
