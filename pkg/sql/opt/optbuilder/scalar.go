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

// buildScalar type-checks and binds a scalar expression against inScope.
// Every name is resolved to a column variable, every operator is resolved
// against its overloads, and the result carries a semantic type.
func (b *Builder) buildScalar(expr tree.Expr, inScope *scope) *memo.ScalarExpr {
	switch t := expr.(type) {
	case *tree.ParenExpr:
		return b.buildScalar(t.Expr, inScope)

	case *tree.UnresolvedName:
		return b.buildVariable(t, inScope)

	case *tree.Literal:
		return memo.MakeConst(t.Value)

	case *tree.AndExpr:
		left := b.buildBoolOperand(t.Left, inScope, "AND")
		right := b.buildBoolOperand(t.Right, inScope, "AND")
		return memo.MakeBinary(opt.AndOp, left, right, types.Bool)

	case *tree.OrExpr:
		left := b.buildBoolOperand(t.Left, inScope, "OR")
		right := b.buildBoolOperand(t.Right, inScope, "OR")
		return memo.MakeBinary(opt.OrOp, left, right, types.Bool)

	case *tree.NotExpr:
		return memo.MakeNot(b.buildBoolOperand(t.Expr, inScope, "NOT"))

	case *tree.ComparisonExpr:
		return b.buildComparison(t, inScope)

	case *tree.BinaryExpr:
		return b.buildBinary(t, inScope)

	case *tree.FuncExpr:
		return b.buildFunction(t, inScope)

	case *tree.ExistsExpr:
		return b.buildExists(t, inScope)

	case *tree.Subquery:
		panic(unsupportedf("scalar subqueries are not supported"))

	case tree.UnqualifiedStar:
		panic(pgerror.Newf(pgcode.Syntax, "%q may only appear in a projection list", "*"))
	}
	panic(unsupportedf("unsupported expression: %T", expr))
}

// buildVariable resolves a column reference. Resolution in an ancestor
// frame marks the reference as an outer reference of every subquery whose
// boundary it crossed.
func (b *Builder) buildVariable(un *tree.UnresolvedName, inScope *scope) *memo.ScalarExpr {
	col, foundIn := inScope.findColumn(un.Qualifier, un.ColumnName)
	if foundIn != inScope {
		b.markOuterRefs(foundIn, col.id)
	}
	if inScope.groupby != nil && !inScope.groupby.inAgg && foundIn == inScope &&
		!inScope.groupby.groupingCols.Contains(col.id) {
		panic(pgerror.Newf(pgcode.Grouping,
			"column %q must appear in the GROUP BY clause or be used in an aggregate function", col))
	}
	return memo.MakeVariable(col.id, col.typ)
}

func (b *Builder) buildBoolOperand(expr tree.Expr, inScope *scope, op string) *memo.ScalarExpr {
	operand := b.buildScalar(expr, inScope)
	if !operand.Typ.Equivalent(types.Bool) {
		panic(pgerror.Newf(pgcode.DatatypeMismatch,
			"argument of %s must be type bool, not type %s", op, operand.Typ))
	}
	return operand
}

var comparisonOps = [...]opt.Operator{
	tree.EQ: opt.EqOp,
	tree.LT: opt.LtOp,
	tree.GT: opt.GtOp,
	tree.LE: opt.LeOp,
	tree.GE: opt.GeOp,
	tree.NE: opt.NeOp,
}

// buildComparison binds a comparison. Both operands must belong to the
// same family, except that the numeric families compare with each other
// through implicit widening.
func (b *Builder) buildComparison(cmp *tree.ComparisonExpr, inScope *scope) *memo.ScalarExpr {
	left := b.buildScalar(cmp.Left, inScope)
	right := b.buildScalar(cmp.Right, inScope)
	if !comparableTypes(left.Typ, right.Typ) {
		panic(pgerror.Newf(pgcode.DatatypeMismatch,
			"unsupported comparison operator: <%s> %s <%s>",
			left.Typ, cmp.Operator, right.Typ))
	}
	return memo.MakeBinary(comparisonOps[cmp.Operator], left, right, types.Bool)
}

func comparableTypes(left, right *types.T) bool {
	if left.IsNumeric() && right.IsNumeric() {
		return true
	}
	return left.Equivalent(right)
}

var binaryOps = [...]opt.Operator{
	tree.Plus:  opt.PlusOp,
	tree.Minus: opt.MinusOp,
	tree.Mult:  opt.MultOp,
	tree.Div:   opt.DivOp,
}

// arithResultType resolves the overload of an arithmetic operator. The
// overloads are declared per family pair; an int operand widens implicitly
// to float or decimal when paired with one.
func arithResultType(op tree.BinaryOperator, left, right *types.T) (*types.T, bool) {
	if !left.IsNumeric() || !right.IsNumeric() {
		if left.Family() == types.UnknownFamily || right.Family() == types.UnknownFamily {
			return types.Unknown, true
		}
		return nil, false
	}
	lf, rf := left.Family(), right.Family()
	switch {
	case lf == types.DecimalFamily || rf == types.DecimalFamily:
		// float/decimal mixes need an explicit cast.
		if lf == types.FloatFamily || rf == types.FloatFamily {
			return nil, false
		}
		return types.Decimal, true
	case lf == types.FloatFamily || rf == types.FloatFamily:
		return types.Float, true
	default:
		if op == tree.Div {
			return types.Decimal, true
		}
		return types.Int, true
	}
}

func (b *Builder) buildBinary(bin *tree.BinaryExpr, inScope *scope) *memo.ScalarExpr {
	left := b.buildScalar(bin.Left, inScope)
	right := b.buildScalar(bin.Right, inScope)
	typ, ok := arithResultType(bin.Operator, left.Typ, right.Typ)
	if !ok {
		panic(pgerror.Newf(pgcode.DatatypeMismatch,
			"unsupported binary operator: <%s> %s <%s>",
			left.Typ, bin.Operator, right.Typ))
	}
	return memo.MakeBinary(binaryOps[bin.Operator], left, right, typ)
}

// buildFunction binds a function call. Only the aggregates are known, and
// those are legal only in the projection list of a grouped query; scalar
// functions do not exist in this dialect.
func (b *Builder) buildFunction(f *tree.FuncExpr, inScope *scope) *memo.ScalarExpr {
	if !tree.AggregateNames[f.Name] {
		panic(pgerror.Newf(pgcode.UndefinedColumn, "unknown function: %s()", f.Name))
	}
	if inScope.groupby == nil {
		panic(pgerror.Newf(pgcode.Grouping,
			"aggregate functions are not allowed in %s", clauseName(inScope)))
	}
	if inScope.groupby.inAgg {
		panic(pgerror.Newf(pgcode.Grouping, "aggregate function calls cannot be nested"))
	}
	return b.buildAggregateFunction(f, inScope)
}

func clauseName(s *scope) string {
	if s.context != "" {
		return s.context
	}
	return "this context"
}

// buildExists binds an EXISTS or NOT EXISTS predicate. The subquery body
// is bound in a child frame of inScope; columns it resolves outside itself
// become the outer columns of the resulting scalar, which marks the
// subquery as correlated.
func (b *Builder) buildExists(e *tree.ExistsExpr, inScope *scope) *memo.ScalarExpr {
	ctx := b.pushSubquery(inScope, true /* allowOuter */, "EXISTS subquery")
	defer b.popSubquery()

	subScope := b.buildSelect(e.Subquery.Select, inScope)
	exists := memo.MakeExists(subScope.expr, ctx.outerCols)
	if e.Not {
		return memo.MakeNot(exists)
	}
	return exists
}
