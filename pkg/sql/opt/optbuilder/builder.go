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

// Package optbuilder translates a parsed SELECT statement into a tree of
// bound relational expressions. Binding resolves every table and column
// name against the catalog and the enclosing scopes, assigns stable column
// identifiers, type-checks every scalar expression, and detects correlated
// subqueries. The resulting tree is the input of the normalizer and the
// optimizer.
package optbuilder

import (
	"context"

	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/opt/cat"
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgcode"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgerror"
	"github.com/bjm1244/raptordb/pkg/sql/sem/tree"
	"github.com/bjm1244/raptordb/pkg/util/errorutil"
)

// maxSubqueryDepth bounds subquery nesting. Exceeding it fails the bind
// with a statement-too-complex error rather than risking a stack overflow.
const maxSubqueryDepth = 100

// Builder builds a bound relational expression tree from a SELECT
// statement. The builder is a one-shot object; a new one is needed for
// each statement.
//
// The builder uses panics for error propagation, like the type checker it
// drives. All the panics raised during the build are caught in Build and
// returned as errors.
type Builder struct {
	ctx     context.Context
	catalog cat.Catalog
	md      *opt.Metadata
	stmt    tree.Statement

	// scopeAlloc is the arena the scope frames are allocated from. Frames
	// are owned here; the parent links between them are used for lookup
	// only.
	scopeAlloc []scope

	// subqueries is the stack of subquery contexts currently being built,
	// innermost last. Resolving a column in a frame outside a context's
	// boundary records the column as an outer reference of that context.
	subqueries []*subqueryCtx

	subqueryDepth int
}

// subqueryCtx tracks the correlation state of one subquery under
// construction. boundary is the frame enclosing the subquery; any column
// resolved in boundary or one of its ancestors is an outer reference.
type subqueryCtx struct {
	boundary  *scope
	outerCols opt.ColSet

	// allowOuter is false for derived tables, which may not reference the
	// enclosing query.
	allowOuter bool
	what       string
}

// New creates a Builder for the given statement. Table and column IDs are
// assigned from md, which must be initialized and is shared with the memo
// the optimizer later builds from the bound tree.
func New(ctx context.Context, catalog cat.Catalog, md *opt.Metadata, stmt tree.Statement) *Builder {
	return &Builder{ctx: ctx, catalog: catalog, md: md, stmt: stmt}
}

// Build binds the statement and returns the root of the bound tree. Errors
// raised during the build by panicking with an error object are returned
// here; any other panic is propagated.
func (b *Builder) Build() (root *memo.Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ok, e := errorutil.ShouldCatch(r); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	sel, ok := b.stmt.(*tree.Select)
	if !ok {
		panic(unsupportedf("unsupported statement: %T", b.stmt))
	}
	outScope := b.buildSelect(sel, nil /* parent */)
	return outScope.expr, nil
}

// allocScope allocates a scope from the arena.
func (b *Builder) allocScope() *scope {
	if len(b.scopeAlloc) == 0 {
		b.scopeAlloc = make([]scope, 8)
	}
	r := &b.scopeAlloc[0]
	b.scopeAlloc = b.scopeAlloc[1:]
	r.builder = b
	return r
}

// newScope allocates a frame with the given parent.
func (b *Builder) newScope(parent *scope) *scope {
	s := b.allocScope()
	s.parent = parent
	return s
}

// pushSubquery enters a subquery context whose boundary is the frame
// enclosing the subquery.
func (b *Builder) pushSubquery(boundary *scope, allowOuter bool, what string) *subqueryCtx {
	b.subqueryDepth++
	if b.subqueryDepth > maxSubqueryDepth {
		panic(pgerror.Newf(pgcode.StatementTooComplex,
			"subqueries nested more than %d levels deep", maxSubqueryDepth))
	}
	ctx := &subqueryCtx{boundary: boundary, allowOuter: allowOuter, what: what}
	b.subqueries = append(b.subqueries, ctx)
	return ctx
}

func (b *Builder) popSubquery() {
	b.subqueries = b.subqueries[:len(b.subqueries)-1]
	b.subqueryDepth--
}

// markOuterRefs records col as an outer reference of every subquery
// context whose boundary the resolution crossed. foundIn is the frame the
// column was resolved in.
func (b *Builder) markOuterRefs(foundIn *scope, col opt.ColumnID) {
	for i := len(b.subqueries) - 1; i >= 0; i-- {
		ctx := b.subqueries[i]
		if !outsideBoundary(foundIn, ctx.boundary) {
			// Contexts are nested, so once the column is inside one
			// boundary it is inside all the enclosing ones too.
			break
		}
		if !ctx.allowOuter {
			panic(pgerror.Newf(pgcode.FeatureNotSupported,
				"%s cannot reference the enclosing query", ctx.what))
		}
		ctx.outerCols.Add(col)
	}
}

// outsideBoundary reports whether frame s lies at or above the boundary
// frame, i.e. outside the subquery the boundary belongs to.
func outsideBoundary(s, boundary *scope) bool {
	for curr := boundary; curr != nil; curr = curr.parent {
		if curr == s {
			return true
		}
	}
	return false
}

func unsupportedf(format string, args ...interface{}) error {
	return pgerror.Newf(pgcode.FeatureNotSupported, format, args...)
}
