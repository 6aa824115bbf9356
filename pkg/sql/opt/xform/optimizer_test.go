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

package xform_test

import (
	"context"
	"testing"

	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
	"github.com/bjm1244/raptordb/pkg/sql/opt/norm"
	"github.com/bjm1244/raptordb/pkg/sql/opt/optbuilder"
	"github.com/bjm1244/raptordb/pkg/sql/opt/testutils/opttester"
	"github.com/bjm1244/raptordb/pkg/sql/opt/testutils/testcat"
	"github.com/bjm1244/raptordb/pkg/sql/opt/xform"
	"github.com/bjm1244/raptordb/pkg/sql/parser"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgcode"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
)

func TestOptimizer(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		ot := opttester.New()
		datadriven.RunTest(t, path, ot.RunCommand)
	})
}

func newJoinCatalog(t *testing.T) *testcat.Catalog {
	t.Helper()
	cat := testcat.New()
	require.NoError(t, cat.ExecuteDDL("CREATE TABLE xy (x int, y int)"))
	require.NoError(t, cat.ExecuteDDL("CREATE TABLE uv (u int, v int)"))
	return cat
}

func normalizeSQL(
	t *testing.T, cat *testcat.Catalog, sql string,
) (*memo.Expr, *opt.Metadata) {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err)
	md := &opt.Metadata{}
	md.Init()
	root, err := optbuilder.New(context.Background(), cat, md, stmt).Build()
	require.NoError(t, err)
	return norm.New(context.Background(), md).Normalize(root), md
}

// TestExplorationFixpoint verifies that exploration terminates with the
// memo saturated: running the optimizer again over the same normalized tree
// produces a memo with the same member count.
func TestExplorationFixpoint(t *testing.T) {
	cat := newJoinCatalog(t)
	counts := make([]int, 2)
	for i := range counts {
		root, md := normalizeSQL(t, cat, "SELECT x, u FROM xy JOIN uv ON x = u")
		var mem memo.Memo
		mem.Init(md)
		o := xform.New(context.Background(), &mem)
		_, err := o.Optimize(root)
		require.NoError(t, err)
		require.False(t, o.Exhausted())
		counts[i] = mem.CountExprs()
	}
	require.Equal(t, counts[0], counts[1])
}

// TestCommuteJoinDedup verifies that join commutation adds exactly one
// alternative: commuting the commuted member regenerates the original,
// which the structural dedup check rejects.
func TestCommuteJoinDedup(t *testing.T) {
	cat := newJoinCatalog(t)
	root, md := normalizeSQL(t, cat, "SELECT x, u FROM xy JOIN uv ON x = u")
	var mem memo.Memo
	mem.Init(md)
	_, err := xform.New(context.Background(), &mem).Optimize(root)
	require.NoError(t, err)

	// Find the join group and count its logical members.
	logicalJoins := 0
	for id := memo.GroupID(1); int(id) <= mem.NumGroups(); id++ {
		for _, e := range mem.Group(id).Exprs {
			if e.Op == opt.InnerJoinOp {
				logicalJoins++
			}
		}
	}
	require.Equal(t, 2, logicalJoins)
}

// TestExtractSinglePhysicalTree verifies that extraction is deterministic
// and yields a tree of physical operators only.
func TestExtractSinglePhysicalTree(t *testing.T) {
	cat := newJoinCatalog(t)

	var assertPhysical func(t *testing.T, e *memo.Expr)
	assertPhysical = func(t *testing.T, e *memo.Expr) {
		require.True(t, e.Op.IsPhysical(), "operator %s is not physical", e.Op)
		for _, c := range e.Children {
			assertPhysical(t, c)
		}
	}

	var prev string
	for i := 0; i < 3; i++ {
		root, md := normalizeSQL(t, cat, "SELECT x, u FROM xy JOIN uv ON x = u")
		var mem memo.Memo
		mem.Init(md)
		plan, err := xform.New(context.Background(), &mem).Optimize(root)
		require.NoError(t, err)
		assertPhysical(t, plan)

		rendered := memo.FormatExpr(plan, md)
		if i > 0 {
			require.Equal(t, prev, rendered)
		}
		prev = rendered
	}
}

// TestBudgetExhaustion verifies that a tiny budget stops exploration
// without failing the query: implementation still runs and a plan comes
// out.
func TestBudgetExhaustion(t *testing.T) {
	cat := newJoinCatalog(t)
	root, md := normalizeSQL(t, cat, "SELECT x, u FROM xy JOIN uv ON x = u")
	var mem memo.Memo
	mem.Init(md)
	o := xform.New(context.Background(), &mem)
	o.SetBudget(0)
	plan, err := o.Optimize(root)
	require.NoError(t, err)
	require.True(t, o.Exhausted())
	require.NotNil(t, plan)
}

// TestContextCancellation verifies that a canceled context fails the
// optimization outright, unlike budget exhaustion.
func TestContextCancellation(t *testing.T) {
	cat := newJoinCatalog(t)
	root, md := normalizeSQL(t, cat, "SELECT x, u FROM xy JOIN uv ON x = u")
	var mem memo.Memo
	mem.Init(md)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := xform.New(ctx, &mem).Optimize(root)
	require.ErrorIs(t, err, context.Canceled)
}

// TestResidualCorrelationError verifies that a correlated subquery that
// survives normalization in apply form is reported as unsupported rather
// than crashing extraction.
func TestResidualCorrelationError(t *testing.T) {
	cat := newJoinCatalog(t)
	root, md := normalizeSQL(t, cat,
		"SELECT x FROM xy WHERE EXISTS (SELECT u, count(*) FROM uv WHERE u = x GROUP BY u)")
	var mem memo.Memo
	mem.Init(md)
	_, err := xform.New(context.Background(), &mem).Optimize(root)
	require.Error(t, err)
	require.True(t, pgerror.HasCode(err, pgcode.FeatureNotSupported))
	require.Contains(t, err.Error(), "could not be decorrelated")
}
