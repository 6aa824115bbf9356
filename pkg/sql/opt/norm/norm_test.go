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

package norm_test

import (
	"context"
	"testing"

	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
	"github.com/bjm1244/raptordb/pkg/sql/opt/norm"
	"github.com/bjm1244/raptordb/pkg/sql/opt/optbuilder"
	"github.com/bjm1244/raptordb/pkg/sql/opt/testutils/opttester"
	"github.com/bjm1244/raptordb/pkg/sql/opt/testutils/testcat"
	"github.com/bjm1244/raptordb/pkg/sql/parser"
	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
)

func TestNormRules(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		ot := opttester.New()
		datadriven.RunTest(t, path, ot.RunCommand)
	})
}

func normalizeSQL(t *testing.T, cat *testcat.Catalog, sql string) (*memo.Expr, *opt.Metadata) {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err)
	md := &opt.Metadata{}
	md.Init()
	root, err := optbuilder.New(context.Background(), cat, md, stmt).Build()
	require.NoError(t, err)
	return norm.New(context.Background(), md).Normalize(root), md
}

// TestNormalizeIdempotent verifies that normalization reaches a fixpoint: a
// second run over an already normalized tree changes nothing.
func TestNormalizeIdempotent(t *testing.T) {
	cat := testcat.New()
	require.NoError(t, cat.ExecuteDDL("CREATE TABLE xy (x int, y int)"))
	require.NoError(t, cat.ExecuteDDL("CREATE TABLE uv (u int, v int)"))

	queries := []string{
		"SELECT x FROM xy WHERE x > 1 AND true",
		"SELECT x FROM xy WHERE EXISTS (SELECT u FROM uv WHERE u = x)",
		"SELECT x, u FROM xy LEFT JOIN uv ON x = u WHERE u > 0",
		"SELECT x, u FROM xy, uv WHERE x = 1 AND u = 2 AND x = u",
	}
	for _, sql := range queries {
		t.Run(sql, func(t *testing.T) {
			normalized, md := normalizeSQL(t, cat, sql)
			before := memo.FormatExpr(normalized, md)
			again := norm.New(context.Background(), md).Normalize(normalized)
			require.Equal(t, before, memo.FormatExpr(again, md))
		})
	}
}

// TestDecorrelationRemovesApply verifies that a single-level correlated
// EXISTS ends up as a plain semi join with no apply operator left in the
// tree.
func TestDecorrelationRemovesApply(t *testing.T) {
	cat := testcat.New()
	require.NoError(t, cat.ExecuteDDL("CREATE TABLE xy (x int, y int)"))
	require.NoError(t, cat.ExecuteDDL("CREATE TABLE uv (u int, v int)"))

	normalized, _ := normalizeSQL(t, cat,
		"SELECT x FROM xy WHERE EXISTS (SELECT u FROM uv WHERE u = x)")

	var containsApply func(e *memo.Expr) bool
	containsApply = func(e *memo.Expr) bool {
		if e.Op.IsJoinApply() {
			return true
		}
		for _, c := range e.Children {
			if containsApply(c) {
				return true
			}
		}
		return false
	}
	require.False(t, containsApply(normalized))
}
