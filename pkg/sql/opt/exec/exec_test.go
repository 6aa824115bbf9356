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

package exec_test

import (
	"context"
	"testing"

	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/opt/exec"
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
	"github.com/bjm1244/raptordb/pkg/sql/opt/norm"
	"github.com/bjm1244/raptordb/pkg/sql/opt/optbuilder"
	"github.com/bjm1244/raptordb/pkg/sql/opt/testutils/opttester"
	"github.com/bjm1244/raptordb/pkg/sql/opt/testutils/testcat"
	"github.com/bjm1244/raptordb/pkg/sql/opt/xform"
	"github.com/bjm1244/raptordb/pkg/sql/parser"
	"github.com/bjm1244/raptordb/pkg/sql/sem/tree"
	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
)

func TestExec(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		ot := opttester.New()
		datadriven.RunTest(t, path, ot.RunCommand)
	})
}

// planSQL runs the full pipeline up to extraction.
func planSQL(
	t *testing.T, cat *testcat.Catalog, sql string,
) (*memo.Expr, *opt.Metadata) {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err)
	md := &opt.Metadata{}
	md.Init()
	root, err := optbuilder.New(context.Background(), cat, md, stmt).Build()
	require.NoError(t, err)
	root = norm.New(context.Background(), md).Normalize(root)

	var mem memo.Memo
	mem.Init(md)
	plan, err := xform.New(context.Background(), &mem).Optimize(root)
	require.NoError(t, err)
	return plan, md
}

// toNestedLoop rewrites every hash join in the plan into the equivalent
// nested loop join, folding the equality columns back into the condition.
func toNestedLoop(e *memo.Expr) *memo.Expr {
	for i := range e.Children {
		e.Children[i] = toNestedLoop(e.Children[i])
	}
	if e.Op != opt.HashJoinOp {
		return e
	}
	p := e.Private.(*memo.HashJoinPrivate)
	conjuncts := make([]*memo.ScalarExpr, 0, len(p.LeftEq)+1)
	for i := range p.LeftEq {
		conjuncts = append(conjuncts, memo.MakeBinary(
			opt.EqOp,
			memo.MakeVariable(p.LeftEq[i], nil),
			memo.MakeVariable(p.RightEq[i], nil),
			nil,
		))
	}
	for _, c := range memo.ExtractConjuncts(p.On) {
		if !c.IsTrue() {
			conjuncts = append(conjuncts, c)
		}
	}
	return &memo.Expr{
		Op:       opt.NestedLoopJoinOp,
		Children: e.Children,
		Private: &memo.NestedLoopJoinPrivate{
			JoinPrivate: memo.JoinPrivate{On: memo.CombineConjuncts(conjuncts)},
			LogicalOp:   p.LogicalOp,
		},
	}
}

// TestJoinImplementationsAgree verifies that the hash join and nested loop
// join implementations produce identical results for the same logical
// query.
func TestJoinImplementationsAgree(t *testing.T) {
	cat := testcat.New()
	require.NoError(t, cat.ExecuteDDL("CREATE TABLE xy (x int, y int)"))
	require.NoError(t, cat.ExecuteDDL("CREATE TABLE uv (u int, v int)"))
	require.NoError(t, cat.InsertRows("xy", "1, 10\n2, 20\n3, NULL\nNULL, 40"))
	require.NoError(t, cat.InsertRows("uv", "1, 100\n3, 300\nNULL, 500"))

	queries := []string{
		"SELECT x, u FROM xy JOIN uv ON x = u",
		"SELECT x, y, u, v FROM xy, uv",
		"SELECT x, u, v FROM xy LEFT JOIN uv ON x = u",
		"SELECT x FROM xy WHERE EXISTS (SELECT u FROM uv WHERE u = x)",
		"SELECT x FROM xy WHERE NOT EXISTS (SELECT u FROM uv WHERE u = x)",
	}
	for _, sql := range queries {
		t.Run(sql, func(t *testing.T) {
			hashPlan, md := planSQL(t, cat, sql)
			hashRows, err := exec.New(context.Background(), md, cat).Execute(hashPlan)
			require.NoError(t, err)

			nlPlan := toNestedLoop(hashPlan)
			nlRows, err := exec.New(context.Background(), md, cat).Execute(nlPlan)
			require.NoError(t, err)

			require.Equal(t, renderRows(hashRows), renderRows(nlRows))
		})
	}
}

func renderRows(rows [][]tree.Datum) []string {
	res := make([]string, len(rows))
	for i, row := range rows {
		s := ""
		for j, d := range row {
			if j > 0 {
				s += ", "
			}
			s += d.String()
		}
		res[i] = s
	}
	return res
}
