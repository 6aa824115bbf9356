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

package optbuilder_test

import (
	"context"
	"strings"
	"testing"

	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
	"github.com/bjm1244/raptordb/pkg/sql/opt/optbuilder"
	"github.com/bjm1244/raptordb/pkg/sql/opt/testutils/opttester"
	"github.com/bjm1244/raptordb/pkg/sql/opt/testutils/testcat"
	"github.com/bjm1244/raptordb/pkg/sql/parser"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgcode"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		ot := opttester.New()
		datadriven.RunTest(t, path, ot.RunCommand)
	})
}

// buildSQL binds a query against the given catalog and returns the error,
// if any.
func buildSQL(t *testing.T, cat *testcat.Catalog, sql string) (*memo.Expr, error) {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err)
	md := &opt.Metadata{}
	md.Init()
	b := optbuilder.New(context.Background(), cat, md, stmt)
	return b.Build()
}

func newTestCatalog(t *testing.T) *testcat.Catalog {
	t.Helper()
	cat := testcat.New()
	require.NoError(t, cat.ExecuteDDL("CREATE TABLE xy (x int, y int)"))
	require.NoError(t, cat.ExecuteDDL("CREATE TABLE uv (u int, v int)"))
	return cat
}

func TestBuilderErrorCodes(t *testing.T) {
	cat := newTestCatalog(t)

	testCases := []struct {
		sql  string
		code pgcode.Code
	}{
		{"SELECT q FROM xy", pgcode.UndefinedColumn},
		{"SELECT x FROM missing", pgcode.UndefinedTable},
		{"SELECT x FROM xy WHERE x", pgcode.DatatypeMismatch},
		{"SELECT x FROM xy, xy", pgcode.DuplicateAlias},
		{"SELECT y FROM xy GROUP BY x", pgcode.Grouping},
		{"SELECT x FROM xy WHERE count(u) > 0", pgcode.Grouping},
	}
	for _, tc := range testCases {
		t.Run(tc.sql, func(t *testing.T) {
			_, err := buildSQL(t, cat, tc.sql)
			require.Error(t, err)
			require.Truef(t, pgerror.HasCode(err, tc.code),
				"expected code %s, got %s (%v)", tc.code, pgerror.GetPGCode(err), err)
		})
	}
}

// TestBuilderDeepNesting verifies that pathologically nested subqueries are
// rejected with a statement-too-complex error instead of overflowing the
// stack.
func TestBuilderDeepNesting(t *testing.T) {
	cat := newTestCatalog(t)

	var sb strings.Builder
	sb.WriteString("SELECT x FROM xy WHERE ")
	const depth = 150
	for i := 0; i < depth; i++ {
		sb.WriteString("EXISTS (SELECT u FROM uv WHERE ")
	}
	sb.WriteString("u > 0")
	for i := 0; i < depth; i++ {
		sb.WriteString(")")
	}

	_, err := buildSQL(t, cat, sb.String())
	require.Error(t, err)
	require.True(t, pgerror.HasCode(err, pgcode.StatementTooComplex))
}

// TestBuilderNonSelect verifies that statements other than SELECT are
// rejected with a clean error rather than a panic.
func TestBuilderNonSelect(t *testing.T) {
	cat := newTestCatalog(t)

	stmt, err := parser.Parse("CREATE TABLE zz (a int)")
	require.NoError(t, err)

	md := &opt.Metadata{}
	md.Init()
	b := optbuilder.New(context.Background(), cat, md, stmt)
	_, err = b.Build()
	require.Error(t, err)
	require.True(t, pgerror.HasCode(err, pgcode.FeatureNotSupported))
}
