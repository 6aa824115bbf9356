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

package parser

import (
	"testing"

	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgcode"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgerror"
	"github.com/bjm1244/raptordb/pkg/sql/sem/tree"
	"github.com/stretchr/testify/require"
)

// TestParseRoundtrip checks the parsed AST by rendering it back to text.
// The rendered form is fully parenthesized and normalized, so it also
// documents operator precedence and the join rewrites the parser performs.
func TestParseRoundtrip(t *testing.T) {
	testCases := []struct {
		in  string
		out string
	}{
		{"SELECT x FROM t", "SELECT x FROM t"},
		{"select X, Y from T", "SELECT x, y FROM t"},
		{"SELECT * FROM t", "SELECT * FROM t"},
		{"SELECT t.x AS q FROM db.t AS s", "SELECT t.x AS q FROM db.t AS s"},
		{
			"SELECT x, y FROM t WHERE x > 1 AND y < 2",
			"SELECT x, y FROM t WHERE ((x > 1) AND (y < 2))",
		},
		{"SELECT a + b * c FROM t", "SELECT (a + (b * c)) FROM t"},
		{"SELECT (a + b) * c FROM t", "SELECT (((a + b)) * c) FROM t"},
		{"SELECT 1.5, 'abc', true, null FROM t", "SELECT 1.5, 'abc', true, NULL FROM t"},
		{"SELECT x FROM t WHERE NOT x > 1 OR y = 2", "SELECT x FROM t WHERE ((NOT (x > 1)) OR (y = 2))"},
		{"SELECT count(*), sum(x) FROM t GROUP BY y", "SELECT count(*), sum(x) FROM t GROUP BY y"},
		{
			"SELECT x FROM t WHERE EXISTS (SELECT y FROM u)",
			"SELECT x FROM t WHERE EXISTS (SELECT y FROM u)",
		},
		{
			"SELECT x FROM t WHERE NOT EXISTS (SELECT y FROM u)",
			"SELECT x FROM t WHERE NOT EXISTS (SELECT y FROM u)",
		},
		{
			"SELECT x FROM (SELECT x FROM t) AS d",
			"SELECT x FROM (SELECT x FROM t) AS d",
		},
		{"SELECT x FROM a JOIN b ON x = u", "SELECT x FROM a JOIN b ON (x = u)"},
		{"SELECT x FROM a INNER JOIN b ON x = u", "SELECT x FROM a JOIN b ON (x = u)"},
		{"SELECT x FROM a CROSS JOIN b", "SELECT x FROM a CROSS JOIN b"},
		{"SELECT x FROM a LEFT OUTER JOIN b ON x = u", "SELECT x FROM a LEFT JOIN b ON (x = u)"},
		// RIGHT JOIN is normalized at parse time: the operands swap and the
		// join becomes a LEFT JOIN.
		{"SELECT x FROM a RIGHT JOIN b ON x = u", "SELECT x FROM b LEFT JOIN a ON (x = u)"},
		{"SELECT x FROM a RIGHT OUTER JOIN b ON x = u", "SELECT x FROM b LEFT JOIN a ON (x = u)"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			stmt, err := Parse(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.out, stmt.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []string{
		"",
		"SELECT",
		"SELECT x FROM",
		"SELECT x FROM t WHERE",
		"SELECT x y z FROM t",
		"SELECT 'abc FROM t",
		"SELECT x FROM t GROUP",
		"SELECT x FROM a LEFT JOIN",
		"INSERT INTO t VALUES (1)",
		"SELECT x FROM t; SELECT y FROM t",
	}
	for _, sql := range testCases {
		t.Run(sql, func(t *testing.T) {
			_, err := Parse(sql)
			require.Error(t, err)
			require.True(t, pgerror.HasCode(err, pgcode.Syntax),
				"expected syntax error, got %v", err)
		})
	}
}

func TestParseSelectRejectsDDL(t *testing.T) {
	_, err := ParseSelect("CREATE TABLE t (x int)")
	require.Error(t, err)
	require.True(t, pgerror.HasCode(err, pgcode.Syntax))
}

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE t (x int, s string, d decimal)")
	require.NoError(t, err)
	ct, ok := stmt.(*tree.CreateTable)
	require.True(t, ok)
	require.Equal(t, tree.Name("t"), ct.Table.TableName)
	require.Len(t, ct.Columns, 3)
	require.Equal(t, tree.Name("x"), ct.Columns[0].Name)
	require.Equal(t, tree.Name("int"), ct.Columns[0].Type)
}
