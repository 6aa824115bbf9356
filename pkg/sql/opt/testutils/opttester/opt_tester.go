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

// Package opttester runs data-driven tests against the planning pipeline.
// Each test file is a sequence of commands over one shared test catalog:
//
//	exec-ddl    define a table
//	insert      add rows to a table (argument: table name)
//	build       parse and bind, print the bound tree
//	norm        bind and normalize, print the rewritten tree
//	memo        bind, normalize and explore, print the memo groups
//	opt         full planning, print the extracted physical plan
//	exec        full planning plus execution, print the result rows
package opttester

import (
	"context"
	"strings"
	"testing"

	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/opt/exec"
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
	"github.com/bjm1244/raptordb/pkg/sql/opt/norm"
	"github.com/bjm1244/raptordb/pkg/sql/opt/optbuilder"
	"github.com/bjm1244/raptordb/pkg/sql/opt/testutils/testcat"
	"github.com/bjm1244/raptordb/pkg/sql/opt/xform"
	"github.com/bjm1244/raptordb/pkg/sql/parser"
	"github.com/cockroachdb/datadriven"
)

// OptTester drives one data-driven test file.
type OptTester struct {
	catalog *testcat.Catalog
}

// New creates an OptTester over a fresh catalog.
func New() *OptTester {
	return &OptTester{catalog: testcat.New()}
}

// RunCommand executes one directive and returns its output. Planning
// errors become the directive output, so error cases are golden-tested the
// same way as plans.
func (ot *OptTester) RunCommand(t *testing.T, d *datadriven.TestData) string {
	t.Helper()
	switch d.Cmd {
	case "exec-ddl":
		if err := ot.catalog.ExecuteDDL(d.Input); err != nil {
			return formatError(err)
		}
		return "ok\n"

	case "insert":
		if len(d.CmdArgs) != 1 {
			d.Fatalf(t, "insert requires a table name argument")
		}
		if err := ot.catalog.InsertRows(d.CmdArgs[0].Key, d.Input); err != nil {
			return formatError(err)
		}
		return "ok\n"

	case "build":
		root, md, err := ot.build(d.Input)
		if err != nil {
			return formatError(err)
		}
		return memo.FormatExpr(root, md)

	case "norm":
		root, md, err := ot.normalize(d.Input)
		if err != nil {
			return formatError(err)
		}
		return memo.FormatExpr(root, md)

	case "memo":
		_, _, mem, err := ot.optimize(d.Input)
		if err != nil {
			return formatError(err)
		}
		return mem.String()

	case "opt":
		plan, md, _, err := ot.optimize(d.Input)
		if err != nil {
			return formatError(err)
		}
		return memo.FormatExpr(plan, md)

	case "exec":
		plan, md, _, err := ot.optimize(d.Input)
		if err != nil {
			return formatError(err)
		}
		e := exec.New(context.Background(), md, ot.catalog)
		rows, err := e.Execute(plan)
		if err != nil {
			return formatError(err)
		}
		var sb strings.Builder
		for _, row := range rows {
			for i, datum := range row {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(datum.String())
			}
			sb.WriteByte('\n')
		}
		return sb.String()

	default:
		d.Fatalf(t, "unknown command: %s", d.Cmd)
		return ""
	}
}

// build parses and binds the statement against a fresh metadata.
func (ot *OptTester) build(sql string) (*memo.Expr, *opt.Metadata, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, nil, err
	}
	md := &opt.Metadata{}
	md.Init()
	b := optbuilder.New(context.Background(), ot.catalog, md, stmt)
	root, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	return root, md, nil
}

func (ot *OptTester) normalize(sql string) (*memo.Expr, *opt.Metadata, error) {
	root, md, err := ot.build(sql)
	if err != nil {
		return nil, nil, err
	}
	root = norm.New(context.Background(), md).Normalize(root)
	return root, md, nil
}

func (ot *OptTester) optimize(sql string) (*memo.Expr, *opt.Metadata, *memo.Memo, error) {
	root, md, err := ot.normalize(sql)
	if err != nil {
		return nil, nil, nil, err
	}
	var mem memo.Memo
	mem.Init(md)
	o := xform.New(context.Background(), &mem)
	plan, err := o.Optimize(root)
	if err != nil {
		return nil, nil, nil, err
	}
	return plan, md, &mem, nil
}

func formatError(err error) string {
	return "error: " + err.Error() + "\n"
}
