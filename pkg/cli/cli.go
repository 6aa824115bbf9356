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

// Package cli implements the raptoropt command line tool, which plans a
// query against an in-memory catalog and prints the output of any stage of
// the planning pipeline.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/opt/exec"
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
	"github.com/bjm1244/raptordb/pkg/sql/opt/norm"
	"github.com/bjm1244/raptordb/pkg/sql/opt/optbuilder"
	"github.com/bjm1244/raptordb/pkg/sql/opt/testutils/testcat"
	"github.com/bjm1244/raptordb/pkg/sql/opt/xform"
	"github.com/bjm1244/raptordb/pkg/sql/parser"
	"github.com/bjm1244/raptordb/pkg/util/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var cliCtx = struct {
	schemaFile string
	rowFiles   []string
	phase      string
	budget     int
	verbosity  int
}{
	phase:  "opt",
	budget: xform.DefaultBudget,
}

var rootCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raptoropt [flags] <sql>",
		Short: "plan a SQL query and print a stage of the planning pipeline",
		Long: `raptoropt parses, binds, normalizes and optimizes a single SELECT
statement against tables declared in a schema file, then prints the output
of the stage selected with --phase:

  build   the bound relational tree
  norm    the tree after normalization rules
  memo    the memo groups after exploration
  opt     the extracted physical plan (default)
  exec    the query results, using rows loaded with --rows

The schema file holds CREATE TABLE statements separated by semicolons. Each
--rows argument has the form table=file, where the file holds one row per
line with comma-separated values.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPlan,
	}
	f := cmd.Flags()
	f.StringVar(&cliCtx.schemaFile, "schema", "", "file with CREATE TABLE statements")
	f.StringArrayVar(&cliCtx.rowFiles, "rows", nil, "table=file with rows to load (repeatable)")
	f.StringVar(&cliCtx.phase, "phase", cliCtx.phase, "pipeline stage to print: build, norm, memo, opt or exec")
	f.IntVar(&cliCtx.budget, "budget", cliCtx.budget, "exploration budget in memo insertions")
	f.IntVarP(&cliCtx.verbosity, "verbosity", "v", 0, "log verbosity")
	return cmd
}()

// Main runs the tool and exits the process. It is the entire body of the
// main func in cmd/raptoropt.
func Main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "raptoropt: %v\n", err)
		os.Exit(1)
	}
}

func runPlan(cmd *cobra.Command, args []string) error {
	log.SetVerbosity(cliCtx.verbosity)
	ctx := context.Background()

	sql, err := querySQL(cmd, args)
	if err != nil {
		return err
	}

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	out, err := plan(ctx, catalog, sql)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// querySQL returns the statement text, from the positional argument or from
// stdin when none is given.
func querySQL(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	buf, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", errors.Wrap(err, "reading query from stdin")
	}
	sql := strings.TrimSpace(string(buf))
	if sql == "" {
		return "", errors.New("no query given")
	}
	return sql, nil
}

// loadCatalog builds the in-memory catalog from the schema and row files.
func loadCatalog() (*testcat.Catalog, error) {
	catalog := testcat.New()
	if cliCtx.schemaFile != "" {
		buf, err := os.ReadFile(cliCtx.schemaFile)
		if err != nil {
			return nil, err
		}
		for _, stmt := range strings.Split(string(buf), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if err := catalog.ExecuteDDL(stmt); err != nil {
				return nil, errors.Wrapf(err, "schema file %s", cliCtx.schemaFile)
			}
		}
	}
	for _, spec := range cliCtx.rowFiles {
		name, file, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, errors.Newf("--rows argument %q is not of the form table=file", spec)
		}
		buf, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		if err := catalog.InsertRows(name, string(buf)); err != nil {
			return nil, errors.Wrapf(err, "rows file %s", file)
		}
	}
	return catalog, nil
}

// plan runs the pipeline up to the requested phase and renders its output.
func plan(ctx context.Context, catalog *testcat.Catalog, sql string) (string, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return "", err
	}
	md := &opt.Metadata{}
	md.Init()
	root, err := optbuilder.New(ctx, catalog, md, stmt).Build()
	if err != nil {
		return "", err
	}
	if cliCtx.phase == "build" {
		return memo.FormatExpr(root, md), nil
	}

	root = norm.New(ctx, md).Normalize(root)
	if cliCtx.phase == "norm" {
		return memo.FormatExpr(root, md), nil
	}

	var mem memo.Memo
	mem.Init(md)
	o := xform.New(ctx, &mem)
	o.SetBudget(cliCtx.budget)
	physical, err := o.Optimize(root)
	if err != nil {
		return "", err
	}
	if o.Exhausted() {
		log.Warningf(ctx, "exploration budget of %d insertions exhausted", cliCtx.budget)
	}

	switch cliCtx.phase {
	case "memo":
		return mem.String(), nil
	case "opt":
		return memo.FormatExpr(physical, md), nil
	case "exec":
		rows, err := exec.New(ctx, md, catalog).Execute(physical)
		if err != nil {
			return "", err
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
		return sb.String(), nil
	default:
		return "", errors.Newf("unknown phase %q", cliCtx.phase)
	}
}
