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

// Package exec is a reference row-at-a-time executor for extracted physical
// plans. It exists to pin down plan semantics end to end: a plan optimized
// into different physical shapes must produce identical rows through this
// executor. It makes no attempt at being fast.
package exec

import (
	"context"
	"strings"

	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/opt/cat"
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
	"github.com/bjm1244/raptordb/pkg/sql/sem/tree"
	"github.com/cockroachdb/errors"
)

// Env is the value environment one plan row binds: column ID to datum.
type Env map[opt.ColumnID]tree.Datum

// RowProvider supplies the stored rows of base tables, in schema column
// order. The test catalog implements it.
type RowProvider interface {
	TableRows(ctx context.Context, tab cat.Table) ([][]tree.Datum, error)
}

// Executor evaluates a physical plan over the rows of a RowProvider.
type Executor struct {
	ctx  context.Context
	md   *opt.Metadata
	rows RowProvider
}

// New creates an Executor.
func New(ctx context.Context, md *opt.Metadata, rows RowProvider) *Executor {
	return &Executor{ctx: ctx, md: md, rows: rows}
}

// Execute runs the plan and returns the result rows in output column
// order. The plan must be fully physical.
func (e *Executor) Execute(plan *memo.Expr) ([][]tree.Datum, error) {
	envs, err := e.run(plan)
	if err != nil {
		return nil, err
	}
	cols := OutputColList(plan)
	res := make([][]tree.Datum, len(envs))
	for i, env := range envs {
		row := make([]tree.Datum, len(cols))
		for j, col := range cols {
			d, ok := env[col]
			if !ok {
				return nil, errors.AssertionFailedf("column %d missing from row", col)
			}
			row[j] = d
		}
		res[i] = row
	}
	return res, nil
}

// OutputColList returns the ordered output columns of a physical plan.
func OutputColList(plan *memo.Expr) opt.ColList {
	switch plan.Op {
	case opt.TableScanOp:
		return plan.Private.(*memo.ScanPrivate).Cols

	case opt.FilterOp:
		return OutputColList(plan.Children[0])

	case opt.RenderOp:
		p := plan.Private.(*memo.ProjectPrivate)
		cols := make(opt.ColList, len(p.Projections))
		for i := range p.Projections {
			cols[i] = p.Projections[i].Col
		}
		return cols

	case opt.HashJoinOp, opt.NestedLoopJoinOp:
		left := OutputColList(plan.Children[0])
		switch logicalJoinOp(plan) {
		case opt.SemiJoinOp, opt.AntiJoinOp:
			return left
		}
		return append(left[:len(left):len(left)], OutputColList(plan.Children[1])...)

	case opt.HashGroupByOp:
		p := plan.Private.(*memo.GroupByPrivate)
		cols := append(opt.ColList(nil), p.GroupingCols...)
		for i := range p.Aggregations {
			cols = append(cols, p.Aggregations[i].Col)
		}
		return cols
	}
	panic(errors.AssertionFailedf("unexpected physical operator %s", plan.Op))
}

func logicalJoinOp(plan *memo.Expr) opt.Operator {
	switch p := plan.Private.(type) {
	case *memo.HashJoinPrivate:
		return p.LogicalOp
	case *memo.NestedLoopJoinPrivate:
		return p.LogicalOp
	}
	panic(errors.AssertionFailedf("%s is not a physical join", plan.Op))
}

func (e *Executor) run(plan *memo.Expr) ([]Env, error) {
	if err := e.ctx.Err(); err != nil {
		return nil, err
	}
	switch plan.Op {
	case opt.TableScanOp:
		return e.runTableScan(plan)
	case opt.FilterOp:
		return e.runFilter(plan)
	case opt.RenderOp:
		return e.runRender(plan)
	case opt.HashJoinOp:
		return e.runHashJoin(plan)
	case opt.NestedLoopJoinOp:
		return e.runNestedLoopJoin(plan)
	case opt.HashGroupByOp:
		return e.runHashGroupBy(plan)
	}
	return nil, errors.AssertionFailedf("unexpected physical operator %s", plan.Op)
}

func (e *Executor) runTableScan(plan *memo.Expr) ([]Env, error) {
	p := plan.Private.(*memo.ScanPrivate)
	tab := e.md.TableMeta(p.Table).Table
	stored, err := e.rows.TableRows(e.ctx, tab)
	if err != nil {
		return nil, err
	}
	envs := make([]Env, len(stored))
	for i, row := range stored {
		if len(row) != len(p.Cols) {
			return nil, errors.AssertionFailedf(
				"table %s: row has %d datums, schema has %d columns",
				tab.Name(), len(row), len(p.Cols))
		}
		env := make(Env, len(row))
		for j, col := range p.Cols {
			env[col] = row[j]
		}
		envs[i] = env
	}
	return envs, nil
}

func (e *Executor) runFilter(plan *memo.Expr) ([]Env, error) {
	input, err := e.run(plan.Children[0])
	if err != nil {
		return nil, err
	}
	filter := plan.Private.(*memo.SelectPrivate).Filter
	var out []Env
	for _, env := range input {
		keep, err := e.evalPredicate(filter, env)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, env)
		}
	}
	return out, nil
}

func (e *Executor) runRender(plan *memo.Expr) ([]Env, error) {
	input, err := e.run(plan.Children[0])
	if err != nil {
		return nil, err
	}
	items := plan.Private.(*memo.ProjectPrivate).Projections
	out := make([]Env, len(input))
	for i, env := range input {
		rendered := make(Env, len(items))
		for _, item := range items {
			d, err := e.evalScalar(item.Element, env)
			if err != nil {
				return nil, err
			}
			rendered[item.Col] = d
		}
		out[i] = rendered
	}
	return out, nil
}

// hashKey builds the bucket key for the given columns. The second return
// value is false when any key column is NULL; such rows never match an
// equality, so they skip the table entirely.
func hashKey(env Env, cols opt.ColList) (string, bool) {
	var sb strings.Builder
	for _, col := range cols {
		d := env[col]
		if d == tree.DNull {
			return "", false
		}
		sb.WriteString(d.String())
		sb.WriteByte('/')
	}
	return sb.String(), true
}

// runHashJoin hashes the right input on its equality columns and probes
// with each left row. An empty equality list degenerates to a single
// bucket, which makes cross joins executable here as well as in the nested
// loop join. The residual condition is checked on each candidate pair.
func (e *Executor) runHashJoin(plan *memo.Expr) ([]Env, error) {
	p := plan.Private.(*memo.HashJoinPrivate)
	left, err := e.run(plan.Children[0])
	if err != nil {
		return nil, err
	}
	right, err := e.run(plan.Children[1])
	if err != nil {
		return nil, err
	}

	table := make(map[string][]Env, len(right))
	for _, renv := range right {
		key, ok := hashKey(renv, p.RightEq)
		if !ok {
			continue
		}
		table[key] = append(table[key], renv)
	}

	rightCols := plan.Children[1].OutputCols()
	var out []Env
	for _, lenv := range left {
		key, ok := hashKey(lenv, p.LeftEq)
		var matches []Env
		if ok {
			for _, renv := range table[key] {
				merged := mergeEnvs(lenv, renv)
				match, err := e.evalPredicate(p.On, merged)
				if err != nil {
					return nil, err
				}
				if match {
					matches = append(matches, merged)
				}
			}
		}
		out = appendJoinRows(out, p.LogicalOp, lenv, matches, rightCols)
	}
	return out, nil
}

func (e *Executor) runNestedLoopJoin(plan *memo.Expr) ([]Env, error) {
	p := plan.Private.(*memo.NestedLoopJoinPrivate)
	left, err := e.run(plan.Children[0])
	if err != nil {
		return nil, err
	}
	right, err := e.run(plan.Children[1])
	if err != nil {
		return nil, err
	}

	rightCols := plan.Children[1].OutputCols()
	var out []Env
	for _, lenv := range left {
		var matches []Env
		for _, renv := range right {
			merged := mergeEnvs(lenv, renv)
			match, err := e.evalPredicate(p.On, merged)
			if err != nil {
				return nil, err
			}
			if match {
				matches = append(matches, merged)
			}
		}
		out = appendJoinRows(out, p.LogicalOp, lenv, matches, rightCols)
	}
	return out, nil
}

// appendJoinRows applies the logical join variant to one left row and its
// matches: inner and cross emit the matches, left join pads a NULL row for
// an unmatched left row, semi emits the left row once if matched, anti
// emits it once if unmatched.
func appendJoinRows(
	out []Env, logicalOp opt.Operator, lenv Env, matches []Env, rightCols opt.ColSet,
) []Env {
	switch logicalOp {
	case opt.InnerJoinOp, opt.CrossJoinOp:
		return append(out, matches...)

	case opt.LeftJoinOp:
		if len(matches) > 0 {
			return append(out, matches...)
		}
		padded := make(Env, len(lenv)+rightCols.Len())
		for col, d := range lenv {
			padded[col] = d
		}
		rightCols.ForEach(func(col opt.ColumnID) {
			padded[col] = tree.DNull
		})
		return append(out, padded)

	case opt.SemiJoinOp:
		if len(matches) > 0 {
			return append(out, lenv)
		}
		return out

	case opt.AntiJoinOp:
		if len(matches) == 0 {
			return append(out, lenv)
		}
		return out
	}
	panic(errors.AssertionFailedf("unexpected logical join operator %s", logicalOp))
}

func mergeEnvs(a, b Env) Env {
	merged := make(Env, len(a)+len(b))
	for col, d := range a {
		merged[col] = d
	}
	for col, d := range b {
		merged[col] = d
	}
	return merged
}

// runHashGroupBy partitions the input by the grouping columns and folds
// the aggregates over each partition. With no grouping columns the whole
// input is one partition, and an empty input still produces one row.
func (e *Executor) runHashGroupBy(plan *memo.Expr) ([]Env, error) {
	p := plan.Private.(*memo.GroupByPrivate)
	input, err := e.run(plan.Children[0])
	if err != nil {
		return nil, err
	}

	type partition struct {
		first Env
		rows  []Env
	}
	var order []string
	parts := make(map[string]*partition)
	for _, env := range input {
		var sb strings.Builder
		for _, col := range p.GroupingCols {
			sb.WriteString(env[col].String())
			sb.WriteByte('/')
		}
		key := sb.String()
		part, ok := parts[key]
		if !ok {
			part = &partition{first: env}
			parts[key] = part
			order = append(order, key)
		}
		part.rows = append(part.rows, env)
	}
	if len(p.GroupingCols) == 0 && len(parts) == 0 {
		parts[""] = &partition{}
		order = append(order, "")
	}

	out := make([]Env, 0, len(order))
	for _, key := range order {
		part := parts[key]
		env := make(Env, len(p.GroupingCols)+len(p.Aggregations))
		for _, col := range p.GroupingCols {
			env[col] = part.first[col]
		}
		for i := range p.Aggregations {
			d, err := e.evalAggregate(&p.Aggregations[i], part.rows)
			if err != nil {
				return nil, err
			}
			env[p.Aggregations[i].Col] = d
		}
		out = append(out, env)
	}
	return out, nil
}
