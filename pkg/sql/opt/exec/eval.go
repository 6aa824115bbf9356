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

package exec

import (
	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
	"github.com/bjm1244/raptordb/pkg/sql/sem/tree"
	"github.com/cockroachdb/errors"
)

var evalBinaryOps = map[opt.Operator]tree.BinaryOperator{
	opt.PlusOp:  tree.Plus,
	opt.MinusOp: tree.Minus,
	opt.MultOp:  tree.Mult,
	opt.DivOp:   tree.Div,
}

var evalComparisonOps = map[opt.Operator]tree.ComparisonOperator{
	opt.EqOp: tree.EQ,
	opt.NeOp: tree.NE,
	opt.LtOp: tree.LT,
	opt.LeOp: tree.LE,
	opt.GtOp: tree.GT,
	opt.GeOp: tree.GE,
}

// evalPredicate evaluates a filter condition; NULL counts as false.
func (e *Executor) evalPredicate(s *memo.ScalarExpr, env Env) (bool, error) {
	d, err := e.evalScalar(s, env)
	if err != nil {
		return false, err
	}
	return d == tree.DBoolTrue, nil
}

// evalScalar evaluates a scalar expression against one row, with SQL
// three-valued logic for the boolean connectives. EXISTS never appears
// here: the normalizer hoists it out of filters, and plans it could not
// hoist fail extraction before reaching the executor.
func (e *Executor) evalScalar(s *memo.ScalarExpr, env Env) (tree.Datum, error) {
	switch s.Op {
	case opt.VariableOp:
		d, ok := env[s.Col]
		if !ok {
			return nil, errors.AssertionFailedf("column %d not in scope at execution", s.Col)
		}
		return d, nil

	case opt.ConstOp:
		return s.Value, nil
	case opt.TrueOp:
		return tree.DBoolTrue, nil
	case opt.FalseOp:
		return tree.DBoolFalse, nil
	case opt.NullOp:
		return tree.DNull, nil

	case opt.AndOp:
		return e.evalAnd(s, env)
	case opt.OrOp:
		return e.evalOr(s, env)

	case opt.NotOp:
		d, err := e.evalScalar(s.Children[0], env)
		if err != nil {
			return nil, err
		}
		switch d {
		case tree.DBoolTrue:
			return tree.DBoolFalse, nil
		case tree.DBoolFalse:
			return tree.DBoolTrue, nil
		case tree.DNull:
			return tree.DNull, nil
		}
		return nil, errors.AssertionFailedf("NOT applied to %T", d)
	}

	if op, ok := evalBinaryOps[s.Op]; ok {
		left, err := e.evalScalar(s.Children[0], env)
		if err != nil {
			return nil, err
		}
		right, err := e.evalScalar(s.Children[1], env)
		if err != nil {
			return nil, err
		}
		return tree.EvalBinary(op, left, right)
	}
	if op, ok := evalComparisonOps[s.Op]; ok {
		left, err := e.evalScalar(s.Children[0], env)
		if err != nil {
			return nil, err
		}
		right, err := e.evalScalar(s.Children[1], env)
		if err != nil {
			return nil, err
		}
		return tree.EvalComparison(op, left, right)
	}
	return nil, errors.AssertionFailedf("unexpected scalar operator %s", s.Op)
}

func (e *Executor) evalAnd(s *memo.ScalarExpr, env Env) (tree.Datum, error) {
	left, err := e.evalScalar(s.Children[0], env)
	if err != nil {
		return nil, err
	}
	if left == tree.DBoolFalse {
		return tree.DBoolFalse, nil
	}
	right, err := e.evalScalar(s.Children[1], env)
	if err != nil {
		return nil, err
	}
	switch {
	case right == tree.DBoolFalse:
		return tree.DBoolFalse, nil
	case left == tree.DNull || right == tree.DNull:
		return tree.DNull, nil
	}
	return tree.DBoolTrue, nil
}

func (e *Executor) evalOr(s *memo.ScalarExpr, env Env) (tree.Datum, error) {
	left, err := e.evalScalar(s.Children[0], env)
	if err != nil {
		return nil, err
	}
	if left == tree.DBoolTrue {
		return tree.DBoolTrue, nil
	}
	right, err := e.evalScalar(s.Children[1], env)
	if err != nil {
		return nil, err
	}
	switch {
	case right == tree.DBoolTrue:
		return tree.DBoolTrue, nil
	case left == tree.DNull || right == tree.DNull:
		return tree.DNull, nil
	}
	return tree.DBoolFalse, nil
}

// evalAggregate folds one aggregate over the rows of a partition. NULL
// operands are skipped by every aggregate except count(*); sum, min, max
// and avg of zero non-NULL values yield NULL.
func (e *Executor) evalAggregate(item *memo.AggregationsItem, rows []Env) (tree.Datum, error) {
	agg := item.Agg
	if agg.Op == opt.CountRowsOp {
		return tree.NewDInt(int64(len(rows))), nil
	}

	var count int64
	var acc tree.Datum
	for _, env := range rows {
		d, err := e.evalScalar(agg.Children[0], env)
		if err != nil {
			return nil, err
		}
		if d == tree.DNull {
			continue
		}
		count++
		switch agg.Op {
		case opt.CountOp:
		case opt.SumOp, opt.AvgOp:
			acc, err = tree.SumInto(acc, d)
			if err != nil {
				return nil, err
			}
		case opt.MinOp:
			if acc == nil || d.Compare(acc) < 0 {
				acc = d
			}
		case opt.MaxOp:
			if acc == nil || d.Compare(acc) > 0 {
				acc = d
			}
		default:
			return nil, errors.AssertionFailedf("unexpected aggregate %s", agg.Op)
		}
	}

	switch agg.Op {
	case opt.CountOp:
		return tree.NewDInt(count), nil
	case opt.SumOp, opt.MinOp, opt.MaxOp:
		if acc == nil {
			return tree.DNull, nil
		}
		return acc, nil
	case opt.AvgOp:
		if acc == nil {
			return tree.DNull, nil
		}
		return tree.EvalBinary(tree.Div, acc, tree.NewDInt(count))
	}
	return nil, errors.AssertionFailedf("unexpected aggregate %s", agg.Op)
}
