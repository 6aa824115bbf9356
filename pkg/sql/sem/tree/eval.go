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

package tree

import (
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgcode"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgerror"
	"github.com/cockroachdb/errors"
)

// ErrDivByZero is returned for division by zero during constant folding or
// execution.
var ErrDivByZero = pgerror.New(pgcode.DivisionByZero, "division by zero")

// EvalBinary evaluates an arithmetic operator over two datums, following
// the typing rules of the binder: an int operand widens to float or
// decimal when paired with one, and integer division is exact (decimal).
// A NULL operand yields NULL.
func EvalBinary(op BinaryOperator, left, right Datum) (Datum, error) {
	if left == DNull || right == DNull {
		return DNull, nil
	}

	if l, ok := left.(DInt); ok {
		if r, ok := right.(DInt); ok && op != Div {
			switch op {
			case Plus:
				return DInt(l + r), nil
			case Minus:
				return DInt(l - r), nil
			case Mult:
				return DInt(l * r), nil
			}
		}
	}

	_, lFloat := left.(DFloat)
	_, rFloat := right.(DFloat)
	_, lDec := left.(*DDecimal)
	_, rDec := right.(*DDecimal)
	if (lFloat || rFloat) && !lDec && !rDec {
		return evalFloatBinary(op, left, right)
	}
	return evalDecimalBinary(op, left, right)
}

func asFloat(d Datum) (float64, bool) {
	switch t := d.(type) {
	case DInt:
		return float64(t), true
	case DFloat:
		return float64(t), true
	}
	return 0, false
}

func evalFloatBinary(op BinaryOperator, left, right Datum) (Datum, error) {
	l, ok1 := asFloat(left)
	r, ok2 := asFloat(right)
	if !ok1 || !ok2 {
		return nil, errors.AssertionFailedf("cannot evaluate %T %s %T", left, op, right)
	}
	switch op {
	case Plus:
		return DFloat(l + r), nil
	case Minus:
		return DFloat(l - r), nil
	case Mult:
		return DFloat(l * r), nil
	case Div:
		if r == 0 {
			return nil, ErrDivByZero
		}
		return DFloat(l / r), nil
	}
	return nil, errors.AssertionFailedf("unknown binary operator %s", op)
}

func evalDecimalBinary(op BinaryOperator, left, right Datum) (Datum, error) {
	l, ok1 := asDecimal(left)
	r, ok2 := asDecimal(right)
	if !ok1 || !ok2 {
		return nil, errors.AssertionFailedf("cannot evaluate %T %s %T", left, op, right)
	}
	res := &DDecimal{}
	var err error
	switch op {
	case Plus:
		_, err = DecimalCtx.Add(&res.Decimal, l, r)
	case Minus:
		_, err = DecimalCtx.Sub(&res.Decimal, l, r)
	case Mult:
		_, err = DecimalCtx.Mul(&res.Decimal, l, r)
	case Div:
		if r.IsZero() {
			return nil, ErrDivByZero
		}
		_, err = DecimalCtx.Quo(&res.Decimal, l, r)
	default:
		return nil, errors.AssertionFailedf("unknown binary operator %s", op)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// EvalComparison evaluates a comparison over two datums. A NULL operand
// yields NULL, which a filter later treats as false.
func EvalComparison(op ComparisonOperator, left, right Datum) (Datum, error) {
	if left == DNull || right == DNull {
		return DNull, nil
	}
	cmp := left.Compare(right)
	var res bool
	switch op {
	case EQ:
		res = cmp == 0
	case NE:
		res = cmp != 0
	case LT:
		res = cmp < 0
	case LE:
		res = cmp <= 0
	case GT:
		res = cmp > 0
	case GE:
		res = cmp >= 0
	default:
		return nil, errors.AssertionFailedf("unknown comparison operator %s", op)
	}
	if res {
		return DBoolTrue, nil
	}
	return DBoolFalse, nil
}

// SumInto accumulates operand into acc for the sum aggregate, allocating
// the accumulator on first use. The accumulator has the operand's type.
func SumInto(acc, operand Datum) (Datum, error) {
	if operand == DNull {
		return acc, nil
	}
	if acc == nil {
		return operand, nil
	}
	return EvalBinary(Plus, acc, operand)
}
