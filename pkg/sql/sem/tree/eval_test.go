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
	"testing"

	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgcode"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgerror"
	"github.com/stretchr/testify/require"
)

func TestEvalBinaryInt(t *testing.T) {
	testCases := []struct {
		op       BinaryOperator
		l, r     int64
		expected string
	}{
		{Plus, 2, 3, "5"},
		{Minus, 2, 3, "-1"},
		{Mult, 4, 5, "20"},
	}
	for _, tc := range testCases {
		res, err := EvalBinary(tc.op, NewDInt(tc.l), NewDInt(tc.r))
		require.NoError(t, err)
		require.IsType(t, DInt(0), res)
		require.Equal(t, tc.expected, res.String())
	}
}

// Integer division is exact and produces a decimal, matching the binder's
// typing of int / int.
func TestEvalBinaryIntDivision(t *testing.T) {
	testCases := []struct {
		l, r     int64
		expected string
	}{
		{1, 2, "0.5"},
		{2, 2, "1"},
		{30, 2, "15"},
		{-7, 4, "-1.75"},
	}
	for _, tc := range testCases {
		res, err := EvalBinary(Div, NewDInt(tc.l), NewDInt(tc.r))
		require.NoError(t, err)
		require.IsType(t, &DDecimal{}, res)
		require.Equal(t, tc.expected, res.String())
	}
}

func TestEvalBinaryFloat(t *testing.T) {
	res, err := EvalBinary(Plus, DFloat(1.5), NewDInt(2))
	require.NoError(t, err)
	require.Equal(t, DFloat(3.5), res)

	res, err = EvalBinary(Div, DFloat(1), DFloat(4))
	require.NoError(t, err)
	require.Equal(t, DFloat(0.25), res)

	res, err = EvalBinary(Mult, NewDInt(3), DFloat(0.5))
	require.NoError(t, err)
	require.Equal(t, DFloat(1.5), res)
}

func TestEvalBinaryDecimal(t *testing.T) {
	l, err := ParseDDecimal("1.1")
	require.NoError(t, err)
	r, err := ParseDDecimal("2.2")
	require.NoError(t, err)

	res, err := EvalBinary(Plus, l, r)
	require.NoError(t, err)
	require.Equal(t, "3.3", res.String())

	// A decimal operand forces the decimal path even when the other side
	// is a float or an int.
	res, err = EvalBinary(Mult, l, NewDInt(3))
	require.NoError(t, err)
	require.IsType(t, &DDecimal{}, res)
	require.Equal(t, "3.3", res.String())

	res, err = EvalBinary(Minus, l, DFloat(0.1))
	require.NoError(t, err)
	require.IsType(t, &DDecimal{}, res)
	require.Equal(t, "1.0", res.String())
}

func TestEvalBinaryDivByZero(t *testing.T) {
	zeroDec, err := ParseDDecimal("0")
	require.NoError(t, err)
	divisors := []Datum{NewDInt(0), DFloat(0), zeroDec}
	for _, d := range divisors {
		_, err := EvalBinary(Div, NewDInt(1), d)
		require.Error(t, err)
		require.Equal(t, pgcode.DivisionByZero, pgerror.GetPGCode(err))
	}
}

func TestEvalBinaryNull(t *testing.T) {
	res, err := EvalBinary(Plus, DNull, NewDInt(1))
	require.NoError(t, err)
	require.Equal(t, DNull, res)

	res, err = EvalBinary(Div, NewDInt(1), DNull)
	require.NoError(t, err)
	require.Equal(t, DNull, res)
}

func TestEvalComparison(t *testing.T) {
	dec, err := ParseDDecimal("2.0")
	require.NoError(t, err)

	testCases := []struct {
		op       ComparisonOperator
		l, r     Datum
		expected Datum
	}{
		{EQ, NewDInt(1), NewDInt(1), DBoolTrue},
		{NE, NewDInt(1), NewDInt(1), DBoolFalse},
		{LT, NewDInt(1), NewDInt(2), DBoolTrue},
		{LE, NewDInt(2), NewDInt(2), DBoolTrue},
		{GT, NewDInt(1), NewDInt(2), DBoolFalse},
		{GE, NewDInt(3), NewDInt(2), DBoolTrue},
		{EQ, NewDString("a"), NewDString("a"), DBoolTrue},
		{LT, NewDString("a"), NewDString("b"), DBoolTrue},
		// Numeric comparisons cross types.
		{EQ, NewDInt(2), DFloat(2), DBoolTrue},
		{EQ, NewDInt(2), dec, DBoolTrue},
		{LT, DFloat(1.5), NewDInt(2), DBoolTrue},
	}
	for _, tc := range testCases {
		res, err := EvalComparison(tc.op, tc.l, tc.r)
		require.NoError(t, err)
		require.Equal(t, tc.expected, res, "%s %s %s", tc.l, tc.op, tc.r)
	}
}

func TestEvalComparisonNull(t *testing.T) {
	res, err := EvalComparison(EQ, DNull, NewDInt(1))
	require.NoError(t, err)
	require.Equal(t, DNull, res)

	res, err = EvalComparison(NE, DNull, DNull)
	require.NoError(t, err)
	require.Equal(t, DNull, res)
}

func TestSumInto(t *testing.T) {
	// NULL operands leave the accumulator untouched, including the nil
	// initial state.
	acc, err := SumInto(nil, DNull)
	require.NoError(t, err)
	require.Nil(t, acc)

	acc, err = SumInto(acc, NewDInt(10))
	require.NoError(t, err)
	require.Equal(t, NewDInt(10), acc)

	acc, err = SumInto(acc, DNull)
	require.NoError(t, err)
	require.Equal(t, NewDInt(10), acc)

	acc, err = SumInto(acc, NewDInt(5))
	require.NoError(t, err)
	require.Equal(t, NewDInt(15), acc)
}
