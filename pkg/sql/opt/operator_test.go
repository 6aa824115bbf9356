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

package opt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNegateOp(t *testing.T) {
	testCases := []struct {
		op, negated Operator
	}{
		{EqOp, NeOp},
		{NeOp, EqOp},
		{LtOp, GeOp},
		{GtOp, LeOp},
		{LeOp, GtOp},
		{GeOp, LtOp},
	}
	for _, tc := range testCases {
		negated, ok := tc.op.NegateOp()
		require.True(t, ok)
		require.Equal(t, tc.negated, negated)

		// Negation is an involution.
		back, ok := negated.NegateOp()
		require.True(t, ok)
		require.Equal(t, tc.op, back)
	}

	_, ok := PlusOp.NegateOp()
	require.False(t, ok)
	_, ok = AndOp.NegateOp()
	require.False(t, ok)
}

func TestUnApplyOp(t *testing.T) {
	require.Equal(t, SemiJoinOp, SemiJoinApplyOp.UnApplyOp())
	require.Equal(t, AntiJoinOp, AntiJoinApplyOp.UnApplyOp())

	// Non-apply operators map to themselves.
	require.Equal(t, InnerJoinOp, InnerJoinOp.UnApplyOp())
	require.Equal(t, ScanOp, ScanOp.UnApplyOp())
}
