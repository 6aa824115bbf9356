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

package memo

import (
	"testing"

	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/sem/tree"
	"github.com/bjm1244/raptordb/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

func TestMemoAddTree(t *testing.T) {
	md := &opt.Metadata{}
	md.Init()

	left := MakeScan(1, opt.ColList{1, 2})
	right := MakeScan(3, opt.ColList{3, 4})
	join := MakeJoin(opt.InnerJoinOp, left, right,
		MakeBinary(opt.EqOp, MakeVariable(1, types.Int), MakeVariable(3, types.Int), types.Bool))

	var m Memo
	m.Init(md)
	root := m.AddTree(join)
	m.SetRoot(root)

	require.Equal(t, 3, m.NumGroups())
	require.Equal(t, root, m.RootGroup())
	require.Equal(t, 3, m.CountExprs())

	// Bottom-up copy: the join's child groups hold the scans.
	joinExpr := m.Group(root).Exprs[0]
	require.Equal(t, opt.InnerJoinOp, joinExpr.Op)
	require.Len(t, joinExpr.ChildGroups, 2)
	require.Equal(t, opt.ScanOp, m.Group(joinExpr.ChildGroups[0]).Exprs[0].Op)
}

// TestMemoAddExprDedup verifies the structural dedup check: re-inserting a
// member with the same operator, child groups and payload is a no-op.
func TestMemoAddExprDedup(t *testing.T) {
	md := &opt.Metadata{}
	md.Init()

	var m Memo
	m.Init(md)
	grp := m.AddTree(&Expr{
		Op:       opt.CrossJoinOp,
		Children: []*Expr{MakeScan(1, opt.ColList{1, 2}), MakeScan(3, opt.ColList{3, 4})},
		Private:  &JoinPrivate{On: TrueSingleton},
	})

	joinGroup := m.Group(grp)
	orig := joinGroup.Exprs[0]

	commuted := &GroupExpr{
		Op:          orig.Op,
		ChildGroups: []GroupID{orig.ChildGroups[1], orig.ChildGroups[0]},
		Private:     orig.Private,
	}
	require.True(t, m.AddExpr(grp, commuted))
	require.Equal(t, 2, len(joinGroup.Exprs))

	// Commuting again regenerates the original member.
	recommuted := &GroupExpr{
		Op:          commuted.Op,
		ChildGroups: []GroupID{commuted.ChildGroups[1], commuted.ChildGroups[0]},
		Private:     commuted.Private,
	}
	require.False(t, m.AddExpr(grp, recommuted))
	require.Equal(t, 2, len(joinGroup.Exprs))
}

func TestExtractCombineConjuncts(t *testing.T) {
	a := MakeVariable(1, types.Bool)
	b := MakeVariable(2, types.Bool)
	c := MakeVariable(3, types.Bool)

	cond := MakeBinary(opt.AndOp, MakeBinary(opt.AndOp, a, b, types.Bool), c, types.Bool)
	conjuncts := ExtractConjuncts(cond)
	require.Len(t, conjuncts, 3)
	require.Equal(t, a, conjuncts[0])
	require.Equal(t, c, conjuncts[2])

	require.Equal(t, TrueSingleton, CombineConjuncts(nil))
	require.Equal(t, a, CombineConjuncts([]*ScalarExpr{a}))
	rebuilt := CombineConjuncts(conjuncts)
	require.True(t, ScalarEquals(cond, rebuilt))
}

func TestIsNullRejecting(t *testing.T) {
	cmp := MakeBinary(opt.GtOp,
		MakeVariable(3, types.Int), MakeConst(tree.NewDInt(0)), types.Bool)
	rightCols := opt.MakeColSet(3, 4)

	require.True(t, IsNullRejecting(cmp, rightCols))
	require.False(t, IsNullRejecting(cmp, opt.MakeColSet(1, 2)))

	// A bare boolean column is not a comparison and makes no promise about
	// NULL inputs.
	require.False(t, IsNullRejecting(MakeVariable(3, types.Bool), rightCols))
}

func TestScalarOuterRefs(t *testing.T) {
	sub := MakeScan(3, opt.ColList{3, 4})
	exists := MakeExists(sub, opt.MakeColSet(1))
	cond := MakeBinary(opt.AndOp, exists,
		MakeBinary(opt.EqOp, MakeVariable(2, types.Int), MakeConst(tree.NewDInt(5)), types.Bool),
		types.Bool)

	refs := cond.OuterRefs()
	require.True(t, refs.Contains(1))
	require.True(t, refs.Contains(2))
	require.False(t, refs.Contains(3))
}
