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

func TestColSetBasic(t *testing.T) {
	var s ColSet
	require.True(t, s.Empty())
	require.Equal(t, 0, s.Len())

	s.Add(2)
	s.Add(5)
	require.False(t, s.Empty())
	require.Equal(t, 2, s.Len())
	require.True(t, s.Contains(2))
	require.False(t, s.Contains(3))
	require.Equal(t, "(2,5)", s.String())

	s.Remove(2)
	require.Equal(t, ColList{5}, s.ToList())
}

// Adding a column past the inline cutoff migrates the set to the sparse
// representation; the set must behave identically afterwards, including
// after every element is removed again.
func TestColSetSpill(t *testing.T) {
	var s ColSet
	s.Add(1)
	s.Add(100)
	require.Equal(t, 2, s.Len())
	require.True(t, s.Contains(1))
	require.True(t, s.Contains(100))
	require.Equal(t, "(1,100)", s.String())

	s.Remove(1)
	s.Remove(100)
	require.Equal(t, 0, s.Len())
	require.True(t, s.Empty())
	require.Equal(t, "()", s.String())

	s.Add(3)
	require.Equal(t, ColList{3}, s.ToList())

	var d ColSet
	d.Add(2)
	d.Add(70)
	d.DifferenceWith(d.Copy())
	require.True(t, d.Empty())
}

func TestColSetNext(t *testing.T) {
	small := MakeColSet(2, 5)
	col, ok := small.Next(0)
	require.True(t, ok)
	require.Equal(t, ColumnID(2), col)
	col, ok = small.Next(3)
	require.True(t, ok)
	require.Equal(t, ColumnID(5), col)
	_, ok = small.Next(6)
	require.False(t, ok)
	_, ok = small.Next(smallCutoff + 1)
	require.False(t, ok)

	large := MakeColSet(2, 100)
	col, ok = large.Next(3)
	require.True(t, ok)
	require.Equal(t, ColumnID(100), col)
	_, ok = large.Next(101)
	require.False(t, ok)
}

func TestColSetOps(t *testing.T) {
	a := MakeColSet(1, 2, 3)
	b := MakeColSet(3, 4)

	require.Equal(t, "(1-4)", a.Union(b).String())
	require.Equal(t, "(3)", a.Intersection(b).String())
	require.Equal(t, "(1,2)", a.Difference(b).String())
	require.True(t, a.Intersects(b))
	require.False(t, a.Intersects(MakeColSet(5)))
	require.True(t, MakeColSet(1, 3).SubsetOf(a))
	require.True(t, a.Equals(MakeColSet(3, 2, 1)))

	// Mixed representations.
	c := MakeColSet(3, 200)
	require.True(t, a.Intersects(c))
	require.Equal(t, "(1-3,200)", a.Union(c).String())
	require.Equal(t, "(200)", c.Difference(a).String())
}
