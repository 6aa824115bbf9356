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
	"bytes"
	"fmt"
	"math/bits"

	"golang.org/x/tools/container/intsets"
)

// We store bits inline for column IDs smaller than this cutoff; larger IDs
// spill to a sparse set.
const smallCutoff = 64

// ColSet efficiently stores an unordered set of column ids. The zero value
// is an empty set. Most queries touch few enough columns that the set stays
// in the inline word and never allocates.
type ColSet struct {
	// small is zero whenever large is non-nil.
	small uint64
	large *intsets.Sparse
}

// MakeColSet returns a set initialized with the given values.
func MakeColSet(vals ...ColumnID) ColSet {
	var res ColSet
	for _, v := range vals {
		res.Add(v)
	}
	return res
}

func (s *ColSet) toLarge() *intsets.Sparse {
	if s.large != nil {
		return s.large
	}
	large := new(intsets.Sparse)
	for v := s.small; v != 0; {
		i := bits.TrailingZeros64(v)
		large.Insert(i + 1)
		v &^= 1 << uint(i)
	}
	return large
}

// Add adds a column to the set. No-op if it is already in the set.
func (s *ColSet) Add(col ColumnID) {
	if col <= 0 {
		panic(fmt.Sprintf("invalid column id %d", col))
	}
	if col <= smallCutoff && s.large == nil {
		s.small |= 1 << uint(col-1)
		return
	}
	if s.large == nil {
		s.large = s.toLarge()
		s.small = 0
	}
	s.large.Insert(int(col))
}

// Remove removes a column from the set. No-op if it is not in the set.
func (s *ColSet) Remove(col ColumnID) {
	if s.large != nil {
		s.large.Remove(int(col))
		return
	}
	if col <= smallCutoff {
		s.small &^= 1 << uint(col-1)
	}
}

// Contains returns true if the set contains the column.
func (s ColSet) Contains(col ColumnID) bool {
	if s.large != nil {
		return s.large.Has(int(col))
	}
	return col >= 1 && col <= smallCutoff && s.small&(1<<uint(col-1)) != 0
}

// Empty returns true if the set is empty.
func (s ColSet) Empty() bool {
	return s.small == 0 && (s.large == nil || s.large.IsEmpty())
}

// Len returns the number of columns in the set.
func (s ColSet) Len() int {
	if s.large != nil {
		return s.large.Len()
	}
	return bits.OnesCount64(s.small)
}

// Next returns the first column in the set with an ID at least startVal. If
// there is no such column, the second return value is false.
func (s ColSet) Next(startVal ColumnID) (ColumnID, bool) {
	if startVal < 1 {
		startVal = 1
	}
	if s.large != nil {
		if res := s.large.LowerBound(int(startVal)); res != intsets.MaxInt {
			return ColumnID(res), true
		}
		return 0, false
	}
	if startVal <= smallCutoff {
		if ntz := bits.TrailingZeros64(s.small >> uint(startVal-1)); ntz < 64 {
			return startVal + ColumnID(ntz), true
		}
	}
	return 0, false
}

// ForEach calls the given function for each column in the set, in increasing
// ID order.
func (s ColSet) ForEach(f func(col ColumnID)) {
	if s.large != nil {
		for x := s.large.Min(); x != intsets.MaxInt; x = s.large.LowerBound(x + 1) {
			f(ColumnID(x))
		}
		return
	}
	for v := s.small; v != 0; {
		i := bits.TrailingZeros64(v)
		f(ColumnID(i + 1))
		v &^= 1 << uint(i)
	}
}

// Copy returns a copy of the set that can be modified independently.
func (s ColSet) Copy() ColSet {
	var c ColSet
	c.small = s.small
	if s.large != nil {
		c.large = new(intsets.Sparse)
		c.large.Copy(s.large)
	}
	return c
}

// UnionWith adds all the columns of rhs to this set.
func (s *ColSet) UnionWith(rhs ColSet) {
	if s.large == nil && rhs.large == nil {
		s.small |= rhs.small
		return
	}
	rhs.ForEach(func(col ColumnID) { s.Add(col) })
}

// Union returns the union of the two sets as a new set.
func (s ColSet) Union(rhs ColSet) ColSet {
	r := s.Copy()
	r.UnionWith(rhs)
	return r
}

// IntersectionWith removes any columns not also in rhs.
func (s *ColSet) IntersectionWith(rhs ColSet) {
	if s.large == nil && rhs.large == nil {
		s.small &= rhs.small
		return
	}
	s.ForEach(func(col ColumnID) {
		if !rhs.Contains(col) {
			s.Remove(col)
		}
	})
}

// Intersection returns the intersection of the two sets as a new set.
func (s ColSet) Intersection(rhs ColSet) ColSet {
	r := s.Copy()
	r.IntersectionWith(rhs)
	return r
}

// Intersects returns true if the sets have any column in common.
func (s ColSet) Intersects(rhs ColSet) bool {
	if s.large == nil && rhs.large == nil {
		return s.small&rhs.small != 0
	}
	found := false
	s.ForEach(func(col ColumnID) {
		if rhs.Contains(col) {
			found = true
		}
	})
	return found
}

// DifferenceWith removes any columns in rhs from this set.
func (s *ColSet) DifferenceWith(rhs ColSet) {
	if s.large == nil && rhs.large == nil {
		s.small &^= rhs.small
		return
	}
	rhs.ForEach(func(col ColumnID) { s.Remove(col) })
}

// Difference returns the set difference as a new set.
func (s ColSet) Difference(rhs ColSet) ColSet {
	r := s.Copy()
	r.DifferenceWith(rhs)
	return r
}

// SubsetOf returns true if every column of this set is in rhs.
func (s ColSet) SubsetOf(rhs ColSet) bool {
	ok := true
	s.ForEach(func(col ColumnID) {
		if !rhs.Contains(col) {
			ok = false
		}
	})
	return ok
}

// Equals returns true if the two sets contain the same columns.
func (s ColSet) Equals(rhs ColSet) bool {
	return s.Len() == rhs.Len() && s.SubsetOf(rhs)
}

// SingleColumn returns the single column in the set; the set must have
// exactly one element.
func (s ColSet) SingleColumn() ColumnID {
	if s.Len() != 1 {
		panic(fmt.Sprintf("expected a single column, found %s", s))
	}
	col, _ := s.Next(0)
	return col
}

// ToList converts the set to a list, in increasing ID order.
func (s ColSet) ToList() ColList {
	res := make(ColList, 0, s.Len())
	s.ForEach(func(col ColumnID) { res = append(res, col) })
	return res
}

func (s ColSet) String() string {
	var buf bytes.Buffer
	buf.WriteByte('(')
	appendRange := func(start, end ColumnID) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		if start == end {
			fmt.Fprintf(&buf, "%d", start)
		} else {
			fmt.Fprintf(&buf, "%d-%d", start, end)
		}
	}
	rangeStart, rangeEnd := ColumnID(-1), ColumnID(-1)
	s.ForEach(func(col ColumnID) {
		if rangeStart != -1 && col == rangeEnd+1 {
			rangeEnd = col
			return
		}
		if rangeStart != -1 {
			appendRange(rangeStart, rangeEnd)
		}
		rangeStart, rangeEnd = col, col
	})
	if rangeStart != -1 {
		appendRange(rangeStart, rangeEnd)
	}
	buf.WriteByte(')')
	return buf.String()
}
