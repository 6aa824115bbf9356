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
	"fmt"

	"github.com/bjm1244/raptordb/pkg/sql/opt/cat"
	"github.com/bjm1244/raptordb/pkg/sql/types"
	"github.com/cockroachdb/errors"
)

// ColumnID uniquely identifies the usage of a column within the scope of a
// query. ColumnID 0 is reserved to mean "unknown column". Each occurrence of
// a table in the query gets fresh column IDs, so the two sides of a self
// join are distinguishable. IDs are allocated by a counter owned by one
// Metadata instance and are never reused within, or persisted beyond, that
// query.
type ColumnID int32

// index returns the index of the column in Metadata.cols. It's biased by 1
// so that ColumnID 0 can be reserved.
func (c ColumnID) index() int {
	return int(c - 1)
}

// ColList is an ordered list of column IDs.
type ColList []ColumnID

// Find searches for a column in the list and returns its index in the list
// (if successful).
func (cl ColList) Find(col ColumnID) (idx int, ok bool) {
	for i := range cl {
		if cl[i] == col {
			return i, true
		}
	}
	return -1, false
}

// Equals returns true if this column list has the same columns as the given
// column list, in the same order.
func (cl ColList) Equals(other ColList) bool {
	if len(cl) != len(other) {
		return false
	}
	for i := range cl {
		if cl[i] != other[i] {
			return false
		}
	}
	return true
}

// ToSet converts a column id list to a column id set.
func (cl ColList) ToSet() ColSet {
	var r ColSet
	for _, col := range cl {
		r.Add(col)
	}
	return r
}

// TableID uniquely identifies one usage of a table within the scope of a
// query. The ID is the ColumnID of the table's first column; the ID of the
// column at ordinal ord is TableID + ord. This makes a ColumnID a composite
// of its table's ID and the column's position within the table.
type TableID uint64

// ColumnID returns the metadata ID of the column at the given ordinal
// position in the table.
func (t TableID) ColumnID(ord int) ColumnID {
	return ColumnID(t) + ColumnID(ord)
}

// ColumnOrdinal returns the ordinal position of the given column in its
// table.
func (t TableID) ColumnOrdinal(id ColumnID) int {
	return int(id - ColumnID(t))
}

// ColumnMeta stores information about one of the columns stored in the
// metadata.
type ColumnMeta struct {
	// MetaID is the identifier for this column that is unique within the
	// query metadata.
	MetaID ColumnID

	// Alias is the best-effort name of this column, used for plan display.
	Alias string

	// Type is the scalar SQL type of this column.
	Type *types.T

	// Table is the table occurrence this column belongs to, or 0 if the
	// column was synthesized by a projection or aggregation.
	Table TableID
}

// TableMeta stores information about one usage of a table within the query.
// The same catalog table appears once per reference (e.g. twice for a self
// join), each time with distinct column IDs.
type TableMeta struct {
	// MetaID is the identifier assigned to this table occurrence.
	MetaID TableID

	// Table is the catalog definition.
	Table cat.Table

	// Alias is the name under which the occurrence is visible (the AS alias
	// if given, otherwise the table name).
	Alias string
}

// Metadata assigns unique ids to the columns and tables used within the
// scope of a particular query. Everything is per query: instances are not
// shared between queries, grow monotonically during binding, and are
// discarded after plan extraction.
type Metadata struct {
	// cols is an ordered list of metadata for every column used by the
	// query. The index of the column in this list is the ColumnID - 1.
	cols []ColumnMeta

	// tables is an ordered list of every table occurrence.
	tables []TableMeta
}

// Init prepares the metadata for use (or reuse).
func (md *Metadata) Init() {
	md.cols = md.cols[:0]
	md.tables = md.tables[:0]
}

// AddTable indexes a new occurrence of a catalog table, allocating fresh
// column IDs for all of its columns in ordinal order. The alias is the
// visible name of the occurrence.
func (md *Metadata) AddTable(tab cat.Table, alias string) TableID {
	tabID := TableID(len(md.cols) + 1)
	for i, n := 0, tab.ColumnCount(); i < n; i++ {
		col := tab.Column(i)
		md.cols = append(md.cols, ColumnMeta{
			MetaID: tabID.ColumnID(i),
			Alias:  string(col.ColName()),
			Type:   col.DatumType(),
			Table:  tabID,
		})
	}
	md.tables = append(md.tables, TableMeta{MetaID: tabID, Table: tab, Alias: alias})
	return tabID
}

// AddColumn allocates an ID for a synthesized column (a projection or an
// aggregation result) that has no backing table.
func (md *Metadata) AddColumn(alias string, typ *types.T) ColumnID {
	if alias == "" {
		alias = fmt.Sprintf("column%d", len(md.cols)+1)
	}
	colID := ColumnID(len(md.cols) + 1)
	md.cols = append(md.cols, ColumnMeta{MetaID: colID, Alias: alias, Type: typ})
	return colID
}

// NumColumns returns the count of columns tracked by this Metadata instance.
func (md *Metadata) NumColumns() int {
	return len(md.cols)
}

// ColumnMeta looks up the metadata for the column associated with the given
// column id. The same index can be passed to ColumnMeta for as long as the
// query lives; an assigned id is never mutated.
func (md *Metadata) ColumnMeta(colID ColumnID) *ColumnMeta {
	if colID == 0 {
		panic(errors.AssertionFailedf("uninitialized column id 0"))
	}
	return &md.cols[colID.index()]
}

// ColumnAlias returns the display name of the column.
func (md *Metadata) ColumnAlias(colID ColumnID) string {
	return md.ColumnMeta(colID).Alias
}

// ColumnType returns the semantic type of the column.
func (md *Metadata) ColumnType(colID ColumnID) *types.T {
	return md.ColumnMeta(colID).Type
}

// TableMeta looks up the metadata for the given table occurrence.
func (md *Metadata) TableMeta(tabID TableID) *TableMeta {
	for i := range md.tables {
		if md.tables[i].MetaID == tabID {
			return &md.tables[i]
		}
	}
	panic(errors.AssertionFailedf("table id %d not found", tabID))
}

// QualifiedAlias returns "table.column" for table-backed columns and the
// plain alias for synthesized ones.
func (md *Metadata) QualifiedAlias(colID ColumnID) string {
	cm := md.ColumnMeta(colID)
	if cm.Table == 0 {
		return cm.Alias
	}
	return fmt.Sprintf("%s.%s", md.TableMeta(cm.Table).Alias, cm.Alias)
}

// AllTables returns the metadata for every table occurrence, in the order
// they were added.
func (md *Metadata) AllTables() []TableMeta {
	return md.tables
}
