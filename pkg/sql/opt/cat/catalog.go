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

// Package cat defines the catalog boundary consumed by the binder. The
// catalog itself (storage of table definitions) lives outside this core; the
// binder only needs name-to-schema resolution.
package cat

import (
	"context"

	"github.com/bjm1244/raptordb/pkg/sql/sem/tree"
	"github.com/bjm1244/raptordb/pkg/sql/types"
)

// Catalog is the interface the binder uses to resolve base relations.
// Implementations are used by a single query at a time; the core never
// shares one resolution across queries.
type Catalog interface {
	// ResolveDataSource locates a data source by name. Resolution failures
	// (unknown database, unknown table) are returned as errors carrying the
	// appropriate SQLSTATE and become binder errors.
	ResolveDataSource(ctx context.Context, name *tree.TableName) (DataSource, error)
}

// DataSource is a catalog object that can appear in a FROM clause.
type DataSource interface {
	// Name returns the fully qualified name of the data source.
	Name() *tree.TableName
}

// Table is a data source with a fixed, ordered column list.
type Table interface {
	DataSource

	// ColumnCount returns the number of columns.
	ColumnCount() int

	// Column returns the ith column, in schema order.
	Column(i int) Column
}

// Column describes one table column: its name and semantic type.
type Column interface {
	// ColName returns the column name.
	ColName() tree.Name

	// DatumType returns the semantic type of the column.
	DatumType() *types.T
}
