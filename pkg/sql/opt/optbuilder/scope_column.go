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

package optbuilder

import (
	"fmt"

	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/sem/tree"
	"github.com/bjm1244/raptordb/pkg/sql/types"
)

// scopeColumn holds per-column information that is scoped to a particular
// relational expression. During name resolution, unresolved column names in
// the AST resolve to a scopeColumn, which carries the stable metadata ID
// used for the rest of the column's lifetime within the query.
type scopeColumn struct {
	// name is the current name of this column. It is usually the same as
	// the original name, unless the column was renamed with an AS clause.
	name tree.Name

	// table is the qualifying alias, or empty for anonymous (synthesized)
	// columns.
	table tree.Name

	typ *types.T

	// id is the identifier for this column, unique across all the columns
	// in the query.
	id opt.ColumnID

	// hidden is true if the column is not selected by a '*' wildcard
	// operator.
	hidden bool
}

func (c *scopeColumn) String() string {
	if c.table != "" {
		return fmt.Sprintf("%s.%s", c.table, c.name)
	}
	return string(c.name)
}
