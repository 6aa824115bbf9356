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

// Package testcat implements an in-memory catalog for tests: tables are
// defined with CREATE TABLE text and can hold rows for the reference
// executor.
package testcat

import (
	"context"
	"strconv"
	"strings"

	"github.com/bjm1244/raptordb/pkg/sql/opt/cat"
	"github.com/bjm1244/raptordb/pkg/sql/parser"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgcode"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgerror"
	"github.com/bjm1244/raptordb/pkg/sql/sem/tree"
	"github.com/bjm1244/raptordb/pkg/sql/types"
	"github.com/cockroachdb/errors"
)

// testDB is the single database the test catalog serves. Unqualified table
// names resolve against it.
const testDB = "t"

// Catalog is an in-memory implementation of cat.Catalog for testing. It is
// also the executor's row provider.
type Catalog struct {
	tables map[string]*Table
}

var _ cat.Catalog = &Catalog{}

// New creates an empty test catalog.
func New() *Catalog {
	return &Catalog{tables: make(map[string]*Table)}
}

// ResolveDataSource implements cat.Catalog.
func (tc *Catalog) ResolveDataSource(
	_ context.Context, name *tree.TableName,
) (cat.DataSource, error) {
	if name.DatabaseName != "" && name.DatabaseName != testDB {
		return nil, pgerror.Newf(pgcode.UndefinedDatabase,
			"database %q does not exist", name.DatabaseName)
	}
	tab, ok := tc.tables[string(name.TableName)]
	if !ok {
		return nil, pgerror.Newf(pgcode.UndefinedTable,
			"relation %q does not exist", name.TableName)
	}
	return tab, nil
}

// ExecuteDDL parses and applies a CREATE TABLE statement.
func (tc *Catalog) ExecuteDDL(sql string) error {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return err
	}
	ct, ok := stmt.(*tree.CreateTable)
	if !ok {
		return errors.Newf("unsupported DDL statement: %T", stmt)
	}
	if ct.Table.DatabaseName != "" && ct.Table.DatabaseName != testDB {
		return pgerror.Newf(pgcode.UndefinedDatabase,
			"database %q does not exist", ct.Table.DatabaseName)
	}
	name := string(ct.Table.TableName)
	if _, ok := tc.tables[name]; ok {
		return errors.Newf("table %q already exists", name)
	}

	tab := &Table{name: tree.TableName{DatabaseName: testDB, TableName: ct.Table.TableName}}
	for _, def := range ct.Columns {
		typ, ok := types.ByName(string(def.Type))
		if !ok {
			return errors.Newf("unknown type %q", def.Type)
		}
		tab.columns = append(tab.columns, &Column{name: def.Name, typ: typ})
	}
	tc.tables[name] = tab
	return nil
}

// Table returns the named table, or nil.
func (tc *Catalog) Table(name string) *Table {
	return tc.tables[name]
}

// InsertRows parses comma-separated datum literals, one row per line, and
// appends them to the named table.
func (tc *Catalog) InsertRows(name, input string) error {
	tab, ok := tc.tables[name]
	if !ok {
		return pgerror.Newf(pgcode.UndefinedTable, "relation %q does not exist", name)
	}
	for _, line := range strings.Split(strings.TrimSpace(input), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != len(tab.columns) {
			return errors.Newf("expected %d values, got %d: %q",
				len(tab.columns), len(fields), line)
		}
		row := make([]tree.Datum, len(fields))
		for i, f := range fields {
			d, err := ParseDatum(strings.TrimSpace(f), tab.columns[i].typ)
			if err != nil {
				return err
			}
			row[i] = d
		}
		tab.rows = append(tab.rows, row)
	}
	return nil
}

// TableRows implements the executor's row provider over catalog tables.
func (tc *Catalog) TableRows(_ context.Context, tab cat.Table) ([][]tree.Datum, error) {
	t, ok := tab.(*Table)
	if !ok {
		return nil, errors.AssertionFailedf("unexpected table type %T", tab)
	}
	return t.rows, nil
}

// Table is an in-memory table with stored rows.
type Table struct {
	name    tree.TableName
	columns []*Column
	rows    [][]tree.Datum
}

var _ cat.Table = &Table{}

// Name implements cat.DataSource.
func (t *Table) Name() *tree.TableName { return &t.name }

// ColumnCount implements cat.Table.
func (t *Table) ColumnCount() int { return len(t.columns) }

// Column implements cat.Table.
func (t *Table) Column(i int) cat.Column { return t.columns[i] }

// Column is an in-memory table column.
type Column struct {
	name tree.Name
	typ  *types.T
}

var _ cat.Column = &Column{}

// ColName implements cat.Column.
func (c *Column) ColName() tree.Name { return c.name }

// DatumType implements cat.Column.
func (c *Column) DatumType() *types.T { return c.typ }

// ParseDatum converts a literal in test-table syntax into a datum of the
// given type. NULL (any case) is accepted for every type.
func ParseDatum(s string, typ *types.T) (tree.Datum, error) {
	if strings.EqualFold(s, "null") {
		return tree.DNull, nil
	}
	switch typ.Family() {
	case types.IntFamily:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.Newf("could not parse %q as int", s)
		}
		return tree.NewDInt(i), nil

	case types.FloatFamily:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Newf("could not parse %q as float", s)
		}
		return tree.DFloat(f), nil

	case types.DecimalFamily:
		return tree.ParseDDecimal(s)

	case types.StringFamily:
		return tree.NewDString(strings.Trim(s, "'")), nil

	case types.BoolFamily:
		switch strings.ToLower(s) {
		case "true", "t":
			return tree.DBoolTrue, nil
		case "false", "f":
			return tree.DBoolFalse, nil
		}
		return nil, errors.Newf("could not parse %q as bool", s)
	}
	return nil, errors.Newf("unsupported type %s in test tables", typ)
}
