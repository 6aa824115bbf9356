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

// Package pgcode defines the PostgreSQL SQLSTATE codes used by this
// repository. Only the codes actually raised by the binder and optimizer are
// listed.
package pgcode

// Code is a wrapper around a 5-character SQLSTATE value.
type Code struct {
	code string
}

// MakeCode converts a 5-character string into a Code.
func MakeCode(code string) Code {
	return Code{code: code}
}

// String returns the underlying SQLSTATE value.
func (c Code) String() string { return c.code }

var (
	// Uncategorized is the fallback for errors without an assigned code.
	Uncategorized = MakeCode("XXUUU")
	// Internal marks assertion failures and other optimizer defects.
	Internal = MakeCode("XX000")

	// Syntax is raised by the parser.
	Syntax = MakeCode("42601")
	// UndefinedColumn is raised when name resolution finds no match.
	UndefinedColumn = MakeCode("42703")
	// AmbiguousColumn is raised when an unqualified name matches more than
	// one visible column.
	AmbiguousColumn = MakeCode("42702")
	// UndefinedTable is raised when the catalog cannot resolve a data source.
	UndefinedTable = MakeCode("42P01")
	// UndefinedDatabase is raised when the catalog cannot resolve a database.
	UndefinedDatabase = MakeCode("3D000")
	// DatatypeMismatch is raised by the type checker.
	DatatypeMismatch = MakeCode("42804")
	// Grouping is raised for references to non-grouped columns.
	Grouping = MakeCode("42803")
	// DuplicateAlias is raised for duplicate table aliases in one FROM list.
	DuplicateAlias = MakeCode("42712")
	// FeatureNotSupported is raised for recognized but unsupported SQL
	// constructs.
	FeatureNotSupported = MakeCode("0A000")
	// StatementTooComplex is raised when subquery nesting exceeds the
	// binder's depth limit.
	StatementTooComplex = MakeCode("54001")
	// DivisionByZero is raised during constant folding and execution.
	DivisionByZero = MakeCode("22012")
)
