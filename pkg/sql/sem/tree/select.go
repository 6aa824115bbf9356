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
	"bytes"
	"fmt"
)

// Select is a SELECT statement.
type Select struct {
	Exprs   SelectExprs
	From    TableExprs
	Where   Expr
	GroupBy []Expr
}

func (s *Select) String() string {
	var buf bytes.Buffer
	buf.WriteString("SELECT ")
	for i, e := range s.Exprs {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(e.String())
	}
	if len(s.From) > 0 {
		buf.WriteString(" FROM ")
		for i, t := range s.From {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(t.String())
		}
	}
	if s.Where != nil {
		fmt.Fprintf(&buf, " WHERE %s", s.Where)
	}
	if len(s.GroupBy) > 0 {
		buf.WriteString(" GROUP BY ")
		for i, e := range s.GroupBy {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(e.String())
		}
	}
	return buf.String()
}

// SelectExpr is one projection target, with an optional AS alias.
type SelectExpr struct {
	Expr Expr
	As   Name
}

func (s SelectExpr) String() string {
	if s.As != "" {
		return fmt.Sprintf("%s AS %s", s.Expr, s.As)
	}
	return s.Expr.String()
}

// SelectExprs is an ordered projection list.
type SelectExprs []SelectExpr

// TableExpr is a relational expression in a FROM clause.
type TableExpr interface {
	fmt.Stringer
	tableExpr()
}

func (*AliasedTableExpr) tableExpr() {}
func (*TableName) tableExpr()        {}
func (*JoinTableExpr) tableExpr()    {}
func (*Subquery) tableExpr()         {}

// TableExprs is the FROM list; multiple entries form an implicit cross join.
type TableExprs []TableExpr

// AliasedTableExpr attaches an AS alias to a table expression.
type AliasedTableExpr struct {
	Expr TableExpr
	As   Name
}

func (a *AliasedTableExpr) String() string {
	if a.As != "" {
		return fmt.Sprintf("%s AS %s", a.Expr, a.As)
	}
	return a.Expr.String()
}

// JoinType identifies the join variant in the AST.
type JoinType int

// Join variants. RIGHT JOIN is normalized by the parser into a LEFT JOIN
// with the operands reversed, so it never reaches the binder.
const (
	JoinInner JoinType = iota
	JoinLeft
	JoinCross
)

var joinTypeName = [...]string{
	JoinInner: "JOIN",
	JoinLeft:  "LEFT JOIN",
	JoinCross: "CROSS JOIN",
}

func (j JoinType) String() string { return joinTypeName[j] }

// JoinTableExpr is a JOIN between two table expressions. Cond is nil for
// CROSS JOIN and for INNER JOIN without an ON clause.
type JoinTableExpr struct {
	JoinType JoinType
	Left     TableExpr
	Right    TableExpr
	Cond     Expr
}

func (j *JoinTableExpr) String() string {
	if j.Cond != nil {
		return fmt.Sprintf("%s %s %s ON %s", j.Left, j.JoinType, j.Right, j.Cond)
	}
	return fmt.Sprintf("%s %s %s", j.Left, j.JoinType, j.Right)
}

// Statement is the top-level AST node handed to the binder or the test
// catalog.
type Statement interface {
	fmt.Stringer
	statement()
}

func (*Select) statement()      {}
func (*CreateTable) statement() {}

// ColumnDef is one column in a CREATE TABLE definition.
type ColumnDef struct {
	Name Name
	Type Name
}

// CreateTable is consumed by the test catalog, not by the binder.
type CreateTable struct {
	Table   TableName
	Columns []ColumnDef
}

func (c *CreateTable) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "CREATE TABLE %s (", &c.Table)
	for i, col := range c.Columns {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s %s", col.Name, col.Type)
	}
	buf.WriteByte(')')
	return buf.String()
}
