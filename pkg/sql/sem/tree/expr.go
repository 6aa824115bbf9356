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

// Package tree defines the AST handed to the binder. The AST is produced by
// a parser (the one in pkg/sql/parser or any external one) and is consumed
// bottom-up by optbuilder; nothing in this package performs name resolution
// or type checking.
package tree

import (
	"bytes"
	"fmt"
)

// Name is a SQL identifier (table name, column name, alias).
type Name string

func (n Name) String() string { return string(n) }

// TableName is a possibly qualified table reference: [db.]table.
type TableName struct {
	DatabaseName Name
	TableName    Name
}

func (t *TableName) String() string {
	if t.DatabaseName != "" {
		return fmt.Sprintf("%s.%s", t.DatabaseName, t.TableName)
	}
	return string(t.TableName)
}

// Expr is a scalar expression node.
type Expr interface {
	fmt.Stringer
	expr()
}

func (*UnresolvedName) expr() {}
func (*Literal) expr()        {}
func (*BinaryExpr) expr()     {}
func (*ComparisonExpr) expr() {}
func (*AndExpr) expr()        {}
func (*OrExpr) expr()         {}
func (*NotExpr) expr()        {}
func (*ParenExpr) expr()      {}
func (*FuncExpr) expr()       {}
func (*ExistsExpr) expr()     {}
func (*Subquery) expr()       {}
func (UnqualifiedStar) expr() {}

// UnresolvedName is a column reference before name resolution, either
// "name" or "qualifier.name".
type UnresolvedName struct {
	// Qualifier is the optional table alias or table name.
	Qualifier Name
	// ColumnName is the referenced column name.
	ColumnName Name
}

func (u *UnresolvedName) String() string {
	if u.Qualifier != "" {
		return fmt.Sprintf("%s.%s", u.Qualifier, u.ColumnName)
	}
	return string(u.ColumnName)
}

// Literal is a typed constant. The parser wraps the corresponding datum.
type Literal struct {
	Value Datum
}

func (l *Literal) String() string { return l.Value.String() }

// BinaryOperator is an arithmetic operator tag.
type BinaryOperator int

// Binary operators.
const (
	Plus BinaryOperator = iota
	Minus
	Mult
	Div
)

var binaryOpName = [...]string{Plus: "+", Minus: "-", Mult: "*", Div: "/"}

func (b BinaryOperator) String() string { return binaryOpName[b] }

// BinaryExpr is an arithmetic expression.
type BinaryExpr struct {
	Operator    BinaryOperator
	Left, Right Expr
}

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Operator, b.Right)
}

// ComparisonOperator is a comparison operator tag.
type ComparisonOperator int

// Comparison operators.
const (
	EQ ComparisonOperator = iota
	LT
	GT
	LE
	GE
	NE
)

var cmpOpName = [...]string{EQ: "=", LT: "<", GT: ">", LE: "<=", GE: ">=", NE: "!="}

func (c ComparisonOperator) String() string { return cmpOpName[c] }

// ComparisonExpr is a comparison between two expressions.
type ComparisonExpr struct {
	Operator    ComparisonOperator
	Left, Right Expr
}

func (c *ComparisonExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left, c.Operator, c.Right)
}

// AndExpr is a logical conjunction.
type AndExpr struct {
	Left, Right Expr
}

func (a *AndExpr) String() string { return fmt.Sprintf("(%s AND %s)", a.Left, a.Right) }

// OrExpr is a logical disjunction.
type OrExpr struct {
	Left, Right Expr
}

func (o *OrExpr) String() string { return fmt.Sprintf("(%s OR %s)", o.Left, o.Right) }

// NotExpr is a logical negation.
type NotExpr struct {
	Expr Expr
}

func (n *NotExpr) String() string { return fmt.Sprintf("(NOT %s)", n.Expr) }

// ParenExpr preserves explicit parentheses from the source text.
type ParenExpr struct {
	Expr Expr
}

func (p *ParenExpr) String() string { return fmt.Sprintf("(%s)", p.Expr) }

// FuncExpr is a function call. The only functions understood by the binder
// are the aggregates (count, sum, min, max, avg); count(*) is represented
// with Star set and an empty Exprs list.
type FuncExpr struct {
	Name  Name
	Exprs []Expr
	Star  bool
}

func (f *FuncExpr) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s(", f.Name)
	if f.Star {
		buf.WriteByte('*')
	}
	for i, e := range f.Exprs {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(e.String())
	}
	buf.WriteByte(')')
	return buf.String()
}

// ExistsExpr is an EXISTS or NOT EXISTS predicate over a subquery.
type ExistsExpr struct {
	Subquery *Subquery
	Not      bool
}

func (e *ExistsExpr) String() string {
	if e.Not {
		return fmt.Sprintf("NOT EXISTS %s", e.Subquery)
	}
	return fmt.Sprintf("EXISTS %s", e.Subquery)
}

// Subquery wraps a SELECT used as an expression or as a derived table.
type Subquery struct {
	Select *Select
}

func (s *Subquery) String() string { return fmt.Sprintf("(%s)", s.Select) }

// UnqualifiedStar is the "*" projection target.
type UnqualifiedStar struct{}

func (UnqualifiedStar) String() string { return "*" }

// StripParens removes any paren wrappers from the top of an expression.
func StripParens(e Expr) Expr {
	for {
		p, ok := e.(*ParenExpr)
		if !ok {
			return e
		}
		e = p.Expr
	}
}

// AggregateNames lists the aggregate functions understood by the binder.
var AggregateNames = map[Name]bool{
	"count": true,
	"sum":   true,
	"min":   true,
	"max":   true,
	"avg":   true,
}
