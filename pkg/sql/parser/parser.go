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

// Package parser contains a recursive descent parser for the SELECT dialect
// understood by the binder, plus CREATE TABLE for the test catalog. It
// produces the AST consumed by optbuilder; it performs no name resolution
// and no type checking.
package parser

import (
	"strconv"
	"strings"

	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgcode"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgerror"
	"github.com/bjm1244/raptordb/pkg/sql/sem/tree"
	"github.com/bjm1244/raptordb/pkg/sql/types"
)

type parser struct {
	scan scanner
	tok  token
}

// Parse converts the SQL text into a statement AST.
func Parse(sql string) (tree.Statement, error) {
	p := &parser{scan: scanner{in: sql}}
	if err := p.next(); err != nil {
		return nil, err
	}

	var stmt tree.Statement
	var err error
	switch {
	case p.isKeyword("select"):
		stmt, err = p.parseSelect()
	case p.isKeyword("create"):
		stmt, err = p.parseCreateTable()
	default:
		return nil, p.unexpected("statement")
	}
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.unexpected("end of statement")
	}
	return stmt, nil
}

// ParseSelect is like Parse but requires a SELECT statement.
func ParseSelect(sql string) (*tree.Select, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*tree.Select)
	if !ok {
		return nil, pgerror.Newf(pgcode.Syntax, "expected a SELECT statement")
	}
	return sel, nil
}

func (p *parser) next() error {
	tok, err := p.scan.scan()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) isKeyword(kw string) bool {
	return p.tok.kind == tokKeyword && p.tok.s == kw
}

func (p *parser) isSymbol(sym string) bool {
	return p.tok.kind == tokSymbol && p.tok.s == sym
}

// eatKeyword consumes the keyword if present.
func (p *parser) eatKeyword(kw string) (bool, error) {
	if !p.isKeyword(kw) {
		return false, nil
	}
	return true, p.next()
}

func (p *parser) eatSymbol(sym string) (bool, error) {
	if !p.isSymbol(sym) {
		return false, nil
	}
	return true, p.next()
}

func (p *parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return p.unexpected(strings.ToUpper(kw))
	}
	return p.next()
}

func (p *parser) expectSymbol(sym string) error {
	if !p.isSymbol(sym) {
		return p.unexpected(sym)
	}
	return p.next()
}

func (p *parser) expectIdent() (tree.Name, error) {
	if p.tok.kind != tokIdent {
		return "", p.unexpected("identifier")
	}
	name := tree.Name(p.tok.s)
	return name, p.next()
}

func (p *parser) unexpected(expected string) error {
	got := p.tok.s
	if p.tok.kind == tokEOF {
		got = "EOF"
	}
	return pgerror.Newf(pgcode.Syntax,
		"at or near position %d: expected %s, found %q", p.tok.pos, expected, got)
}

func (p *parser) parseSelect() (*tree.Select, error) {
	if err := p.expectKeyword("select"); err != nil {
		return nil, err
	}
	sel := &tree.Select{}

	for {
		se, err := p.parseSelectExpr()
		if err != nil {
			return nil, err
		}
		sel.Exprs = append(sel.Exprs, se)
		if ok, err := p.eatSymbol(","); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}

	if ok, err := p.eatKeyword("from"); err != nil {
		return nil, err
	} else if ok {
		for {
			te, err := p.parseTableExpr()
			if err != nil {
				return nil, err
			}
			sel.From = append(sel.From, te)
			if ok, err := p.eatSymbol(","); err != nil {
				return nil, err
			} else if !ok {
				break
			}
		}
	}

	if ok, err := p.eatKeyword("where"); err != nil {
		return nil, err
	} else if ok {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		sel.Where = e
	}

	if ok, err := p.eatKeyword("group"); err != nil {
		return nil, err
	} else if ok {
		if err := p.expectKeyword("by"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			sel.GroupBy = append(sel.GroupBy, e)
			if ok, err := p.eatSymbol(","); err != nil {
				return nil, err
			} else if !ok {
				break
			}
		}
	}
	return sel, nil
}

func (p *parser) parseSelectExpr() (tree.SelectExpr, error) {
	if ok, err := p.eatSymbol("*"); err != nil {
		return tree.SelectExpr{}, err
	} else if ok {
		return tree.SelectExpr{Expr: tree.UnqualifiedStar{}}, nil
	}

	e, err := p.parseExpr()
	if err != nil {
		return tree.SelectExpr{}, err
	}
	se := tree.SelectExpr{Expr: e}

	if ok, err := p.eatKeyword("as"); err != nil {
		return tree.SelectExpr{}, err
	} else if ok {
		se.As, err = p.expectIdent()
		if err != nil {
			return tree.SelectExpr{}, err
		}
	} else if p.tok.kind == tokIdent {
		se.As = tree.Name(p.tok.s)
		if err := p.next(); err != nil {
			return tree.SelectExpr{}, err
		}
	}
	return se, nil
}

// parseTableExpr parses one FROM element with any number of trailing join
// clauses, left associative.
func (p *parser) parseTableExpr() (tree.TableExpr, error) {
	left, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	for {
		jt, ok, err := p.parseJoinType()
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := p.parseTableRef()
		if err != nil {
			return nil, err
		}
		join := &tree.JoinTableExpr{JoinType: jt.joinType, Left: left, Right: right}
		if jt.reversed {
			join.Left, join.Right = join.Right, join.Left
		}
		if ok, err := p.eatKeyword("on"); err != nil {
			return nil, err
		} else if ok {
			join.Cond, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		left = join
	}
}

type joinSpec struct {
	joinType tree.JoinType
	// reversed is set for RIGHT JOIN, which is normalized at parse time
	// into a LEFT JOIN with swapped operands.
	reversed bool
}

func (p *parser) parseJoinType() (joinSpec, bool, error) {
	switch {
	case p.isKeyword("join"):
		return joinSpec{joinType: tree.JoinInner}, true, p.next()

	case p.isKeyword("inner"):
		if err := p.next(); err != nil {
			return joinSpec{}, false, err
		}
		return joinSpec{joinType: tree.JoinInner}, true, p.expectKeyword("join")

	case p.isKeyword("cross"):
		if err := p.next(); err != nil {
			return joinSpec{}, false, err
		}
		return joinSpec{joinType: tree.JoinCross}, true, p.expectKeyword("join")

	case p.isKeyword("left"), p.isKeyword("right"):
		reversed := p.isKeyword("right")
		if err := p.next(); err != nil {
			return joinSpec{}, false, err
		}
		if _, err := p.eatKeyword("outer"); err != nil {
			return joinSpec{}, false, err
		}
		return joinSpec{joinType: tree.JoinLeft, reversed: reversed}, true, p.expectKeyword("join")
	}
	return joinSpec{}, false, nil
}

// parseTableRef parses a base table reference or a parenthesized subquery,
// with an optional alias.
func (p *parser) parseTableRef() (tree.TableExpr, error) {
	var te tree.TableExpr
	if ok, err := p.eatSymbol("("); err != nil {
		return nil, err
	} else if ok {
		sel, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		te = &tree.Subquery{Select: sel}
	} else {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		tn := &tree.TableName{TableName: name}
		if ok, err := p.eatSymbol("."); err != nil {
			return nil, err
		} else if ok {
			tn.DatabaseName = tn.TableName
			tn.TableName, err = p.expectIdent()
			if err != nil {
				return nil, err
			}
		}
		te = tn
	}

	if ok, err := p.eatKeyword("as"); err != nil {
		return nil, err
	} else if ok {
		alias, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &tree.AliasedTableExpr{Expr: te, As: alias}, nil
	}
	if p.tok.kind == tokIdent {
		alias := tree.Name(p.tok.s)
		if err := p.next(); err != nil {
			return nil, err
		}
		return &tree.AliasedTableExpr{Expr: te, As: alias}, nil
	}
	return te, nil
}

// Expression grammar, loosest binding first: OR, AND, NOT, comparison,
// additive, multiplicative, primary.
func (p *parser) parseExpr() (tree.Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (tree.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if ok, err := p.eatKeyword("or"); err != nil {
			return nil, err
		} else if !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &tree.OrExpr{Left: left, Right: right}
	}
}

func (p *parser) parseAnd() (tree.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if ok, err := p.eatKeyword("and"); err != nil {
			return nil, err
		} else if !ok {
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &tree.AndExpr{Left: left, Right: right}
	}
}

func (p *parser) parseNot() (tree.Expr, error) {
	if ok, err := p.eatKeyword("not"); err != nil {
		return nil, err
	} else if ok {
		if p.isKeyword("exists") {
			ex, err := p.parseExists()
			if err != nil {
				return nil, err
			}
			ex.(*tree.ExistsExpr).Not = true
			return ex, nil
		}
		e, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &tree.NotExpr{Expr: e}, nil
	}
	return p.parseComparison()
}

var comparisonSymbols = map[string]tree.ComparisonOperator{
	"=": tree.EQ, "<": tree.LT, ">": tree.GT,
	"<=": tree.LE, ">=": tree.GE, "!=": tree.NE, "<>": tree.NE,
}

func (p *parser) parseComparison() (tree.Expr, error) {
	if p.isKeyword("exists") {
		return p.parseExists()
	}
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tokSymbol {
		if op, ok := comparisonSymbols[p.tok.s]; ok {
			if err := p.next(); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return &tree.ComparisonExpr{Operator: op, Left: left, Right: right}, nil
		}
	}
	return left, nil
}

func (p *parser) parseExists() (tree.Expr, error) {
	if err := p.expectKeyword("exists"); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	sel, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return &tree.ExistsExpr{Subquery: &tree.Subquery{Select: sel}}, nil
}

func (p *parser) parseAdditive() (tree.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op tree.BinaryOperator
		switch {
		case p.isSymbol("+"):
			op = tree.Plus
		case p.isSymbol("-"):
			op = tree.Minus
		default:
			return left, nil
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &tree.BinaryExpr{Operator: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (tree.Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		var op tree.BinaryOperator
		switch {
		case p.isSymbol("*"):
			op = tree.Mult
		case p.isSymbol("/"):
			op = tree.Div
		default:
			return left, nil
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &tree.BinaryExpr{Operator: op, Left: left, Right: right}
	}
}

func (p *parser) parsePrimary() (tree.Expr, error) {
	switch p.tok.kind {
	case tokNumber:
		text := p.tok.s
		if err := p.next(); err != nil {
			return nil, err
		}
		return numberLiteral(text)

	case tokString:
		s := p.tok.s
		if err := p.next(); err != nil {
			return nil, err
		}
		return &tree.Literal{Value: tree.NewDString(s)}, nil

	case tokKeyword:
		switch p.tok.s {
		case "true":
			return &tree.Literal{Value: tree.DBoolTrue}, p.next()
		case "false":
			return &tree.Literal{Value: tree.DBoolFalse}, p.next()
		case "null":
			return &tree.Literal{Value: tree.DNull}, p.next()
		}
		return nil, p.unexpected("expression")

	case tokIdent:
		name := tree.Name(p.tok.s)
		if err := p.next(); err != nil {
			return nil, err
		}
		switch {
		case p.isSymbol("("):
			return p.parseFunctionCall(name)
		case p.isSymbol("."):
			if err := p.next(); err != nil {
				return nil, err
			}
			if ok, err := p.eatSymbol("*"); err != nil {
				return nil, err
			} else if ok {
				return &tree.UnresolvedName{Qualifier: name, ColumnName: "*"}, nil
			}
			col, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			return &tree.UnresolvedName{Qualifier: name, ColumnName: col}, nil
		}
		return &tree.UnresolvedName{ColumnName: name}, nil

	case tokSymbol:
		if p.tok.s == "(" {
			if err := p.next(); err != nil {
				return nil, err
			}
			if p.isKeyword("select") {
				sel, err := p.parseSelect()
				if err != nil {
					return nil, err
				}
				if err := p.expectSymbol(")"); err != nil {
					return nil, err
				}
				return &tree.Subquery{Select: sel}, nil
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectSymbol(")"); err != nil {
				return nil, err
			}
			return &tree.ParenExpr{Expr: e}, nil
		}
	}
	return nil, p.unexpected("expression")
}

func (p *parser) parseFunctionCall(name tree.Name) (tree.Expr, error) {
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	f := &tree.FuncExpr{Name: name}
	if ok, err := p.eatSymbol("*"); err != nil {
		return nil, err
	} else if ok {
		f.Star = true
		return f, p.expectSymbol(")")
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		f.Exprs = append(f.Exprs, e)
		if ok, err := p.eatSymbol(","); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	return f, p.expectSymbol(")")
}

// numberLiteral types an integer literal as INT and anything with a
// decimal point as DECIMAL (exact).
func numberLiteral(text string) (tree.Expr, error) {
	if !strings.Contains(text, ".") {
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, pgerror.Newf(pgcode.Syntax, "invalid integer literal %q", text)
		}
		return &tree.Literal{Value: tree.NewDInt(i)}, nil
	}
	d, err := tree.ParseDDecimal(text)
	if err != nil {
		return nil, pgerror.WithCandidateCode(err, pgcode.Syntax)
	}
	return &tree.Literal{Value: d}, nil
}

// parseCreateTable parses CREATE TABLE name (col type, ...). It is used by
// the test catalog, not by the query path.
func (p *parser) parseCreateTable() (*tree.CreateTable, error) {
	if err := p.expectKeyword("create"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("table"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	ct := &tree.CreateTable{Table: tree.TableName{TableName: name}}
	if ok, err := p.eatSymbol("."); err != nil {
		return nil, err
	} else if ok {
		ct.Table.DatabaseName = ct.Table.TableName
		ct.Table.TableName, err = p.expectIdent()
		if err != nil {
			return nil, err
		}
	}

	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	for {
		colName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		typName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, ok := types.ByName(string(typName)); !ok {
			return nil, pgerror.Newf(pgcode.Syntax, "unknown type %q", typName)
		}
		ct.Columns = append(ct.Columns, tree.ColumnDef{Name: colName, Type: typName})
		if ok, err := p.eatSymbol(","); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	return ct, p.expectSymbol(")")
}
