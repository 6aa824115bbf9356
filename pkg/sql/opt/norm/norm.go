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

// Package norm implements the heuristic rewrite phase that runs between the
// binder and the cost-independent search. Its rules are unconditionally
// beneficial, so they rewrite the bound tree in place, with no memo and no
// alternative retention: constant folding, filter simplification, hoisting
// EXISTS predicates into semi/anti joins, decorrelating those joins,
// predicate pushdown and outer join elimination.
package norm

import (
	"context"

	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
	"github.com/bjm1244/raptordb/pkg/util/log"
)

// ruleFunc attempts one rewrite at the given node. It returns the
// replacement node and true, or the node unchanged and false.
type ruleFunc func(e *memo.Expr) (*memo.Expr, bool)

// Normalizer rewrites a bound expression tree into its normalized form.
type Normalizer struct {
	ctx context.Context
	md  *opt.Metadata
}

// New creates a Normalizer over the given metadata.
func New(ctx context.Context, md *opt.Metadata) *Normalizer {
	return &Normalizer{ctx: ctx, md: md}
}

// Normalize folds scalar constants, then applies the rewrite rules in
// order, each one to fixpoint over the whole tree before the next starts.
func (n *Normalizer) Normalize(root *memo.Expr) *memo.Expr {
	n.foldConstants(root)

	rules := []struct {
		name string
		fn   ruleFunc
	}{
		{"SimplifyFilters", n.simplifyFilters},
		{"HoistExistsSubquery", n.hoistExists},
		{"DecorrelateApply", n.decorrelateApply},
		{"PushSelectIntoJoin", n.pushSelectIntoJoin},
		{"EliminateLeftJoin", n.eliminateLeftJoin},
	}
	for _, r := range rules {
		for pass := 0; ; pass++ {
			var changed bool
			root, changed = n.applyToTree(root, r.fn)
			if !changed {
				break
			}
			if log.V(2) {
				log.Infof(n.ctx, "norm: %s changed the tree (pass %d)", r.name, pass+1)
			}
		}
	}
	return root
}

// applyToTree rewrites bottom-up: children first, then subquery bodies
// embedded in scalar payloads, then the node itself until the rule no
// longer fires on it.
func (n *Normalizer) applyToTree(e *memo.Expr, rule ruleFunc) (*memo.Expr, bool) {
	changed := false
	for i := range e.Children {
		if c, ok := n.applyToTree(e.Children[i], rule); ok {
			e.Children[i] = c
			changed = true
		}
	}
	for _, s := range payloadScalars(e) {
		if n.applyToScalar(s, rule) {
			changed = true
		}
	}
	for {
		r, ok := rule(e)
		if !ok {
			break
		}
		e = r
		changed = true
	}
	return e, changed
}

// applyToScalar descends a scalar tree, rewriting the relational bodies of
// EXISTS nodes.
func (n *Normalizer) applyToScalar(s *memo.ScalarExpr, rule ruleFunc) bool {
	if s == nil {
		return false
	}
	changed := false
	if s.Op == opt.ExistsOp {
		if r, ok := n.applyToTree(s.Input, rule); ok {
			s.Input = r
			changed = true
		}
	}
	for _, c := range s.Children {
		if n.applyToScalar(c, rule) {
			changed = true
		}
	}
	return changed
}

// payloadScalars returns the scalar trees embedded in the node's payload.
func payloadScalars(e *memo.Expr) []*memo.ScalarExpr {
	switch p := e.Private.(type) {
	case *memo.SelectPrivate:
		return []*memo.ScalarExpr{p.Filter}
	case *memo.ProjectPrivate:
		res := make([]*memo.ScalarExpr, len(p.Projections))
		for i := range p.Projections {
			res[i] = p.Projections[i].Element
		}
		return res
	case *memo.JoinPrivate:
		return []*memo.ScalarExpr{p.On}
	case *memo.HashJoinPrivate:
		return []*memo.ScalarExpr{p.On}
	case *memo.NestedLoopJoinPrivate:
		return []*memo.ScalarExpr{p.On}
	case *memo.GroupByPrivate:
		res := make([]*memo.ScalarExpr, len(p.Aggregations))
		for i := range p.Aggregations {
			res[i] = p.Aggregations[i].Agg
		}
		return res
	}
	return nil
}

// freeCols returns the columns referenced by the subtree but produced
// outside it. A non-empty intersection with an outer relation's columns
// means the subtree is correlated with that relation.
func freeCols(e *memo.Expr) opt.ColSet {
	var used, defined opt.ColSet
	collectCols(e, &used, &defined)
	return used.Difference(defined)
}

func collectCols(e *memo.Expr, used, defined *opt.ColSet) {
	switch p := e.Private.(type) {
	case *memo.ScanPrivate:
		defined.UnionWith(p.Cols.ToSet())
	case *memo.ProjectPrivate:
		for i := range p.Projections {
			defined.Add(p.Projections[i].Col)
		}
	case *memo.GroupByPrivate:
		for i := range p.Aggregations {
			defined.Add(p.Aggregations[i].Col)
		}
	}
	for _, s := range payloadScalars(e) {
		used.UnionWith(s.OuterRefs())
	}
	for _, c := range e.Children {
		collectCols(c, used, defined)
	}
}
