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

// Package xform implements the cost-independent search phase. The
// normalized tree is copied into a memo of equivalence groups; exploration
// then applies transformation rules to fixpoint and implementation rules
// once per logical member, and extraction walks the root group to a single
// physical plan using a deterministic tie-break instead of a cost model.
package xform

import (
	"context"

	"github.com/bjm1244/raptordb/pkg/sql/opt"
	"github.com/bjm1244/raptordb/pkg/sql/opt/memo"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgcode"
	"github.com/bjm1244/raptordb/pkg/sql/pgwire/pgerror"
	"github.com/bjm1244/raptordb/pkg/util/log"
	"github.com/cockroachdb/errors"
)

// DefaultBudget is the default number of new memo members exploration may
// insert before it stops. Without a cost model an unbounded rule set over
// many join permutations can otherwise run without bound.
const DefaultBudget = 4096

// Optimizer drives exploration and extraction over one memo. It is a
// per-query object, like the memo itself.
type Optimizer struct {
	ctx context.Context
	mem *memo.Memo

	// budget is the remaining insertion allowance. Exhaustion is
	// recoverable: extraction proceeds from the state reached.
	budget    int
	exhausted bool
}

// New creates an Optimizer over an initialized memo.
func New(ctx context.Context, mem *memo.Memo) *Optimizer {
	return &Optimizer{ctx: ctx, mem: mem, budget: DefaultBudget}
}

// SetBudget overrides the exploration budget. Tests use small budgets to
// exercise the exhaustion path.
func (o *Optimizer) SetBudget(n int) {
	o.budget = n
}

// Memo returns the underlying memo.
func (o *Optimizer) Memo() *memo.Memo {
	return o.mem
}

// Exhausted reports whether exploration ran out of budget.
func (o *Optimizer) Exhausted() bool {
	return o.exhausted
}

// Optimize copies the normalized tree into the memo, explores it and
// extracts the chosen physical plan. ctx cancellation aborts mid
// exploration and fails the query; budget exhaustion does not.
func (o *Optimizer) Optimize(root *memo.Expr) (*memo.Expr, error) {
	rootGroup := o.mem.AddTree(root)
	o.mem.SetRoot(rootGroup)

	if err := o.explore(); err != nil {
		return nil, err
	}
	// Implementation is not subject to the budget: every logical member
	// must get a physical counterpart or extraction has nothing to choose
	// from.
	if err := o.implementAll(); err != nil {
		return nil, err
	}
	return o.extract(rootGroup)
}

// explore repeatedly applies the transformation rules to every group until
// no group changes or the budget is exhausted.
func (o *Optimizer) explore() error {
	for {
		before := o.mem.CountExprs()
		for id := memo.GroupID(1); int(id) <= o.mem.NumGroups(); id++ {
			if err := o.ctx.Err(); err != nil {
				return err
			}
			if o.exhausted {
				return nil
			}
			o.exploreGroup(id)
		}
		if o.mem.CountExprs() == before {
			return nil
		}
	}
}

// exploreGroup runs one pass of the transformation rules over the group's
// members, including members inserted during the pass.
func (o *Optimizer) exploreGroup(id memo.GroupID) {
	g := o.mem.Group(id)
	if g.Explored {
		return
	}
	for i := 0; i < len(g.Exprs); i++ {
		e := g.Exprs[i]
		if !e.Op.IsLogical() {
			continue
		}
		for ri := range transformationRules {
			r := &transformationRules[ri]
			if !o.matches(e, r.pattern) {
				continue
			}
			for _, candidate := range r.apply(o, e) {
				if o.budget == 0 {
					o.exhausted = true
					log.Warningf(o.ctx, "exploration budget exhausted, extracting from current state")
					return
				}
				if o.mem.AddExpr(id, candidate) {
					o.budget--
					if log.V(2) {
						log.Infof(o.ctx, "xform: %s added a member to G%d", r.Name, id)
					}
				}
			}
		}
	}
	g.Explored = true
}

// implementAll applies the implementation rules to every logical member of
// every group, including groups added while implementing.
func (o *Optimizer) implementAll() error {
	for id := memo.GroupID(1); int(id) <= o.mem.NumGroups(); id++ {
		if err := o.ctx.Err(); err != nil {
			return err
		}
		g := o.mem.Group(id)
		for i := 0; i < len(g.Exprs); i++ {
			e := g.Exprs[i]
			if !e.Op.IsLogical() {
				continue
			}
			for ri := range implementationRules {
				r := &implementationRules[ri]
				if !o.matches(e, r.pattern) {
					continue
				}
				for _, candidate := range r.apply(o, e) {
					if !candidate.Op.IsPhysical() {
						return errors.AssertionFailedf(
							"implementation rule %s produced logical operator %s", r.Name, candidate.Op)
					}
					o.mem.AddExpr(id, candidate)
				}
			}
		}
	}
	return nil
}

// physicalPreference is the static tie-break order for extraction: a lower
// value wins, and equal values fall back to insertion order. Hash join is
// preferred over nested loop join.
func physicalPreference(op opt.Operator) int {
	switch op {
	case opt.HashJoinOp:
		return 0
	case opt.NestedLoopJoinOp:
		return 1
	}
	return 0
}

// extract resolves one physical tree from the group, choosing one physical
// member per group by static operator preference and insertion order, then
// resolving its children the same way.
func (o *Optimizer) extract(id memo.GroupID) (*memo.Expr, error) {
	g := o.mem.Group(id)
	var best *memo.GroupExpr
	for _, e := range g.Exprs {
		if !e.Op.IsPhysical() {
			continue
		}
		if best == nil || physicalPreference(e.Op) < physicalPreference(best.Op) {
			best = e
		}
	}
	if best == nil {
		for _, e := range g.Exprs {
			if e.Op.IsJoinApply() {
				return nil, pgerror.Newf(pgcode.FeatureNotSupported,
					"correlated subquery could not be decorrelated")
			}
		}
		return nil, errors.AssertionFailedf("group G%d has no physical member", id)
	}

	res := &memo.Expr{Op: best.Op, Private: best.Private}
	for _, child := range best.ChildGroups {
		c, err := o.extract(child)
		if err != nil {
			return nil, err
		}
		res.Children = append(res.Children, c)
	}
	return res, nil
}
