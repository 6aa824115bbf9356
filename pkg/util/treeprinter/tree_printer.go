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

// Package treeprinter renders hierarchical structures (plans, memos) using
// box-drawing characters.
package treeprinter

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	edgeLink = " │"
	edgeMid  = " ├── "
	edgeLast = " └── "
	indent   = 5
)

// Node is a handle associated with a specific depth in a tree. Sample usage:
//
//	tp := treeprinter.New()
//	root := tp.Child("root")
//	root.Child("child-1")
//	root.Child("child-2")
//
//	fmt.Print(tp.String())
//
// Output:
//
//	root
//	 ├── child-1
//	 └── child-2
//
// Child calls cannot be rearranged arbitrarily; they have to happen in the
// order the nodes need to be displayed (depth-first pre-order).
type Node struct {
	tree  *tree
	level int
}

type tree struct {
	// rows accumulated so far, as rune slices so edges can be patched in
	// place when a later sibling shows up.
	rows [][]rune

	// lastNode[d] is the row index of the most recent node at depth d, or -1
	// once a node deeper up the spine supersedes it.
	lastNode []int
}

// New creates a tree printer and returns a sentinel node reference which
// should be used to add the root.
func New() Node {
	return Node{tree: &tree{}}
}

// Childf adds a formatted child node.
func (n Node) Childf(format string, args ...interface{}) Node {
	return n.Child(fmt.Sprintf(format, args...))
}

// Child adds a node as a child of the given node. Multi-line text produces
// continuation lines under the same node.
func (n Node) Child(text string) Node {
	lines := strings.Split(text, "\n")
	child := n.childLine(lines[0])
	for _, l := range lines[1:] {
		n.AddLine(l)
	}
	return child
}

// AddLine adds a line under the last child without a connecting edge.
func (n Node) AddLine(text string) {
	pad := n.level * indent
	row := make([]rune, 0, pad+len(text))
	for i := 0; i < pad; i++ {
		row = append(row, ' ')
	}
	row = append(row, []rune(text)...)
	n.tree.rows = append(n.tree.rows, row)
}

func (n Node) childLine(text string) Node {
	t := n.tree
	pad := n.level * indent
	row := make([]rune, 0, pad+len(text))
	for i := 0; i < pad-indent; i++ {
		row = append(row, ' ')
	}
	if n.level > 0 {
		row = append(row, []rune(edgeLast)...)
	}
	row = append(row, []rune(text)...)

	for len(t.lastNode) <= n.level+1 {
		t.lastNode = append(t.lastNode, -1)
	}
	t.lastNode[n.level+1] = -1

	if last := t.lastNode[n.level]; last != -1 {
		if n.level == 0 {
			panic("multiple root nodes")
		}
		// The previous sibling is no longer the last child: patch its edge
		// and draw the vertical link through the rows in between.
		copy(t.rows[last][pad-indent:], []rune(edgeMid))
		for i := last + 1; i < len(t.rows); i++ {
			for len(t.rows[i]) < pad-indent+len([]rune(edgeLink)) {
				t.rows[i] = append(t.rows[i], ' ')
			}
			copy(t.rows[i][pad-indent:], []rune(edgeLink))
		}
	}

	t.lastNode[n.level] = len(t.rows)
	t.rows = append(t.rows, row)

	return Node{tree: t, level: n.level + 1}
}

func (n Node) String() string {
	if n.level != 0 {
		panic("only the root can be stringified")
	}
	var buf bytes.Buffer
	for _, r := range n.tree.rows {
		buf.WriteString(strings.TrimRight(string(r), " "))
		buf.WriteByte('\n')
	}
	return buf.String()
}
