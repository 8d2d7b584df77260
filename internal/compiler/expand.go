// Package compiler lowers an authored dsl.Workflow into a flat,
// index-addressed blueprint.Blueprint in two passes: Expand (Pass A, this
// file) removes Parallel nodes by synthesizing Fork/Join pairs plus
// flattened branch nodes; Lower (Pass B, lower.go) assigns indices and
// resolves string IDs to them.
package compiler

import "github.com/lyzr/skript/internal/dsl"

// Expand runs Pass A: it returns a workflow with no Parallel nodes. Each
// Parallel node is replaced by a synthesized Fork node (ID "<id>_fork")
// feeding the first node of every non-empty branch, and a synthesized Join
// node (ID "<id>_join", expect_count = number of non-empty branches) that
// every branch's last node feeds into. Edges that targeted or sourced the
// original Parallel node are rewritten to target the Fork / originate from
// the Join respectively. Nested Parallel nodes inside a branch are expanded
// recursively before the branch is spliced in.
func Expand(wf *dsl.Workflow) (*dsl.Workflow, error) {
	var outNodes []dsl.Node
	var branchEdges []dsl.Edge
	entry := map[string]string{}
	exit := map[string]string{}

	for _, n := range wf.Nodes {
		if n.Type != dsl.NodeParallel {
			outNodes = append(outNodes, n)
			entry[n.ID] = n.ID
			exit[n.ID] = n.ID
			continue
		}

		forkID := n.ID + "_fork"
		joinID := n.ID + "_join"
		var branchStartIDs []string
		expectCount := 0

		for _, branch := range n.ParallelBranches {
			if len(branch) == 0 {
				continue
			}
			bNodes, bEdges, bEntry, bExit := expandBranch(branch)
			outNodes = append(outNodes, bNodes...)
			branchEdges = append(branchEdges, bEdges...)

			head := bEntry[branch[0].ID]
			tail := bExit[branch[len(branch)-1].ID]
			branchStartIDs = append(branchStartIDs, head)
			branchEdges = append(branchEdges, dsl.Edge{Source: tail, Target: joinID})
			expectCount++
		}

		outNodes = append(outNodes,
			dsl.Node{ID: forkID, Type: dsl.NodeFork, BranchStartIDs: branchStartIDs, JoinID: joinID},
			dsl.Node{ID: joinID, Type: dsl.NodeJoin, ExpectCount: expectCount},
		)
		entry[n.ID] = forkID
		exit[n.ID] = joinID
	}

	outEdges := make([]dsl.Edge, 0, len(branchEdges)+len(wf.Edges))
	outEdges = append(outEdges, branchEdges...)
	for _, e := range wf.Edges {
		edge := e
		if target, ok := entry[e.Target]; ok {
			edge.Target = target
		}
		if source, ok := exit[e.Source]; ok {
			edge.Source = source
		}
		outEdges = append(outEdges, edge)
	}

	return &dsl.Workflow{
		ID:        wf.ID,
		Name:      wf.Name,
		Variables: wf.Variables,
		Nodes:     outNodes,
		Edges:     outEdges,
	}, nil
}

// expandBranch flattens one Parallel branch's ordered node list, recursing
// into any nested Parallel node it contains. Consecutive nodes in the
// branch are linearly chained ("emit an edge from each node to its
// successor within its branch", spec.md §4.1 step 1). entry/exit map every
// ID given in list to the effective node ID that replaces it as an edge
// endpoint (identity for non-Parallel nodes, fork/join IDs for Parallel
// ones) so the caller can look up the branch's overall head and tail.
func expandBranch(list []dsl.Node) (nodes []dsl.Node, edges []dsl.Edge, entry map[string]string, exit map[string]string) {
	entry = map[string]string{}
	exit = map[string]string{}
	var prevExit string

	link := func(i int, headID string) {
		if i > 0 {
			edges = append(edges, dsl.Edge{Source: prevExit, Target: headID})
		}
	}

	for i, n := range list {
		if n.Type != dsl.NodeParallel {
			link(i, n.ID)
			nodes = append(nodes, n)
			entry[n.ID] = n.ID
			exit[n.ID] = n.ID
			prevExit = n.ID
			continue
		}

		forkID := n.ID + "_fork"
		joinID := n.ID + "_join"
		var branchStartIDs []string
		expectCount := 0

		for _, branch := range n.ParallelBranches {
			if len(branch) == 0 {
				continue
			}
			bNodes, bEdges, bEntry, bExit := expandBranch(branch)
			nodes = append(nodes, bNodes...)
			edges = append(edges, bEdges...)

			head := bEntry[branch[0].ID]
			tail := bExit[branch[len(branch)-1].ID]
			branchStartIDs = append(branchStartIDs, head)
			edges = append(edges, dsl.Edge{Source: tail, Target: joinID})
			expectCount++
		}

		link(i, forkID)
		nodes = append(nodes,
			dsl.Node{ID: forkID, Type: dsl.NodeFork, BranchStartIDs: branchStartIDs, JoinID: joinID},
			dsl.Node{ID: joinID, Type: dsl.NodeJoin, ExpectCount: expectCount},
		)
		entry[n.ID] = forkID
		exit[n.ID] = joinID
		prevExit = joinID
	}

	return nodes, edges, entry, exit
}
