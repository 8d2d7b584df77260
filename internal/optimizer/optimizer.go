// Package optimizer implements chain fusion: collapsing maximal runs of
// sync, single-predecessor/single-successor blueprint nodes into one
// "fused" node to amortize per-node dispatch cost (spec.md §4.2).
package optimizer

import (
	"github.com/lyzr/skript/internal/blueprint"
)

// Fuse rewrites bp in place, returning a new Blueprint with fusible chains
// collapsed. isFusible reports whether a kind may join a fusion chain —
// normally catalog.Catalog.IsFusible, which excludes control kinds (If,
// Loop, Iteration, Fork, Join) whose next node depends on a runtime
// decision a discarded sub-op syscall would lose, plus Start and End,
// whose jump/terminate syscalls spec.md §4.2 forbids issuing mid-chain.
func Fuse(bp *blueprint.Blueprint, isFusible func(kind string) bool) *blueprint.Blueprint {
	n := len(bp.Nodes)
	if n == 0 {
		return bp
	}

	outDegree := make([]int, n)
	inDegree := make([]int, n)
	for i, node := range bp.Nodes {
		targets := blueprint.ExtractTargets(node)
		outDegree[i] = len(targets)
		for _, t := range targets {
			inDegree[t]++
		}
	}

	merged := make([]bool, n)
	chainHead := make(map[int][]int) // head index -> full chain of old indices

	fusible := func(from, to int) bool {
		if from == to {
			return false
		}
		if !isFusible(bp.Nodes[from].Kind) || !isFusible(bp.Nodes[to].Kind) {
			return false
		}
		if outDegree[from] != 1 || inDegree[to] != 1 {
			return false
		}
		return true
	}

	singleTarget := func(i int) (int, bool) {
		targets := blueprint.ExtractTargets(bp.Nodes[i])
		if len(targets) != 1 {
			return 0, false
		}
		return targets[0], true
	}

	visited := make([]bool, n)
	for i := 0; i < n; i++ {
		if visited[i] || !isFusible(bp.Nodes[i].Kind) {
			continue
		}
		chain := []int{i}
		visited[i] = true
		cur := i
		for {
			next, ok := singleTarget(cur)
			if !ok || visited[next] || !fusible(cur, next) {
				break
			}
			chain = append(chain, next)
			visited[next] = true
			cur = next
		}
		if len(chain) > 1 {
			chainHead[i] = chain
			for _, idx := range chain[1:] {
				merged[idx] = true
			}
		}
	}

	newNodes := make([]blueprint.BlueprintNode, 0, n)
	oldToNew := make(map[int]int, n)

	for i := 0; i < n; i++ {
		if merged[i] {
			continue
		}
		oldToNew[i] = len(newNodes)
		if chain, ok := chainHead[i]; ok {
			tail := chain[len(chain)-1]
			ops := make([]blueprint.FusedOp, len(chain))
			for j, idx := range chain {
				ops[j] = blueprint.FusedOp{Kind: bp.Nodes[idx].Kind, Params: bp.Nodes[idx].Params}
			}
			params := map[string]interface{}{"ops": ops}
			if next, ok := bp.Nodes[tail].Next(); ok {
				params["next"] = next
			}
			newNodes = append(newNodes, blueprint.BlueprintNode{Kind: "fused", Params: params})
			continue
		}
		newNodes = append(newNodes, bp.Nodes[i])
	}

	for i := range newNodes {
		blueprint.RemapNodeTargets(&newNodes[i], oldToNew)
	}

	return &blueprint.Blueprint{
		WorkflowID: bp.WorkflowID,
		Name:       bp.Name,
		Nodes:      newNodes,
		StartIndex: oldToNew[bp.StartIndex],
	}
}
