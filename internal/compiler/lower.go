package compiler

import (
	"fmt"

	"github.com/lyzr/skript/internal/blueprint"
	"github.com/lyzr/skript/internal/dsl"
	"github.com/lyzr/skript/internal/optimizer"
)

// Compile runs both compiler passes: Expand (Pass A) removes Parallel
// nodes, then Lower (Pass B) assigns indices and resolves string IDs into
// the returned blueprint. No fusion is applied; use CompileWithFusion to
// also run the optimizer.
func Compile(wf *dsl.Workflow) (*blueprint.Blueprint, error) {
	expanded, err := Expand(wf)
	if err != nil {
		return nil, fmt.Errorf("expanding workflow %q: %w", wf.ID, err)
	}
	return Lower(expanded)
}

// CompileWithFusion compiles wf and, if enableFusion is true, runs the
// chain-fusion optimizer over the result using isFusible to classify
// kinds (spec.md §4.2). isFusible is normally catalog.Catalog.IsFusible;
// passed as a plain func to avoid a compiler -> catalog import.
func CompileWithFusion(wf *dsl.Workflow, enableFusion bool, isFusible func(kind string) bool) (*blueprint.Blueprint, error) {
	bp, err := Compile(wf)
	if err != nil {
		return nil, err
	}
	if !enableFusion {
		return bp, nil
	}
	return optimizer.Fuse(bp, isFusible), nil
}

// Lower runs Pass B over an already-expanded workflow (no Parallel nodes).
func Lower(wf *dsl.Workflow) (*blueprint.Blueprint, error) {
	idIndex := make(map[string]int, len(wf.Nodes))
	for i, n := range wf.Nodes {
		if _, dup := idIndex[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node ID: %s", n.ID)
		}
		idIndex[n.ID] = i
	}

	adjacency := map[string][]dsl.Edge{}
	for _, e := range wf.Edges {
		adjacency[e.Source] = append(adjacency[e.Source], e)
	}

	resolve := func(id string) (int, error) {
		idx, ok := idIndex[id]
		if !ok {
			return 0, fmt.Errorf("target node not found: %s", id)
		}
		return idx, nil
	}

	nodes := make([]blueprint.BlueprintNode, len(wf.Nodes))
	startIndex := -1

	for i, n := range wf.Nodes {
		bn, err := transformNode(n, adjacency[n.ID], resolve)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		nodes[i] = bn

		if n.Type == dsl.NodeStart {
			if startIndex != -1 {
				return nil, fmt.Errorf("multiple Start nodes: %q and %q", wf.Nodes[startIndex].ID, n.ID)
			}
			startIndex = i
		}
	}

	if startIndex == -1 {
		return nil, fmt.Errorf("no Start node found")
	}

	return &blueprint.Blueprint{
		WorkflowID: wf.ID,
		Name:       wf.Name,
		Nodes:      nodes,
		StartIndex: startIndex,
	}, nil
}

func transformNode(n dsl.Node, out []dsl.Edge, resolve func(string) (int, error)) (blueprint.BlueprintNode, error) {
	switch n.Type {

	case dsl.NodeStart:
		params := map[string]interface{}{}
		if len(out) > 0 {
			idx, err := resolve(out[0].Target)
			if err != nil {
				return blueprint.BlueprintNode{}, err
			}
			params["next"] = idx
		}
		return blueprint.BlueprintNode{Kind: "start", Params: params}, nil

	case dsl.NodeEnd:
		return blueprint.BlueprintNode{Kind: "end", Params: map[string]interface{}{
			"output": n.OutputVar,
		}}, nil

	case dsl.NodeFunction:
		params := make(map[string]interface{}, len(n.Params)+2)
		for k, v := range n.Params {
			params[k] = v
		}
		params["output"] = n.Output
		if len(out) > 0 {
			idx, err := resolve(out[0].Target)
			if err != nil {
				return blueprint.BlueprintNode{}, err
			}
			params["next"] = idx
		}
		if n.FuncName == "" {
			return blueprint.BlueprintNode{}, fmt.Errorf("Function node has no operation name")
		}
		return blueprint.BlueprintNode{Kind: n.FuncName, Params: params}, nil

	case dsl.NodeAssign:
		params := map[string]interface{}{
			"assignments": n.Assignments,
			"expression":  n.Expression,
			"value":       n.Value,
		}
		if len(out) > 0 {
			idx, err := resolve(out[0].Target)
			if err != nil {
				return blueprint.BlueprintNode{}, err
			}
			params["next"] = idx
		}
		return blueprint.BlueprintNode{Kind: "assign", Params: params}, nil

	case dsl.NodeIf:
		var branches []blueprint.Branch
		var elseEdge *dsl.Edge
		for i := range out {
			e := out[i]
			cond, conditioned, err := classifyIfEdge(e, n.IfBranches)
			if err != nil {
				return blueprint.BlueprintNode{}, err
			}
			if conditioned {
				idx, err := resolve(e.Target)
				if err != nil {
					return blueprint.BlueprintNode{}, err
				}
				branches = append(branches, blueprint.Branch{Condition: cond, Target: idx})
				continue
			}
			if elseEdge != nil {
				return blueprint.BlueprintNode{}, fmt.Errorf("If node has multiple else-branch edges")
			}
			elseEdge = &out[i]
		}
		params := map[string]interface{}{"branches": branches}
		if elseEdge != nil {
			idx, err := resolve(elseEdge.Target)
			if err != nil {
				return blueprint.BlueprintNode{}, err
			}
			params["else_next"] = idx
		}
		return blueprint.BlueprintNode{Kind: "if", Params: params}, nil

	case dsl.NodeIteration:
		body, next, err := classifyBodyEdges(out)
		if err != nil {
			return blueprint.BlueprintNode{}, err
		}
		params := map[string]interface{}{
			"collection": n.CollectionVar,
			"item_var":   n.ItemVar,
		}
		if body != nil {
			idx, err := resolve(body.Target)
			if err != nil {
				return blueprint.BlueprintNode{}, err
			}
			params["body"] = idx
		}
		if next != nil {
			idx, err := resolve(next.Target)
			if err != nil {
				return blueprint.BlueprintNode{}, err
			}
			params["next"] = idx
		}
		return blueprint.BlueprintNode{Kind: "iteration", Params: params}, nil

	case dsl.NodeLoop:
		body, next, err := classifyBodyEdges(out)
		if err != nil {
			return blueprint.BlueprintNode{}, err
		}
		params := map[string]interface{}{"condition": n.Condition}
		if body != nil {
			idx, err := resolve(body.Target)
			if err != nil {
				return blueprint.BlueprintNode{}, err
			}
			params["body"] = idx
		}
		if next != nil {
			idx, err := resolve(next.Target)
			if err != nil {
				return blueprint.BlueprintNode{}, err
			}
			params["next"] = idx
		}
		return blueprint.BlueprintNode{Kind: "loop", Params: params}, nil

	case dsl.NodeFork:
		targets := make([]int, len(n.BranchStartIDs))
		for i, id := range n.BranchStartIDs {
			idx, err := resolve(id)
			if err != nil {
				return blueprint.BlueprintNode{}, err
			}
			targets[i] = idx
		}
		joinIdx, err := resolve(n.JoinID)
		if err != nil {
			return blueprint.BlueprintNode{}, err
		}
		return blueprint.BlueprintNode{Kind: "fork", Params: map[string]interface{}{
			"targets":     targets,
			"join_target": joinIdx,
		}}, nil

	case dsl.NodeJoin:
		params := map[string]interface{}{"expect_count": n.ExpectCount}
		if len(out) > 0 {
			idx, err := resolve(out[0].Target)
			if err != nil {
				return blueprint.BlueprintNode{}, err
			}
			params["next"] = idx
		}
		return blueprint.BlueprintNode{Kind: "join", Params: params}, nil

	case dsl.NodeParallel:
		return blueprint.BlueprintNode{}, fmt.Errorf("internal error: Parallel node reached Pass B lowering, expansion should have removed it")

	default:
		return blueprint.BlueprintNode{}, fmt.Errorf("unknown node type: %q", n.Type)
	}
}

// classifyIfEdge decides whether an If node's outgoing edge is a
// conditioned branch (has its own condition, or a branch_index into the
// node's declared branch list) or the else-branch (explicit branch_type
// "else", or no condition/branch_index at all).
func classifyIfEdge(e dsl.Edge, branches []dsl.IfBranchDef) (condition string, conditioned bool, err error) {
	if e.BranchType == "else" {
		return "", false, nil
	}
	if e.Condition != "" {
		return e.Condition, true, nil
	}
	if e.BranchIndex != nil {
		idx := *e.BranchIndex
		if idx < 0 || idx >= len(branches) {
			return "", false, fmt.Errorf("branch_index %d out of range (node declares %d branches)", idx, len(branches))
		}
		return branches[idx].Condition, true, nil
	}
	return "", false, nil
}

// classifyBodyEdges splits an Iteration or Loop node's outgoing edges into
// the body edge (branch_type "body") and the exit edge (everything else),
// erroring on more than one of either.
func classifyBodyEdges(out []dsl.Edge) (body, next *dsl.Edge, err error) {
	for i := range out {
		e := &out[i]
		if e.BranchType == "body" {
			if body != nil {
				return nil, nil, fmt.Errorf("multiple body edges")
			}
			body = e
			continue
		}
		if next != nil {
			return nil, nil, fmt.Errorf("multiple exit edges")
		}
		next = e
	}
	return body, next, nil
}
