package dsl

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// nodeAux mirrors Node's YAML shape before the type-directed branches split.
// "branches" means two different things depending on Type (If's own
// condition definitions vs. Parallel's nested node lists), so it is decoded
// as a raw yaml.Node and resolved in UnmarshalYAML once Type is known.
type nodeAux struct {
	ID             string                 `yaml:"id"`
	Type           string                 `yaml:"type"`
	OutputVar      string                 `yaml:"output_var"`
	Name           string                 `yaml:"name"`
	Params         map[string]interface{} `yaml:"params"`
	Output         string                 `yaml:"output"`
	Assignments    []Assignment           `yaml:"assignments"`
	Expression     string                 `yaml:"expression"`
	Value          interface{}            `yaml:"value"`
	Branches       yaml.Node              `yaml:"branches"`
	CollectionVar  string                 `yaml:"collection_var"`
	ItemVar        string                 `yaml:"item_var"`
	Condition      string                 `yaml:"condition"`
	BranchStartIDs []string               `yaml:"branch_start_ids"`
	JoinID         string                 `yaml:"join_id"`
	ExpectCount    int                    `yaml:"expect_count"`
}

// UnmarshalYAML implements yaml.Unmarshaler, resolving the type-dependent
// "branches" field after the discriminator is known.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var aux nodeAux
	if err := value.Decode(&aux); err != nil {
		return err
	}

	n.ID = aux.ID
	n.Type = NodeType(aux.Type)
	n.OutputVar = aux.OutputVar
	n.FuncName = aux.Name
	n.Params = aux.Params
	n.Output = aux.Output
	n.Assignments = aux.Assignments
	n.Expression = aux.Expression
	n.Value = aux.Value
	n.CollectionVar = aux.CollectionVar
	n.ItemVar = aux.ItemVar
	n.Condition = aux.Condition
	n.BranchStartIDs = aux.BranchStartIDs
	n.JoinID = aux.JoinID
	n.ExpectCount = aux.ExpectCount

	if aux.Branches.Kind != 0 {
		switch n.Type {
		case NodeParallel:
			var branches [][]Node
			if err := aux.Branches.Decode(&branches); err != nil {
				return fmt.Errorf("node %q: decoding parallel branches: %w", n.ID, err)
			}
			n.ParallelBranches = branches
		case NodeIf:
			var branches []IfBranchDef
			if err := aux.Branches.Decode(&branches); err != nil {
				return fmt.Errorf("node %q: decoding if branches: %w", n.ID, err)
			}
			n.IfBranches = branches
		default:
			return fmt.Errorf("node %q: \"branches\" is only valid on If and Parallel nodes, got type %q", n.ID, n.Type)
		}
	}

	return nil
}

// document is the top-level YAML shape: either the workflow fields
// directly, or wrapped under a "workflow" key, or both — per spec.md §6,
// top-level nodes/edges/variables are merged into the wrapped workflow.
type document struct {
	Workflow  *Workflow              `yaml:"workflow"`
	ID        string                 `yaml:"id"`
	Name      string                 `yaml:"name"`
	Variables map[string]interface{} `yaml:"variables"`
	Nodes     []Node                 `yaml:"nodes"`
	Edges     []Edge                 `yaml:"edges"`
}

// LoadYAML parses an authored workflow document. The document may place the
// workflow under a top-level "workflow" key, or declare id/name/variables/
// nodes/edges directly at the top level, or both — in the "both" case the
// top-level nodes/edges are appended after the wrapped workflow's and
// top-level id/name/variables fill in anything the wrapped workflow left
// empty.
func LoadYAML(data []byte) (*Workflow, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing workflow document: %w", err)
	}

	wf := doc.Workflow
	if wf == nil {
		wf = &Workflow{}
	}

	if wf.ID == "" {
		wf.ID = doc.ID
	}
	if wf.Name == "" {
		wf.Name = doc.Name
	}
	if wf.Variables == nil {
		wf.Variables = doc.Variables
	} else {
		for k, v := range doc.Variables {
			if _, exists := wf.Variables[k]; !exists {
				wf.Variables[k] = v
			}
		}
	}
	wf.Nodes = append(wf.Nodes, doc.Nodes...)
	wf.Edges = append(wf.Edges, doc.Edges...)

	if wf.Variables == nil {
		wf.Variables = map[string]interface{}{}
	}

	return wf, nil
}
