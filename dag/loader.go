package dag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/ragflow/errors"
)

// Format is the syntax of a workflow file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("unsupported workflow file extension %q", filepath.Ext(path))
	}
}

// LoadWorkflowFile reads and decodes a workflow file.
func LoadWorkflowFile(path string, reg *Registry) (*Graph, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow file: %w", err)
	}
	return ParseWorkflow(data, path, format, reg)
}

// ParseWorkflow decodes data in the given format. YAML and HCL are
// converted to the JSON wire form first so every format shares one decoder.
// filename only appears in HCL diagnostics.
func ParseWorkflow(data []byte, filename string, format Format, reg *Registry) (*Graph, error) {
	switch format {
	case FormatJSON:
		return DecodeGraph(data, reg)
	case FormatYAML:
		raw, err := yamlToJSON(data)
		if err != nil {
			return nil, err
		}
		return DecodeGraph(raw, reg)
	case FormatHCL:
		w, err := decodeHCL(data, filename)
		if err != nil {
			return nil, err
		}
		return w.Graph(reg)
	default:
		return nil, fmt.Errorf("unsupported workflow format %q", format)
	}
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.MalformedWorkflow("workflow is not valid YAML: %v", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.MalformedWorkflow("workflow YAML cannot be represented as JSON: %v", err)
	}
	return raw, nil
}

// hclWorkflow is the block layout of an HCL workflow file:
//
//	node "retrieve" {
//	  type   = "retrieval"
//	  config = { collection = "handbook", top_k = 3 }
//	}
//	edge {
//	  from = "ask"
//	  to   = "retrieve"
//	}
type hclWorkflow struct {
	Nodes []hclNode `hcl:"node,block"`
	Edges []hclEdge `hcl:"edge,block"`
}

type hclNode struct {
	ID     string         `hcl:"id,label"`
	Type   string         `hcl:"type"`
	Label  string         `hcl:"label,optional"`
	Config hcl.Expression `hcl:"config,optional"`
}

type hclEdge struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

func decodeHCL(data []byte, filename string) (*WireGraph, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.MalformedWorkflow("failed to parse HCL workflow: %s", diags.Error())
	}
	var parsed hclWorkflow
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, errors.MalformedWorkflow("failed to decode HCL workflow: %s", diags.Error())
	}

	w := &WireGraph{
		Nodes: make([]WireNode, 0, len(parsed.Nodes)),
		Edges: make([]WireEdge, 0, len(parsed.Edges)),
	}
	for _, n := range parsed.Nodes {
		wn := WireNode{ID: n.ID, Type: n.Type, Label: n.Label}
		if n.Config != nil {
			val, diags := n.Config.Value(nil)
			if diags.HasErrors() {
				return nil, errors.MalformedWorkflow("node %q config: %s", n.ID, diags.Error())
			}
			if !val.IsNull() {
				raw, err := ctyjson.Marshal(val, val.Type())
				if err != nil {
					return nil, errors.MalformedWorkflow("node %q config: %v", n.ID, err)
				}
				wn.Config = raw
			}
		}
		w.Nodes = append(w.Nodes, wn)
	}
	for _, e := range parsed.Edges {
		w.Edges = append(w.Edges, WireEdge(e))
	}
	return w, nil
}
