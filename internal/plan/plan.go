// Package plan reads a node plan file and replays it through the node form
// store, so the command line gets the same role and hostname rules as the
// web form.
package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ocp-installer-helper/internal/clusterdata"
	"ocp-installer-helper/internal/formstate"
	"ocp-installer-helper/internal/netconfig"
)

type Plan struct {
	MetadataName string `yaml:"metadataName"`
	RendezvousIP string `yaml:"rendezvousIP"`
	NTPSources   string `yaml:"additionalNTPSources"`
	Nodes        []Node `yaml:"nodes"`
}

type Node struct {
	Role          string            `yaml:"role"`
	Hostname      string            `yaml:"hostname"`
	InterfaceType string            `yaml:"interfaceType"`
	Fields        map[string]string `yaml:"fields"`
}

func Parse(path string) (*Plan, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}

	p := new(Plan)
	if err := yaml.Unmarshal(content, p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return p, nil
}

// Apply adds every planned node to a fresh store and returns it with the
// per-node field overrides keyed by node index.
func (p *Plan) Apply() (*formstate.Store, map[int]map[string]string, error) {
	store := formstate.NewStore()
	overrides := map[int]map[string]string{}

	for i, n := range p.Nodes {
		index := store.AddNode()

		if n.InterfaceType != "" {
			t, err := formstate.ParseInterfaceType(n.InterfaceType)
			if err != nil {
				return nil, nil, fmt.Errorf("node %d: %w", i+1, err)
			}
			if err := store.SetInterfaceType(index, t); err != nil {
				return nil, nil, fmt.Errorf("node %d: %w", i+1, err)
			}
		}
		if n.Role != "" {
			role, err := formstate.ParseRole(n.Role)
			if err != nil {
				return nil, nil, fmt.Errorf("node %d: %w", i+1, err)
			}
			if err := store.SetRole(index, role); err != nil {
				return nil, nil, fmt.Errorf("node %d: %w", i+1, err)
			}
		}
		if n.Hostname != "" {
			if err := store.SetHostname(index, n.Hostname); err != nil {
				return nil, nil, fmt.Errorf("node %d: %w", i+1, err)
			}
		}
		if len(n.Fields) > 0 {
			overrides[index] = n.Fields
		}
	}
	return store, overrides, nil
}

// Hosts applies the plan and builds the agent-config hosts against ds.
func (p *Plan) Hosts(ds clusterdata.Dataset) ([]netconfig.Host, error) {
	store, overrides, err := p.Apply()
	if err != nil {
		return nil, err
	}
	fields := netconfig.Overlay{Base: netconfig.DatasetFields{Dataset: ds}, Overrides: overrides}
	return netconfig.NewBuilder(netconfig.MetaFromDataset(ds), fields).Build(store.Nodes())
}
