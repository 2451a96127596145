package model

import (
	"ocp-installer-helper/internal/formstate"
	"ocp-installer-helper/internal/netconfig"
)

// SessionState is the full view of one node form session.
type SessionState struct {
	SessionID  string                 `json:"sessionId"`
	Nodes      []formstate.NodeEntry  `json:"nodes"`
	RoleCounts map[formstate.Role]int `json:"roleCounts"`
	Reserved   []string               `json:"reserved"`
	Dropdowns  []formstate.Dropdown   `json:"dropdowns"`
}

type AddNodeResponse struct {
	Success bool         `json:"success"`
	Index   int          `json:"index"`
	State   SessionState `json:"state"`
}

type BuildNodesResponse struct {
	Success bool             `json:"success"`
	Hosts   []netconfig.Host `json:"hosts,omitempty"`
	// NodesData is Hosts JSON-encoded, ready for the nodes_data_hidden field.
	NodesData string `json:"nodes_data,omitempty"`
	Error     string `json:"error,omitempty"`
	Index     *int   `json:"index,omitempty"`
}
