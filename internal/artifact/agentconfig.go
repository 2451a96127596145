package artifact

import (
	"strings"

	"ocp-installer-helper/internal/netconfig"
)

const AgentConfigFile = "agent-config.yaml"

type AgentConfig struct {
	APIVersion           string           `json:"apiVersion"`
	Kind                 string           `json:"kind"`
	Metadata             Metadata         `json:"metadata"`
	RendezvousIP         string           `json:"rendezvousIP,omitempty"`
	AdditionalNTPSources []string         `json:"additionalNTPSources,omitempty"`
	Hosts                []netconfig.Host `json:"hosts"`
}

type Metadata struct {
	Name string `json:"name"`
}

// NewAgentConfig assembles agent-config.yaml. ntpSources is the raw form
// value; entries may be separated by commas or whitespace.
func NewAgentConfig(name, rendezvousIP, ntpSources string, hosts []netconfig.Host) *AgentConfig {
	if hosts == nil {
		hosts = []netconfig.Host{}
	}
	return &AgentConfig{
		APIVersion:           "v1beta1",
		Kind:                 "AgentConfig",
		Metadata:             Metadata{Name: name},
		RendezvousIP:         rendezvousIP,
		AdditionalNTPSources: SplitList(ntpSources),
		Hosts:                hosts,
	}
}

// SplitList splits a comma or whitespace separated form value.
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
	})
}
