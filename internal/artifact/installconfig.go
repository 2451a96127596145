package artifact

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const InstallConfigFile = "install-config.yaml"

// InstallConfigParams mirrors the install-config form fields.
type InstallConfigParams struct {
	BaseDomain            string `form:"baseDomain" json:"baseDomain"`
	MetadataName          string `form:"metadataName" json:"metadataName"`
	MachineNetworkCIDR    string `form:"machineNetworkCIDR" json:"machineNetworkCIDR"`
	ClusterNetworkCIDR    string `form:"clusterNetworkCIDR" json:"clusterNetworkCIDR"`
	ServiceNetwork        string `form:"serviceNetwork" json:"serviceNetwork"`
	HostPrefix            string `form:"hostPrefix" json:"hostPrefix"`
	MasterReplicas        string `form:"masterReplicas" json:"masterReplicas"`
	WorkerReplicas        string `form:"workerReplicas" json:"workerReplicas"`
	ProxyEnabled          bool   `form:"proxy_enabled" json:"proxy_enabled"`
	HTTPProxy             string `form:"httpProxy" json:"httpProxy"`
	HTTPSProxy            string `form:"httpsProxy" json:"httpsProxy"`
	NoProxy               string `form:"noProxy" json:"noProxy"`
	MirrorEnabled         bool   `form:"mirror_enabled" json:"mirror_enabled"`
	RegistryAddress       string `form:"registry_address" json:"registry_address"`
	PullSecret            string `form:"pullSecret" json:"pullSecret"`
	SSHKey                string `form:"sshKey" json:"sshKey"`
	AdditionalTrustBundle string `form:"additionalTrustBundle" json:"additionalTrustBundle"`
}

type InstallConfig struct {
	APIVersion            string              `json:"apiVersion"`
	BaseDomain            string              `json:"baseDomain"`
	Compute               []MachinePool       `json:"compute"`
	ControlPlane          MachinePool         `json:"controlPlane"`
	Metadata              Metadata            `json:"metadata"`
	Networking            Networking          `json:"networking"`
	Platform              Platform            `json:"platform"`
	Proxy                 *Proxy              `json:"proxy,omitempty"`
	ImageDigestSources    []ImageDigestSource `json:"imageDigestSources,omitempty"`
	AdditionalTrustBundle string              `json:"additionalTrustBundle,omitempty"`
	PullSecret            string              `json:"pullSecret"`
	SSHKey                string              `json:"sshKey"`
}

type MachinePool struct {
	Architecture   string `json:"architecture"`
	Hyperthreading string `json:"hyperthreading"`
	Name           string `json:"name"`
	Replicas       int    `json:"replicas"`
}

type Networking struct {
	NetworkType    string           `json:"networkType"`
	ClusterNetwork []ClusterNetwork `json:"clusterNetwork"`
	MachineNetwork []MachineNetwork `json:"machineNetwork"`
	ServiceNetwork []string         `json:"serviceNetwork"`
}

type ClusterNetwork struct {
	CIDR       string `json:"cidr"`
	HostPrefix int    `json:"hostPrefix"`
}

type MachineNetwork struct {
	CIDR string `json:"cidr"`
}

type Platform struct {
	None struct{} `json:"none"`
}

type Proxy struct {
	HTTPProxy  string `json:"httpProxy,omitempty"`
	HTTPSProxy string `json:"httpsProxy,omitempty"`
	NoProxy    string `json:"noProxy,omitempty"`
}

type ImageDigestSource struct {
	Source  string   `json:"source"`
	Mirrors []string `json:"mirrors"`
}

var ErrMissingField = errors.New("required field is empty")

// NewInstallConfig validates the form values and builds install-config.yaml
// for an agent-based, platform none install.
func NewInstallConfig(p InstallConfigParams) (*InstallConfig, error) {
	required := map[string]string{
		"baseDomain":         p.BaseDomain,
		"metadataName":       p.MetadataName,
		"machineNetworkCIDR": p.MachineNetworkCIDR,
		"pullSecret":         p.PullSecret,
		"sshKey":             p.SSHKey,
	}
	for _, name := range []string{"baseDomain", "metadataName", "machineNetworkCIDR", "pullSecret", "sshKey"} {
		if strings.TrimSpace(required[name]) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}

	hostPrefix, err := intOrDefault("hostPrefix", p.HostPrefix, 23)
	if err != nil {
		return nil, err
	}
	masters, err := intOrDefault("masterReplicas", p.MasterReplicas, 3)
	if err != nil {
		return nil, err
	}
	workers, err := intOrDefault("workerReplicas", p.WorkerReplicas, 0)
	if err != nil {
		return nil, err
	}

	cfg := &InstallConfig{
		APIVersion: "v1",
		BaseDomain: p.BaseDomain,
		Compute: []MachinePool{{
			Architecture:   "amd64",
			Hyperthreading: "Enabled",
			Name:           "worker",
			Replicas:       workers,
		}},
		ControlPlane: MachinePool{
			Architecture:   "amd64",
			Hyperthreading: "Enabled",
			Name:           "master",
			Replicas:       masters,
		},
		Metadata: Metadata{Name: p.MetadataName},
		Networking: Networking{
			NetworkType:    "OVNKubernetes",
			ClusterNetwork: []ClusterNetwork{{CIDR: orDefault(p.ClusterNetworkCIDR, "10.128.0.0/14"), HostPrefix: hostPrefix}},
			MachineNetwork: []MachineNetwork{{CIDR: p.MachineNetworkCIDR}},
			ServiceNetwork: []string{orDefault(p.ServiceNetwork, "172.30.0.0/16")},
		},
		PullSecret:            strings.TrimSpace(p.PullSecret),
		SSHKey:                strings.TrimSpace(p.SSHKey),
		AdditionalTrustBundle: p.AdditionalTrustBundle,
	}

	if p.ProxyEnabled {
		cfg.Proxy = &Proxy{HTTPProxy: p.HTTPProxy, HTTPSProxy: p.HTTPSProxy, NoProxy: p.NoProxy}
	}
	if p.MirrorEnabled && p.RegistryAddress != "" {
		cfg.ImageDigestSources = MirrorSources(p.RegistryAddress)
	}
	return cfg, nil
}

// MirrorSources maps the release repositories onto a mirror registry
// populated by oc-mirror.
func MirrorSources(registry string) []ImageDigestSource {
	registry = strings.TrimSuffix(registry, "/")
	return []ImageDigestSource{
		{Source: "quay.io/openshift-release-dev/ocp-release", Mirrors: []string{registry + "/openshift/release-images"}},
		{Source: "quay.io/openshift-release-dev/ocp-v4.0-art-dev", Mirrors: []string{registry + "/openshift/release"}},
	}
}

func intOrDefault(name, value string, def int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return v, nil
}

func orDefault(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
