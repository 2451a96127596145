// Package netconfig turns the node form state into the agent-config hosts
// payload, including the per-host nmstate network configuration.
package netconfig

import (
	"fmt"
	"strconv"
	"strings"

	"ocp-installer-helper/internal/clusterdata"
	"ocp-installer-helper/internal/formstate"
)

// Per-host inventory field names, looked up as "<field>_<hostname>".
const (
	FieldInterface   = "interface"
	FieldMAC         = "mac"
	FieldMTU         = "mtu"
	FieldNodeIP      = "nodeip"
	FieldPrefix      = "prefix"
	FieldDNS         = "dns"
	FieldGateway     = "gw"
	FieldDisk        = "disk"
	FieldBondName    = "bond_Interface_name"
	FieldBondPort1   = "bond_Interface1"
	FieldBondMAC1    = "bond_mac1"
	FieldBondPort2   = "bond_Interface2"
	FieldBondMAC2    = "bond_mac2"
	FieldBondMode    = "bond_link-aggregation_mode"
	FieldBondMiimon  = "bond_miimon"
	DefaultRouteDest = "0.0.0.0/0"
	MainRouteTable   = 254
)

// EthernetFields and BondFields list what each interface type reads.
var (
	EthernetFields = []string{FieldInterface, FieldMAC, FieldMTU, FieldNodeIP, FieldPrefix, FieldDNS, FieldGateway, FieldDisk}
	BondFields     = []string{FieldBondName, FieldBondPort1, FieldBondMAC1, FieldBondPort2, FieldBondMAC2, FieldBondMode, FieldBondMiimon, FieldMTU, FieldNodeIP, FieldPrefix, FieldDNS, FieldGateway, FieldDisk}
)

// IncompleteNodeError reports a node that has no role or no hostname.
type IncompleteNodeError struct {
	Index int
}

func (e *IncompleteNodeError) Error() string {
	return fmt.Sprintf("node %d: role and hostname must both be selected", e.Index+1)
}

// FieldError reports a field value that could not be used.
type FieldError struct {
	Index int
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("node %d: field %q value %q: %v", e.Index+1, e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// FieldSource supplies the form field values of a node.
type FieldSource interface {
	Value(node formstate.NodeEntry, field string) string
}

// DatasetFields reads field values from the uploaded inventory.
type DatasetFields struct {
	Dataset clusterdata.Dataset
}

func (d DatasetFields) Value(node formstate.NodeEntry, field string) string {
	return strings.TrimSpace(d.Dataset.HostField(field, node.Hostname))
}

// Overlay prefers per-node overrides and falls back to Base.
type Overlay struct {
	Base      FieldSource
	Overrides map[int]map[string]string
}

func (o Overlay) Value(node formstate.NodeEntry, field string) string {
	if v, ok := o.Overrides[node.Index][field]; ok {
		return strings.TrimSpace(v)
	}
	if o.Base == nil {
		return ""
	}
	return o.Base.Value(node, field)
}

// ClusterMeta carries the names used to qualify short hostnames.
type ClusterMeta struct {
	Name       string
	BaseDomain string
}

func MetaFromDataset(ds clusterdata.Dataset) ClusterMeta {
	return ClusterMeta{Name: ds.Get("metadata_name"), BaseDomain: ds.Get("base_domain")}
}

func (m ClusterMeta) FQDN(hostname string) string {
	return fmt.Sprintf("%s.%s.%s", hostname, m.Name, m.BaseDomain)
}

type Builder struct {
	Meta   ClusterMeta
	Fields FieldSource
}

func NewBuilder(meta ClusterMeta, fields FieldSource) *Builder {
	return &Builder{Meta: meta, Fields: fields}
}

// Build produces one Host per node, in the given order. Nothing is returned
// unless every node is complete and every numeric field parses.
func (b *Builder) Build(nodes []formstate.NodeEntry) ([]Host, error) {
	for _, n := range nodes {
		if !n.Complete() {
			return nil, &IncompleteNodeError{Index: n.Index}
		}
	}

	hosts := make([]Host, 0, len(nodes))
	for _, n := range nodes {
		h, err := b.buildHost(n)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

func (b *Builder) buildHost(n formstate.NodeEntry) (Host, error) {
	get := func(field string) string { return b.Fields.Value(n, field) }

	host := Host{
		Role:            string(n.Role),
		Hostname:        b.Meta.FQDN(n.Hostname),
		RootDeviceHints: RootDeviceHints{DeviceName: get(FieldDisk)},
		Interfaces:      []PhysicalInterface{},
	}

	prefix, err := parseInt(n, FieldPrefix, get(FieldPrefix))
	if err != nil {
		return Host{}, err
	}
	mtu, err := parseOptionalInt(n, FieldMTU, get(FieldMTU))
	if err != nil {
		return Host{}, err
	}

	iface := Interface{
		State: "up",
		IPv4: IPv4{
			Enabled: true,
			Address: []Address{{IP: get(FieldNodeIP), PrefixLength: prefix}},
			DHCP:    false,
		},
		IPv6: IPv6{Enabled: false},
		MTU:  mtu,
	}

	switch n.InterfaceType {
	case formstate.InterfaceBond:
		port1, port2 := get(FieldBondPort1), get(FieldBondPort2)
		host.Interfaces = append(host.Interfaces,
			PhysicalInterface{Name: port1, MacAddress: get(FieldBondMAC1)},
			PhysicalInterface{Name: port2, MacAddress: get(FieldBondMAC2)},
		)

		miimon, err := parseOptionalInt(n, FieldBondMiimon, get(FieldBondMiimon))
		if err != nil {
			return Host{}, err
		}
		agg := &LinkAggregation{
			Mode: get(FieldBondMode),
			Port: []string{port1, port2},
		}
		if miimon != nil {
			agg.Options = &BondOptions{Miimon: *miimon}
		}

		iface.Name = get(FieldBondName)
		iface.Type = string(formstate.InterfaceBond)
		iface.MacAddress = get(FieldBondMAC1)
		iface.LinkAggregation = agg
	default:
		name, mac := get(FieldInterface), get(FieldMAC)
		host.Interfaces = append(host.Interfaces, PhysicalInterface{Name: name, MacAddress: mac})

		iface.Name = name
		iface.Type = string(formstate.InterfaceEthernet)
		iface.MacAddress = mac
	}

	host.NetworkConfig.Interfaces = []Interface{iface}
	host.NetworkConfig.DNSResolver = &DNSResolver{Config: DNSConfig{Server: nonEmpty(get(FieldDNS))}}

	if gw := get(FieldGateway); gw != "" && iface.Name != "" {
		host.NetworkConfig.Routes = &Routes{Config: []Route{{
			Destination:      DefaultRouteDest,
			NextHopAddress:   gw,
			NextHopInterface: iface.Name,
			TableID:          MainRouteTable,
		}}}
	}

	return host, nil
}

func parseInt(n formstate.NodeEntry, field, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, &FieldError{Index: n.Index, Field: field, Value: value, Err: err}
	}
	return v, nil
}

func parseOptionalInt(n formstate.NodeEntry, field, value string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	v, err := parseInt(n, field, value)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func nonEmpty(values ...string) []string {
	out := []string{}
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
