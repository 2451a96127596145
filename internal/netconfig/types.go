package netconfig

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// BoolString is a boolean that travels as the string "true" or "false".
// The agent-config consumers expect the quoted form for enabled/dhcp.
type BoolString bool

func (b BoolString) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatBool(bool(b)))
}

func (b *BoolString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var v bool
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("bool string: %s", data)
		}
		*b = BoolString(v)
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("bool string: %w", err)
	}
	*b = BoolString(v)
	return nil
}

// Host is one entry of the agent-config hosts list.
type Host struct {
	Role            string              `json:"role"`
	Hostname        string              `json:"hostname"`
	RootDeviceHints RootDeviceHints     `json:"rootDeviceHints"`
	Interfaces      []PhysicalInterface `json:"interfaces"`
	NetworkConfig   NetworkConfig       `json:"networkConfig"`
}

type RootDeviceHints struct {
	DeviceName string `json:"deviceName"`
}

type PhysicalInterface struct {
	Name       string `json:"name"`
	MacAddress string `json:"macAddress"`
}

// NetworkConfig is the nmstate document applied to the host.
type NetworkConfig struct {
	Interfaces  []Interface  `json:"interfaces"`
	DNSResolver *DNSResolver `json:"dns-resolver,omitempty"`
	Routes      *Routes      `json:"routes,omitempty"`
}

type Interface struct {
	Name            string           `json:"name"`
	Type            string           `json:"type"`
	State           string           `json:"state"`
	MacAddress      string           `json:"mac-address"`
	IPv4            IPv4             `json:"ipv4"`
	IPv6            IPv6             `json:"ipv6"`
	MTU             *int             `json:"mtu,omitempty"`
	LinkAggregation *LinkAggregation `json:"link-aggregation,omitempty"`
}

type IPv4 struct {
	Enabled BoolString `json:"enabled"`
	Address []Address  `json:"address"`
	DHCP    BoolString `json:"dhcp"`
}

type IPv6 struct {
	Enabled BoolString `json:"enabled"`
}

type Address struct {
	IP           string `json:"ip"`
	PrefixLength int    `json:"prefix-length"`
}

type LinkAggregation struct {
	Mode    string       `json:"mode"`
	Options *BondOptions `json:"options,omitempty"`
	Port    []string     `json:"port"`
}

type BondOptions struct {
	Miimon int `json:"miimon"`
}

type DNSResolver struct {
	Config DNSConfig `json:"config"`
}

type DNSConfig struct {
	Server []string `json:"server"`
}

type Routes struct {
	Config []Route `json:"config"`
}

type Route struct {
	Destination      string `json:"destination"`
	NextHopAddress   string `json:"next-hop-address"`
	NextHopInterface string `json:"next-hop-interface"`
	TableID          int    `json:"table-id"`
}
