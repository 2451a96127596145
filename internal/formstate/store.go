package formstate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"
)

type Role string

const (
	RoleUnset  Role = ""
	RoleMaster Role = "master"
	RoleInfra  Role = "infra"
	RoleWorker Role = "worker"
)

type InterfaceType string

const (
	InterfaceEthernet InterfaceType = "ethernet"
	InterfaceBond     InterfaceType = "bond"
)

// MaxControlRoleNodes bounds the master and infra roles. Workers are unbounded.
const MaxControlRoleNodes = 3

var (
	ErrNodeNotFound         = errors.New("node not found")
	ErrInvalidRole          = errors.New("invalid role")
	ErrRoleCapacity         = errors.New("role capacity exceeded")
	ErrRoleUnset            = errors.New("role must be selected before hostname")
	ErrHostnameTaken        = errors.New("hostname already assigned to another node")
	ErrHostnameNotInPool    = errors.New("hostname is not a candidate for role")
	ErrInvalidInterfaceType = errors.New("invalid interface type")
)

// hostnamePools lists the candidate hostnames per role in declaration order.
var hostnamePools = map[Role][]string{
	RoleMaster: {"master0", "master1", "master2"},
	RoleInfra:  {"infra0", "infra1", "infra2"},
	RoleWorker: {"worker0", "worker1", "worker2", "worker3", "worker4"},
}

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleMaster, RoleInfra, RoleWorker:
		return r, nil
	}
	return RoleUnset, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

func ParseInterfaceType(s string) (InterfaceType, error) {
	switch t := InterfaceType(s); t {
	case InterfaceEthernet, InterfaceBond:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidInterfaceType, s)
}

// HostnamePool returns a copy of the fixed candidate pool for role.
func HostnamePool(role Role) []string {
	return append([]string(nil), hostnamePools[role]...)
}

type NodeEntry struct {
	Index         int           `json:"index"`
	Role          Role          `json:"role"`
	Hostname      string        `json:"hostname"`
	InterfaceType InterfaceType `json:"interfaceType"`
}

func (n NodeEntry) Complete() bool {
	return n.Role != RoleUnset && n.Hostname != ""
}

// Renderer is notified after every mutation that can change which hostnames
// are available to the other nodes.
type Renderer interface {
	Render(s *Store)
}

// Store holds the configuration of every node section currently on the form.
// It is not safe for concurrent use; callers serialize access.
type Store struct {
	nodes     map[int]*NodeEntry
	nextIndex int
	counts    map[Role]int
	reserved  map[string]int

	renderers []Renderer
}

func NewStore() *Store {
	return &Store{
		nodes:    make(map[int]*NodeEntry),
		counts:   make(map[Role]int),
		reserved: make(map[string]int),
	}
}

func (s *Store) Subscribe(r Renderer) {
	s.renderers = append(s.renderers, r)
}

func (s *Store) notify() {
	for _, r := range s.renderers {
		r.Render(s)
	}
}

func (s *Store) AddNode() int {
	index := s.nextIndex
	s.nextIndex++
	s.nodes[index] = &NodeEntry{Index: index, InterfaceType: InterfaceEthernet}
	return index
}

func (s *Store) RemoveNode(index int) error {
	node, ok := s.nodes[index]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, index)
	}

	if node.Role != RoleUnset {
		s.counts[node.Role]--
	}
	s.release(node)
	delete(s.nodes, index)

	s.notify()
	return nil
}

func (s *Store) SetRole(index int, role Role) error {
	node, ok := s.nodes[index]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, index)
	}
	if _, ok := hostnamePools[role]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if node.Role == role {
		return nil
	}
	if role != RoleWorker && s.counts[role] >= MaxControlRoleNodes {
		return fmt.Errorf("%w: at most %d %s nodes", ErrRoleCapacity, MaxControlRoleNodes, role)
	}

	if node.Role != RoleUnset {
		s.counts[node.Role]--
	}
	s.counts[role]++
	node.Role = role

	// The hostname pool is role scoped, so the old choice no longer applies.
	s.release(node)

	s.notify()
	return nil
}

func (s *Store) SetHostname(index int, hostname string) error {
	node, ok := s.nodes[index]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, index)
	}
	if node.Role == RoleUnset {
		return fmt.Errorf("node %d: %w", index, ErrRoleUnset)
	}
	if !lo.Contains(hostnamePools[node.Role], hostname) {
		return fmt.Errorf("%w: %q for %s", ErrHostnameNotInPool, hostname, node.Role)
	}
	if owner, taken := s.reserved[hostname]; taken && owner != index {
		return fmt.Errorf("%w: %q held by node %d", ErrHostnameTaken, hostname, owner)
	}

	s.release(node)
	s.reserved[hostname] = index
	node.Hostname = hostname

	s.notify()
	return nil
}

func (s *Store) SetInterfaceType(index int, t InterfaceType) error {
	node, ok := s.nodes[index]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, index)
	}
	if _, err := ParseInterfaceType(string(t)); err != nil {
		return err
	}
	node.InterfaceType = t
	return nil
}

// CandidateHostnames returns the hostnames node index may pick, in pool order.
// The node's own hostname stays in the list.
func (s *Store) CandidateHostnames(index int) ([]string, error) {
	node, ok := s.nodes[index]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, index)
	}
	return s.candidates(node.Role, node.Hostname), nil
}

// PoolCandidates returns the unreserved hostnames for role, in pool order.
func (s *Store) PoolCandidates(role Role) []string {
	return s.candidates(role, "")
}

func (s *Store) candidates(role Role, own string) []string {
	return lo.Filter(hostnamePools[role], func(h string, _ int) bool {
		_, taken := s.reserved[h]
		return !taken || h == own
	})
}

func (s *Store) Node(index int) (NodeEntry, bool) {
	node, ok := s.nodes[index]
	if !ok {
		return NodeEntry{}, false
	}
	return *node, true
}

// Nodes returns a snapshot of all live entries ordered by index.
func (s *Store) Nodes() []NodeEntry {
	out := make([]NodeEntry, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (s *Store) RoleCounts() map[Role]int {
	out := map[Role]int{RoleMaster: 0, RoleInfra: 0, RoleWorker: 0}
	for r, c := range s.counts {
		out[r] = c
	}
	return out
}

// Reserved returns the currently claimed hostnames, sorted.
func (s *Store) Reserved() []string {
	out := lo.Keys(s.reserved)
	sort.Strings(out)
	return out
}

func (s *Store) release(node *NodeEntry) {
	if node.Hostname == "" {
		return
	}
	delete(s.reserved, node.Hostname)
	node.Hostname = ""
}
