package formstate

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_AddNode(t *testing.T) {
	s := NewStore()

	a := s.AddNode()
	b := s.AddNode()
	require.NoError(t, s.RemoveNode(b))
	c := s.AddNode()

	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, 2, c)

	node, ok := s.Node(a)
	require.True(t, ok)
	assert.Equal(t, RoleUnset, node.Role)
	assert.Empty(t, node.Hostname)
	assert.Equal(t, InterfaceEthernet, node.InterfaceType)
}

func Test_SetRole(t *testing.T) {
	testCases := []struct {
		name    string
		preset  []Role
		role    Role
		wantErr bool
		err     error
	}{
		{
			name: "first master",
			role: RoleMaster,
		},
		{
			name:    "fourth master",
			preset:  []Role{RoleMaster, RoleMaster, RoleMaster},
			role:    RoleMaster,
			wantErr: true,
			err:     ErrRoleCapacity,
		},
		{
			name:    "fourth infra",
			preset:  []Role{RoleInfra, RoleInfra, RoleInfra},
			role:    RoleInfra,
			wantErr: true,
			err:     ErrRoleCapacity,
		},
		{
			name:   "workers are unbounded",
			preset: []Role{RoleWorker, RoleWorker, RoleWorker, RoleWorker, RoleWorker, RoleWorker},
			role:   RoleWorker,
		},
		{
			name:    "unknown role",
			role:    Role("bootstrap"),
			wantErr: true,
			err:     ErrInvalidRole,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore()
			for _, r := range tc.preset {
				require.NoError(t, s.SetRole(s.AddNode(), r))
			}
			before := s.RoleCounts()

			idx := s.AddNode()
			err := s.SetRole(idx, tc.role)
			if tc.wantErr {
				assert.ErrorIs(t, err, tc.err)
				assert.Equal(t, before, s.RoleCounts())
				node, _ := s.Node(idx)
				assert.Equal(t, RoleUnset, node.Role)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, before[tc.role]+1, s.RoleCounts()[tc.role])
		})
	}
}

func Test_SetRole_ClearsHostname(t *testing.T) {
	s := NewStore()
	idx := s.AddNode()
	require.NoError(t, s.SetRole(idx, RoleMaster))
	require.NoError(t, s.SetHostname(idx, "master1"))

	require.NoError(t, s.SetRole(idx, RoleWorker))

	node, _ := s.Node(idx)
	assert.Empty(t, node.Hostname)
	assert.Empty(t, s.Reserved())
	assert.Equal(t, 0, s.RoleCounts()[RoleMaster])
	assert.Equal(t, 1, s.RoleCounts()[RoleWorker])
	assert.Contains(t, s.PoolCandidates(RoleMaster), "master1")
}

func Test_SetHostname(t *testing.T) {
	s := NewStore()
	a := s.AddNode()
	b := s.AddNode()
	c := s.AddNode()
	require.NoError(t, s.SetRole(a, RoleMaster))
	require.NoError(t, s.SetRole(b, RoleMaster))
	require.NoError(t, s.SetHostname(a, "master0"))

	testCases := []struct {
		name     string
		index    int
		hostname string
		err      error
	}{
		{name: "taken by another node", index: b, hostname: "master0", err: ErrHostnameTaken},
		{name: "other role's pool", index: b, hostname: "worker0", err: ErrHostnameNotInPool},
		{name: "role not selected", index: c, hostname: "master1", err: ErrRoleUnset},
		{name: "unknown node", index: 42, hostname: "master1", err: ErrNodeNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.SetHostname(tc.index, tc.hostname)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, []string{"master0"}, s.Reserved())
		})
	}

	t.Run("reselecting own hostname", func(t *testing.T) {
		assert.NoError(t, s.SetHostname(a, "master0"))
		assert.Equal(t, []string{"master0"}, s.Reserved())
	})

	t.Run("switching releases previous", func(t *testing.T) {
		require.NoError(t, s.SetHostname(a, "master2"))
		assert.Equal(t, []string{"master2"}, s.Reserved())
		assert.NoError(t, s.SetHostname(b, "master0"))
	})
}

func Test_CandidateHostnames_ExcludesReserved(t *testing.T) {
	s := NewStore()
	a := s.AddNode()
	require.NoError(t, s.SetRole(a, RoleMaster))
	require.NoError(t, s.SetHostname(a, "master0"))
	b := s.AddNode()
	require.NoError(t, s.SetRole(b, RoleMaster))

	got, err := s.CandidateHostnames(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"master1", "master2"}, got)

	own, err := s.CandidateHostnames(a)
	require.NoError(t, err)
	assert.Equal(t, []string{"master0", "master1", "master2"}, own)
}

func Test_RemoveNode(t *testing.T) {
	s := NewStore()
	a := s.AddNode()
	require.NoError(t, s.SetRole(a, RoleInfra))
	require.NoError(t, s.SetHostname(a, "infra1"))
	assert.NotContains(t, s.PoolCandidates(RoleInfra), "infra1")

	require.NoError(t, s.RemoveNode(a))

	assert.Equal(t, 0, s.RoleCounts()[RoleInfra])
	assert.Empty(t, s.Reserved())
	assert.Equal(t, []string{"infra0", "infra1", "infra2"}, s.PoolCandidates(RoleInfra))
	assert.ErrorIs(t, s.RemoveNode(a), ErrNodeNotFound)
}

func Test_SetInterfaceType(t *testing.T) {
	s := NewStore()
	idx := s.AddNode()

	require.NoError(t, s.SetInterfaceType(idx, InterfaceBond))
	node, _ := s.Node(idx)
	assert.Equal(t, InterfaceBond, node.InterfaceType)

	assert.ErrorIs(t, s.SetInterfaceType(idx, InterfaceType("vlan")), ErrInvalidInterfaceType)
	node, _ = s.Node(idx)
	assert.Equal(t, InterfaceBond, node.InterfaceType)
}

// Test_Invariants drives the store with random operations and checks that the
// derived counters and reservations always match a recount of live entries.
func Test_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	roles := []Role{RoleMaster, RoleInfra, RoleWorker}
	s := NewStore()
	var live []int

	for i := 0; i < 2000; i++ {
		switch op := rng.Intn(4); {
		case op == 0 || len(live) == 0:
			live = append(live, s.AddNode())
		case op == 1:
			k := rng.Intn(len(live))
			require.NoError(t, s.RemoveNode(live[k]))
			live = append(live[:k], live[k+1:]...)
		case op == 2:
			_ = s.SetRole(live[rng.Intn(len(live))], roles[rng.Intn(len(roles))])
		default:
			idx := live[rng.Intn(len(live))]
			node, _ := s.Node(idx)
			pool := HostnamePool(node.Role)
			if len(pool) > 0 {
				_ = s.SetHostname(idx, pool[rng.Intn(len(pool))])
			}
		}

		counts := map[Role]int{RoleMaster: 0, RoleInfra: 0, RoleWorker: 0}
		var hostnames []string
		for _, n := range s.Nodes() {
			if n.Role != RoleUnset {
				counts[n.Role]++
			}
			if n.Hostname != "" {
				hostnames = append(hostnames, n.Hostname)
			}
		}
		sort.Strings(hostnames)

		require.Equal(t, counts, s.RoleCounts())
		require.LessOrEqual(t, counts[RoleMaster], MaxControlRoleNodes)
		require.LessOrEqual(t, counts[RoleInfra], MaxControlRoleNodes)
		if len(hostnames) == 0 {
			require.Empty(t, s.Reserved())
		} else {
			require.Equal(t, hostnames, s.Reserved())
		}
	}
}
