package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocp-installer-helper/internal/clusterdata"
	"ocp-installer-helper/internal/formstate"
	"ocp-installer-helper/internal/netconfig"
	"ocp-installer-helper/internal/pkg/logger"
	"ocp-installer-helper/internal/pkg/metrics"
)

func newFormService(t *testing.T, ds clusterdata.Dataset) *FormService {
	t.Helper()
	store := clusterdata.NewStore(t.TempDir())
	if ds != nil {
		require.NoError(t, store.Save(ds))
	}
	return NewFormService(NewClusterService(store, logger.NewNop()), logger.NewNop(), metrics.New(nil))
}

func Test_FormService_Lifecycle(t *testing.T) {
	s := newFormService(t, nil)

	st := s.Create()
	id := st.SessionID
	require.NotEmpty(t, id)
	assert.Empty(t, st.Nodes)
	assert.Equal(t, []string{id}, s.SessionIDs())

	a, st, err := s.AddNode(id)
	require.NoError(t, err)
	assert.Equal(t, 0, a)
	require.Len(t, st.Dropdowns, 1)
	assert.True(t, st.Dropdowns[0].Disabled)

	b, _, err := s.AddNode(id)
	require.NoError(t, err)

	_, err = s.SetRole(id, a, "master")
	require.NoError(t, err)
	st, err = s.SetHostname(id, a, "master0")
	require.NoError(t, err)
	assert.Equal(t, []string{"master0"}, st.Reserved)
	assert.Equal(t, 1, st.RoleCounts[formstate.RoleMaster])

	_, err = s.SetRole(id, b, "master")
	require.NoError(t, err)
	candidates, err := s.Candidates(id, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"master1", "master2"}, candidates)

	_, err = s.SetHostname(id, b, "master0")
	assert.ErrorIs(t, err, formstate.ErrHostnameTaken)

	st, err = s.RemoveNode(id, a)
	require.NoError(t, err)
	assert.Empty(t, st.Reserved)
	require.Len(t, st.Dropdowns, 1)
	assert.Equal(t, []string{"master0", "master1", "master2"}, st.Dropdowns[0].Options)

	require.NoError(t, s.Delete(id))
	_, err = s.State(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, s.Delete(id), ErrSessionNotFound)
}

func Test_FormService_ParseErrors(t *testing.T) {
	s := newFormService(t, nil)
	id := s.Create().SessionID
	index, _, err := s.AddNode(id)
	require.NoError(t, err)

	_, err = s.SetRole(id, index, "bootstrap")
	assert.ErrorIs(t, err, formstate.ErrInvalidRole)

	_, err = s.SetInterfaceType(id, index, "vlan")
	assert.ErrorIs(t, err, formstate.ErrInvalidInterfaceType)

	st, err := s.SetInterfaceType(id, index, "bond")
	require.NoError(t, err)
	assert.Equal(t, formstate.InterfaceBond, st.Nodes[0].InterfaceType)
}

func Test_FormService_Build(t *testing.T) {
	s := newFormService(t, clusterdata.Dataset{
		"metadata_name":     "ocp",
		"base_domain":       "example.com",
		"interface_master0": "ens3",
		"mac_master0":       "52:54:00:00:00:01",
		"nodeip_master0":    "10.0.0.10",
		"prefix_master0":    "24",
		"dns_master0":       "10.0.0.5",
		"gw_master0":        "10.0.0.1",
		"disk_master0":      "/dev/vda",
	})
	id := s.Create().SessionID
	index, _, err := s.AddNode(id)
	require.NoError(t, err)

	_, _, err = s.Build(id, nil)
	var incomplete *netconfig.IncompleteNodeError
	assert.ErrorAs(t, err, &incomplete)

	_, err = s.SetRole(id, index, "master")
	require.NoError(t, err)
	_, err = s.SetHostname(id, index, "master0")
	require.NoError(t, err)

	hosts, data, err := s.Build(id, map[int]map[string]string{index: {netconfig.FieldMTU: "9000"}})
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, "master0.ocp.example.com", hosts[0].Hostname)
	require.NotNil(t, hosts[0].NetworkConfig.Interfaces[0].MTU)
	assert.Equal(t, 9000, *hosts[0].NetworkConfig.Interfaces[0].MTU)

	var decoded []netconfig.Host
	require.NoError(t, json.Unmarshal([]byte(data), &decoded))
	assert.Equal(t, hosts, decoded)

	_, _, err = s.Build(id, map[int]map[string]string{index: {netconfig.FieldPrefix: "twenty"}})
	var fieldErr *netconfig.FieldError
	assert.ErrorAs(t, err, &fieldErr)
}

func Test_FormService_BuildWithoutClusterInfo(t *testing.T) {
	s := newFormService(t, nil)
	id := s.Create().SessionID
	index, _, err := s.AddNode(id)
	require.NoError(t, err)
	_, err = s.SetRole(id, index, "master")
	require.NoError(t, err)
	_, err = s.SetHostname(id, index, "master0")
	require.NoError(t, err)

	overrides := map[int]map[string]string{index: {
		netconfig.FieldInterface: "ens3",
		netconfig.FieldMAC:       "52:54:00:00:00:01",
		netconfig.FieldNodeIP:    "10.0.0.10",
		netconfig.FieldPrefix:    "24",
		netconfig.FieldGateway:   "10.0.0.1",
	}}
	hosts, _, err := s.Build(id, overrides)
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, []netconfig.PhysicalInterface{{Name: "ens3", MacAddress: "52:54:00:00:00:01"}}, hosts[0].Interfaces)
	assert.NotNil(t, hosts[0].NetworkConfig.Routes)

	second, _, err := s.AddNode(id)
	require.NoError(t, err)

	_, _, err = s.Build(id, overrides)
	var incomplete *netconfig.IncompleteNodeError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, second, incomplete.Index)
	assert.NotErrorIs(t, err, clusterdata.ErrNotFound)
}
