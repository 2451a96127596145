package model

type ExecuteCommandRequest struct {
	CommandKey string `json:"command_key" binding:"required"`
	Version    string `json:"version"`
}

type ListOperatorsRequest struct {
	Catalog string `json:"catalog" binding:"required"`
	Version string `json:"version" binding:"required"`
}

type ApplyPullSecretRequest struct {
	PullSecret string `json:"pull_secret" binding:"required"`
}

type MirrorPullSecretRequest struct {
	Registry string `json:"registry" binding:"required"`
	User     string `json:"user" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type GenerateSSHKeyRequest struct {
	KeyName string `json:"key_name" binding:"required"`
}

type ConfigureRequest struct {
	Type string `json:"type" binding:"required,oneof=hostname ip chrony"`
}

// AgentConfigForm is the agent-config form. NodesData carries the JSON
// encoded hosts array built by the node payload builder.
type AgentConfigForm struct {
	MetadataName         string `form:"metadata_name"`
	RendezvousIP         string `form:"rendezvousIP"`
	AdditionalNTPSources string `form:"additionalNTPSources"`
	NodesDataHidden      string `form:"nodes_data_hidden"`
	NodesData            string `form:"nodes_data"`
}

type SetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type SetHostnameRequest struct {
	Hostname string `json:"hostname" binding:"required"`
}

type SetInterfaceTypeRequest struct {
	InterfaceType string `json:"interfaceType" binding:"required"`
}

// BuildNodesRequest optionally overrides per-node field values, keyed by
// node index then field name.
type BuildNodesRequest struct {
	Overrides map[int]map[string]string `json:"overrides"`
}
