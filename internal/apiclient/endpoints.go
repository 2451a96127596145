package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"ocp-installer-helper/internal/artifact"
	"ocp-installer-helper/internal/clusterdata"
	"ocp-installer-helper/internal/model"
)

func (c *Client) Versions(ctx context.Context) model.VersionsResponse {
	var out model.VersionsResponse
	if err := c.into(ctx, http.MethodGet, "/api/get-ocp-versions", nil, &out); err != nil {
		return model.VersionsResponse{Success: false, Error: err.Error()}
	}
	return out
}

func (c *Client) ListOperators(ctx context.Context, catalog, version string) model.OperatorsResponse {
	var out model.OperatorsResponse
	req := model.ListOperatorsRequest{Catalog: catalog, Version: version}
	if err := c.into(ctx, http.MethodPost, "/api/list-operators", req, &out); err != nil {
		return model.OperatorsResponse{Success: false, Error: err.Error()}
	}
	return out
}

func (c *Client) GenerateImageSet(ctx context.Context, req artifact.ImageSetRequest) model.Result {
	return c.Call(ctx, http.MethodPost, "/api/generate-imageset", req)
}

func (c *Client) ExecuteCommand(ctx context.Context, key, version string) model.Result {
	return c.Call(ctx, http.MethodPost, "/api/execute-command", model.ExecuteCommandRequest{CommandKey: key, Version: version})
}

func (c *Client) ApplyPullSecret(ctx context.Context, pullSecret string) model.Result {
	return c.Call(ctx, http.MethodPost, "/api/apply-pull-secret", model.ApplyPullSecretRequest{PullSecret: pullSecret})
}

func (c *Client) RunMirror(ctx context.Context) model.RunMirrorResponse {
	var out model.RunMirrorResponse
	if err := c.into(ctx, http.MethodPost, "/api/run-mirror", struct{}{}, &out); err != nil {
		return model.RunMirrorResponse{Success: false, Error: err.Error()}
	}
	return out
}

func (c *Client) MirrorProgress(ctx context.Context, taskID string) model.ProgressResponse {
	var out model.ProgressResponse
	if err := c.into(ctx, http.MethodGet, "/api/mirror/progress/"+url.PathEscape(taskID), nil, &out); err != nil {
		return model.ProgressResponse{Success: false, Error: err.Error()}
	}
	return out
}

// LoadClusterInfo returns the uploaded inventory, or an empty dataset when
// none is stored.
func (c *Client) LoadClusterInfo(ctx context.Context) (clusterdata.Dataset, error) {
	status, raw, err := c.do(ctx, http.MethodGet, "/api/load-cluster-info", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return clusterdata.Dataset{}, nil
	}
	ds := clusterdata.Dataset{}
	if err := jsonUnmarshal(raw, &ds, status); err != nil {
		return nil, err
	}
	return ds, nil
}

func (c *Client) MirrorCA(ctx context.Context) model.MirrorCAResponse {
	var out model.MirrorCAResponse
	if err := c.into(ctx, http.MethodGet, "/api/get-mirror-ca", nil, &out); err != nil {
		return model.MirrorCAResponse{Success: false, Error: err.Error()}
	}
	return out
}

func (c *Client) SSHKey(ctx context.Context, name string) model.SSHKeyResponse {
	var out model.SSHKeyResponse
	if err := c.into(ctx, http.MethodGet, "/api/get-ssh-key/"+url.PathEscape(name), nil, &out); err != nil {
		return model.SSHKeyResponse{Error: err.Error()}
	}
	return out
}

func (c *Client) GenerateSSHKey(ctx context.Context, name string) model.Result {
	return c.Call(ctx, http.MethodPost, "/generate-ssh-key", model.GenerateSSHKeyRequest{KeyName: name})
}

// GenerateAgentConfig submits the agent-config form with the serialized
// hosts in nodes_data_hidden.
func (c *Client) GenerateAgentConfig(ctx context.Context, form model.AgentConfigForm) model.Result {
	values := url.Values{}
	values.Set("metadata_name", form.MetadataName)
	values.Set("rendezvousIP", form.RendezvousIP)
	values.Set("additionalNTPSources", form.AdditionalNTPSources)
	values.Set("nodes_data_hidden", form.NodesDataHidden)
	return c.postForm(ctx, "/generate-agent-config", values)
}
