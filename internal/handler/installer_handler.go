package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"ocp-installer-helper/internal/artifact"
	"ocp-installer-helper/internal/clusterdata"
	"ocp-installer-helper/internal/model"
	"ocp-installer-helper/internal/service"
)

const nodeInfoField = "node_info_file"

// InstallerHandler serves the installer configuration page and the bastion
// setup actions.
type InstallerHandler struct {
	clusters  *service.ClusterService
	keys      *service.SSHKeyService
	installer *service.InstallerService
	bastion   *service.BastionService
}

func NewInstallerHandler(clusters *service.ClusterService, keys *service.SSHKeyService, installer *service.InstallerService, bastion *service.BastionService) *InstallerHandler {
	return &InstallerHandler{
		clusters:  clusters,
		keys:      keys,
		installer: installer,
		bastion:   bastion,
	}
}

func (h *InstallerHandler) UploadNodes(c *gin.Context) {
	header, err := c.FormFile(nodeInfoField)
	if err != nil {
		badRequest(c, nodeInfoField, errors.New("no file uploaded"))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	path, err := h.clusters.Upload(header.Filename, file)
	if err != nil {
		if errors.Is(err, service.ErrNotCSV) || errors.Is(err, clusterdata.ErrTooFewRows) || errors.Is(err, clusterdata.ErrColumnMismatch) {
			badRequest(c, nodeInfoField, err)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.Result{Success: true, Message: fmt.Sprintf("cluster info saved to %s", path)})
}

func (h *InstallerHandler) LoadClusterInfo(c *gin.Context) {
	ds, err := h.clusters.Load()
	if err != nil {
		status, apiErr := classify(err)
		c.JSON(status, gin.H{"error": apiErr.Error()})
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (h *InstallerHandler) GenerateSSHKey(c *gin.Context) {
	var req model.GenerateSSHKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "key_name", err)
		return
	}
	path, err := h.keys.Generate(req.KeyName)
	if err != nil {
		if errors.Is(err, service.ErrKeyExists) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, model.Result{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.Result{Success: true, Message: fmt.Sprintf("SSH key written to %s", path)})
}

func (h *InstallerHandler) GetSSHKey(c *gin.Context) {
	key, err := h.keys.PublicKey(c.Param("name"))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrKeyNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, model.SSHKeyResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.SSHKeyResponse{Key: key})
}

func (h *InstallerHandler) GenerateInstallConfig(c *gin.Context) {
	var params artifact.InstallConfigParams
	if err := c.ShouldBind(&params); err != nil {
		badRequest(c, "form", err)
		return
	}
	c.JSON(http.StatusOK, h.installer.GenerateInstallConfig(params))
}

func (h *InstallerHandler) GenerateAgentConfig(c *gin.Context) {
	var form model.AgentConfigForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, "form", err)
		return
	}
	c.JSON(http.StatusOK, h.installer.GenerateAgentConfig(form))
}

func (h *InstallerHandler) Configure(c *gin.Context) {
	var req model.ConfigureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "type", err)
		return
	}
	c.JSON(http.StatusOK, h.bastion.Configure(c.Request.Context(), req.Type))
}
