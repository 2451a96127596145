package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ocp-installer-helper/internal/model"
	"ocp-installer-helper/internal/service"
)

// FormHandler exposes the node form of the agent-config page. Each browser
// tab works on its own session.
type FormHandler struct {
	forms *service.FormService
}

func NewFormHandler(forms *service.FormService) *FormHandler {
	return &FormHandler{forms: forms}
}

func (h *FormHandler) reply(c *gin.Context, st model.SessionState, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *FormHandler) CreateSession(c *gin.Context) {
	c.JSON(http.StatusCreated, h.forms.Create())
}

func (h *FormHandler) DeleteSession(c *gin.Context) {
	if err := h.forms.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FormHandler) State(c *gin.Context) {
	st, err := h.forms.State(c.Param("id"))
	h.reply(c, st, err)
}

func (h *FormHandler) AddNode(c *gin.Context) {
	index, st, err := h.forms.AddNode(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.AddNodeResponse{Success: true, Index: index, State: st})
}

func (h *FormHandler) RemoveNode(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	st, err := h.forms.RemoveNode(c.Param("id"), index)
	h.reply(c, st, err)
}

func (h *FormHandler) SetRole(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var req model.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "role", err)
		return
	}
	st, err := h.forms.SetRole(c.Param("id"), index, req.Role)
	h.reply(c, st, err)
}

func (h *FormHandler) SetHostname(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var req model.SetHostnameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "hostname", err)
		return
	}
	st, err := h.forms.SetHostname(c.Param("id"), index, req.Hostname)
	h.reply(c, st, err)
}

func (h *FormHandler) SetInterfaceType(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var req model.SetInterfaceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "interfaceType", err)
		return
	}
	st, err := h.forms.SetInterfaceType(c.Param("id"), index, req.InterfaceType)
	h.reply(c, st, err)
}

func (h *FormHandler) Candidates(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	candidates, err := h.forms.Candidates(c.Param("id"), index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

func (h *FormHandler) Build(c *gin.Context) {
	var req model.BuildNodesRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "overrides", err)
			return
		}
	}
	hosts, data, err := h.forms.Build(c.Param("id"), req.Overrides)
	if err != nil {
		status, apiErr := classify(err)
		c.JSON(status, model.BuildNodesResponse{Success: false, Error: apiErr.Error(), Index: failedIndex(err)})
		return
	}
	c.JSON(http.StatusOK, model.BuildNodesResponse{Success: true, Hosts: hosts, NodesData: data})
}
