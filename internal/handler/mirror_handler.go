package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ocp-installer-helper/internal/artifact"
	"ocp-installer-helper/internal/model"
	"ocp-installer-helper/internal/pkg/logger"
	"ocp-installer-helper/internal/service"
)

// MirrorHandler serves the disconnected mirror preparation page.
type MirrorHandler struct {
	versions  *service.VersionService
	commands  *service.CommandService
	operators *service.OperatorService
	mirror    *service.MirrorService
	tasks     *service.MirrorTaskService
	logger    *logger.Logger
}

func NewMirrorHandler(
	versions *service.VersionService,
	commands *service.CommandService,
	operators *service.OperatorService,
	mirror *service.MirrorService,
	tasks *service.MirrorTaskService,
	logger *logger.Logger,
) *MirrorHandler {
	return &MirrorHandler{
		versions:  versions,
		commands:  commands,
		operators: operators,
		mirror:    mirror,
		tasks:     tasks,
		logger:    logger,
	}
}

func (h *MirrorHandler) Versions(c *gin.Context) {
	versions, err := h.versions.Versions(c.Request.Context())
	if err != nil {
		h.logger.Errorf("failed to list releases: %v", err)
		c.JSON(http.StatusOK, model.VersionsResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.VersionsResponse{Success: true, Versions: versions})
}

func (h *MirrorHandler) ExecuteCommand(c *gin.Context) {
	var req model.ExecuteCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "request", err)
		return
	}
	c.JSON(http.StatusOK, h.commands.Execute(c.Request.Context(), req.CommandKey, req.Version))
}

func (h *MirrorHandler) ListOperators(c *gin.Context) {
	var req model.ListOperatorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "request", err)
		return
	}
	c.JSON(http.StatusOK, h.operators.List(c.Request.Context(), req.Catalog, req.Version))
}

func (h *MirrorHandler) GenerateImageSet(c *gin.Context) {
	var req artifact.ImageSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "request", err)
		return
	}
	c.JSON(http.StatusOK, h.mirror.GenerateImageSet(req))
}

func (h *MirrorHandler) ApplyPullSecret(c *gin.Context) {
	var req model.ApplyPullSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "request", err)
		return
	}
	c.JSON(http.StatusOK, h.mirror.ApplyPullSecret(req.PullSecret))
}

func (h *MirrorHandler) MirrorPullSecret(c *gin.Context) {
	var req model.MirrorPullSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "request", err)
		return
	}
	c.JSON(http.StatusOK, h.mirror.MirrorPullSecret(req))
}

func (h *MirrorHandler) RunMirror(c *gin.Context) {
	taskID, err := h.tasks.Start(h.mirror.ImageSetPath())
	if err != nil {
		c.JSON(http.StatusOK, model.RunMirrorResponse{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.RunMirrorResponse{
		Success: true,
		TaskID:  taskID,
		Message: "Mirroring started in the background",
	})
}

func (h *MirrorHandler) Progress(c *gin.Context) {
	progress, err := h.tasks.Progress(c.Param("taskId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *MirrorHandler) MirrorCA(c *gin.Context) {
	c.JSON(http.StatusOK, h.mirror.MirrorCA())
}
